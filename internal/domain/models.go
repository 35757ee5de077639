package domain

// Store is a campaign store row as served by the admin API, plus the
// derived available-prize count merged in from the counts endpoint.
type Store struct {
	ID                   string      `json:"id"`
	Name                 string      `json:"name"`
	Campaign             string      `json:"campaign"`
	IsActive             bool        `json:"is_active"`
	CreatedAt            string      `json:"created_at"`
	UpdatedAt            string      `json:"updated_at"`
	AvailablePrizesCount int         `json:"available_prizes_count"`
	Prizes               []PrizeEdit `json:"prizes,omitempty"`
}

// Prize as returned by GET /api/v1/admin/prizes/store/:storeId.
type Prize struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	InitialStock   int    `json:"initial_stock"`
	AvailableStock int    `json:"available_stock"`
	CreatedAt      string `json:"created_at"`
}

// PrizeInput is one named prize with its initial stock on the create form.
type PrizeInput struct {
	Nombre string `json:"nombre"`
	Stock  int    `json:"stock"`
}

// PrizeEdit is the edit-form shape of a prize, mapped from the server
// fields name / initial_stock / available_stock.
type PrizeEdit struct {
	ID              string `json:"id"`
	Nombre          string `json:"nombre"`
	StockInicial    int    `json:"stock_inicial"`
	StockDisponible int    `json:"stock_disponible"`
}

// SpinResult is the outcome of one spin attempt. Success reflects the HTTP
// status of the spin call only; PrizeName may be empty even on success.
type SpinResult struct {
	Success    bool   `json:"success"`
	PrizeName  string `json:"prizeName,omitempty"`
	RegisterID string `json:"registerId,omitempty"`
}

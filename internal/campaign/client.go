// Package campaign is the data-access layer of the app. Every entity
// (stores, prizes, registrations) is owned by the remote campaign API and
// reached over HTTP/JSON; nothing is persisted locally.
package campaign

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"ruletapromo/internal/domain"
)

// APIError is a non-2xx response from the campaign API, carrying the
// server-provided message when one was present in the body.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("campaign api: status %d", e.Status)
}

// Client talks to the campaign API and the photo-upload service.
// The zero http.Client is used on purpose: requests are bounded by the
// caller's context, never by a client-wide timeout.
type Client struct {
	BaseURL   string
	UploadURL string
	Campaign  string
	HTTP      *http.Client
}

func New(baseURL, uploadURL, campaignName string) *Client {
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		UploadURL: uploadURL,
		Campaign:  campaignName,
		HTTP:      &http.Client{},
	}
}

// envelope is the defensive decode target for every response: any JSON
// object with an optional message and success flag. Endpoints that deviate
// still decode without error.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`

	raw []byte // body as received, for endpoints with top-level payloads
}

// do sends the request and decodes the body into an envelope. A non-2xx
// status becomes an *APIError with the server message; transport failures
// are returned as-is so callers can tell connectivity from business errors.
func (c *Client) do(req *http.Request) (*envelope, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var env envelope
	// Tolerate empty or non-JSON bodies; the status code is authoritative.
	_ = json.Unmarshal(body, &env)
	env.raw = body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values) (*envelope, error) {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req)
}

// ListStores fetches one page of stores filtered by campaign.
func (c *Client) ListStores(ctx context.Context, page, limit int) ([]domain.Store, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("campaign", c.Campaign)
	env, err := c.getJSON(ctx, "/api/v1/admin/stores", q)
	if err != nil {
		return nil, err
	}
	var data struct {
		Stores []domain.Store `json:"stores"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Stores == nil {
		return nil, fmt.Errorf("la respuesta de la API no contiene el listado de tiendas")
	}
	return data.Stores, nil
}

// PrizeCounts fetches the available-prize count per store for the campaign.
func (c *Client) PrizeCounts(ctx context.Context) (map[string]int, error) {
	q := url.Values{}
	q.Set("campaign", c.Campaign)
	env, err := c.getJSON(ctx, "/api/v1/admin/prizes/counts", q)
	if err != nil {
		return nil, err
	}
	var data struct {
		Counts map[string]int `json:"counts"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Counts == nil {
		return nil, fmt.Errorf("la respuesta de la API no contiene conteos")
	}
	return data.Counts, nil
}

// StorePrizes fetches the full prize list of one store.
func (c *Client) StorePrizes(ctx context.Context, storeID string) ([]domain.Prize, error) {
	env, err := c.getJSON(ctx, "/api/v1/admin/prizes/store/"+url.PathEscape(storeID), nil)
	if err != nil {
		return nil, err
	}
	if env.Success != nil && !*env.Success {
		return nil, &APIError{Status: http.StatusOK, Message: orDefault(env.Message, "Fallo al obtener premios de la tienda.")}
	}
	var data struct {
		Prizes []domain.Prize `json:"prizes"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.Prizes == nil {
		return nil, fmt.Errorf("fallo al obtener la lista de premios")
	}
	return data.Prizes, nil
}

// CreateStore creates a store for the campaign and returns its id.
func (c *Client) CreateStore(ctx context.Context, name string) (string, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/admin/stores", map[string]string{
		"name":     name,
		"campaign": c.Campaign,
	})
	if err != nil {
		return "", err
	}
	var data struct {
		StoreID string `json:"storeId"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.StoreID == "" {
		return "", fmt.Errorf("fallo al crear la tienda")
	}
	return data.StoreID, nil
}

// CreatePrize creates one prize under a store.
func (c *Client) CreatePrize(ctx context.Context, storeID, name, description string, initialStock int) error {
	_, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/admin/prizes", map[string]any{
		"storeId":      storeID,
		"name":         name,
		"description":  description,
		"initialStock": initialStock,
	})
	return err
}

// UpdateStore renames a store. The API signals failure either via status or
// via an explicit success:false body.
func (c *Client) UpdateStore(ctx context.Context, id, name string) error {
	env, err := c.sendJSON(ctx, http.MethodPut, "/api/v1/admin/stores/"+url.PathEscape(id), map[string]string{"name": name})
	if err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Status: http.StatusOK, Message: orDefault(env.Message, "Fallo al actualizar el nombre de la tienda.")}
	}
	return nil
}

// UpdatePrize sets a prize's name and available stock.
func (c *Client) UpdatePrize(ctx context.Context, id, name string, availableStock int) error {
	env, err := c.sendJSON(ctx, http.MethodPut, "/api/v1/admin/prizes/"+url.PathEscape(id), map[string]any{
		"name":           name,
		"availableStock": availableStock,
	})
	if err != nil {
		return err
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Status: http.StatusOK, Message: orDefault(env.Message, "Fallo al actualizar el premio "+name+".")}
	}
	return nil
}

// DeactivateStore soft-deletes a store.
func (c *Client) DeactivateStore(ctx context.Context, id string) error {
	_, err := c.sendJSON(ctx, http.MethodPatch, "/api/v1/admin/stores/"+url.PathEscape(id)+"/deactivate", nil)
	return err
}

// RegisterPayload is the registration body shared by both submit endpoints.
type RegisterPayload struct {
	Name          string `json:"name"`
	PhoneNumber   string `json:"phoneNumber"`
	DNI           string `json:"dni"`
	Campaign      string `json:"campaign"`
	PhotoURL      string `json:"photoUrl"`
	VoucherNumber string `json:"voucherNumber"`
	StoreID       string `json:"storeId,omitempty"`
}

// ClaimResult is the interesting part of a successful claim response.
type ClaimResult struct {
	Prize      string `json:"prize"`
	PhotoURL   string `json:"photoUrl"`
	RegisterID string `json:"registerId"`
}

// Register submits a registration with no prize claim.
func (c *Client) Register(ctx context.Context, p RegisterPayload) error {
	p.Campaign = c.Campaign
	p.StoreID = ""
	_, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/only-register", p)
	return err
}

// Claim submits a registration tied to a store and returns the prize data.
func (c *Client) Claim(ctx context.Context, p RegisterPayload) (ClaimResult, error) {
	p.Campaign = c.Campaign
	env, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/claim", p)
	if err != nil {
		return ClaimResult{}, err
	}
	var res ClaimResult
	// Claim responses carry prize data at the top level, not under data.
	_ = json.Unmarshal(env.raw, &res)
	return res, nil
}

// SpinResponse is the payload of a winning spin.
type SpinResponse struct {
	Prize      string `json:"prize"`
	RegisterID string `json:"registerId"`
}

// Spin posts a spin attempt for a store. An empty prize on a 2xx is passed
// through untouched; winning is decided by status alone.
func (c *Client) Spin(ctx context.Context, storeID string) (SpinResponse, error) {
	env, err := c.sendJSON(ctx, http.MethodPost, "/api/v1/spin-roulette", map[string]string{
		"storeId":  storeID,
		"campaign": c.Campaign,
	})
	if err != nil {
		return SpinResponse{}, err
	}
	var out SpinResponse
	_ = json.Unmarshal(env.raw, &out)
	return out, nil
}

// UploadPhoto sends the compressed photo as multipart field "photo" to the
// upload service and returns the public URL of the stored file.
func (c *Client) UploadPhoto(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("photo", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.UploadURL, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(raw, &out); err != nil || out.URL == "" {
		return "", fmt.Errorf("la subida no devolvió una URL")
	}
	return out.URL, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

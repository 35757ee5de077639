package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"ruletapromo/internal/campaign"
	"ruletapromo/internal/domain"
)

// storesPageLimit mirrors the page size the admin view always asks for.
const storesPageLimit = 150

var ErrStoreNotFound = errors.New("Tienda no encontrada o ya estaba inactiva.")

// StoreBoard owns the admin view of store rows. It is the single writer:
// rows are fetched once and then reconciled locally after every mutation,
// without a refetch. The mutex serializes writers; it does not de-duplicate
// repeated operations — the page disables its controls while one is pending.
type StoreBoard struct {
	API *campaign.Client

	mu     sync.RWMutex
	rows   []domain.Store
	loaded bool
}

func NewStoreBoard(api *campaign.Client) *StoreBoard {
	return &StoreBoard{API: api}
}

// Load fetches the store list and the prize-count map concurrently and
// merges them. A counts failure is tolerated (logged, zero counts); a
// stores failure is fatal for the view.
func (b *StoreBoard) Load(ctx context.Context) error {
	var (
		wg        sync.WaitGroup
		stores    []domain.Store
		counts    map[string]int
		storesErr error
		countsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		stores, storesErr = b.API.ListStores(ctx, 1, storesPageLimit)
	}()
	go func() {
		defer wg.Done()
		counts, countsErr = b.API.PrizeCounts(ctx)
	}()
	wg.Wait()

	if storesErr != nil {
		return fmt.Errorf("Error al cargar datos: %v", adminError(storesErr, "no se pudo obtener el listado de tiendas"))
	}
	if countsErr != nil {
		log.Printf("[warn] prize counts unavailable, showing 0: %v", countsErr)
		counts = map[string]int{}
	}

	for i := range stores {
		stores[i].AvailablePrizesCount = counts[stores[i].ID]
	}

	b.mu.Lock()
	b.rows = stores
	b.loaded = true
	b.mu.Unlock()
	return nil
}

// Loaded reports whether the board holds server truth yet.
func (b *StoreBoard) Loaded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.loaded
}

// Rows returns a sorted copy of every row, inactive ones included.
func (b *StoreBoard) Rows(mode SortMode) []domain.Store {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return SortRows(b.rows, mode)
}

// Row looks up one store by id.
func (b *StoreBoard) Row(id string) (domain.Store, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.rows {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Store{}, false
}

// Create posts the store, then creates every prize in parallel. A prize
// failure propagates and the store stays created upstream — there is no
// compensating delete; the local row is only prepended on overall success,
// with its count precomputed from the submitted stocks.
func (b *StoreBoard) Create(ctx context.Context, name string, prizes []domain.PrizeInput) error {
	storeID, err := b.API.CreateStore(ctx, name)
	if err != nil {
		return adminError(err, "Fallo al crear la tienda.")
	}

	ops := make([]func() error, 0, len(prizes))
	for _, p := range prizes {
		p := p
		ops = append(ops, func() error {
			desc := fmt.Sprintf("Premio de %s para %s", p.Nombre, b.API.Campaign)
			if err := b.API.CreatePrize(ctx, storeID, p.Nombre, desc, p.Stock); err != nil {
				return adminError(err, "Fallo al crear el premio: "+p.Nombre)
			}
			return nil
		})
	}
	if err := runAll(ops); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	total := 0
	for _, p := range prizes {
		total += p.Stock
	}
	row := domain.Store{
		ID:                   storeID,
		Name:                 name,
		Campaign:             b.API.Campaign,
		IsActive:             true,
		CreatedAt:            now,
		UpdatedAt:            now,
		AvailablePrizesCount: total,
	}

	b.mu.Lock()
	b.rows = ApplyCreate(b.rows, row)
	b.mu.Unlock()
	return nil
}

// Update joins at most one store-name update (only when the name changed)
// with one stock update per prize row. Any single failure rejects the whole
// operation; server-side changes already applied stay applied.
func (b *StoreBoard) Update(ctx context.Context, id, name string, prizes []domain.PrizeEdit) error {
	current, ok := b.Row(id)
	if !ok {
		return errors.New("No hay tienda seleccionada para actualizar.")
	}

	var ops []func() error
	if name != current.Name {
		ops = append(ops, func() error {
			if err := b.API.UpdateStore(ctx, id, name); err != nil {
				return adminError(err, "Fallo al actualizar el nombre de la tienda.")
			}
			return nil
		})
	}
	for _, p := range prizes {
		p := p
		ops = append(ops, func() error {
			if err := b.API.UpdatePrize(ctx, p.ID, p.Nombre, p.StockDisponible); err != nil {
				return adminError(err, "Fallo al actualizar el premio "+p.Nombre+".")
			}
			return nil
		})
	}
	if err := runAll(ops); err != nil {
		return fmt.Errorf("Fallo al guardar cambios: %v", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	b.mu.Lock()
	b.rows = ApplyUpdate(b.rows, id, name, prizes, now)
	b.mu.Unlock()
	return nil
}

// Deactivate soft-deletes the store upstream and flips the local row's
// active flag. The record is kept; the active-only view simply stops
// showing it.
func (b *StoreBoard) Deactivate(ctx context.Context, id string) error {
	if err := b.API.DeactivateStore(ctx, id); err != nil {
		var apiErr *campaign.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return ErrStoreNotFound
		}
		return adminError(err, "Error al desactivar la tienda.")
	}

	b.mu.Lock()
	b.rows = ApplyDeactivate(b.rows, id)
	b.mu.Unlock()
	return nil
}

// PrizesForEdit fetches the store's prizes and maps them into the edit
// shape. A failure here aborts opening the edit form.
func (b *StoreBoard) PrizesForEdit(ctx context.Context, id string) ([]domain.PrizeEdit, error) {
	prizes, err := b.API.StorePrizes(ctx, id)
	if err != nil {
		return nil, adminError(err, "Fallo al obtener la lista de premios.")
	}
	out := make([]domain.PrizeEdit, 0, len(prizes))
	for _, p := range prizes {
		out = append(out, domain.PrizeEdit{
			ID:              p.ID,
			Nombre:          p.Name,
			StockInicial:    p.InitialStock,
			StockDisponible: p.AvailableStock,
		})
	}
	return out, nil
}

// runAll fans the operations out concurrently and joins them, reporting the
// first failure. Completed siblings are not rolled back.
func runAll(ops []func() error) error {
	if len(ops) == 0 {
		return nil
	}
	errc := make(chan error, len(ops))
	for _, op := range ops {
		go func(op func() error) { errc <- op() }(op)
	}
	var first error
	for range ops {
		if err := <-errc; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// adminError keeps the server message when there is one and falls back to
// the operation-specific copy, or a connectivity message for transport
// failures.
func adminError(err error, fallback string) error {
	var apiErr *campaign.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return errors.New(fallback)
	}
	// Transport and body-shape errors already carry a readable message.
	return err
}

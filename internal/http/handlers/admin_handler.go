package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"ruletapromo/internal/domain"
	applog "ruletapromo/internal/log"
	"ruletapromo/internal/services"
	"ruletapromo/internal/share"
	"ruletapromo/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	Board   *services.StoreBoard
	BaseURL string
}

// storeRowView is one table row plus its derived share link.
type storeRowView struct {
	domain.Store
	ShareURL string
}

// GET /tiendas — the admin table. Rows are loaded from the API once and
// then owned locally; the sort toggle re-derives the visible order.
func (h *AdminHandler) Page(c *fiber.Ctx) error {
	if !h.Board.Loaded() {
		if err := h.Board.Load(c.UserContext()); err != nil {
			applog.Error(c, "admin.stores.load.fail", err, nil)
			return render(c, "tiendas", fiber.Map{"Error": err.Error(), "Sort": string(services.SortRecent)})
		}
	}

	mode := services.ParseSortMode(c.Query("sort"))
	active := services.FilterActive(h.Board.Rows(mode))
	rows := make([]storeRowView, 0, len(active))
	for _, s := range active {
		rows = append(rows, storeRowView{Store: s, ShareURL: share.StoreURL(h.BaseURL, s.ID)})
	}

	return render(c, "tiendas", fiber.Map{
		"Rows":    rows,
		"Sort":    string(mode),
		"Message": c.Query("msg"),
		"Error":   c.Query("err"),
	})
}

// POST /tiendas — create a store with its initial prize stock.
func (h *AdminHandler) Create(c *fiber.Ctx) error {
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return h.redirectErr(c, "Nombre de tienda inválido.")
	}
	prizes := prizeInputs(c)
	if len(prizes) == 0 {
		return h.redirectErr(c, "Agrega al menos un premio.")
	}

	if err := h.Board.Create(c.UserContext(), name, prizes); err != nil {
		applog.Error(c, "admin.stores.create.fail", err, map[string]any{"name": name})
		return h.redirectErr(c, err.Error())
	}
	applog.Audit(c, "admin.stores.create", map[string]any{"name": name, "prizes": len(prizes)})
	return h.redirectMsg(c, "Tienda y premios creados exitosamente")
}

// POST /tiendas/:id — rename and adjust stock; the joined batch is
// all-or-nothing on the reported outcome only.
func (h *AdminHandler) Update(c *fiber.Ctx) error {
	id, okID := validate.StoreID(c.Params("id"))
	name, okName := validate.Name(c.FormValue("name"))
	if !okID || !okName {
		return h.redirectErr(c, "Datos de edición inválidos.")
	}
	prizes := prizeEdits(c)

	if err := h.Board.Update(c.UserContext(), id, name, prizes); err != nil {
		applog.Error(c, "admin.stores.update.fail", err, map[string]any{"store_id": id})
		return h.redirectErr(c, err.Error())
	}
	applog.Audit(c, "admin.stores.update", map[string]any{"store_id": id, "prizes": len(prizes)})
	return h.redirectMsg(c, "Tienda y "+strconv.Itoa(len(prizes))+" premios actualizados exitosamente.")
}

// POST /tiendas/:id/deactivate — soft delete.
func (h *AdminHandler) Deactivate(c *fiber.Ctx) error {
	id, ok := validate.StoreID(c.Params("id"))
	if !ok {
		return h.redirectErr(c, "Falta el identificador de la tienda.")
	}
	if err := h.Board.Deactivate(c.UserContext(), id); err != nil {
		applog.Error(c, "admin.stores.deactivate.fail", err, map[string]any{"store_id": id})
		return h.redirectErr(c, err.Error())
	}
	applog.Audit(c, "admin.stores.deactivate", map[string]any{"store_id": id})
	return h.redirectMsg(c, "Tienda desactivada exitosamente.")
}

// GET /tiendas/:id/premios — prize list in the edit shape, fetched before
// the edit form opens; a failure aborts the open.
func (h *AdminHandler) Prizes(c *fiber.Ctx) error {
	id := c.Params("id")
	prizes, err := h.Board.PrizesForEdit(c.UserContext(), id)
	if err != nil {
		applog.Error(c, "admin.prizes.fetch.fail", err, map[string]any{"store_id": id})
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	return c.JSON(fiber.Map{"success": true, "data": fiber.Map{"prizes": prizes}})
}

// GET /tiendas/:id/qr.png — the share link as a downloadable QR code.
func (h *AdminHandler) QR(c *fiber.Ctx) error {
	id := c.Params("id")
	name := id
	if row, ok := h.Board.Row(id); ok {
		name = row.Name
	}
	png, err := share.QRPNG(share.StoreURL(h.BaseURL, id))
	if err != nil {
		applog.Error(c, "admin.qr.fail", err, map[string]any{"store_id": id})
		return c.Status(fiber.StatusInternalServerError).SendString("could not render QR")
	}
	c.Set(fiber.HeaderContentType, "image/png")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+share.FileName(name)+`"`)
	return c.Send(png)
}

func (h *AdminHandler) redirectMsg(c *fiber.Ctx, msg string) error {
	return c.Redirect("/tiendas?sort=" + c.Query("sort", string(services.SortRecent)) + "&msg=" + url.QueryEscape(msg))
}

func (h *AdminHandler) redirectErr(c *fiber.Ctx, msg string) error {
	return c.Redirect("/tiendas?sort=" + c.Query("sort", string(services.SortRecent)) + "&err=" + url.QueryEscape(msg))
}

// prizeInputs reads the parallel prize_nombre / prize_stock columns of the
// create form. Rows with empty names are dropped; stocks clamp at zero.
func prizeInputs(c *fiber.Ctx) []domain.PrizeInput {
	names := formAll(c, "prize_nombre")
	stocks := formAll(c, "prize_stock")
	out := make([]domain.PrizeInput, 0, len(names))
	for i, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		stock := 0
		if i < len(stocks) {
			stock = clampStock(stocks[i])
		}
		out = append(out, domain.PrizeInput{Nombre: n, Stock: stock})
	}
	return out
}

// prizeEdits reads the parallel columns of the edit form.
func prizeEdits(c *fiber.Ctx) []domain.PrizeEdit {
	ids := formAll(c, "prize_id")
	names := formAll(c, "prize_nombre")
	initial := formAll(c, "prize_stock_inicial")
	available := formAll(c, "prize_stock_disponible")
	out := make([]domain.PrizeEdit, 0, len(ids))
	for i, id := range ids {
		if id == "" {
			continue
		}
		p := domain.PrizeEdit{ID: id}
		if i < len(names) {
			p.Nombre = strings.TrimSpace(names[i])
		}
		if i < len(initial) {
			p.StockInicial = clampStock(initial[i])
		}
		if i < len(available) {
			p.StockDisponible = clampStock(available[i])
		}
		out = append(out, p)
	}
	return out
}

func formAll(c *fiber.Ctx, key string) []string {
	vals := c.Context().PostArgs().PeekMulti(key)
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

// clampStock converts form input to a non-negative count; junk becomes 0.
func clampStock(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

package handlers

import (
	"errors"
	"io"
	"net/url"

	applog "ruletapromo/internal/log"
	"ruletapromo/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// Shown when the photo part was attached but could not be read.
const msgPhotoRead = "No se pudo leer la foto del comprobante. Inténtalo de nuevo."

type GameHandler struct {
	Reg *services.RegistrationService
}

// GET /:storeId — the wheel + registration page. A missing store id still
// renders the page; it just cannot spin or claim.
func (h *GameHandler) Page(c *fiber.Ctx) error {
	storeID := c.Params("storeId")
	if storeID == "" {
		storeID = c.Query("store")
	}
	return render(c, "ruleta", fiber.Map{
		"StoreID": storeID,
		"Message": "",
	})
}

// POST /participar — the registration/claim submission. The endpoint the
// campaign API sees is chosen by the presence of the store id.
func (h *GameHandler) Submit(c *fiber.Ctx) error {
	sub := services.Submission{
		Name:    c.FormValue("name"),
		Phone:   c.FormValue("phone"),
		DNI:     c.FormValue("dni"),
		Voucher: c.FormValue("voucher"),
		StoreID: c.FormValue("store_id"),
	}
	fh, ferr := c.FormFile("photo")
	switch {
	case ferr == nil && fh != nil && fh.Size > 0:
		f, err := fh.Open()
		if err != nil {
			return h.photoReadError(c, sub, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return h.photoReadError(c, sub, err)
		}
		sub.Photo = data
	case ferr != nil && !errors.Is(ferr, fasthttp.ErrMissingFile) && !errors.Is(ferr, fasthttp.ErrNoMultipartForm):
		// A file was claimed but the body could not be parsed; leaving
		// sub.Photo empty would misreport this as a missing photo.
		return h.photoReadError(c, sub, ferr)
	}

	out, err := h.Reg.Submit(c.UserContext(), sub)
	if err != nil {
		applog.Info(c, "register.reject", map[string]any{"store": sub.StoreID, "reason": err.Error()})
		c.Status(fiber.StatusBadRequest)
		return render(c, "ruleta", fiber.Map{
			"StoreID": sub.StoreID,
			"Message": err.Error(),
			"Name":    sub.Name,
			"Phone":   sub.Phone,
			"DNI":     sub.DNI,
			"Voucher": sub.Voucher,
		})
	}

	applog.Audit(c, "register.accept", map[string]any{"store": sub.StoreID, "claimed": out.Claimed})
	if out.Claimed {
		q := url.Values{}
		q.Set("prize", out.PrizeName)
		q.Set("photo", out.PhotoURL)
		q.Set("store", sub.StoreID)
		return c.Redirect("/exit?" + q.Encode())
	}
	return c.Redirect("/exit")
}

func (h *GameHandler) photoReadError(c *fiber.Ctx, sub services.Submission, err error) error {
	applog.Error(c, "register.photo.read", err, map[string]any{"store": sub.StoreID})
	c.Status(fiber.StatusBadRequest)
	return render(c, "ruleta", fiber.Map{
		"StoreID": sub.StoreID,
		"Message": msgPhotoRead,
		"Name":    sub.Name,
		"Phone":   sub.Phone,
		"DNI":     sub.DNI,
		"Voucher": sub.Voucher,
	})
}

// POST /spin — JSON consumed by the wheel page while it sequences the
// animation. The page disables the button while a spin is in flight; no
// de-duplication happens here.
func (h *GameHandler) Spin(c *fiber.Ctx) error {
	storeID := c.FormValue("store_id")
	result, err := h.Reg.Spin(c.UserContext(), storeID)
	if err != nil {
		applog.Info(c, "spin.fail", map[string]any{"store": storeID, "reason": err.Error()})
		return c.JSON(fiber.Map{"success": false, "message": err.Error()})
	}
	if !result.Success {
		return c.JSON(fiber.Map{"success": false})
	}
	applog.Audit(c, "spin.win", map[string]any{"store": storeID, "prize": result.PrizeName, "register_id": result.RegisterID})
	return c.JSON(result)
}

// GET /exit — confirmation view; prize data travels as query state.
func (h *GameHandler) Exit(c *fiber.Ctx) error {
	return render(c, "exit", fiber.Map{
		"PrizeName":  c.Query("prize"),
		"PhotoURL":   c.Query("photo"),
		"RegisterID": c.Query("registerId"),
		"StoreID":    c.Query("store"),
	})
}

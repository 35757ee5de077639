package services

import (
	"context"
	"errors"
	"fmt"

	"ruletapromo/internal/campaign"
	"ruletapromo/internal/domain"
	"ruletapromo/internal/photo"
	"ruletapromo/internal/validate"

	"github.com/google/uuid"
)

// User-facing failure messages, matching the campaign copy.
var (
	ErrInvalidName     = errors.New("Nombre inválido (máx. 45 caracteres).")
	ErrInvalidPhone    = errors.New("Teléfono debe tener exactamente 9 dígitos numéricos.")
	ErrInvalidDNI      = errors.New("DNI inválido (debe tener entre 8 y 11 dígitos numéricos).")
	ErrInvalidVoucher  = errors.New("Comprobante inválido (debe tener entre 6 y 20 caracteres).")
	ErrPhotoRequired   = errors.New("La foto del comprobante es obligatoria.")
	ErrPhotoCompress   = errors.New("Error al comprimir la imagen.")
	ErrRegisterGeneric = errors.New("Error en el registro")
	ErrConnectivity    = errors.New("No se pudo conectar al servidor de premios")
)

// DefaultPrizeName is shown when a claim wins but the API names no prize.
const DefaultPrizeName = "Un gran premio!"

// Submission is one registration attempt as received from the form.
type Submission struct {
	Name    string
	Phone   string
	DNI     string
	Voucher string
	Photo   []byte // raw upload; empty means no file attached
	StoreID string // empty selects the only-register flow
}

// Outcome is what the exit page needs after a successful submission.
type Outcome struct {
	Claimed   bool
	PrizeName string
	PhotoURL  string
}

// RegistrationService runs the validate → compress → upload → submit
// pipeline and the spin call.
type RegistrationService struct {
	API *campaign.Client
}

func NewRegistrationService(api *campaign.Client) *RegistrationService {
	return &RegistrationService{API: api}
}

// Submit validates the fields in order (first violation wins), compresses
// and uploads the photo, then posts the registration. An upload failure
// aborts before the registration call; there is no retry anywhere.
func (s *RegistrationService) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	name, ok := validate.Name(sub.Name)
	if !ok {
		return Outcome{}, ErrInvalidName
	}
	phone, ok := validate.Phone(sub.Phone)
	if !ok {
		return Outcome{}, ErrInvalidPhone
	}
	dni, ok := validate.DNI(sub.DNI)
	if !ok {
		return Outcome{}, ErrInvalidDNI
	}
	voucher, ok := validate.Voucher(sub.Voucher)
	if !ok {
		return Outcome{}, ErrInvalidVoucher
	}
	if len(sub.Photo) == 0 {
		return Outcome{}, ErrPhotoRequired
	}

	compressed, err := photo.Compress(sub.Photo)
	if err != nil {
		return Outcome{}, ErrPhotoCompress
	}

	photoURL, err := s.API.UploadPhoto(ctx, "photo-"+uuid.NewString()+".jpg", compressed)
	if err != nil {
		return Outcome{}, fmt.Errorf("Fallo crítico al subir la foto. %v", err)
	}

	payload := campaign.RegisterPayload{
		Name:          name,
		PhoneNumber:   phone,
		DNI:           dni,
		PhotoURL:      photoURL,
		VoucherNumber: voucher,
		StoreID:       sub.StoreID,
	}

	if sub.StoreID != "" {
		res, err := s.API.Claim(ctx, payload)
		if err != nil {
			return Outcome{}, submitError(err)
		}
		out := Outcome{Claimed: true, PrizeName: res.Prize, PhotoURL: res.PhotoURL}
		if out.PrizeName == "" {
			out.PrizeName = DefaultPrizeName
		}
		if out.PhotoURL == "" {
			out.PhotoURL = photoURL
		}
		return out, nil
	}

	if err := s.API.Register(ctx, payload); err != nil {
		return Outcome{}, submitError(err)
	}
	return Outcome{}, nil
}

// Spin requires a store id; without one it returns a losing result with no
// network call. A 2xx upstream is a win even when no prize name came back.
func (s *RegistrationService) Spin(ctx context.Context, storeID string) (domain.SpinResult, error) {
	if storeID == "" {
		return domain.SpinResult{Success: false}, nil
	}
	res, err := s.API.Spin(ctx, storeID)
	if err != nil {
		var apiErr *campaign.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = "Error"
			}
			return domain.SpinResult{Success: false}, errors.New(msg)
		}
		return domain.SpinResult{Success: false}, ErrConnectivity
	}
	return domain.SpinResult{Success: true, PrizeName: res.Prize, RegisterID: res.RegisterID}, nil
}

// submitError turns a campaign client error into the message shown inline.
func submitError(err error) error {
	var apiErr *campaign.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return ErrRegisterGeneric
	}
	return ErrConnectivity
}

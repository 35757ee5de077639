package services_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"ruletapromo/internal/campaign"
	"ruletapromo/internal/services"
)

// upstream is a scriptable double for the campaign API + upload service.
type upstream struct {
	mu        sync.Mutex
	hits      map[string]int
	uploadOK  bool
	claimBody string
	spinBody  string
	spinCode  int
}

func newUpstream() *upstream {
	return &upstream{
		hits:      map[string]int{},
		uploadOK:  true,
		claimBody: `{"prize":"Pelota Inflable","photoUrl":"https://media.example.pe/final.jpg","registerId":"r9"}`,
		spinBody:  `{"prize":"Abanico","registerId":"r1"}`,
		spinCode:  200,
	}
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	u.mu.Unlock()

	switch r.URL.Path {
	case "/upload":
		if !u.uploadOK {
			w.WriteHeader(http.StatusInternalServerError)
			io.WriteString(w, "disk full")
			return
		}
		io.WriteString(w, `{"url":"https://media.example.pe/r.jpg"}`)
	case "/api/v1/claim":
		io.WriteString(w, u.claimBody)
	case "/api/v1/only-register":
		io.WriteString(w, `{"success":true}`)
	case "/api/v1/spin-roulette":
		w.WriteHeader(u.spinCode)
		io.WriteString(w, u.spinBody)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testPhoto(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 40))
	for y := 0; y < 40; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{200, 120, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func validSubmission(t *testing.T, storeID string) services.Submission {
	return services.Submission{
		Name:    "Ana María",
		Phone:   "987654321",
		DNI:     "12345678",
		Voucher: "F001-123456",
		Photo:   testPhoto(t),
		StoreID: storeID,
	}
}

func newRegService(t *testing.T, u *upstream) (*services.RegistrationService, func()) {
	t.Helper()
	srv := httptest.NewServer(u)
	api := campaign.New(srv.URL, srv.URL+"/upload", "verano")
	return services.NewRegistrationService(api), srv.Close
}

func TestSubmitChoosesEndpointByStoreID(t *testing.T) {
	t.Run("with store id uses claim", func(t *testing.T) {
		u := newUpstream()
		reg, done := newRegService(t, u)
		defer done()

		out, err := reg.Submit(context.Background(), validSubmission(t, "s1"))
		if err != nil {
			t.Fatal(err)
		}
		if u.count("/api/v1/claim") != 1 || u.count("/api/v1/only-register") != 0 {
			t.Fatalf("claim=%d register=%d", u.count("/api/v1/claim"), u.count("/api/v1/only-register"))
		}
		if !out.Claimed || out.PrizeName != "Pelota Inflable" {
			t.Fatalf("outcome %+v", out)
		}
		// the claim response photo URL wins over the uploaded one
		if out.PhotoURL != "https://media.example.pe/final.jpg" {
			t.Fatalf("photo %q", out.PhotoURL)
		}
	})

	t.Run("claim without prize falls back to the default", func(t *testing.T) {
		u := newUpstream()
		u.claimBody = `{}`
		reg, done := newRegService(t, u)
		defer done()

		out, err := reg.Submit(context.Background(), validSubmission(t, "s1"))
		if err != nil {
			t.Fatal(err)
		}
		if !out.Claimed || out.PrizeName != services.DefaultPrizeName {
			t.Fatalf("want default prize name, got %+v", out)
		}
		// with no photoUrl in the response, the uploaded URL is kept
		if out.PhotoURL != "https://media.example.pe/r.jpg" {
			t.Fatalf("photo %q", out.PhotoURL)
		}
	})

	t.Run("without store id uses only-register", func(t *testing.T) {
		u := newUpstream()
		reg, done := newRegService(t, u)
		defer done()

		out, err := reg.Submit(context.Background(), validSubmission(t, ""))
		if err != nil {
			t.Fatal(err)
		}
		if u.count("/api/v1/only-register") != 1 || u.count("/api/v1/claim") != 0 {
			t.Fatalf("claim=%d register=%d", u.count("/api/v1/claim"), u.count("/api/v1/only-register"))
		}
		if out.Claimed || out.PrizeName != "" {
			t.Fatalf("plain registration must not carry prize data: %+v", out)
		}
	})
}

func TestSubmitUploadFailureNeverRegisters(t *testing.T) {
	u := newUpstream()
	u.uploadOK = false
	reg, done := newRegService(t, u)
	defer done()

	_, err := reg.Submit(context.Background(), validSubmission(t, "s1"))
	if err == nil {
		t.Fatal("expected upload failure")
	}
	if u.count("/api/v1/claim") != 0 || u.count("/api/v1/only-register") != 0 {
		t.Fatal("registration endpoint must not be called after a failed upload")
	}
}

func TestSubmitValidationOrder(t *testing.T) {
	u := newUpstream()
	reg, done := newRegService(t, u)
	defer done()

	cases := []struct {
		name string
		mut  func(*services.Submission)
		want error
	}{
		{"empty name", func(s *services.Submission) { s.Name = "  " }, services.ErrInvalidName},
		{"bad phone", func(s *services.Submission) { s.Phone = "12345" }, services.ErrInvalidPhone},
		{"bad dni", func(s *services.Submission) { s.DNI = "12" }, services.ErrInvalidDNI},
		{"short voucher", func(s *services.Submission) { s.Voucher = "123" }, services.ErrInvalidVoucher},
		{"no photo", func(s *services.Submission) { s.Photo = nil }, services.ErrPhotoRequired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sub := validSubmission(t, "s1")
			tc.mut(&sub)
			if _, err := reg.Submit(context.Background(), sub); err != tc.want {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}

	t.Run("first violated rule wins", func(t *testing.T) {
		sub := validSubmission(t, "s1")
		sub.Phone = "x"
		sub.DNI = "x"
		if _, err := reg.Submit(context.Background(), sub); err != services.ErrInvalidPhone {
			t.Fatalf("phone rule must win, got %v", err)
		}
	})

	if u.count("/upload") != 0 {
		t.Fatal("validation failures must not reach the upload service")
	}
}

func TestSubmitCompressionFailureBlocks(t *testing.T) {
	u := newUpstream()
	reg, done := newRegService(t, u)
	defer done()

	sub := validSubmission(t, "s1")
	sub.Photo = []byte("not an image")
	if _, err := reg.Submit(context.Background(), sub); err != services.ErrPhotoCompress {
		t.Fatalf("want compression error, got %v", err)
	}
	if u.count("/upload") != 0 {
		t.Fatal("a photo that cannot be compressed must not be uploaded")
	}
}

func TestSpinWithoutStoreMakesNoCall(t *testing.T) {
	u := newUpstream()
	reg, done := newRegService(t, u)
	defer done()

	res, err := reg.Spin(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("spin without store must lose")
	}
	if u.count("/api/v1/spin-roulette") != 0 {
		t.Fatal("spin without store must not hit the network")
	}
}

func TestSpinHTTPOKWinsEvenWithoutPrize(t *testing.T) {
	u := newUpstream()
	u.spinBody = `{}`
	reg, done := newRegService(t, u)
	defer done()

	res, err := reg.Spin(context.Background(), "s1")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Success {
		t.Fatal("a 2xx spin is a win even when the payload names no prize")
	}
	if res.PrizeName != "" {
		t.Fatalf("prize must pass through untouched, got %q", res.PrizeName)
	}
}

func TestSpinSurfacesServerMessage(t *testing.T) {
	u := newUpstream()
	u.spinCode = http.StatusConflict
	u.spinBody = `{"message":"Stock agotado"}`
	reg, done := newRegService(t, u)
	defer done()

	res, err := reg.Spin(context.Background(), "s1")
	if res.Success {
		t.Fatal("non-2xx spin must lose")
	}
	if err == nil || err.Error() != "Stock agotado" {
		t.Fatalf("want server message, got %v", err)
	}
}

func TestSpinConnectivityError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	api := campaign.New(srv.URL, srv.URL+"/upload", "verano")
	srv.Close() // dead upstream

	reg := services.NewRegistrationService(api)
	res, err := reg.Spin(context.Background(), "s1")
	if res.Success || err != services.ErrConnectivity {
		t.Fatalf("want connectivity error, got %v (%+v)", err, res)
	}
}

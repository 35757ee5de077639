// Package photo shrinks receipt photos before they are sent to the upload
// service: longest edge capped at 800px, encoded size capped at 1MB.
package photo

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"
)

const (
	// MaxBytes is the upper bound for the compressed file.
	MaxBytes = 1 << 20
	// MaxEdge is the upper bound for the longest image edge in pixels.
	MaxEdge = 800
)

var ErrTooLarge = errors.New("no se pudo comprimir la imagen por debajo de 1MB")

// Compress decodes the uploaded bytes, scales the longest edge down to
// MaxEdge and re-encodes as JPEG, stepping quality down until the result
// fits MaxBytes. There is no fallback to the original bytes: a photo that
// cannot be compressed blocks the submission.
func Compress(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decodificar la imagen: %w", err)
	}

	b := img.Bounds()
	switch {
	case b.Dx() >= b.Dy() && b.Dx() > MaxEdge:
		img = imaging.Resize(img, MaxEdge, 0, imaging.Lanczos)
	case b.Dy() > b.Dx() && b.Dy() > MaxEdge:
		img = imaging.Resize(img, 0, MaxEdge, imaging.Lanczos)
	}

	for q := 90; q >= 30; q -= 10 {
		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(q)); err != nil {
			return nil, fmt.Errorf("codificar la imagen: %w", err)
		}
		if buf.Len() <= MaxBytes {
			return buf.Bytes(), nil
		}
	}
	return nil, ErrTooLarge
}

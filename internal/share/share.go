// Package share builds the per-store shareable link and its QR code.
package share

import (
	"regexp"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QRSize is the pixel size of exported QR codes.
const QRSize = 600

var reSpaces = regexp.MustCompile(`\s+`)

// StoreURL is the public game link for one store.
func StoreURL(baseURL, storeID string) string {
	return strings.TrimRight(baseURL, "/") + "/" + storeID
}

// FileName is the download name for a store's QR code, derived from the
// store name with whitespace collapsed to underscores.
func FileName(storeName string) string {
	safe := strings.ToLower(reSpaces.ReplaceAllString(strings.TrimSpace(storeName), "_"))
	if safe == "" {
		safe = "tienda"
	}
	return "qr-" + safe + ".png"
}

// QRPNG renders the URL as a high-redundancy QR code PNG.
func QRPNG(url string) ([]byte, error) {
	return qrcode.Encode(url, qrcode.High, QRSize)
}

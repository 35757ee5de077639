package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// Peruvian mobile numbers: exactly 9 digits.
	rePhone = regexp.MustCompile(`^[0-9]{9}$`)
	// National ID (DNI/CE): 8 to 11 digits.
	reDNI = regexp.MustCompile(`^[0-9]{8,11}$`)
)

// Name validates a participant name: required, at most 45 characters after
// trim. Lengths count runes, not bytes, so accented names measure correctly.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || utf8.RuneCountInString(s) > 45 {
		return s, false
	}
	return s, true
}

// Phone validates a phone number: exactly 9 decimal digits.
func Phone(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, rePhone.MatchString(s)
}

// DNI validates a national ID: 8 to 11 decimal digits.
func DNI(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reDNI.MatchString(s)
}

// Voucher validates a purchase-voucher number: 6 to 20 characters after
// trim, any characters allowed.
func Voucher(s string) (string, bool) {
	s = strings.TrimSpace(s)
	l := utf8.RuneCountInString(s)
	return s, l >= 6 && l <= 20
}

// StoreID validates a store identifier taken from the URL.
func StoreID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 64
}

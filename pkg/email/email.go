// Package email normalizes addresses used as match keys.
package email

import (
	"errors"
	"net/mail"
	"strings"
)

// MaxLen is the longest address accepted (RFC 5321 path limit).
const MaxLen = 254

var ErrInvalid = errors.New("invalid email address")

// Normalize parses a bare address and lower-cases it. Display-name forms
// such as "Alice <alice@acme.com>" are rejected.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > MaxLen {
		return "", ErrInvalid
	}
	parsed, err := mail.ParseAddress(raw)
	if err != nil || parsed.Name != "" {
		return "", ErrInvalid
	}
	addr := strings.ToLower(parsed.Address)
	local, domain, ok := Split(addr)
	if !ok || local == "" || domain == "" {
		return "", ErrInvalid
	}
	return addr, nil
}

// Split divides addr at its last '@'.
func Split(addr string) (local, domain string, ok bool) {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return "", "", false
	}
	return addr[:at], addr[at+1:], true
}

package models

import (
	"net/netip"
	"time"

	id "idgraph/pkg/domain"
)

// Signals are the normalised identity hints extracted from one raw event.
// Zero values mean "absent".
type Signals struct {
	VisitorID   *id.VisitorID
	CookieID    string
	Fingerprint string
	Email       string
	EmailDomain string
	IP          netip.Addr
	DomainHint  string
	UserAgent   string
	Bot         bool
	OccurredAt  time.Time
}

// HasAnchor reports whether the signals can locate or create a visitor.
func (s Signals) HasAnchor() bool {
	return s.VisitorID != nil || s.CookieID != "" || s.Fingerprint != ""
}

// HasIdentity reports whether any identity-bearing field is present.
func (s Signals) HasIdentity() bool {
	return s.Email != "" || s.DomainHint != "" || s.IP.IsValid()
}

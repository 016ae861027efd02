package models

import (
	"time"

	"github.com/google/uuid"

	id "idgraph/pkg/domain"
)

// EntityType distinguishes the two kinds of identity a visitor resolves to.
type EntityType string

const (
	EntityPerson  EntityType = "person"
	EntityCompany EntityType = "company"
)

// State is the derived resolution state of a visitor.
type State string

const (
	StateUnresolved      State = "unresolved"
	StatePersonResolved  State = "person_resolved"
	StateCompanyResolved State = "company_resolved"
	StateBothResolved    State = "both_resolved"
)

// Visitor is an anonymous browsing identity within a tenant.
//
// Invariants:
//   - at most one current person and one current company
//   - ResolutionVersion increases by exactly one per accepted update
//   - IdentityConfidence is max(PersonConfidence, CompanyConfidence)
//   - only the resolution writer mutates a visitor; visitors are never deleted
type Visitor struct {
	TenantID           id.TenantID   `json:"tenant_id"`
	ID                 id.VisitorID  `json:"id"`
	CookieID           string        `json:"cookie_id,omitempty"`
	Fingerprint        string        `json:"fingerprint,omitempty"`
	CurrentPersonID    *id.PersonID  `json:"current_person_id,omitempty"`
	CurrentCompanyID   *id.CompanyID `json:"current_company_id,omitempty"`
	PersonConfidence   int           `json:"person_confidence"`
	CompanyConfidence  int           `json:"company_confidence"`
	IdentityConfidence int           `json:"identity_confidence"`
	ResolutionVersion  int64         `json:"resolution_version"`
	FirstSeenAt        time.Time     `json:"first_seen_at"`
	LastSeenAt         time.Time     `json:"last_seen_at"`
}

// NewVisitor creates an unresolved visitor anchored on the given identifiers.
func NewVisitor(tenantID id.TenantID, cookieID, fingerprint string, now time.Time) *Visitor {
	return &Visitor{
		TenantID:    tenantID,
		ID:          id.NewVisitorID(),
		CookieID:    cookieID,
		Fingerprint: fingerprint,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
}

func (v *Visitor) State() State {
	switch {
	case v.CurrentPersonID != nil && v.CurrentCompanyID != nil:
		return StateBothResolved
	case v.CurrentPersonID != nil:
		return StatePersonResolved
	case v.CurrentCompanyID != nil:
		return StateCompanyResolved
	default:
		return StateUnresolved
	}
}

// IsResolved reports whether the visitor has any current identity.
func (v *Visitor) IsResolved() bool {
	return v.State() != StateUnresolved
}

// Clone returns a deep copy safe to mutate.
func (v *Visitor) Clone() *Visitor {
	if v == nil {
		return nil
	}
	c := *v
	if v.CurrentPersonID != nil {
		p := *v.CurrentPersonID
		c.CurrentPersonID = &p
	}
	if v.CurrentCompanyID != nil {
		co := *v.CurrentCompanyID
		c.CurrentCompanyID = &co
	}
	return &c
}

// ConfidenceFor returns the visitor's current confidence for an entity type.
func (v *Visitor) ConfidenceFor(t EntityType) int {
	if t == EntityPerson {
		return v.PersonConfidence
	}
	return v.CompanyConfidence
}

// CurrentEntity returns the current entity id for a type, if any.
func (v *Visitor) CurrentEntity(t EntityType) (uuid.UUID, bool) {
	switch t {
	case EntityPerson:
		if v.CurrentPersonID != nil {
			return uuid.UUID(*v.CurrentPersonID), true
		}
	case EntityCompany:
		if v.CurrentCompanyID != nil {
			return uuid.UUID(*v.CurrentCompanyID), true
		}
	}
	return uuid.Nil, false
}

// Evaluate decides whether a candidate may replace the visitor's current
// assignment for its entity type. It does not mutate the visitor.
//
// A candidate is accepted when it meets the threshold and is not weaker than
// the visitor's identity confidence, so a strong person match is never
// followed by a weaker company match. Re-confirming the same entity without
// raising its confidence is reported as no improvement.
func (v *Visitor) Evaluate(c MatchCandidate, threshold int) Reason {
	if c.Confidence < threshold {
		return ReasonBelowThreshold
	}
	if c.Confidence < v.IdentityConfidence {
		return ReasonLowerConfidence
	}
	if entity, ok := v.CurrentEntity(c.EntityType); ok && entity == c.EntityID && c.Confidence <= v.ConfidenceFor(c.EntityType) {
		return ReasonNoImprovement
	}
	return ReasonAccepted
}

// ApplyCandidate sets the current entity and per-type confidence for the
// candidate's entity type. Call Evaluate first.
func (v *Visitor) ApplyCandidate(c MatchCandidate) {
	switch c.EntityType {
	case EntityPerson:
		pid := id.PersonID(c.EntityID)
		v.CurrentPersonID = &pid
		v.PersonConfidence = c.Confidence
	case EntityCompany:
		cid := id.CompanyID(c.EntityID)
		v.CurrentCompanyID = &cid
		v.CompanyConfidence = c.Confidence
	}
	v.IdentityConfidence = max(v.PersonConfidence, v.CompanyConfidence)
}

// Advance records an accepted update: bumps the version and the last-seen time.
func (v *Visitor) Advance(now time.Time) {
	v.ResolutionVersion++
	if now.After(v.LastSeenAt) {
		v.LastSeenAt = now
	}
}

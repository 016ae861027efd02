package models

import (
	"time"

	"github.com/google/uuid"

	id "idgraph/pkg/domain"
)

// Matched field names. Each field is evidence for exactly one match type.
const (
	FieldEmail         = "email"
	FieldEmailDomain   = "email_domain"
	FieldCompanyDomain = "company_domain"
	FieldFingerprint   = "fingerprint"
	FieldIP            = "ip"
	FieldIPDomain      = "ip_domain"
	FieldOperator      = "operator"
)

var fieldMatchTypes = map[string]id.MatchType{
	FieldEmail:         id.MatchTypeEmailExact,
	FieldEmailDomain:   id.MatchTypeDomainCompany,
	FieldCompanyDomain: id.MatchTypeDomainCompany,
	FieldFingerprint:   id.MatchTypeFingerprintMatch,
	FieldIP:            id.MatchTypeIPHeuristic,
	FieldIPDomain:      id.MatchTypeIPHeuristic,
	FieldOperator:      id.MatchTypeManualOverride,
}

// FieldMatchType returns the match type a matched field is evidence for.
func FieldMatchType(field string) (id.MatchType, bool) {
	m, ok := fieldMatchTypes[field]
	return m, ok
}

// MatchCandidate is a transient hypothesis that a visitor is a given person
// or company. Confidence is zero until scored.
type MatchCandidate struct {
	EntityType    EntityType        `json:"entity_type"`
	EntityID      uuid.UUID         `json:"entity_id"`
	MatchType     id.MatchType      `json:"match_type"`
	MatchedFields map[string]string `json:"matched_fields"`
	Confidence    int               `json:"confidence"`
	LastSeenAt    time.Time         `json:"last_seen_at"`
}

// Key identifies the entity a candidate points at.
func (c MatchCandidate) Key() string {
	return string(c.EntityType) + ":" + c.EntityID.String()
}

// Merge folds other's matched fields into c. Both must point at the same entity.
func (c *MatchCandidate) Merge(other MatchCandidate) {
	if c.MatchedFields == nil {
		c.MatchedFields = make(map[string]string, len(other.MatchedFields))
	}
	for k, v := range other.MatchedFields {
		if _, exists := c.MatchedFields[k]; !exists {
			c.MatchedFields[k] = v
		}
	}
	if other.LastSeenAt.After(c.LastSeenAt) {
		c.LastSeenAt = other.LastSeenAt
	}
}

// MatchTypes returns the distinct match types evidenced by the matched fields.
func (c MatchCandidate) MatchTypes() []id.MatchType {
	seen := make(map[id.MatchType]struct{}, len(c.MatchedFields))
	out := make([]id.MatchType, 0, len(c.MatchedFields))
	for field := range c.MatchedFields {
		m, ok := FieldMatchType(field)
		if !ok {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// CopyFields returns a copy of the matched fields map.
func (c MatchCandidate) CopyFields() map[string]string {
	out := make(map[string]string, len(c.MatchedFields))
	for k, v := range c.MatchedFields {
		out[k] = v
	}
	return out
}

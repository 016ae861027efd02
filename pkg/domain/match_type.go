package domain

import dErrors "idgraph/pkg/domain-errors"

// MatchType names the rule that linked a visitor to a person or company.
// Invariant: the value must be one of the supported match types.
//
// Usage: construct via ParseMatchType at trust boundaries; direct casting
// bypasses validation.
type MatchType string

const (
	MatchTypeNone             MatchType = "none"
	MatchTypeManualOverride   MatchType = "manual_override"
	MatchTypeEmailExact       MatchType = "email_exact"
	MatchTypeFingerprintMatch MatchType = "fingerprint_match"
	MatchTypeDomainCompany    MatchType = "domain_company"
	MatchTypeIPHeuristic      MatchType = "ip_heuristic"
)

// matchTypeTable holds base confidence and tie-break priority (lower wins).
var matchTypeTable = map[MatchType]struct {
	base     int
	priority int
}{
	MatchTypeManualOverride:   {base: 100, priority: 0},
	MatchTypeEmailExact:       {base: 95, priority: 1},
	MatchTypeFingerprintMatch: {base: 80, priority: 2},
	MatchTypeDomainCompany:    {base: 60, priority: 3},
	MatchTypeIPHeuristic:      {base: 40, priority: 4},
}

// ParseMatchType constructs a MatchType from external input.
//
// Errors: returns CodeInvalidInput when the value is empty or unsupported.
// MatchTypeNone is only produced internally and is rejected here.
func ParseMatchType(s string) (MatchType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "match type cannot be empty")
	}
	m := MatchType(s)
	if !m.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid match type")
	}
	return m, nil
}

// IsValid reports whether the match type is a scoring rule.
func (m MatchType) IsValid() bool {
	_, ok := matchTypeTable[m]
	return ok
}

// BaseConfidence returns the table confidence, or 0 for unknown types.
func (m MatchType) BaseConfidence() int {
	return matchTypeTable[m].base
}

// Priority orders match types for tie-breaks; lower is stronger.
// Unknown types sort last.
func (m MatchType) Priority() int {
	if e, ok := matchTypeTable[m]; ok {
		return e.priority
	}
	return len(matchTypeTable)
}

func (m MatchType) String() string {
	return string(m)
}

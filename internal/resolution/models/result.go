package models

import id "idgraph/pkg/domain"

// Result is the outcome of resolving one event.
type Result struct {
	Visitor    Visitor          `json:"visitor"`
	Entry      ProvenanceEntry  `json:"entry"`
	Candidates []MatchCandidate `json:"candidates,omitempty"`
	// Duplicate is true when the event was already processed; Entry is then
	// the previously recorded decision and nothing was written.
	Duplicate bool `json:"duplicate"`
}

// OverrideRequest is an operator's manual assignment of identities.
type OverrideRequest struct {
	TenantID      id.TenantID
	VisitorID     id.VisitorID
	SourceEventID id.SourceEventID
	PersonID      *id.PersonID
	CompanyID     *id.CompanyID
	Actor         string
}

// Commit is one atomic unit for the resolution store: an optional visitor
// write guarded by ResolutionVersion plus exactly one provenance entry.
type Commit struct {
	// Visitor is the state to persist, or nil when the visitor is unchanged.
	Visitor *Visitor
	// Create inserts Visitor instead of updating it.
	Create bool
	// ExpectedVersion guards updates: the stored version must equal it.
	ExpectedVersion int64
	Entry           ProvenanceEntry
}

package models

import (
	"time"

	"github.com/google/uuid"

	id "idgraph/pkg/domain"
)

// Outcome summarises what a resolution decision did to the visitor.
type Outcome string

const (
	OutcomeAccepted    Outcome = "accepted"
	OutcomeRejected    Outcome = "rejected"
	OutcomeNoCandidate Outcome = "no_candidate"
)

// Reason explains a per-candidate decision.
type Reason string

const (
	ReasonAccepted        Reason = "accepted"
	ReasonBelowThreshold  Reason = "below_threshold"
	ReasonLowerConfidence Reason = "lower_than_current"
	ReasonNoImprovement   Reason = "no_improvement"
	ReasonNoCandidate     Reason = "no_candidate"
)

// ProvenanceEntry is the immutable audit record of one resolution decision.
// Exactly one exists per (TenantID, SourceEventID).
//
// PersonID and CompanyID are set only for the identities the decision
// applied. MatchType, Confidence and the Evaluated* fields describe the
// decisive candidate: the top applied one, else the top-ranked one.
type ProvenanceEntry struct {
	ID                  id.EntryID        `json:"id"`
	TenantID            id.TenantID       `json:"tenant_id"`
	VisitorID           id.VisitorID      `json:"visitor_id"`
	PersonID            *id.PersonID      `json:"person_id,omitempty"`
	CompanyID           *id.CompanyID     `json:"company_id,omitempty"`
	MatchType           id.MatchType      `json:"match_type"`
	Confidence          int               `json:"confidence"`
	SourceEventID       id.SourceEventID  `json:"source_event_id"`
	MatchedFields       map[string]string `json:"matched_fields"`
	MatchedAt           time.Time         `json:"matched_at"`
	Outcome             Outcome           `json:"outcome"`
	Reason              Reason            `json:"reason"`
	EvaluatedEntityType EntityType        `json:"evaluated_entity_type,omitempty"`
	EvaluatedEntityID   *uuid.UUID        `json:"evaluated_entity_id,omitempty"`
	ResolutionVersion   int64             `json:"resolution_version"`
	Actor               string            `json:"actor,omitempty"`
}

// Applied reports whether the decision changed the visitor.
func (e ProvenanceEntry) Applied() bool {
	return e.Outcome == OutcomeAccepted
}

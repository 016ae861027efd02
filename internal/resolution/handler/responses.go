package handler

import (
	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
)

// VisitorResponse is a visitor with its derived resolution state.
type VisitorResponse struct {
	models.Visitor
	State models.State `json:"state"`
}

// ResolveResponse is returned by resolve and override.
type ResolveResponse struct {
	Visitor    VisitorResponse         `json:"visitor"`
	Entry      models.ProvenanceEntry  `json:"entry"`
	Candidates []models.MatchCandidate `json:"candidates"`
	Duplicate  bool                    `json:"duplicate"`
}

// HistoryResponse lists provenance entries, most recent first.
type HistoryResponse struct {
	VisitorID id.VisitorID             `json:"visitor_id"`
	Entries   []models.ProvenanceEntry `json:"entries"`
}

func FromVisitor(v *models.Visitor) VisitorResponse {
	return VisitorResponse{Visitor: *v, State: v.State()}
}

func FromResult(res *models.Result) ResolveResponse {
	candidates := res.Candidates
	if candidates == nil {
		candidates = []models.MatchCandidate{}
	}
	return ResolveResponse{
		Visitor:    FromVisitor(&res.Visitor),
		Entry:      res.Entry,
		Candidates: candidates,
		Duplicate:  res.Duplicate,
	}
}

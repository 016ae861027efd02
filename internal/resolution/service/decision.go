package service

import (
	"slices"
	"time"

	"idgraph/internal/resolution/models"
	"idgraph/internal/resolution/scorer"
	id "idgraph/pkg/domain"
)

var entityTypes = []models.EntityType{models.EntityPerson, models.EntityCompany}

// decision is the evaluation of ranked candidates against one visitor.
type decision struct {
	next     *models.Visitor
	applied  []models.MatchCandidate
	decisive *models.MatchCandidate
	reason   models.Reason
}

// decide evaluates the top candidate of each entity type against the visitor
// as it was before the event and applies the accepted ones to a copy of
// current. An event that resolves a person also resolves the company its
// email domain names, even though the company scores lower.
func decide(current *models.Visitor, ranked []models.MatchCandidate, threshold int) decision {
	d := decision{next: current.Clone(), reason: models.ReasonNoCandidate}
	if len(ranked) == 0 {
		return d
	}

	reasons := make(map[models.EntityType]models.Reason, len(entityTypes))
	for _, t := range entityTypes {
		best, ok := scorer.Best(ranked, t)
		if !ok {
			continue
		}
		reason := current.Evaluate(best, threshold)
		reasons[t] = reason
		if reason == models.ReasonAccepted {
			d.next.ApplyCandidate(best)
			d.applied = append(d.applied, best)
		}
	}

	if len(d.applied) > 0 {
		slices.SortStableFunc(d.applied, scorer.Compare)
		top := d.applied[0]
		d.decisive = &top
		d.reason = models.ReasonAccepted
		return d
	}
	top := ranked[0]
	d.decisive = &top
	d.reason = reasons[top.EntityType]
	return d
}

func (d decision) accepted() bool {
	return len(d.applied) > 0
}

// entry builds the provenance record for the decision. visitor is the state
// the commit leaves behind.
func (d decision) entry(tenantID id.TenantID, visitor *models.Visitor, sourceEventID id.SourceEventID, now time.Time) models.ProvenanceEntry {
	e := models.ProvenanceEntry{
		ID:                id.NewEntryID(),
		TenantID:          tenantID,
		VisitorID:         visitor.ID,
		MatchType:         id.MatchTypeNone,
		SourceEventID:     sourceEventID,
		MatchedFields:     map[string]string{},
		MatchedAt:         now.UTC(),
		Outcome:           models.OutcomeNoCandidate,
		Reason:            d.reason,
		ResolutionVersion: visitor.ResolutionVersion,
	}
	if d.decisive == nil {
		return e
	}

	entityID := d.decisive.EntityID
	e.MatchType = d.decisive.MatchType
	e.Confidence = d.decisive.Confidence
	e.EvaluatedEntityType = d.decisive.EntityType
	e.EvaluatedEntityID = &entityID

	if !d.accepted() {
		e.Outcome = models.OutcomeRejected
		e.MatchedFields = d.decisive.CopyFields()
		return e
	}

	e.Outcome = models.OutcomeAccepted
	for _, c := range d.applied {
		for k, v := range c.MatchedFields {
			if _, exists := e.MatchedFields[k]; !exists {
				e.MatchedFields[k] = v
			}
		}
		switch c.EntityType {
		case models.EntityPerson:
			pid := id.PersonID(c.EntityID)
			e.PersonID = &pid
		case models.EntityCompany:
			cid := id.CompanyID(c.EntityID)
			e.CompanyID = &cid
		}
	}
	return e
}

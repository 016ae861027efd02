package service

import (
	"context"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
)

// GetVisitor returns the current state of a visitor. Unresolved visitors
// carry zero confidence and no person or company.
func (r *Resolver) GetVisitor(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID) (*models.Visitor, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "tenant id is required")
	}
	v, err := r.findVisitor(ctx, tenantID, "visitor_by_id", func(ctx context.Context) (*models.Visitor, error) {
		return r.visitors.FindByID(ctx, tenantID, visitorID)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
	}
	return v, nil
}

// GetResolutionHistory returns a visitor's provenance entries, most recent
// first. A non-positive limit selects the default; larger limits are capped.
func (r *Resolver) GetResolutionHistory(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID, limit int) ([]models.ProvenanceEntry, error) {
	if _, err := r.GetVisitor(ctx, tenantID, visitorID); err != nil {
		return nil, err
	}

	limit = r.historyLimit(limit)
	entries, err := call(ctx, r, "provenance_by_visitor", func(ctx context.Context) ([]models.ProvenanceEntry, error) {
		return r.provenance.ListByVisitor(ctx, tenantID, visitorID, limit)
	})
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ProvenanceEntry{}
	}
	return entries, nil
}

func (r *Resolver) historyLimit(limit int) int {
	switch {
	case limit <= 0:
		return r.historyDefault
	case limit > r.historyMax:
		return r.historyMax
	default:
		return limit
	}
}

package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"idgraph/internal/resolution/models"
	"idgraph/internal/resolution/scorer"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/requestcontext"
)

const maxActorLen = 255

// Override assigns a person and/or company to a visitor at confidence 100.
// Scoring and the threshold are bypassed; the write is still guarded by the
// visitor version and idempotent on (tenant, source event).
func (r *Resolver) Override(ctx context.Context, req models.OverrideRequest) (*models.Result, error) {
	ctx, span := tracer.Start(ctx, "resolver.Override", trace.WithAttributes(
		attribute.String("tenant_id", req.TenantID.String()),
		attribute.String("visitor_id", req.VisitorID.String()),
		attribute.String("source_event_id", req.SourceEventID.String()),
	))
	defer span.End()

	result, err := r.override(ctx, req)
	return traced(span, result, err)
}

func (r *Resolver) override(ctx context.Context, req models.OverrideRequest) (*models.Result, error) {
	if err := validateOverride(req); err != nil {
		return nil, err
	}

	prior, err := r.priorEntry(ctx, req.TenantID, req.SourceEventID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return r.duplicate(ctx, *prior)
	}

	candidates, err := r.overrideCandidates(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := r.commitLoop(ctx, req.TenantID, req.SourceEventID, func(ctx context.Context) (*models.Result, error) {
		return r.applyOverride(ctx, req, candidates)
	})
	if err != nil {
		return nil, err
	}
	if !result.Duplicate {
		r.committed(ctx, result, "visitor_overridden")
	}
	return result, nil
}

func validateOverride(req models.OverrideRequest) error {
	switch {
	case req.TenantID.IsNil():
		return dErrors.New(dErrors.CodeValidation, "tenant id is required")
	case req.VisitorID.IsNil():
		return dErrors.New(dErrors.CodeValidation, "visitor id is required")
	case req.SourceEventID == "":
		return dErrors.New(dErrors.CodeValidation, "source event id is required")
	case req.PersonID == nil && req.CompanyID == nil:
		return dErrors.New(dErrors.CodeValidation, "override must assign a person or a company")
	case strings.TrimSpace(req.Actor) == "":
		return dErrors.New(dErrors.CodeValidation, "actor is required")
	case len(req.Actor) > maxActorLen:
		return dErrors.New(dErrors.CodeValidation, "actor is too long")
	}
	return nil
}

// overrideCandidates loads the override targets from the directory and turns
// them into manual_override candidates.
func (r *Resolver) overrideCandidates(ctx context.Context, req models.OverrideRequest) ([]models.MatchCandidate, error) {
	fields := map[string]string{models.FieldOperator: req.Actor}
	var out []models.MatchCandidate

	if req.PersonID != nil {
		persons, err := call(ctx, r, "persons_by_ids", func(ctx context.Context) ([]*models.Person, error) {
			return r.directory.PersonsByIDs(ctx, req.TenantID, []id.PersonID{*req.PersonID})
		})
		if err != nil {
			return nil, err
		}
		if len(persons) == 0 {
			return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
		}
		if persons[0].TenantID != req.TenantID {
			return nil, dErrors.New(dErrors.CodeTenantMismatch, "person does not belong to tenant")
		}
		out = append(out, scorer.Score(models.MatchCandidate{
			EntityType:    models.EntityPerson,
			EntityID:      uuid.UUID(persons[0].ID),
			MatchedFields: fields,
			LastSeenAt:    persons[0].LastSeenAt,
		}))
	}

	if req.CompanyID != nil {
		companies, err := call(ctx, r, "companies_by_ids", func(ctx context.Context) ([]*models.Company, error) {
			return r.directory.CompaniesByIDs(ctx, req.TenantID, []id.CompanyID{*req.CompanyID})
		})
		if err != nil {
			return nil, err
		}
		if len(companies) == 0 {
			return nil, dErrors.New(dErrors.CodeNotFound, "company not found")
		}
		if companies[0].TenantID != req.TenantID {
			return nil, dErrors.New(dErrors.CodeTenantMismatch, "company does not belong to tenant")
		}
		out = append(out, scorer.Score(models.MatchCandidate{
			EntityType:    models.EntityCompany,
			EntityID:      uuid.UUID(companies[0].ID),
			MatchedFields: fields,
			LastSeenAt:    companies[0].LastSeenAt,
		}))
	}
	return out, nil
}

func (r *Resolver) applyOverride(ctx context.Context, req models.OverrideRequest, candidates []models.MatchCandidate) (*models.Result, error) {
	now := requestcontext.Now(ctx)

	current, err := r.findVisitor(ctx, req.TenantID, "visitor_by_id", func(ctx context.Context) (*models.Visitor, error) {
		return r.visitors.FindByID(ctx, req.TenantID, req.VisitorID)
	})
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
	}

	d := decision{next: current.Clone(), reason: models.ReasonAccepted}
	for _, c := range candidates {
		d.next.ApplyCandidate(c)
		d.applied = append(d.applied, c)
	}
	top := d.applied[0]
	d.decisive = &top
	d.next.Advance(now)

	entry := d.entry(req.TenantID, d.next, req.SourceEventID, now)
	entry.Actor = req.Actor

	err = r.commit(ctx, models.Commit{
		Visitor:         d.next,
		ExpectedVersion: current.ResolutionVersion,
		Entry:           entry,
	})
	if err != nil {
		return nil, err
	}
	return &models.Result{
		Visitor:    *d.next.Clone(),
		Entry:      entry,
		Candidates: candidates,
	}, nil
}

// Package service is the resolution writer. It turns one raw event into at
// most one visitor update plus exactly one provenance entry, committed
// atomically and guarded by the visitor's ResolutionVersion.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"idgraph/internal/resolution/metrics"
	"idgraph/internal/resolution/models"
	"idgraph/internal/resolution/scorer"
	"idgraph/internal/resolution/signals"
	"idgraph/pkg/attrs"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/platform/retry"
	"idgraph/pkg/platform/sentinel"
	"idgraph/pkg/requestcontext"
)

var tracer = otel.Tracer("idgraph.resolution.service")

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500

	// commitAttempts is the first commit plus one re-evaluation after a
	// lost compare-and-swap.
	commitAttempts = 2
)

// VisitorStore reads visitors and applies commits. Finders return
// sentinel.ErrNotFound; Commit returns sentinel.ErrConflict for a stale
// version or taken cookie and sentinel.ErrAlreadyUsed for a recorded event.
type VisitorStore interface {
	FindByID(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID) (*models.Visitor, error)
	FindByCookie(ctx context.Context, tenantID id.TenantID, cookieID string) (*models.Visitor, error)
	FindByFingerprint(ctx context.Context, tenantID id.TenantID, fingerprint string) (*models.Visitor, error)
	Commit(ctx context.Context, c models.Commit) error
}

// ProvenanceReader reads the provenance log.
type ProvenanceReader interface {
	FindBySourceEvent(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID) (*models.ProvenanceEntry, error)
	ListByVisitor(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID, limit int) ([]models.ProvenanceEntry, error)
}

// CandidateFinder produces unscored candidates for a signal set.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, tenantID id.TenantID, sig models.Signals) ([]models.MatchCandidate, error)
}

// EntityDirectory resolves override targets.
type EntityDirectory interface {
	PersonsByIDs(ctx context.Context, tenantID id.TenantID, ids []id.PersonID) ([]*models.Person, error)
	CompaniesByIDs(ctx context.Context, tenantID id.TenantID, ids []id.CompanyID) ([]*models.Company, error)
}

// SignalExtractor parses a raw event.
type SignalExtractor interface {
	Extract(tenantID id.TenantID, raw []byte) (models.Signals, error)
}

// EntryPublisher is notified after each committed decision.
type EntryPublisher interface {
	Publish(ctx context.Context, entry models.ProvenanceEntry) error
}

// Resolver is the resolution writer.
type Resolver struct {
	visitors   VisitorStore
	provenance ProvenanceReader
	matcher    CandidateFinder
	directory  EntityDirectory
	extractor  SignalExtractor
	publisher  EntryPublisher
	logger     *slog.Logger
	metrics    *metrics.Metrics
	retry      retry.Config
	threshold  int

	historyDefault int
	historyMax     int
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithRetry overrides the store retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(r *Resolver) {
		r.retry = cfg
	}
}

// WithThreshold sets the minimum confidence applied to a visitor.
func WithThreshold(threshold int) Option {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

func WithExtractor(e SignalExtractor) Option {
	return func(r *Resolver) {
		r.extractor = e
	}
}

// WithPublisher forwards committed entries. Publish failures are logged and
// never fail the resolve.
func WithPublisher(p EntryPublisher) Option {
	return func(r *Resolver) {
		r.publisher = p
	}
}

// WithHistoryLimits sets the default and maximum history page size.
func WithHistoryLimits(defaultLimit, maxLimit int) Option {
	return func(r *Resolver) {
		r.historyDefault = defaultLimit
		r.historyMax = maxLimit
	}
}

func New(visitors VisitorStore, provenance ProvenanceReader, matcher CandidateFinder, directory EntityDirectory, opts ...Option) (*Resolver, error) {
	if visitors == nil {
		return nil, errors.New("visitor store is required")
	}
	if provenance == nil {
		return nil, errors.New("provenance reader is required")
	}
	if matcher == nil {
		return nil, errors.New("candidate matcher is required")
	}
	if directory == nil {
		return nil, errors.New("entity directory is required")
	}

	r := &Resolver{
		visitors:       visitors,
		provenance:     provenance,
		matcher:        matcher,
		directory:      directory,
		extractor:      signals.Extractor{},
		logger:         slog.Default(),
		retry:          retry.Default(),
		threshold:      scorer.DefaultThreshold,
		historyDefault: DefaultHistoryLimit,
		historyMax:     MaxHistoryLimit,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.threshold < 1 || r.threshold > 100 {
		return nil, errors.New("threshold must be between 1 and 100")
	}
	if r.historyDefault < 1 || r.historyMax < r.historyDefault {
		return nil, errors.New("history limits must satisfy 1 <= default <= max")
	}
	return r, nil
}

// Resolve processes one event. Replays of a recorded (tenant, source event)
// return the prior decision with Result.Duplicate set and write nothing.
func (r *Resolver) Resolve(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID, raw []byte) (*models.Result, error) {
	defer r.metrics.ObserveResolve(time.Now())

	ctx, span := tracer.Start(ctx, "resolver.Resolve", trace.WithAttributes(
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("source_event_id", sourceEventID.String()),
	))
	defer span.End()

	result, err := r.resolve(ctx, tenantID, sourceEventID, raw)
	return traced(span, result, err)
}

func (r *Resolver) resolve(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID, raw []byte) (*models.Result, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidEvent, "tenant id is required")
	}
	if sourceEventID == "" {
		return nil, dErrors.New(dErrors.CodeInvalidEvent, "source event id is required")
	}

	prior, err := r.priorEntry(ctx, tenantID, sourceEventID)
	if err != nil {
		return nil, err
	}
	if prior != nil {
		return r.duplicate(ctx, *prior)
	}

	sig, err := r.extractor.Extract(tenantID, raw)
	if err != nil {
		return nil, err
	}
	// Visitors are created only for a visitor id, cookie or fingerprint.
	if !sig.HasAnchor() {
		return nil, dErrors.New(dErrors.CodeInvalidEvent, "event carries no visitor_id, cookie_id or fingerprint")
	}

	result, err := r.commitLoop(ctx, tenantID, sourceEventID, func(ctx context.Context) (*models.Result, error) {
		return r.attempt(ctx, tenantID, sourceEventID, sig)
	})
	if err != nil {
		return nil, err
	}
	if !result.Duplicate {
		r.committed(ctx, result, "resolution_decided")
	}
	return result, nil
}

// attempt runs one read-evaluate-commit cycle against fresh visitor state.
func (r *Resolver) attempt(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID, sig models.Signals) (*models.Result, error) {
	now := requestcontext.Now(ctx)
	seenAt := now
	if !sig.OccurredAt.IsZero() && sig.OccurredAt.Before(now) {
		seenAt = sig.OccurredAt
	}

	current, create, err := r.anchor(ctx, tenantID, sig, seenAt)
	if err != nil {
		return nil, err
	}

	sig.VisitorID = &current.ID
	candidates, err := r.matcher.FindCandidates(ctx, tenantID, sig)
	if err != nil {
		return nil, err
	}
	ranked := scorer.ScoreAll(candidates)

	d := decide(current, ranked, r.threshold)
	commit := models.Commit{Create: create, ExpectedVersion: current.ResolutionVersion}
	switch {
	case d.accepted():
		d.next.Advance(seenAt)
		commit.Visitor = d.next
	case create:
		commit.Visitor = current
	}

	visitor := current
	if commit.Visitor != nil {
		visitor = commit.Visitor
	}
	commit.Entry = d.entry(tenantID, visitor, sourceEventID, now)

	if err := r.commit(ctx, commit); err != nil {
		return nil, err
	}
	return &models.Result{
		Visitor:    *visitor.Clone(),
		Entry:      commit.Entry,
		Candidates: ranked,
	}, nil
}

// anchor locates the visitor an event belongs to, or builds a new one that
// the commit will create. Precedence: explicit visitor id, then cookie, then
// fingerprint (most recently seen visitor carrying it).
func (r *Resolver) anchor(ctx context.Context, tenantID id.TenantID, sig models.Signals, seenAt time.Time) (*models.Visitor, bool, error) {
	if sig.VisitorID != nil {
		v, err := r.findVisitor(ctx, tenantID, "visitor_by_id", func(ctx context.Context) (*models.Visitor, error) {
			return r.visitors.FindByID(ctx, tenantID, *sig.VisitorID)
		})
		if err != nil || v != nil {
			return v, false, err
		}

		cookie := sig.CookieID
		if cookie != "" {
			owner, err := r.findVisitor(ctx, tenantID, "visitor_by_cookie", func(ctx context.Context) (*models.Visitor, error) {
				return r.visitors.FindByCookie(ctx, tenantID, cookie)
			})
			if err != nil {
				return nil, false, err
			}
			if owner != nil {
				cookie = ""
			}
		}
		v = models.NewVisitor(tenantID, cookie, sig.Fingerprint, seenAt)
		v.ID = *sig.VisitorID
		return v, true, nil
	}

	switch {
	case sig.CookieID != "":
		v, err := r.findVisitor(ctx, tenantID, "visitor_by_cookie", func(ctx context.Context) (*models.Visitor, error) {
			return r.visitors.FindByCookie(ctx, tenantID, sig.CookieID)
		})
		if err != nil || v != nil {
			return v, false, err
		}
	case sig.Fingerprint != "":
		v, err := r.findVisitor(ctx, tenantID, "visitor_by_fingerprint", func(ctx context.Context) (*models.Visitor, error) {
			return r.visitors.FindByFingerprint(ctx, tenantID, sig.Fingerprint)
		})
		if err != nil || v != nil {
			return v, false, err
		}
	}
	return models.NewVisitor(tenantID, sig.CookieID, sig.Fingerprint, seenAt), true, nil
}

// findVisitor returns nil without error when the visitor does not exist.
func (r *Resolver) findVisitor(ctx context.Context, tenantID id.TenantID, name string, fn func(ctx context.Context) (*models.Visitor, error)) (*models.Visitor, error) {
	v, err := call(ctx, r, name, fn)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if v.TenantID != tenantID {
		return nil, r.tenantMismatch(ctx, tenantID, v.ID)
	}
	return v, nil
}

func (r *Resolver) commit(ctx context.Context, c models.Commit) error {
	_, err := call(ctx, r, "commit", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.visitors.Commit(ctx, c)
	})
	return err
}

// commitLoop runs attempt, re-evaluating once after a lost compare-and-swap.
// An event recorded concurrently is answered as a duplicate.
func (r *Resolver) commitLoop(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID, attempt func(ctx context.Context) (*models.Result, error)) (*models.Result, error) {
	for n := 1; ; n++ {
		result, err := attempt(ctx)
		switch {
		case err == nil:
			return result, nil
		case errors.Is(err, sentinel.ErrAlreadyUsed):
			return r.lostRace(ctx, tenantID, sourceEventID, err)
		case errors.Is(err, sentinel.ErrConflict):
			r.metrics.IncrementConflict()
			prior, perr := r.priorEntry(ctx, tenantID, sourceEventID)
			if perr != nil {
				return nil, perr
			}
			if prior != nil {
				return r.duplicate(ctx, *prior)
			}
			if n >= commitAttempts {
				r.logger.WarnContext(ctx, "visitor commit conflict persisted after re-evaluation",
					"tenant_id", tenantID.String(),
					"source_event_id", sourceEventID.String(),
				)
				return nil, dErrors.Wrap(err, dErrors.CodeResolutionConflict, "visitor was updated concurrently")
			}
			r.logger.InfoContext(ctx, "visitor commit conflict, re-evaluating",
				"tenant_id", tenantID.String(),
				"source_event_id", sourceEventID.String(),
			)
		default:
			return nil, err
		}
	}
}

func (r *Resolver) lostRace(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID, cause error) (*models.Result, error) {
	prior, err := r.priorEntry(ctx, tenantID, sourceEventID)
	if err != nil {
		return nil, err
	}
	if prior == nil {
		return nil, dErrors.Wrap(cause, dErrors.CodeResolutionConflict, "source event recorded concurrently")
	}
	return r.duplicate(ctx, *prior)
}

func (r *Resolver) priorEntry(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID) (*models.ProvenanceEntry, error) {
	entry, err := call(ctx, r, "provenance_by_source_event", func(ctx context.Context) (*models.ProvenanceEntry, error) {
		return r.provenance.FindBySourceEvent(ctx, tenantID, sourceEventID)
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	return entry, err
}

// duplicate answers a replayed event from the provenance log.
func (r *Resolver) duplicate(ctx context.Context, prior models.ProvenanceEntry) (*models.Result, error) {
	r.metrics.IncrementDuplicate()

	v, err := r.findVisitor(ctx, prior.TenantID, "visitor_by_id", func(ctx context.Context) (*models.Visitor, error) {
		return r.visitors.FindByID(ctx, prior.TenantID, prior.VisitorID)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, dErrors.New(dErrors.CodeInternal, "provenance entry references a missing visitor")
	}

	r.logger.InfoContext(ctx, "duplicate event answered from provenance log",
		"tenant_id", prior.TenantID.String(),
		"source_event_id", prior.SourceEventID.String(),
		"visitor_id", prior.VisitorID.String(),
	)
	return &models.Result{Visitor: *v, Entry: prior, Duplicate: true}, nil
}

// committed records metrics, the audit line and the downstream publish for a
// freshly committed decision.
func (r *Resolver) committed(ctx context.Context, result *models.Result, event string) {
	entry := result.Entry
	r.metrics.IncrementDecision(string(entry.Outcome), entry.MatchType.String())

	args := []any{
		"tenant_id", entry.TenantID.String(),
		"visitor_id", entry.VisitorID.String(),
		"source_event_id", entry.SourceEventID.String(),
		"outcome", string(entry.Outcome),
		"reason", string(entry.Reason),
		"match_type", entry.MatchType.String(),
		"confidence", entry.Confidence,
		"resolution_version", entry.ResolutionVersion,
	}
	if entry.Actor != "" {
		args = append(args, "actor", entry.Actor)
	}
	r.logAudit(ctx, event, args...)

	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, entry); err != nil {
		r.logger.WarnContext(ctx, "failed to publish provenance entry",
			"error", err,
			"entry_id", entry.ID.String(),
		)
	}
}

func (r *Resolver) logAudit(ctx context.Context, event string, attributes ...any) {
	if r.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	r.logger.InfoContext(ctx, event, args...)

	trace.SpanFromContext(ctx).AddEvent(event, trace.WithAttributes(
		attribute.String("outcome", attrs.ExtractString(attributes, "outcome")),
		attribute.String("match_type", attrs.ExtractString(attributes, "match_type")),
	))
}

func (r *Resolver) tenantMismatch(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID) error {
	r.logger.ErrorContext(ctx, "visitor record belongs to another tenant",
		"tenant_id", tenantID.String(),
		"visitor_id", visitorID.String(),
	)
	return dErrors.New(dErrors.CodeTenantMismatch, "visitor does not belong to tenant")
}

// call runs a store operation with retries. Sentinel facts pass through
// untouched; other failures become CodeLookupUnavailable, or CodeTimeout
// once the context is done.
func call[T any](ctx context.Context, r *Resolver, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := r.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = retry.LogRetries(r.logger, name)
	}
	return retry.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		return v, classify(err, name)
	})
}

func classify(err error, name string) error {
	var de *dErrors.Error
	switch {
	case errors.Is(err, sentinel.ErrNotFound),
		errors.Is(err, sentinel.ErrConflict),
		errors.Is(err, sentinel.ErrAlreadyUsed),
		errors.As(err, &de):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, name+" cancelled")
	}
	return dErrors.Wrap(err, dErrors.CodeLookupUnavailable, name+" failed")
}

func traced(span trace.Span, result *models.Result, err error) (*models.Result, error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("outcome", string(result.Entry.Outcome)),
		attribute.Bool("duplicate", result.Duplicate),
	)
	span.SetStatus(codes.Ok, "")
	return result, nil
}

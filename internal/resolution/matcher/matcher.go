// Package matcher finds the persons and companies a visitor's signals point at.
//
// The matcher is read-only: it never creates directory entities or visitors.
// Lookups for each signal run concurrently; any store failure is retried with
// bounded backoff and then surfaced as CodeLookupUnavailable.
package matcher

import (
	"context"
	"errors"
	"log/slog"
	"net/netip"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"idgraph/internal/resolution/metrics"
	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/platform/retry"
	"idgraph/pkg/platform/sentinel"
)

var tracer = otel.Tracer("idgraph.resolution.matcher")

const (
	lookupTimeout = 2 * time.Second

	// maxFingerprintPeers bounds how many resolved visitors sharing a
	// fingerprint contribute candidates.
	maxFingerprintPeers = 50
)

// Directory reads tenant-scoped person and company reference data.
// Single-record lookups return sentinel.ErrNotFound when nothing matches.
type Directory interface {
	PersonByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Person, error)
	CompanyByDomain(ctx context.Context, tenantID id.TenantID, domain string) (*models.Company, error)
	PersonsByIDs(ctx context.Context, tenantID id.TenantID, ids []id.PersonID) ([]*models.Person, error)
	CompaniesByIDs(ctx context.Context, tenantID id.TenantID, ids []id.CompanyID) ([]*models.Company, error)
}

// VisitorIndex finds resolved visitors that share a device fingerprint.
type VisitorIndex interface {
	ListResolvedByFingerprint(ctx context.Context, tenantID id.TenantID, fingerprint string, limit int) ([]*models.Visitor, error)
}

// IPIntel maps a public IP address to a company domain.
// It returns sentinel.ErrNotFound for unknown addresses.
type IPIntel interface {
	LookupDomain(ctx context.Context, ip netip.Addr) (string, error)
}

// Matcher produces unscored match candidates from a signal set.
type Matcher struct {
	directory Directory
	visitors  VisitorIndex
	ipIntel   IPIntel
	logger    *slog.Logger
	metrics   *metrics.Metrics
	retry     retry.Config
}

// Option configures a Matcher.
type Option func(*Matcher)

func WithLogger(logger *slog.Logger) Option {
	return func(m *Matcher) {
		m.logger = logger
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Matcher) {
		m.metrics = mt
	}
}

// WithRetry overrides the lookup retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(m *Matcher) {
		m.retry = cfg
	}
}

// WithIPIntel enables the ip_heuristic lookup.
func WithIPIntel(ipIntel IPIntel) Option {
	return func(m *Matcher) {
		m.ipIntel = ipIntel
	}
}

func New(directory Directory, visitors VisitorIndex, opts ...Option) *Matcher {
	m := &Matcher{
		directory: directory,
		visitors:  visitors,
		logger:    slog.Default(),
		retry:     retry.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// candidateSet merges candidates for the same entity from concurrent lookups.
type candidateSet struct {
	mu    sync.Mutex
	byKey map[string]*models.MatchCandidate
}

func (s *candidateSet) add(c models.MatchCandidate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byKey[c.Key()]; ok {
		existing.Merge(c)
		return
	}
	c.MatchedFields = c.CopyFields()
	s.byKey[c.Key()] = &c
}

func (s *candidateSet) list() []models.MatchCandidate {
	out := make([]models.MatchCandidate, 0, len(s.byKey))
	for _, c := range s.byKey {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b models.MatchCandidate) int {
		return strings.Compare(a.Key(), b.Key())
	})
	return out
}

// FindCandidates runs every applicable lookup for sig and returns the merged,
// unscored candidates in a stable order. An empty result is not an error.
func (m *Matcher) FindCandidates(ctx context.Context, tenantID id.TenantID, sig models.Signals) ([]models.MatchCandidate, error) {
	ctx, span := tracer.Start(ctx, "matcher.FindCandidates",
		trace.WithAttributes(attribute.String("tenant_id", tenantID.String())),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	set := &candidateSet{byKey: make(map[string]*models.MatchCandidate)}
	g, gctx := errgroup.WithContext(ctx)

	if sig.Email != "" {
		g.Go(func() error { return m.matchEmail(gctx, tenantID, sig.Email, set) })
	}

	domains := make(map[string][]string, 2)
	if sig.EmailDomain != "" {
		domains[sig.EmailDomain] = append(domains[sig.EmailDomain], models.FieldEmailDomain)
	}
	if sig.DomainHint != "" {
		domains[sig.DomainHint] = append(domains[sig.DomainHint], models.FieldCompanyDomain)
	}
	for domain, fields := range domains {
		g.Go(func() error { return m.matchDomain(gctx, tenantID, domain, fields, set) })
	}

	if sig.Fingerprint != "" && m.visitors != nil {
		g.Go(func() error { return m.matchFingerprint(gctx, tenantID, sig, set) })
	}

	if sig.IP.IsValid() && m.ipIntel != nil {
		g.Go(func() error { return m.matchIP(gctx, tenantID, sig.IP, set) })
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidates := set.list()
	span.SetAttributes(attribute.Int("candidates", len(candidates)))
	span.SetStatus(codes.Ok, "")
	return candidates, nil
}

func (m *Matcher) matchEmail(ctx context.Context, tenantID id.TenantID, email string, set *candidateSet) error {
	defer m.metrics.ObserveLookup("email", time.Now())

	person, err := lookup(ctx, m, "person_by_email", func(ctx context.Context) (*models.Person, error) {
		return m.directory.PersonByEmail(ctx, tenantID, email)
	})
	if err != nil || person == nil {
		return err
	}
	if person.TenantID != tenantID {
		return m.tenantMismatch(ctx, tenantID, "person", person.ID.String())
	}
	set.add(models.MatchCandidate{
		EntityType:    models.EntityPerson,
		EntityID:      uuid.UUID(person.ID),
		MatchedFields: map[string]string{models.FieldEmail: email},
		LastSeenAt:    person.LastSeenAt,
	})
	return nil
}

func (m *Matcher) matchDomain(ctx context.Context, tenantID id.TenantID, domain string, fields []string, set *candidateSet) error {
	defer m.metrics.ObserveLookup("domain", time.Now())

	company, err := lookup(ctx, m, "company_by_domain", func(ctx context.Context) (*models.Company, error) {
		return m.directory.CompanyByDomain(ctx, tenantID, domain)
	})
	if err != nil || company == nil {
		return err
	}
	if company.TenantID != tenantID {
		return m.tenantMismatch(ctx, tenantID, "company", company.ID.String())
	}
	matched := make(map[string]string, len(fields))
	for _, f := range fields {
		matched[f] = domain
	}
	set.add(models.MatchCandidate{
		EntityType:    models.EntityCompany,
		EntityID:      uuid.UUID(company.ID),
		MatchedFields: matched,
		LastSeenAt:    company.LastSeenAt,
	})
	return nil
}

// matchFingerprint yields the current person and company of other resolved
// visitors that share the fingerprint.
func (m *Matcher) matchFingerprint(ctx context.Context, tenantID id.TenantID, sig models.Signals, set *candidateSet) error {
	defer m.metrics.ObserveLookup("fingerprint", time.Now())

	peers, err := lookup(ctx, m, "visitors_by_fingerprint", func(ctx context.Context) ([]*models.Visitor, error) {
		return m.visitors.ListResolvedByFingerprint(ctx, tenantID, sig.Fingerprint, maxFingerprintPeers)
	})
	if err != nil {
		return err
	}

	var personIDs []id.PersonID
	var companyIDs []id.CompanyID
	seenP := make(map[id.PersonID]struct{})
	seenC := make(map[id.CompanyID]struct{})
	for _, v := range peers {
		if v.TenantID != tenantID {
			return m.tenantMismatch(ctx, tenantID, "visitor", v.ID.String())
		}
		if sig.VisitorID != nil && v.ID == *sig.VisitorID {
			continue
		}
		if v.CurrentPersonID != nil {
			if _, ok := seenP[*v.CurrentPersonID]; !ok {
				seenP[*v.CurrentPersonID] = struct{}{}
				personIDs = append(personIDs, *v.CurrentPersonID)
			}
		}
		if v.CurrentCompanyID != nil {
			if _, ok := seenC[*v.CurrentCompanyID]; !ok {
				seenC[*v.CurrentCompanyID] = struct{}{}
				companyIDs = append(companyIDs, *v.CurrentCompanyID)
			}
		}
	}

	fields := map[string]string{models.FieldFingerprint: sig.Fingerprint}

	if len(personIDs) > 0 {
		persons, err := lookup(ctx, m, "persons_by_ids", func(ctx context.Context) ([]*models.Person, error) {
			return m.directory.PersonsByIDs(ctx, tenantID, personIDs)
		})
		if err != nil {
			return err
		}
		for _, p := range persons {
			if p.TenantID != tenantID {
				return m.tenantMismatch(ctx, tenantID, "person", p.ID.String())
			}
			set.add(models.MatchCandidate{
				EntityType:    models.EntityPerson,
				EntityID:      uuid.UUID(p.ID),
				MatchedFields: fields,
				LastSeenAt:    p.LastSeenAt,
			})
		}
	}

	if len(companyIDs) > 0 {
		companies, err := lookup(ctx, m, "companies_by_ids", func(ctx context.Context) ([]*models.Company, error) {
			return m.directory.CompaniesByIDs(ctx, tenantID, companyIDs)
		})
		if err != nil {
			return err
		}
		for _, c := range companies {
			if c.TenantID != tenantID {
				return m.tenantMismatch(ctx, tenantID, "company", c.ID.String())
			}
			set.add(models.MatchCandidate{
				EntityType:    models.EntityCompany,
				EntityID:      uuid.UUID(c.ID),
				MatchedFields: fields,
				LastSeenAt:    c.LastSeenAt,
			})
		}
	}
	return nil
}

func (m *Matcher) matchIP(ctx context.Context, tenantID id.TenantID, ip netip.Addr, set *candidateSet) error {
	defer m.metrics.ObserveLookup("ip", time.Now())

	domain, err := lookup(ctx, m, "ip_intel", func(ctx context.Context) (string, error) {
		return m.ipIntel.LookupDomain(ctx, ip)
	})
	if err != nil || domain == "" {
		return err
	}

	company, err := lookup(ctx, m, "company_by_domain", func(ctx context.Context) (*models.Company, error) {
		return m.directory.CompanyByDomain(ctx, tenantID, domain)
	})
	if err != nil || company == nil {
		return err
	}
	if company.TenantID != tenantID {
		return m.tenantMismatch(ctx, tenantID, "company", company.ID.String())
	}
	set.add(models.MatchCandidate{
		EntityType: models.EntityCompany,
		EntityID:   uuid.UUID(company.ID),
		MatchedFields: map[string]string{
			models.FieldIP:       ip.String(),
			models.FieldIPDomain: domain,
		},
		LastSeenAt: company.LastSeenAt,
	})
	return nil
}

// lookup runs fn with retries. Not-found results become the zero value with
// a nil error; other store failures become CodeLookupUnavailable.
func lookup[T any](ctx context.Context, m *Matcher, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg := m.retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = retry.LogRetries(m.logger, name)
	}
	val, err := retry.DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if err == nil || errors.Is(err, sentinel.ErrNotFound) {
			return v, nil
		}
		var de *dErrors.Error
		if errors.As(err, &de) && !dErrors.IsRetryable(err) {
			return v, err
		}
		return v, dErrors.Wrap(err, dErrors.CodeLookupUnavailable, name+" lookup failed")
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return val, nil
}

func (m *Matcher) tenantMismatch(ctx context.Context, tenantID id.TenantID, kind, entityID string) error {
	if m.logger != nil {
		m.logger.ErrorContext(ctx, "directory record belongs to another tenant",
			"tenant_id", tenantID.String(),
			"entity_type", kind,
			"entity_id", entityID,
		)
	}
	return dErrors.New(dErrors.CodeTenantMismatch, kind+" record does not belong to tenant")
}

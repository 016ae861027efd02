package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"idgraph/internal/directory"
	"idgraph/internal/ipintel"
	provmemory "idgraph/internal/provenance/store/memory"
	"idgraph/internal/resolution/matcher"
	"idgraph/internal/resolution/models"
	"idgraph/internal/resolution/store"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/platform/retry"
)

// =============================================================================
// Resolution scenarios against the in-memory stores
// =============================================================================
// These run the real extractor, matcher, scorer and stores so the properties
// hold across the whole write path rather than per component.

type ScenarioSuite struct {
	suite.Suite
	ctx        context.Context
	tenant     id.TenantID
	directory  *directory.InMemoryStore
	provenance *provmemory.InMemoryStore
	visitors   *store.InMemoryStore
	resolver   *Resolver

	alice   models.Person
	bob     models.Person
	acme    models.Company
	initech models.Company
}

func TestScenarioSuite(t *testing.T) {
	suite.Run(t, new(ScenarioSuite))
}

func (s *ScenarioSuite) SetupTest() {
	s.ctx = context.Background()
	s.tenant = id.TenantID(uuid.New())
	s.directory = directory.NewInMemoryStore()
	s.provenance = provmemory.NewInMemoryStore()
	s.visitors = store.NewInMemoryStore(s.provenance)

	seen := time.Now().Add(-24 * time.Hour)
	s.alice = models.Person{ID: id.PersonID(uuid.New()), TenantID: s.tenant, Email: "alice@acme.com", LastSeenAt: seen}
	s.bob = models.Person{ID: id.PersonID(uuid.New()), TenantID: s.tenant, Email: "bob@gmail.com", LastSeenAt: seen}
	s.acme = models.Company{ID: id.CompanyID(uuid.New()), TenantID: s.tenant, Domain: "acme.com", LastSeenAt: seen}
	s.initech = models.Company{ID: id.CompanyID(uuid.New()), TenantID: s.tenant, Domain: "initech.com", LastSeenAt: seen}
	s.directory.SeedPerson(s.alice)
	s.directory.SeedPerson(s.bob)
	s.directory.SeedCompany(s.acme)
	s.directory.SeedCompany(s.initech)

	intel := ipintel.NewInMemoryStore()
	s.Require().NoError(intel.Put(s.ctx, "203.0.113.0/24", "initech.com"))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fast := retry.Config{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
	m := matcher.New(s.directory, s.visitors,
		matcher.WithIPIntel(intel),
		matcher.WithLogger(logger),
		matcher.WithRetry(fast),
	)

	var err error
	s.resolver, err = New(s.visitors, s.provenance, m, s.directory,
		WithLogger(logger),
		WithRetry(fast),
	)
	s.Require().NoError(err)
}

func (s *ScenarioSuite) resolve(event string, payload string) *models.Result {
	res, err := s.resolver.Resolve(s.ctx, s.tenant, id.SourceEventID(event), []byte(payload))
	s.Require().NoError(err)
	return res
}

func (s *ScenarioSuite) TestAcceptsEmailMatch() {
	res := s.resolve("evt-1", `{"cookie_id":"ck-1","email":"Alice@Acme.com"}`)

	s.Equal(models.OutcomeAccepted, res.Entry.Outcome)
	s.Equal(id.MatchTypeEmailExact, res.Entry.MatchType)
	s.Equal(95, res.Entry.Confidence)
	s.Require().NotNil(res.Entry.PersonID)
	s.Equal(s.alice.ID, *res.Entry.PersonID)
	s.Require().NotNil(res.Entry.CompanyID, "email domain resolves the company at its base confidence")
	s.Equal(s.acme.ID, *res.Entry.CompanyID)

	s.Equal(models.StateBothResolved, res.Visitor.State())
	s.Equal(95, res.Visitor.PersonConfidence)
	s.Equal(60, res.Visitor.CompanyConfidence)
	s.Equal(95, res.Visitor.IdentityConfidence)
	s.Equal(int64(1), res.Visitor.ResolutionVersion)
	s.Equal(res.Visitor.ResolutionVersion, res.Entry.ResolutionVersion)
}

func (s *ScenarioSuite) TestRejectsBelowThreshold() {
	res := s.resolve("evt-1", `{"cookie_id":"ck-1","ip":"203.0.113.7"}`)

	s.Equal(models.OutcomeRejected, res.Entry.Outcome)
	s.Equal(models.ReasonBelowThreshold, res.Entry.Reason)
	s.Equal(id.MatchTypeIPHeuristic, res.Entry.MatchType)
	s.Equal(40, res.Entry.Confidence)
	s.Nil(res.Entry.CompanyID)
	s.Require().NotNil(res.Entry.EvaluatedEntityID)
	s.Equal(uuid.UUID(s.initech.ID), *res.Entry.EvaluatedEntityID)

	stored, err := s.resolver.GetVisitor(s.ctx, s.tenant, res.Visitor.ID)
	s.Require().NoError(err)
	s.Equal(models.StateUnresolved, stored.State())
	s.Equal(0, stored.IdentityConfidence)
	s.Equal(int64(0), stored.ResolutionVersion)
}

func (s *ScenarioSuite) TestDoesNotDowngradeConfidence() {
	// Another visitor on the shared device resolves to bob.
	s.resolve("evt-b", `{"cookie_id":"ck-b","fingerprint":"00112233445566778899aabbccddeeff","email":"bob@gmail.com"}`)

	first := s.resolve("evt-1", `{"cookie_id":"ck-1","email":"alice@acme.com"}`)
	s.Require().Equal(95, first.Visitor.PersonConfidence)

	second := s.resolve("evt-2", `{"cookie_id":"ck-1","fingerprint":"00112233445566778899aabbccddeeff"}`)
	s.Equal(models.OutcomeRejected, second.Entry.Outcome)
	s.Equal(models.ReasonLowerConfidence, second.Entry.Reason)
	s.Equal(id.MatchTypeFingerprintMatch, second.Entry.MatchType)
	s.Equal(80, second.Entry.Confidence)

	s.Require().NotNil(second.Visitor.CurrentPersonID)
	s.Equal(s.alice.ID, *second.Visitor.CurrentPersonID)
	s.Equal(95, second.Visitor.PersonConfidence)
	s.Equal(first.Visitor.ResolutionVersion, second.Visitor.ResolutionVersion)
}

func (s *ScenarioSuite) TestWeakerCompanyMatchLeavesResolvedVisitorUnchanged() {
	first := s.resolve("evt-1", `{"cookie_id":"ck-1","email":"alice@acme.com"}`)
	s.Require().Equal(95, first.Visitor.IdentityConfidence)
	s.Require().Equal(int64(1), first.Visitor.ResolutionVersion)

	second := s.resolve("evt-2", `{"cookie_id":"ck-1","company_domain":"initech.com"}`)
	s.Equal(models.OutcomeRejected, second.Entry.Outcome)
	s.Equal(models.ReasonLowerConfidence, second.Entry.Reason)
	s.Equal(id.MatchTypeDomainCompany, second.Entry.MatchType)
	s.Equal(60, second.Entry.Confidence)
	s.Nil(second.Entry.CompanyID)
	s.False(second.Entry.Applied())

	stored, err := s.resolver.GetVisitor(s.ctx, s.tenant, first.Visitor.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), stored.ResolutionVersion)
	s.Equal(95, stored.IdentityConfidence)
	s.Require().NotNil(stored.CurrentCompanyID)
	s.Equal(s.acme.ID, *stored.CurrentCompanyID)

	s.Run("person-only visitor", func() {
		bob := s.resolve("evt-3", `{"cookie_id":"ck-2","email":"bob@gmail.com"}`)
		s.Require().Equal(models.StatePersonResolved, bob.Visitor.State())

		later := s.resolve("evt-4", `{"cookie_id":"ck-2","company_domain":"initech.com"}`)
		s.Equal(models.OutcomeRejected, later.Entry.Outcome)
		s.Equal(models.ReasonLowerConfidence, later.Entry.Reason)
		s.Equal(bob.Visitor.ResolutionVersion, later.Visitor.ResolutionVersion)
		s.Nil(later.Visitor.CurrentCompanyID)
	})
}

func (s *ScenarioSuite) TestReplayIsIdempotent() {
	payload := `{"cookie_id":"ck-1","email":"alice@acme.com"}`
	first := s.resolve("evt-1", payload)
	again := s.resolve("evt-1", payload)

	s.False(first.Duplicate)
	s.True(again.Duplicate)
	s.Equal(first.Entry.ID, again.Entry.ID)
	s.Equal(first.Visitor.ResolutionVersion, again.Visitor.ResolutionVersion)
	s.Equal(1, s.provenance.Count(s.tenant))
}

func (s *ScenarioSuite) TestTenantsAreIsolated() {
	res := s.resolve("evt-1", `{"cookie_id":"ck-1","email":"alice@acme.com"}`)

	other := id.TenantID(uuid.New())
	foreign, err := s.resolver.Resolve(s.ctx, other, "evt-1", []byte(`{"cookie_id":"ck-1","email":"alice@acme.com"}`))
	s.Require().NoError(err)
	s.False(foreign.Duplicate, "source event ids are scoped per tenant")
	s.Equal(models.OutcomeNoCandidate, foreign.Entry.Outcome)
	s.NotEqual(res.Visitor.ID, foreign.Visitor.ID)

	_, err = s.resolver.GetVisitor(s.ctx, other, res.Visitor.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.resolver.GetResolutionHistory(s.ctx, other, res.Visitor.ID, 10)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Equal(1, s.provenance.Count(s.tenant))
	s.Equal(1, s.provenance.Count(other))
}

func (s *ScenarioSuite) TestEveryEventIsAuditedAndConfidenceIsMonotonic() {
	events := []string{
		`{"cookie_id":"ck-1"}`,
		`{"cookie_id":"ck-1","ip":"203.0.113.9"}`,
		`{"cookie_id":"ck-1","company_domain":"initech.com"}`,
		`{"cookie_id":"ck-1","email":"alice@acme.com"}`,
		`{"cookie_id":"ck-1","ip":"203.0.113.9"}`,
		`{"cookie_id":"ck-1","company_domain":"initech.com"}`,
	}

	var visitorID id.VisitorID
	lastConfidence := 0
	var lastVersion int64
	accepted := 0
	for i, payload := range events {
		res := s.resolve(fmt.Sprintf("evt-%d", i), payload)
		visitorID = res.Visitor.ID
		s.GreaterOrEqual(res.Visitor.IdentityConfidence, lastConfidence)
		s.GreaterOrEqual(res.Visitor.ResolutionVersion, lastVersion)
		lastConfidence = res.Visitor.IdentityConfidence
		lastVersion = res.Visitor.ResolutionVersion
		if res.Entry.Applied() {
			accepted++
		}
	}

	history, err := s.resolver.GetResolutionHistory(s.ctx, s.tenant, visitorID, 0)
	s.Require().NoError(err)
	s.Len(history, len(events))
	s.Equal(int64(accepted), lastVersion)
	for i := 1; i < len(history); i++ {
		s.GreaterOrEqual(history[i-1].ResolutionVersion, history[i].ResolutionVersion, "history is most recent first")
	}
}

func (s *ScenarioSuite) TestConcurrentEventsOnOneVisitor() {
	seed := s.resolve("evt-seed", `{"cookie_id":"ck-1"}`)

	payloads := []string{
		`{"cookie_id":"ck-1","email":"alice@acme.com"}`,
		`{"cookie_id":"ck-1","company_domain":"initech.com"}`,
		`{"cookie_id":"ck-1","ip":"203.0.113.9"}`,
		`{"cookie_id":"ck-1","email":"bob@gmail.com"}`,
	}
	const workers = 24

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := id.SourceEventID(fmt.Sprintf("evt-%d", i))
			payload := []byte(payloads[i%len(payloads)])
			// A caller redelivers retryable soft failures.
			for range 100 {
				_, err := s.resolver.Resolve(s.ctx, s.tenant, event, payload)
				if err == nil {
					return
				}
				if !dErrors.IsRetryable(err) {
					s.Failf("terminal error", "event %s: %v", event, err)
					return
				}
			}
			s.Failf("never committed", "event %s", event)
		}()
	}
	wg.Wait()

	s.Equal(workers+1, s.provenance.Count(s.tenant))

	history, err := s.resolver.GetResolutionHistory(s.ctx, s.tenant, seed.Visitor.ID, MaxHistoryLimit)
	s.Require().NoError(err)
	s.Len(history, workers+1)

	accepted := 0
	for _, e := range history {
		if e.Applied() {
			accepted++
		}
	}
	final, err := s.resolver.GetVisitor(s.ctx, s.tenant, seed.Visitor.ID)
	s.Require().NoError(err)
	s.Equal(int64(accepted), final.ResolutionVersion, "one version per accepted decision")
	s.Equal(max(final.PersonConfidence, final.CompanyConfidence), final.IdentityConfidence)
}

func (s *ScenarioSuite) TestConcurrentFirstEventsShareOneVisitor() {
	const workers = 8
	ids := make(chan id.VisitorID, workers)

	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			event := id.SourceEventID(fmt.Sprintf("evt-%d", i))
			for range 100 {
				res, err := s.resolver.Resolve(s.ctx, s.tenant, event, []byte(`{"cookie_id":"ck-new"}`))
				if err == nil {
					ids <- res.Visitor.ID
					return
				}
			}
		}()
	}
	wg.Wait()
	close(ids)

	var first id.VisitorID
	n := 0
	for v := range ids {
		if n == 0 {
			first = v
		}
		s.Equal(first, v)
		n++
	}
	s.Equal(workers, n)
}

func (s *ScenarioSuite) TestExplicitVisitorIDCreatesThatVisitor() {
	vid := id.NewVisitorID()
	res := s.resolve("evt-1", fmt.Sprintf(`{"visitor_id":%q,"email":"alice@acme.com"}`, vid.String()))
	s.Equal(vid, res.Visitor.ID)

	again := s.resolve("evt-2", fmt.Sprintf(`{"visitor_id":%q}`, vid.String()))
	s.Equal(vid, again.Visitor.ID)
	s.Equal(models.ReasonNoCandidate, again.Entry.Reason)
}

func (s *ScenarioSuite) TestIdentityOnlyEventCreatesNoVisitor() {
	_, err := s.resolver.Resolve(s.ctx, s.tenant, "evt-1", []byte(`{"email":"alice@acme.com","ip":"203.0.113.7"}`))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidEvent))
	s.Zero(s.provenance.Count(s.tenant))
}

func (s *ScenarioSuite) TestFingerprintAnchorsKnownVisitor() {
	first := s.resolve("evt-1", `{"fingerprint":"aabbccddeeff00112233445566778899","email":"alice@acme.com"}`)
	again := s.resolve("evt-2", `{"fingerprint":"aabbccddeeff00112233445566778899"}`)
	s.Equal(first.Visitor.ID, again.Visitor.ID)
	s.Equal(models.OutcomeNoCandidate, again.Entry.Outcome, "a visitor never matches itself by fingerprint")
}

func (s *ScenarioSuite) TestOverride() {
	res := s.resolve("evt-1", `{"cookie_id":"ck-1","email":"alice@acme.com"}`)

	req := models.OverrideRequest{
		TenantID:      s.tenant,
		VisitorID:     res.Visitor.ID,
		SourceEventID: "ovr-1",
		PersonID:      &s.bob.ID,
		Actor:         "ops@tenant",
	}
	over, err := s.resolver.Override(s.ctx, req)
	s.Require().NoError(err)
	s.Equal(id.MatchTypeManualOverride, over.Entry.MatchType)
	s.Equal(100, over.Entry.Confidence)
	s.Equal("ops@tenant", over.Entry.Actor)
	s.Equal(s.bob.ID, *over.Visitor.CurrentPersonID)
	s.Equal(100, over.Visitor.IdentityConfidence)
	s.Equal(res.Visitor.ResolutionVersion+1, over.Visitor.ResolutionVersion)

	s.Run("replay is a duplicate", func() {
		again, err := s.resolver.Override(s.ctx, req)
		s.Require().NoError(err)
		s.True(again.Duplicate)
		s.Equal(over.Entry.ID, again.Entry.ID)
	})

	s.Run("scored matches cannot displace an override", func() {
		later := s.resolve("evt-2", `{"cookie_id":"ck-1","email":"alice@acme.com"}`)
		s.Equal(models.ReasonLowerConfidence, later.Entry.Reason)
		s.Equal(s.bob.ID, *later.Visitor.CurrentPersonID)
	})

	s.Run("unknown person", func() {
		ghost := id.PersonID(uuid.New())
		_, err := s.resolver.Override(s.ctx, models.OverrideRequest{
			TenantID: s.tenant, VisitorID: res.Visitor.ID, SourceEventID: "ovr-2", PersonID: &ghost, Actor: "ops",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("unknown visitor", func() {
		_, err := s.resolver.Override(s.ctx, models.OverrideRequest{
			TenantID: s.tenant, VisitorID: id.NewVisitorID(), SourceEventID: "ovr-3", CompanyID: &s.acme.ID, Actor: "ops",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("requires a target", func() {
		_, err := s.resolver.Override(s.ctx, models.OverrideRequest{
			TenantID: s.tenant, VisitorID: res.Visitor.ID, SourceEventID: "ovr-4", Actor: "ops",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ScenarioSuite) TestHistoryIsBounded() {
	var visitorID id.VisitorID
	for i := range 3 {
		visitorID = s.resolve(fmt.Sprintf("evt-%d", i), `{"cookie_id":"ck-1"}`).Visitor.ID
	}

	history, err := s.resolver.GetResolutionHistory(s.ctx, s.tenant, visitorID, 2)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(id.SourceEventID("evt-2"), history[0].SourceEventID)

	_, err = s.resolver.GetResolutionHistory(s.ctx, s.tenant, id.NewVisitorID(), 2)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

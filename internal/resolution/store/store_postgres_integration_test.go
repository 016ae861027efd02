//go:build integration

package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	provenance "idgraph/internal/provenance/store/postgres"
	"idgraph/internal/resolution/models"
	"idgraph/internal/resolution/store"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
	"idgraph/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres   *containers.PostgresContainer
	provenance *provenance.Store
	store      *store.PostgresStore
	tenant     id.TenantID
	now        time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.provenance = provenance.New(s.postgres.DB)
	s.store = store.NewPostgres(s.postgres.DB, s.provenance)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "visitors", "resolution_log", "outbox"))
	s.tenant = id.TenantID(uuid.New())
	s.now = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *PostgresStoreSuite) entry(v *models.Visitor, event string) models.ProvenanceEntry {
	return models.ProvenanceEntry{
		ID:                id.NewEntryID(),
		TenantID:          v.TenantID,
		VisitorID:         v.ID,
		MatchType:         id.MatchTypeNone,
		SourceEventID:     id.SourceEventID(event),
		MatchedAt:         s.now,
		Outcome:           models.OutcomeNoCandidate,
		Reason:            models.ReasonNoCandidate,
		ResolutionVersion: v.ResolutionVersion,
	}
}

func (s *PostgresStoreSuite) create(cookie, fingerprint, event string) *models.Visitor {
	v := models.NewVisitor(s.tenant, cookie, fingerprint, s.now)
	s.Require().NoError(s.store.Commit(context.Background(), models.Commit{Visitor: v, Create: true, Entry: s.entry(v, event)}))
	return v
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	v := s.create("cookie-1", "fp-1", "evt-1")

	got, err := s.store.FindByID(ctx, s.tenant, v.ID)
	s.Require().NoError(err)
	s.Equal(v.CookieID, got.CookieID)
	s.True(v.FirstSeenAt.Equal(got.FirstSeenAt))

	byCookie, err := s.store.FindByCookie(ctx, s.tenant, "cookie-1")
	s.Require().NoError(err)
	s.Equal(v.ID, byCookie.ID)

	_, err = s.store.FindByCookie(ctx, id.TenantID(uuid.New()), "cookie-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCompareAndSwap() {
	ctx := context.Background()
	v := s.create("cookie-1", "", "evt-1")

	next := v.Clone()
	person := id.PersonID(uuid.New())
	next.ApplyCandidate(models.MatchCandidate{EntityType: models.EntityPerson, EntityID: uuid.UUID(person), Confidence: 95})
	next.Advance(s.now.Add(time.Second))
	entry := s.entry(next, "evt-2")
	entry.PersonID = &person
	entry.Outcome = models.OutcomeAccepted
	s.Require().NoError(s.store.Commit(ctx, models.Commit{Visitor: next, ExpectedVersion: 0, Entry: entry}))

	stale := v.Clone()
	stale.Advance(s.now.Add(2 * time.Second))
	err := s.store.Commit(ctx, models.Commit{Visitor: stale, ExpectedVersion: 0, Entry: s.entry(stale, "evt-3")})
	s.ErrorIs(err, sentinel.ErrConflict)

	_, err = s.provenance.FindBySourceEvent(ctx, s.tenant, "evt-3")
	s.ErrorIs(err, sentinel.ErrNotFound, "the entry rolls back with the visitor write")

	got, err := s.store.FindByID(ctx, s.tenant, v.ID)
	s.Require().NoError(err)
	s.Equal(int64(1), got.ResolutionVersion)
	s.Equal(person, *got.CurrentPersonID)
	s.Equal(95, got.IdentityConfidence)
}

func (s *PostgresStoreSuite) TestDuplicateEventRollsBackVisitor() {
	ctx := context.Background()
	s.create("cookie-1", "", "evt-1")

	other := models.NewVisitor(s.tenant, "cookie-2", "", s.now)
	err := s.store.Commit(ctx, models.Commit{Visitor: other, Create: true, Entry: s.entry(other, "evt-1")})
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)

	_, err = s.store.FindByID(ctx, s.tenant, other.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestCookieTaken() {
	ctx := context.Background()
	s.create("cookie-1", "", "evt-1")

	dup := models.NewVisitor(s.tenant, "cookie-1", "", s.now)
	err := s.store.Commit(ctx, models.Commit{Visitor: dup, Create: true, Entry: s.entry(dup, "evt-2")})
	s.ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestConcurrentUpdatesOneWins() {
	ctx := context.Background()
	v := s.create("cookie-1", "", "evt-0")

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := v.Clone()
			next.Advance(s.now.Add(time.Duration(i+1) * time.Second))
			errs <- s.store.Commit(ctx, models.Commit{Visitor: next, ExpectedVersion: 0, Entry: s.entry(next, uuid.NewString())})
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		s.ErrorIs(err, sentinel.ErrConflict)
	}
	s.Equal(1, wins)
}

func (s *PostgresStoreSuite) TestListResolvedByFingerprint() {
	ctx := context.Background()
	s.create("c1", "fp", "e1")

	resolved := models.NewVisitor(s.tenant, "c2", "fp", s.now)
	company := id.CompanyID(uuid.New())
	resolved.ApplyCandidate(models.MatchCandidate{EntityType: models.EntityCompany, EntityID: uuid.UUID(company), Confidence: 60})
	s.Require().NoError(s.store.Commit(ctx, models.Commit{Visitor: resolved, Create: true, Entry: s.entry(resolved, "e2")}))

	got, err := s.store.ListResolvedByFingerprint(ctx, s.tenant, "fp", 10)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(resolved.ID, got[0].ID)
}

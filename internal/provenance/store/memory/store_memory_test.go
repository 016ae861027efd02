package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
)

func entry(tenant id.TenantID, visitor id.VisitorID, event string) models.ProvenanceEntry {
	return models.ProvenanceEntry{
		ID:            id.NewEntryID(),
		TenantID:      tenant,
		VisitorID:     visitor,
		MatchType:     id.MatchTypeEmailExact,
		Confidence:    95,
		SourceEventID: id.SourceEventID(event),
		MatchedFields: map[string]string{models.FieldEmail: "a@acme.com"},
		MatchedAt:     time.Now(),
		Outcome:       models.OutcomeAccepted,
		Reason:        models.ReasonAccepted,
	}
}

func TestAppend_RejectsDuplicateSourceEvent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())
	visitor := id.NewVisitorID()

	require.NoError(t, s.Append(ctx, entry(tenant, visitor, "evt-1")))
	err := s.Append(ctx, entry(tenant, visitor, "evt-1"))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
	assert.Equal(t, 1, s.Count(tenant))

	// The same event id in another tenant is a different key.
	require.NoError(t, s.Append(ctx, entry(id.TenantID(uuid.New()), visitor, "evt-1")))
}

func TestFindBySourceEvent(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())
	e := entry(tenant, id.NewVisitorID(), "evt-1")
	require.NoError(t, s.Append(ctx, e))

	got, err := s.FindBySourceEvent(ctx, tenant, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, e.ID, got.ID)

	got.MatchedFields["email"] = "changed"
	again, err := s.FindBySourceEvent(ctx, tenant, "evt-1")
	require.NoError(t, err)
	assert.Equal(t, "a@acme.com", again.MatchedFields["email"])

	_, err = s.FindBySourceEvent(ctx, id.TenantID(uuid.New()), "evt-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListByVisitor_MostRecentFirst(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())
	visitor := id.NewVisitorID()
	for i := range 5 {
		require.NoError(t, s.Append(ctx, entry(tenant, visitor, fmt.Sprintf("evt-%d", i))))
	}
	require.NoError(t, s.Append(ctx, entry(tenant, id.NewVisitorID(), "other")))

	got, err := s.ListByVisitor(ctx, tenant, visitor, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, id.SourceEventID("evt-4"), got[0].SourceEventID)
	assert.Equal(t, id.SourceEventID("evt-2"), got[2].SourceEventID)

	none, err := s.ListByVisitor(ctx, id.TenantID(uuid.New()), visitor, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAppend_ConcurrentDuplicatesRecordOnce(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())

	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Append(ctx, entry(tenant, id.NewVisitorID(), "evt-race")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, s.Count(tenant))
}

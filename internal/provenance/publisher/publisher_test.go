package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
)

type recordingSink struct {
	mu       sync.Mutex
	messages []Message
	err      error
	block    chan struct{}
}

func (s *recordingSink) Send(_ context.Context, msg Message) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) AddOutbox(result string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[result] += n
}

func testEntry() models.ProvenanceEntry {
	return models.ProvenanceEntry{
		ID:            id.NewEntryID(),
		TenantID:      id.TenantID(uuid.New()),
		VisitorID:     id.NewVisitorID(),
		MatchType:     id.MatchTypeDomainCompany,
		Confidence:    60,
		SourceEventID: "evt-1",
		MatchedAt:     time.Now().UTC(),
		Outcome:       models.OutcomeAccepted,
		Reason:        models.ReasonAccepted,
	}
}

func TestEncodeEntry(t *testing.T) {
	entry := testEntry()
	msg, err := EncodeEntry(entry)
	require.NoError(t, err)

	assert.Equal(t, entry.VisitorID.String(), string(msg.Key))
	assert.Equal(t, EventTypeRecorded, msg.Headers[HeaderEventType])
	assert.Equal(t, entry.TenantID.String(), msg.Headers[HeaderTenantID])

	var decoded models.ProvenanceEntry
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, entry.ID, decoded.ID)
	assert.Equal(t, entry.SourceEventID, decoded.SourceEventID)
}

func TestPublisher_SyncMode(t *testing.T) {
	sink := &recordingSink{}
	rec := &countingRecorder{counts: map[string]int{}}
	pub := NewPublisher(sink, WithMetrics(rec))
	defer pub.Close()

	require.NoError(t, pub.Publish(context.Background(), testEntry()))
	assert.Equal(t, 1, sink.len())
	assert.Equal(t, 1, rec.counts["published"])
}

func TestPublisher_SyncModeSurfacesSinkError(t *testing.T) {
	sink := &recordingSink{err: errors.New("broker down")}
	pub := NewPublisher(sink)

	err := pub.Publish(context.Background(), testEntry())
	assert.ErrorContains(t, err, "broker down")
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	pub := NewPublisher(sink, WithAsyncBuffer(100))

	for range 10 {
		require.NoError(t, pub.Publish(context.Background(), testEntry()))
	}
	pub.Close()

	assert.Equal(t, 10, sink.len(), "queued entries are delivered before Close returns")
	assert.ErrorIs(t, pub.Publish(context.Background(), testEntry()), ErrClosed)
	pub.Close()
}

func TestPublisher_AsyncBufferFull(t *testing.T) {
	sink := &recordingSink{block: make(chan struct{})}
	rec := &countingRecorder{counts: map[string]int{}}
	pub := NewPublisher(sink, WithAsyncBuffer(1), WithMetrics(rec))

	var full int
	for range 5 {
		if errors.Is(pub.Publish(context.Background(), testEntry()), ErrBufferFull) {
			full++
		}
	}
	close(sink.block)
	pub.Close()

	assert.GreaterOrEqual(t, full, 3, "the worker holds at most one entry and the buffer one more")
	assert.Equal(t, full, rec.counts["dropped"])
	assert.Equal(t, 5-full, sink.len())
}

func TestLogSink(t *testing.T) {
	msg, err := EncodeEntry(testEntry())
	require.NoError(t, err)
	assert.NoError(t, LogSink{}.Send(context.Background(), msg))
}

// Package publisher ships provenance entries to downstream consumers.
//
// In Postgres mode entries reach Kafka through the transactional outbox and
// the Relay. In memory mode the resolver hands committed entries to a
// Publisher, which forwards them to a Sink synchronously or from a buffered
// background worker.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"idgraph/internal/resolution/models"
)

const (
	// EventTypeRecorded labels messages carrying a new provenance entry.
	EventTypeRecorded = "resolution.recorded"

	HeaderEventType = "event_type"
	HeaderTenantID  = "tenant_id"
)

// ErrBufferFull is returned by an async Publisher whose queue is saturated.
var ErrBufferFull = errors.New("provenance publish buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("provenance publisher closed")

// Message is one record handed to a Sink. Key orders messages per visitor.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Sink delivers messages to a broker or another consumer.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// Recorder receives delivery counts.
type Recorder interface {
	AddOutbox(result string, n int)
}

// EncodeEntry renders a provenance entry as a message keyed by visitor id.
func EncodeEntry(entry models.ProvenanceEntry) (Message, error) {
	value, err := json.Marshal(entry)
	if err != nil {
		return Message{}, fmt.Errorf("marshal provenance entry: %w", err)
	}
	return Message{
		Key:   []byte(entry.VisitorID.String()),
		Value: value,
		Headers: map[string]string{
			HeaderEventType: EventTypeRecorded,
			HeaderTenantID:  entry.TenantID.String(),
		},
	}, nil
}

// Publisher forwards committed provenance entries to a Sink.
type Publisher struct {
	sink    Sink
	logger  *slog.Logger
	metrics Recorder

	mu     sync.RWMutex
	queue  chan models.ProvenanceEntry
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Publisher.
type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m Recorder) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithAsyncBuffer makes Publish enqueue entries for a background worker.
// Entries that do not fit in the buffer are rejected with ErrBufferFull.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		if size > 0 {
			p.queue = make(chan models.ProvenanceEntry, size)
		}
	}
}

func NewPublisher(sink Sink, opts ...Option) *Publisher {
	p := &Publisher{
		sink:   sink,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

// Publish delivers entry, or queues it in async mode. The resolution is
// already committed when this is called; a failure here only delays the
// downstream copy.
func (p *Publisher) Publish(ctx context.Context, entry models.ProvenanceEntry) error {
	if p.queue == nil {
		return p.deliver(ctx, entry)
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- entry:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.record("dropped", 1)
		return ErrBufferFull
	}
}

// run drains the queue until Close.
func (p *Publisher) run() {
	defer p.wg.Done()
	for entry := range p.queue {
		if err := p.deliver(context.Background(), entry); err != nil {
			p.logger.Error("failed to publish provenance entry",
				"error", err,
				"tenant_id", entry.TenantID.String(),
				"source_event_id", entry.SourceEventID.String(),
			)
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, entry models.ProvenanceEntry) error {
	msg, err := EncodeEntry(entry)
	if err != nil {
		return err
	}
	if err := p.sink.Send(ctx, msg); err != nil {
		p.record("failed", 1)
		return fmt.Errorf("send provenance entry: %w", err)
	}
	p.record("published", 1)
	return nil
}

func (p *Publisher) record(result string, n int) {
	if p.metrics != nil {
		p.metrics.AddOutbox(result, n)
	}
}

// Close stops accepting entries and waits for queued ones to be delivered.
func (p *Publisher) Close() {
	if p.queue == nil {
		return
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}

// LogSink writes messages to a logger. It backs memory mode when no broker
// is configured.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "provenance entry published",
		"key", string(msg.Key),
		"event_type", msg.Headers[HeaderEventType],
		"tenant_id", msg.Headers[HeaderTenantID],
	)
	return nil
}

package publisher

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"idgraph/pkg/platform/retry"
	txcontext "idgraph/pkg/platform/tx"
)

const (
	defaultBatchSize    = 100
	defaultPollInterval = 500 * time.Millisecond
	defaultLockTTL      = 30 * time.Second
	defaultMaxAttempts  = 10
	lastErrorMaxLen     = 1024

	HeaderAggregateType = "aggregate_type"
)

// Relay moves outbox rows to a Sink. Rows are claimed with FOR UPDATE SKIP
// LOCKED so several relays can run side by side; a claimed row is locked for
// LockTTL, then becomes claimable again if its relay died.
//
// Rows for one aggregate are delivered in insertion order. A row waiting on a
// retry or held by another relay blocks the later rows of its aggregate;
// rows that exhausted their attempts no longer do.
type Relay struct {
	db           *sql.DB
	sink         Sink
	logger       *slog.Logger
	metrics      Recorder
	batchSize    int
	pollInterval time.Duration
	lockTTL      time.Duration
	maxAttempts  int
	backoff      retry.Config
	now          func() time.Time
}

// RelayOption configures a Relay.
type RelayOption func(*Relay)

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithRelayMetrics(m Recorder) RelayOption {
	return func(r *Relay) {
		r.metrics = m
	}
}

func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithMaxAttempts bounds deliveries per row; exhausted rows stay in the
// table with last_error set.
func WithMaxAttempts(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithBackoff sets the redelivery delay schedule for failed rows.
func WithBackoff(cfg retry.Config) RelayOption {
	return func(r *Relay) {
		r.backoff = cfg
	}
}

func NewRelay(db *sql.DB, sink Sink, opts ...RelayOption) *Relay {
	r := &Relay{
		db:           db,
		sink:         sink,
		logger:       slog.Default(),
		batchSize:    defaultBatchSize,
		pollInterval: defaultPollInterval,
		lockTTL:      defaultLockTTL,
		maxAttempts:  defaultMaxAttempts,
		backoff: retry.Config{
			InitialBackoff: time.Second,
			MaxBackoff:     5 * time.Minute,
			Multiplier:     2,
			JitterFraction: 0.2,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run polls until ctx is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := r.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.logger.WarnContext(ctx, "outbox relay tick failed", "error", err)
		}
	}
}

type claimedRow struct {
	id            uuid.UUID
	tenantID      string
	aggregateType string
	aggregateID   string
	eventType     string
	payload       []byte
	attempts      int
}

// ProcessOnce claims one batch, delivers it and returns how many rows were
// published.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	rows, err := r.claim(ctx)
	if err != nil {
		return 0, err
	}

	published := 0
	// held marks aggregates whose earlier row was not delivered in this batch.
	held := make(map[string]bool)
	var deferred []string
	for _, row := range rows {
		if held[row.aggregateID] {
			deferred = append(deferred, row.id.String())
			continue
		}

		headers := map[string]string{
			HeaderEventType:     row.eventType,
			HeaderAggregateType: row.aggregateType,
		}
		if row.tenantID != "" {
			headers[HeaderTenantID] = row.tenantID
		}
		err := r.sink.Send(ctx, Message{
			Key:     []byte(row.aggregateID),
			Value:   row.payload,
			Headers: headers,
		})
		if err == nil {
			if ackErr := r.ack(ctx, row.id); ackErr != nil {
				r.logger.WarnContext(ctx, "outbox ack failed", "error", ackErr, "outbox_id", row.id.String())
				held[row.aggregateID] = true
				continue
			}
			published++
			continue
		}

		r.record("failed", 1)
		next := r.now().Add(retry.Backoff(row.attempts-1, r.backoff))
		if nackErr := r.nack(ctx, row.id, truncate(err.Error(), lastErrorMaxLen), next); nackErr != nil {
			r.logger.WarnContext(ctx, "outbox nack failed", "error", nackErr, "outbox_id", row.id.String())
		}
		if row.attempts >= r.maxAttempts {
			r.logger.ErrorContext(ctx, "outbox row exhausted delivery attempts",
				"outbox_id", row.id.String(),
				"aggregate_id", row.aggregateID,
				"attempts", row.attempts,
				"error", err,
			)
			continue
		}
		held[row.aggregateID] = true
	}
	if len(deferred) > 0 {
		if err := r.release(ctx, deferred); err != nil {
			r.logger.WarnContext(ctx, "outbox release failed", "error", err, "rows", len(deferred))
		}
	}
	r.record("published", published)
	return published, nil
}

func (r *Relay) claim(ctx context.Context) ([]claimedRow, error) {
	now := r.now()
	var claimed []claimedRow

	err := txcontext.Run(ctx, r.db, func(ctx context.Context) error {
		tx, _ := txcontext.From(ctx)
		rows, err := tx.QueryContext(ctx, `
			SELECT o.id, o.tenant_id, o.aggregate_type, o.aggregate_id, o.event_type, o.payload, o.attempts
			  FROM outbox o
			 WHERE o.published_at IS NULL
			   AND o.available_at <= $1
			   AND o.attempts < $2
			   AND (o.locked_at IS NULL OR o.locked_at < $3)
			   AND NOT EXISTS (
			       SELECT 1
			         FROM outbox earlier
			        WHERE earlier.aggregate_id = o.aggregate_id
			          AND earlier.seq < o.seq
			          AND earlier.published_at IS NULL
			          AND earlier.attempts < $2
			          AND (earlier.available_at > $1
			               OR (earlier.locked_at IS NOT NULL AND earlier.locked_at >= $3))
			   )
			 ORDER BY o.seq
			 LIMIT $4
			 FOR UPDATE OF o SKIP LOCKED
		`, now, r.maxAttempts, now.Add(-r.lockTTL), r.batchSize)
		if err != nil {
			return fmt.Errorf("outbox claim select: %w", err)
		}
		defer rows.Close()

		var ids []string
		for rows.Next() {
			var c claimedRow
			if err := rows.Scan(&c.id, &c.tenantID, &c.aggregateType, &c.aggregateID, &c.eventType, &c.payload, &c.attempts); err != nil {
				return fmt.Errorf("outbox claim scan: %w", err)
			}
			c.attempts++
			claimed = append(claimed, c)
			ids = append(ids, c.id.String())
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("outbox claim rows: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE outbox SET locked_at = $1, attempts = attempts + 1 WHERE id = ANY($2::uuid[])`,
			now, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("outbox claim update: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *Relay) ack(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		   SET published_at = $2, locked_at = NULL, last_error = NULL
		 WHERE id = $1 AND published_at IS NULL
	`, id, r.now())
	if err != nil {
		return fmt.Errorf("outbox ack: %w", err)
	}
	return nil
}

func (r *Relay) nack(ctx context.Context, id uuid.UUID, lastError string, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		   SET locked_at = NULL, last_error = $2, available_at = $3
		 WHERE id = $1 AND published_at IS NULL
	`, id, lastError, next)
	if err != nil {
		return fmt.Errorf("outbox nack: %w", err)
	}
	return nil
}

// release unlocks claimed rows that were not attempted and refunds the
// attempt the claim charged them.
func (r *Relay) release(ctx context.Context, ids []string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE outbox
		   SET locked_at = NULL, attempts = attempts - 1
		 WHERE id = ANY($1::uuid[]) AND published_at IS NULL
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("outbox release: %w", err)
	}
	return nil
}

func (r *Relay) record(result string, n int) {
	if r.metrics != nil && n > 0 {
		r.metrics.AddOutbox(result, n)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// Package postgres stores the provenance log in the append-only
// resolution_log table and enqueues each entry on the transactional outbox.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
	txcontext "idgraph/pkg/platform/tx"
)

const (
	// EventTypeRecorded is the outbox event type for a new provenance entry.
	EventTypeRecorded = "resolution.recorded"

	aggregateVisitor = "visitor"
)

// Store implements the provenance log on PostgreSQL. There is no UPDATE or
// DELETE path; the table trigger rejects both.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts the entry and its outbox record. It joins the caller's
// transaction when one is on the context. A second entry for the same tenant
// and source event returns sentinel.ErrAlreadyUsed.
func (s *Store) Append(ctx context.Context, entry models.ProvenanceEntry) error {
	return txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		fields, err := json.Marshal(nonNilFields(entry.MatchedFields))
		if err != nil {
			return fmt.Errorf("marshal matched fields: %w", err)
		}

		res, err := s.execer(ctx).ExecContext(ctx, `
			INSERT INTO resolution_log (
				id, tenant_id, visitor_id, person_id, company_id, match_type,
				confidence, source_event_id, matched_fields, matched_at, outcome,
				reason, evaluated_entity_type, evaluated_entity_id, resolution_version, actor
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			ON CONFLICT (tenant_id, source_event_id) DO NOTHING
		`,
			uuid.UUID(entry.ID),
			uuid.UUID(entry.TenantID),
			uuid.UUID(entry.VisitorID),
			personUUID(entry.PersonID),
			companyUUID(entry.CompanyID),
			string(entry.MatchType),
			entry.Confidence,
			string(entry.SourceEventID),
			fields,
			entry.MatchedAt,
			string(entry.Outcome),
			string(entry.Reason),
			string(entry.EvaluatedEntityType),
			entry.EvaluatedEntityID,
			entry.ResolutionVersion,
			entry.Actor,
		)
		if err != nil {
			return fmt.Errorf("insert resolution log entry: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("insert resolution log entry: %w", err)
		}
		if affected == 0 {
			return sentinel.ErrAlreadyUsed
		}

		payload, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal outbox payload: %w", err)
		}
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO outbox (id, tenant_id, aggregate_type, aggregate_id, event_type, payload, created_at, available_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`,
			uuid.New(),
			entry.TenantID.String(),
			aggregateVisitor,
			entry.VisitorID.String(),
			EventTypeRecorded,
			payload,
			entry.MatchedAt,
		)
		if err != nil {
			return fmt.Errorf("insert outbox entry: %w", err)
		}
		return nil
	})
}

const entryColumns = `id, tenant_id, visitor_id, person_id, company_id, match_type,
	confidence, source_event_id, matched_fields, matched_at, outcome,
	reason, evaluated_entity_type, evaluated_entity_id, resolution_version, actor`

func (s *Store) FindBySourceEvent(ctx context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID) (*models.ProvenanceEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM resolution_log WHERE tenant_id = $1 AND source_event_id = $2`
	entry, err := scanEntry(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID), string(sourceEventID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find resolution log entry: %w", err)
	}
	return entry, nil
}

// ListByVisitor returns up to limit entries, most recent first.
func (s *Store) ListByVisitor(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID, limit int) ([]models.ProvenanceEntry, error) {
	query := `SELECT ` + entryColumns + `
		FROM resolution_log
		WHERE tenant_id = $1 AND visitor_id = $2
		ORDER BY seq DESC
		LIMIT $3`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(tenantID), uuid.UUID(visitorID), limit)
	if err != nil {
		return nil, fmt.Errorf("query resolution log: %w", err)
	}
	defer rows.Close()

	entries := make([]models.ProvenanceEntry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan resolution log entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate resolution log: %w", err)
	}
	return entries, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.ProvenanceEntry, error) {
	var (
		entry                  models.ProvenanceEntry
		entryID, tenant, visit uuid.UUID
		personID, companyID    *uuid.UUID
		matchType, sourceEvent string
		outcome, reason        string
		evaluatedType          string
		fields                 []byte
	)
	err := row.Scan(
		&entryID, &tenant, &visit, &personID, &companyID, &matchType,
		&entry.Confidence, &sourceEvent, &fields, &entry.MatchedAt, &outcome,
		&reason, &evaluatedType, &entry.EvaluatedEntityID, &entry.ResolutionVersion, &entry.Actor,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fields, &entry.MatchedFields); err != nil {
		return nil, fmt.Errorf("decode matched fields: %w", err)
	}

	entry.ID = id.EntryID(entryID)
	entry.TenantID = id.TenantID(tenant)
	entry.VisitorID = id.VisitorID(visit)
	if personID != nil {
		pid := id.PersonID(*personID)
		entry.PersonID = &pid
	}
	if companyID != nil {
		cid := id.CompanyID(*companyID)
		entry.CompanyID = &cid
	}
	entry.MatchType = id.MatchType(matchType)
	entry.SourceEventID = id.SourceEventID(sourceEvent)
	entry.Outcome = models.Outcome(outcome)
	entry.Reason = models.Reason(reason)
	entry.EvaluatedEntityType = models.EntityType(evaluatedType)
	entry.MatchedAt = entry.MatchedAt.UTC()
	return &entry, nil
}

func personUUID(p *id.PersonID) *uuid.UUID {
	if p == nil {
		return nil
	}
	u := uuid.UUID(*p)
	return &u
}

func companyUUID(c *id.CompanyID) *uuid.UUID {
	if c == nil {
		return nil
	}
	u := uuid.UUID(*c)
	return &u
}

func nonNilFields(in map[string]string) map[string]string {
	if in == nil {
		return map[string]string{}
	}
	return in
}

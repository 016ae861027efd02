package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"idgraph/internal/platform/postgres"
	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
	txcontext "idgraph/pkg/platform/tx"
)

// PostgresStore persists visitors in the visitors table. Commit runs the
// visitor write and the provenance append in one transaction.
type PostgresStore struct {
	db         *sql.DB
	provenance ProvenanceAppender
}

// NewPostgres builds a store whose commits append through provenance; the
// appender must honour the transaction carried on the context.
func NewPostgres(db *sql.DB, provenance ProvenanceAppender) *PostgresStore {
	return &PostgresStore{db: db, provenance: provenance}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const visitorColumns = `tenant_id, id, cookie_id, fingerprint, current_person_id, current_company_id,
	person_confidence, company_confidence, identity_confidence, resolution_version,
	first_seen_at, last_seen_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVisitor(row rowScanner) (*models.Visitor, error) {
	var (
		v                   models.Visitor
		tenant, visitorID   uuid.UUID
		cookie, fingerprint sql.NullString
		personID, companyID *uuid.UUID
	)
	err := row.Scan(&tenant, &visitorID, &cookie, &fingerprint, &personID, &companyID,
		&v.PersonConfidence, &v.CompanyConfidence, &v.IdentityConfidence, &v.ResolutionVersion,
		&v.FirstSeenAt, &v.LastSeenAt)
	if err != nil {
		return nil, err
	}
	v.TenantID = id.TenantID(tenant)
	v.ID = id.VisitorID(visitorID)
	v.CookieID = cookie.String
	v.Fingerprint = fingerprint.String
	if personID != nil {
		pid := id.PersonID(*personID)
		v.CurrentPersonID = &pid
	}
	if companyID != nil {
		cid := id.CompanyID(*companyID)
		v.CurrentCompanyID = &cid
	}
	v.FirstSeenAt = v.FirstSeenAt.UTC()
	v.LastSeenAt = v.LastSeenAt.UTC()
	return &v, nil
}

func (s *PostgresStore) findOne(ctx context.Context, where string, args ...any) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE ` + where
	v, err := scanVisitor(s.execer(ctx).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find visitor: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, tenantID id.TenantID, visitorID id.VisitorID) (*models.Visitor, error) {
	return s.findOne(ctx, `tenant_id = $1 AND id = $2`, uuid.UUID(tenantID), uuid.UUID(visitorID))
}

func (s *PostgresStore) FindByCookie(ctx context.Context, tenantID id.TenantID, cookieID string) (*models.Visitor, error) {
	return s.findOne(ctx, `tenant_id = $1 AND cookie_id = $2`, uuid.UUID(tenantID), cookieID)
}

func (s *PostgresStore) FindByFingerprint(ctx context.Context, tenantID id.TenantID, fingerprint string) (*models.Visitor, error) {
	return s.findOne(ctx, `tenant_id = $1 AND fingerprint = $2 ORDER BY last_seen_at DESC, id LIMIT 1`,
		uuid.UUID(tenantID), fingerprint)
}

func (s *PostgresStore) ListResolvedByFingerprint(ctx context.Context, tenantID id.TenantID, fingerprint string, limit int) ([]*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + `
		FROM visitors
		WHERE tenant_id = $1 AND fingerprint = $2
		  AND (current_person_id IS NOT NULL OR current_company_id IS NOT NULL)
		ORDER BY last_seen_at DESC, id
		LIMIT $3`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(tenantID), fingerprint, limit)
	if err != nil {
		return nil, fmt.Errorf("query visitors by fingerprint: %w", err)
	}
	defer rows.Close()

	var visitors []*models.Visitor
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visitor: %w", err)
		}
		visitors = append(visitors, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visitors: %w", err)
	}
	return visitors, nil
}

// Commit applies c in one transaction. Stale versions and taken cookies
// return sentinel.ErrConflict; a recorded source event returns
// sentinel.ErrAlreadyUsed.
func (s *PostgresStore) Commit(ctx context.Context, c models.Commit) error {
	err := txcontext.Run(ctx, s.db, func(ctx context.Context) error {
		if err := s.provenance.Append(ctx, c.Entry); err != nil {
			return err
		}
		if c.Visitor == nil {
			return nil
		}
		if c.Create {
			return s.insert(ctx, c.Visitor)
		}
		return s.update(ctx, c.Visitor, c.ExpectedVersion)
	})
	if postgres.IsRetryableTx(err) || postgres.IsUniqueViolation(err) {
		return fmt.Errorf("commit resolution: %w", sentinel.ErrConflict)
	}
	return err
}

func (s *PostgresStore) insert(ctx context.Context, v *models.Visitor) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO visitors (`+visitorColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT DO NOTHING
	`, visitorArgs(v)...)
	if err != nil {
		return fmt.Errorf("insert visitor: %w", err)
	}
	return requireRow(res, "insert visitor")
}

func (s *PostgresStore) update(ctx context.Context, v *models.Visitor, expected int64) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE visitors
		   SET current_person_id = $3,
		       current_company_id = $4,
		       person_confidence = $5,
		       company_confidence = $6,
		       identity_confidence = $7,
		       resolution_version = $8,
		       last_seen_at = $9
		 WHERE tenant_id = $1 AND id = $2 AND resolution_version = $10
	`,
		uuid.UUID(v.TenantID),
		uuid.UUID(v.ID),
		nullablePerson(v.CurrentPersonID),
		nullableCompany(v.CurrentCompanyID),
		v.PersonConfidence,
		v.CompanyConfidence,
		v.IdentityConfidence,
		v.ResolutionVersion,
		v.LastSeenAt,
		expected,
	)
	if err != nil {
		return fmt.Errorf("update visitor: %w", err)
	}
	return requireRow(res, "update visitor")
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func visitorArgs(v *models.Visitor) []any {
	return []any{
		uuid.UUID(v.TenantID),
		uuid.UUID(v.ID),
		nullString(v.CookieID),
		nullString(v.Fingerprint),
		nullablePerson(v.CurrentPersonID),
		nullableCompany(v.CurrentCompanyID),
		v.PersonConfidence,
		v.CompanyConfidence,
		v.IdentityConfidence,
		v.ResolutionVersion,
		v.FirstSeenAt,
		v.LastSeenAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullablePerson(p *id.PersonID) *uuid.UUID {
	if p == nil {
		return nil
	}
	u := uuid.UUID(*p)
	return &u
}

func nullableCompany(c *id.CompanyID) *uuid.UUID {
	if c == nil {
		return nil
	}
	u := uuid.UUID(*c)
	return &u
}

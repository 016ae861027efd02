package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
)

// PostgresStore reads persons and companies from PostgreSQL. Every query is
// filtered by tenant_id.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const personColumns = `id, tenant_id, email, name, job_title, last_seen_at`

const companyColumns = `id, tenant_id, domain, name, industry, last_seen_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var (
		p        models.Person
		pid, tid uuid.UUID
	)
	if err := row.Scan(&pid, &tid, &p.Email, &p.Name, &p.JobTitle, &p.LastSeenAt); err != nil {
		return nil, err
	}
	p.ID = id.PersonID(pid)
	p.TenantID = id.TenantID(tid)
	return &p, nil
}

func scanCompany(row rowScanner) (*models.Company, error) {
	var (
		c        models.Company
		cid, tid uuid.UUID
	)
	if err := row.Scan(&cid, &tid, &c.Domain, &c.Name, &c.Industry, &c.LastSeenAt); err != nil {
		return nil, err
	}
	c.ID = id.CompanyID(cid)
	c.TenantID = id.TenantID(tid)
	return &c, nil
}

func (s *PostgresStore) PersonByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE tenant_id = $1 AND lower(email) = $2`
	p, err := scanPerson(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), strings.ToLower(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person by email: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) CompanyByDomain(ctx context.Context, tenantID id.TenantID, domain string) (*models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tenant_id = $1 AND lower(domain) = $2`
	c, err := scanCompany(s.db.QueryRowContext(ctx, query, uuid.UUID(tenantID), strings.ToLower(domain)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company by domain: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) PersonsByIDs(ctx context.Context, tenantID id.TenantID, ids []id.PersonID) ([]*models.Person, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, pid := range ids {
		keys[i] = pid.String()
	}
	query := `SELECT ` + personColumns + ` FROM persons WHERE tenant_id = $1 AND id = ANY($2::uuid[])`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("query persons by id: %w", err)
	}
	defer rows.Close()

	var out []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CompaniesByIDs(ctx context.Context, tenantID id.TenantID, ids []id.CompanyID) ([]*models.Company, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, cid := range ids {
		keys[i] = cid.String()
	}
	query := `SELECT ` + companyColumns + ` FROM companies WHERE tenant_id = $1 AND id = ANY($2::uuid[])`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID), pq.Array(keys))
	if err != nil {
		return nil, fmt.Errorf("query companies by id: %w", err)
	}
	defer rows.Close()

	var out []*models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

// Package directory stores tenant-scoped person and company reference data
// and serves the candidate matcher's lookups.
//
// The resolution pipeline only reads from the directory; Seed exists for
// in-memory mode and tests.
package directory

import (
	"context"
	"strings"
	"sync"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
)

type tenantDirectory struct {
	persons        map[id.PersonID]*models.Person
	personsByEmail map[string]id.PersonID
	companies      map[id.CompanyID]*models.Company
	companiesByDom map[string]id.CompanyID
}

// InMemoryStore is a map-backed directory partitioned by tenant.
type InMemoryStore struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*tenantDirectory
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tenants: make(map[id.TenantID]*tenantDirectory)}
}

func (s *InMemoryStore) tenant(tenantID id.TenantID) *tenantDirectory {
	t, ok := s.tenants[tenantID]
	if !ok {
		t = &tenantDirectory{
			persons:        make(map[id.PersonID]*models.Person),
			personsByEmail: make(map[string]id.PersonID),
			companies:      make(map[id.CompanyID]*models.Company),
			companiesByDom: make(map[string]id.CompanyID),
		}
		s.tenants[tenantID] = t
	}
	return t
}

// SeedPerson inserts or replaces a person record.
func (s *InMemoryStore) SeedPerson(p models.Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tenant(p.TenantID)
	p.Email = strings.ToLower(p.Email)
	t.persons[p.ID] = &p
	t.personsByEmail[p.Email] = p.ID
}

// SeedCompany inserts or replaces a company record.
func (s *InMemoryStore) SeedCompany(c models.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.tenant(c.TenantID)
	c.Domain = strings.ToLower(c.Domain)
	t.companies[c.ID] = &c
	t.companiesByDom[c.Domain] = c.ID
}

func (s *InMemoryStore) PersonByEmail(_ context.Context, tenantID id.TenantID, email string) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	pid, ok := t.personsByEmail[strings.ToLower(email)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	p := *t.persons[pid]
	return &p, nil
}

func (s *InMemoryStore) CompanyByDomain(_ context.Context, tenantID id.TenantID, domain string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cid, ok := t.companiesByDom[strings.ToLower(domain)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *t.companies[cid]
	return &c, nil
}

// PersonsByIDs returns the persons that exist; missing ids are skipped.
func (s *InMemoryStore) PersonsByIDs(_ context.Context, tenantID id.TenantID, ids []id.PersonID) ([]*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	out := make([]*models.Person, 0, len(ids))
	for _, pid := range ids {
		if p, ok := t.persons[pid]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// CompaniesByIDs returns the companies that exist; missing ids are skipped.
func (s *InMemoryStore) CompaniesByIDs(_ context.Context, tenantID id.TenantID, ids []id.CompanyID) ([]*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	out := make([]*models.Company, 0, len(ids))
	for _, cid := range ids {
		if c, ok := t.companies[cid]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

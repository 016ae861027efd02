// Package memory is an in-process provenance log used by tests and the
// memory storage driver.
package memory

import (
	"context"
	"sync"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
)

type tenantLog struct {
	entries   []models.ProvenanceEntry
	byEvent   map[id.SourceEventID]int
	byVisitor map[id.VisitorID][]int
}

// InMemoryStore is an append-only log partitioned by tenant. Entries are
// never updated or removed.
type InMemoryStore struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]*tenantLog
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tenants: make(map[id.TenantID]*tenantLog)}
}

// Append records entry. A second entry for the same tenant and source event
// is rejected with sentinel.ErrAlreadyUsed and leaves the log unchanged.
func (s *InMemoryStore) Append(_ context.Context, entry models.ProvenanceEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log, ok := s.tenants[entry.TenantID]
	if !ok {
		log = &tenantLog{
			byEvent:   make(map[id.SourceEventID]int),
			byVisitor: make(map[id.VisitorID][]int),
		}
		s.tenants[entry.TenantID] = log
	}
	if _, dup := log.byEvent[entry.SourceEventID]; dup {
		return sentinel.ErrAlreadyUsed
	}

	entry.MatchedFields = cloneFields(entry.MatchedFields)
	idx := len(log.entries)
	log.entries = append(log.entries, entry)
	log.byEvent[entry.SourceEventID] = idx
	log.byVisitor[entry.VisitorID] = append(log.byVisitor[entry.VisitorID], idx)
	return nil
}

func (s *InMemoryStore) FindBySourceEvent(_ context.Context, tenantID id.TenantID, sourceEventID id.SourceEventID) (*models.ProvenanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	idx, ok := log.byEvent[sourceEventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	entry := log.entries[idx]
	entry.MatchedFields = cloneFields(entry.MatchedFields)
	return &entry, nil
}

// ListByVisitor returns up to limit entries for the visitor, most recent first.
func (s *InMemoryStore) ListByVisitor(_ context.Context, tenantID id.TenantID, visitorID id.VisitorID, limit int) ([]models.ProvenanceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	log, ok := s.tenants[tenantID]
	if !ok {
		return []models.ProvenanceEntry{}, nil
	}
	indexes := log.byVisitor[visitorID]
	out := make([]models.ProvenanceEntry, 0, min(limit, len(indexes)))
	for i := len(indexes) - 1; i >= 0 && len(out) < limit; i-- {
		entry := log.entries[indexes[i]]
		entry.MatchedFields = cloneFields(entry.MatchedFields)
		out = append(out, entry)
	}
	return out, nil
}

// Count returns the number of entries recorded for a tenant.
func (s *InMemoryStore) Count(tenantID id.TenantID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if log, ok := s.tenants[tenantID]; ok {
		return len(log.entries)
	}
	return 0
}

func cloneFields(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

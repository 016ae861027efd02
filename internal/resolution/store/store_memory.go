package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/platform/sentinel"
)

// numCommitShards spreads tenants over independent commit locks.
const numCommitShards = 128

const defaultCommitTimeout = 5 * time.Second

type tenantVisitors struct {
	byID          map[id.VisitorID]*models.Visitor
	byCookie      map[string]id.VisitorID
	byFingerprint map[string][]id.VisitorID
}

// InMemoryStore keeps visitors per tenant. Commits for one tenant are
// serialized on a sharded lock; reads never take it.
type InMemoryStore struct {
	shards     [numCommitShards]sync.Mutex
	mu         sync.RWMutex
	tenants    map[id.TenantID]*tenantVisitors
	provenance ProvenanceAppender
	timeout    time.Duration
}

// NewInMemoryStore builds a store whose commits append to provenance.
func NewInMemoryStore(provenance ProvenanceAppender) *InMemoryStore {
	return &InMemoryStore{
		tenants:    make(map[id.TenantID]*tenantVisitors),
		provenance: provenance,
		timeout:    defaultCommitTimeout,
	}
}

func (s *InMemoryStore) tenant(tenantID id.TenantID) *tenantVisitors {
	if t, ok := s.tenants[tenantID]; ok {
		return t
	}
	t := &tenantVisitors{
		byID:          make(map[id.VisitorID]*models.Visitor),
		byCookie:      make(map[string]id.VisitorID),
		byFingerprint: make(map[string][]id.VisitorID),
	}
	s.tenants[tenantID] = t
	return t
}

func (s *InMemoryStore) FindByID(_ context.Context, tenantID id.TenantID, visitorID id.VisitorID) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	v, ok := t.byID[visitorID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return v.Clone(), nil
}

func (s *InMemoryStore) FindByCookie(_ context.Context, tenantID id.TenantID, cookieID string) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	visitorID, ok := t.byCookie[cookieID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return t.byID[visitorID].Clone(), nil
}

// FindByFingerprint returns the most recently seen visitor carrying fingerprint.
func (s *InMemoryStore) FindByFingerprint(_ context.Context, tenantID id.TenantID, fingerprint string) (*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	var latest *models.Visitor
	for _, visitorID := range t.byFingerprint[fingerprint] {
		v := t.byID[visitorID]
		if latest == nil || v.LastSeenAt.After(latest.LastSeenAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, sentinel.ErrNotFound
	}
	return latest.Clone(), nil
}

// ListResolvedByFingerprint returns up to limit resolved visitors sharing
// fingerprint, most recently seen first.
func (s *InMemoryStore) ListResolvedByFingerprint(_ context.Context, tenantID id.TenantID, fingerprint string, limit int) ([]*models.Visitor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tenants[tenantID]
	if !ok {
		return nil, nil
	}
	var out []*models.Visitor
	for _, visitorID := range t.byFingerprint[fingerprint] {
		if v := t.byID[visitorID]; v.IsResolved() {
			out = append(out, v.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *models.Visitor) int {
		return b.LastSeenAt.Compare(a.LastSeenAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Commit applies c atomically. Stale versions and taken cookies return
// sentinel.ErrConflict; a recorded source event returns
// sentinel.ErrAlreadyUsed. Nothing is written on error.
func (s *InMemoryStore) Commit(ctx context.Context, c models.Commit) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "commit aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	shard := &s.shards[shardFor(c.Entry.TenantID)]
	shard.Lock()
	defer shard.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "commit aborted: context cancelled")
	}
	if c.Visitor != nil {
		if err := s.checkWrite(c); err != nil {
			return err
		}
	}
	if err := s.provenance.Append(ctx, c.Entry); err != nil {
		return err
	}
	if c.Visitor != nil {
		s.write(c.Visitor.Clone(), c.Create)
	}
	return nil
}

func (s *InMemoryStore) checkWrite(c models.Commit) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := c.Visitor
	t := s.tenants[v.TenantID]
	var stored *models.Visitor
	if t != nil {
		stored = t.byID[v.ID]
	}

	if c.Create {
		if stored != nil {
			return sentinel.ErrConflict
		}
		if t != nil && v.CookieID != "" {
			if _, taken := t.byCookie[v.CookieID]; taken {
				return sentinel.ErrConflict
			}
		}
		return nil
	}
	if stored == nil || stored.ResolutionVersion != c.ExpectedVersion {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *InMemoryStore) write(v *models.Visitor, create bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.tenant(v.TenantID)
	t.byID[v.ID] = v
	if !create {
		return
	}
	if v.CookieID != "" {
		t.byCookie[v.CookieID] = v.ID
	}
	if v.Fingerprint != "" {
		t.byFingerprint[v.Fingerprint] = append(t.byFingerprint[v.Fingerprint], v.ID)
	}
}

// shardFor hashes the tenant with FNV-1a.
func shardFor(tenantID id.TenantID) int {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for _, b := range tenantID {
		h ^= uint32(b)
		h *= fnvPrime
	}
	return int(h % numCommitShards)
}

package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
)

const (
	companyDomainKeyPrefix = "idgraph:dir:company:"
	cacheName              = "company_domain"

	// negativeMarker caches "no company for this domain" for a shorter TTL.
	negativeMarker = "-"
)

// Store is the directory surface the cache decorates.
type Store interface {
	PersonByEmail(ctx context.Context, tenantID id.TenantID, email string) (*models.Person, error)
	CompanyByDomain(ctx context.Context, tenantID id.TenantID, domain string) (*models.Company, error)
	PersonsByIDs(ctx context.Context, tenantID id.TenantID, ids []id.PersonID) ([]*models.Person, error)
	CompaniesByIDs(ctx context.Context, tenantID id.TenantID, ids []id.CompanyID) ([]*models.Company, error)
}

// CacheRecorder receives cache hit/miss/error counts.
type CacheRecorder interface {
	IncrementCache(cache, result string)
}

// CachedStore decorates a Store with a Redis read-through cache for
// company-by-domain lookups, the hottest directory query. Redis failures
// degrade to the underlying store.
type CachedStore struct {
	Store
	client      *redis.Client
	ttl         time.Duration
	negativeTTL time.Duration
	logger      *slog.Logger
	metrics     CacheRecorder
}

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

func WithCacheLogger(logger *slog.Logger) CacheOption {
	return func(c *CachedStore) {
		c.logger = logger
	}
}

func WithCacheMetrics(m CacheRecorder) CacheOption {
	return func(c *CachedStore) {
		c.metrics = m
	}
}

// WithNegativeTTL sets how long a missing domain is remembered.
func WithNegativeTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		c.negativeTTL = ttl
	}
}

// NewCachedStore wraps store. A nil client returns a CachedStore that always
// reads through.
func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		Store:       store,
		client:      client,
		ttl:         ttl,
		negativeTTL: ttl / 10,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func companyKey(tenantID id.TenantID, domain string) string {
	return companyDomainKeyPrefix + tenantID.String() + ":" + strings.ToLower(domain)
}

func (c *CachedStore) CompanyByDomain(ctx context.Context, tenantID id.TenantID, domain string) (*models.Company, error) {
	if c.client == nil {
		return c.Store.CompanyByDomain(ctx, tenantID, domain)
	}

	key := companyKey(tenantID, domain)
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.record("hit")
		if string(raw) == negativeMarker {
			return nil, sentinel.ErrNotFound
		}
		var company models.Company
		if jerr := json.Unmarshal(raw, &company); jerr == nil && company.TenantID == tenantID {
			return &company, nil
		}
		// Corrupt or foreign entry: drop it and read through.
		_ = c.client.Del(ctx, key).Err()
	case errors.Is(err, redis.Nil):
		c.record("miss")
	default:
		c.record("error")
		c.logger.WarnContext(ctx, "directory cache read failed",
			"tenant_id", tenantID.String(),
			"error", err,
		)
	}

	company, err := c.Store.CompanyByDomain(ctx, tenantID, domain)
	if errors.Is(err, sentinel.ErrNotFound) {
		c.put(ctx, key, []byte(negativeMarker), c.negativeTTL)
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	if payload, jerr := json.Marshal(company); jerr == nil {
		c.put(ctx, key, payload, c.ttl)
	}
	return company, nil
}

// Invalidate drops a cached domain, used when reference data changes upstream.
func (c *CachedStore) Invalidate(ctx context.Context, tenantID id.TenantID, domain string) error {
	if c.client == nil {
		return nil
	}
	return c.client.Del(ctx, companyKey(tenantID, domain)).Err()
}

func (c *CachedStore) put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "directory cache write failed", "error", err)
	}
}

func (c *CachedStore) record(result string) {
	if c.metrics != nil {
		c.metrics.IncrementCache(cacheName, result)
	}
}

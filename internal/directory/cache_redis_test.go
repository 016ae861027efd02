package directory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	"idgraph/pkg/platform/sentinel"
)

type countingRecorder struct {
	results map[string]int
}

func (r *countingRecorder) IncrementCache(_, result string) {
	r.results[result]++
}

func TestCachedStore_NilClientReadsThrough(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())
	inner.SeedCompany(models.Company{ID: id.CompanyID(uuid.New()), TenantID: tenant, Domain: "acme.com"})

	c := NewCachedStore(inner, nil, time.Minute)
	got, err := c.CompanyByDomain(ctx, tenant, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", got.Domain)
	assert.NoError(t, c.Invalidate(ctx, tenant, "acme.com"))
}

func TestCachedStore_RedisDownDegradesToStore(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())
	inner.SeedCompany(models.Company{ID: id.CompanyID(uuid.New()), TenantID: tenant, Domain: "acme.com"})

	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	rec := &countingRecorder{results: map[string]int{}}
	c := NewCachedStore(inner, client, time.Minute, WithCacheMetrics(rec))

	got, err := c.CompanyByDomain(ctx, tenant, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "acme.com", got.Domain)
	assert.Equal(t, 1, rec.results["error"])

	_, err = c.CompanyByDomain(ctx, tenant, "unknown.com")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestCachedStore_PassesThroughOtherLookups(t *testing.T) {
	ctx := context.Background()
	inner := NewInMemoryStore()
	tenant := id.TenantID(uuid.New())
	inner.SeedPerson(models.Person{ID: id.PersonID(uuid.New()), TenantID: tenant, Email: "a@acme.com"})

	c := NewCachedStore(inner, nil, time.Minute)
	p, err := c.PersonByEmail(ctx, tenant, "a@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "a@acme.com", p.Email)
}

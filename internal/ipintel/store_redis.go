package ipintel

import (
	"context"
	"errors"
	"fmt"
	"net/netip"

	"github.com/redis/go-redis/v9"

	"idgraph/pkg/platform/sentinel"
)

// defaultHashKey holds every entry as field = address or prefix, value = domain.
const defaultHashKey = "idgraph:ipintel"

// RedisStore reads intel from a single Redis hash. Lookups are limited to the
// exact address and its /24 or /48 network so each query costs one HMGET.
type RedisStore struct {
	client  *redis.Client
	hashKey string
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithHashKey overrides the hash that holds the entries.
func WithHashKey(key string) RedisOption {
	return func(s *RedisStore) {
		if key != "" {
			s.hashKey = key
		}
	}
}

func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, hashKey: defaultHashKey}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Put stores a mapping. Only exact addresses and /24 or /48 prefixes are
// reachable by LookupDomain.
func (s *RedisStore) Put(ctx context.Context, key, domain string) error {
	prefix, normalized, err := ParseEntry(key, domain)
	if err != nil {
		return err
	}
	if err := s.client.HSet(ctx, s.hashKey, prefixKey(prefix), normalized).Err(); err != nil {
		return fmt.Errorf("store ip intel entry: %w", err)
	}
	return nil
}

func (s *RedisStore) LookupDomain(ctx context.Context, ip netip.Addr) (string, error) {
	if !ip.IsValid() {
		return "", sentinel.ErrNotFound
	}
	prefixes := lookupPrefixes(ip)
	fields := make([]string, len(prefixes))
	for i, p := range prefixes {
		fields[i] = prefixKey(p)
	}

	values, err := s.client.HMGet(ctx, s.hashKey, fields...).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup ip intel: %w", err)
	}
	for _, v := range values {
		if domain, ok := v.(string); ok && domain != "" {
			return domain, nil
		}
	}
	return "", sentinel.ErrNotFound
}

package ipintel

import (
	"context"
	"net/netip"
	"sync"

	"idgraph/pkg/platform/sentinel"
)

// InMemoryStore keeps intel entries in a map and performs a longest-prefix
// match over every stored prefix length.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[netip.Prefix]string
	lengths map[int]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[netip.Prefix]string),
		lengths: make(map[int]struct{}),
	}
}

// Put stores a mapping. key is an IP address or CIDR prefix.
func (s *InMemoryStore) Put(_ context.Context, key, domain string) error {
	prefix, normalized, err := ParseEntry(key, domain)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[prefix] = normalized
	s.lengths[prefix.Bits()] = struct{}{}
	return nil
}

func (s *InMemoryStore) LookupDomain(_ context.Context, ip netip.Addr) (string, error) {
	if !ip.IsValid() {
		return "", sentinel.ErrNotFound
	}
	ip = ip.Unmap()

	s.mu.RLock()
	defer s.mu.RUnlock()

	best, bestBits := "", -1
	for bits := range s.lengths {
		if bits > ip.BitLen() || bits <= bestBits {
			continue
		}
		p, err := ip.Prefix(bits)
		if err != nil {
			continue
		}
		if domain, ok := s.entries[p]; ok {
			best, bestBits = domain, bits
		}
	}
	if bestBits < 0 {
		return "", sentinel.ErrNotFound
	}
	return best, nil
}

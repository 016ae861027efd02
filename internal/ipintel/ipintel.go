// Package ipintel maps public IP addresses to company domains.
//
// Entries are keyed either by an exact address or by a network prefix. A
// lookup prefers the exact address and then the most specific prefix. The
// data is global reference data; tenant scoping happens when the matcher
// resolves the returned domain against the tenant's directory.
package ipintel

import (
	"fmt"
	"net/netip"
	"strings"

	"idgraph/internal/resolution/signals"
	dErrors "idgraph/pkg/domain-errors"
)

// ParseEntry validates an intel record. key is an IP address or a CIDR
// prefix; domain is normalised to its registrable form.
func ParseEntry(key, domain string) (netip.Prefix, string, error) {
	key = strings.TrimSpace(key)
	var prefix netip.Prefix
	if strings.Contains(key, "/") {
		p, err := netip.ParsePrefix(key)
		if err != nil {
			return netip.Prefix{}, "", dErrors.New(dErrors.CodeInvalidInput, "invalid prefix "+key)
		}
		prefix = p.Masked()
	} else {
		addr, err := netip.ParseAddr(key)
		if err != nil {
			return netip.Prefix{}, "", dErrors.New(dErrors.CodeInvalidInput, "invalid address "+key)
		}
		addr = addr.Unmap()
		prefix = netip.PrefixFrom(addr, addr.BitLen())
	}

	normalized := signals.NormalizeDomain(domain)
	if normalized == "" {
		return netip.Prefix{}, "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("invalid domain %q", domain))
	}
	return prefix, normalized, nil
}

// lookupPrefixes lists the keys consulted for ip, most specific first:
// the address itself, then its /24 (IPv4) or /48 (IPv6) network.
func lookupPrefixes(ip netip.Addr) []netip.Prefix {
	ip = ip.Unmap()
	host := netip.PrefixFrom(ip, ip.BitLen())
	bits := 24
	if ip.Is6() {
		bits = 48
	}
	network, err := ip.Prefix(bits)
	if err != nil {
		return []netip.Prefix{host}
	}
	return []netip.Prefix{host, network}
}

func prefixKey(p netip.Prefix) string {
	if p.IsSingleIP() {
		return p.Addr().String()
	}
	return p.String()
}

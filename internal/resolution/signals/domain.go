package signals

import (
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// freeMailDomains never identify a company.
var freeMailDomains = map[string]struct{}{
	"gmail.com":      {},
	"googlemail.com": {},
	"yahoo.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"live.com":       {},
	"msn.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"aol.com":        {},
	"proton.me":      {},
	"protonmail.com": {},
	"gmx.com":        {},
	"gmx.de":         {},
	"yandex.ru":      {},
	"mail.com":       {},
	"zoho.com":       {},
}

// IsFreeMail reports whether a registrable domain belongs to a consumer
// mailbox provider.
func IsFreeMail(domain string) bool {
	_, ok := freeMailDomains[strings.ToLower(domain)]
	return ok
}

// NormalizeDomain reduces a host, URL or bare domain to its registrable
// domain (eTLD+1), lower-cased. It returns "" when no registrable domain
// can be derived.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	if d == "" {
		return ""
	}
	if strings.Contains(d, "://") {
		u, err := url.Parse(d)
		if err != nil {
			return ""
		}
		d = u.Hostname()
	} else {
		if i := strings.IndexAny(d, "/?#"); i >= 0 {
			d = d[:i]
		}
		if i := strings.LastIndexByte(d, ':'); i >= 0 {
			d = d[:i]
		}
	}
	d = strings.TrimSuffix(d, ".")
	if _, err := netip.ParseAddr(d); err == nil {
		return ""
	}
	if d == "" || strings.ContainsAny(d, " @\t") || !strings.Contains(d, ".") {
		return ""
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(d)
	if err != nil {
		return ""
	}
	return etld1
}

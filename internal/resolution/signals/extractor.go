// Package signals turns a raw tracking event into the canonical signal set.
//
// Extraction is a strict parse step: a payload either becomes a typed
// models.Signals or fails with CodeInvalidEvent. Nothing here performs I/O.
package signals

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/netip"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/blake2b"

	"idgraph/internal/resolution/models"
	id "idgraph/pkg/domain"
	dErrors "idgraph/pkg/domain-errors"
	"idgraph/pkg/email"
	pstrings "idgraph/pkg/platform/strings"
)

const (
	maxPayloadBytes   = 64 << 10
	maxCookieIDLen    = 255
	minFingerprintLen = 16
	maxFingerprintLen = 128
	maxComponents     = 64
)

// rawEvent is the accepted wire shape. Unknown fields are ignored; known
// fields must carry the declared JSON types.
type rawEvent struct {
	VisitorID             string     `json:"visitor_id"`
	CookieID              string     `json:"cookie_id"`
	Fingerprint           string     `json:"fingerprint"`
	FingerprintComponents []string   `json:"fingerprint_components"`
	Email                 string     `json:"email"`
	IP                    string     `json:"ip"`
	CompanyDomain         string     `json:"company_domain"`
	UserAgent             string     `json:"user_agent"`
	OccurredAt            *time.Time `json:"occurred_at"`
	Traits                struct {
		Email string `json:"email"`
	} `json:"traits"`
	UTM struct {
		Company string `json:"utm_company"`
	} `json:"utm"`
}

// Extractor parses raw events. The zero value keeps bot traffic and only
// flags it.
type Extractor struct {
	DropBots bool
}

// Extract parses raw with a default Extractor.
func Extract(tenantID id.TenantID, raw []byte) (models.Signals, error) {
	return Extractor{}.Extract(tenantID, raw)
}

// Extract validates raw into a Signals value. It fails with CodeInvalidEvent
// when the payload is malformed, a present field is invalid, or the event
// carries no cookie, fingerprint or identity field.
func (e Extractor) Extract(tenantID id.TenantID, raw []byte) (models.Signals, error) {
	var sig models.Signals
	if tenantID.IsNil() {
		return sig, dErrors.New(dErrors.CodeInvalidEvent, "tenant id is required")
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return sig, dErrors.New(dErrors.CodeInvalidEvent, "event payload is empty")
	}
	if len(raw) > maxPayloadBytes {
		return sig, dErrors.New(dErrors.CodeInvalidEvent, "event payload too large")
	}
	if raw[0] != '{' {
		return sig, dErrors.New(dErrors.CodeInvalidEvent, "event payload must be a JSON object")
	}

	var ev rawEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return sig, dErrors.Wrap(err, dErrors.CodeInvalidEvent, "malformed event payload")
	}

	if v := strings.TrimSpace(ev.VisitorID); v != "" {
		vid, err := id.ParseVisitorID(v)
		if err != nil {
			return sig, dErrors.Wrap(err, dErrors.CodeInvalidEvent, "invalid visitor_id")
		}
		sig.VisitorID = &vid
	}

	cookie, err := parseCookieID(ev.CookieID)
	if err != nil {
		return sig, err
	}
	sig.CookieID = cookie

	sig.UserAgent = strings.TrimSpace(ev.UserAgent)
	var ua *useragent.UserAgent
	if sig.UserAgent != "" {
		ua = useragent.New(sig.UserAgent)
		sig.Bot = ua.Bot()
	}
	if sig.Bot && e.DropBots {
		return models.Signals{}, dErrors.New(dErrors.CodeInvalidEvent, "bot traffic")
	}

	fp, err := parseFingerprint(ev.Fingerprint, ev.FingerprintComponents, ua)
	if err != nil {
		return sig, err
	}
	sig.Fingerprint = fp

	rawEmail := strings.TrimSpace(ev.Email)
	if rawEmail == "" {
		rawEmail = strings.TrimSpace(ev.Traits.Email)
	}
	if rawEmail != "" {
		addr, domain, err := parseEmail(rawEmail)
		if err != nil {
			return sig, err
		}
		sig.Email = addr
		if !IsFreeMail(domain) {
			sig.EmailDomain = domain
		}
	}

	if v := strings.TrimSpace(ev.IP); v != "" {
		addr, err := netip.ParseAddr(v)
		if err != nil {
			return sig, dErrors.Wrap(err, dErrors.CodeInvalidEvent, "invalid ip")
		}
		addr = addr.Unmap()
		if isPublic(addr) {
			sig.IP = addr
		}
	}

	for _, hint := range []string{ev.CompanyDomain, ev.UTM.Company} {
		if d := NormalizeDomain(hint); d != "" && !IsFreeMail(d) {
			sig.DomainHint = d
			break
		}
	}

	if ev.OccurredAt != nil {
		sig.OccurredAt = ev.OccurredAt.UTC()
	}

	if !sig.HasAnchor() && !sig.HasIdentity() {
		return models.Signals{}, dErrors.New(dErrors.CodeInvalidEvent, "event carries no extractable signal")
	}
	return sig, nil
}

func parseCookieID(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", nil
	}
	if len(v) > maxCookieIDLen {
		return "", dErrors.New(dErrors.CodeInvalidEvent, "cookie_id too long")
	}
	for _, r := range v {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidEvent, "cookie_id contains invalid characters")
		}
	}
	return v, nil
}

func parseEmail(raw string) (addr string, domain string, err error) {
	if len(raw) > email.MaxLen {
		return "", "", dErrors.New(dErrors.CodeInvalidEvent, "email too long")
	}
	addr, nerr := email.Normalize(raw)
	if nerr != nil {
		return "", "", dErrors.New(dErrors.CodeInvalidEvent, "invalid email")
	}
	_, host, _ := email.Split(addr)
	domain = NormalizeDomain(host)
	if domain == "" {
		return "", "", dErrors.New(dErrors.CodeInvalidEvent, "invalid email domain")
	}
	return addr, domain, nil
}

// parseFingerprint accepts an explicit hex hash or derives one from the
// device components and the user agent family.
func parseFingerprint(explicit string, components []string, ua *useragent.UserAgent) (string, error) {
	if v := strings.ToLower(strings.TrimSpace(explicit)); v != "" {
		if len(v) < minFingerprintLen || len(v) > maxFingerprintLen {
			return "", dErrors.New(dErrors.CodeInvalidEvent, "fingerprint has invalid length")
		}
		if _, err := hex.DecodeString(v); err != nil || len(v)%2 != 0 {
			return "", dErrors.New(dErrors.CodeInvalidEvent, "fingerprint must be hex encoded")
		}
		return v, nil
	}
	if len(components) > maxComponents {
		return "", dErrors.New(dErrors.CodeInvalidEvent, "too many fingerprint components")
	}
	canonical := pstrings.DedupeAndTrimLower(components)
	if len(canonical) == 0 {
		return "", nil
	}
	slices.Sort(canonical)
	if ua != nil {
		browser, _ := ua.Browser()
		canonical = append(canonical, "ua:"+strings.ToLower(browser)+"/"+strings.ToLower(ua.OS()))
	}
	sum := blake2b.Sum256([]byte(strings.Join(canonical, "\n")))
	return hex.EncodeToString(sum[:]), nil
}

func isPublic(addr netip.Addr) bool {
	return addr.IsValid() &&
		!addr.IsPrivate() &&
		!addr.IsLoopback() &&
		!addr.IsUnspecified() &&
		!addr.IsLinkLocalUnicast() &&
		!addr.IsLinkLocalMulticast() &&
		!addr.IsMulticast()
}

package signals

import (
	"testing"

	dErrors "idgraph/pkg/domain-errors"
)

func FuzzExtract(f *testing.F) {
	f.Add([]byte(`{"cookie_id":"c1","email":"ada@acme.com","ip":"203.0.113.7"}`))
	f.Add([]byte(`{"fingerprint_components":["a","b"]}`))
	f.Add([]byte(`{"utm":{"utm_company":"https://globex.com"}}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`nul`))

	f.Fuzz(func(t *testing.T, raw []byte) {
		sig, err := Extract(tenant, raw)
		if err != nil {
			if !dErrors.HasCode(err, dErrors.CodeInvalidEvent) {
				t.Fatalf("unexpected error code: %v", err)
			}
			return
		}
		if !sig.HasAnchor() && !sig.HasIdentity() {
			t.Fatalf("accepted event without signals: %q", raw)
		}
		if sig.IP.IsValid() && !isPublic(sig.IP) {
			t.Fatalf("kept non-public ip %s", sig.IP)
		}
		if sig.EmailDomain != "" && IsFreeMail(sig.EmailDomain) {
			t.Fatalf("free-mail domain leaked into company hint")
		}
	})
}

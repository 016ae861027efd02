package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementDecision("accepted", "email_exact")
		m.ObserveResolve(time.Now())
		m.ObserveLookup("email", time.Now())
		m.IncrementConflict()
		m.IncrementDuplicate()
		m.IncrementCache("company_domain", "hit")
		m.AddOutbox("published", 3)
	})
}

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementDecision("accepted", "email_exact")
	m.IncrementDecision("accepted", "email_exact")
	m.IncrementConflict()
	m.AddOutbox("published", 3)
	m.AddOutbox("failed", 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("accepted", "email_exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Conflicts))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.OutboxRecords.WithLabelValues("published")))
}

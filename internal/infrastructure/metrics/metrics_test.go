package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.InvoiceCreated()
	m.InvoiceCreated()
	m.LineItemMutated("add")
	m.LineItemMutated("add")
	m.LineItemMutated("remove")
	m.TotalsRecomputed()
	m.SequenceRetried("MFES")
	m.SequenceFailed("MFES", "unavailable")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invoicesCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.itemMutations.WithLabelValues("add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.itemMutations.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.totalsRecomputed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sequenceRetries.WithLabelValues("MFES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sequenceFailures.WithLabelValues("MFES", "unavailable")))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRequest("GET", "/api/v1/invoices/:id", 200, 15*time.Millisecond)
	m.ObserveRequest("GET", "", 404, time.Millisecond)

	assert.Equal(t, 2, testutil.CollectAndCount(m.httpRequestLength))

	families, err := reg.Gather()
	require.NoError(t, err)
	var found bool
	for _, f := range families {
		if f.GetName() == "autobill_http_request_duration_seconds" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}

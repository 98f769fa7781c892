package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_DefaultNamespace(t *testing.T) {
	c := NewCollector("")
	require.NotNil(t, c.Registry())

	c.ObserveLedgerEntries(1)
	families, err := c.Registry().Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if f.GetName() == "pointecon_ledger_entries_appended_total" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCollector_Operations(t *testing.T) {
	c := NewCollector("test")

	c.ObserveOperation("accept_transfer", "ok", 2*time.Millisecond)
	c.ObserveOperation("accept_transfer", "INVALID_STATE", time.Millisecond)
	c.ObserveOperation("accept_transfer", "INVALID_STATE", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("accept_transfer", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.operations.WithLabelValues("accept_transfer", "INVALID_STATE")))
}

func TestCollector_LedgerAndCache(t *testing.T) {
	c := NewCollector("test")

	c.ObserveLedgerEntries(2)
	c.ObserveLedgerEntries(1)
	c.ObserveCacheLookup(true)
	c.ObserveCacheLookup(false)
	c.ObserveCacheLookup(false)

	assert.Equal(t, 3.0, testutil.ToFloat64(c.ledgerEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector("test")
	c.ObserveOperation("record_activity", "ok", time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `test_engine_operations_total{op="record_activity",outcome="ok"} 1`))
}

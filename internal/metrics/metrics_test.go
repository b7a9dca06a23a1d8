package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	assert.NotPanics(t, Init, "double registration must not panic")
	require.NotNil(t, cacheLookupsTotal)
	require.NotNil(t, fetchesTotal)
	require.NotNil(t, upsertsTotal)
}

func TestObserveCacheLookup(t *testing.T) {
	Init()
	before := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	ObserveCacheLookup("hit")
	after := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	assert.Equal(t, before+1, after)
}

func TestObserveFetch(t *testing.T) {
	Init()
	before := testutil.ToFloat64(fetchesTotal.WithLabelValues("ok"))
	ObserveFetch("ok", 250*time.Millisecond)
	after := testutil.ToFloat64(fetchesTotal.WithLabelValues("ok"))
	assert.Equal(t, before+1, after)
}

func TestObserveUpsertAndStorageError(t *testing.T) {
	Init()
	upsertsBefore := testutil.ToFloat64(upsertsTotal)
	errorsBefore := testutil.ToFloat64(storageErrorsTotal)
	ObserveUpsert()
	ObserveStorageError()
	assert.Equal(t, upsertsBefore+1, testutil.ToFloat64(upsertsTotal))
	assert.Equal(t, errorsBefore+1, testutil.ToFloat64(storageErrorsTotal))
}

func TestObserveHTTPRequest(t *testing.T) {
	Init()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	ObserveHTTPRequest("GET", "/v1/profiles", 200, 10*time.Millisecond)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "200"))
	assert.Equal(t, before+1, after)
}

func TestHandlerServesMetrics(t *testing.T) {
	Init()
	ObserveCacheLookup("miss")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "profilevault_cache_lookups_total")
}

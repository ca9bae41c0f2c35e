package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAuthEvent(t *testing.T) {
	before := testutil.ToFloat64(AuthEvents.WithLabelValues(EventLogin, OutcomeBadPassword))
	RecordAuthEvent(EventLogin, OutcomeBadPassword)
	after := testutil.ToFloat64(AuthEvents.WithLabelValues(EventLogin, OutcomeBadPassword))
	assert.Equal(t, before+1, after)
}

func TestRecordRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequests.WithLabelValues("POST", "302"))
	RecordRequest("POST", http.StatusFound, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequests.WithLabelValues("POST", "302")))
}

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	RecordRateLimited("/login")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `authgate_rate_limited_total{path="/login"}`)
	assert.Contains(t, string(body), "go_goroutines")
}

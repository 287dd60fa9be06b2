package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeOK, Outcome(nil))
	assert.Equal(t, OutcomeError, Outcome(errors.New("boom")))
}

func TestDocumentOpsCounter(t *testing.T) {
	before := testutil.ToFloat64(DocumentOps.WithLabelValues("create", OutcomeOK))
	DocumentOps.WithLabelValues("create", OutcomeOK).Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(DocumentOps.WithLabelValues("create", OutcomeOK)))
}

func TestHandlerExposesCollectors(t *testing.T) {
	HTTPRequests.WithLabelValues("GET", "/:id", "200").Inc()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, strings.Contains(string(body), "jsonbin_http_requests_total"))
}

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

func TestTransitions(t *testing.T) {
	m := New()

	m.UnitTransition("built", "revision")
	m.UnitTransition("built", "revision")
	m.UnitTransition("revision", "built")
	m.ProtocolTransition("", "first_stage_passed")
	m.StagesReworked(3)
	m.StagesReworked(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.unitTransitions.WithLabelValues("built", "revision")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.unitTransitions.WithLabelValues("revision", "built")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.protocolTransitions.WithLabelValues("", "first_stage_passed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stagesReworked))
}

func TestObserveRequest(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/v1/passports/{internal_id}", http.StatusOK, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/passports/{internal_id}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestDuration))
}

func TestHandler(t *testing.T) {
	m := New()
	m.UnitTransition("production", "built")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `feecc_unit_status_transitions_total{from="production",to="built"} 1`), body)
	assert.Contains(t, body, "go_goroutines")
}

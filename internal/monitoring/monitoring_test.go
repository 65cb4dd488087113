package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordEventAndRequest(t *testing.T) {
	require := require.New(t)
	s := NewService(Config{})

	s.RecordEvent("reading.deleted", map[string]string{"reading_id": "r1"})
	s.RecordEvent("reading.deleted", map[string]string{"reading_id": "r2"})
	s.RecordRequest("reading.insert", "ok", 10*time.Millisecond)

	n, err := s.EventCount("reading.deleted")
	require.NoError(err)
	assert.Equal(t, 2.0, n)

	n, err = s.RequestCount("reading.insert", "ok")
	require.NoError(err)
	assert.Equal(t, 1.0, n)

	n, err = s.EventCount("users.purged")
	require.NoError(err)
	assert.Zero(t, n)
}

func TestHandlerExposesCounters(t *testing.T) {
	s := NewService(Config{Namespace: "wx"})
	s.RecordRequest("analysis.temperature_range", "forbidden", time.Millisecond)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `wx_requests_total{operation="analysis.temperature_range",outcome="forbidden"} 1`)
}

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spm.report/internal/monitoring"
)

func TestLoggingMiddleware(t *testing.T) {
	var logged monitoring.Capture
	t.Cleanup(monitoring.SetLogger(logged.Logf))

	h := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("tea"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reports/x?order=duration", nil))

	require.Len(t, logged.Lines(), 1)
	line := logged.Lines()[0]
	assert.Contains(t, line, statusCodeColor(http.StatusTeapot))
	assert.Contains(t, line, "GET")
	assert.Contains(t, line, "/api/reports/x?order=duration")
	assert.Contains(t, line, "3B")
}

func TestStatusCodeColor(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, colorBoldGreen + "200" + colorReset},
		{302, colorYellow + "302" + colorReset},
		{404, colorBoldRed + "404" + colorReset},
		{500, colorBoldRed + "500" + colorReset},
		{101, "101"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusCodeColor(tt.code))
	}
}

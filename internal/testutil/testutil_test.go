package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssertStatusCode(t *testing.T) {
	AssertStatusCode(t, http.StatusOK, http.StatusOK)
}

func TestNewUploadRequest(t *testing.T) {
	req := NewUploadRequest(t, http.MethodPost, "/api/analyze", Upload{
		Files:  map[string]string{"telemetry": "Logging Time,Speed\n"},
		Fields: map[string]string{"mps": "110", "loco_number": "30201"},
	})

	require.NoError(t, req.ParseMultipartForm(1<<20))
	assert.Equal(t, "110", req.FormValue("mps"))
	assert.Equal(t, "30201", req.FormValue("loco_number"))

	f, hdr, err := req.FormFile("telemetry")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "telemetry.csv", hdr.Filename)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "Logging Time,Speed\n", string(data))
}

func TestDecodeJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	rec.WriteString(`{"id":"abc","violations":1}`)

	got := DecodeJSON[map[string]any](t, rec)
	assert.Equal(t, "abc", got["id"])
	assert.Equal(t, 1.0, got["violations"])
}

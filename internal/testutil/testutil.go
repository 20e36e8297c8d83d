// Package testutil provides helpers for exercising the HTTP API in tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

// AssertStatusCode checks that the response status code matches expected.
func AssertStatusCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d, want %d", got, want)
	}
}

// Upload describes a multipart form: file parts keyed by field name and
// plain text fields.
type Upload struct {
	Files  map[string]string // field -> file content
	Fields map[string]string
}

// NewUploadRequest builds a multipart/form-data request carrying u.
// Parts are written in sorted field order so bodies are reproducible.
func NewUploadRequest(t *testing.T, method, target string, u Upload) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	for _, name := range sortedKeys(u.Fields) {
		if err := mw.WriteField(name, u.Fields[name]); err != nil {
			t.Fatalf("write field %s: %v", name, err)
		}
	}
	for _, name := range sortedKeys(u.Files) {
		fw, err := mw.CreateFormFile(name, name+".csv")
		if err != nil {
			t.Fatalf("create file part %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(u.Files[name])); err != nil {
			t.Fatalf("write file part %s: %v", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// DecodeJSON decodes the recorder body into a T, failing the test on error.
func DecodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

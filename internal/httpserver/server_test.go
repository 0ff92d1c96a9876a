package httpserver

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeVerb(t *testing.T) {
	assert.Equal(t, "m_search", NormalizeVerb("M-SEARCH"))
	assert.Equal(t, "get", NormalizeVerb("GET"))
	assert.Equal(t, "subscribe", NormalizeVerb("SUBSCRIBE"))
}

func TestVerbRouterFallback(t *testing.T) {
	router := NewVerbRouter()
	router.Handle("GET", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)

	router.Fallback = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("PUT", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServeFileFullAndRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	data := make([]byte, 1000)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/media/a.bin", nil)
	require.NoError(t, ServeFile(rec, req, path, "application/octet-stream"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, data, body)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/media/a.bin", nil)
	req.Header.Set("Range", "bytes=10-19")
	require.NoError(t, ServeFile(rec, req, path, "application/octet-stream"))
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 10-19/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	body, _ = io.ReadAll(rec.Body)
	assert.Equal(t, data[10:20], body)
}

func TestServeFileUnsatisfiableRange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 1000), 0o644))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/media/a.bin", nil)
	req.Header.Set("Range", "bytes=2000-3000")
	require.NoError(t, ServeFile(rec, req, path, "application/octet-stream"))
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
}

func TestParseRangeMissingHeaderIsFullFile(t *testing.T) {
	r := ParseRange("", 1000)
	assert.False(t, r.Present)
	assert.EqualValues(t, 0, r.Start)
	assert.EqualValues(t, 999, r.End)
	assert.EqualValues(t, 1000, r.Len())
}

package ui

import (
	"io/fs"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistFS_HasAssets(t *testing.T) {
	sub, err := DistFS()
	require.NoError(t, err)
	for _, name := range []string{"index.html", "app.js", "app.css", "favicon.svg"} {
		_, err := fs.Stat(sub, name)
		assert.NoError(t, err, name)
	}
}

func TestHandler(t *testing.T) {
	h, err := Handler()
	require.NoError(t, err)

	tests := []struct {
		path     string
		code     int
		contains string
	}{
		{"/", http.StatusOK, "<title>cro</title>"},
		{"/app.js", http.StatusOK, "loadRuns"},
		{"/runs/01HXYZ", http.StatusOK, "<title>cro</title>"},
		{"/missing.css", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

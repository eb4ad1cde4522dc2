package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEmbeddedFile(t *testing.T) {
	for _, name := range []string{"dashboard.js", "dashboard.css"} {
		f, err := GetEmbeddedFile(name)
		require.NoError(t, err, name)
		data, err := io.ReadAll(f)
		f.Close()
		require.NoError(t, err)
		assert.NotEmpty(t, data, name)
	}
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	tests := []struct {
		path     string
		status   int
		contains string
	}{
		{"/static/dashboard.js", http.StatusOK, "/fragment"},
		{"/static/dashboard.css", http.StatusOK, "#rop-chart"},
		{"/static/missing.js", http.StatusNotFound, ""},
		{"/static/", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

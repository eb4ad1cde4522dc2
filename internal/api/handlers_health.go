// handlers_health.go - Health check handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version string
	state   StateSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, state StateSource) HealthHandler {
	return &HealthHandlerImpl{
		version: version,
		state:   state,
	}
}

// HandleHealth returns server health status. The dashboard stays up when
// the feed drops, so feed state is reported but never fails the check.
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.state != nil {
		st := h.state.Snapshot().Status
		resp["feed"] = st.Connection
		resp["historyToken"] = st.LastFetchToken
	}
	return c.JSON(http.StatusOK, resp)
}

// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/ttracx/deepboreai/internal/models"
)

// DashboardHandler serves the rendered dashboard
type DashboardHandler interface {
	HandleIndex(c echo.Context) error
	HandleFragment(c echo.Context) error
	HandleChartSVG(c echo.Context) error
	HandleChartPNG(c echo.Context) error
	HandleExport(c echo.Context) error
}

// StateHandler exposes the raw dashboard state
type StateHandler interface {
	HandleGetState(c echo.Context) error
	HandleGetStateMsgpack(c echo.Context) error
	HandleRefresh(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// StateSource provides snapshots of the dashboard state.
// This allows mocking in tests
type StateSource interface {
	Snapshot() models.Snapshot
}

// Notifier signals every state change
type Notifier interface {
	StateSource
	Subscribe() (<-chan struct{}, func())
}

// Refresher triggers an out-of-band history fetch
type Refresher interface {
	Refresh(ctx context.Context) error
}

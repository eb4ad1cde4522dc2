// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/ttracx/deepboreai/internal/render"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	State     Notifier
	Refresher Refresher
	ExportURL string
	ChartSize render.ChartSize
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Dashboard DashboardStateHandler
	WebSocket *WebSocketHandler
}

// DashboardStateHandler serves both the page and the state API
type DashboardStateHandler interface {
	DashboardHandler
	StateHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.State),
		Dashboard: NewHandler(deps.State, deps.Refresher, deps.ExportURL, deps.ChartSize),
		WebSocket: NewWebSocketHandler(deps.State),
	}
}

// RegisterRoutes registers all dashboard routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Page
	e.GET("/", handlers.Dashboard.HandleIndex)
	e.GET("/fragment", handlers.Dashboard.HandleFragment)
	e.GET(render.ChartPath, handlers.Dashboard.HandleChartSVG)
	e.GET("/chart.png", handlers.Dashboard.HandleChartPNG)
	e.GET(render.ExportPath, handlers.Dashboard.HandleExport)

	// Browser push channel
	e.GET("/ws", handlers.WebSocket.HandleWebSocket)

	// JSON API
	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.GET("/state", handlers.Dashboard.HandleGetState)
	apiGroup.GET("/state/msgpack", handlers.Dashboard.HandleGetStateMsgpack)
	apiGroup.POST("/refresh", handlers.Dashboard.HandleRefresh)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}

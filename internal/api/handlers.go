package api

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ttracx/deepboreai/internal/render"
	"github.com/vmihailenco/msgpack/v5"
)

// refreshTimeout bounds a manual refresh triggered over the API.
const refreshTimeout = 15 * time.Second

// Handler handles dashboard requests.
type Handler struct {
	state     StateSource
	refresher Refresher
	exportURL string
	chartSize render.ChartSize
}

// NewHandler creates a new dashboard handler.
func NewHandler(state StateSource, refresher Refresher, exportURL string, chartSize render.ChartSize) *Handler {
	return &Handler{
		state:     state,
		refresher: refresher,
		exportURL: exportURL,
		chartSize: chartSize,
	}
}

// HandleIndex renders the full dashboard page.
func (h *Handler) HandleIndex(c echo.Context) error {
	var buf bytes.Buffer
	if err := render.Page(&buf, render.NewPageData(h.state.Snapshot())); err != nil {
		return NewInternalError("failed to render dashboard", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HandleFragment renders only the dashboard body for in-place re-render.
func (h *Handler) HandleFragment(c echo.Context) error {
	var buf bytes.Buffer
	if err := render.Fragment(&buf, render.NewPageData(h.state.Snapshot())); err != nil {
		return NewInternalError("failed to render dashboard", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HandleChartSVG renders the ROP trend as SVG.
func (h *Handler) HandleChartSVG(c echo.Context) error {
	return h.renderChart(c, render.FormatSVG, "image/svg+xml")
}

// HandleChartPNG renders the ROP trend as PNG.
func (h *Handler) HandleChartPNG(c echo.Context) error {
	return h.renderChart(c, render.FormatPNG, "image/png")
}

func (h *Handler) renderChart(c echo.Context, format render.Format, contentType string) error {
	var buf bytes.Buffer
	if err := render.RenderChart(&buf, h.state.Snapshot().History, h.chartSize, format); err != nil {
		return NewInternalError("failed to render chart", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

// HandleExport sends the browser to the upstream CSV export. The CSV is
// produced upstream; nothing here touches dashboard state.
func (h *Handler) HandleExport(c echo.Context) error {
	if h.exportURL == "" {
		return NewServiceUnavailableError("export endpoint not configured")
	}
	return c.Redirect(http.StatusFound, h.exportURL)
}

// HandleGetState returns the current snapshot as JSON.
func (h *Handler) HandleGetState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.state.Snapshot())
}

// HandleGetStateMsgpack returns the current snapshot msgpack-encoded,
// keyed like the JSON form.
func (h *Handler) HandleGetStateMsgpack(c echo.Context) error {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(h.state.Snapshot()); err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", buf.Bytes())
}

// HandleRefresh performs one history fetch and returns the resulting state.
func (h *Handler) HandleRefresh(c echo.Context) error {
	if h.refresher == nil {
		return NewServiceUnavailableError("history refresh not available")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), refreshTimeout)
	defer cancel()

	if err := h.refresher.Refresh(ctx); err != nil {
		return NewBadGatewayError("history fetch failed", err)
	}
	return c.JSON(http.StatusOK, h.state.Snapshot())
}

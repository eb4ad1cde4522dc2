// upstream.go - Fake ingestion service for tests
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/ttracx/deepboreai/internal/models"
)

// HistoryResponse describes how the fake answers one /history request.
type HistoryResponse struct {
	Entries []models.HistoryEntry
	Delay   time.Duration
	Status  int
	Body    string // raw body, overrides Entries when set
}

// HistoryResponder decides the answer for the n-th /history call (1-based).
type HistoryResponder func(call int) HistoryResponse

// FakeUpstream serves /ws, /history and /export like the real ingestion
// service.
type FakeUpstream struct {
	Server *httptest.Server

	upgrader     websocket.Upgrader
	mu           sync.Mutex
	conns        []*websocket.Conn
	connected    chan struct{}
	responder    HistoryResponder
	historyCalls atomic.Int32
	exportCalls  atomic.Int32
}

// NewFakeUpstream starts the fake and registers cleanup on t.
func NewFakeUpstream(t testing.TB) *FakeUpstream {
	t.Helper()

	f := &FakeUpstream{
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		connected: make(chan struct{}, 16),
		responder: func(int) HistoryResponse { return HistoryResponse{} },
	}

	e := echo.New()
	e.HideBanner = true
	e.GET("/ws", f.handleFeed)
	e.GET("/history", f.handleHistory)
	e.GET("/export", f.handleExport)

	f.Server = httptest.NewServer(e)
	t.Cleanup(func() {
		f.CloseFeed()
		f.Server.Close()
	})
	return f
}

// URL is the fake's http:// base URL.
func (f *FakeUpstream) URL() string {
	return f.Server.URL
}

// FeedURL is the fake's ws:// feed URL.
func (f *FakeUpstream) FeedURL() string {
	return "ws" + strings.TrimPrefix(f.Server.URL, "http") + "/ws"
}

// HistoryURL is the fake's /history URL.
func (f *FakeUpstream) HistoryURL() string {
	return f.Server.URL + "/history"
}

// SetHistory makes every /history call return entries.
func (f *FakeUpstream) SetHistory(entries []models.HistoryEntry) {
	f.SetResponder(func(int) HistoryResponse { return HistoryResponse{Entries: entries} })
}

// SetResponder installs a per-call history responder.
func (f *FakeUpstream) SetResponder(r HistoryResponder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responder = r
}

// HistoryCalls returns how many /history requests were received.
func (f *FakeUpstream) HistoryCalls() int {
	return int(f.historyCalls.Load())
}

// ExportCalls returns how many /export requests were received.
func (f *FakeUpstream) ExportCalls() int {
	return int(f.exportCalls.Load())
}

// WaitForFeedClient blocks until a feed client connects.
func (f *FakeUpstream) WaitForFeedClient(t testing.TB) {
	t.Helper()
	select {
	case <-f.connected:
	case <-time.After(5 * time.Second):
		t.Fatal("no feed client connected")
	}
}

// Send marshals v and pushes it to every feed client.
func (f *FakeUpstream) Send(t testing.TB, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal feed message: %v", err)
	}
	f.SendRaw(t, string(data))
}

// SendRaw pushes a text frame to every feed client.
func (f *FakeUpstream) SendRaw(t testing.TB, msg string) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write feed message: %v", err)
		}
	}
}

// CloseFeed closes every feed connection with a normal closure.
func (f *FakeUpstream) CloseFeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conns {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"),
			time.Now().Add(time.Second))
		c.Close()
	}
	f.conns = nil
}

func (f *FakeUpstream) handleFeed(c echo.Context) error {
	ws, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.conns = append(f.conns, ws)
	f.mu.Unlock()
	f.connected <- struct{}{}

	// Drain until the client goes away so control frames are processed.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return nil
		}
	}
}

func (f *FakeUpstream) handleHistory(c echo.Context) error {
	call := int(f.historyCalls.Add(1))

	f.mu.Lock()
	responder := f.responder
	f.mu.Unlock()
	resp := responder(call)

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-c.Request().Context().Done():
			return nil
		}
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	if resp.Body != "" {
		return c.Blob(status, echo.MIMEApplicationJSON, []byte(resp.Body))
	}
	entries := resp.Entries
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return c.JSON(status, entries)
}

func (f *FakeUpstream) handleExport(c echo.Context) error {
	f.exportCalls.Add(1)
	c.Response().Header().Set(echo.HeaderContentDisposition, "attachment; filename=drilling_data.csv")
	return c.Blob(http.StatusOK, "text/csv", []byte("timestamp,bit_depth\n"))
}

// Entry builds a history entry with the given timestamp and ROP.
func Entry(ts string, rop float64) models.HistoryEntry {
	return models.HistoryEntry{Timestamp: ts, BitDepth: 1000, PredictedROP: rop}
}

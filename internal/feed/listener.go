// Package feed holds the single upstream WebSocket connection that delivers
// live drilling readings.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
	"github.com/ttracx/deepboreai/internal/models"
)

const (
	handshakeTimeout = 10 * time.Second
	defaultReadLimit = 64 * 1024
)

// Handler receives everything the listener observes. Calls are made from the
// listener goroutine, one at a time.
type Handler interface {
	OnReading(r models.Reading)
	OnStatus(state models.ConnectionState, err error)
}

// Listener reads live readings from one upstream WebSocket for its lifetime.
// There is no reconnect: once the connection ends, Run returns.
type Listener struct {
	url       string
	dialer    *websocket.Dialer
	header    http.Header
	readLimit int64
	logger    *log.Logger
}

// Option configures a Listener.
type Option func(*Listener)

// WithDialer replaces the default gorilla dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(l *Listener) { l.dialer = d }
}

// WithReadLimit caps the size of a single inbound message in bytes.
func WithReadLimit(n int64) Option {
	return func(l *Listener) {
		if n > 0 {
			l.readLimit = n
		}
	}
}

// WithLogger sets the logger used for skipped messages and disconnects.
func WithLogger(logger *log.Logger) Option {
	return func(l *Listener) { l.logger = logger }
}

// NewListener creates a listener for the given ws:// or wss:// URL.
func NewListener(url string, opts ...Option) *Listener {
	l := &Listener{
		url: url,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		header:    http.Header{},
		readLimit: defaultReadLimit,
		logger:    log.New("feed"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// URL returns the upstream endpoint.
func (l *Listener) URL() string {
	return l.url
}

// Run dials the upstream and delivers readings to h until the connection
// closes or ctx is cancelled. A cancelled ctx returns nil.
func (l *Listener) Run(ctx context.Context, h Handler) error {
	h.OnStatus(models.ConnectionConnecting, nil)

	conn, _, err := l.dialer.DialContext(ctx, l.url, l.header)
	if err != nil {
		err = fmt.Errorf("dialing %s: %w", l.url, err)
		h.OnStatus(models.ConnectionDisconnected, err)
		return err
	}
	conn.SetReadLimit(l.readLimit)
	l.logger.Infof("connected to %s", l.url)
	h.OnStatus(models.ConnectionConnected, nil)

	// Closing the connection unblocks ReadMessage when ctx ends.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			conn.Close()
		case <-stop:
		}
	}()
	defer conn.Close()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				h.OnStatus(models.ConnectionDisconnected, nil)
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.logger.Infof("upstream closed the feed: %v", err)
			} else {
				l.logger.Warnf("feed read error: %v", err)
			}
			err = fmt.Errorf("reading feed: %w", err)
			h.OnStatus(models.ConnectionDisconnected, err)
			return err
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		reading, err := Decode(data)
		if err != nil {
			l.logger.Warnf("skipping malformed reading: %v", err)
			continue
		}
		h.OnReading(reading)
	}
}

// ErrNotObject is returned when a message is valid JSON but not an object.
var ErrNotObject = errors.New("reading is not a JSON object")

// Decode parses one feed message. The whole object replaces the current
// reading, so no field is merged or validated.
func Decode(data []byte) (models.Reading, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.Reading{}, fmt.Errorf("decoding reading: %w", err)
	}
	if len(raw) == 0 || raw[0] != '{' {
		return models.Reading{}, ErrNotObject
	}
	var r models.Reading
	if err := json.Unmarshal(raw, &r); err != nil {
		return models.Reading{}, fmt.Errorf("decoding reading: %w", err)
	}
	return r, nil
}

package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// WebSocket message types for the browser push channel
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeState     = "state"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be less than pongWait
	maxMessageSize = 4 * 1024
	sendBuffer     = 16
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// wsClient is one connected browser
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// WebSocketHandler pushes state changes to connected browsers
type WebSocketHandler struct {
	source    Notifier
	upgrader  websocket.Upgrader
	clients   map[string]*wsClient
	clientsMu sync.RWMutex
	logger    *log.Logger
}

// NewWebSocketHandler creates a new push handler over source
func NewWebSocketHandler(source Notifier) *WebSocketHandler {
	return &WebSocketHandler{
		source: source,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		clients: make(map[string]*wsClient),
		logger:  log.New("ws"),
	}
}

// Run broadcasts a state message after every change until stop is closed.
func (wsh *WebSocketHandler) Run(stop <-chan struct{}) {
	changes, cancel := wsh.source.Subscribe()
	defer cancel()

	for {
		select {
		case <-stop:
			wsh.closeAll()
			return
		case <-changes:
			wsh.broadcast(wsh.stateMessage())
		}
	}
}

// ClientCount returns the number of connected browsers
func (wsh *WebSocketHandler) ClientCount() int {
	wsh.clientsMu.RLock()
	defer wsh.clientsMu.RUnlock()
	return len(wsh.clients)
}

// HandleWebSocket upgrades HTTP connection to WebSocket and registers the browser
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &wsClient{
		id:   uuid.New().String(),
		conn: ws,
		send: make(chan []byte, sendBuffer),
	}

	wsh.register(client)
	wsh.logger.Infof("client %s connected from %s", client.id, ws.RemoteAddr())

	wsh.trySend(client, encodeMessage(WSMessage{Type: MsgTypeConnected, ID: client.id, Timestamp: time.Now().UnixMilli()}))
	wsh.trySend(client, wsh.stateMessage())

	go wsh.writePump(client)
	wsh.readPump(client)

	wsh.logger.Infof("client %s disconnected", client.id)
	return nil
}

// readPump handles pings from the browser until the connection ends
func (wsh *WebSocketHandler) readPump(client *wsClient) {
	defer func() {
		wsh.unregister(client)
		client.conn.Close()
	}()

	client.conn.SetReadLimit(maxMessageSize)
	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg WSMessage
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				wsh.logger.Warnf("client %s read error: %v", client.id, err)
			}
			return
		}

		switch msg.Type {
		case MsgTypePing:
			wsh.trySend(client, encodeMessage(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}))
		default:
			payload, _ := json.Marshal(map[string]string{"message": "Unknown message type: " + msg.Type})
			wsh.trySend(client, encodeMessage(WSMessage{Type: MsgTypeError, Payload: payload, Timestamp: time.Now().UnixMilli()}))
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (wsh *WebSocketHandler) writePump(client *wsClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				wsh.logger.Warnf("client %s write error: %v", client.id, err)
				return
			}
		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (wsh *WebSocketHandler) register(client *wsClient) {
	wsh.clientsMu.Lock()
	defer wsh.clientsMu.Unlock()
	wsh.clients[client.id] = client
}

// unregister removes the client and closes its queue exactly once
func (wsh *WebSocketHandler) unregister(client *wsClient) {
	wsh.clientsMu.Lock()
	defer wsh.clientsMu.Unlock()
	if _, ok := wsh.clients[client.id]; ok {
		delete(wsh.clients, client.id)
		close(client.send)
	}
}

func (wsh *WebSocketHandler) closeAll() {
	wsh.clientsMu.Lock()
	defer wsh.clientsMu.Unlock()
	for id, client := range wsh.clients {
		delete(wsh.clients, id)
		close(client.send)
	}
}

// trySend queues a message unless the client is gone or its buffer is full
func (wsh *WebSocketHandler) trySend(client *wsClient, msg []byte) {
	wsh.clientsMu.RLock()
	defer wsh.clientsMu.RUnlock()
	if _, ok := wsh.clients[client.id]; !ok {
		return
	}
	select {
	case client.send <- msg:
	default:
	}
}

func (wsh *WebSocketHandler) broadcast(msg []byte) {
	wsh.clientsMu.RLock()
	var slow []*wsClient
	for _, client := range wsh.clients {
		select {
		case client.send <- msg:
		default:
			slow = append(slow, client)
		}
	}
	wsh.clientsMu.RUnlock()

	for _, client := range slow {
		wsh.logger.Warnf("client %s send buffer full, dropping", client.id)
		wsh.unregister(client)
	}
}

func (wsh *WebSocketHandler) stateMessage() []byte {
	return encodeMessage(WSMessage{
		Type:      MsgTypeState,
		Payload:   mustJSON(wsh.source.Snapshot()),
		Timestamp: time.Now().UnixMilli(),
	})
}

func encodeMessage(msg WSMessage) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		return []byte(`{"type":"error"}`)
	}
	return data
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}

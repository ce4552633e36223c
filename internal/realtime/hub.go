// Package realtime serves dashboard updates over websockets. Each browser
// tab holds one connection; control changes arrive as JSON messages and the
// recomputed figures go back to the same connection only.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/v3/websocket"
	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/seuros/sleepboard/internal/dashboard"
	"github.com/seuros/sleepboard/internal/figure"
	"github.com/seuros/sleepboard/internal/logging"
)

// Message types sent to clients.
const (
	MessageFigures  = "figures"
	MessageError    = "error"
	MessageShutdown = "shutdown"
)

const sendBuffer = 64

// Dispatcher answers a control update.
type Dispatcher interface {
	Dispatch(ctx context.Context, u dashboard.Update) (dashboard.Result, error)
}

type Hub struct {
	register    chan *Client
	unregister  chan *Client
	broadcast   chan []byte
	replies     chan reply
	clientCount chan chan int // For thread-safe client count queries
	clients     map[*Client]struct{}

	dispatcher Dispatcher
	ctx        context.Context
	cancel     context.CancelFunc
}

type wsConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

type Client struct {
	hub  *Hub
	conn wsConn
	send chan []byte
}

type reply struct {
	client  *Client
	payload []byte
}

// request is what the page sends: an update tagged with a client-chosen id
// so responses can be matched when several are in flight.
type request struct {
	ID int64 `json:"id"`
	dashboard.Update
}

type response struct {
	Type    string                   `json:"type"`
	ID      int64                    `json:"id,omitempty"`
	Figures map[string]figure.Figure `json:"figures,omitempty"`
	Error   string                   `json:"error,omitempty"`
}

type pingTicker interface {
	C() <-chan time.Time
	Stop()
}

type realPingTicker struct {
	*time.Ticker
}

func (t *realPingTicker) C() <-chan time.Time {
	return t.Ticker.C
}

var pingTickerFactory = func() pingTicker {
	return &realPingTicker{time.NewTicker(30 * time.Second)}
}

func NewHub(dispatcher Dispatcher) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan []byte, 16),
		replies:     make(chan reply),
		clientCount: make(chan chan int),
		clients:     make(map[*Client]struct{}),
		dispatcher:  dispatcher,
		ctx:         ctx,
		cancel:      cancel,
	}

	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
		case client := <-h.unregister:
			h.drop(client)
		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		case r := <-h.replies:
			if _, ok := h.clients[r.client]; ok {
				h.deliver(r.client, r.payload)
			}
		case response := <-h.clientCount:
			response <- len(h.clients)
		case <-h.ctx.Done():
			h.flush()
			for client := range h.clients {
				h.drop(client)
			}
			return
		}
	}
}

// flush delivers broadcasts queued before Close, such as the shutdown notice.
func (h *Hub) flush() {
	for {
		select {
		case message := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, message)
			}
		default:
			return
		}
	}
}

// deliver queues message for client, dropping the client if its buffer is full.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		logging.L().Warn("dropping slow realtime client")
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) drop(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		_ = client.conn.Close()
	}
}

func (h *Hub) Broadcast(msg []byte) {
	select {
	case h.broadcast <- msg:
	default:
		logging.L().Warn("dropping realtime payload", zap.String("reason", "slow consumers"))
	}
}

// Shutdown tells every client the server is going away.
func (h *Hub) Shutdown() {
	h.Broadcast(encode(response{Type: MessageShutdown}))
}

// Close disconnects all clients and stops the hub.
func (h *Hub) Close() {
	h.cancel()
}

// GetClientCount returns the number of connected clients in a thread-safe manner
func (h *Hub) GetClientCount() int {
	response := make(chan int, 1)
	select {
	case h.clientCount <- response:
		return <-response
	case <-h.ctx.Done():
		return 0
	}
}

func (h *Hub) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		client := &Client{
			hub:  h,
			conn: conn,
			send: make(chan []byte, sendBuffer),
		}

		select {
		case h.register <- client:
		case <-h.ctx.Done():
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump()
	})
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done():
		}
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		select {
		case c.hub.replies <- reply{client: c, payload: c.handle(message)}:
		case <-c.hub.done():
			return
		}
	}
}

func (h *Hub) done() <-chan struct{} {
	if h.ctx == nil {
		return nil
	}
	return h.ctx.Done()
}

// handle dispatches one update and encodes the response.
func (c *Client) handle(message []byte) []byte {
	var req request
	if err := json.Unmarshal(message, &req); err != nil {
		return encode(response{Type: MessageError, Error: "malformed update"})
	}

	res, err := c.hub.dispatcher.Dispatch(c.hub.ctx, req.Update)
	if err != nil {
		logging.L().Debug("realtime update rejected",
			zap.String("changed", req.Changed),
			zap.Error(err),
		)
		return encode(response{Type: MessageError, ID: req.ID, Error: err.Error()})
	}
	return encode(response{Type: MessageFigures, ID: req.ID, Figures: res.Figures})
}

func encode(r response) []byte {
	payload, err := json.Marshal(r)
	if err != nil {
		logging.L().Error("failed to encode realtime response", zap.Error(err))
		return []byte(`{"type":"error","error":"internal error"}`)
	}
	return payload
}

func (c *Client) writePump() {
	ticker := pingTickerFactory()
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C():
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

package dashboard

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Request is a JSON-RPC style message from a websocket client
type Request struct {
	ID     interface{}   `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

// Response is a reply or a server notification
type Response struct {
	ID     interface{}   `json:"id,omitempty"`
	Result interface{}   `json:"result,omitempty"`
	Error  interface{}   `json:"error,omitempty"`
	Method string        `json:"method,omitempty"`
	Params []interface{} `json:"params,omitempty"`
}

// Hub pushes table snapshots to websocket subscribers
type Hub struct {
	mu        sync.RWMutex
	refresher *Refresher
	clients   map[*Client]struct{}
	upgrader  websocket.Upgrader
}

const (
	// sendBuffer is the number of queued messages after which a client that
	// does not read is dropped
	sendBuffer = 16
	writeWait  = 10 * time.Second
)

// Client is one websocket subscriber
type Client struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	hub    *Hub
	tables map[string]bool // empty means every table
	send   chan []byte
	done   chan struct{}
	once   sync.Once
}

// NewHub creates a hub publishing r's snapshots
func NewHub(r *Refresher) *Hub {
	h := &Hub{
		refresher: r,
		clients:   make(map[*Client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	r.OnUpdate(h.Broadcast)
	return h
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades the request and serves the client until it disconnects
func (h *Hub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("websocket upgrade: %v", err)
		return
	}
	client := &Client{
		conn:   conn,
		hub:    h,
		tables: make(map[string]bool),
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	go client.writeLoop()
	client.handleConnection()
	h.remove(client)
}

// Broadcast queues a snapshot for every client subscribed to its table.
// Clients whose queue is full are disconnected.
func (h *Hub) Broadcast(s *Snapshot) {
	data, err := json.Marshal(Response{Method: "tables.notify", Params: []interface{}{s}})
	if err != nil {
		logger.Errorf("encode snapshot %s: %v", s.Name, err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		if client.subscribed(s.Name) {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		if !client.enqueue(data) {
			logger.Warnf("dropping websocket client %s: send buffer full", client.conn.RemoteAddr())
			h.remove(client)
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// enqueue never blocks. It reports false when the queue is full.
func (c *Client) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Debugf("websocket write: %v", err)
				c.hub.remove(c)
				return
			}
		}
	}
}

func (c *Client) handleConnection() {
	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debugf("websocket read: %v", err)
			}
			return
		}

		switch req.Method {
		case "tables.subscribe":
			c.handleSubscribe(req)
		case "tables.get":
			c.handleGet(req)
		default:
			c.sendError(req.ID, "Unknown method")
		}
	}
}

func (c *Client) handleSubscribe(req Request) {
	names := make([]string, 0, len(req.Params))
	for _, p := range req.Params {
		name, ok := p.(string)
		if !ok {
			c.sendError(req.ID, "Invalid table name")
			return
		}
		if _, ok := c.hub.refresher.table(name); !ok {
			c.sendError(req.ID, "Unknown table "+name)
			return
		}
		names = append(names, name)
	}

	c.mu.Lock()
	for _, name := range names {
		c.tables[name] = true
	}
	c.mu.Unlock()

	c.sendResponse(Response{ID: req.ID, Result: true})
}

func (c *Client) handleGet(req Request) {
	if len(req.Params) != 1 {
		c.sendError(req.ID, "Invalid parameters")
		return
	}
	name, _ := req.Params[0].(string)
	snap, ok := c.hub.refresher.Snapshot(name)
	if !ok {
		c.sendError(req.ID, "No snapshot for "+name)
		return
	}
	c.sendResponse(Response{ID: req.ID, Result: snap})
}

func (c *Client) subscribed(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tables) == 0 || c.tables[name]
}

func (c *Client) sendResponse(response Response) {
	data, err := json.Marshal(response)
	if err != nil {
		logger.Errorf("encode response: %v", err)
		return
	}
	if !c.enqueue(data) {
		c.hub.remove(c)
	}
}

func (c *Client) sendError(id interface{}, message string) {
	c.sendResponse(Response{
		ID:    id,
		Error: []interface{}{20, message, nil},
	})
}

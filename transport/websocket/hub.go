package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/mars-rovers/game/engine"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Outbound queue per client, counted in batches. A run's frames and its
	// summary event travel as one batch.
	sendBuffer = 256
)

// AllRuns is the subscription key for clients that follow every run.
const AllRuns = ""

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Message represents a WebSocket message
type Message struct {
	RunID string       `json:"run_id"`
	Event string       `json:"event"`
	Frame *engine.Step `json:"frame,omitempty"`
	Data  interface{}  `json:"data,omitempty"`
}

// Client represents a WebSocket client
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan [][]byte
	runID string
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	// Registered clients by run ID; AllRuns holds clients watching everything
	runs map[string]map[*Client]bool

	// Outbound message batches, each for a single run
	broadcast chan []*Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		runs:       make(map[string]map[*Client]bool),
		broadcast:  make(chan []*Message),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case batch := <-h.broadcast:
			h.broadcastBatch(batch)
		}
	}
}

// ServeWS upgrades the request and subscribes the client to runID, or to
// every run when runID is AllRuns. The replay messages are queued before any
// live traffic.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, runID string, replay []*Message) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan [][]byte, sendBuffer),
		runID: runID,
	}

	if batch := marshalBatch(replay); len(batch) > 0 {
		client.send <- batch
	}

	client.hub.register <- client

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// FrameMessages wraps a run's frames for sending, ending with a summary
// event.
func FrameMessages(runID string, frames []engine.Step, event string, summary interface{}) []*Message {
	messages := make([]*Message, 0, len(frames)+1)
	for i := range frames {
		messages = append(messages, &Message{RunID: runID, Event: "frame", Frame: &frames[i]})
	}
	if event != "" {
		messages = append(messages, &Message{RunID: runID, Event: event, Data: summary})
	}
	return messages
}

// BroadcastFrames streams a run's frames to its subscribers, then sends the
// summary event. The whole run is queued as one batch, so a follower gets
// every frame or none.
func (h *Hub) BroadcastFrames(runID string, frames []engine.Step, event string, summary interface{}) {
	if messages := FrameMessages(runID, frames, event, summary); len(messages) > 0 {
		h.broadcast <- messages
	}
}

// BroadcastEvent sends a custom event to all clients following a run
func (h *Hub) BroadcastEvent(runID string, event string, data interface{}) {
	h.broadcast <- []*Message{{
		RunID: runID,
		Event: event,
		Data:  data,
	}}
}

// registerClient adds a client to a run
func (h *Hub) registerClient(client *Client) {
	if h.runs[client.runID] == nil {
		h.runs[client.runID] = make(map[*Client]bool)
	}
	h.runs[client.runID][client] = true

	log.Printf("Client registered for run %q (total clients: %d)",
		client.runID, len(h.runs[client.runID]))
}

// unregisterClient removes a client from a run
func (h *Hub) unregisterClient(client *Client) {
	if clients, ok := h.runs[client.runID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			// Clean up empty runs
			if len(clients) == 0 {
				delete(h.runs, client.runID)
			}

			log.Printf("Client unregistered from run %q (remaining clients: %d)",
				client.runID, len(clients))
		}
	}
}

// broadcastBatch sends a run's messages to the run's clients and to clients
// following every run
func (h *Hub) broadcastBatch(messages []*Message) {
	batch := marshalBatch(messages)
	if len(batch) == 0 {
		return
	}

	runID := messages[0].RunID
	h.deliver(h.runs[runID], batch)
	if runID != AllRuns {
		h.deliver(h.runs[AllRuns], batch)
	}
}

func (h *Hub) deliver(clients map[*Client]bool, batch [][]byte) {
	for client := range clients {
		select {
		case client.send <- batch:
		default:
			// Client's send channel is full, drop it
			h.unregisterClient(client)
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Clients only listen; reads keep the connection alive
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func marshalBatch(messages []*Message) [][]byte {
	batch := make([][]byte, 0, len(messages))
	for _, message := range messages {
		data, err := json.Marshal(message)
		if err != nil {
			log.Printf("Failed to marshal WebSocket message: %v", err)
			continue
		}
		batch = append(batch, data)
	}
	return batch
}

// writePump pumps messages from the hub to the WebSocket connection. Each
// message in a batch is written as its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case batch, ok := <-c.send:
			if !ok {
				// The hub closed the channel
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			for _, message := range batch {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

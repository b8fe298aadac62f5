// Package ws streams frames and measurement values to websocket clients,
// typically a browser plotting page. Slow clients drop messages instead
// of stalling the pipeline.
package ws

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/dudk/scope"
)

const sendBuffer = 16

// FrameMessage is the JSON payload sent for every emitted frame.
type FrameMessage struct {
	Channel string    `json:"channel"`
	Seq     uint64    `json:"seq"`
	Samples []float64 `json:"samples"`
}

// ValueMessage is the JSON payload sent for every measurement update.
type ValueMessage struct {
	Channel   string  `json:"channel"`
	Statistic string  `json:"statistic"`
	Value     float64 `json:"value"`
}

// Sink broadcasts pipeline output to connected websocket clients.
type Sink struct {
	upgrader websocket.Upgrader
	seq      uint64

	mu      sync.RWMutex
	clients map[*client]bool
	closed  bool
}

type client struct {
	conn *websocket.Conn
	send chan interface{}
}

// NewSink returns a sink with no connected clients.
func NewSink() *Sink {
	return &Sink{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// ServeHTTP upgrades the request and keeps the connection registered
// until the client goes away.
func (s *Sink) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{conn: conn, send: make(chan interface{}, sendBuffer)}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = true
	s.mu.Unlock()
	go c.writePump()
	// Reads are discarded; a read error means the client is gone.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.drop(c)
}

// writePump pumps broadcast messages to the websocket connection.
func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (s *Sink) drop(c *client) {
	s.mu.Lock()
	if s.clients[c] {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
}

func (s *Sink) broadcast(msg interface{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
			// client is not keeping up, drop the message
		}
	}
}

// HandleFrame returns a frame handler publishing frames of the named
// channel to all clients.
func (s *Sink) HandleFrame(channel string) scope.FrameHandler {
	return func(f scope.Frame) {
		s.broadcast(FrameMessage{
			Channel: channel,
			Seq:     atomic.AddUint64(&s.seq, 1),
			Samples: f,
		})
	}
}

// HandleValue returns a measurement handler publishing values of the
// named channel and statistic to all clients.
func (s *Sink) HandleValue(channel string, stat scope.Statistic) scope.MeasurementHandler {
	return func(v float64) {
		s.broadcast(ValueMessage{
			Channel:   channel,
			Statistic: stat.String(),
			Value:     v,
		})
	}
}

// Close disconnects all clients. The sink accepts no new connections
// afterwards.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
}

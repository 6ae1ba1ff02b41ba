package fanout

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/charleschow/mlb-winprob/internal/events"
	"github.com/charleschow/mlb-winprob/internal/telemetry"
)

const (
	clientSendBuf = 256
	writeDeadline = 5 * time.Second
	pongWait      = 30 * time.Second
	pingInterval  = 20 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// watcher is one connected WebSocket subscriber. An empty game follows
// every game.
type watcher struct {
	game string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
}

func (w *watcher) label() string {
	if w.game == "" {
		return "all games"
	}
	return "game " + w.game
}

// Server fans out tracker events to connected WebSocket clients.
type Server struct {
	mu      sync.Mutex
	clients map[*watcher]struct{}
}

func NewServer(bus *events.Bus) *Server {
	s := &Server{
		clients: make(map[*watcher]struct{}),
	}
	bus.Subscribe(events.EventLiveUpdate, s.forward)
	bus.Subscribe(events.EventGameFinal, s.forward)
	return s
}

// forward is called on the publisher's goroutine. It serializes the event
// and enqueues it to matching clients' send channels (non-blocking).
func (s *Server) forward(evt events.Event) error {
	data, err := MarshalEvent(evt)
	if err != nil {
		telemetry.Warnf("fanout: marshal error: %v", err)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		if c.game != "" && c.game != evt.GameID {
			continue
		}
		select {
		case c.send <- data:
		default:
			telemetry.Warnf("fanout: dropping message for slow client (%s)", c.label())
		}
	}
	return nil
}

// ClientCount reports the number of connected subscribers.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// HandleWS is the HTTP handler for WebSocket upgrade requests.
// Subscribers may narrow the stream with ?game=<gamePk>.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		telemetry.Warnf("fanout: upgrade failed: %v", err)
		return
	}

	c := &watcher{
		game: r.URL.Query().Get("game"),
		conn: conn,
		send: make(chan []byte, clientSendBuf),
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	telemetry.Metrics.FanoutClients.Inc()

	telemetry.Plainf("Fanout: Client Connected [%s]", c.label())

	go s.writePump(c)
	go s.readPump(c)
}

// writePump drains the client's send channel and writes to the WS connection.
// It owns the client lifecycle: on exit it removes the client from the map
// (so forward never sends to a stale channel) and closes the connection.
func (s *Server) writePump(c *watcher) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.removeClient(c)
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				telemetry.Warnf("fanout: write error (%s): %v", c.label(), err)
				return
			}
		case <-c.done:
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump keeps the connection alive by reading pongs / close frames.
// No upstream messages are expected from subscribers.
// On exit it signals writePump via c.done (never closes c.send).
func (s *Server) readPump(c *watcher) {
	defer close(c.done)

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
	}
}

func (s *Server) removeClient(c *watcher) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	telemetry.Metrics.FanoutClients.Dec()
	telemetry.Plainf("Fanout: Client Disconnected [%s]", c.label())
}

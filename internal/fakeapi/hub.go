package fakeapi

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tgienger/deck/internal/logging"
)

// Commitment lifecycle events pushed on the /commitments channel
const (
	EventCreated   = "commitment.created"
	EventUpdated   = "commitment.updated"
	EventCompleted = "commitment.completed"
	EventArchived  = "commitment.archived"
	EventDeleted   = "commitment.deleted"
)

const (
	sendBuffer = 32
	writeWait  = 5 * time.Second
)

type frame struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type peer struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (p *peer) stop() {
	p.once.Do(func() { close(p.send) })
}

type hub struct {
	mu       sync.Mutex
	peers    map[*peer]struct{}
	upgrader websocket.Upgrader
}

func newHub() *hub {
	return &hub{
		peers: make(map[*peer]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

func (h *hub) serve(w http.ResponseWriter, r *http.Request) {
	log := logging.NewLogger("fakeapi")
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	p := &peer{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.peers[p] = struct{}{}
	h.mu.Unlock()
	log.WithField("remote", r.RemoteAddr).Debug("Push subscriber connected")

	go h.writeLoop(p)

	// Inbound frames are ignored; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(p)
}

func (h *hub) writeLoop(p *peer) {
	defer p.conn.Close()
	for msg := range p.send {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.remove(p)
			return
		}
	}
	_ = p.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

func (h *hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()
	p.stop()
}

// broadcast sends the frame to every peer without blocking; a peer with a full buffer misses it
func (h *hub) broadcast(event string, data interface{}) {
	msg, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.peers {
		select {
		case p.send <- msg:
		default:
		}
	}
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

func (h *hub) close() {
	h.mu.Lock()
	peers := h.peers
	h.peers = make(map[*peer]struct{})
	h.mu.Unlock()
	for p := range peers {
		p.stop()
	}
}

// Subscribers returns the number of connected push listeners
func (s *Server) Subscribers() int {
	return s.hub.count()
}

// Broadcast pushes an arbitrary event to every listener
func (s *Server) Broadcast(event string, data interface{}) {
	s.hub.broadcast(event, data)
}

// Package preview mirrors the strip and the edge readout to browsers over
// a websocket, for bench work without the hardware attached.
package preview

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"adalight/core"
	"adalight/protocol"
)

// Label is one piece of text on the virtual status display
type Label struct {
	Text  string `json:"text"`
	X     int16  `json:"x"`
	Y     int16  `json:"y"`
	Color string `json:"color"`
}

// Message is the JSON document pushed to every client
type Message struct {
	Type       string  `json:"type"` // "frame" or "status"
	Frame      uint64  `json:"frame"`
	Count      int     `json:"count"`
	RGB        string  `json:"rgb,omitempty"` // base64 r,g,b triples
	Background string  `json:"background"`
	Rotation   int     `json:"rotation"`
	Labels     []Label `json:"labels"`
}

// sendQueue is how many messages may wait for a slow client before new
// ones are dropped
const sendQueue = 4

const writeWait = 200 * time.Millisecond

// client is one websocket connection with its own writer goroutine
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Server is both a strip and a presenter: frames flushed to it and text
// drawn on it are queued for connected clients
type Server struct {
	mu       sync.Mutex
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	throttle time.Duration
	lastEmit time.Time
	dropped  uint64

	buf     *protocol.FrameBuffer
	count   int
	frameID uint64
	rgb     []byte

	background core.RGB565
	rotation   core.Orientation
	labels     []Label

	stats func() core.ControllerStats
}

// New creates a server that sends at most one frame per throttle interval
func New(throttle time.Duration) *Server {
	return &Server{
		clients:  map[*client]struct{}{},
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		throttle: throttle,
	}
}

// SetStatsSource provides the counters served on /stats
func (s *Server) SetStatsSource(f func() core.ControllerStats) {
	s.mu.Lock()
	s.stats = f
	s.mu.Unlock()
}

// Handler returns the HTTP routes: /ws, /stats and /health
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleWS)
	mux.HandleFunc("/stats", s.HandleStats)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// Configure implements core.StripDriver
func (s *Server) Configure(buf *protocol.FrameBuffer, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = buf
	s.count = count
	s.rgb = make([]byte, count*protocol.PixelSize)
	return nil
}

// Flush implements core.StripDriver. Frames inside the throttle window
// are dropped; the preview is best effort.
func (s *Server) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frameID++
	now := time.Now()
	if s.lastEmit.Add(s.throttle).After(now) {
		return nil
	}
	s.lastEmit = now

	for i := 0; i < s.count; i++ {
		p := s.buf.At(i)
		s.rgb[i*3+0] = p.R
		s.rgb[i*3+1] = p.G
		s.rgb[i*3+2] = p.B
	}
	s.broadcast(s.message("frame"))
	return nil
}

func (s *Server) Begin() {}

func (s *Server) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = s.labels[:0]
}

func (s *Server) SetOrientation(o core.Orientation) {
	s.mu.Lock()
	s.rotation = o
	s.mu.Unlock()
}

func (s *Server) SetBackgroundColor(c core.RGB565) {
	s.mu.Lock()
	s.background = c
	s.mu.Unlock()
}

func (s *Server) SetFont(core.Font) {}

// DrawText replaces any label with the same text. Before the first frame
// the change is pushed at once so clients see the status line.
func (s *Server) DrawText(x, y int16, text string, c core.RGB565) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l := Label{Text: text, X: x, Y: y, Color: hexColor(c)}
	replaced := false
	for i := range s.labels {
		if s.labels[i].Text == text {
			s.labels[i] = l
			replaced = true
		}
	}
	if !replaced {
		s.labels = append(s.labels, l)
	}

	if s.frameID == 0 {
		s.broadcast(s.message("status"))
	}
}

// message snapshots the current state; callers hold s.mu
func (s *Server) message(kind string) []byte {
	msg := Message{
		Type:       kind,
		Frame:      s.frameID,
		Count:      s.count,
		Background: hexColor(s.background),
		Rotation:   int(s.rotation) * 90,
		Labels:     append([]Label{}, s.labels...),
	}
	if kind == "frame" {
		msg.RGB = base64.StdEncoding.EncodeToString(s.rgb)
	}
	b, _ := json.Marshal(msg)
	return b
}

// broadcast queues b for every client without blocking. A client whose
// queue is full misses the message. Callers hold s.mu.
func (s *Server) broadcast(b []byte) {
	for c := range s.clients {
		select {
		case c.send <- b:
		default:
			s.dropped++
		}
	}
}

// remove forgets c and stops its writer
func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

func (s *Server) writeLoop(c *client) {
	defer c.conn.Close()
	for b := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			log.Debug().Err(err).Msg("write frame")
			s.remove(c)
			return
		}
	}
}

// HandleWS upgrades the connection and queues the current state
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendQueue)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	c.send <- s.message("status")
	s.mu.Unlock()

	go s.writeLoop(c)
	go func() {
		defer s.remove(c)
		// Drain until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleStats serves the controller counters as JSON
func (s *Server) HandleStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	stats := s.stats
	s.mu.Unlock()

	var body core.ControllerStats
	if stats != nil {
		body = stats()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	body := map[string]any{
		"ok":      true,
		"frames":  s.frameID,
		"clients": len(s.clients),
		"dropped": s.dropped,
	}
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

// Close disconnects every client
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	return nil
}

func hexColor(c core.RGB565) string {
	const digits = "0123456789abcdef"
	p := c.Pixel()
	b := []byte{'#', 0, 0, 0, 0, 0, 0}
	for i, v := range []uint8{p.R, p.G, p.B} {
		b[1+i*2] = digits[v>>4]
		b[2+i*2] = digits[v&0x0F]
	}
	return string(b)
}

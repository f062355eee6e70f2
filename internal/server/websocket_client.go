package server

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
)

// Stream-only event kinds.
const (
	EventHello scheduler.EventKind = "hello"
	EventPong  scheduler.EventKind = "pong"
)

const (
	sendBuffer   = 256
	writeTimeout = 5 * time.Second
)

// ProgressMessage is one frame of the progress stream. Progress frames for a
// recorded monster carry every stat; NaN values are null.
type ProgressMessage struct {
	scheduler.Event
	Stats map[string]*float64 `json:"stats,omitempty"`
}

func newProgressMessage(ev scheduler.Event) ProgressMessage {
	msg := ProgressMessage{Event: ev}
	if ev.Kind == scheduler.EventProgress && ev.Err == "" {
		msg.Stats = statValues(&ev.Result)
	}
	return msg
}

func statValues(r *results.Result) map[string]*float64 {
	out := make(map[string]*float64, len(results.Stats))
	for _, s := range results.Stats {
		out[s.Key] = finite(s.Value(r))
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WebSocketClient is one progress subscriber. Deliver may be called from
// any goroutine; ReadLine belongs to a single reader.
type WebSocketClient struct {
	conn    *websocket.Conn
	send    chan ProgressMessage
	pending []string

	closeOnce sync.Once
	closeErr  error
}

func NewWebSocketClient(conn *websocket.Conn) *WebSocketClient {
	return &WebSocketClient{conn: conn, send: make(chan ProgressMessage, sendBuffer)}
}

// Deliver queues ev without blocking. A subscriber that falls sendBuffer
// frames behind loses frames; the batch never waits on it.
func (c *WebSocketClient) Deliver(ev scheduler.Event) {
	select {
	case c.send <- newProgressMessage(ev):
	default:
		logger.Warning("Progress frame dropped", "remote_addr", c.RemoteAddr(), "kind", string(ev.Kind))
	}
}

// WritePump drains the queue onto the connection until done is closed. A
// failed write closes the connection, which also ends the reader.
func (c *WebSocketClient) WritePump(done <-chan struct{}) {
	for {
		var msg ProgressMessage
		select {
		case <-done:
			return
		case msg = <-c.send:
		}

		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			logger.Debug("Progress write failed", "remote_addr", c.RemoteAddr(), "error", err)
			c.Close()
			return
		}
	}
}

// ReadLine returns the next non-blank command line. One text message may
// carry several newline-separated commands.
func (c *WebSocketClient) ReadLine() (string, error) {
	for len(c.pending) == 0 {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			return "", err
		}
		for line := range strings.Lines(string(message)) {
			if line = strings.TrimSpace(line); line != "" {
				c.pending = append(c.pending, line)
			}
		}
	}

	line := c.pending[0]
	c.pending = c.pending[1:]
	return line, nil
}

// Close closes the connection once and returns that result on every call.
func (c *WebSocketClient) Close() error {
	c.closeOnce.Do(func() { c.closeErr = c.conn.Close() })
	return c.closeErr
}

func (c *WebSocketClient) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

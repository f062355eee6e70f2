// Package server exposes the simulator over HTTP with a websocket progress
// stream.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/combatsim/internal/catalog"
	"github.com/lawnchairsociety/combatsim/internal/combat"
	"github.com/lawnchairsociety/combatsim/internal/config"
	"github.com/lawnchairsociety/combatsim/internal/database"
	"github.com/lawnchairsociety/combatsim/internal/logger"
	"github.com/lawnchairsociety/combatsim/internal/results"
	"github.com/lawnchairsociety/combatsim/internal/scheduler"
)

// Server serves one build and its simulation results. The build and the
// resolver are not safe for concurrent use, so every handler that touches
// them holds mu.
type Server struct {
	cat         *catalog.Catalog
	sched       *scheduler.Scheduler
	table       *results.Table
	db          *database.Database
	cfg         config.ServerConfig
	connLimiter *ConnLimiter

	mu         sync.Mutex
	build      *combat.Build
	resolver   *combat.Resolver
	batchBuild *combat.Build // build the current results came from

	clientsMu  sync.Mutex // guards clients and httpServer
	clients    map[*WebSocketClient]struct{}
	httpServer *http.Server

	ctx          context.Context
	stop         context.CancelFunc
	shutdownOnce sync.Once
	StartTime    time.Time
}

// NewServer wires a server around a resolver and the scheduler that reads
// it. db may be nil, which disables the comparison endpoints.
func NewServer(cfg config.ServerConfig, resolver *combat.Resolver, sched *scheduler.Scheduler, db *database.Database) *Server {
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		cat:         resolver.Catalog(),
		sched:       sched,
		table:       sched.Table(),
		db:          db,
		cfg:         cfg,
		connLimiter: NewConnLimiter(cfg.WebSocket),
		build:       resolver.Build(),
		resolver:    resolver,
		clients:     make(map[*WebSocketClient]struct{}),
		ctx:         ctx,
		stop:        stop,
		StartTime:   time.Now(),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/build", s.handleGetBuild)
	mux.HandleFunc("PUT /api/build", s.handlePutBuild)
	mux.HandleFunc("GET /api/batch", s.handleBatchStatus)
	mux.HandleFunc("POST /api/batch", s.handleStartBatch)
	mux.HandleFunc("POST /api/batch/cancel", s.handleCancelBatch)
	mux.HandleFunc("GET /api/dataset", s.handleDataSet)
	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("GET /api/comparisons", s.handleListComparisons)
	mux.HandleFunc("POST /api/comparisons", s.handleSaveComparison)
	mux.HandleFunc("GET /api/comparisons/{id}", s.handleGetComparison)
	mux.HandleFunc("DELETE /api/comparisons/{id}", s.handleDeleteComparison)
	mux.HandleFunc("GET /ws", s.handleWebSocketUpgrade)
	return mux
}

// Start listens on addr and blocks until Shutdown. Calling it after Shutdown
// returns nil at once.
func (s *Server) Start(addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.clientsMu.Lock()
	if s.ctx.Err() != nil {
		s.clientsMu.Unlock()
		return nil
	}
	s.httpServer = hs
	s.clientsMu.Unlock()

	logger.Info("Server listening", "address", addr)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown cancels any running batch, closes progress subscribers and stops
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.stop()
		s.sched.Cancel()

		s.clientsMu.Lock()
		for c := range s.clients {
			c.Close()
		}
		hs := s.httpServer
		s.clientsMu.Unlock()

		if hs != nil {
			err = hs.Shutdown(ctx)
		}
		logger.Info("Server shutdown complete", "uptime", time.Since(s.StartTime).Round(time.Second))
	})
	return err
}

// handleWebSocketUpgrade upgrades a request to a progress stream.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := clientAddr(r)

	release, ok := s.connLimiter.Acquire(clientIP)
	if !ok {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		release()
		return
	}
	if s.cfg.WebSocket.MaxMessageSize > 0 {
		wsConn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	}

	go s.handleWebSocketConnection(wsConn, release)
}

// handleWebSocketConnection streams batch events to one subscriber until it
// disconnects. The subscriber may send "cancel" to stop the running batch.
func (s *Server) handleWebSocketConnection(wsConn *websocket.Conn, release func()) {
	client := NewWebSocketClient(wsConn)

	s.clientsMu.Lock()
	s.clients[client] = struct{}{}
	s.clientsMu.Unlock()

	unsubscribe := s.sched.Subscribe(client.Deliver)
	done := make(chan struct{})
	go func() {
		client.WritePump(done)
	}()

	defer func() {
		unsubscribe()
		close(done)
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
		release()
		client.Close()
		logger.Debug("Progress subscriber disconnected", "remote_addr", client.RemoteAddr())
	}()

	logger.Debug("Progress subscriber connected", "remote_addr", client.RemoteAddr())
	client.Deliver(scheduler.Event{Kind: EventHello, Total: s.table.Recorded()})

	for {
		line, err := client.ReadLine()
		if err != nil {
			return
		}
		switch line {
		case "cancel":
			s.sched.Cancel()
		case "ping":
			client.Deliver(scheduler.Event{Kind: EventPong})
		default:
			logger.Debug("Unknown subscriber command", "command", line)
		}
	}
}

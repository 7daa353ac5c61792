package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"skirmish/internal/command"
	"skirmish/internal/config"
	"skirmish/internal/sim"
)

// Server is the HTTP API server with WebSocket support, combining the
// mutating command surface with a read-only snapshot feed.
type Server struct {
	handle      *SimHandle
	queue       *command.Queue
	router      *chi.Mux
	wsHub       *SnapshotHub
	rateLimiter *IPRateLimiter
	sessionMgr  *SessionManager

	stopTick chan struct{}
}

// NewServer creates a new API server around s with default production
// configuration. Background workers (the tick-driving loop, the
// WebSocket hub, session cleanup) do NOT start until Start() is called,
// so the router can be exercised in tests via Router() without any
// goroutines running.
func NewServer(s *sim.Sim, queue *command.Queue) *Server {
	return NewServerWithAuth(s, queue, nil, false)
}

// NewServerWithAuth creates a new API server with optional session auth
// on mutating routes.
func NewServerWithAuth(s *sim.Sim, queue *command.Queue, sessionMgr *SessionManager, requireAuth bool) *Server {
	handle := NewSimHandle(s)
	srv := &Server{
		handle:     handle,
		queue:      queue,
		wsHub:      NewSnapshotHub(),
		sessionMgr: sessionMgr,
		stopTick:   make(chan struct{}),
	}

	srv.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	actorRL := command.NewRateLimiter(config.DefaultRateLimit())

	srv.router = NewRouter(RouterConfig{
		Handlers:       newRouterHandlers(handle, queue, actorRL),
		RateLimiter:    srv.rateLimiter,
		SessionManager: sessionMgr,
		RequireAuth:    requireAuth,
	})

	srv.router.Get("/ws/snapshots", srv.handleWS)

	return srv
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}

// Start begins the HTTP server AND starts background workers: the
// WebSocket hub's event loop and the tick-driving loop that drains the
// command queue, advances the sim at tickInterval, and publishes the
// resulting snapshot to any connected subscribers. This is the ONLY
// method that starts goroutines or opens network listeners.
func (s *Server) Start(addr string, tickInterval time.Duration) error {
	go s.wsHub.Run()
	go s.runTickLoop(tickInterval)

	log.Printf("api server starting on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) runTickLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopTick:
			return
		case <-ticker.C:
			notes, cmdErrs := s.handle.DrainAndAdvance(s.queue)
			for _, n := range notes {
				log.Printf("sim notice: tick=%d unit=%d kind=%v msg=%s", n.Tick, n.Unit, n.Kind, n.Msg)
			}
			for _, e := range cmdErrs {
				log.Printf("command rejected: %v", e)
			}
			s.wsHub.PublishTick(s.handle.Snapshot(), notes)
		}
	}
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	close(s.stopTick)
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

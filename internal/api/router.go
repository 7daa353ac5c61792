package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig contains all dependencies needed to construct the HTTP
// router. Designed for dependency injection and testability.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Handlers: h,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Handlers is the control-surface logic (required).
	Handlers *routerHandlers

	// RateLimiter is an optional pre-configured rate limiter. If nil, a
	// new one is built from RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig configures the rate limiter when RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins overrides the default allowed CORS origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	// SessionManager, when set, protects mutating routes with
	// RequireSessionMiddleware.
	SessionManager *SessionManager

	// RequireAuth gates mutating routes behind SessionManager. Off by
	// default for local/test use, exactly like the teacher's
	// ADMIN_AUTH_ENABLED flag.
	RequireAuth bool
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE — it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := cfg.Handlers

	r.Route("/api", func(r chi.Router) {
		r.Get("/units", h.handleIterUnits)
		r.Get("/units/{id}", h.handleGetUnit)

		mutate := func(r chi.Router) {
			if cfg.RequireAuth && cfg.SessionManager != nil {
				r.Use(cfg.SessionManager.RequireSessionMiddleware)
			}
			r.Post("/units", h.handleAddUnit)
			r.Delete("/units/{id}", h.handleRemoveUnit)
			r.Post("/units/{id}/move", h.handleMoveUnit)
			r.Post("/units/{id}/attack", h.handleAttack)
			r.Post("/units/{id}/hold-state", h.handleCycleHoldState)
			r.Post("/units/{id}/firing-preference", h.handleToggleFiringPreference)
			r.Post("/units/{id}/firing-mode", h.handleSetFiringMode)
			r.Post("/units/{id}/multi-shoot", h.handleCycleMultiShotCount)
			r.Post("/units/{id}/aiming-speed", h.handleSetAimingSpeed)
			r.Post("/units/{id}/movement-type", h.handleSetMovementType)
			r.Post("/units/{id}/combat-mode", h.handleToggleCombatMode)
			r.Post("/units/{id}/auto-target", h.handleToggleAutoTarget)
			r.Post("/units/{id}/reaction", h.handleSetReactionTarget)
			r.Delete("/units/{id}/reaction", h.handleClearReaction)
			r.Post("/units/{id}/reload", h.handleReload)
			r.Post("/advance", h.handleAdvance)
		}
		r.Group(mutate)
	})

	r.Get("/api/auth/status", func(w http.ResponseWriter, req *http.Request) {
		if cfg.SessionManager != nil {
			cfg.SessionManager.HandleAuthStatus(w, req)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"authenticated":true,"message":"auth disabled"}`))
	})
	if cfg.SessionManager != nil {
		r.Post("/api/auth/login", cfg.SessionManager.HandleLogin)
		r.Post("/api/auth/logout", cfg.SessionManager.HandleLogout)
	}

	return r
}

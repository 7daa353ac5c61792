package command

import (
	"sync"
	"time"

	"skirmish/internal/config"
	"skirmish/internal/sim"
)

// actorLimit tracks one actor's sliding window and cooldown state,
// mirroring the chat rate limiter's per-user bookkeeping.
type actorLimit struct {
	count     int
	windowEnd time.Time
	lastCmd   time.Time
}

// RateLimiter throttles how often a single unit may push commands into a
// Queue: a sliding-window cap plus a minimum cooldown between any two
// commands from the same actor, preventing one connection from flooding
// the sim with more intents per tick than it can sensibly apply.
type RateLimiter struct {
	mu     sync.Mutex
	actors map[sim.UnitID]*actorLimit
	cfg    config.RateLimitConfig
}

// NewRateLimiter builds a RateLimiter from the given configuration.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		actors: make(map[sim.UnitID]*actorLimit),
		cfg:    cfg,
	}
}

// Allow reports whether actor may issue another command right now,
// updating its window/cooldown bookkeeping as a side effect. Like the
// chat limiter, a rejected call does not count against the window.
func (r *RateLimiter) Allow(actor sim.UnitID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	window := time.Duration(r.cfg.WindowSeconds) * time.Second
	cooldown := time.Duration(r.cfg.CooldownSeconds) * time.Second

	lim, ok := r.actors[actor]
	if !ok {
		lim = &actorLimit{windowEnd: now.Add(window)}
		r.actors[actor] = lim
	}

	if now.After(lim.windowEnd) {
		lim.count = 0
		lim.windowEnd = now.Add(window)
	}

	if !lim.lastCmd.IsZero() && now.Sub(lim.lastCmd) < cooldown {
		return false
	}
	if lim.count >= r.cfg.CommandsPerWindow {
		return false
	}

	lim.count++
	lim.lastCmd = now
	return true
}

// cleanup drops bookkeeping for actors idle past their window, the same
// janitorial role the chat limiter's background goroutine plays. Callers
// (the server's lifecycle loop) are expected to run this periodically
// rather than leaving it to a package-owned goroutine, since the sim
// core never spawns goroutines of its own.
func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	for id, lim := range r.actors {
		if now.Sub(lim.windowEnd) > time.Duration(r.cfg.WindowSeconds)*time.Second*2 {
			delete(r.actors, id)
		}
	}
}

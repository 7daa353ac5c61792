package api

import (
	"sync"

	"skirmish/internal/command"
	"skirmish/internal/sim"
)

// SimHandle serializes concurrent HTTP access to a *sim.Sim. The core
// itself carries no locking (§5: single-threaded cooperative core) —
// this is the one place outside the tick loop allowed to touch it
// directly, and it does so only under mu. Read handlers take RLock;
// the owning tick loop (DrainAndAdvance) takes the write lock around
// draining the command queue and calling Advance, the same boundary
// the teacher's engine drew around its own tick/render split.
type SimHandle struct {
	mu  sync.RWMutex
	sim *sim.Sim
}

// NewSimHandle wraps s.
func NewSimHandle(s *sim.Sim) *SimHandle {
	return &SimHandle{sim: s}
}

func (h *SimHandle) IterUnits() []sim.UnitView {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sim.IterUnits()
}

func (h *SimHandle) GetUnit(id sim.UnitID) (sim.UnitView, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sim.GetUnit(id)
}

func (h *SimHandle) GetCharacter(id sim.UnitID) (sim.CharacterView, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sim.GetCharacter(id)
}

func (h *SimHandle) AddUnit(spec sim.UnitSpec) sim.UnitID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sim.AddUnit(spec)
}

func (h *SimHandle) RemoveUnit(id sim.UnitID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sim.RemoveUnit(id)
}

func (h *SimHandle) Now() sim.Tick {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sim.Now()
}

func (h *SimHandle) Snapshot() sim.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sim.Snapshot()
}

// Advance is only safe to call from the owning tick loop (DrainAndAdvance).
func (h *SimHandle) Advance(ticks uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sim.Advance(ticks)
}

// DrainAndAdvance applies every queued command then advances the clock
// by one tick, all under a single write lock — this is the only place
// command.Apply is ever called, keeping mutation single-threaded from
// the core's point of view even though intake is concurrent. Errors
// from individual commands are collected rather than propagated, since
// a bad command from one actor must never abort the tick for everyone
// else; they're returned alongside the core's own tick notifications.
func (h *SimHandle) DrainAndAdvance(q *command.Queue) ([]sim.Notification, []*sim.Error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	var cmdErrs []*sim.Error
	for _, cmd := range q.Drain() {
		if err := command.Apply(h.sim, cmd); err != nil {
			cmdErrs = append(cmdErrs, err)
		}
	}
	h.sim.Advance(1)
	return h.sim.Notifications(), cmdErrs
}

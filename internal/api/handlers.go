package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"

	"skirmish/internal/command"
	"skirmish/internal/sim"
)

// routerHandlers holds the dependencies the control-surface HTTP
// handlers need: a mutex-guarded simulation (reads take RLock, the
// owning tick loop takes Lock around Advance+Drain) and the intake
// queue mutating endpoints push into.
type routerHandlers struct {
	sim     *SimHandle
	queue   *command.Queue
	actorRL *command.RateLimiter
}

// newRouterHandlers builds handlers bound to sim and queue. actorRL may
// be nil, in which case per-actor throttling is skipped (only the IP-
// level and queue-capacity limits apply) — callers that want §4.15's
// command-flood protection pass a *command.RateLimiter built from
// config.RateLimitConfig.
func newRouterHandlers(sim *SimHandle, queue *command.Queue, actorRL *command.RateLimiter) *routerHandlers {
	return &routerHandlers{sim: sim, queue: queue, actorRL: actorRL}
}

func unitIDFromURL(r *http.Request) (sim.UnitID, error) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "invalid unit id")
	}
	return sim.UnitID(n), nil
}

func (h *routerHandlers) handleIterUnits(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.sim.IterUnits())
}

func (h *routerHandlers) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	view, ok := h.sim.GetUnit(id)
	if !ok {
		writeError(w, "unit not found", http.StatusNotFound)
		return
	}
	writeJSON(w, view)
}

func (h *routerHandlers) handleAddUnit(w http.ResponseWriter, r *http.Request) {
	var spec sim.UnitSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	id := h.sim.AddUnit(spec)
	writeJSON(w, map[string]uint32{"id": uint32(id)})
}

func (h *routerHandlers) handleRemoveUnit(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.sim.RemoveUnit(id)
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleMoveUnit(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct{ X, Y float64 }
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.enqueue(w, command.Command{Kind: command.KindMoveUnitTo, ActorID: id, X: req.X, Y: req.Y})
}

func (h *routerHandlers) handleAttack(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		TargetID uint32 `json:"target_id"`
		Hold     bool   `json:"hold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	kind := command.KindAttack
	if req.Hold {
		kind = command.KindAttackHold
	}
	h.enqueue(w, command.Command{Kind: kind, ActorID: id, TargetID: sim.UnitID(req.TargetID)})
}

func (h *routerHandlers) handleCycleHoldState(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindCycleHoldState)
}

func (h *routerHandlers) handleToggleFiringPreference(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindToggleFiringPreference)
}

func (h *routerHandlers) handleSetFiringMode(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Mode uint8 `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.enqueue(w, command.Command{Kind: command.KindSetFiringMode, ActorID: id, Mode: sim.FiringMode(req.Mode)})
}

func (h *routerHandlers) handleCycleMultiShotCount(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindCycleMultiShotCount)
}

func (h *routerHandlers) handleSetAimingSpeed(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Speed uint8 `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.enqueue(w, command.Command{Kind: command.KindSetAimingSpeed, ActorID: id, Speed: sim.AimingSpeed(req.Speed)})
}

func (h *routerHandlers) handleSetMovementType(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Movement uint8 `json:"movement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.enqueue(w, command.Command{Kind: command.KindSetMovementType, ActorID: id, Movement: sim.MovementType(req.Movement)})
}

func (h *routerHandlers) handleToggleCombatMode(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindToggleCombatMode)
}

func (h *routerHandlers) handleToggleAutoTarget(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindToggleAutoTarget)
}

func (h *routerHandlers) handleSetReactionTarget(w http.ResponseWriter, r *http.Request) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		TargetID uint32 `json:"target_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	h.enqueue(w, command.Command{Kind: command.KindSetReactionTarget, ActorID: id, TargetID: sim.UnitID(req.TargetID)})
}

func (h *routerHandlers) handleClearReaction(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindClearReaction)
}

func (h *routerHandlers) handleReload(w http.ResponseWriter, r *http.Request) {
	h.enqueueSimple(w, r, command.KindReload)
}

func (h *routerHandlers) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ticks uint32 `json:"ticks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticks == 0 {
		req.Ticks = 1
	}
	h.sim.Advance(req.Ticks)
	writeJSON(w, map[string]uint64{"tick": uint64(h.sim.Now())})
}

// enqueueSimple handles the common case of a no-body command keyed off
// only the URL's unit id.
func (h *routerHandlers) enqueueSimple(w http.ResponseWriter, r *http.Request, kind command.Kind) {
	id, err := unitIDFromURL(r)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.enqueue(w, command.Command{Kind: kind, ActorID: id})
}

// enqueue pushes cmd onto the intake queue, responding 202 Accepted on
// success, 429 if the actor has exceeded its per-unit command rate
// (§4.15), or 503 if the queue is full — this handler never blocks
// waiting for the tick loop to drain it.
func (h *routerHandlers) enqueue(w http.ResponseWriter, cmd command.Command) {
	if h.actorRL != nil && !h.actorRL.Allow(cmd.ActorID) {
		RecordCommandDropped()
		w.Header().Set("Retry-After", "1")
		writeError(w, "command rate limit exceeded for actor", http.StatusTooManyRequests)
		return
	}
	if !h.queue.Enqueue(cmd) {
		RecordCommandDropped()
		writeError(w, "command queue full", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]bool{"accepted": true})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

package sim

import "container/heap"

// Action is a tagged, serializable unit of deferred work. Encoding
// scheduled work as data (instead of closures captured at schedule time)
// keeps the event queue inspectable and lets it round-trip through the
// persisted-state record in persistence.go.
type Action interface {
	// OwnerUnit is the unit this action belongs to, for cancel_owner.
	OwnerUnit() UnitID
}

// ActionCompleteWeaponState advances current_weapon_state to NextState
// and, unless NextState is the StopAt target, recursively schedules the
// following transition.
type ActionCompleteWeaponState struct {
	Owner     UnitID
	NextState string
	StopAt    string
}

func (a ActionCompleteWeaponState) OwnerUnit() UnitID { return a.Owner }

// ActionFireShot fires a single shot within a (possibly single-shot)
// sequence. ShotIndex is 1-based; BurstTotal is the sequence length.
type ActionFireShot struct {
	Owner      UnitID
	Target     UnitID
	ShotIndex  int
	BurstTotal int
}

func (a ActionFireShot) OwnerUnit() UnitID { return a.Owner }

// ActionMeleeImpact resolves the damage roll of an in-flight melee attack.
type ActionMeleeImpact struct {
	Owner  UnitID
	Target UnitID
}

func (a ActionMeleeImpact) OwnerUnit() UnitID { return a.Owner }

// ActionMeleeRecoveryComplete clears is_attacking and resets the 5-tick
// scheduling sentinel (the regression covered by scenario 3 in the
// testable-properties list).
type ActionMeleeRecoveryComplete struct {
	Owner UnitID
}

func (a ActionMeleeRecoveryComplete) OwnerUnit() UnitID { return a.Owner }

// ActionReloadStep performs one +1-ammunition iteration of a SINGLE_ROUND
// reload and reschedules itself until full or interrupted.
type ActionReloadStep struct {
	Owner UnitID
}

func (a ActionReloadStep) OwnerUnit() UnitID { return a.Owner }

// ActionReloadComplete sets ammunition to max for a FULL_MAGAZINE reload.
type ActionReloadComplete struct {
	Owner UnitID
}

func (a ActionReloadComplete) OwnerUnit() UnitID { return a.Owner }

// ActionDefenseCooldownComplete returns a defender to READY.
type ActionDefenseCooldownComplete struct {
	Owner UnitID
}

func (a ActionDefenseCooldownComplete) OwnerUnit() UnitID { return a.Owner }

// ActionHesitationEnd ends a hesitation window and resumes paused events.
type ActionHesitationEnd struct {
	Owner UnitID
}

func (a ActionHesitationEnd) OwnerUnit() UnitID { return a.Owner }

// ActionReactionFire fires the deferred attack armed by the Reaction Monitor.
type ActionReactionFire struct {
	Owner  UnitID
	Target UnitID
}

func (a ActionReactionFire) OwnerUnit() UnitID { return a.Owner }

// ActionReaimDelayComplete ends the 15-tick post-target-loss delay and lets
// the auto-targeting system search for a replacement target again.
type ActionReaimDelayComplete struct {
	Owner UnitID
}

func (a ActionReaimDelayComplete) OwnerUnit() UnitID { return a.Owner }

// EventHandle identifies a scheduled event for cancellation.
type EventHandle uint64

type scheduledEvent struct {
	tick       Tick
	seq        uint64
	handle     EventHandle
	owner      UnitID
	hasOwner   bool
	action     Action
	tombstoned bool
}

// eventHeap orders by (tick, seq) ascending, giving FIFO semantics within
// a tick and a total order across ticks.
type eventHeap []*scheduledEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return h[i].seq < h[j].seq
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *eventHeap) Push(x any)   { *h = append(*h, x.(*scheduledEvent)) }
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Scheduler is the priority queue of pending actions. It never blocks and
// never mutates entity state itself; Sim.Advance pops due events and
// hands their actions to the Combat Coordinator for execution.
type Scheduler struct {
	heap      eventHeap
	seq       uint64
	nextEvt   uint64
	byHandle  map[EventHandle]*scheduledEvent
	lastFired map[UnitID]int64 // last_attack_scheduled_tick, keyed by owner
}

// NewScheduler constructs an empty scheduler.
func NewScheduler() *Scheduler {
	s := &Scheduler{
		byHandle:  make(map[EventHandle]*scheduledEvent),
		lastFired: make(map[UnitID]int64),
	}
	heap.Init(&s.heap)
	return s
}

// Schedule inserts an action to fire at tick, owned by owner (hasOwner
// controls whether this is cancel_owner-eligible). now must be ≤ tick or
// InvalidSchedule is returned — fatal per §7.
func (s *Scheduler) Schedule(now, tick Tick, owner UnitID, hasOwner bool, action Action) (EventHandle, error) {
	if tick < now {
		return 0, newErr(ErrInvalidSchedule, owner, "scheduled tick is in the past")
	}
	s.nextEvt++
	handle := EventHandle(s.nextEvt)
	evt := &scheduledEvent{
		tick:     tick,
		seq:      s.seq,
		handle:   handle,
		owner:    owner,
		hasOwner: hasOwner,
		action:   action,
	}
	s.seq++
	heap.Push(&s.heap, evt)
	s.byHandle[handle] = evt
	return handle, nil
}

// Cancel tombstones a scheduled event. Double-cancel is a no-op.
func (s *Scheduler) Cancel(h EventHandle) {
	if evt, ok := s.byHandle[h]; ok {
		evt.tombstoned = true
		delete(s.byHandle, h)
	}
}

// CancelOwner tombstones all pending events for owner. O(n) scan; the
// queue is small by construction (hundreds of entries).
func (s *Scheduler) CancelOwner(owner UnitID) {
	for _, evt := range s.heap {
		if evt.hasOwner && evt.owner == owner {
			evt.tombstoned = true
		}
	}
	for h, evt := range s.byHandle {
		if evt.hasOwner && evt.owner == owner {
			delete(s.byHandle, h)
		}
	}
}

// CheckAttackInterval enforces the 5-tick minimum spacing between
// scheduled attack sequences for the same character (invariant 4, §8).
func (s *Scheduler) CheckAttackInterval(owner UnitID, now Tick) error {
	last, ok := s.lastFired[owner]
	if !ok || last == NoSchedule {
		return nil
	}
	if int64(now)-last < 5 {
		return newErr(ErrInvalidSchedule, owner, "attack scheduled within 5 ticks of the previous one")
	}
	return nil
}

// MarkAttackScheduled records last_attack_scheduled_tick for owner.
func (s *Scheduler) MarkAttackScheduled(owner UnitID, now Tick) {
	s.lastFired[owner] = int64(now)
}

// ResetAttackSentinel resets last_attack_scheduled_tick to the -1
// sentinel, as melee recovery completion must (scenario 3, §8).
func (s *Scheduler) ResetAttackSentinel(owner UnitID) {
	s.lastFired[owner] = NoSchedule
}

// LastAttackScheduledTick returns the raw sentinel-or-tick value.
func (s *Scheduler) LastAttackScheduledTick(owner UnitID) int64 {
	if v, ok := s.lastFired[owner]; ok {
		return v
	}
	return NoSchedule
}

// Pending reports whether any live event remains for owner.
func (s *Scheduler) Pending(owner UnitID) bool {
	for _, evt := range s.heap {
		if !evt.tombstoned && evt.hasOwner && evt.owner == owner {
			return true
		}
	}
	return false
}

// Stats summarizes queue occupancy for observability.
type SchedulerStats struct {
	Pending     int
	Tombstoned  int
	NextTickDue Tick
}

func (s *Scheduler) Stats() SchedulerStats {
	var st SchedulerStats
	if len(s.heap) > 0 {
		st.NextTickDue = s.heap[0].tick
	}
	for _, evt := range s.heap {
		if evt.tombstoned {
			st.Tombstoned++
		} else {
			st.Pending++
		}
	}
	return st
}

// drainDue pops and executes every live event with tick ≤ target, in
// (tick, seq) order, via exec. Popped-but-tombstoned events are dropped
// silently. exec is called with the event's own tick so actions that
// schedule further work anchor to the correct "now".
func (s *Scheduler) drainDue(target Tick, exec func(tick Tick, owner UnitID, action Action)) {
	for len(s.heap) > 0 && s.heap[0].tick <= target {
		evt := heap.Pop(&s.heap).(*scheduledEvent)
		delete(s.byHandle, evt.handle)
		if evt.tombstoned {
			continue
		}
		exec(evt.tick, evt.owner, evt.action)
	}
}

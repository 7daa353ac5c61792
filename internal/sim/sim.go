// Package sim implements the deterministic combat simulation core: a
// tick-driven clock and discrete-event scheduler, per-character combat
// state machines, a multi-modifier hit/damage resolver, and an
// auto-targeting loop. The package has no I/O and no concurrency; every
// mutation happens synchronously inside Advance or one of the command
// methods below, which is what makes two Sims built from the same seed
// and driven by the same command script produce identical state.
package sim

import (
	"math"

	"skirmish/internal/spatial"
)

// Config bundles the construction-time parameters new_sim needs beyond a
// bare seed.
type Config struct {
	Seed        int64
	WorldWidth  float64 // feet
	WorldHeight float64 // feet
	MaxUnits    int
}

// DefaultConfig returns reasonable bounds for a small skirmish scenario.
func DefaultConfig(seed int64) Config {
	return Config{Seed: seed, WorldWidth: 1000, WorldHeight: 1000, MaxUnits: 64}
}

// Sim is the SimHandle of §6: every field a manager needs is an explicit
// member here rather than a package-level singleton, per §9's redesign
// note on global mutable state.
type Sim struct {
	catalog   *Catalog
	entities  *EntityStore
	scheduler *Scheduler
	rng       *RNG
	now       Tick
	paused    bool

	grid   *spatial.Grid
	config Config

	reactionByTarget map[UnitID][]UnitID

	notifications []Notification
}

// Notification is the structured record emitted for an ignored command,
// per §7's "ignored commands produce a structured notification via the
// outbound event stream" policy.
type Notification struct {
	Tick Tick
	Kind ErrorKind
	Unit UnitID
	Msg  string
}

// New constructs a fresh Sim (new_sim).
func New(cfg Config) *Sim {
	s := &Sim{
		catalog:          NewCatalog(),
		entities:         NewEntityStore(),
		scheduler:        NewScheduler(),
		rng:              NewRNG(cfg.Seed),
		config:           cfg,
		reactionByTarget: make(map[UnitID][]UnitID),
	}
	// Cell size tracks the catalog's own longest weapon range rather than
	// a flat constant: a query for targets in range never has to fan out
	// past the cells immediately surrounding the querying unit, and a
	// scenario with only short-range loadouts gets a finer-grained grid
	// for free.
	cellSize := FeetToPixels(s.catalog.MaxQueryRangeFeet())
	s.grid = spatial.NewGrid(0, 0, FeetToPixels(cfg.WorldWidth), FeetToPixels(cfg.WorldHeight), cellSize, cfg.MaxUnits)
	return s
}

// Catalog exposes the weapon catalog for scenario construction and for
// the read-only API layer.
func (s *Sim) Catalog() *Catalog { return s.catalog }

// Now returns the current tick.
func (s *Sim) Now() Tick { return s.now }

// Pause and Resume are presentation-layer hints; the core has no wall
// clock of its own and Advance works identically regardless of this flag.
// External callers (e.g. the HTTP layer) consult it to decide whether to
// keep calling advance.
func (s *Sim) Pause()  { s.paused = true }
func (s *Sim) Resume() { s.paused = false }
func (s *Sim) Paused() bool { return s.paused }

// AddUnit implements add_unit.
func (s *Sim) AddUnit(spec UnitSpec) UnitID {
	if spec.Char.HoldState == "" {
		fresh := NewCharacter(spec.Char.HealthMax)
		fresh.Dexterity, fresh.Strength, fresh.Reflexes, fresh.Coolness =
			spec.Char.Dexterity, spec.Char.Strength, spec.Char.Reflexes, spec.Char.Coolness
		fresh.RangedWeaponID, fresh.MeleeWeaponID = spec.Char.RangedWeaponID, spec.Char.MeleeWeaponID
		fresh.CombatMode = spec.Char.CombatMode
		fresh.WeaponSkillLevel = spec.Char.WeaponSkillLevel
		fresh.QuickdrawSkillLevel = spec.Char.QuickdrawSkillLevel
		fresh.AutoTargeting = spec.Char.AutoTargeting
		fresh.TargetZone = spec.Char.TargetZone
		if w, ok := s.catalog.Get(fresh.RangedWeaponID); ok && w.IsRanged() {
			fresh.RangedAmmo = w.Ranged.MaxAmmunition
			fresh.CurrentWeaponState = w.InitialState
		} else if w, ok := s.catalog.Get(fresh.MeleeWeaponID); ok {
			fresh.CurrentWeaponState = w.InitialState
		}
		spec.Char = fresh
	}
	return s.entities.Add(spec)
}

// RemoveUnit implements remove_unit: cancels all owner events first,
// then releases every per-manager sidetable entry, then tombstones the
// entity.
func (s *Sim) RemoveUnit(id UnitID) {
	s.scheduler.CancelOwner(id)
	s.cleanupCharacter(id)
	for target, watchers := range s.reactionByTarget {
		for i, w := range watchers {
			if w == id {
				s.reactionByTarget[target] = append(watchers[:i], watchers[i+1:]...)
				break
			}
		}
	}
	s.entities.Remove(id)
}

// MoveUnitTo implements move_unit_to: sets the movement target only; the
// position-integration pass at the end of Advance moves the unit toward
// it over subsequent ticks.
func (s *Sim) MoveUnitTo(id UnitID, x, y float64) {
	u, ok := s.entities.Get(id)
	if !ok {
		return
	}
	u.TX, u.TY = x, y
	u.Moving = true
}

// GetUnit implements get_unit.
func (s *Sim) GetUnit(id UnitID) (UnitView, bool) {
	u, ok := s.entities.Get(id)
	if !ok {
		return UnitView{}, false
	}
	return newUnitView(u), true
}

// GetCharacter implements get_character.
func (s *Sim) GetCharacter(id UnitID) (CharacterView, bool) {
	u, ok := s.entities.Get(id)
	if !ok {
		return CharacterView{}, false
	}
	return newCharacterView(u.ID, &u.Char), true
}

// IterUnits implements iter_units: a deterministic, insertion-ordered
// snapshot of every live unit.
func (s *Sim) IterUnits() []UnitView {
	units := s.entities.Iter()
	out := make([]UnitView, 0, len(units))
	for _, u := range units {
		out = append(out, newUnitView(u))
	}
	return out
}

// Notifications drains and returns notifications accumulated since the
// last call.
func (s *Sim) Notifications() []Notification {
	out := s.notifications
	s.notifications = nil
	return out
}

func (s *Sim) notify(tick Tick, e *Error) {
	if e == nil {
		return
	}
	s.notifications = append(s.notifications, Notification{Tick: tick, Kind: e.Kind, Unit: e.Unit, Msg: e.Msg})
}

// Advance implements advance(sim, ticks): processes due events strictly
// in (tick, seq) order, then runs the fixed per-tick pass (auto-target →
// melee pursuit → reaction monitor → position integration) once per
// simulated tick, per §5's ordering guarantees. advance(sim, 0) is a
// no-op, satisfying the §8 round-trip law.
func (s *Sim) Advance(ticks uint32) {
	if ticks == 0 {
		return
	}
	target := s.now + Tick(ticks)

	for s.now < target {
		nextTick := s.now + 1
		s.scheduler.drainDue(nextTick-1, s.dispatch)
		s.runTickPass()
		s.now = nextTick
	}
	// Drain any events exactly at the new boundary tick before returning
	// control (keeps "events for tick T fire before T+1" exact even when
	// Advance is called with ticks spanning multiple due events at the
	// same final tick).
	s.scheduler.drainDue(s.now, s.dispatch)
}

// runTickPass executes the fixed per-tick update order from §5, over
// units in unit_id (insertion) order.
func (s *Sim) runTickPass() {
	units := s.entities.Iter()
	for _, u := range units {
		if u.Char.Incapacitated {
			continue
		}
		s.UpdateAutoTarget(u)
	}
	for _, u := range units {
		if u.Char.Incapacitated {
			continue
		}
		s.UpdateMeleePursuit(u)
	}
	for _, u := range units {
		s.UpdateReactionMonitor(u)
	}
	s.integratePositions(units)
}

// movementSpeedPxPerTick converts a MovementType to a straight-line
// speed; pathfinding around obstacles is out of scope (§1), so
// integration is pure linear interpolation toward (TX, TY).
func movementSpeedPxPerTick(mt MovementType) float64 {
	feetPerSecond := map[MovementType]float64{
		MoveStill: 0, MoveCrawl: 2, MoveWalk: 4, MoveJog: 8, MoveRun: 14,
	}[mt]
	return FeetToPixels(feetPerSecond) / TicksPerSecond
}

func (s *Sim) integratePositions(units []*Unit) {
	s.grid.Clear()
	for _, u := range units {
		if !u.Moving || u.Char.Incapacitated {
			u.VX, u.VY = 0, 0
			s.grid.Insert(uint32(u.ID), u.X, u.Y)
			continue
		}
		dx, dy := u.TX-u.X, u.TY-u.Y
		dist := math.Hypot(dx, dy)
		speed := movementSpeedPxPerTick(u.Char.MovementType)
		if dist <= speed || speed == 0 {
			u.VX, u.VY = dx, dy
			u.X, u.Y = u.TX, u.TY
			u.Moving = false
		} else {
			ux, uy := dx/dist, dy/dist
			u.VX, u.VY = ux*speed, uy*speed
			u.X += u.VX
			u.Y += u.VY
		}
		s.grid.Insert(uint32(u.ID), u.X, u.Y)
	}
}

// dispatch type-switches a popped Action to its executing manager. This
// is the "interpreter" half of the tagged-Action-enum redesign in §9.
func (s *Sim) dispatch(tick Tick, owner UnitID, action Action) {
	switch a := action.(type) {
	case ActionCompleteWeaponState:
		s.execCompleteWeaponState(tick, a)
	case ActionFireShot:
		s.execFireShot(tick, a)
	case ActionMeleeImpact:
		s.execMeleeImpact(tick, a)
	case ActionMeleeRecoveryComplete:
		s.execMeleeRecoveryComplete(owner)
	case ActionReloadStep:
		s.execReloadStep(tick, owner)
	case ActionReloadComplete:
		s.execReloadComplete(owner)
	case ActionDefenseCooldownComplete:
		s.execDefenseCooldownComplete(owner)
	case ActionHesitationEnd:
		s.execHesitationEnd(tick, owner)
	case ActionReactionFire:
		s.execReactionFire(tick, a)
	case ActionReaimDelayComplete:
		s.execReaimDelayComplete(owner)
	}
}

package sim

import "sync/atomic"

// UnitView is the read-only projection returned by get_unit/iter_units.
type UnitView struct {
	ID      UnitID
	X, Y    float64
	Faction Faction
	Char    CharacterView
}

func newUnitView(u *Unit) UnitView {
	return UnitView{ID: u.ID, X: u.X, Y: u.Y, Faction: u.Faction, Char: newCharacterView(u.ID, &u.Char)}
}

// CharacterView is the read-only projection returned by get_character.
type CharacterView struct {
	ID                  UnitID
	HealthCurrent        int
	HealthMax            int
	Incapacitated        bool
	CombatMode           CombatMode
	CurrentWeaponState   string
	HoldState            string
	FiringPreference     FiringPreference
	AimingSpeed          AimingSpeed
	FiringMode           FiringMode
	RangedAmmo           int
	MultiShotCount       int
	AutoTargeting        bool
	TargetID             *UnitID
	IsAttacking          bool
	IsMovingToMelee      bool
	DefenseKind          DefenseKind
	Hesitating           bool
	BraveryFailures      int
	WoundCount           int
}

func newCharacterView(id UnitID, c *Character) CharacterView {
	var target *UnitID
	if c.TargetID != nil {
		t := *c.TargetID
		target = &t
	}
	return CharacterView{
		ID:                 id,
		HealthCurrent:       c.HealthCurrent,
		HealthMax:           c.HealthMax,
		Incapacitated:       c.Incapacitated,
		CombatMode:          c.CombatMode,
		CurrentWeaponState:  c.CurrentWeaponState,
		HoldState:           c.HoldState,
		FiringPreference:    c.FiringPreference,
		AimingSpeed:         c.AimingSpeed,
		FiringMode:          c.FiringMode,
		RangedAmmo:          c.RangedAmmo,
		MultiShotCount:      c.MultiShotCount,
		AutoTargeting:       c.AutoTargeting,
		TargetID:            target,
		IsAttacking:         c.IsAttacking,
		IsMovingToMelee:     c.IsMovingToMelee,
		DefenseKind:         c.Defense.Kind,
		Hesitating:          c.Hesitation.Active,
		BraveryFailures:     c.BraveryFailures,
		WoundCount:          len(c.Wounds),
	}
}

// Snapshot is a fully-detached copy of simulation state for read-only
// consumers (the HTTP/WebSocket API, telemetry) that must never observe
// a torn write from the tick loop.
type Snapshot struct {
	Tick  Tick
	Units []UnitView
}

// SnapshotPool is a triple-buffered lock-free publication point: the
// sim's own tick loop is the sole writer (Publish), while any number of
// reader goroutines call Load concurrently without blocking the writer.
// Grounded in the same pattern the teacher's engine used for its
// per-frame render snapshot — the combat core has no renderer, but the
// HTTP/WebSocket layer has the identical need to read consistent state
// while the tick loop keeps advancing.
type SnapshotPool struct {
	buffers [3]Snapshot
	current atomic.Uint32
}

// NewSnapshotPool constructs an empty pool.
func NewSnapshotPool() *SnapshotPool {
	return &SnapshotPool{}
}

// Publish writes snap into the next buffer slot and atomically swaps it
// in as current. Never called concurrently with itself: the sim's tick
// loop is single-threaded.
func (p *SnapshotPool) Publish(snap Snapshot) {
	cur := p.current.Load()
	next := (cur + 1) % 3
	p.buffers[next] = snap
	p.current.Store(next)
}

// Load returns the most recently published snapshot. Safe for
// concurrent callers.
func (p *SnapshotPool) Load() Snapshot {
	return p.buffers[p.current.Load()]
}

// Snapshot captures the current read-only view of every live unit, for
// publication to a SnapshotPool by the caller's tick loop.
func (s *Sim) Snapshot() Snapshot {
	return Snapshot{Tick: s.now, Units: s.IterUnits()}
}

package sim

// AimingSpeed controls the duration multiplier of the aiming state and
// the accuracy bonus/penalty that goes with it (§4.3). It is orthogonal
// to FiringPreference.
type AimingSpeed uint8

const (
	AimVeryCareful AimingSpeed = iota
	AimCareful
	AimNormal
	AimQuick
)

// FiringPreference selects whether progression stops at aiming (precise,
// slower) or pointed_from_hip (faster, -20 accuracy).
type FiringPreference uint8

const (
	FromAiming FiringPreference = iota
	FromHip
)

// CombatMode selects which of a character's two weapons is active.
type CombatMode uint8

const (
	ModeRanged CombatMode = iota
	ModeMelee
)

// MovementType is the shooter's own movement, feeding movement_mod.
type MovementType uint8

const (
	MoveStill MovementType = iota
	MoveCrawl
	MoveWalk
	MoveJog
	MoveRun
)

// Stance feeds the Hit Resolver's position_mod (target stance); it is
// independent of MovementType, which feeds movement_mod instead.
type Stance uint8

const (
	StanceStanding Stance = iota
	StanceCrouching
	StanceProne
)

// WoundSeverity classifies a single wound.
type WoundSeverity uint8

const (
	SeverityScratch WoundSeverity = iota
	SeverityLight
	SeveritySerious
	SeverityCritical
)

// DefenseKind is the Defense Manager's three-state machine.
type DefenseKind uint8

const (
	DefenseReady DefenseKind = iota
	DefenseDefending
	DefenseCooldown
)

// Wound is a single applied wound record.
type Wound struct {
	BodyPart   string
	Severity   WoundSeverity
	Damage     int
	SourceTick Tick
}

// DefenseState is the defender's current posture.
type DefenseState struct {
	Kind          DefenseKind
	CooldownUntil Tick
}

// PausedEvent is a scheduled event that was paused by hesitation, kept
// with its tick offset from the hesitation start so it can be resumed
// relative to the new "now" when hesitation ends.
type PausedEvent struct {
	RemainingTicks Tick
	Action         Action
}

// Hesitation tracks an in-progress hesitation window and the events it
// paused.
type Hesitation struct {
	Active    bool
	EndTick   Tick
	Paused    []PausedEvent
	EndHandle EventHandle
}

// Reaction is a deferred-attack trigger armed against a target's weapon
// state.
type Reaction struct {
	TargetID    UnitID
	BaselineState string
	TriggerTick *Tick
}

// Character is the per-unit combat state. Behavior lives in manager
// functions (weaponstate.go, aiming.go, burst.go, ...) that take a
// *Character plus the owning Sim; Character itself stays a plain data
// struct, per the manager-pattern decomposition this replaces the
// original god object with.
type Character struct {
	// Stats, each clamped to [1, 100].
	Dexterity int
	Strength  int
	Reflexes  int
	Coolness  int

	HealthMax     int
	HealthCurrent int
	Incapacitated bool

	RangedWeaponID string
	MeleeWeaponID  string
	CombatMode     CombatMode

	CurrentWeaponState string
	HoldState          string

	FiringPreference        FiringPreference
	PendingFiringPreference *FiringPreference

	AimingSpeed       AimingSpeed
	AimingStartedTick Tick
	AimingActive      bool

	RangedAmmo int
	FiringMode FiringMode

	MultiShotCount int
	MultiShotIndex int

	QuickdrawSkillLevel int
	WeaponSkillLevel    int

	AutoTargeting bool
	TargetID      *UnitID
	TargetZone    *Zone
	ReaimDelayUntil Tick
	FirstAttackOnTarget bool

	IsAttacking bool
	PendingFire bool // weapon-state progression toward "firing" is in flight for TargetID

	IsMovingToMelee      bool
	MeleeTargetID        *UnitID
	MeleeRecoveryEndTick Tick
	LastMeleePathTick    Tick
	LastMeleePathX       float64
	LastMeleePathY       float64

	Defense            DefenseState
	CounterWindowUntil Tick

	Hesitation Hesitation

	BraveryFailures int

	ReactionTarget *Reaction

	MovementType MovementType
	Stance       Stance

	Wounds []Wound
}

// NewCharacter returns a Character with full health and sane defaults.
// Callers then set weapon ids, stats and mode for their scenario.
func NewCharacter(healthMax int) Character {
	return Character{
		HealthMax:           healthMax,
		HealthCurrent:        healthMax,
		HoldState:            "aiming",
		FiringPreference:     FromAiming,
		AimingSpeed:          AimNormal,
		FiringMode:           FiringSingle,
		MultiShotCount:       1,
		CombatMode:           ModeRanged,
		MovementType:         MoveStill,
		Defense:              DefenseState{Kind: DefenseReady},
		FirstAttackOnTarget:  true,
	}
}

// ActiveWeaponID returns the weapon id active under the current combat mode.
func (c *Character) ActiveWeaponID() string {
	if c.CombatMode == ModeMelee {
		return c.MeleeWeaponID
	}
	return c.RangedWeaponID
}

// CanAct reports whether the character may accept new commands.
func (c *Character) CanAct() bool {
	return !c.Incapacitated
}

// IsHesitating reports whether the character is mid-hesitation.
func (c *Character) IsHesitating() bool {
	return c.Hesitation.Active
}

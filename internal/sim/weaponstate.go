package sim

// prepStates are the "preparation" states the ready-speed multiplier
// applies to. Aiming, firing, recovering and reloading are excluded —
// §4.2 is explicit that the multiplier never touches them.
var prepStates = map[string]bool{
	"drawing":             true,
	"unsling":             true,
	"unsheathing":         true,
	"switching_to_ranged": true,
	"switching_to_melee":  true,
}

// readyMultiplier computes the reflex/quickdraw speed multiplier for
// preparation-state transitions (§4.2).
func readyMultiplier(c *Character) float64 {
	reflexMod := statMod(c.Reflexes)
	reflexMultiplier := 1.0 - float64(reflexMod)/100
	quickdrawMultiplier := 1.0 - 0.05*float64(clampInt(c.QuickdrawSkillLevel, 0, skillLevelMax))
	return reflexMultiplier * quickdrawMultiplier
}

// aimingTimingMultiplier is the §4.3 timing column.
func aimingTimingMultiplier(speed AimingSpeed) float64 {
	switch speed {
	case AimVeryCareful:
		return 3.0
	case AimCareful:
		return 2.0
	case AimQuick:
		return 0.5
	default:
		return 1.0
	}
}

// effectiveStateDuration applies the ready multiplier to preparation
// states and the aiming-speed timing multiplier (plus VERY_CAREFUL's
// extra random delay) to the aiming state. Every other state runs at its
// base duration.
func (s *Sim) effectiveStateDuration(c *Character, stateName string, base int) int {
	switch {
	case prepStates[stateName]:
		return roundHalfEven(float64(base) * readyMultiplier(c))
	case stateName == "aiming":
		d := float64(base) * aimingTimingMultiplier(c.AimingSpeed)
		if c.AimingSpeed == AimVeryCareful {
			d += float64(s.rng.IntRange(120, 300))
		}
		return roundHalfEven(d)
	default:
		return base
	}
}

func roundHalfEven(v float64) int {
	// math.Round rounds half away from zero, which is what §4.2's
	// "round(...)" means here; durations are never negative.
	return int(v + 0.5)
}

// activeWeapon resolves the weapon currently governing c, per combat mode.
func (s *Sim) activeWeapon(c *Character) (Weapon, bool) {
	id := c.ActiveWeaponID()
	if id == "" {
		return Weapon{}, false
	}
	return s.catalog.Get(id)
}

// nextStateFor resolves the graph's next state for cur, applying the
// "ready" branch between aiming and pointed_from_hip that the static
// graph alone cannot express.
func nextStateFor(c *Character, graph StateGraph, cur string) (string, bool) {
	node, ok := graph[cur]
	if !ok {
		return "", false
	}
	if cur == "ready" {
		if c.FiringPreference == FromHip {
			return "pointed_from_hip", true
		}
		return "aiming", true
	}
	return node.NextState, true
}

// progressWeaponState schedules the next leg of progress toward stopAt,
// starting from c's current state. It is re-entered by
// execCompleteWeaponState until the stop state (or firing) is reached.
func (s *Sim) progressWeaponState(owner UnitID, u *Unit, stopAt string) *Error {
	c := &u.Char
	w, ok := s.activeWeapon(c)
	if !ok {
		return newErr(ErrInvalidStateTransition, owner, "no active weapon")
	}
	if !w.Graph.Has(c.CurrentWeaponState) {
		return newErr(ErrInvalidStateTransition, owner, "current state not in weapon graph")
	}
	if c.CurrentWeaponState == stopAt {
		return nil
	}
	next, ok := nextStateFor(c, w.Graph, c.CurrentWeaponState)
	if !ok || !w.Graph.Has(next) {
		return newErr(ErrInvalidStateTransition, owner, "target state not reachable")
	}
	node := w.Graph[c.CurrentWeaponState]
	dur := s.effectiveStateDuration(c, next, node.Ticks)
	if next == "aiming" || next == "pointed_from_hip" {
		c.AimingActive = true
		c.AimingStartedTick = s.now
	}
	_, err := s.scheduler.Schedule(s.now, s.now+Tick(dur), owner, true,
		ActionCompleteWeaponState{Owner: owner, NextState: next, StopAt: stopAt})
	if err != nil {
		return err.(*Error)
	}
	return nil
}

// execCompleteWeaponState is invoked by the scheduler when a
// ActionCompleteWeaponState fires.
func (s *Sim) execCompleteWeaponState(now Tick, a ActionCompleteWeaponState) {
	u, ok := s.entities.Get(a.Owner)
	if !ok || u.Char.Incapacitated {
		return
	}
	c := &u.Char
	c.CurrentWeaponState = a.NextState

	// "firing" is reached, not held at: the state graph already encodes
	// the ready→aiming/pointed_from_hip→firing path (§4.2/§4.3's prep and
	// aiming durations), so arriving here is what actually triggers the
	// shot sequence a beginRangedAttack call deferred.
	if a.NextState == "firing" {
		c.PendingFire = false
		if c.TargetID != nil {
			_ = s.StartFiringSequence(a.Owner, *c.TargetID)
		}
		return
	}
	if a.NextState == a.StopAt {
		return
	}
	_ = s.progressWeaponState(a.Owner, u, a.StopAt)
}

// beginRangedAttack drives a ranged attacker from its current weapon
// state through to "firing" before any shot is scheduled, per §4.2: a
// holstered or still-prepping weapon must pay its draw/ready/aiming
// durations first. If the weapon is already in the firing state (e.g.
// mid multi-shot sequence) the shot starts immediately; if progression
// toward firing is already in flight for this attacker, the call is a
// no-op rather than re-arming a second, redundant completion chain.
func (s *Sim) beginRangedAttack(attackerID UnitID, u *Unit, targetID UnitID) *Error {
	c := &u.Char
	if _, ok := s.activeWeapon(c); !ok {
		return newErr(ErrWeaponMismatch, attackerID, "no active ranged weapon")
	}
	if c.CurrentWeaponState == "firing" {
		return s.StartFiringSequence(attackerID, targetID)
	}
	if c.PendingFire {
		return nil
	}
	c.PendingFire = true
	return s.progressWeaponState(attackerID, u, "firing")
}

// switchCombatMode cancels all owner events, re-anchors the weapon state
// to the switching_to_* transitional state, resets hold_state, and
// schedules progression toward the new mode's ready state (§4.2,
// invariant 7 in §8).
func (s *Sim) switchCombatMode(owner UnitID, u *Unit) {
	c := &u.Char
	s.scheduler.CancelOwner(owner)
	c.HoldState = "aiming"
	c.MultiShotIndex = 0
	c.IsAttacking = false
	c.PendingFire = false

	if c.CombatMode == ModeRanged {
		c.CombatMode = ModeMelee
		c.CurrentWeaponState = "switching_to_melee"
		_ = s.progressWeaponState(owner, u, "melee_ready")
	} else {
		c.CombatMode = ModeRanged
		c.CurrentWeaponState = "switching_to_ranged"
		_ = s.progressWeaponState(owner, u, "ready")
	}
}

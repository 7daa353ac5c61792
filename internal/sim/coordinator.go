package sim

// Attack is the single entry point for all combat initiation commands
// (§6's attack), delegating to the ranged or melee manager according to
// combat mode and enforcing the invariants that span both (incapacitated
// actors, out-of-range handling per §7).
//
// hold stops weapon-state progression at the character's current
// hold_state instead of carrying through to firing.
func (s *Sim) Attack(attackerID, targetID UnitID, hold bool) *Error {
	u, ok := s.entities.Get(attackerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, attackerID, "unknown attacker")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, attackerID, "incapacitated")
	}
	target, ok := s.entities.Get(targetID)
	if !ok {
		return newErr(ErrOutOfRange, attackerID, "unknown target")
	}

	if c.TargetID == nil || *c.TargetID != targetID {
		tid := targetID
		c.TargetID = &tid
		c.FirstAttackOnTarget = true
	}

	if hold {
		c.HoldState = c.CurrentWeaponState
		return s.progressWeaponState(attackerID, u, c.HoldState)
	}

	if c.CombatMode == ModeMelee {
		// Out-of-range melee commands convert to pursuit inside
		// StartMeleeAttack rather than failing outright (§7 OutOfRange).
		return s.StartMeleeAttack(attackerID, targetID)
	}

	s.advanceMultiShotSequence(c)
	return s.beginRangedAttack(attackerID, u, targetID)
}

// InMeleeRangeUnits is a small convenience wrapper around InMeleeRange
// that resolves the attacker's active weapon first.
func InMeleeRangeUnits(attacker, target *Unit, cat *Catalog, c *Character) bool {
	id := c.ActiveWeaponID()
	w, ok := cat.Get(id)
	if !ok {
		return false
	}
	return InMeleeRange(attacker.X, attacker.Y, target.X, target.Y, w)
}

// allWeaponStates lists states in a fixed, deterministic cycling order
// for cycle_hold_state; only states present in the active weapon's graph
// are actually offered.
var allWeaponStates = []string{
	"holstered", "slung", "sheathed", "gripping_in_holster", "drawing", "unsling",
	"unsheathing", "ready", "pointed_from_hip", "aiming", "melee_ready",
}

// CycleHoldState implements cycle_hold_state: advances hold_state to the
// next allowed non-firing state of the active weapon's graph, wrapping
// around so that cycling through every reachable state returns to the
// original (the §8 round-trip law).
func (s *Sim) CycleHoldState(ownerID UnitID) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	w, ok := s.activeWeapon(c)
	if !ok {
		return newErr(ErrInvalidStateTransition, ownerID, "no active weapon")
	}

	var reachable []string
	for _, name := range allWeaponStates {
		if w.Graph.Has(name) {
			reachable = append(reachable, name)
		}
	}
	if len(reachable) == 0 {
		return newErr(ErrInvalidStateTransition, ownerID, "weapon graph has no holdable states")
	}

	idx := -1
	for i, name := range reachable {
		if name == c.HoldState {
			idx = i
			break
		}
	}
	c.HoldState = reachable[(idx+1)%len(reachable)]
	return nil
}

// SetFiringMode implements set_firing_mode, restricted to the weapon's
// advertised capability set.
func (s *Sim) SetFiringMode(ownerID UnitID, mode FiringMode) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	w, ok := s.activeWeapon(c)
	if !ok || !w.IsRanged() {
		return newErr(ErrWeaponMismatch, ownerID, "no active ranged weapon")
	}
	for _, m := range w.Ranged.AvailableFiringModes {
		if m == mode {
			c.FiringMode = mode
			return nil
		}
	}
	return newErr(ErrWeaponMismatch, ownerID, "firing mode unsupported by weapon")
}

// SetMovementType implements set_movement_type.
func (s *Sim) SetMovementType(ownerID UnitID, mt MovementType) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	if !u.Char.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	u.Char.MovementType = mt
	return nil
}

// ToggleCombatMode implements toggle_combat_mode.
func (s *Sim) ToggleCombatMode(ownerID UnitID) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	if !u.Char.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	s.switchCombatMode(ownerID, u)
	return nil
}

// ToggleAutoTarget implements toggle_auto_target.
func (s *Sim) ToggleAutoTarget(ownerID UnitID) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	if !u.Char.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	u.Char.AutoTargeting = !u.Char.AutoTargeting
	return nil
}

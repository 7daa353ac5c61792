package sim

// CycleMultiShotCount implements cycle_multi_shoot_count: 1→2→3→4→5→1.
func (s *Sim) CycleMultiShotCount(ownerID UnitID) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	c.MultiShotCount++
	if c.MultiShotCount > 5 {
		c.MultiShotCount = 1
	}
	return nil
}

// nextMultiShotAimingSpeed is one level faster than cur, clamped at
// QUICK, implementing §4.13's per-shot degradation.
func nextMultiShotAimingSpeed(cur AimingSpeed) AimingSpeed {
	switch cur {
	case AimVeryCareful:
		return AimCareful
	case AimCareful:
		return AimNormal
	default:
		return AimQuick
	}
}

// advanceMultiShotSequence steps a character through its multi-shot
// sequence (ranged mode only; ignored in melee per §4.13). It is driven
// from the firing-sequence completion path: the first shot keeps the
// selected aiming speed, subsequent shots in the same sequence degrade
// one level each. Interruption (any path that calls endFiringSequence)
// resets MultiShotIndex to 0.
func (s *Sim) advanceMultiShotSequence(c *Character) {
	if c.CombatMode == ModeMelee {
		return
	}
	if c.MultiShotIndex == 0 {
		c.MultiShotIndex = 1
		return
	}
	if c.MultiShotIndex >= c.MultiShotCount {
		c.MultiShotIndex = 0
		return
	}
	c.MultiShotIndex++
	c.AimingSpeed = nextMultiShotAimingSpeed(c.AimingSpeed)
}

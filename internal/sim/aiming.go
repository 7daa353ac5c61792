package sim

// aimingAccuracy is the §4.3 accuracy column.
func aimingAccuracy(speed AimingSpeed) int {
	switch speed {
	case AimVeryCareful, AimCareful:
		return 15
	case AimQuick:
		return -20
	default:
		return 0
	}
}

// aimingSkillMultiplier doubles the weapon-skill bonus under VERY_CAREFUL.
func aimingSkillMultiplier(speed AimingSpeed) int {
	if speed == AimVeryCareful {
		return 2
	}
	return 1
}

// immuneToFirstAttackPenalty reports whether speed exempts a shot from
// the new-target first-attack penalty.
func immuneToFirstAttackPenalty(speed AimingSpeed) bool {
	return speed == AimVeryCareful
}

// aimingDurationBonus is the earned-bonus curve (Open Question 2,
// resolved in SPEC_FULL.md §12): non-decreasing, bounded at +10, and
// strictly below VERY_CAREFUL's own +15 so the two stack without either
// swamping the other.
func aimingDurationBonus(duration Tick) int {
	bonus := int(duration) / 12
	if bonus > 10 {
		bonus = 10
	}
	return bonus
}

// SetAimingSpeed applies set_aiming_speed, enforcing the VERY_CAREFUL
// gating rules from §4.3: pistols/rifles require skill ≥ 1, every other
// ranged weapon class disallows it outright (falls back to CAREFUL and
// reports WeaponMismatch, per §7).
func (s *Sim) SetAimingSpeed(owner UnitID, speed AimingSpeed) *Error {
	u, ok := s.entities.Get(owner)
	if !ok {
		return newErr(ErrIncapacitatedActor, owner, "unknown unit")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, owner, "incapacitated")
	}
	if speed == AimVeryCareful {
		w, ok := s.activeWeapon(c)
		if !ok || !w.IsRanged() {
			c.AimingSpeed = AimCareful
			return newErr(ErrWeaponMismatch, owner, "VERY_CAREFUL requires an active ranged weapon")
		}
		switch w.Ranged.Class {
		case ClassPistol, ClassRifle:
			if c.WeaponSkillLevel < 1 {
				c.AimingSpeed = AimCareful
				return newErr(ErrWeaponMismatch, owner, "VERY_CAREFUL requires skill level >= 1")
			}
		default:
			c.AimingSpeed = AimCareful
			return newErr(ErrWeaponMismatch, owner, "VERY_CAREFUL is unavailable for this weapon class")
		}
	}
	c.AimingSpeed = speed
	return nil
}

// ToggleFiringPreference applies toggle_firing_preference with the
// mid-sequence rules from §4.3: an immediate re-anchor if currently at
// aiming/pointed_from_hip, a queued change if firing/recovering,
// otherwise it just governs the next scheduled target state.
func (s *Sim) ToggleFiringPreference(owner UnitID) *Error {
	u, ok := s.entities.Get(owner)
	if !ok {
		return newErr(ErrIncapacitatedActor, owner, "unknown unit")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, owner, "incapacitated")
	}
	next := FromHip
	if c.FiringPreference == FromHip {
		next = FromAiming
	}

	switch c.CurrentWeaponState {
	case "aiming", "pointed_from_hip":
		c.FiringPreference = next
		if next == FromHip {
			c.CurrentWeaponState = "pointed_from_hip"
		} else {
			c.CurrentWeaponState = "aiming"
		}
	case "firing", "recovering":
		c.PendingFiringPreference = &next
	default:
		c.FiringPreference = next
	}
	return nil
}

// resolvePendingFiringPreference is invoked on recovery completion to
// apply a preference change queued mid-sequence.
func resolvePendingFiringPreference(c *Character) {
	if c.PendingFiringPreference != nil {
		c.FiringPreference = *c.PendingFiringPreference
		c.PendingFiringPreference = nil
	}
}

// firingPreferenceStopState returns the state progression should stop at
// given the current preference.
func firingPreferenceStopState(c *Character) string {
	if c.FiringPreference == FromHip {
		return "pointed_from_hip"
	}
	return "aiming"
}

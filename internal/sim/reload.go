package sim

// Reload applies the reload command (§4.5, §6): schedules a
// SINGLE_ROUND loop or a single FULL_MAGAZINE completion, per the active
// ranged weapon's ReloadType.
func (s *Sim) Reload(ownerID UnitID) *Error {
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
	if c.RangedAmmo >= w.Ranged.MaxAmmunition {
		return nil
	}

	s.InterruptFiringSequence(ownerID)
	c.CurrentWeaponState = "reloading"

	if w.Ranged.ReloadType == ReloadFullMagazine {
		s.scheduler.Schedule(s.now, s.now+Tick(w.Ranged.ReloadTicks), ownerID, true,
			ActionReloadComplete{Owner: ownerID})
		return nil
	}

	s.scheduler.Schedule(s.now, s.now+Tick(w.Ranged.ReloadTicks), ownerID, true,
		ActionReloadStep{Owner: ownerID})
	return nil
}

func (s *Sim) execReloadComplete(owner UnitID) {
	u, ok := s.entities.Get(owner)
	if !ok {
		return
	}
	w, ok := s.activeWeapon(&u.Char)
	if !ok {
		return
	}
	u.Char.RangedAmmo = w.Ranged.MaxAmmunition
	u.Char.CurrentWeaponState = firingPreferenceStopState(&u.Char)
}

// execReloadStep performs one +1 SINGLE_ROUND iteration and reschedules
// itself until full or interrupted (an interruption tombstones this
// event via CancelOwner, so re-entry here always means "still reloading").
func (s *Sim) execReloadStep(now Tick, owner UnitID) {
	u, ok := s.entities.Get(owner)
	if !ok {
		return
	}
	c := &u.Char
	w, ok := s.activeWeapon(c)
	if !ok {
		return
	}
	if c.RangedAmmo < w.Ranged.MaxAmmunition {
		c.RangedAmmo++
	}
	if c.RangedAmmo >= w.Ranged.MaxAmmunition {
		c.CurrentWeaponState = firingPreferenceStopState(c)
		return
	}
	s.scheduler.Schedule(now, now+Tick(w.Ranged.ReloadTicks), owner, true, ActionReloadStep{Owner: owner})
}

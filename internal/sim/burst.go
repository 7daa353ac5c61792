package sim

// StartFiringSequence begins the shot sequence appropriate to the active
// ranged weapon's current firing mode (§4.4): a single shot, a fixed
// burst, or continuous full-auto. Shots 2+ in burst/full-auto always
// carry the -20 burst_penalty; that is applied inside computeHitChance
// via shotIndex, not duplicated here.
func (s *Sim) StartFiringSequence(shooterID, targetID UnitID) *Error {
	u, ok := s.entities.Get(shooterID)
	if !ok {
		return newErr(ErrIncapacitatedActor, shooterID, "unknown shooter")
	}
	c := &u.Char
	if !c.CanAct() {
		return newErr(ErrIncapacitatedActor, shooterID, "incapacitated")
	}
	w, ok := s.activeWeapon(c)
	if !ok || !w.IsRanged() {
		return newErr(ErrWeaponMismatch, shooterID, "no active ranged weapon")
	}
	if c.RangedAmmo <= 0 {
		return newErr(ErrNoAmmunition, shooterID, "out of ammunition")
	}
	if err := s.scheduler.CheckAttackInterval(shooterID, s.now); err != nil {
		return err.(*Error)
	}

	total := 1
	switch c.FiringMode {
	case FiringBurst:
		total = minInt(w.Ranged.BurstSize, c.RangedAmmo)
	case FiringFullAuto:
		total = c.RangedAmmo // upper bound; each shot re-checks ammo/interruption
	}
	if total < 1 {
		total = 1
	}

	c.IsAttacking = true
	s.scheduler.MarkAttackScheduled(shooterID, s.now)

	for i := 1; i <= total; i++ {
		offset := Tick((i - 1) * w.Ranged.FiringDelay)
		s.scheduler.Schedule(s.now, s.now+offset, shooterID, true,
			ActionFireShot{Owner: shooterID, Target: targetID, ShotIndex: i, BurstTotal: total})
	}
	return nil
}

// execFireShot fires one shot of a sequence, applies its result, and —
// for FULL_AUTO — schedules the next shot unless interrupted per the
// §4.4 interruption matrix (mode switch, new manual attack, hesitation,
// and ammo exhaustion stop the sequence; target incapacitation does not).
func (s *Sim) execFireShot(now Tick, a ActionFireShot) {
	u, ok := s.entities.Get(a.Owner)
	if !ok || u.Char.Incapacitated || u.Char.IsHesitating() {
		return
	}
	c := &u.Char
	w, ok := s.activeWeapon(c)
	if !ok || !w.IsRanged() || c.CombatMode != ModeRanged {
		return
	}
	if c.RangedAmmo <= 0 {
		s.endFiringSequence(a.Owner, c)
		return
	}

	c.RangedAmmo--
	result, _ := s.ResolveRangedShot(a.Owner, a.Target, a.ShotIndex)
	c.FirstAttackOnTarget = false

	if result.Hit {
		s.ApplyWound(a.Target, result.BodyPart, result.Severity, result.Damage)
	}
	for _, st := range result.Stray {
		if st.Hit {
			s.ApplyWound(st.Target, "torso", st.Severity, st.Damage)
		}
	}

	if c.FiringMode == FiringFullAuto && a.ShotIndex >= a.BurstTotal && c.RangedAmmo > 0 {
		s.scheduler.Schedule(now, now+Tick(w.Ranged.FiringDelay), a.Owner, true,
			ActionFireShot{Owner: a.Owner, Target: a.Target, ShotIndex: a.ShotIndex + 1, BurstTotal: a.ShotIndex + 1})
		return
	}

	if a.ShotIndex >= a.BurstTotal {
		s.endFiringSequence(a.Owner, c)
	}
}

func (s *Sim) endFiringSequence(owner UnitID, c *Character) {
	c.IsAttacking = false
	c.MultiShotIndex = 0
	resolvePendingFiringPreference(c)
}

// InterruptFiringSequence stops an in-progress burst/auto sequence for
// one of the four interrupting reasons in §4.4's matrix. Target
// incapacitation is deliberately NOT a caller of this function.
func (s *Sim) InterruptFiringSequence(owner UnitID) {
	s.scheduler.CancelOwner(owner)
	if u, ok := s.entities.Get(owner); ok {
		u.Char.IsAttacking = false
		u.Char.PendingFire = false
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

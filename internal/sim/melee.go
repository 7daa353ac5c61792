package sim

import "math"

// characterRadiusFeet is the 1.5-ft-per-character constant used by the
// edge-to-edge reach formula (§4.6).
const characterRadiusFeet = 1.5

// pursuitThrottleTicks is how often melee pursuit recomputes its path.
const pursuitThrottleTicks = 10

// pursuitRepathThresholdFeet is how far a target must move before its
// path is recomputed.
const pursuitRepathThresholdFeet = 3

// chaseLimitFeet abandons pursuit beyond this distance.
const chaseLimitFeet = 50

// reaimDelayTicks is the post-target-incapacitation pause before the
// auto-targeter searches again (§4.11).
const reaimDelayTicks Tick = 15

// InMeleeRange implements the §4.6 edge-to-edge range test.
func InMeleeRange(attackerX, attackerY, targetX, targetY float64, w Weapon) bool {
	centerDistPx := math.Hypot(targetX-attackerX, targetY-attackerY)
	edgeToEdgePx := centerDistPx - 2*characterRadiusFeet*PixelsPerFoot
	return edgeToEdgePx <= w.TotalReachFeet()*PixelsPerFoot
}

// CanAttackMelee implements the §4.6 recovery lockout.
func (s *Sim) CanAttackMelee(c *Character) bool {
	return s.now >= c.MeleeRecoveryEndTick
}

// StartMeleeAttack initiates (or continues pursuing toward) a melee
// attack against targetID, per §4.6 item 1-2.
func (s *Sim) StartMeleeAttack(attackerID, targetID UnitID) *Error {
	attackerUnit, ok := s.entities.Get(attackerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, attackerID, "unknown attacker")
	}
	attacker := &attackerUnit.Char
	if !attacker.CanAct() {
		return newErr(ErrIncapacitatedActor, attackerID, "incapacitated")
	}
	if !s.CanAttackMelee(attacker) {
		return nil
	}
	targetUnit, ok := s.entities.Get(targetID)
	if !ok || targetUnit.Char.Incapacitated {
		return newErr(ErrOutOfRange, attackerID, "invalid melee target")
	}
	w, ok := s.activeWeapon(attacker)
	if !ok || !w.IsMelee() {
		return newErr(ErrWeaponMismatch, attackerID, "no active melee weapon")
	}

	if InMeleeRange(attackerUnit.X, attackerUnit.Y, targetUnit.X, targetUnit.Y, w) {
		return s.scheduleMeleeAttackSequence(attackerID, attackerUnit, targetID, w)
	}

	attacker.IsMovingToMelee = true
	attacker.MeleeTargetID = &targetID
	attackerUnit.TX, attackerUnit.TY = targetUnit.X, targetUnit.Y
	attackerUnit.Moving = true
	attacker.LastMeleePathTick = s.now
	attacker.LastMeleePathX, attacker.LastMeleePathY = targetUnit.X, targetUnit.Y
	return nil
}

// scheduleMeleeAttackSequence schedules melee_ready -> melee_attacking ->
// impact -> melee_recovering -> melee_ready, enforcing the 5-tick
// attack-interval rule.
func (s *Sim) scheduleMeleeAttackSequence(attackerID UnitID, attackerUnit *Unit, targetID UnitID, w Weapon) *Error {
	if err := s.scheduler.CheckAttackInterval(attackerID, s.now); err != nil {
		return err.(*Error)
	}
	c := &attackerUnit.Char
	c.CurrentWeaponState = "melee_attacking"
	c.IsAttacking = true
	c.IsMovingToMelee = false
	attackerUnit.Moving = false

	s.scheduler.MarkAttackScheduled(attackerID, s.now)
	_, err := s.scheduler.Schedule(s.now, s.now+Tick(w.Melee.AttackSpeed), attackerID, true,
		ActionMeleeImpact{Owner: attackerID, Target: targetID})
	if err != nil {
		return err.(*Error)
	}
	return nil
}

// execMeleeImpact resolves the damage roll, possibly consulting the
// Defense Manager, then schedules recovery.
func (s *Sim) execMeleeImpact(now Tick, a ActionMeleeImpact) {
	attackerUnit, ok := s.entities.Get(a.Owner)
	if !ok {
		return
	}
	w, ok := s.activeWeapon(&attackerUnit.Char)
	if !ok || !w.IsMelee() {
		s.finishMeleeRecovery(a.Owner, attackerUnit, w)
		return
	}

	defenseRoll := 0
	if defenderUnit, ok := s.entities.Get(a.Target); ok && !defenderUnit.Char.Incapacitated {
		defenseRoll = s.rollDefense(defenderUnit, a.Owner, now)
	}

	result, _ := s.ResolveMeleeHit(a.Owner, a.Target, defenseRoll)
	if result.Hit {
		s.ApplyWound(a.Target, result.BodyPart, result.Severity, result.Damage)
	}

	s.finishMeleeRecovery(a.Owner, attackerUnit, w)
}

// finishMeleeRecovery schedules melee_recovering -> melee_ready and, on
// that completion, enforces the critical invariant from §4.6/§8: clear
// is_attacking and reset the scheduling sentinel.
func (s *Sim) finishMeleeRecovery(attackerID UnitID, attackerUnit *Unit, w Weapon) {
	c := &attackerUnit.Char
	cooldown := 20
	if w.Melee != nil {
		cooldown = w.Melee.AttackCooldown
	}
	c.CurrentWeaponState = "melee_recovering"
	c.MeleeRecoveryEndTick = s.now + Tick(cooldown)
	s.scheduler.Schedule(s.now, c.MeleeRecoveryEndTick, attackerID, true,
		ActionMeleeRecoveryComplete{Owner: attackerID})
}

// execMeleeRecoveryComplete is the invariant-8 regression fix: without
// this, the auto-targeter's next 5-tick check sees a stale
// last_attack_scheduled_tick and raises a spurious InvalidSchedule.
func (s *Sim) execMeleeRecoveryComplete(owner UnitID) {
	u, ok := s.entities.Get(owner)
	if !ok {
		return
	}
	u.Char.CurrentWeaponState = "melee_ready"
	u.Char.IsAttacking = false
	s.scheduler.ResetAttackSentinel(owner)
}

// UpdateMeleePursuit advances in-progress pursuit for one character; it
// is called on the throttled §4.6 cadence from the per-tick pass.
func (s *Sim) UpdateMeleePursuit(u *Unit) {
	c := &u.Char
	if !c.IsMovingToMelee || c.MeleeTargetID == nil {
		return
	}
	targetID := *c.MeleeTargetID
	targetUnit, ok := s.entities.Get(targetID)
	if !ok || targetUnit.Char.Incapacitated {
		s.abandonPursuit(c)
		return
	}

	distFeet := PixelsToFeet(math.Hypot(targetUnit.X-u.X, targetUnit.Y-u.Y))
	if distFeet > chaseLimitFeet {
		s.abandonPursuit(c)
		return
	}
	if c.CombatMode != ModeMelee {
		s.abandonPursuit(c)
		return
	}

	w, ok := s.activeWeapon(c)
	if ok && InMeleeRange(u.X, u.Y, targetUnit.X, targetUnit.Y, w) {
		c.IsMovingToMelee = false
		u.Moving = false
		_ = s.scheduleMeleeAttackSequence(u.ID, u, targetID, w)
		return
	}

	if s.now-c.LastMeleePathTick >= pursuitThrottleTicks {
		moved := PixelsToFeet(math.Hypot(targetUnit.X-c.LastMeleePathX, targetUnit.Y-c.LastMeleePathY))
		if moved > pursuitRepathThresholdFeet {
			u.TX, u.TY = targetUnit.X, targetUnit.Y
			c.LastMeleePathX, c.LastMeleePathY = targetUnit.X, targetUnit.Y
		}
		c.LastMeleePathTick = s.now
	}
}

func (s *Sim) abandonPursuit(c *Character) {
	c.IsMovingToMelee = false
	c.MeleeTargetID = nil
}

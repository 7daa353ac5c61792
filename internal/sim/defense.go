package sim

// defenseCooldownTicks is the §4.7 COOLDOWN duration.
const defenseCooldownTicks Tick = 60

// counterWindowTicks is how long a successful parry keeps a
// counter-attack window open.
const counterWindowTicks Tick = 15

// CanDefend reports whether c may attempt a defense roll right now.
func (c *Character) CanDefend() bool {
	if c.Incapacitated || c.CombatMode != ModeMelee || c.IsHesitating() {
		return false
	}
	return c.Defense.Kind == DefenseReady
}

// rollDefense runs the §4.7 defense score roll for defenderUnit against
// an incoming melee attack from attackerID, transitions READY ->
// DEFENDING -> (scheduled) COOLDOWN, and returns the defense score to be
// subtracted from the attacker's hit chance.
func (s *Sim) rollDefense(defenderUnit *Unit, attackerID UnitID, now Tick) int {
	c := &defenderUnit.Char
	if !c.CanDefend() {
		return 0
	}

	w, ok := s.activeWeapon(c)
	defendScore := 0
	if ok && w.IsMelee() {
		defendScore = w.Melee.DefendScore
	}
	score := defendScore + statMod(c.Dexterity) + skillMod(c) - (-woundMod(c))

	c.Defense.Kind = DefenseDefending
	s.scheduler.Schedule(now, now+defenseCooldownTicks, defenderUnit.ID, true,
		ActionDefenseCooldownComplete{Owner: defenderUnit.ID})

	attackerRoll := s.rng.IntRange(1, 100)
	if score >= attackerRoll {
		c.CounterWindowUntil = now + counterWindowTicks
	}

	return score
}

// execDefenseCooldownComplete returns the defender to READY (§4.7).
func (s *Sim) execDefenseCooldownComplete(owner UnitID) {
	u, ok := s.entities.Get(owner)
	if !ok {
		return
	}
	u.Char.Defense.Kind = DefenseReady
}

// HasCounterWindow reports whether c may skip normal scheduling and
// immediately initiate a counter-attack.
func (c *Character) HasCounterWindow(now Tick) bool {
	return now < c.CounterWindowUntil
}

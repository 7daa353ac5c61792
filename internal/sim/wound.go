package sim

// hesitationTicks is the §4.10 duration table.
func hesitationTicks(sev WoundSeverity) Tick {
	switch sev {
	case SeverityLight:
		return 15
	case SeveritySerious:
		return 60
	case SeverityCritical:
		return 60
	default:
		return 0
	}
}

// ApplyWound runs the full §4.10 sequence: append the wound, clamp
// health, force incapacitation on CRITICAL or zero health, compute and
// stack hesitation, and — for SERIOUS/CRITICAL — run the bravery check.
func (s *Sim) ApplyWound(targetID UnitID, bodyPart string, sev WoundSeverity, damage int) {
	u, ok := s.entities.Get(targetID)
	if !ok {
		return
	}
	c := &u.Char
	if c.Incapacitated {
		return
	}

	c.Wounds = append(c.Wounds, Wound{BodyPart: bodyPart, Severity: sev, Damage: damage, SourceTick: s.now})

	c.HealthCurrent -= damage
	if c.HealthCurrent < 0 {
		c.HealthCurrent = 0
	}
	if sev == SeverityCritical {
		c.HealthCurrent = 0
	}

	if c.HealthCurrent == 0 {
		c.Incapacitated = true
		s.scheduler.CancelOwner(targetID)
		s.cleanupCharacter(targetID)
		return
	}

	s.applyHesitation(targetID, u, hesitationTicks(sev))

	if sev == SeveritySerious || sev == SeverityCritical {
		s.runBraveryCheck(c)
	}
}

// applyHesitation pauses c's pending events and extends (never resets)
// the hesitation end tick, per §4.10 item 5-6.
func (s *Sim) applyHesitation(owner UnitID, u *Unit, duration Tick) {
	if duration == 0 {
		return
	}
	c := &u.Char

	if !c.Hesitation.Active {
		c.Hesitation.Active = true
		c.Hesitation.EndTick = s.now + duration
		c.Hesitation.Paused = s.pauseOwnerEvents(owner)
		h, _ := s.scheduler.Schedule(s.now, c.Hesitation.EndTick, owner, true, ActionHesitationEnd{Owner: owner})
		c.Hesitation.EndHandle = h
		return
	}

	// Already hesitating: stack the duration by extending end_tick and
	// re-anchoring the end-of-hesitation event, without disturbing the
	// already-paused sidelist. The previously scheduled end event must
	// be cancelled first — otherwise it still fires at the old, shorter
	// end_tick and resumes everything early.
	s.scheduler.Cancel(c.Hesitation.EndHandle)
	c.Hesitation.EndTick += duration
	h, _ := s.scheduler.Schedule(s.now, c.Hesitation.EndTick, owner, true, ActionHesitationEnd{Owner: owner})
	c.Hesitation.EndHandle = h
}

// pauseOwnerEvents removes owner's pending events from the scheduler and
// returns them with their remaining offset from now, for later resume.
func (s *Sim) pauseOwnerEvents(owner UnitID) []PausedEvent {
	var paused []PausedEvent
	for _, evt := range s.scheduler.heap {
		if evt.tombstoned || !evt.hasOwner || evt.owner != owner {
			continue
		}
		if _, isHesitationEnd := evt.action.(ActionHesitationEnd); isHesitationEnd {
			continue
		}
		remaining := evt.tick - s.now
		paused = append(paused, PausedEvent{RemainingTicks: remaining, Action: evt.action})
		evt.tombstoned = true
	}
	return paused
}

// execHesitationEnd resumes paused events relative to the new "now"
// (the resume policy chosen for Open Question 1; see SPEC_FULL.md §12).
func (s *Sim) execHesitationEnd(now Tick, owner UnitID) {
	u, ok := s.entities.Get(owner)
	if !ok {
		return
	}
	c := &u.Char
	paused := c.Hesitation.Paused
	c.Hesitation.Active = false
	c.Hesitation.Paused = nil

	for _, pe := range paused {
		s.scheduler.Schedule(now, now+pe.RemainingTicks, owner, true, pe.Action)
	}
}

// braveryThreshold is the target a d100+coolness_mod roll must clear.
const braveryThreshold = 50

// runBraveryCheck implements §4.10 item 7: `d100 + coolness_mod >= threshold`.
func (s *Sim) runBraveryCheck(c *Character) {
	roll := s.rng.IntRange(1, 100)
	if roll+statMod(c.Coolness) >= braveryThreshold {
		return
	}
	if c.BraveryFailures < 6 {
		c.BraveryFailures++
	}
}

// cleanupCharacter releases every per-character sidetable entry owned by
// a manager, as required whenever a character leaves the scenario
// (incapacitation does not remove the entity, but it does retire the
// manager-owned scratch state the way removal does).
func (s *Sim) cleanupCharacter(id UnitID) {
	delete(s.reactionByTarget, id)
}

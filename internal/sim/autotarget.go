package sim

import "math"

// ValidateTarget implements §4.11 item 1: a target is valid iff it
// exists, is not incapacitated, is hostile, and is within the attacker's
// active weapon's maximum range (melee uses TotalReachFeet as its range).
func (s *Sim) ValidateTarget(attacker *Unit, targetID UnitID) bool {
	target, ok := s.entities.Get(targetID)
	if !ok || target.Char.Incapacitated {
		return false
	}
	if !Hostile(attacker.Faction, target.Faction) {
		return false
	}
	w, ok := s.activeWeapon(&attacker.Char)
	if !ok {
		return false
	}
	distFeet := PixelsToFeet(math.Hypot(target.X-attacker.X, target.Y-attacker.Y))
	maxRange := w.TotalReachFeet()
	if w.IsRanged() {
		maxRange = w.Ranged.MaxRangeFeet
	}
	return distFeet <= maxRange
}

// findReplacementTarget implements §4.11 item 2: zone priority first,
// then nearest-hostile-in-range, ties broken by lowest unit_id.
func (s *Sim) findReplacementTarget(attacker *Unit) (UnitID, bool) {
	w, ok := s.activeWeapon(&attacker.Char)
	if !ok {
		return 0, false
	}
	maxRange := w.TotalReachFeet()
	if w.IsRanged() {
		maxRange = w.Ranged.MaxRangeFeet
	}

	candidates := s.entities.Hostiles(attacker.ID)

	if zone := attacker.Char.TargetZone; zone != nil {
		var best *Unit
		for _, u := range candidates {
			if u.Char.Incapacitated {
				continue
			}
			fx, fy := PixelsToFeet(u.X), PixelsToFeet(u.Y)
			if !zone.Contains(fx, fy) {
				continue
			}
			if best == nil || u.ID < best.ID {
				best = u
			}
		}
		if best != nil {
			return best.ID, true
		}
	}

	// The nearest-in-range scan is the one that actually scales with
	// world population, so it runs against the broad-phase grid instead
	// of the linear Hostiles() list: only units sharing (or neighboring)
	// the attacker's cell are candidates at all, and the narrow-phase
	// distance/faction/incapacitation checks below run on that much
	// smaller set.
	rangePixels := FeetToPixels(maxRange)
	var best *Unit
	bestDist := math.MaxFloat64
	for _, id := range s.grid.QueryRadius(attacker.X, attacker.Y, rangePixels) {
		u, ok := s.entities.Get(UnitID(id))
		if !ok || u.ID == attacker.ID || u.Char.Incapacitated {
			continue
		}
		if !Hostile(attacker.Faction, u.Faction) {
			continue
		}
		distFeet := PixelsToFeet(math.Hypot(u.X-attacker.X, u.Y-attacker.Y))
		if distFeet > maxRange {
			continue
		}
		if best == nil || distFeet < bestDist || (distFeet == bestDist && u.ID < best.ID) {
			best = u
			bestDist = distFeet
		}
	}
	if best != nil {
		return best.ID, true
	}
	return 0, false
}

// UpdateAutoTarget runs one tick of the §4.11 auto-targeting loop for a
// single character. Called from Sim.Advance's per-tick pass in unit_id
// order.
func (s *Sim) UpdateAutoTarget(u *Unit) {
	c := &u.Char
	if c.Incapacitated || !c.AutoTargeting || c.IsAttacking || c.IsMovingToMelee {
		return
	}
	if s.now < c.ReaimDelayUntil {
		return
	}

	valid := c.TargetID != nil && s.ValidateTarget(u, *c.TargetID)
	if !valid {
		if c.TargetID != nil {
			// The previous target just became invalid (usually
			// incapacitation): enforce the 15-tick reaiming delay
			// before searching again.
			c.TargetID = nil
			c.ReaimDelayUntil = s.now + reaimDelayTicks
			s.scheduler.Schedule(s.now, c.ReaimDelayUntil, u.ID, true, ActionReaimDelayComplete{Owner: u.ID})
			return
		}
		next, found := s.findReplacementTarget(u)
		if !found {
			return
		}
		c.TargetID = &next
		c.FirstAttackOnTarget = true
		valid = true
	}

	targetID := *c.TargetID
	if _, ok := s.entities.Get(targetID); !ok {
		return
	}

	if c.CombatMode == ModeMelee {
		// StartMeleeAttack does its own range check and converts to
		// pursuit when out of range, so there is nothing extra to
		// branch on here.
		_ = s.StartMeleeAttack(u.ID, targetID)
		return
	}

	if s.scheduler.CheckAttackInterval(u.ID, s.now) == nil {
		_ = s.beginRangedAttack(u.ID, u, targetID)
	}
}

// execReaimDelayComplete is a no-op placeholder: the next per-tick
// UpdateAutoTarget call naturally re-searches once now >= ReaimDelayUntil.
// The scheduled event exists so the delay is visible in the event queue
// and participates in cancel_owner like any other pending work.
func (s *Sim) execReaimDelayComplete(owner UnitID) {}

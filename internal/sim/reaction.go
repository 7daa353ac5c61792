package sim

// SetReactionTarget arms a reaction watch (§4.12): owner will fire on
// target the first tick target's weapon state differs from its current
// baseline.
func (s *Sim) SetReactionTarget(ownerID, targetID UnitID) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	if !u.Char.CanAct() {
		return newErr(ErrIncapacitatedActor, ownerID, "incapacitated")
	}
	target, ok := s.entities.Get(targetID)
	if !ok {
		return newErr(ErrOutOfRange, ownerID, "unknown reaction target")
	}

	if prev := u.Char.ReactionTarget; prev != nil {
		s.removeReactionWatcher(prev.TargetID, ownerID)
	}

	u.Char.ReactionTarget = &Reaction{
		TargetID:      targetID,
		BaselineState: target.Char.CurrentWeaponState,
	}
	s.reactionByTarget[targetID] = append(s.reactionByTarget[targetID], ownerID)
	return nil
}

// ClearReaction implements clear_reaction: clears target, baseline and
// trigger_tick.
func (s *Sim) ClearReaction(ownerID UnitID) *Error {
	u, ok := s.entities.Get(ownerID)
	if !ok {
		return newErr(ErrIncapacitatedActor, ownerID, "unknown unit")
	}
	if u.Char.ReactionTarget == nil {
		return nil
	}
	watched := u.Char.ReactionTarget.TargetID
	u.Char.ReactionTarget = nil
	s.removeReactionWatcher(watched, ownerID)
	return nil
}

func (s *Sim) removeReactionWatcher(target, watcher UnitID) {
	watchers := s.reactionByTarget[target]
	for i, id := range watchers {
		if id == watcher {
			s.reactionByTarget[target] = append(watchers[:i], watchers[i+1:]...)
			break
		}
	}
}

// UpdateReactionMonitor runs one tick of §4.12 for every watcher of
// target's current weapon state.
func (s *Sim) UpdateReactionMonitor(target *Unit) {
	watchers := s.reactionByTarget[target.ID]
	if len(watchers) == 0 {
		return
	}
	for _, watcherID := range watchers {
		watcherUnit, ok := s.entities.Get(watcherID)
		if !ok || watcherUnit.Char.Incapacitated {
			continue
		}
		rt := watcherUnit.Char.ReactionTarget
		if rt == nil || rt.TargetID != target.ID || rt.TriggerTick != nil {
			continue
		}
		if target.Char.CurrentWeaponState == rt.BaselineState {
			continue
		}
		delay := Tick(max64(1, 30-statMod(watcherUnit.Char.Reflexes)))
		trigger := s.now + delay
		rt.TriggerTick = &trigger
		s.scheduler.Schedule(s.now, trigger, watcherID, true,
			ActionReactionFire{Owner: watcherID, Target: target.ID})
	}
}

func (s *Sim) execReactionFire(now Tick, a ActionReactionFire) {
	u, ok := s.entities.Get(a.Owner)
	if !ok || u.Char.Incapacitated {
		return
	}
	if u.Char.CombatMode == ModeMelee {
		_ = s.StartMeleeAttack(a.Owner, a.Target)
	} else {
		if u.Char.TargetID == nil || *u.Char.TargetID != a.Target {
			tid := a.Target
			u.Char.TargetID = &tid
		}
		_ = s.beginRangedAttack(a.Owner, u, a.Target)
	}
}

func max64(a, b int) int {
	if a > b {
		return a
	}
	return b
}

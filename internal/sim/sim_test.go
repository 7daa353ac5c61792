package sim

import "testing"

func newTestSim(seed int64) *Sim {
	return New(DefaultConfig(seed))
}

// addSoldier builds the minimal UnitSpec AddUnit expects from a fresh
// caller: HealthMax, stats, and weapon ids, leaving HoldState empty so
// AddUnit derives the rest (full health, initial weapon state, starting
// ammunition) from the catalog itself.
func addSoldier(s *Sim, x, y float64, faction Faction, weaponID string, kind WeaponKind) UnitID {
	c := Character{HealthMax: 100, Dexterity: 50, Strength: 50, Reflexes: 50, Coolness: 50}
	if kind == KindMelee {
		c.MeleeWeaponID = weaponID
		c.CombatMode = ModeMelee
	} else {
		c.RangedWeaponID = weaponID
		c.CombatMode = ModeRanged
	}
	return s.AddUnit(UnitSpec{X: x, Y: y, Faction: faction, Char: c})
}

// TestDeterminism verifies the §8 determinism law: two Sims built from
// the same seed and driven by the same command script reach byte-
// identical outcomes.
func TestDeterminism(t *testing.T) {
	run := func() (int, int) {
		s := newTestSim(42)
		a := addSoldier(s, 0, 0, 1, "pistol", KindRanged)
		b := addSoldier(s, 147, 0, 2, "pistol", KindRanged)
		s.Attack(a, b, false)
		s.Advance(200)
		ca, _ := s.GetCharacter(a)
		cb, _ := s.GetCharacter(b)
		return ca.RangedAmmo, cb.HealthCurrent
	}
	ammo1, health1 := run()
	ammo2, health2 := run()
	if ammo1 != ammo2 || health1 != health2 {
		t.Errorf("non-deterministic outcome: (%d,%d) vs (%d,%d)", ammo1, health1, ammo2, health2)
	}
}

// TestAdvanceZeroIsNoOp covers the §8 round-trip law: advance(sim, 0)
// changes nothing.
func TestAdvanceZeroIsNoOp(t *testing.T) {
	s := newTestSim(1)
	before := s.Now()
	s.Advance(0)
	if s.Now() != before {
		t.Errorf("Advance(0) changed the clock: %d -> %d", before, s.Now())
	}
}

// TestScenarioBurstUZI reproduces scenario 2: a 3-round UZI burst fires
// exactly 3 shots at offsets 0, 6, 12 ticks, and ammo drops by 3 even
// though a mid-burst target incapacitation must not cancel the rest.
func TestScenarioBurstUZI(t *testing.T) {
	s := newTestSim(7)
	shooter := addSoldier(s, 0, 0, 1, "uzi", KindRanged)
	target := addSoldier(s, 147, 0, 2, "uzi", KindRanged)

	sc, _ := s.entities.Get(shooter)
	sc.Char.FiringMode = FiringBurst
	sc.Char.CurrentWeaponState = "firing" // already in firing state for this unit test

	if err := s.StartFiringSequence(shooter, target); err != nil {
		t.Fatalf("StartFiringSequence: %v", err)
	}

	// Incapacitate the target mid-burst; remaining shots must still fire.
	targetUnit, _ := s.entities.Get(target)
	targetUnit.Char.Incapacitated = true

	s.Advance(30)

	c, _ := s.GetCharacter(shooter)
	if c.RangedAmmo != 27 {
		t.Errorf("ammo after 3-round burst = %d, want 27", c.RangedAmmo)
	}
}

// TestScenarioMeleeRecoveryInvariant reproduces scenario 3: a sword
// attack started at tick 100 impacts at 125 and recovers at 245; at
// tick 246 the auto-targeter must not raise InvalidSchedule, because
// the scheduling sentinel was reset to NoSchedule at recovery.
func TestScenarioMeleeRecoveryInvariant(t *testing.T) {
	s := newTestSim(3)
	attacker := addSoldier(s, 0, 0, 1, "sword", KindMelee)
	target := addSoldier(s, 10, 0, 2, "sword", KindMelee)

	s.Advance(100)
	if err := s.Attack(attacker, target, false); err != nil {
		t.Fatalf("Attack at tick 100: %v", err)
	}

	s.Advance(146) // now at tick 246: impact at 125, recovery ends at 245

	if got := s.scheduler.LastAttackScheduledTick(attacker); got != NoSchedule {
		t.Errorf("last_attack_scheduled_tick at tick 246 = %d, want %d (reset at recovery)", got, NoSchedule)
	}

	// The auto-targeter must be able to schedule a fresh attack right now
	// without tripping the 5-tick interval guard.
	if err := s.scheduler.CheckAttackInterval(attacker, s.Now()); err != nil {
		t.Errorf("CheckAttackInterval at tick 246 raised %v, want nil", err)
	}
}

// TestScenarioVeryCarefulOnOtherWeapon reproduces scenario 4.
func TestScenarioVeryCarefulOnOtherWeapon(t *testing.T) {
	s := newTestSim(9)
	shooter := addSoldier(s, 0, 0, 1, "uzi", KindRanged) // ClassOther

	err := s.SetAimingSpeed(shooter, AimVeryCareful)
	if err == nil {
		t.Fatal("expected WeaponMismatch setting VERY_CAREFUL on an OTHER-class weapon")
	}
	if err.Kind != ErrWeaponMismatch {
		t.Errorf("got error kind %v, want WeaponMismatch", err.Kind)
	}
	c, _ := s.GetCharacter(shooter)
	if c.AimingSpeed != AimCareful {
		t.Errorf("aiming speed after rejected VERY_CAREFUL = %v, want CAREFUL fallback", c.AimingSpeed)
	}
}

// TestScenarioAutoTargetZonePriority reproduces scenario 5: zone
// priority beats plain nearest-distance, and out-of-range hostiles are
// excluded regardless of zone.
func TestScenarioAutoTargetZonePriority(t *testing.T) {
	s := newTestSim(11)
	attacker := addSoldier(s, 0, 0, 1, "rifle", KindRanged) // 500ft range

	au, _ := s.entities.Get(attacker)
	au.Char.TargetZone = &Zone{MinX: 10, MinY: 10, MaxX: 100, MaxY: 100}

	hostileA := addSoldier(s, FeetToPixels(5), FeetToPixels(5), 2, "rifle", KindRanged)   // outside zone, close
	hostileB := addSoldier(s, FeetToPixels(50), FeetToPixels(50), 2, "rifle", KindRanged) // inside zone
	_ = addSoldier(s, FeetToPixels(200), FeetToPixels(200), 2, "rifle", KindRanged)       // outside zone too, irrelevant once B matches

	target, found := s.findReplacementTarget(au)
	if !found {
		t.Fatal("expected a replacement target")
	}
	if target != hostileB {
		t.Errorf("selected target = %d, want %d (zone priority over nearer hostile A=%d)", target, hostileB, hostileA)
	}
}

// TestScenarioAutoTargetExcludesOutOfRange is the range-exclusion half
// of scenario 5, using a short-range weapon so the far hostile is
// actually outside max_range.
func TestScenarioAutoTargetExcludesOutOfRange(t *testing.T) {
	s := newTestSim(11)
	attacker := addSoldier(s, 0, 0, 1, "pistol", KindRanged) // 100ft range

	au, _ := s.entities.Get(attacker)
	near := addSoldier(s, FeetToPixels(5), FeetToPixels(5), 2, "pistol", KindRanged)
	_ = addSoldier(s, FeetToPixels(200), FeetToPixels(200), 2, "pistol", KindRanged) // beyond 100ft

	target, found := s.findReplacementTarget(au)
	if !found {
		t.Fatal("expected a replacement target")
	}
	if target != near {
		t.Errorf("selected target = %d, want the in-range hostile %d", target, near)
	}
}

// TestScenarioCriticalWoundCap reproduces scenario 6: a CRITICAL wound
// always forces health to 0 and incapacitation, even when raw damage is
// far less than current health, and cancels all pending owner events.
func TestScenarioCriticalWoundCap(t *testing.T) {
	s := newTestSim(5)
	target := addSoldier(s, 0, 0, 2, "pistol", KindRanged)
	tu, _ := s.entities.Get(target)
	tu.Char.HealthCurrent = 80

	s.scheduler.Schedule(s.Now(), s.Now()+50, target, true, ActionReloadComplete{Owner: target})

	s.ApplyWound(target, "chest", SeverityCritical, 12)

	c, _ := s.GetCharacter(target)
	if c.HealthCurrent != 0 {
		t.Errorf("health after critical wound = %d, want 0", c.HealthCurrent)
	}
	if !c.Incapacitated {
		t.Error("character should be incapacitated after a critical wound")
	}
	if s.scheduler.Pending(target) {
		t.Error("all owner events should be cancelled on incapacitation")
	}
}

// TestHesitationStacking covers the boundary behavior: two SERIOUS
// wounds at ticks 100 and 110 stack to end at 220, not 170 (max).
func TestHesitationStacking(t *testing.T) {
	s := newTestSim(13)
	target := addSoldier(s, 0, 0, 2, "pistol", KindRanged)

	s.Advance(100)
	s.ApplyWound(target, "chest", SeveritySerious, 20)

	s.Advance(10) // now at tick 110
	s.ApplyWound(target, "chest", SeveritySerious, 20)

	c, _ := s.entities.Get(target)
	if c.Char.Hesitation.EndTick != 220 {
		t.Errorf("stacked hesitation end_tick = %d, want 220", c.Char.Hesitation.EndTick)
	}
}

// TestMultiShotCountCyclesFiveToOne covers the boundary behavior:
// multi_shoot_count cycles 5 -> 1.
func TestMultiShotCountCyclesFiveToOne(t *testing.T) {
	s := newTestSim(1)
	shooter := addSoldier(s, 0, 0, 1, "pistol", KindRanged)
	u, _ := s.entities.Get(shooter)
	u.Char.MultiShotCount = 5

	s.CycleMultiShotCount(shooter)

	c, _ := s.GetCharacter(shooter)
	if c.MultiShotCount != 1 {
		t.Errorf("multi_shoot_count after cycling past 5 = %d, want 1", c.MultiShotCount)
	}
}

// TestReactionMonitorFiresOnWeaponStateChange arms a reaction watch and
// verifies it fires once the watched target's weapon state diverges
// from its baseline, after the reflex-based delay.
func TestReactionMonitorFiresOnWeaponStateChange(t *testing.T) {
	s := newTestSim(21)
	watcher := addSoldier(s, 0, 0, 1, "pistol", KindRanged)
	target := addSoldier(s, 147, 0, 2, "pistol", KindRanged)

	if err := s.SetReactionTarget(watcher, target); err != nil {
		t.Fatalf("SetReactionTarget: %v", err)
	}

	tu, _ := s.entities.Get(target)
	tu.Char.CurrentWeaponState = "aiming" // diverges from the recorded baseline "holstered"

	s.Advance(1)
	s.UpdateReactionMonitor(tu)

	wc, _ := s.entities.Get(watcher)
	if wc.Char.ReactionTarget == nil || wc.Char.ReactionTarget.TriggerTick == nil {
		t.Fatal("reaction should have armed a trigger tick once the baseline diverged")
	}
}

// TestRemoveUnitCleansUpReactionSidetables verifies both directions of
// the reaction reverse-index cleanup required by cleanup_character: a
// removed watcher is dropped from reactionByTarget's value lists, and a
// removed watched target's key is deleted outright.
func TestRemoveUnitCleansUpReactionSidetables(t *testing.T) {
	s := newTestSim(23)
	watcher := addSoldier(s, 0, 0, 1, "pistol", KindRanged)
	target := addSoldier(s, 147, 0, 2, "pistol", KindRanged)
	s.SetReactionTarget(watcher, target)

	s.RemoveUnit(watcher)
	if watchers := s.reactionByTarget[target]; len(watchers) != 0 {
		t.Errorf("removed watcher still listed: %v", watchers)
	}

	s.SetReactionTarget(addSoldier(s, 0, 0, 1, "pistol", KindRanged), target)
	s.RemoveUnit(target)
	if _, ok := s.reactionByTarget[target]; ok {
		t.Error("removed watched-target key should be deleted from reactionByTarget")
	}
}

// TestPersistenceRoundTrip verifies Export/Restore reproduces identical
// observable state and resumes identically.
func TestPersistenceRoundTrip(t *testing.T) {
	s := newTestSim(42)
	a := addSoldier(s, 0, 0, 1, "pistol", KindRanged)
	b := addSoldier(s, 147, 0, 2, "pistol", KindRanged)
	s.Attack(a, b, false)
	s.Advance(15)

	rec := s.Export()
	restored := Restore(rec)

	if restored.Now() != s.Now() {
		t.Fatalf("restored tick = %d, want %d", restored.Now(), s.Now())
	}

	origA, _ := s.GetCharacter(a)
	restA, _ := restored.GetCharacter(a)
	if origA.RangedAmmo != restA.RangedAmmo || origA.CurrentWeaponState != restA.CurrentWeaponState {
		t.Errorf("restored character state mismatch: %+v vs %+v", origA, restA)
	}

	s.Advance(100)
	restored.Advance(100)

	origA, _ = s.GetCharacter(a)
	restA, _ = restored.GetCharacter(a)
	if origA.RangedAmmo != restA.RangedAmmo {
		t.Errorf("divergent post-restore ammo: %d vs %d", origA.RangedAmmo, restA.RangedAmmo)
	}
}

package sim

import (
	"math"
	"testing"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestRangeModOptimalIsMaxBonus(t *testing.T) {
	mod, oor := rangeMod(0, 100)
	if oor {
		t.Fatal("distance 0 should never be out of range")
	}
	if !almostEqual(mod, 10, 0.001) {
		t.Errorf("rangeMod(0, 100) = %f, want 10", mod)
	}
}

func TestRangeModAtMaxRangeStillPlayable(t *testing.T) {
	// Boundary behavior: distance == max_range reaches -20, but is not
	// out of range.
	mod, oor := rangeMod(100, 100)
	if oor {
		t.Fatal("distance == max_range must still be playable, not out of range")
	}
	if !almostEqual(mod, -20, 0.001) {
		t.Errorf("rangeMod(100, 100) = %f, want -20", mod)
	}
}

func TestRangeModBeyondMaxRange(t *testing.T) {
	mod, oor := rangeMod(101, 100)
	if !oor {
		t.Fatal("distance beyond max_range must be out of range")
	}
	if mod != -50 {
		t.Errorf("rangeMod past max range = %f, want -50", mod)
	}
}

func TestRangeModAtTwentyOneFeetOfHundredFootPistol(t *testing.T) {
	// Scenario 1's shooter/target geometry: 21ft against a 100ft pistol
	// (optimal = 0.3*100 = 30ft; 21ft is inside optimal, so
	// mod = 10*(1 - 21/30) = 3.0).
	mod, oor := rangeMod(21, 100)
	if oor {
		t.Fatal("21ft against a 100ft weapon is in range")
	}
	if !almostEqual(mod, 3.0, 0.01) {
		t.Errorf("rangeMod(21, 100) = %f, want 3.0", mod)
	}
}

func TestClampIntBounds(t *testing.T) {
	if v := clampInt(-5, 0, 10); v != 0 {
		t.Errorf("clampInt(-5,0,10) = %d, want 0", v)
	}
	if v := clampInt(15, 0, 10); v != 10 {
		t.Errorf("clampInt(15,0,10) = %d, want 10", v)
	}
	if v := clampInt(5, 0, 10); v != 5 {
		t.Errorf("clampInt(5,0,10) = %d, want 5", v)
	}
}

func TestClampFloatBounds(t *testing.T) {
	if v := clampFloat(150, 0.01, 99.99); v != 99.99 {
		t.Errorf("clampFloat(150,...) = %f, want 99.99", v)
	}
	if v := clampFloat(-5, 0.01, 99.99); v != 0.01 {
		t.Errorf("clampFloat(-5,...) = %f, want 0.01", v)
	}
}

func TestSeverityBands(t *testing.T) {
	cases := []struct {
		dmg  int
		want WoundSeverity
	}{
		{5, SeverityScratch},
		{10, SeverityLight},
		{19, SeverityLight},
		{20, SeveritySerious},
		{34, SeveritySerious},
		{35, SeverityCritical},
		{100, SeverityCritical},
	}
	for _, c := range cases {
		if got := severityFor(c.dmg); got != c.want {
			t.Errorf("severityFor(%d) = %v, want %v", c.dmg, got, c.want)
		}
	}
}

func TestAimingDurationBonusZeroAtZeroDuration(t *testing.T) {
	// Boundary behavior: aiming duration 0 at fire gives zero earned bonus.
	if got := aimingDurationBonus(0); got != 0 {
		t.Errorf("aimingDurationBonus(0) = %d, want 0", got)
	}
}

func TestAimingDurationBonusMonotonicAndBounded(t *testing.T) {
	prev := aimingDurationBonus(0)
	for _, d := range []Tick{12, 24, 60, 120, 1000, 100000} {
		cur := aimingDurationBonus(d)
		if cur < prev {
			t.Errorf("aimingDurationBonus not monotonic: f(%d)=%d < previous %d", d, cur, prev)
		}
		if cur > 10 {
			t.Errorf("aimingDurationBonus(%d) = %d, want <= 10", d, cur)
		}
		prev = cur
	}
}

func TestBraveryModCapsAtSixFailures(t *testing.T) {
	c := NewCharacter(100)
	c.BraveryFailures = 6
	if got := braveryMod(&c); got != -30 {
		t.Errorf("braveryMod at 6 failures = %d, want -30", got)
	}
	c.BraveryFailures = 20
	if got := braveryMod(&c); got != -30 {
		t.Errorf("braveryMod at 20 failures = %d, want -30 (clamped)", got)
	}
}

func TestPixelFootConversionRoundTrips(t *testing.T) {
	ft := 21.0
	px := FeetToPixels(ft)
	if px != 147 {
		t.Errorf("FeetToPixels(21) = %f, want 147", px)
	}
	if back := PixelsToFeet(px); !almostEqual(back, ft, 0.0001) {
		t.Errorf("PixelsToFeet(FeetToPixels(21)) = %f, want 21", back)
	}
}

// TestComputeHitChanceScenario1 reproduces the spec's single-shot pistol
// baseline (dex=75, stationary shooter and target at 21ft against a
// 100ft pistol with 0 accuracy, NORMAL aim): base 50 + dex_mod(10) +
// range_mod(3) = 63%, isolated from the other modifiers (coolness,
// first-attack, skill) by neutralizing them so the two headline terms
// the spec calls out can be checked exactly.
func TestComputeHitChanceScenario1(t *testing.T) {
	s := New(DefaultConfig(42))
	shooter := NewCharacter(100)
	shooter.Dexterity = 75
	shooter.Reflexes = 60
	shooter.Coolness = 100 // neutralizes stress_mod
	shooter.AimingSpeed = AimNormal
	shooter.FirstAttackOnTarget = false // isolates dex+range from the -15 penalty

	pistol, _ := s.catalog.Get("pistol")

	chance, oor := s.computeHitChance(&shooter, 21, pistol, 1, 0, StanceStanding)
	if oor {
		t.Fatal("21ft against a 100ft pistol must be in range")
	}
	if !almostEqual(chance, 63, 0.5) {
		t.Errorf("hit chance = %f, want ~63 (50 base + 10 dex + 3 range)", chance)
	}
}

func TestStressModExtremes(t *testing.T) {
	if v := stressMod(100); v != 0 {
		t.Errorf("stressMod(100) = %d, want 0", v)
	}
	if v := stressMod(1); v > -39 || v < -40 {
		t.Errorf("stressMod(1) = %d, want ~-40", v)
	}
}

func TestBurstPenaltyAppliesFromSecondShot(t *testing.T) {
	if burstPenalty(1) != 0 {
		t.Error("shot 1 should carry no burst penalty")
	}
	if burstPenalty(2) != -20 {
		t.Error("shot 2 should carry the -20 burst penalty")
	}
	if burstPenalty(3) != -20 {
		t.Error("shot 3 should carry the -20 burst penalty")
	}
}

func TestFirstAttackPenaltyAppliesOnlyToShotOne(t *testing.T) {
	// Open Question 4's resolution.
	c := NewCharacter(100)
	c.FirstAttackOnTarget = true
	c.AimingSpeed = AimNormal
	if got := firstAttackPenalty(&c, 1); got != -15 {
		t.Errorf("firstAttackPenalty shot 1 = %d, want -15", got)
	}
	if got := firstAttackPenalty(&c, 2); got != 0 {
		t.Errorf("firstAttackPenalty shot 2 = %d, want 0 (burst_penalty already covers shots 2+)", got)
	}
}

func TestFirstAttackPenaltyImmuneUnderVeryCareful(t *testing.T) {
	c := NewCharacter(100)
	c.FirstAttackOnTarget = true
	c.AimingSpeed = AimVeryCareful
	if got := firstAttackPenalty(&c, 1); got != 0 {
		t.Errorf("firstAttackPenalty under VERY_CAREFUL = %d, want 0", got)
	}
}

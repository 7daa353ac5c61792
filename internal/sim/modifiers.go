package sim

import "math"

// statMod maps a [1,100] stat to a [-20,+20] modifier, the table §4.2
// refers to as "from stat modifier table". Linear and symmetric around
// the 50 midpoint.
func statMod(stat int) int {
	if stat < 1 {
		stat = 1
	}
	if stat > 100 {
		stat = 100
	}
	return int(math.Round(float64(stat-50) * 0.4))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// skillLevelMax is the chosen resolution of Open Question 3 (§9): a
// 0-10 scale keeps the "+5 per level" rule from swamping every other
// additive hit modifier the way a 0-100 scale would.
const skillLevelMax = 10

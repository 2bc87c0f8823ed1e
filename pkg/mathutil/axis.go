package mathutil

import (
	"math"
)

// NiceRange widens [min, max] to round bounds suitable for an axis with
// roughly tickCount ticks and returns the bounds and the tick step.
// A degenerate range is padded so the result always has a positive span.
func NiceRange(min, max float64, tickCount int) (lo, hi, step float64) {
	if tickCount < 2 {
		tickCount = 2
	}
	if !IsFinite(min) || !IsFinite(max) {
		return 0, 1, 1 / float64(tickCount-1)
	}
	if min > max {
		min, max = max, min
	}
	if min == max {
		pad := math.Abs(min) * 0.1
		if pad == 0 {
			pad = 1
		}
		min -= pad
		max += pad
	}

	step = niceNumber((max-min)/float64(tickCount-1), true)
	lo = math.Floor(min/step) * step
	hi = math.Ceil(max/step) * step
	return lo, hi, step
}

// Ticks returns the tick values from lo to hi inclusive using step.
func Ticks(lo, hi, step float64) []float64 {
	if step <= 0 || hi < lo {
		return nil
	}
	n := int(math.Round((hi-lo)/step)) + 1
	ticks := make([]float64, n)
	for i := range ticks {
		// Recompute from lo on every step to avoid accumulating float error.
		ticks[i] = cleanFloat(lo + float64(i)*step)
	}
	return ticks
}

// niceNumber returns a 1, 2, 5 or 10 multiple of a power of ten close to x.
func niceNumber(x float64, round bool) float64 {
	if x <= 0 {
		return 1
	}
	exp := math.Floor(math.Log10(x))
	f := x / math.Pow(10, exp)
	var nf float64
	if round {
		switch {
		case f < 1.5:
			nf = 1
		case f < 3:
			nf = 2
		case f < 7:
			nf = 5
		default:
			nf = 10
		}
	} else {
		switch {
		case f <= 1:
			nf = 1
		case f <= 2:
			nf = 2
		case f <= 5:
			nf = 5
		default:
			nf = 10
		}
	}
	return nf * math.Pow(10, exp)
}

func cleanFloat(x float64) float64 {
	return math.Round(x*1e9) / 1e9
}

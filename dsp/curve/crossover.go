package curve

import "math"

// DigitalCrossover carves a dead zone of the given width around zero,
// modeling crossover distortion of a class-B output stage. amount = 0 is
// the exact identity (the correction term divides by +Inf); amount = 1
// removes the zone entirely.
func DigitalCrossover(x, amount, width float64) float64 {
	den := math.Atanh(1-amount) + 1

	if math.Abs(x) < width {
		return x - x/den
	}

	return x - math.Copysign(width, x)/den
}

// AnalogCrossover models the same dead zone with a square-root transition
// instead of a hard edge. amount = 0 is the identity, amount = 1 the full
// hard zone; intermediate values cross-fade. The radicand of the transition
// curve is clamped to zero, where the raw formula could go negative near the
// width boundary.
func AnalogCrossover(x, amount, width float64) float64 {
	soft := 1 - amount

	trans := func(v float64) float64 {
		r := soft * (width - v)
		if r < 0 {
			r = 0
		}

		return (2*width + soft - 2.82842712*mathSqrt(r)) / 2
	}

	ax := math.Abs(x)

	var shaped float64
	if ax < width-soft/2 {
		shaped = (trans(ax) - trans(0)) * signum(x)
	} else {
		shaped = (ax - trans(0)) * signum(x)
	}

	return x + amount*(shaped-x)
}

// signum returns -1, 0 or +1. Zero input maps to zero so the crossover
// curves pass through the origin on both branches.
func signum(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

package curve

import "math"

// Hysteresis windows return the upper and lower bounding trajectories for a
// given input. The engine differentiates the chosen trajectory and
// accumulates it onto a running memory register, so the present output
// depends on whether the input was most recently rising or falling. At
// amount = 0 every window collapses to (x, x).

// DigitalWindow blends x against hard-limited copies shifted by +-width.
func DigitalWindow(x, amount, width float64) (upper, lower float64) {
	upper = hardLimit(x+width)*amount + x*(1-amount)
	lower = hardLimit(x-width)*amount + x*(1-amount)

	return upper, lower
}

// TapeWindow1 uses square-root trajectories with independently tanh-mapped
// amounts for the two branches; asym skews the loop. Both radicands are
// clamped to zero: the raw formulas take sqrt(x+1) and sqrt(1-x), which go
// negative outside the unit range.
func TapeWindow1(x, amount, asym float64) (upper, lower float64) {
	amtP := math.Tanh(amount * asym * 2)
	amtM := math.Tanh(amount * (1 - asym) * 2)

	rp := x + 1
	if rp < 0 {
		rp = 0
	}

	rm := 1 - x
	if rm < 0 {
		rm = 0
	}

	upper = (2.82842712*mathSqrt(rp)-2-x)*amtP + x*(1-amtP)
	lower = (2-x-2.82842712*mathSqrt(rm))*amtM + x*(1-amtM)

	return upper, lower
}

// TapeWindow2 is the legacy single-trajectory window: a fast hyperbolic
// secant scaled by the input slope dx. It returns an additive correction
// rather than a trajectory pair. width must be clamped away from zero at
// the call site.
func TapeWindow2(x, amount, width, dx float64) float64 {
	xs := x / width // narrower width makes the secant steeper
	x2 := xs * xs
	sech := 24 / ((x2+12)*x2 + 24)

	return sech * (width / 100) * amount * dx
}

// TubeWindow places rational resonance dips at +-asym.
func TubeWindow(x, amount, asym float64) (upper, lower float64) {
	dp := x - asym
	dm := -x - asym

	upper = x - 0.5/(1+25*dp*dp)*amount
	lower = x + 0.5/(1+25*dm*dm)*amount

	return upper, lower
}

func hardLimit(x float64) float64 {
	if math.Abs(x) > 1 {
		return math.Copysign(1, x)
	}

	return x
}

package noise

import "math"

// switchRateScale normalizes the hold probability to the sample period so
// the quantizer behaves the same at any rate (44100 * 8).
const switchRateScale = 352800.0

// Quantize models discrete magnetic-domain switching: the output either
// jumps to x or holds xPrev. The switch probability is the input slope
// scaled by (1-amount)^(period*switchRateScale), so fast-moving signals
// switch freely while slow ones hold. amount = 0 is the identity; near 1
// the output holds almost always.
//
// Exactly one variate is drawn per call, even on the identity path, so the
// stream sequence seen by later stages does not depend on the amount.
func Quantize(x, xPrev, period, amount float64, s *Stream) float64 {
	return QuantizeDraw(x, xPrev, period, amount, s.Float64())
}

// QuantizeDraw is Quantize with the uniform variate supplied by the caller,
// for engines that must draw it earlier to keep the stream order fixed.
func QuantizeDraw(x, xPrev, period, amount, r float64) float64 {
	if amount <= 0 {
		return x
	}

	dx := math.Abs((x - xPrev) / period)
	if r < dx*math.Pow(1-amount, period*switchRateScale) {
		return x
	}

	return xPrev
}

package curve

import "math"

const (
	// tubeSatGain is the input gain of the tube saturation tan/tanh blend.
	tubeSatGain = 1.4549654
	// tubeSatFadeEnd is the |x| above which the blend is pure tanh.
	tubeSatFadeEnd = 1.28741055
	// tubeSatPoleGuard keeps the tangent argument clear of the pole at pi/2.
	tubeSatPoleGuard = 1.45
	// tapeSat2InputLimit bounds the legacy continued-fraction curve to the
	// range where it tracks tanh and stays monotonic.
	tapeSat2InputLimit = 3.0
)

// TapeSat1 models tape saturation as a sine segment with linear tails,
// folded through a scaled tanh.
func TapeSat1(x float64) float64 {
	var s float64

	switch {
	case x < -1.4:
		s = 0.169967143*(x+1.4) - 0.98544972998
	case x > 1.4:
		s = 0.169967143*(x-1.4) + 0.98544972998
	default:
		s = math.Sin(x)
	}

	return math.Tanh(s * 0.8)
}

// TapeSat2 is the legacy tape saturation: a continued-fraction tanh
// approximation. The input is limited to +-3, beyond which the raw
// approximation diverges from tanh and loses monotonicity.
func TapeSat2(x float64) float64 {
	if x > tapeSat2InputLimit {
		x = tapeSat2InputLimit
	}

	if x < -tapeSat2InputLimit {
		x = -tapeSat2InputLimit
	}

	x2 := x * x

	return x / (1 + x2/(3+x2/(5+x2/(7+x2/13))))
}

// SoftClip models transformer saturation as a logistic log-ratio clip.
// Evaluated through a stable softplus so large inputs cannot overflow.
func SoftClip(x float64) float64 {
	return 0.2*(softplus(10*x+5)-softplus(10*x-5)) - 1
}

// softplus computes ln(1+e^a) without overflowing for large a.
func softplus(a float64) float64 {
	if a > 0 {
		return a + mathLog1p(mathExp(-a))
	}

	return mathLog1p(mathExp(a))
}

// TubeSat blends a tangent curve into a tanh curve as |x| grows, modeling
// the expansion-then-compression of a triode stage. The tangent argument is
// clamped away from its pole; the raw formula diverges near |x| = 1.08.
// Deliberately non-monotonic in the blend region.
func TubeSat(x float64) float64 {
	arg := x * tubeSatGain
	if arg > tubeSatPoleGuard {
		arg = tubeSatPoleGuard
	}

	if arg < -tubeSatPoleGuard {
		arg = -tubeSatPoleGuard
	}

	tg := math.Tan(arg) / 4
	sat := math.Tanh(tubeSatGain * x)

	fade := 1.0
	if ax := math.Abs(x); ax <= tubeSatFadeEnd {
		fade = ax / tubeSatFadeEnd
	}

	return clampUnit(tg*(fade-1) + sat*fade)
}

// MagSat is the arctangent "magnetic material" curve family. hardness > 0
// controls how sharp the knee is; the output is normalized to pass through
// (1, 1) and clamped to the unit range.
func MagSat(x, hardness float64) float64 {
	return clampUnit(math.Atan(hardness*x) / math.Atan(hardness))
}

// Saturate dispatches x through the curve selected by mode.
func Saturate(mode SaturationMode, x float64) float64 {
	switch mode {
	case SaturationTape1:
		return TapeSat1(x)
	case SaturationTape2:
		return TapeSat2(x)
	case SaturationClip:
		return SoftClip(x)
	case SaturationTube:
		return TubeSat(x)
	case SaturationMagnetic:
		return MagSat(x, magSatHardness)
	default:
		return TapeSat1(x)
	}
}

// magSatHardness is the knee used by the engine-facing Magnetic mode.
const magSatHardness = 4.0

func clampUnit(x float64) float64 {
	if x > 1 {
		return 1
	}

	if x < -1 {
		return -1
	}

	return x
}

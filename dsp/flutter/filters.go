package flutter

import (
	"fmt"
	"math"
)

// pole maps a cutoff frequency to the one-pole coefficient exp(-2*pi*f/sr).
func pole(cutoffHz, sampleRate float64) float64 {
	return math.Exp(-2 * math.Pi * cutoffHz / sampleRate)
}

func validateCutoff(cutoffHz, sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("sample rate must be positive and finite, got %v", sampleRate)
	}

	if cutoffHz <= 0 || math.IsNaN(cutoffHz) || math.IsInf(cutoffHz, 0) {
		return fmt.Errorf("cutoff must be positive and finite, got %v", cutoffHz)
	}

	if cutoffHz >= sampleRate/2 {
		return fmt.Errorf("cutoff %v exceeds Nyquist for sample rate %v", cutoffHz, sampleRate)
	}

	return nil
}

// LowPass2 is a critically damped two-pole low-pass in direct difference
// form:
//
//	y[n] = (1-w)^2 x[n] + 2w y[n-1] - w^2 y[n-2]
type LowPass2 struct {
	omega  float64
	z1, z2 float64
}

// NewLowPass2 creates the filter for the given cutoff.
func NewLowPass2(cutoffHz, sampleRate float64) (*LowPass2, error) {
	if err := validateCutoff(cutoffHz, sampleRate); err != nil {
		return nil, err
	}

	return &LowPass2{omega: pole(cutoffHz, sampleRate)}, nil
}

// Process filters one sample.
func (f *LowPass2) Process(x float64) float64 {
	g := 1 - f.omega

	y := g*g*x + 2*f.omega*f.z1 - f.omega*f.omega*f.z2
	f.z2 = f.z1
	f.z1 = y

	return y
}

// Reset clears the filter memory.
func (f *LowPass2) Reset() {
	f.z1 = 0
	f.z2 = 0
}

// HighPass1 is a one-pole high-pass:
//
//	y[n] = (1+w)/2 (x[n] - x[n-1]) + w y[n-1]
type HighPass1 struct {
	omega float64
	gain  float64
	xPrev float64
	yPrev float64
}

// NewHighPass1 creates the filter for the given cutoff.
func NewHighPass1(cutoffHz, sampleRate float64) (*HighPass1, error) {
	if err := validateCutoff(cutoffHz, sampleRate); err != nil {
		return nil, err
	}

	w := pole(cutoffHz, sampleRate)

	return &HighPass1{omega: w, gain: (1 + w) / 2}, nil
}

// Process filters one sample.
func (f *HighPass1) Process(x float64) float64 {
	y := f.gain*(x-f.xPrev) + f.omega*f.yPrev
	f.xPrev = x
	f.yPrev = y

	return y
}

// Reset clears the filter memory.
func (f *HighPass1) Reset() {
	f.xPrev = 0
	f.yPrev = 0
}

// OnePoleLP blends a sample against the previous output, the smoothing a
// worn playback head applies. cut = 0 is the identity; cut -> 1 darkens.
func OnePoleLP(x, yPrev, cut float64) float64 {
	return x*(1-cut) + yPrev*cut
}

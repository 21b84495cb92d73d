package curve

import "fmt"

// Mode enumerations are selected by a continuous [0,1] slider bucketed into
// equal ranges. A value exactly at a bucket edge resolves to the upper
// bucket; 1.0 resolves to the last bucket.

// BiasMode selects how the bias offset is applied before the nonlinear chain.
type BiasMode int

const (
	// BiasTape adds a constant offset, as in tape record bias.
	BiasTape BiasMode = iota
	// BiasTube shapes the signal with the swish curve instead.
	BiasTube

	biasModeCount // sentinel for validation
)

var biasModeNames = [biasModeCount]string{"Tape", "Tube"}

// String returns the name of the bias mode.
func (m BiasMode) String() string {
	if m >= 0 && m < biasModeCount {
		return biasModeNames[m]
	}

	return fmt.Sprintf("BiasMode(%d)", m)
}

// Valid reports whether m is a known bias mode.
func (m BiasMode) Valid() bool {
	return m >= 0 && m < biasModeCount
}

// BiasModeFromControl buckets a normalized control into a BiasMode.
func BiasModeFromControl(t float64) BiasMode {
	return BiasMode(bucket(t, int(biasModeCount)))
}

// CrossoverMode selects the crossover curve used by the hysteresis stage.
type CrossoverMode int

const (
	CrossoverDigital CrossoverMode = iota
	CrossoverAnalog

	crossoverModeCount
)

var crossoverModeNames = [crossoverModeCount]string{"Digital", "Analog"}

// String returns the name of the crossover mode.
func (m CrossoverMode) String() string {
	if m >= 0 && m < crossoverModeCount {
		return crossoverModeNames[m]
	}

	return fmt.Sprintf("CrossoverMode(%d)", m)
}

// Valid reports whether m is a known crossover mode.
func (m CrossoverMode) Valid() bool {
	return m >= 0 && m < crossoverModeCount
}

// CrossoverModeFromControl buckets a normalized control into a CrossoverMode.
func CrossoverModeFromControl(t float64) CrossoverMode {
	return CrossoverMode(bucket(t, int(crossoverModeCount)))
}

// HysteresisMode selects the window function used by the hysteresis stage.
type HysteresisMode int

const (
	HysteresisDigital HysteresisMode = iota
	HysteresisTape1
	HysteresisTape2
	HysteresisTube

	hysteresisModeCount
)

var hysteresisModeNames = [hysteresisModeCount]string{"Digital", "Tape 1", "Tape 2", "Tube"}

// String returns the name of the hysteresis mode.
func (m HysteresisMode) String() string {
	if m >= 0 && m < hysteresisModeCount {
		return hysteresisModeNames[m]
	}

	return fmt.Sprintf("HysteresisMode(%d)", m)
}

// Valid reports whether m is a known hysteresis mode.
func (m HysteresisMode) Valid() bool {
	return m >= 0 && m < hysteresisModeCount
}

// HysteresisModeFromControl buckets a normalized control into a HysteresisMode.
func HysteresisModeFromControl(t float64) HysteresisMode {
	return HysteresisMode(bucket(t, int(hysteresisModeCount)))
}

// SaturationMode selects the saturation curve of the drive stage.
type SaturationMode int

const (
	SaturationTape1 SaturationMode = iota
	SaturationTape2
	SaturationClip
	SaturationTube
	SaturationMagnetic

	saturationModeCount
)

var saturationModeNames = [saturationModeCount]string{
	"Tape 1", "Tape 2", "Clip", "Tube", "Magnetic",
}

// String returns the name of the saturation mode.
func (m SaturationMode) String() string {
	if m >= 0 && m < saturationModeCount {
		return saturationModeNames[m]
	}

	return fmt.Sprintf("SaturationMode(%d)", m)
}

// Valid reports whether m is a known saturation mode.
func (m SaturationMode) Valid() bool {
	return m >= 0 && m < saturationModeCount
}

// SaturationModeFromControl buckets a normalized control into a SaturationMode.
func SaturationModeFromControl(t float64) SaturationMode {
	return SaturationMode(bucket(t, int(saturationModeCount)))
}

// bucket maps t in [0,1] onto {0..n-1} with floor semantics.
func bucket(t float64, n int) int {
	if t <= 0 {
		return 0
	}

	idx := int(t * float64(n))
	if idx >= n {
		idx = n - 1
	}

	return idx
}

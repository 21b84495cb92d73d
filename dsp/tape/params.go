package tape

import (
	"math"

	"github.com/Flux-Audio/hysteresis/dsp/core"
	"github.com/Flux-Audio/hysteresis/dsp/curve"
)

// Control mapping constants. Every raw control arrives normalized to [0, 1]
// and is converted to its native range here, never inside the pipeline.
const (
	// preGainFloorDB / preGainSpanDB map the input fader to -60..+18 dB.
	preGainFloorDB = -60.0
	preGainSpanDB  = 78.0

	// postGainMax maps the output fader linearly to [0, 2].
	postGainMax = 2.0

	// eraseDepth keeps the mapped erase strength strictly positive so the
	// self-erasure stage never divides by zero.
	eraseDepth = 0.999

	// cutMax keeps the playback-head pole strictly inside the unit circle.
	cutMax = 0.999

	// hissDepth and the squared taper keep full-scale noise controls
	// from swamping the program material.
	hissDepth = 0.25
)

// UnityPreGain is the PreGain control value that maps to 0 dB.
const UnityPreGain = 60.0 / 78.0

// Controls is the flat, normalized control vector exposed to hosts. All
// fields live in [0, 1]; Map clamps before converting, so out-of-range
// writes degrade to the nearest valid value instead of corrupting the
// pipeline.
type Controls struct {
	PreGain     float64
	Drive       float64
	Bias        float64
	BiasMode    float64
	CrossAmount float64
	CrossWidth  float64
	CrossMode   float64
	HystAmount  float64
	HystWarp    float64
	HystMode    float64
	SatMode     float64
	Quantum     float64
	Wow         float64
	Flutter     float64
	Erase       float64
	Hiss        float64
	Grain       float64
	DryWet      float64
	Cut         float64
	PostGain    float64
}

// DefaultControls returns the neutral setting: unity gain in and out, fully
// wet, every degradation stage at zero.
func DefaultControls() Controls {
	return Controls{
		PreGain:  UnityPreGain,
		Bias:     0.5,
		HystWarp: 0.5,
		DryWet:   1,
		PostGain: 0.5,
	}
}

// Snapshot is the native-range parameter set consumed by the pipeline,
// produced once per block (or per sample) by Controls.Map.
type Snapshot struct {
	PreGain float64 // linear gain
	Drive   float64 // [0.5, ~74]
	Bias    float64 // [-1, 1]

	BiasMode  curve.BiasMode
	CrossMode curve.CrossoverMode
	HystMode  curve.HysteresisMode
	SatMode   curve.SaturationMode

	CrossAmount float64 // [0, 1]
	CrossWidth  float64 // [0, 1]
	HystAmount  float64 // [0, 1]
	HystWarp    float64 // [0, 1]

	Quantum float64 // [0, 1]
	Wow     float64 // [0, 1]
	Flutter float64 // [0, 1]
	Erase   float64 // (0, 1], 1 is transparent
	Hiss    float64 // [0, hissDepth]
	Grain   float64 // [0, 1]

	DryWet   float64 // [0, 1]
	Cut      float64 // [0, cutMax]
	PostGain float64 // [0, postGainMax]
}

// Map converts the raw control vector to native ranges. It is a pure
// function of the controls; no mapping depends on prior engine state.
func (c Controls) Map() Snapshot {
	pre := core.Clamp(c.PreGain, 0, 1)
	drive := core.Clamp(c.Drive, 0, 1)
	bias := core.Clamp(c.Bias, 0, 1)
	crossWidth := core.Clamp(c.CrossWidth, 0, 1)
	wow := core.Clamp(c.Wow, 0, 1)
	erase := core.Clamp(c.Erase, 0, 1)
	hiss := core.Clamp(c.Hiss, 0, 1)
	grain := core.Clamp(c.Grain, 0, 1)

	return Snapshot{
		PreGain: core.DBToLinear(preGainFloorDB + preGainSpanDB*pre),
		Drive:   math.Exp(5*drive*drive) * 0.5,
		Bias:    2*bias - 1,

		BiasMode:  curve.BiasModeFromControl(c.BiasMode),
		CrossMode: curve.CrossoverModeFromControl(c.CrossMode),
		HystMode:  curve.HysteresisModeFromControl(c.HystMode),
		SatMode:   curve.SaturationModeFromControl(c.SatMode),

		CrossAmount: core.Clamp(c.CrossAmount, 0, 1),
		CrossWidth:  crossWidth * crossWidth * crossWidth,
		HystAmount:  core.Clamp(c.HystAmount, 0, 1),
		HystWarp:    core.Clamp(c.HystWarp, 0, 1),

		Quantum: core.Clamp(c.Quantum, 0, 1),
		Wow:     wow * wow,
		Flutter: core.Clamp(c.Flutter, 0, 1),
		Erase:   (1 - erase*eraseDepth) * (1 - erase*eraseDepth),
		Hiss:    hiss * hiss * hissDepth,
		Grain:   grain * grain,

		DryWet:   core.Clamp(c.DryWet, 0, 1),
		Cut:      core.Clamp(c.Cut, 0, 1) * cutMax,
		PostGain: core.Clamp(c.PostGain, 0, 1) * postGainMax,
	}
}

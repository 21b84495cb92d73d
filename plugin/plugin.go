// Package plugin adapts the tape engine to a host-facing audio plugin
// surface: static metadata, an ordered bank of normalized atomic
// parameters, and a 32-bit float block-processing entry point.
//
// The parameter bank is the only state shared between threads. A control
// context (UI or automation) writes values while the audio thread reads
// them; each access is one atomic word, so per-parameter tearing across a
// block boundary is possible and accepted. Everything else (engine state,
// noise stream) is owned exclusively by the audio thread.
package plugin

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-vecmath"

	"github.com/Flux-Audio/hysteresis/dsp/core"
	"github.com/Flux-Audio/hysteresis/dsp/curve"
	"github.com/Flux-Audio/hysteresis/dsp/tape"
)

// Parameter indices, in host order.
const (
	ParamPreGain = iota
	ParamDrive
	ParamBias
	ParamBiasMode
	ParamCrossAmount
	ParamCrossWidth
	ParamCrossMode
	ParamHystAmount
	ParamHystWarp
	ParamHystMode
	ParamSatMode
	ParamQuantum
	ParamWow
	ParamFlutter
	ParamErase
	ParamHiss
	ParamGrain
	ParamDryWet
	ParamCut
	ParamPostGain

	ParamCount
)

// Info is the static, read-only plugin identity exposed once at
// initialization.
type Info struct {
	Name           string
	Vendor         string
	UniqueID       int32
	Version        int32
	Inputs         int
	Outputs        int
	Parameters     int
	Category       string
	LatencySamples int
}

type paramDef struct {
	name string
	def  float64
	text func(v float64) string
}

func formatPlain(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

var paramDefs = [ParamCount]paramDef{
	ParamPreGain: {"Pre-gain", tape.UnityPreGain, func(v float64) string {
		return fmt.Sprintf("%.1f dB", -60+78*v)
	}},
	ParamDrive:       {"Drive", 0, formatPlain},
	ParamBias:        {"Bias", 0.5, formatPlain},
	ParamBiasMode:    {"Bias Mode", 0, func(v float64) string { return curve.BiasModeFromControl(v).String() }},
	ParamCrossAmount: {"Crossover", 0, formatPlain},
	ParamCrossWidth:  {"Cross. Width", 0, formatPlain},
	ParamCrossMode:   {"Cross. Mode", 0, func(v float64) string { return curve.CrossoverModeFromControl(v).String() }},
	ParamHystAmount:  {"Hysteresis", 0, formatPlain},
	ParamHystWarp:    {"Hyst. Warp", 0.5, formatPlain},
	ParamHystMode:    {"Hyst. Mode", 0, func(v float64) string { return curve.HysteresisModeFromControl(v).String() }},
	ParamSatMode:     {"Saturation", 0, func(v float64) string { return curve.SaturationModeFromControl(v).String() }},
	ParamQuantum:     {"Quantum", 0, formatPlain},
	ParamWow:         {"Wow", 0, formatPlain},
	ParamFlutter:     {"Flutter", 0, formatPlain},
	ParamErase:       {"Erase", 0, formatPlain},
	ParamHiss:        {"Hiss", 0, formatPlain},
	ParamGrain:       {"Grain", 0, formatPlain},
	ParamDryWet:      {"Dry / Wet", 1, formatPlain},
	ParamCut:         {"Post-EQ", 0, formatPlain},
	ParamPostGain: {"Post-gain", 0.5, func(v float64) string {
		return fmt.Sprintf("x%.2f", 2*v)
	}},
}

// Processor binds the engine to the host contract.
type Processor struct {
	engine *tape.Engine

	params [ParamCount]atomic.Uint64
	peak   atomic.Uint64

	inL, inR   []float64
	outL, outR []float64
}

// New creates a processor at the given sample rate with every parameter at
// its default.
func New(sampleRate float64) (*Processor, error) {
	engine, err := tape.NewEngine(sampleRate)
	if err != nil {
		return nil, err
	}

	p := &Processor{engine: engine}
	for i := range paramDefs {
		p.params[i].Store(math.Float64bits(paramDefs[i].def))
	}

	return p, nil
}

// Info returns the plugin metadata.
func (p *Processor) Info() Info {
	return Info{
		Name:           "HYSTERESIS",
		Vendor:         "Flux Audio",
		UniqueID:       243723072,
		Version:        30,
		Inputs:         2,
		Outputs:        2,
		Parameters:     ParamCount,
		Category:       "Effect",
		LatencySamples: p.engine.LatencySamples(),
	}
}

// SetSampleRate reconfigures the engine between blocks.
func (p *Processor) SetSampleRate(sampleRate float64) error {
	return p.engine.SetSampleRate(sampleRate)
}

// LatencySamples returns the fixed transport latency.
func (p *Processor) LatencySamples() int {
	return p.engine.LatencySamples()
}

// ParameterCount returns the number of host-visible parameters.
func (p *Processor) ParameterCount() int {
	return ParamCount
}

// Parameter returns the normalized value at index, or 0 for an out-of-range
// index.
func (p *Processor) Parameter(index int) float64 {
	if index < 0 || index >= ParamCount {
		return 0
	}

	return math.Float64frombits(p.params[index].Load())
}

// SetParameter stores a normalized value at index, clamped to [0, 1].
// Out-of-range indices are ignored.
func (p *Processor) SetParameter(index int, v float64) {
	if index < 0 || index >= ParamCount {
		return
	}

	if math.IsNaN(v) {
		v = paramDefs[index].def
	}

	p.params[index].Store(math.Float64bits(core.Clamp(v, 0, 1)))
}

// ParameterName returns the display name at index, or "" for an
// out-of-range index.
func (p *Processor) ParameterName(index int) string {
	if index < 0 || index >= ParamCount {
		return ""
	}

	return paramDefs[index].name
}

// ParameterText returns the formatted display value at index, or "" for an
// out-of-range index.
func (p *Processor) ParameterText(index int) string {
	if index < 0 || index >= ParamCount {
		return ""
	}

	return paramDefs[index].text(p.Parameter(index))
}

// controls assembles the engine control vector from the parameter bank,
// one atomic load per parameter.
func (p *Processor) controls() tape.Controls {
	return tape.Controls{
		PreGain:     p.Parameter(ParamPreGain),
		Drive:       p.Parameter(ParamDrive),
		Bias:        p.Parameter(ParamBias),
		BiasMode:    p.Parameter(ParamBiasMode),
		CrossAmount: p.Parameter(ParamCrossAmount),
		CrossWidth:  p.Parameter(ParamCrossWidth),
		CrossMode:   p.Parameter(ParamCrossMode),
		HystAmount:  p.Parameter(ParamHystAmount),
		HystWarp:    p.Parameter(ParamHystWarp),
		HystMode:    p.Parameter(ParamHystMode),
		SatMode:     p.Parameter(ParamSatMode),
		Quantum:     p.Parameter(ParamQuantum),
		Wow:         p.Parameter(ParamWow),
		Flutter:     p.Parameter(ParamFlutter),
		Erase:       p.Parameter(ParamErase),
		Hiss:        p.Parameter(ParamHiss),
		Grain:       p.Parameter(ParamGrain),
		DryWet:      p.Parameter(ParamDryWet),
		Cut:         p.Parameter(ParamCut),
		PostGain:    p.Parameter(ParamPostGain),
	}
}

// ProcessFloat32 processes one block in the host's 32-bit sample format.
// One parameter snapshot is pulled for the whole block. Output slices must
// match the input length.
func (p *Processor) ProcessFloat32(inL, inR, outL, outR []float32) error {
	if len(inL) != len(inR) || len(outL) != len(inL) || len(outR) != len(inL) {
		return fmt.Errorf("block length mismatch: in %d/%d out %d/%d",
			len(inL), len(inR), len(outL), len(outR))
	}

	n := len(inL)
	p.inL = core.EnsureLen(p.inL, n)
	p.inR = core.EnsureLen(p.inR, n)
	p.outL = core.EnsureLen(p.outL, n)
	p.outR = core.EnsureLen(p.outR, n)

	for i := 0; i < n; i++ {
		p.inL[i] = float64(inL[i])
		p.inR[i] = float64(inR[i])
	}

	p.engine.SetControls(p.controls())

	if err := p.engine.ProcessBlock(p.inL, p.inR, p.outL, p.outR); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		outL[i] = float32(p.outL[i])
		outR[i] = float32(p.outR[i])
	}

	peak := math.Max(vecmath.MaxAbs(p.outL[:n]), vecmath.MaxAbs(p.outR[:n]))
	p.peak.Store(math.Float64bits(peak))

	return nil
}

// Peak returns the absolute output peak of the most recent block. Safe to
// read from the control context.
func (p *Processor) Peak() float64 {
	return math.Float64frombits(p.peak.Load())
}

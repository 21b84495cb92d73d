// Package tape implements a stereo magnetic-tape emulation: hysteresis,
// saturation, bias, stochastic domain quantization, wow and flutter,
// self-erasure and record/playback noise, composed into one fixed
// per-sample pipeline.
package tape

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/Flux-Audio/hysteresis/dsp/core"
	"github.com/Flux-Audio/hysteresis/dsp/curve"
	"github.com/Flux-Audio/hysteresis/dsp/delay"
	"github.com/Flux-Audio/hysteresis/dsp/flutter"
	"github.com/Flux-Audio/hysteresis/dsp/noise"
)

const (
	// wetLoopSeconds sizes the modulated tape loop. The dry loop is half
	// that, which places its single tap exactly at the wet loop's nominal
	// center read position so the dry/wet blend stays time-aligned.
	wetLoopSeconds = 0.1

	// dcServoGain sets the tracking speed of the output DC servo.
	dcServoGain = 0.25

	// satNormFloor guards the drive normalization against a vanishing
	// curve value.
	satNormFloor = 1e-9

	// windowWidthFloor keeps the legacy window's secant argument finite
	// when the warp control sits at zero.
	windowWidthFloor = 0.01

	minEngineSampleRate = 8000.0
	maxEngineSampleRate = 384000.0
)

// Option mutates engine construction parameters.
type Option func(*engineConfig) error

type engineConfig struct {
	seed     uint64
	controls Controls
}

// WithSeed sets the deterministic noise seed.
func WithSeed(seed uint64) Option {
	return func(cfg *engineConfig) error {
		cfg.seed = seed
		return nil
	}
}

// WithControls sets the initial control vector.
func WithControls(c Controls) Option {
	return func(cfg *engineConfig) error {
		cfg.controls = c
		return nil
	}
}

// channelState holds the per-channel feedback registers and tape loops.
// Each register is written exactly once per processed sample, in pipeline
// order, and never read by the other channel.
type channelState struct {
	wet *delay.Line
	dry *delay.Line

	xover  float64 // hysteresis slew-shaping output
	window float64 // hysteresis window-trajectory output
	quant  float64 // quantizer hold value
	erase  float64 // self-erasure output
	head   float64 // playback-head low-pass output
	dcAcc  float64 // DC servo accumulator

	rec  noise.Hiss
	play noise.Hiss
}

func (ch *channelState) reset() {
	ch.wet.Reset()
	ch.dry.Reset()
	ch.xover = 0
	ch.window = 0
	ch.quant = 0
	ch.erase = 0
	ch.head = 0
	ch.dcAcc = 0
	ch.rec.Reset()
	ch.play.Reset()
}

// Engine is the stereo channel processor. It owns all per-channel state,
// the shared noise stream and the shared transport modulator; everything is
// driven synchronously from a single audio thread.
type Engine struct {
	sampleRate float64
	period     float64
	seed       uint64

	controls Controls
	snap     Snapshot

	stream *noise.Stream
	mod    *flutter.Modulator

	left  channelState
	right channelState

	baseTap float64
	latency int
}

// NewEngine creates an engine for the given sample rate.
func NewEngine(sampleRate float64, opts ...Option) (*Engine, error) {
	cfg := engineConfig{
		seed:     noise.DefaultSeed,
		controls: DefaultControls(),
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	e := &Engine{seed: cfg.seed}
	e.SetControls(cfg.controls)

	if err := e.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}

	return e, nil
}

// SetSampleRate rescales every time-domain constant (loop lengths, filter
// coefficients, quantizer period) and resets all state. Only call between
// processing blocks.
func (e *Engine) SetSampleRate(sampleRate float64) error {
	if !core.IsFinite(sampleRate) || sampleRate < minEngineSampleRate || sampleRate > maxEngineSampleRate {
		return fmt.Errorf("engine sample rate must be in [%g, %g]: %f",
			minEngineSampleRate, maxEngineSampleRate, sampleRate)
	}

	wetLen := int(math.Round(sampleRate * wetLoopSeconds))
	if wetLen%2 != 0 {
		wetLen++
	}

	dryLen := wetLen / 2

	var err error
	if e.mod == nil {
		e.mod, err = flutter.NewModulator(sampleRate)
	} else {
		err = e.mod.SetSampleRate(sampleRate)
	}

	if err != nil {
		return err
	}

	for _, ch := range []*channelState{&e.left, &e.right} {
		ch.wet, err = delay.New(wetLen)
		if err != nil {
			return err
		}

		ch.dry, err = delay.New(dryLen)
		if err != nil {
			return err
		}
	}

	e.sampleRate = sampleRate
	e.period = 1 / sampleRate
	e.baseTap = float64(dryLen)
	e.latency = dryLen - 1
	e.Reset()

	return nil
}

// SetControls installs a new control vector and maps it to a snapshot. The
// snapshot stays in effect until the next call.
func (e *Engine) SetControls(c Controls) {
	e.controls = c
	e.snap = c.Map()
}

// Controls returns the current control vector.
func (e *Engine) Controls() Controls {
	return e.controls
}

// SampleRate returns the configured sample rate.
func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

// LatencySamples returns the fixed pipeline latency introduced by the tape
// transport. It never varies at runtime, so hosts can compensate exactly.
func (e *Engine) LatencySamples() int {
	return e.latency
}

// Reset returns the engine to its just-constructed state: registers zeroed,
// loops silent, oscillators at phase zero and the noise stream reseeded.
func (e *Engine) Reset() {
	if e.stream == nil {
		e.stream = noise.NewStream(e.seed)
	} else {
		e.stream.Reseed(e.seed)
	}

	e.mod.Reset()
	e.left.reset()
	e.right.reset()
}

// ProcessSample processes one stereo frame.
func (e *Engine) ProcessSample(l, r float64) (float64, float64) {
	outL, outR := e.processFrame(l*e.snap.PreGain, r*e.snap.PreGain)
	return outL * e.snap.PostGain, outR * e.snap.PostGain
}

// ProcessBlock processes a block of stereo samples. Output slices must
// match the input length; in-place processing (out aliasing in) is allowed.
func (e *Engine) ProcessBlock(inL, inR, outL, outR []float64) error {
	if len(inL) != len(inR) || len(outL) != len(inL) || len(outR) != len(inL) {
		return fmt.Errorf("block length mismatch: in %d/%d out %d/%d",
			len(inL), len(inR), len(outL), len(outR))
	}

	copy(outL, inL)
	copy(outR, inR)
	vecmath.ScaleBlockInPlace(outL, e.snap.PreGain)
	vecmath.ScaleBlockInPlace(outR, e.snap.PreGain)

	for i := range outL {
		outL[i], outR[i] = e.processFrame(outL[i], outR[i])
	}

	vecmath.ScaleBlockInPlace(outL, e.snap.PostGain)
	vecmath.ScaleBlockInPlace(outR, e.snap.PostGain)

	return nil
}

// processFrame runs the pipeline on one pre-gained frame, without the
// output gain. All stochastic stages draw here, in fixed order: quantizer
// left and right, record noise, grain, transport flutter, playback noise.
// Reordering these calls changes the output for identical inputs.
func (e *Engine) processFrame(l, r float64) (float64, float64) {
	snap := &e.snap

	qlDraw := e.stream.Float64()
	qrDraw := e.stream.Float64()
	recL := e.left.rec.Next(e.stream, snap.Hiss)
	recR := e.right.rec.Next(e.stream, snap.Hiss)
	grainL := noise.Grain(e.stream, snap.Grain)
	grainR := noise.Grain(e.stream, snap.Grain)
	speed := e.mod.Next(e.stream, snap.Wow, snap.Flutter)
	playL := e.left.play.Next(e.stream, snap.Hiss)
	playR := e.right.play.Next(e.stream, snap.Hiss)

	outL := e.processChannel(&e.left, l, qlDraw, recL, grainL, playL, speed)
	outR := e.processChannel(&e.right, r, qrDraw, recR, grainR, playR, speed)

	return outL, outR
}

func (e *Engine) processChannel(ch *channelState, x, qDraw, rec, grain, play, speed float64) float64 {
	snap := &e.snap

	// Time-aligned dry capture, taken before the signal is bent.
	ch.dry.Push(x)

	// Bias shifts the operating point into the asymmetric region of the
	// curves downstream.
	switch snap.BiasMode {
	case curve.BiasTube:
		x = curve.TubeBias(x, snap.Bias)
	default:
		x += snap.Bias
	}

	// Record-head noise enters before any magnetic shaping.
	x += rec

	x = e.applyCrossover(ch, x)
	x = e.applyWindow(ch, x)

	x = noise.QuantizeDraw(x, ch.quant, e.period, snap.Quantum, qDraw)
	ch.quant = x

	x = e.applySaturation(x)

	x += grain

	// Transport: write to the loop, read back at modulated speed.
	ch.wet.Push(x)
	x = ch.wet.ReadAt(e.baseTap * speed)

	// Self-erasure pulls the signal toward the previous output; the mapped
	// strength is strictly positive, so the scale never divides by zero.
	x = ch.erase + math.Tanh((x-ch.erase)/snap.Erase)*snap.Erase
	ch.erase = core.FlushDenormals(x)

	x += play

	// Playback-head wear.
	x = flutter.OnePoleLP(x, ch.head, snap.Cut)
	ch.head = core.FlushDenormals(x)

	// DC servo removes the offset the bias stages leave behind.
	y := x - ch.dcAcc
	ch.dcAcc = core.FlushDenormals(ch.dcAcc + dcServoGain*y)
	x = y

	return ch.dry.At(0)*(1-snap.DryWet) + x*snap.DryWet
}

// applyCrossover runs the zero-crossing distortion with feedback through
// the previous-output register, shaping the slew rather than the signal.
func (e *Engine) applyCrossover(ch *channelState, x float64) float64 {
	snap := &e.snap

	dx := x - ch.xover

	var shaped float64

	switch snap.CrossMode {
	case curve.CrossoverAnalog:
		shaped = curve.AnalogCrossover(dx, snap.CrossAmount, snap.CrossWidth)
	default:
		shaped = curve.DigitalCrossover(dx, snap.CrossAmount, snap.CrossWidth)
	}

	y := ch.xover + shaped
	ch.xover = core.FlushDenormals(y)

	return y
}

// applyWindow runs the path-dependent magnetization model: the window's
// bounding trajectory is chosen by input direction, differentiated, and
// accumulated onto the running register. Rising input rides the lower
// trajectory, falling input the upper.
func (e *Engine) applyWindow(ch *channelState, x float64) float64 {
	snap := &e.snap

	z := ch.window

	var y float64

	switch snap.HystMode {
	case curve.HysteresisTape2:
		width := snap.HystWarp
		if width < windowWidthFloor {
			width = windowWidthFloor
		}

		y = x + curve.TapeWindow2(x, snap.HystAmount, width, x-z)

	case curve.HysteresisTape1:
		upX, loX := curve.TapeWindow1(x, snap.HystAmount, snap.HystWarp)
		upZ, loZ := curve.TapeWindow1(z, snap.HystAmount, snap.HystWarp)
		y = trajectoryStep(z, x, upX, loX, upZ, loZ)

	case curve.HysteresisTube:
		upX, loX := curve.TubeWindow(x, snap.HystAmount, snap.HystWarp)
		upZ, loZ := curve.TubeWindow(z, snap.HystAmount, snap.HystWarp)
		y = trajectoryStep(z, x, upX, loX, upZ, loZ)

	default:
		upX, loX := curve.DigitalWindow(x, snap.HystAmount, snap.HystWarp)
		upZ, loZ := curve.DigitalWindow(z, snap.HystAmount, snap.HystWarp)
		y = trajectoryStep(z, x, upX, loX, upZ, loZ)
	}

	ch.window = core.FlushDenormals(y)

	return y
}

// trajectoryStep accumulates the directional window difference onto the
// previous output.
func trajectoryStep(z, x, upX, loX, upZ, loZ float64) float64 {
	if x >= z {
		return z + (loX - loZ)
	}

	return z + (upX - upZ)
}

// applySaturation drives the mode-selected curve, normalized so output
// level stays near unity regardless of drive, and subtracts the response
// at the bias stage's rest point to cancel the DC the asymmetry
// introduces. The rest point is what the active bias stage emits for a
// zero input: the raw offset in tape mode, zero in tube mode (the swish
// curve scales the input, so silence passes through unshifted).
func (e *Engine) applySaturation(x float64) float64 {
	snap := &e.snap

	den := curve.Saturate(snap.SatMode, snap.Drive)
	if math.Abs(den) < satNormFloor {
		den = satNormFloor
	}

	rest := snap.Bias
	if snap.BiasMode == curve.BiasTube {
		rest = curve.TubeBias(0, snap.Bias)
	}

	driven := curve.Saturate(snap.SatMode, x*snap.Drive) / den
	offset := curve.Saturate(snap.SatMode, rest*snap.Drive) / den

	return driven - offset
}

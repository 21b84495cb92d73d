package flutter

import (
	"fmt"
	"math"

	"github.com/Flux-Audio/hysteresis/dsp/noise"
)

// Tape transport speed is never exact. Wow is the slow component: two sine
// oscillators whose rates are counter-swept by a third, slower master
// oscillator, so the beating pattern never repeats audibly. Flutter is the
// fast component: filtered noise, cubed to leave mostly small deviations
// with occasional jerks.
const (
	// masterRateHz sweeps the two wow oscillators against each other.
	masterRateHz = 0.23

	// wowRateSpanHz is the sweep range of the first wow oscillator; the
	// second runs at wowRateOffsetHz plus the mirrored unit sweep.
	wowRateSpanHz   = 0.9
	wowRateOffsetHz = 0.35

	// oscDepth scales each wow oscillator before the user amount applies.
	oscDepth = 0.1

	// Flutter noise shaping: a low-frequency rumble band plus a parallel
	// high band that currently mixes at zero.
	flutterLowPassHz          = 15.0
	flutterSeriesHighPassHz   = 2.5
	flutterParallelHighPassHz = 500.0
	lowBandGain               = 16.0
	highBandGain              = 0.0
)

const twoPi = 2 * math.Pi

// Modulator produces the per-sample playback speed factor. A factor of 1
// means nominal speed; wow and flutter push it above and below. One
// modulator is shared by both channels so their read heads stay locked.
type Modulator struct {
	sampleRate float64

	masterPhase float64
	phase1      float64
	phase2      float64

	lowBand  *LowPass2
	series   *HighPass1
	highBand *HighPass1
}

// NewModulator creates a modulator for the given sample rate.
func NewModulator(sampleRate float64) (*Modulator, error) {
	m := &Modulator{}
	if err := m.SetSampleRate(sampleRate); err != nil {
		return nil, err
	}

	return m, nil
}

// SetSampleRate rebuilds the filter coefficients and resets all state.
func (m *Modulator) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("sample rate must be positive and finite, got %v", sampleRate)
	}

	lowBand, err := NewLowPass2(flutterLowPassHz, sampleRate)
	if err != nil {
		return err
	}

	series, err := NewHighPass1(flutterSeriesHighPassHz, sampleRate)
	if err != nil {
		return err
	}

	highBand, err := NewHighPass1(flutterParallelHighPassHz, sampleRate)
	if err != nil {
		return err
	}

	m.sampleRate = sampleRate
	m.lowBand = lowBand
	m.series = series
	m.highBand = highBand
	m.Reset()

	return nil
}

// Reset clears the oscillator phases and filter memories.
func (m *Modulator) Reset() {
	m.masterPhase = 0
	m.phase1 = 0
	m.phase2 = 0
	m.lowBand.Reset()
	m.series.Reset()
	m.highBand.Reset()
}

// SampleRate returns the configured sample rate.
func (m *Modulator) SampleRate() float64 {
	return m.sampleRate
}

// Next advances the modulator by one sample and returns the speed factor.
// It draws exactly one variate from the stream per call.
func (m *Modulator) Next(s *noise.Stream, wow, flutterAmt float64) float64 {
	m.masterPhase = advancePhase(m.masterPhase, masterRateHz/m.sampleRate)
	sweep := math.Sin(m.masterPhase)*0.5 + 0.5

	m.phase1 = advancePhase(m.phase1, wowRateSpanHz*sweep/m.sampleRate)
	s1 := math.Sin(m.phase1) * oscDepth

	m.phase2 = advancePhase(m.phase2, ((1-sweep)+wowRateOffsetHz)/m.sampleRate)
	s2 := math.Sin(m.phase2) * oscDepth

	n := s.Float64()
	low := m.series.Process(m.lowBand.Process(n))
	high := m.highBand.Process(n)

	f := low*lowBandGain + high*highBandGain
	f = f * f * f

	return 1 + (s1+s2)*wow + f*flutterAmt
}

// advancePhase accumulates a normalized phase increment, wrapping back to
// zero once the phase exceeds a full turn.
func advancePhase(phase, cyclesPerSample float64) float64 {
	if phase > twoPi {
		return 0
	}

	return phase + twoPi*cyclesPerSample
}

// Package thd measures total harmonic distortion of a time-domain signal,
// used to characterize the saturation stages.
package thd

import (
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
)

const defaultMaxHarmonics = 10

// Config holds THD analysis parameters.
type Config struct {
	SampleRate      float64
	FundamentalFreq float64

	// MaxHarmonics limits how many harmonics above the fundamental are
	// summed; zero means the default of 10.
	MaxHarmonics int
}

// Result holds the measured distortion metrics.
type Result struct {
	// FundamentalLevel is the squared magnitude at the fundamental bin.
	FundamentalLevel float64

	// THD is the ratio of harmonic RMS to fundamental RMS.
	THD float64

	// THDdB is THD expressed in decibels.
	THDdB float64

	// Harmonics holds the squared magnitudes of harmonics 2..N.
	Harmonics []float64
}

// AnalyzeSignal windows the signal, transforms it and sums the energy at
// integer multiples of the fundamental. The signal length is rounded up to
// the next power of two for the transform.
func AnalyzeSignal(signal []float64, cfg Config) (Result, error) {
	if len(signal) < 2 {
		return Result{}, fmt.Errorf("signal too short for analysis: %d samples", len(signal))
	}

	if cfg.SampleRate <= 0 || cfg.FundamentalFreq <= 0 {
		return Result{}, fmt.Errorf("sample rate and fundamental must be positive: %v, %v",
			cfg.SampleRate, cfg.FundamentalFreq)
	}

	if cfg.FundamentalFreq >= cfg.SampleRate/2 {
		return Result{}, fmt.Errorf("fundamental %v exceeds Nyquist", cfg.FundamentalFreq)
	}

	maxHarmonics := cfg.MaxHarmonics
	if maxHarmonics <= 0 {
		maxHarmonics = defaultMaxHarmonics
	}

	fftSize := nextPowerOf2(len(signal))

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("NewPlan64: %w", err)
	}

	in := make([]complex128, fftSize)
	for i, v := range signal {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(len(signal)))
		in[i] = complex(v*w, 0)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, in); err != nil {
		return Result{}, fmt.Errorf("Forward: %w", err)
	}

	binWidth := cfg.SampleRate / float64(fftSize)

	fundamental := peakPower(out, cfg.FundamentalFreq, binWidth)
	if fundamental == 0 {
		return Result{}, fmt.Errorf("no energy at fundamental %v Hz", cfg.FundamentalFreq)
	}

	res := Result{FundamentalLevel: fundamental}

	harmonicSum := 0.0
	for h := 2; h <= maxHarmonics+1; h++ {
		freq := cfg.FundamentalFreq * float64(h)
		if freq >= cfg.SampleRate/2 {
			break
		}

		p := peakPower(out, freq, binWidth)
		res.Harmonics = append(res.Harmonics, p)
		harmonicSum += p
	}

	res.THD = math.Sqrt(harmonicSum / fundamental)

	if res.THD > 0 {
		res.THDdB = 20 * math.Log10(res.THD)
	} else {
		res.THDdB = math.Inf(-1)
	}

	return res, nil
}

// peakPower returns the largest squared magnitude within one bin of the
// target frequency, absorbing window leakage.
func peakPower(spectrum []complex128, freq, binWidth float64) float64 {
	center := int(math.Round(freq / binWidth))

	peak := 0.0
	for k := center - 1; k <= center+1; k++ {
		if k < 1 || k > len(spectrum)/2 {
			continue
		}

		p := real(spectrum[k])*real(spectrum[k]) + imag(spectrum[k])*imag(spectrum[k])
		if p > peak {
			peak = p
		}
	}

	return peak
}

func nextPowerOf2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}

	return size
}

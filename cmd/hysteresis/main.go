// Command hysteresis runs the tape emulation offline on a generated test
// tone and prints level and distortion measurements.
//
// Usage:
//
//	hysteresis [flags]
//
// Examples:
//
//	hysteresis -drive 0.8 -sat 0.5
//	hysteresis -wow 0.6 -flutter 0.4 -seconds 2
//	hysteresis -freq 100 -bias 0.9 -hiss 0.3
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-vecmath"

	"github.com/Flux-Audio/hysteresis/dsp/core"
	"github.com/Flux-Audio/hysteresis/dsp/signal"
	"github.com/Flux-Audio/hysteresis/dsp/tape"
	"github.com/Flux-Audio/hysteresis/measure/thd"
)

func main() {
	rate := flag.Float64("rate", 44100, "sample rate in Hz")
	seconds := flag.Float64("seconds", 1, "test tone duration")
	freq := flag.Float64("freq", 1000, "test tone frequency in Hz")
	level := flag.Float64("level", 0.5, "test tone amplitude")

	drive := flag.Float64("drive", 0, "drive control [0, 1]")
	bias := flag.Float64("bias", 0.5, "bias control [0, 1]")
	sat := flag.Float64("sat", 0, "saturation mode control [0, 1]")
	hyst := flag.Float64("hyst", 0, "hysteresis amount [0, 1]")
	quantum := flag.Float64("quantum", 0, "domain quantization amount [0, 1]")
	wow := flag.Float64("wow", 0, "wow amount [0, 1]")
	flutter := flag.Float64("flutter", 0, "flutter amount [0, 1]")
	erase := flag.Float64("erase", 0, "self-erasure amount [0, 1]")
	hiss := flag.Float64("hiss", 0, "hiss amount [0, 1]")
	grain := flag.Float64("grain", 0, "grain amount [0, 1]")
	flag.Parse()

	if err := run(*rate, *seconds, *freq, *level, tapeControls(
		*drive, *bias, *sat, *hyst, *quantum, *wow, *flutter, *erase, *hiss, *grain,
	)); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func tapeControls(drive, bias, sat, hyst, quantum, wow, flutter, erase, hiss, grain float64) tape.Controls {
	c := tape.DefaultControls()
	c.Drive = drive
	c.Bias = bias
	c.SatMode = sat
	c.HystAmount = hyst
	c.Quantum = quantum
	c.Wow = wow
	c.Flutter = flutter
	c.Erase = erase
	c.Hiss = hiss
	c.Grain = grain

	return c
}

func run(rate, seconds, freq, level float64, controls tape.Controls) error {
	samples := int(rate * seconds)

	gen, err := signal.NewGenerator(rate)
	if err != nil {
		return err
	}

	in, err := gen.Sine(freq, level, samples)
	if err != nil {
		return err
	}

	engine, err := tape.NewEngine(rate, tape.WithControls(controls))
	if err != nil {
		return err
	}

	outL := make([]float64, samples)

	outR := make([]float64, samples)
	if err := engine.ProcessBlock(in, in, outL, outR); err != nil {
		return err
	}

	// Skip the transport fill before measuring.
	settled := outL[engine.LatencySamples():]

	res, err := thd.AnalyzeSignal(settled, thd.Config{
		SampleRate:      rate,
		FundamentalFreq: freq,
	})
	if err != nil {
		return err
	}

	inPeak := vecmath.MaxAbs(in)
	outPeak := vecmath.MaxAbs(settled)
	outRMS := math.Sqrt(vecmath.DotProduct(settled, settled) / float64(len(settled)))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "input peak\t%.4f (%.1f dBFS)\n", inPeak, core.LinearToDB(inPeak))
	fmt.Fprintf(w, "output peak\t%.4f (%.1f dBFS)\n", outPeak, core.LinearToDB(outPeak))
	fmt.Fprintf(w, "output rms\t%.4f\n", outRMS)
	fmt.Fprintf(w, "thd\t%.4f%%\n", res.THD*100)
	fmt.Fprintf(w, "thd\t%.1f dB\n", res.THDdB)
	fmt.Fprintf(w, "latency\t%d samples\n", engine.LatencySamples())

	return w.Flush()
}

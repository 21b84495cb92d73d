package tape

import (
	"math"
	"testing"

	"github.com/Flux-Audio/hysteresis/dsp/signal"
)

func TestNewEngineValidation(t *testing.T) {
	for _, sr := range []float64{0, -44100, 100, 1e7, math.NaN()} {
		if _, err := NewEngine(sr); err == nil {
			t.Fatalf("NewEngine(%v): expected error", sr)
		}
	}
}

func TestSilenceInSilenceOut(t *testing.T) {
	e, err := NewEngine(44100)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for i := 0; i < 10000; i++ {
		l, r := e.ProcessSample(0, 0)
		if l != 0 || r != 0 {
			t.Fatalf("sample %d: idle self-oscillation: (%v, %v)", i, l, r)
		}
	}
}

func TestSilenceStaysSilentUnderBias(t *testing.T) {
	// The saturation stage subtracts its response at the bias stage's rest
	// point, so neither the tape offset nor the tube curve may leak
	// through on silence. The tube curve emits zero for a zero input, so
	// subtracting the tape-style offset there would itself inject a DC
	// step.
	for _, biasMode := range []float64{0, 1} {
		for _, bias := range []float64{0, 0.25, 0.75, 1} {
			c := DefaultControls()
			c.BiasMode = biasMode
			c.Bias = bias
			c.Drive = 0.6

			e, err := NewEngine(44100, WithControls(c))
			if err != nil {
				t.Fatalf("NewEngine: %v", err)
			}

			for i := 0; i < 5000; i++ {
				l, r := e.ProcessSample(0, 0)
				if l != 0 || r != 0 {
					t.Fatalf("mode %v bias %v sample %d: offset leaked: (%v, %v)",
						biasMode, bias, i, l, r)
				}
			}
		}
	}
}

func TestDeterministicAcrossRuns(t *testing.T) {
	c := DefaultControls()
	c.Drive = 0.7
	c.Hiss = 0.5
	c.Grain = 0.4
	c.Wow = 0.5
	c.Flutter = 0.5
	c.Quantum = 0.3
	c.Erase = 0.2

	gen, err := signal.NewGenerator(44100, signal.WithSeed(11))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	in, err := gen.WhiteNoise(0.5, 8000)
	if err != nil {
		t.Fatalf("WhiteNoise: %v", err)
	}

	run := func() []float64 {
		e, err := NewEngine(44100, WithControls(c))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}

		out := make([]float64, len(in))
		for i, x := range in {
			out[i], _ = e.ProcessSample(x, x)
		}

		return out
	}

	a := run()

	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d: runs diverged: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestSeedChangesNoise(t *testing.T) {
	c := DefaultControls()
	c.Hiss = 0.5

	run := func(seed uint64) float64 {
		e, err := NewEngine(44100, WithSeed(seed), WithControls(c))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}

		sum := 0.0
		for i := 0; i < 4000; i++ {
			l, _ := e.ProcessSample(0, 0)
			sum += math.Abs(l)
		}

		return sum
	}

	if run(1) == run(2) {
		t.Fatal("different seeds should produce different noise")
	}
}

func TestResetRestoresInitialState(t *testing.T) {
	c := DefaultControls()
	c.Hiss = 0.3
	c.Wow = 0.4
	c.Quantum = 0.2

	e, err := NewEngine(44100, WithControls(c))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	first := make([]float64, 2000)
	for i := range first {
		first[i], _ = e.ProcessSample(0.3, -0.3)
	}

	e.Reset()

	for i := range first {
		got, _ := e.ProcessSample(0.3, -0.3)
		if got != first[i] {
			t.Fatalf("sample %d after reset: %v vs %v", i, got, first[i])
		}
	}
}

func TestProcessBlockMatchesPerSample(t *testing.T) {
	c := DefaultControls()
	c.Drive = 0.6
	c.Hiss = 0.3
	c.Wow = 0.3
	c.Flutter = 0.3

	gen, err := signal.NewGenerator(44100, signal.WithSeed(3))
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	in, err := gen.Sine(220, 0.7, 4096)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}

	blockEngine, err := NewEngine(44100, WithControls(c))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	sampleEngine, err := NewEngine(44100, WithControls(c))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	outL := make([]float64, len(in))

	outR := make([]float64, len(in))
	if err := blockEngine.ProcessBlock(in, in, outL, outR); err != nil {
		t.Fatalf("ProcessBlock: %v", err)
	}

	for i, x := range in {
		l, r := sampleEngine.ProcessSample(x, x)
		if l != outL[i] || r != outR[i] {
			t.Fatalf("sample %d: block %v/%v vs per-sample %v/%v", i, outL[i], outR[i], l, r)
		}
	}
}

func TestProcessBlockLengthMismatch(t *testing.T) {
	e, err := NewEngine(44100)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := e.ProcessBlock(make([]float64, 8), make([]float64, 8), make([]float64, 8), make([]float64, 4)); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestDryPathIsPureDelay(t *testing.T) {
	c := DefaultControls()
	c.DryWet = 0
	c.Drive = 0.9
	c.Hiss = 0.8

	e, err := NewEngine(44100, WithControls(c))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	latency := e.LatencySamples()

	n := latency + 100

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}

		out[i], _ = e.ProcessSample(in, in)
	}

	for i, v := range out {
		if i == latency {
			if math.Abs(v-1) > 1e-9 {
				t.Fatalf("delayed impulse amplitude: got %v", v)
			}

			continue
		}

		if v != 0 {
			t.Fatalf("sample %d: dry path should carry only the delayed impulse, got %v", i, v)
		}
	}
}

func TestLatencyIsFixed(t *testing.T) {
	e, err := NewEngine(44100)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if got := e.LatencySamples(); got != 2204 {
		t.Fatalf("latency at 44.1 kHz: got %d want 2204", got)
	}

	c := DefaultControls()
	c.Wow = 1
	c.Flutter = 1
	e.SetControls(c)

	if got := e.LatencySamples(); got != 2204 {
		t.Fatalf("latency must not vary with controls: got %d", got)
	}

	if err := e.SetSampleRate(48000); err != nil {
		t.Fatalf("SetSampleRate: %v", err)
	}

	if got := e.LatencySamples(); got != 2399 {
		t.Fatalf("latency at 48 kHz: got %d want 2399", got)
	}
}

func TestConstantInputConvergesToZero(t *testing.T) {
	c := DefaultControls()
	c.Drive = 0.5

	e, err := NewEngine(44100, WithControls(c))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	var l float64
	for i := 0; i < 10000; i++ {
		l, _ = e.ProcessSample(0.5, 0.5)
	}

	// The DC servo removes the steady-state offset once the transport
	// delay has filled.
	if math.Abs(l) > 1e-9 {
		t.Fatalf("constant input did not converge to zero: %v", l)
	}
}

func TestImpulseReturnsToBaseline(t *testing.T) {
	c := DefaultControls()
	c.Drive = 0.7
	c.HystAmount = 0.5
	c.Erase = 0.3

	e, err := NewEngine(44100, WithControls(c))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	settle := e.LatencySamples() + 4000

	var l float64
	for i := 0; i < settle; i++ {
		in := 0.0
		if i == 0 {
			in = 1
		}

		l, _ = e.ProcessSample(in, in)
	}

	if math.Abs(l) > 1e-6 {
		t.Fatalf("impulse left a residual offset: %v", l)
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	e, err := NewEngine(44100)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	for i := 0; i < 8000; i++ {
		x := math.Sin(float64(i) * 0.05)

		l, r := e.ProcessSample(x, 0)
		if r != 0 {
			t.Fatalf("sample %d: left signal leaked into right: %v", i, r)
		}

		_ = l
	}
}

func TestWowModulationDetunes(t *testing.T) {
	const n = 30000

	gen, err := signal.NewGenerator(44100)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	in, err := gen.Sine(1000, 0.5, n)
	if err != nil {
		t.Fatalf("Sine: %v", err)
	}

	run := func(wow float64) []float64 {
		c := DefaultControls()
		c.Wow = wow

		e, err := NewEngine(44100, WithControls(c))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}

		out := make([]float64, n)
		for i, x := range in {
			out[i], _ = e.ProcessSample(x, x)
		}

		return out
	}

	straight := run(0)

	wobbled := run(1)

	diff := 0.0
	for i := n / 2; i < n; i++ {
		diff += math.Abs(straight[i] - wobbled[i])
	}

	if diff < 1 {
		t.Fatalf("wow modulation had no audible effect: total deviation %v", diff)
	}
}

func TestAllModesStayFinite(t *testing.T) {
	// Drive every mode combination hard, including the warp extremes that
	// expose the raw curves' poles and negative radicands.
	for _, satMode := range []float64{0, 0.25, 0.45, 0.65, 0.85} {
		for _, hystMode := range []float64{0, 0.3, 0.55, 0.8} {
			for _, warp := range []float64{0, 0.5, 1} {
				c := DefaultControls()
				c.Drive = 1
				c.Bias = 1
				c.SatMode = satMode
				c.HystMode = hystMode
				c.HystWarp = warp
				c.HystAmount = 1
				c.CrossAmount = 1
				c.CrossWidth = 1
				c.CrossMode = 1
				c.Erase = 1
				c.Quantum = 0.5
				c.Hiss = 1
				c.Grain = 1
				c.Wow = 1
				c.Flutter = 1

				e, err := NewEngine(44100, WithControls(c))
				if err != nil {
					t.Fatalf("NewEngine: %v", err)
				}

				for i := 0; i < 3000; i++ {
					x := 2 * math.Sin(float64(i)*0.3)

					l, r := e.ProcessSample(x, -x)
					if math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(r) || math.IsInf(r, 0) {
						t.Fatalf("sat %v hyst %v warp %v sample %d: (%v, %v)",
							satMode, hystMode, warp, i, l, r)
					}
				}
			}
		}
	}
}

func BenchmarkProcessBlock(b *testing.B) {
	c := DefaultControls()
	c.Drive = 0.6
	c.Hiss = 0.3
	c.Wow = 0.5
	c.Flutter = 0.5
	c.Quantum = 0.2

	e, err := NewEngine(44100, WithControls(c))
	if err != nil {
		b.Fatalf("NewEngine: %v", err)
	}

	gen, err := signal.NewGenerator(44100)
	if err != nil {
		b.Fatalf("NewGenerator: %v", err)
	}

	in, err := gen.Sine(440, 0.7, 512)
	if err != nil {
		b.Fatalf("Sine: %v", err)
	}

	outL := make([]float64, len(in))
	outR := make([]float64, len(in))

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := e.ProcessBlock(in, in, outL, outR); err != nil {
			b.Fatalf("ProcessBlock: %v", err)
		}
	}
}

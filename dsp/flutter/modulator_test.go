package flutter

import (
	"math"
	"testing"

	algofft "github.com/cwbudde/algo-fft"

	"github.com/Flux-Audio/hysteresis/dsp/noise"
)

func TestModulatorValidation(t *testing.T) {
	for _, sr := range []float64{0, -44100, math.NaN(), math.Inf(1)} {
		if _, err := NewModulator(sr); err == nil {
			t.Fatalf("NewModulator(%v): expected error", sr)
		}
	}
}

func TestModulatorIsUnityWhenDisabled(t *testing.T) {
	m, err := NewModulator(44100)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)
	for i := 0; i < 10000; i++ {
		if got := m.Next(s, 0, 0); got != 1 {
			t.Fatalf("sample %d: got %v want exactly 1", i, got)
		}
	}
}

func TestModulatorConsumesOneDrawPerSample(t *testing.T) {
	m, err := NewModulator(44100)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)

	ref := noise.NewStream(noise.DefaultSeed)
	ref.Float64()

	m.Next(s, 0.5, 0.5)

	if got, want := s.Float64(), ref.Float64(); got != want {
		t.Fatalf("stream out of step: %v vs %v", got, want)
	}
}

func TestModulatorWowDeviationBounded(t *testing.T) {
	const wow = 0.3

	m, err := NewModulator(44100)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)

	// Two oscillators at depth 0.1 each bound the wow deviation by
	// 0.2*wow when flutter is off.
	for i := 0; i < 200000; i++ {
		got := m.Next(s, wow, 0)
		if math.Abs(got-1) > 0.2*wow+1e-12 {
			t.Fatalf("sample %d: deviation %v out of bounds", i, got-1)
		}
	}
}

func TestModulatorDeterminism(t *testing.T) {
	a, err := NewModulator(44100)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	b, err := NewModulator(44100)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	sa := noise.NewStream(noise.DefaultSeed)

	sb := noise.NewStream(noise.DefaultSeed)
	for i := 0; i < 5000; i++ {
		if va, vb := a.Next(sa, 0.4, 0.6), b.Next(sb, 0.4, 0.6); va != vb {
			t.Fatalf("sample %d: %v vs %v", i, va, vb)
		}
	}
}

func TestModulatorResetRestartsSequence(t *testing.T) {
	m, err := NewModulator(44100)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)
	first := m.Next(s, 0.4, 0.6)

	for i := 0; i < 100; i++ {
		m.Next(s, 0.4, 0.6)
	}

	m.Reset()
	s.Reseed(noise.DefaultSeed)

	if got := m.Next(s, 0.4, 0.6); got != first {
		t.Fatalf("got %v want %v", got, first)
	}
}

// spectrumEnergySplit returns the deviation energy below and above the split
// frequency, ignoring the DC bin.
func spectrumEnergySplit(t *testing.T, deviation []float64, sampleRate, splitHz float64) (low, high float64) {
	t.Helper()

	n := len(deviation)

	plan, err := algofft.NewPlan64(n)
	if err != nil {
		t.Fatalf("NewPlan64: %v", err)
	}

	in := make([]complex128, n)
	for i, v := range deviation {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
		in[i] = complex(v*w, 0)
	}

	out := make([]complex128, n)
	if err := plan.Forward(out, in); err != nil {
		t.Fatalf("Forward: %v", err)
	}

	splitBin := int(splitHz * float64(n) / sampleRate)
	for k := 1; k <= n/2; k++ {
		p := real(out[k])*real(out[k]) + imag(out[k])*imag(out[k])
		if k <= splitBin {
			low += p
		} else {
			high += p
		}
	}

	return low, high
}

func TestModulatorWowEnergyIsSubsonic(t *testing.T) {
	const (
		sampleRate = 44100
		n          = 1 << 17
	)

	m, err := NewModulator(sampleRate)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)

	dev := make([]float64, n)
	for i := range dev {
		dev[i] = m.Next(s, 1, 0) - 1
	}

	// The wow oscillators sweep between 0 and 1.35 Hz; nearly all the
	// deviation energy must sit below a few hertz.
	low, high := spectrumEnergySplit(t, dev, sampleRate, 6)
	if low < 5*high {
		t.Fatalf("wow energy not subsonic: low %v high %v", low, high)
	}
}

func TestModulatorFlutterEnergyIsLowBand(t *testing.T) {
	const (
		sampleRate = 44100
		n          = 1 << 17
	)

	m, err := NewModulator(sampleRate)
	if err != nil {
		t.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)

	dev := make([]float64, n)
	for i := range dev {
		dev[i] = m.Next(s, 0, 1) - 1
	}

	// Flutter noise is band-limited to roughly 15 Hz before cubing, which
	// spreads it to at most a few times that.
	low, high := spectrumEnergySplit(t, dev, sampleRate, 150)
	if low < 10*high {
		t.Fatalf("flutter energy not band-limited: low %v high %v", low, high)
	}
}

func BenchmarkModulatorNext(b *testing.B) {
	m, err := NewModulator(44100)
	if err != nil {
		b.Fatalf("NewModulator: %v", err)
	}

	s := noise.NewStream(noise.DefaultSeed)

	b.ReportAllocs()
	b.ResetTimer()

	var sink float64
	for i := 0; i < b.N; i++ {
		sink = m.Next(s, 0.5, 0.5)
	}

	_ = sink
}

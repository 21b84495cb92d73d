// Package delay provides the fixed-population tape loop used by the
// transport emulation. Unlike a conventional delay line, the loop is always
// full: every push overwrites the oldest sample and read positions are
// addressed from the oldest end, the way a moving read head addresses tape.
package delay

import (
	"fmt"
	"math"

	"github.com/Flux-Audio/hysteresis/dsp/core"
)

// minSize keeps room for the fractional read to interpolate between two
// samples on either side of any tap.
const minSize = 4

// Line is a fixed-population circular buffer of float64 samples.
type Line struct {
	buffer []float64
	oldest int
}

// New creates a line of the given size, pre-filled with silence.
func New(size int) (*Line, error) {
	if size < minSize {
		return nil, fmt.Errorf("delay line size must be at least %d, got %d", minSize, size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// Len returns the line's fixed population.
func (d *Line) Len() int {
	return len(d.buffer)
}

// Push overwrites the oldest sample with x, making it the newest.
func (d *Line) Push(x float64) {
	d.buffer[d.oldest] = x

	d.oldest++
	if d.oldest == len(d.buffer) {
		d.oldest = 0
	}
}

// At returns the sample at integer position i from the oldest end. Position
// 0 is the oldest sample, Len()-1 the newest. Out-of-range positions clamp.
func (d *Line) At(i int) float64 {
	if i < 0 {
		i = 0
	}

	if i >= len(d.buffer) {
		i = len(d.buffer) - 1
	}

	j := d.oldest + i
	if j >= len(d.buffer) {
		j -= len(d.buffer)
	}

	return d.buffer[j]
}

// ReadAt returns the linearly interpolated sample at a fractional position
// from the oldest end. Positions clamp to [0, Len()-2] so the interpolation
// pair always exists; a whole-number position returns the stored sample
// exactly.
func (d *Line) ReadAt(pos float64) float64 {
	limit := float64(len(d.buffer) - 2)

	if pos < 0 || math.IsNaN(pos) {
		pos = 0
	}

	if pos > limit {
		pos = limit
	}

	i := int(pos)
	frac := pos - float64(i)

	a := d.At(i)
	if frac == 0 {
		return a
	}

	b := d.At(i + 1)

	return (1-frac)*a + frac*b
}

// Reset refills the line with silence.
func (d *Line) Reset() {
	core.Zero(d.buffer)
	d.oldest = 0
}

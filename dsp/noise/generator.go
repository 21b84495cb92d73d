package noise

import "math"

// grainSkew concentrates the grain distribution near zero; only rare draws
// produce an audible spike.
const grainSkew = 18.0

// Hiss generates blue-shaped broadband noise: one centered uniform draw per
// sample pushed through the first difference n - 0.5*nPrev, which tilts the
// spectrum toward high frequencies the way tape hiss sits in a mix.
type Hiss struct {
	prev float64
}

// Next draws one variate and returns the shaped sample scaled by amount.
// The draw happens even at amount = 0 to keep the stream order fixed.
func (h *Hiss) Next(s *Stream, amount float64) float64 {
	n := s.Float64() - 0.5
	shaped := n - 0.5*h.prev
	h.prev = n

	return shaped * amount
}

// Reset clears the shaping memory.
func (h *Hiss) Reset() {
	h.prev = 0
}

// Grain draws a sharply skewed noise term for post-saturation grain: a
// uniform variate raised to a high power, signed by a second draw. Always
// consumes exactly two variates.
func Grain(s *Stream, amount float64) float64 {
	u := s.Float64()
	v := s.Float64()

	g := math.Pow(u, grainSkew)
	if v < 0.5 {
		g = -g
	}

	return g * amount
}

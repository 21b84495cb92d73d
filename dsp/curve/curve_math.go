//go:build !fastmath

package curve

import "math"

// mathExp computes e^x using the standard library.
func mathExp(x float64) float64 {
	return math.Exp(x)
}

// mathSqrt computes sqrt(x) using the standard library.
func mathSqrt(x float64) float64 {
	return math.Sqrt(x)
}

// mathLog1p computes ln(1+x) using the standard library.
func mathLog1p(x float64) float64 {
	return math.Log1p(x)
}

//go:build fastmath

package curve

import (
	"github.com/meko-christian/algo-approx"
)

// mathExp computes e^x using fast approximation.
func mathExp(x float64) float64 {
	return approx.FastExp(x)
}

// mathSqrt computes sqrt(x) using fast approximation.
func mathSqrt(x float64) float64 {
	return approx.FastSqrt(x)
}

// mathLog1p computes ln(1+x) using fast approximation.
// algo-approx has no direct log1p, so the identity ln(1+x) = FastLog(1+x)
// is used; the argument is always >= 0 at the call sites in this package.
func mathLog1p(x float64) float64 {
	return approx.FastLog(1 + x)
}

package curve

// TubeBias shapes x with a swish curve, modeling the asymmetric operating
// point of a tube input stage. bias = 0 is the identity; positive bias
// favors the positive half-wave.
func TubeBias(x, bias float64) float64 {
	return x * (2 - bias/4) / (1 + mathExp(-bias*x))
}

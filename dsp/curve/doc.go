// Package curve provides the stateless nonlinear transfer functions used by
// the tape engine: bias shaping, crossover distortion, hysteresis window
// trajectories, and saturation curves.
//
// All functions are pure. They never fail and stay finite for finite input;
// parameter-range validation (width > 0, amount in [0, 1]) is the caller's
// responsibility, while numeric edge guards (radicands, poles) live inside
// the functions because a NaN escaping into an audio stream is unrecoverable.
package curve

// Package jitter applies symmetric uniform randomization to base timings.
package jitter

import (
	"fmt"
	"time"
)

// Source is the subset of *rand.Rand the package draws from.
type Source interface {
	Float64() float64
}

// Factor returns a value uniformly distributed in [1-r, 1+r]. r is clamped
// to [0, 1]; r == 0 returns exactly 1 without consuming a draw.
func Factor(src Source, r float64) float64 {
	r = clamp(r)
	if r == 0 {
		return 1
	}
	return 1 - r + src.Float64()*2*r
}

// Duration scales base by a jitter factor. The result always lies in
// [base*(1-r), base*(1+r)].
func Duration(src Source, base time.Duration, r float64) time.Duration {
	if base <= 0 {
		return 0
	}
	f := Factor(src, r)
	if f == 1 {
		return base
	}
	return time.Duration(float64(base) * f)
}

// Bounds returns the closed interval Duration can produce for base and r.
func Bounds(base time.Duration, r float64) (lo, hi time.Duration) {
	if base <= 0 {
		return 0, 0
	}
	r = clamp(r)
	return time.Duration(float64(base) * (1 - r)), time.Duration(float64(base) * (1 + r))
}

// Validate reports whether r is an acceptable randomness factor.
func Validate(r float64) error {
	if r < 0 || r > 1 || r != r {
		return fmt.Errorf("randomness factor %v out of range [0, 1]", r)
	}
	return nil
}

func clamp(r float64) float64 {
	switch {
	case r != r, r < 0:
		return 0
	case r > 1:
		return 1
	default:
		return r
	}
}

// Package checks implements the built-in photo quality analyzers.  Every
// analyzer is stateless and total: a deficient image produces a low score,
// never an error.
package checks

import (
	"math"

	"github.com/Skryldev/photo-quality/core"
)

func statusOf(pass bool) core.Status {
	if pass {
		return core.StatusPass
	}
	return core.StatusFail
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// round rounds v to the given number of decimal places.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// percentile returns the smallest intensity whose cumulative share of
// pixels reaches pct percent.
func percentile(hist [256]int, total int, pct float64) int {
	if total == 0 {
		return 0
	}
	target := pct / 100 * float64(total)
	cum := 0
	for v, n := range hist {
		cum += n
		if float64(cum) >= target && cum > 0 {
			return v
		}
	}
	return 255
}

// share returns the fraction of pixels with intensity in [lo, hi].
func share(hist [256]int, total, lo, hi int) float64 {
	if total == 0 {
		return 0
	}
	lo = max(lo, 0)
	hi = min(hi, 255)
	n := 0
	for v := lo; v <= hi; v++ {
		n += hist[v]
	}
	return float64(n) / float64(total)
}

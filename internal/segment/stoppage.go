package segment

import (
	"time"

	"github.com/banshee-data/spm.report/internal/telemetry"
)

// Stopped reports whether a point's speed is below threshold. A NaN speed
// is never stopped.
func Stopped(p telemetry.TripPoint, threshold float64) bool {
	return p.Speed < threshold
}

// Stoppages returns the stopped intervals lasting at least minDuration, in
// ascending start order. The comparison is inclusive: a stop of exactly
// minDuration is kept. A single-point stop has zero duration and is only
// kept when minDuration is zero.
func Stoppages(points []telemetry.TripPoint, threshold float64, minDuration time.Duration) []Interval[bool] {
	var out []Interval[bool]
	for _, iv := range Segment(points, func(p telemetry.TripPoint) bool { return Stopped(p, threshold) }) {
		if iv.Key && iv.Duration >= minDuration {
			out = append(out, iv)
		}
	}
	return out
}

// TotalDuration sums the durations of intervals.
func TotalDuration[K comparable](intervals []Interval[K]) time.Duration {
	var d time.Duration
	for _, iv := range intervals {
		d += iv.Duration
	}
	return d
}

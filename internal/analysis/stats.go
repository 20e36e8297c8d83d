package analysis

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/spm.report/internal/telemetry"
)

// TripStats are whole-trip aggregates. Speeds are km/h.
type TripStats struct {
	Points          int           `json:"points"`
	Start           time.Time     `json:"start"`
	End             time.Time     `json:"end"`
	Duration        time.Duration `json:"duration_ns"`
	TotalDistanceKm float64       `json:"total_distance_km"`
	AvgSpeed        float64       `json:"avg_speed_kmph"`
	MaxSpeed        float64       `json:"max_speed_kmph"`
	MaxSpeedAt      time.Time     `json:"max_speed_at"`
	OverMPSPoints   int           `json:"over_mps_points"`
}

// DurationHours returns the trip duration in hours.
func (s TripStats) DurationHours() float64 {
	return s.Duration.Hours()
}

// ComputeStats aggregates points, which must be time ordered. AvgSpeed is
// the mean of the recorded speed samples; NaN samples are ignored and both
// speed figures are NaN when every sample is missing. OverMPSPoints counts
// samples strictly above mps.
func ComputeStats(points []telemetry.TripPoint, mps float64) TripStats {
	if len(points) == 0 {
		return TripStats{AvgSpeed: math.NaN(), MaxSpeed: math.NaN()}
	}

	first, last := points[0], points[len(points)-1]
	s := TripStats{
		Points:          len(points),
		Start:           first.Time,
		End:             last.Time,
		Duration:        last.Time.Sub(first.Time),
		TotalDistanceKm: last.CumDistanceKm,
		AvgSpeed:        math.NaN(),
		MaxSpeed:        math.NaN(),
	}

	speeds := make([]float64, 0, len(points))
	at := make([]int, 0, len(points))
	for i, p := range points {
		if math.IsNaN(p.Speed) {
			continue
		}
		speeds = append(speeds, p.Speed)
		at = append(at, i)
		if p.Speed > mps {
			s.OverMPSPoints++
		}
	}
	if len(speeds) > 0 {
		s.AvgSpeed = stat.Mean(speeds, nil)
		maxIdx := floats.MaxIdx(speeds)
		s.MaxSpeed = speeds[maxIdx]
		s.MaxSpeedAt = points[at[maxIdx]].Time
	}
	return s
}

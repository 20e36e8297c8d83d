package segment

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/spm.report/internal/telemetry"
)

// Interval is a run of trip points with its time span and aggregates.
// A run of two or more samples lasts until the first sample of the next
// interval; the final interval ends at its own last sample. A run of a
// single sample has zero duration wherever it falls. Aggregates ignore NaN
// samples and are NaN when no sample is usable.
type Interval[K comparable] struct {
	Key        K
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	Points     int
	FirstIndex int
	LastIndex  int

	MeanSpeed  float64
	MaxSpeed   float64
	MeanLat    float64
	MeanLon    float64
	DistanceKm float64
}

// Segment splits points into intervals of equal key. points must already be
// ordered by time.
func Segment[K comparable](points []telemetry.TripPoint, key func(telemetry.TripPoint) K) []Interval[K] {
	runs := Runs(points, key)
	if len(runs) == 0 {
		return nil
	}
	out := make([]Interval[K], len(runs))
	for i, r := range runs {
		end := r.Last
		if r.Len() > 1 && r.Last+1 < len(points) {
			end = r.Last + 1
		}
		out[i] = aggregate(points, r, points[end])
	}
	return out
}

func aggregate[K comparable](points []telemetry.TripPoint, r Run[K], boundary telemetry.TripPoint) Interval[K] {
	span := points[r.First : r.Last+1]

	start, end := span[0].Time, boundary.Time
	speeds := make([]float64, 0, len(span))
	lats := make([]float64, 0, len(span))
	lons := make([]float64, 0, len(span))
	for _, p := range span {
		if p.Time.Before(start) {
			start = p.Time
		}
		if p.Time.After(end) {
			end = p.Time
		}
		if !math.IsNaN(p.Speed) {
			speeds = append(speeds, p.Speed)
		}
		if p.Position().IsValid() {
			lats = append(lats, p.Lat)
			lons = append(lons, p.Lon)
		}
	}

	iv := Interval[K]{
		Key:        r.Key,
		Start:      start,
		End:        end,
		Duration:   end.Sub(start),
		Points:     r.Len(),
		FirstIndex: r.First,
		LastIndex:  r.Last,
		MeanSpeed:  math.NaN(),
		MaxSpeed:   math.NaN(),
		MeanLat:    math.NaN(),
		MeanLon:    math.NaN(),
		DistanceKm: boundary.CumDistanceKm - span[0].CumDistanceKm,
	}
	if len(speeds) > 0 {
		iv.MeanSpeed = stat.Mean(speeds, nil)
		iv.MaxSpeed = floats.Max(speeds)
	}
	if len(lats) > 0 {
		iv.MeanLat = stat.Mean(lats, nil)
		iv.MeanLon = stat.Mean(lons, nil)
	}
	return iv
}

// ByDurationDesc returns a copy of intervals ordered longest first. Equal
// durations keep their input order.
func ByDurationDesc[K comparable](intervals []Interval[K]) []Interval[K] {
	out := make([]Interval[K], len(intervals))
	copy(out, intervals)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Duration > out[j].Duration
	})
	return out
}

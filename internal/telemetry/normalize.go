// Package telemetry turns locomotive speedometer CSV exports into a
// time-ordered sequence of trip points with cumulative distance.
package telemetry

import (
	"math"
	"sort"
	"time"

	"github.com/banshee-data/spm.report/internal/geo"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/units"
)

// TripPoint is one normalised telemetry sample. Speed is in km/h.
type TripPoint struct {
	Time          time.Time
	Lat           float64
	Lon           float64
	Speed         float64
	CumDistanceKm float64
	Station       string
	HasStation    bool
	Row           int // data row in the source file
}

// Position returns the point's coordinates.
func (p TripPoint) Position() geo.Point {
	return geo.Point{Lat: p.Lat, Lon: p.Lon}
}

// NormalizeOptions controls timestamp and unit interpretation.
type NormalizeOptions struct {
	TimeColumn string // used in error messages only
	Layout     string // empty to auto-detect
	Location   *time.Location
	SpeedUnits string // unit of the speed column; km/h when empty
}

// Normalize parses timestamps, converts speeds to km/h, sorts the rows by
// time (stable, so equal timestamps keep file order) and accumulates
// distance. When the table has a per-row distance column its running sum is
// used, otherwise each step is the great-circle distance from the previous
// point. Blank, NaN or negative steps add nothing, so CumDistanceKm never
// decreases. The table is not modified.
func Normalize(table *Table, opts NormalizeOptions) ([]TripPoint, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, &InputFormatError{Err: ErrNoRows}
	}
	if opts.TimeColumn == "" {
		opts.TimeColumn = DefaultColumns().Time
	}
	speedUnits := opts.SpeedUnits
	if speedUnits == "" {
		speedUnits = units.KMPH
	}

	type indexed struct {
		point TripPoint
		step  float64
	}
	rows := make([]indexed, len(table.Rows))
	for i, r := range table.Rows {
		ts, err := ParseTimestamp(r.Timestamp, opts.Layout, opts.Location)
		if err != nil {
			return nil, &ParseError{Row: r.Line, Column: opts.TimeColumn, Value: r.Timestamp, Err: err}
		}
		rows[i] = indexed{
			point: TripPoint{
				Time:       ts,
				Lat:        r.Lat,
				Lon:        r.Lon,
				Speed:      units.ToKMPH(r.Speed, speedUnits),
				Station:    r.Station,
				HasStation: r.HasStation,
				Row:        r.Line,
			},
			step: r.Step,
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].point.Time.Before(rows[j].point.Time)
	})

	points := make([]TripPoint, len(rows))
	var cumMeters float64
	skipped := 0
	for i := range rows {
		var step float64
		switch {
		case table.HasStep:
			step = rows[i].step
		case i > 0:
			step = geo.Distance(rows[i-1].point.Position(), rows[i].point.Position())
		}
		if math.IsNaN(step) || math.IsInf(step, 0) || step < 0 {
			// The first row of a derived-distance trip has no predecessor and
			// is not counted as a skipped step.
			if table.HasStep || i > 0 {
				skipped++
			}
			step = 0
		}
		cumMeters += step
		points[i] = rows[i].point
		points[i].CumDistanceKm = cumMeters / 1000
	}

	if skipped > 0 {
		monitoring.Logf("telemetry: %d of %d distance steps were blank or invalid and counted as zero", skipped, len(points))
	}

	return points, nil
}

package signals

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/spm.report/internal/geo"
	"github.com/banshee-data/spm.report/internal/telemetry"
)

// MatchOptions controls signal proximity matching.
type MatchOptions struct {
	// WindowDeg is the half-width of the lat/lon box searched around each
	// signal.
	WindowDeg float64
	// RadiusM is the pass radius. The closest point must be strictly nearer
	// than this for the signal to count as passed.
	RadiusM float64
}

// SignalPass records the telemetry point closest to a signal.
type SignalPass struct {
	SignalID   string    `json:"signal_id"`
	SignalName string    `json:"signal_name"`
	SignalLat  float64   `json:"signal_lat"`
	SignalLon  float64   `json:"signal_lon"`
	PassTime   time.Time `json:"pass_time"`
	Speed      float64   `json:"speed_kmph"`
	DistanceM  float64   `json:"distance_m"`
	PointIndex int       `json:"point_index"`
}

// Matcher finds signal passes over one trip. It indexes the trip once so
// many signals can be matched without rescanning every point.
type Matcher struct {
	points []telemetry.TripPoint
	grid   *geo.Grid
	opts   MatchOptions
}

// NewMatcher indexes points for matching.
func NewMatcher(points []telemetry.TripPoint, opts MatchOptions) *Matcher {
	pos := make([]geo.Point, len(points))
	for i, p := range points {
		pos[i] = p.Position()
	}
	return &Matcher{
		points: points,
		grid:   geo.NewGrid(pos, opts.WindowDeg),
		opts:   opts,
	}
}

// Pass returns the pass for ref, or false when no point lies within the
// window and radius. Ties on distance go to the earliest point.
func (m *Matcher) Pass(ref SignalRef) (SignalPass, bool) {
	candidates := m.grid.Within(ref.Position(), m.opts.WindowDeg)
	if len(candidates) == 0 {
		return SignalPass{}, false
	}

	lats := make([]float64, len(candidates))
	lons := make([]float64, len(candidates))
	for i, idx := range candidates {
		pos := m.grid.Point(idx)
		lats[i], lons[i] = pos.Lat, pos.Lon
	}
	dists := geo.DistancesFrom(lats, lons, ref.Position())
	best := floats.MinIdx(dists)
	if !(dists[best] < m.opts.RadiusM) {
		return SignalPass{}, false
	}

	p := m.points[candidates[best]]
	return SignalPass{
		SignalID:   ref.ID,
		SignalName: ref.Name,
		SignalLat:  ref.Lat,
		SignalLon:  ref.Lon,
		PassTime:   p.Time,
		Speed:      p.Speed,
		DistanceM:  dists[best],
		PointIndex: candidates[best],
	}, true
}

// Match returns the passes for refs in ref order. Signals the trip never
// came near are omitted.
func Match(points []telemetry.TripPoint, refs []SignalRef, opts MatchOptions) []SignalPass {
	if len(points) == 0 || len(refs) == 0 {
		return nil
	}
	m := NewMatcher(points, opts)
	var out []SignalPass
	for _, ref := range refs {
		if pass, ok := m.Pass(ref); ok {
			out = append(out, pass)
		}
	}
	return out
}

package segment

import "github.com/banshee-data/spm.report/internal/telemetry"

// StationKey is the station grouping key. Points without a station code
// share the empty key, so a gap in coverage splits the surrounding runs.
func StationKey(p telemetry.TripPoint) string {
	if !p.HasStation {
		return ""
	}
	return p.Station
}

// Sections returns one interval per contiguous run of a station code, in
// time order. Runs without a station code are omitted. The same code can
// appear more than once when the train leaves and re-enters it.
func Sections(points []telemetry.TripPoint) []Interval[string] {
	var out []Interval[string]
	for _, iv := range Segment(points, StationKey) {
		if iv.Key == "" {
			continue
		}
		out = append(out, iv)
	}
	return out
}

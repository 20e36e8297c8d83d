// Package report turns an analysis result into a structured report and
// renders it as HTML, XLSX or charts.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/spm.report/internal/analysis"
	"github.com/banshee-data/spm.report/internal/segment"
	"github.com/banshee-data/spm.report/internal/version"
)

// PolicyNote describes the simplified signal rule applied to every report.
const PolicyNote = "Signal checks apply one pass-speed limit per train type (Coaching %g km/h, others %g km/h) " +
	"as if every signal showed a caution aspect. Actual aspect-dependent limits are not evaluated."

// TripMetadata is the crew and train block entered with an upload.
type TripMetadata struct {
	LPName      string `json:"lp_name"`
	LPID        string `json:"lp_id"`
	ALPName     string `json:"alp_name"`
	ALPID       string `json:"alp_id"`
	CLIName     string `json:"cli_name"`
	TrainNumber string `json:"train_number"`
	LocoNumber  string `json:"loco_number"`
	Section     string `json:"section"`
	JourneyDate string `json:"journey_date"`
}

// Summary is the headline table.
type Summary struct {
	DistanceKm    float64 `json:"distance_km"`
	DurationHours float64 `json:"duration_hours"`
	AvgSpeed      float64 `json:"avg_speed_kmph"`
	MaxSpeed      float64 `json:"max_speed_kmph"`
	Points        int     `json:"points"`
	OverMPSPoints int     `json:"over_mps_points"`
	Stoppages     int     `json:"stoppages"`
	StoppedHours  float64 `json:"stopped_hours"`
	SignalCheck   bool    `json:"signal_check"`
	SignalsMapped int     `json:"signals_mapped"`
	SignalPasses  int     `json:"signal_passes"`
	Violations    int     `json:"violations"`
}

// StoppageRow is one line of the stoppage table.
type StoppageRow struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMin float64   `json:"duration_min"`
	Lat         float64   `json:"lat"`
	Lon         float64   `json:"lon"`
	Location    string    `json:"location"`
}

// SectionRow is one line of the section-wise summary.
type SectionRow struct {
	Station     string    `json:"station"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DurationMin float64   `json:"duration_min"`
	DistanceKm  float64   `json:"distance_km"`
	MeanSpeed   float64   `json:"mean_speed_kmph"`
	MaxSpeed    float64   `json:"max_speed_kmph"`
}

// PassRow is one signal pass. Limit and Excess are set for violations.
type PassRow struct {
	Signal    string    `json:"signal"`
	PassTime  time.Time `json:"pass_time"`
	Speed     float64   `json:"speed_kmph"`
	DistanceM float64   `json:"distance_m"`
	Limit     float64   `json:"limit_kmph,omitempty"`
	Excess    float64   `json:"excess_kmph,omitempty"`
}

// Report is the structured document payload. All floats are finite so the
// payload always encodes as JSON.
type Report struct {
	Title       string               `json:"title"`
	Trip        TripMetadata         `json:"trip"`
	TrainType   string               `json:"train_type"`
	MPS         float64              `json:"mps_kmph"`
	StopSpeed   float64              `json:"stop_speed_threshold_kmph"`
	MinStopMin  float64              `json:"min_stop_duration_min"`
	SignalLimit float64              `json:"signal_limit_kmph"`
	Summary     Summary              `json:"summary"`
	Stoppages   []StoppageRow        `json:"stoppages"`
	Sections    []SectionRow         `json:"sections"`
	Passes      []PassRow            `json:"passes"`
	Violations  []PassRow            `json:"violations"`
	Notes       []string             `json:"notes"`
	Diagnostics analysis.Diagnostics `json:"diagnostics"`
	GeneratedAt time.Time            `json:"generated_at"`
	Version     string               `json:"version"`
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// StoppageRows converts stoppage intervals to table rows, keeping their order.
func StoppageRows(stops []segment.Interval[bool]) []StoppageRow {
	rows := make([]StoppageRow, 0, len(stops))
	for _, s := range stops {
		row := StoppageRow{
			Start:       s.Start,
			End:         s.End,
			DurationMin: s.Duration.Minutes(),
			Lat:         finite(s.MeanLat),
			Lon:         finite(s.MeanLon),
			Location:    "unknown",
		}
		if !math.IsNaN(s.MeanLat) && !math.IsNaN(s.MeanLon) {
			row.Location = fmt.Sprintf("%.4f, %.4f", s.MeanLat, s.MeanLon)
		}
		rows = append(rows, row)
	}
	return rows
}

// Assemble builds the report for res. It has no side effects; generatedAt
// is passed in so output is reproducible.
func Assemble(meta TripMetadata, res *analysis.Result, generatedAt time.Time) *Report {
	s := res.Settings
	rep := &Report{
		Title:       "SPM Analysis Report",
		Trip:        meta,
		TrainType:   string(s.TrainType),
		MPS:         s.MaxPermissibleSpeed,
		StopSpeed:   s.StopSpeedThreshold,
		MinStopMin:  s.MinStopDuration.Minutes(),
		SignalLimit: s.SignalLimit,
		Summary: Summary{
			DistanceKm:    finite(res.Stats.TotalDistanceKm),
			DurationHours: res.Stats.DurationHours(),
			AvgSpeed:      finite(res.Stats.AvgSpeed),
			MaxSpeed:      finite(res.Stats.MaxSpeed),
			Points:        res.Stats.Points,
			OverMPSPoints: res.Stats.OverMPSPoints,
			Stoppages:     len(res.Stoppages),
			StoppedHours:  segment.TotalDuration(res.Stoppages).Hours(),
			SignalCheck:   res.SignalCheck,
			SignalsMapped: res.SignalsMapped,
			SignalPasses:  len(res.Passes),
			Violations:    len(res.Violations),
		},
		Stoppages:   StoppageRows(res.Stoppages),
		Sections:    make([]SectionRow, 0, len(res.Sections)),
		Passes:      make([]PassRow, 0, len(res.Passes)),
		Violations:  make([]PassRow, 0, len(res.Violations)),
		Notes:       []string{},
		Diagnostics: res.Diagnostics,
		GeneratedAt: generatedAt,
		Version:     version.Version,
	}

	for _, sec := range res.Sections {
		rep.Sections = append(rep.Sections, SectionRow{
			Station:     sec.Key,
			Start:       sec.Start,
			End:         sec.End,
			DurationMin: sec.Duration.Minutes(),
			DistanceKm:  finite(sec.DistanceKm),
			MeanSpeed:   finite(sec.MeanSpeed),
			MaxSpeed:    finite(sec.MaxSpeed),
		})
	}
	for _, p := range res.Passes {
		rep.Passes = append(rep.Passes, PassRow{
			Signal:    p.SignalName,
			PassTime:  p.PassTime,
			Speed:     finite(p.Speed),
			DistanceM: p.DistanceM,
		})
	}
	for _, v := range res.Violations {
		rep.Violations = append(rep.Violations, PassRow{
			Signal:    v.SignalName,
			PassTime:  v.PassTime,
			Speed:     v.Speed,
			DistanceM: v.DistanceM,
			Limit:     v.Limit,
			Excess:    v.Excess,
		})
	}

	if res.SignalCheck {
		rep.Notes = append(rep.Notes, fmt.Sprintf(PolicyNote, s.CoachingLimit, s.OtherLimit))
	}
	return rep
}

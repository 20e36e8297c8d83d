// Package analysis is the entry point of the SPM pipeline: it normalises an
// uploaded trip, segments it into stoppages and station sections, checks
// signal passes and collects trip statistics and diagnostics.
package analysis

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/spm.report/internal/cache"
	"github.com/banshee-data/spm.report/internal/config"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/segment"
	"github.com/banshee-data/spm.report/internal/signals"
	"github.com/banshee-data/spm.report/internal/telemetry"
)

// ErrInvalidConfig is returned by Run when the configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Settings are the resolved parameters of one run.
type Settings struct {
	MaxPermissibleSpeed float64          `json:"max_permissible_speed"`
	TrainType           config.TrainType `json:"train_type"`
	StopSpeedThreshold  float64          `json:"stop_speed_threshold"`
	MinStopDuration     time.Duration    `json:"min_stop_duration_ns"`
	ProximityRadiusM    float64          `json:"proximity_radius_m"`
	SignalWindowDeg     float64          `json:"signal_window_deg"`
	CoachingLimit       float64          `json:"coaching_signal_limit"`
	OtherLimit          float64          `json:"other_signal_limit"`
	SignalLimit         float64          `json:"signal_limit"`
}

// SettingsFromConfig resolves cfg, applying defaults.
func SettingsFromConfig(cfg *config.AnalysisConfig) Settings {
	tt := cfg.GetTrainType()
	policy := signals.PolicyFromConfig(cfg)
	return Settings{
		MaxPermissibleSpeed: cfg.GetMaxPermissibleSpeed(),
		TrainType:           tt,
		StopSpeedThreshold:  cfg.GetStopSpeedThreshold(),
		MinStopDuration:     cfg.GetMinStopDuration(),
		ProximityRadiusM:    cfg.GetProximityRadiusM(),
		SignalWindowDeg:     cfg.GetSignalWindowDeg(),
		CoachingLimit:       policy.CoachingLimit,
		OtherLimit:          policy.OtherLimit,
		SignalLimit:         policy.LimitFor(tt),
	}
}

// Result is everything derived from one dataset. It is read-only once
// returned.
type Result struct {
	Settings  Settings                   `json:"settings"`
	Points    []telemetry.TripPoint      `json:"-"`
	Stats     TripStats                  `json:"stats"`
	Stoppages []segment.Interval[bool]   `json:"-"`
	Sections  []segment.Interval[string] `json:"-"`

	// SignalCheck is false when no usable signal reference was supplied.
	SignalCheck   bool                 `json:"signal_check"`
	SignalsTotal  int                  `json:"signals_total"`
	SignalsMapped int                  `json:"signals_mapped"`
	Passes        []signals.SignalPass `json:"passes"`
	Violations    []signals.Violation  `json:"violations"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// Analyze runs every stage over normalised points. mapping is nil when the
// signal check is disabled. Analyze has no side effects beyond logging and
// stops early when ctx is cancelled.
func Analyze(ctx context.Context, s Settings, points []telemetry.TripPoint, mapping *signals.Mapping) (*Result, error) {
	res := &Result{Settings: s, Points: points}

	res.Stats = ComputeStats(points, s.MaxPermissibleSpeed)
	if res.Stats.OverMPSPoints > 0 {
		res.Diagnostics = append(res.Diagnostics, warning(CodeSpeedAboveMPS, res.Stats.OverMPSPoints,
			"%d samples exceeded the MPS of %g km/h", res.Stats.OverMPSPoints, s.MaxPermissibleSpeed))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res.Stoppages = segment.Stoppages(points, s.StopSpeedThreshold, s.MinStopDuration)
	if len(res.Stoppages) == 0 {
		res.Diagnostics = append(res.Diagnostics, info(CodeNoStoppages, 0,
			"No stoppages of at least %s below %g km/h", s.MinStopDuration, s.StopSpeedThreshold))
	}
	res.Sections = segment.Sections(points)
	if len(res.Sections) == 0 {
		res.Diagnostics = append(res.Diagnostics, info(CodeMissingStationCodes, 0,
			"Telemetry has no station codes; section summary skipped"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if mapping == nil {
		res.Diagnostics = append(res.Diagnostics, info(CodeNoSignalReference, 0,
			"Upload a signal list and OHE master to enable signal checks"))
		return res, nil
	}

	res.SignalCheck = true
	res.SignalsTotal = mapping.Total
	res.SignalsMapped = mapping.Mapped()
	res.Diagnostics = append(res.Diagnostics, info(CodeSignalsMapped, res.SignalsMapped,
		"Mapped %d of %d signals to coordinates", res.SignalsMapped, mapping.Total))

	res.Passes = signals.Match(points, mapping.Refs, signals.MatchOptions{
		WindowDeg: s.SignalWindowDeg,
		RadiusM:   s.ProximityRadiusM,
	})
	if len(res.Passes) == 0 {
		res.Diagnostics = append(res.Diagnostics, info(CodeNoSignalPasses, 0,
			"No GPS points within %g m of a mapped signal", s.ProximityRadiusM))
		return res, nil
	}

	res.Violations = signals.Violations(res.Passes, s.SignalLimit)
	if n := len(res.Violations); n > 0 {
		res.Diagnostics = append(res.Diagnostics, warning(CodeViolationsFound, n,
			"Found %d signals passed > %g km/h", n, s.SignalLimit))
	} else {
		res.Diagnostics = append(res.Diagnostics, info(CodeNoViolations, 0,
			"No high-speed signal passes detected"))
	}
	return res, nil
}

// Inputs are the raw uploaded files. Signals and Master are optional; the
// signal check runs only when both are present.
type Inputs struct {
	Telemetry []byte
	Signals   []byte
	Master    []byte
}

// Analyzer parses inputs and runs Analyze. Parsed inputs are memoised by
// content hash when a cache is configured.
type Analyzer struct {
	points   *cache.Cache[[]telemetry.TripPoint]
	mappings *cache.Cache[signals.Mapping]
}

// NewAnalyzer returns an Analyzer memoising up to cacheSize parsed inputs
// of each kind. A cacheSize of zero disables memoisation.
func NewAnalyzer(cacheSize int) *Analyzer {
	a := &Analyzer{}
	if cacheSize > 0 {
		a.points = cache.New[[]telemetry.TripPoint](cacheSize, 0)
		a.mappings = cache.New[signals.Mapping](cacheSize, 0)
	}
	return a
}

// CacheStats reports hits and misses of the telemetry cache.
func (a *Analyzer) CacheStats() (hits, misses uint64) {
	if a.points == nil {
		return 0, 0
	}
	return a.points.HitCount(), a.points.MissCount()
}

// Run validates cfg, parses in and analyses it. Telemetry problems are
// returned as errors wrapping telemetry.ErrInputFormat. Signal reference
// problems never fail the run; they become diagnostics.
func (a *Analyzer) Run(ctx context.Context, cfg *config.AnalysisConfig, in Inputs) (*Result, error) {
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	points, err := a.loadTelemetry(cfg, in.Telemetry)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapping, refDiags := a.loadReference(cfg, in)

	res, err := Analyze(ctx, SettingsFromConfig(cfg), points, mapping)
	if err != nil {
		return nil, err
	}
	res.Diagnostics = append(refDiags, res.Diagnostics...)

	monitoring.Logf("analysis: %d points, %.2f km, %d stoppages, %d signal passes, %d violations",
		res.Stats.Points, res.Stats.TotalDistanceKm, len(res.Stoppages), len(res.Passes), len(res.Violations))
	return res, nil
}

func (a *Analyzer) loadTelemetry(cfg *config.AnalysisConfig, data []byte) ([]telemetry.TripPoint, error) {
	cc := cfg.GetColumns()
	cols := telemetry.Columns{
		Time:         cc.Time,
		Latitude:     cc.Latitude,
		Longitude:    cc.Longitude,
		Speed:        cc.Speed,
		StepDistance: cc.StepDistance,
		StationCode:  cc.StationCode,
	}.Merge(telemetry.DefaultColumns())
	loc := cfg.GetLocation()
	opts := telemetry.NormalizeOptions{
		TimeColumn: cols.Time,
		Layout:     cfg.GetTimestampLayout(),
		Location:   loc,
		SpeedUnits: cfg.GetInputSpeedUnits(),
	}

	load := func() ([]telemetry.TripPoint, error) {
		table, err := telemetry.ReadRows(bytes.NewReader(data), cols)
		if err != nil {
			return nil, err
		}
		return telemetry.Normalize(table, opts)
	}
	if a.points == nil {
		return load()
	}
	key := cache.ContentKey(data,
		cols.Time, cols.Latitude, cols.Longitude, cols.Speed, cols.StepDistance, cols.StationCode,
		opts.Layout, loc.String(), opts.SpeedUnits)
	return a.points.GetOrLoad(key, load)
}

func (a *Analyzer) loadReference(cfg *config.AnalysisConfig, in Inputs) (*signals.Mapping, Diagnostics) {
	hasSignals, hasMaster := len(in.Signals) > 0, len(in.Master) > 0
	switch {
	case !hasSignals && !hasMaster:
		return nil, nil
	case !hasSignals || !hasMaster:
		missing := "signal list"
		if hasSignals {
			missing = "OHE master"
		}
		return nil, Diagnostics{warning(CodeSignalReferenceGap, 0,
			"Signal check skipped: %s not supplied", missing)}
	}

	cc := cfg.GetColumns()
	sigCols := signals.SignalColumns{ID: cc.SignalID, Name: cc.SignalName}
	masCols := signals.MasterColumns{ID: cc.MasterID, Latitude: cc.MasterLatitude, Longitude: cc.MasterLongitude}

	load := func() (signals.Mapping, error) {
		sigRows, err := signals.ReadSignals(bytes.NewReader(in.Signals), sigCols)
		if err != nil {
			return signals.Mapping{}, fmt.Errorf("signal list: %w", err)
		}
		masRows, err := signals.ReadMaster(bytes.NewReader(in.Master), masCols)
		if err != nil {
			return signals.Mapping{}, fmt.Errorf("OHE master: %w", err)
		}
		return signals.Map(sigRows, masRows), nil
	}

	var (
		mapping signals.Mapping
		err     error
	)
	if a.mappings == nil {
		mapping, err = load()
	} else {
		key := cache.ContentKey(in.Signals,
			cache.ContentKey(in.Master),
			sigCols.ID, sigCols.Name, masCols.ID, masCols.Latitude, masCols.Longitude)
		mapping, err = a.mappings.GetOrLoad(key, load)
	}
	if err != nil {
		monitoring.Logf("analysis: signal reference unusable: %v", err)
		return nil, Diagnostics{warning(CodeSignalReferenceErr, 0, "Signal check skipped: %v", err)}
	}
	monitoring.Logf("analysis: mapped %d of %d signals (%d unmatched)", mapping.Mapped(), mapping.Total, mapping.Unmatched)
	return &mapping, nil
}

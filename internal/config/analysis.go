package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/spm.report/internal/units"
)

// DefaultConfigPath is the path to the checked-in analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// TrainType selects the signal speed policy applied to a trip.
type TrainType string

const (
	TrainCoaching    TrainType = "Coaching"
	TrainVandeBharat TrainType = "Vande Bharat"
	TrainFreight     TrainType = "Freight"
)

// TrainTypes lists the accepted train types in display order.
var TrainTypes = []TrainType{TrainCoaching, TrainVandeBharat, TrainFreight}

// ParseTrainType returns the TrainType named by s.
func ParseTrainType(s string) (TrainType, error) {
	for _, tt := range TrainTypes {
		if string(tt) == s {
			return tt, nil
		}
	}
	return "", fmt.Errorf("unknown train type %q (want Coaching, Vande Bharat or Freight)", s)
}

// Defaults and accepted ranges for the analysis parameters.
const (
	DefaultMaxPermissibleSpeed    = 110.0
	MinMaxPermissibleSpeed        = 110.0
	MaxMaxPermissibleSpeed        = 160.0
	DefaultStopSpeedThreshold     = 2.0
	MaxStopSpeedThreshold         = 5.0
	DefaultMinStopDurationMinutes = 2.0
	MinMinStopDurationMinutes     = 1.0
	MaxMinStopDurationMinutes     = 60.0

	// DefaultProximityRadiusM is the distance within which the closest
	// telemetry point counts as passing a signal.
	DefaultProximityRadiusM = 200.0
	// DefaultSignalWindowDeg is the half-width of the lat/lon box used to
	// pre-filter telemetry around each signal.
	DefaultSignalWindowDeg = 0.01

	// Signal pass limits. A single threshold per train type stands in for
	// the multi-aspect rules applied on the railway.
	DefaultCoachingSignalLimit = 60.0
	DefaultOtherSignalLimit    = 40.0
)

// ColumnConfig overrides CSV header names. Empty fields keep the defaults.
type ColumnConfig struct {
	Time         string `json:"time,omitempty"`
	Latitude     string `json:"latitude,omitempty"`
	Longitude    string `json:"longitude,omitempty"`
	Speed        string `json:"speed,omitempty"`
	StepDistance string `json:"step_distance,omitempty"`
	StationCode  string `json:"station_code,omitempty"`

	SignalID   string `json:"signal_id,omitempty"`
	SignalName string `json:"signal_name,omitempty"`

	MasterID        string `json:"master_id,omitempty"`
	MasterLatitude  string `json:"master_latitude,omitempty"`
	MasterLongitude string `json:"master_longitude,omitempty"`
}

// AnalysisConfig holds every parameter of one analysis run. It is passed
// explicitly into the pipeline; nil fields fall back to the defaults above.
type AnalysisConfig struct {
	MaxPermissibleSpeed    *float64 `json:"max_permissible_speed,omitempty"`
	TrainType              *string  `json:"train_type,omitempty"`
	StopSpeedThreshold     *float64 `json:"stop_speed_threshold,omitempty"`
	MinStopDurationMinutes *float64 `json:"min_stop_duration_minutes,omitempty"`

	ProximityRadiusM    *float64 `json:"proximity_radius_m,omitempty"`
	SignalWindowDeg     *float64 `json:"signal_window_deg,omitempty"`
	CoachingSignalLimit *float64 `json:"coaching_signal_limit,omitempty"`
	OtherSignalLimit    *float64 `json:"other_signal_limit,omitempty"`

	InputSpeedUnits *string `json:"input_speed_units,omitempty"`
	Timezone        *string `json:"timezone,omitempty"` // IANA name used for timestamps without an offset
	TimestampLayout *string `json:"timestamp_layout,omitempty"`

	Columns *ColumnConfig `json:"columns,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }

// Float64 returns a pointer to v, for populating AnalysisConfig literals.
func Float64(v float64) *float64 { return ptrFloat64(v) }

// String returns a pointer to v, for populating AnalysisConfig literals.
func String(v string) *string { return ptrString(v) }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field populated with its
// default value, suitable for display or as a template file.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		MaxPermissibleSpeed:    ptrFloat64(DefaultMaxPermissibleSpeed),
		TrainType:              ptrString(string(TrainCoaching)),
		StopSpeedThreshold:     ptrFloat64(DefaultStopSpeedThreshold),
		MinStopDurationMinutes: ptrFloat64(DefaultMinStopDurationMinutes),
		ProximityRadiusM:       ptrFloat64(DefaultProximityRadiusM),
		SignalWindowDeg:        ptrFloat64(DefaultSignalWindowDeg),
		CoachingSignalLimit:    ptrFloat64(DefaultCoachingSignalLimit),
		OtherSignalLimit:       ptrFloat64(DefaultOtherSignalLimit),
		InputSpeedUnits:        ptrString(units.KMPH),
		Timezone:               ptrString("UTC"),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseAnalysisConfig(data)
}

// ParseAnalysisConfig decodes and validates a JSON document.
func ParseAnalysisConfig(data []byte) (*AnalysisConfig, error) {
	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkRange(name string, v *float64, lo, hi float64) error {
	if v == nil {
		return nil
	}
	if !(*v >= lo && *v <= hi) {
		return fmt.Errorf("%s must be between %g and %g, got %g", name, lo, hi, *v)
	}
	return nil
}

func checkPositive(name string, v *float64) error {
	if v == nil {
		return nil
	}
	if !(*v > 0) {
		return fmt.Errorf("%s must be positive, got %g", name, *v)
	}
	return nil
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if err := checkRange("max_permissible_speed", c.MaxPermissibleSpeed, MinMaxPermissibleSpeed, MaxMaxPermissibleSpeed); err != nil {
		return err
	}
	if c.TrainType != nil {
		if _, err := ParseTrainType(*c.TrainType); err != nil {
			return err
		}
	}
	if err := checkRange("stop_speed_threshold", c.StopSpeedThreshold, 0, MaxStopSpeedThreshold); err != nil {
		return err
	}
	if err := checkRange("min_stop_duration_minutes", c.MinStopDurationMinutes, MinMinStopDurationMinutes, MaxMinStopDurationMinutes); err != nil {
		return err
	}
	if err := checkPositive("proximity_radius_m", c.ProximityRadiusM); err != nil {
		return err
	}
	if err := checkRange("signal_window_deg", c.SignalWindowDeg, 1e-6, 1); err != nil {
		return err
	}
	if err := checkPositive("coaching_signal_limit", c.CoachingSignalLimit); err != nil {
		return err
	}
	if err := checkPositive("other_signal_limit", c.OtherSignalLimit); err != nil {
		return err
	}
	if c.InputSpeedUnits != nil && !units.IsValid(*c.InputSpeedUnits) {
		return fmt.Errorf("input_speed_units must be one of %s, got %q", units.GetValidUnitsString(), *c.InputSpeedUnits)
	}
	if c.Timezone != nil && *c.Timezone != "" && !units.IsTimezoneValid(*c.Timezone) {
		return fmt.Errorf("invalid timezone %q", *c.Timezone)
	}
	if c.TimestampLayout != nil && *c.TimestampLayout != "" {
		// A layout must at least round-trip its own reference time.
		ref := time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)
		if _, err := time.Parse(*c.TimestampLayout, ref.Format(*c.TimestampLayout)); err != nil {
			return fmt.Errorf("invalid timestamp_layout %q: %w", *c.TimestampLayout, err)
		}
	}
	return nil
}

// GetMaxPermissibleSpeed returns the MPS in km/h or the default.
func (c *AnalysisConfig) GetMaxPermissibleSpeed() float64 {
	if c.MaxPermissibleSpeed == nil {
		return DefaultMaxPermissibleSpeed
	}
	return *c.MaxPermissibleSpeed
}

// GetTrainType returns the train type or Coaching.
func (c *AnalysisConfig) GetTrainType() TrainType {
	if c.TrainType == nil {
		return TrainCoaching
	}
	tt, err := ParseTrainType(*c.TrainType)
	if err != nil {
		return TrainCoaching
	}
	return tt
}

// GetStopSpeedThreshold returns the speed (km/h) below which a point counts as stopped.
func (c *AnalysisConfig) GetStopSpeedThreshold() float64 {
	if c.StopSpeedThreshold == nil {
		return DefaultStopSpeedThreshold
	}
	return *c.StopSpeedThreshold
}

// GetMinStopDuration returns the minimum retained stoppage duration.
func (c *AnalysisConfig) GetMinStopDuration() time.Duration {
	minutes := DefaultMinStopDurationMinutes
	if c.MinStopDurationMinutes != nil {
		minutes = *c.MinStopDurationMinutes
	}
	return time.Duration(minutes * float64(time.Minute))
}

// GetProximityRadiusM returns the signal pass radius in metres.
func (c *AnalysisConfig) GetProximityRadiusM() float64 {
	if c.ProximityRadiusM == nil {
		return DefaultProximityRadiusM
	}
	return *c.ProximityRadiusM
}

// GetSignalWindowDeg returns the bounding-box half-width in degrees.
func (c *AnalysisConfig) GetSignalWindowDeg() float64 {
	if c.SignalWindowDeg == nil {
		return DefaultSignalWindowDeg
	}
	return *c.SignalWindowDeg
}

// GetCoachingSignalLimit returns the signal pass limit for coaching trains.
func (c *AnalysisConfig) GetCoachingSignalLimit() float64 {
	if c.CoachingSignalLimit == nil {
		return DefaultCoachingSignalLimit
	}
	return *c.CoachingSignalLimit
}

// GetOtherSignalLimit returns the signal pass limit for every other train type.
func (c *AnalysisConfig) GetOtherSignalLimit() float64 {
	if c.OtherSignalLimit == nil {
		return DefaultOtherSignalLimit
	}
	return *c.OtherSignalLimit
}

// GetInputSpeedUnits returns the unit of the telemetry speed column.
func (c *AnalysisConfig) GetInputSpeedUnits() string {
	if c.InputSpeedUnits == nil || *c.InputSpeedUnits == "" {
		return units.KMPH
	}
	return *c.InputSpeedUnits
}

// GetLocation returns the timezone applied to timestamps without an offset.
func (c *AnalysisConfig) GetLocation() *time.Location {
	if c.Timezone == nil {
		return time.UTC
	}
	loc, err := units.LoadLocation(*c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetTimestampLayout returns the configured layout, or "" to auto-detect.
func (c *AnalysisConfig) GetTimestampLayout() string {
	if c.TimestampLayout == nil {
		return ""
	}
	return *c.TimestampLayout
}

// GetColumns returns the header overrides; never nil.
func (c *AnalysisConfig) GetColumns() ColumnConfig {
	if c.Columns == nil {
		return ColumnConfig{}
	}
	return *c.Columns
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAnalysisConfig(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 110.0, cfg.GetMaxPermissibleSpeed())
	assert.Equal(t, TrainCoaching, cfg.GetTrainType())
	assert.Equal(t, 2.0, cfg.GetStopSpeedThreshold())
	assert.Equal(t, 2*time.Minute, cfg.GetMinStopDuration())
	assert.Equal(t, 200.0, cfg.GetProximityRadiusM())
	assert.Equal(t, 0.01, cfg.GetSignalWindowDeg())
	assert.Equal(t, 60.0, cfg.GetCoachingSignalLimit())
	assert.Equal(t, 40.0, cfg.GetOtherSignalLimit())
	assert.Equal(t, "kmph", cfg.GetInputSpeedUnits())
	assert.Equal(t, time.UTC, cfg.GetLocation())
}

func TestEmptyAnalysisConfig_GettersFallBack(t *testing.T) {
	cfg := EmptyAnalysisConfig()
	require.NoError(t, cfg.Validate())

	def := DefaultAnalysisConfig()
	assert.Equal(t, def.GetMaxPermissibleSpeed(), cfg.GetMaxPermissibleSpeed())
	assert.Equal(t, def.GetTrainType(), cfg.GetTrainType())
	assert.Equal(t, def.GetMinStopDuration(), cfg.GetMinStopDuration())
	assert.Equal(t, def.GetProximityRadiusM(), cfg.GetProximityRadiusM())
	assert.Equal(t, "", cfg.GetTimestampLayout())
	assert.Equal(t, ColumnConfig{}, cfg.GetColumns())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     AnalysisConfig
		wantErr string
	}{
		{"mps lower bound", AnalysisConfig{MaxPermissibleSpeed: Float64(110)}, ""},
		{"mps upper bound", AnalysisConfig{MaxPermissibleSpeed: Float64(160)}, ""},
		{"mps too low", AnalysisConfig{MaxPermissibleSpeed: Float64(100)}, "max_permissible_speed"},
		{"mps too high", AnalysisConfig{MaxPermissibleSpeed: Float64(161)}, "max_permissible_speed"},
		{"vande bharat", AnalysisConfig{TrainType: String("Vande Bharat")}, ""},
		{"unknown train", AnalysisConfig{TrainType: String("Goods")}, "unknown train type"},
		{"stop threshold zero", AnalysisConfig{StopSpeedThreshold: Float64(0)}, ""},
		{"stop threshold too high", AnalysisConfig{StopSpeedThreshold: Float64(5.5)}, "stop_speed_threshold"},
		{"stop duration too short", AnalysisConfig{MinStopDurationMinutes: Float64(0.5)}, "min_stop_duration_minutes"},
		{"stop duration too long", AnalysisConfig{MinStopDurationMinutes: Float64(61)}, "min_stop_duration_minutes"},
		{"radius zero", AnalysisConfig{ProximityRadiusM: Float64(0)}, "proximity_radius_m"},
		{"window too wide", AnalysisConfig{SignalWindowDeg: Float64(2)}, "signal_window_deg"},
		{"limit negative", AnalysisConfig{CoachingSignalLimit: Float64(-1)}, "coaching_signal_limit"},
		{"bad units", AnalysisConfig{InputSpeedUnits: String("knots")}, "input_speed_units"},
		{"mph units", AnalysisConfig{InputSpeedUnits: String("mph")}, ""},
		{"bad timezone", AnalysisConfig{Timezone: String("Mars/Olympus")}, "invalid timezone"},
		{"kolkata", AnalysisConfig{Timezone: String("Asia/Kolkata")}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadAnalysisConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "trip.json")

	testJSON := `{
  "max_permissible_speed": 130,
  "train_type": "Freight",
  "min_stop_duration_minutes": 5,
  "timezone": "Asia/Kolkata",
  "columns": {"time": "Timestamp"}
}`
	require.NoError(t, os.WriteFile(configPath, []byte(testJSON), 0644))

	cfg, err := LoadAnalysisConfig(configPath)
	require.NoError(t, err)

	assert.Equal(t, 130.0, cfg.GetMaxPermissibleSpeed())
	assert.Equal(t, TrainFreight, cfg.GetTrainType())
	assert.Equal(t, 5*time.Minute, cfg.GetMinStopDuration())
	assert.Equal(t, "Asia/Kolkata", cfg.GetLocation().String())
	assert.Equal(t, "Timestamp", cfg.GetColumns().Time)
	// Omitted fields keep their defaults.
	assert.Equal(t, 2.0, cfg.GetStopSpeedThreshold())
}

func TestLoadAnalysisConfig_Errors(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("wrong extension", func(t *testing.T) {
		_, err := LoadAnalysisConfig(filepath.Join(tmpDir, "cfg.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".json extension")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAnalysisConfig(filepath.Join(tmpDir, "missing.json"))
		require.Error(t, err)
	})

	t.Run("too large", func(t *testing.T) {
		p := filepath.Join(tmpDir, "big.json")
		require.NoError(t, os.WriteFile(p, []byte(strings.Repeat(" ", 1024*1024+1)), 0644))
		_, err := LoadAnalysisConfig(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "too large")
	})

	t.Run("malformed", func(t *testing.T) {
		p := filepath.Join(tmpDir, "bad.json")
		require.NoError(t, os.WriteFile(p, []byte("{"), 0644))
		_, err := LoadAnalysisConfig(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse")
	})

	t.Run("out of range", func(t *testing.T) {
		p := filepath.Join(tmpDir, "range.json")
		require.NoError(t, os.WriteFile(p, []byte(`{"stop_speed_threshold": 9}`), 0644))
		_, err := LoadAnalysisConfig(p)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestCheckedInDefaults(t *testing.T) {
	cfg, err := LoadAnalysisConfig(filepath.Join("..", "..", DefaultConfigPath))
	require.NoError(t, err)

	def := DefaultAnalysisConfig()
	assert.Equal(t, def.GetMaxPermissibleSpeed(), cfg.GetMaxPermissibleSpeed())
	assert.Equal(t, def.GetProximityRadiusM(), cfg.GetProximityRadiusM())
	assert.Equal(t, "Logging Time", cfg.GetColumns().Time)
	assert.Equal(t, "OHEMas", cfg.GetColumns().MasterID)
}

func TestParseTrainType(t *testing.T) {
	for _, tt := range TrainTypes {
		got, err := ParseTrainType(string(tt))
		require.NoError(t, err)
		assert.Equal(t, tt, got)
	}
	_, err := ParseTrainType("coaching")
	assert.Error(t, err)
}

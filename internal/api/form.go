package api

import (
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/banshee-data/spm.report/internal/config"
	"github.com/banshee-data/spm.report/internal/report"
)

// Multipart field names of the upload form.
const (
	fieldTelemetry = "telemetry"
	fieldSignals   = "signals"
	fieldMaster    = "master"
	fieldConfig    = "config" // optional JSON document, overridden by the fields below
)

// formError marks a malformed form value. It is reported as 400.
type formError struct {
	field string
	err   error
}

func (e *formError) Error() string {
	return fmt.Sprintf("field %q: %v", e.field, e.err)
}

func (e *formError) Unwrap() error { return e.err }

func formValue(form *multipart.Form, name string) string {
	if vs := form.Value[name]; len(vs) > 0 {
		return strings.TrimSpace(vs[0])
	}
	return ""
}

// readFile returns the content of the named file part, or nil when the part
// is absent.
func readFile(form *multipart.Form, name string) ([]byte, error) {
	headers := form.File[name]
	if len(headers) == 0 {
		return nil, nil
	}
	f, err := headers[0].Open()
	if err != nil {
		return nil, &formError{field: name, err: err}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, &formError{field: name, err: err}
	}
	return data, nil
}

// configFromForm builds an AnalysisConfig from the optional config JSON
// field and the individual setting fields, which take precedence. Blank
// fields are ignored. Range checks are left to AnalysisConfig.Validate.
func configFromForm(form *multipart.Form) (*config.AnalysisConfig, error) {
	cfg := config.EmptyAnalysisConfig()
	if doc := formValue(form, fieldConfig); doc != "" {
		parsed, err := config.ParseAnalysisConfig([]byte(doc))
		if err != nil {
			return nil, &formError{field: fieldConfig, err: err}
		}
		cfg = parsed
	}

	floats := []struct {
		name string
		dst  **float64
	}{
		{"max_permissible_speed", &cfg.MaxPermissibleSpeed},
		{"stop_speed_threshold", &cfg.StopSpeedThreshold},
		{"min_stop_duration_minutes", &cfg.MinStopDurationMinutes},
		{"proximity_radius_m", &cfg.ProximityRadiusM},
		{"signal_window_deg", &cfg.SignalWindowDeg},
		{"coaching_signal_limit", &cfg.CoachingSignalLimit},
		{"other_signal_limit", &cfg.OtherSignalLimit},
	}
	for _, f := range floats {
		s := formValue(form, f.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &formError{field: f.name, err: fmt.Errorf("not a number: %q", s)}
		}
		*f.dst = config.Float64(v)
	}

	strs := []struct {
		name string
		dst  **string
	}{
		{"train_type", &cfg.TrainType},
		{"input_speed_units", &cfg.InputSpeedUnits},
		{"timezone", &cfg.Timezone},
		{"timestamp_layout", &cfg.TimestampLayout},
	}
	for _, f := range strs {
		if s := formValue(form, f.name); s != "" {
			*f.dst = config.String(s)
		}
	}
	return cfg, nil
}

func metadataFromForm(form *multipart.Form) report.TripMetadata {
	return report.TripMetadata{
		LPName:      formValue(form, "lp_name"),
		LPID:        formValue(form, "lp_id"),
		ALPName:     formValue(form, "alp_name"),
		ALPID:       formValue(form, "alp_id"),
		CLIName:     formValue(form, "cli_name"),
		TrainNumber: formValue(form, "train_number"),
		LocoNumber:  formValue(form, "loco_number"),
		Section:     formValue(form, "section"),
		JourneyDate: formValue(form, "journey_date"),
	}
}

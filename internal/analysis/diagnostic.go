package analysis

import "fmt"

// Severity grades a Diagnostic. Neither level stops the analysis.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// Diagnostic codes.
const (
	CodeNoStoppages         = "no_stoppages"
	CodeNoSignalReference   = "no_signal_reference"
	CodeSignalReferenceGap  = "signal_reference_incomplete"
	CodeSignalReferenceErr  = "signal_reference_error"
	CodeSignalsMapped       = "signals_mapped"
	CodeNoSignalPasses      = "no_signal_passes"
	CodeViolationsFound     = "violations_found"
	CodeNoViolations        = "no_violations"
	CodeSpeedAboveMPS       = "speed_above_mps"
	CodeMissingStationCodes = "no_station_codes"
)

// Diagnostic is a non-fatal observation about an analysis run, such as an
// empty result or a reference table that could not be used.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Count    int      `json:"count"`
}

func info(code string, count int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityInfo, Code: code, Count: count, Message: fmt.Sprintf(format, args...)}
}

func warning(code string, count int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Code: code, Count: count, Message: fmt.Sprintf(format, args...)}
}

// Diagnostics is an ordered list of diagnostics.
type Diagnostics []Diagnostic

// Find returns the first diagnostic with code.
func (d Diagnostics) Find(code string) (Diagnostic, bool) {
	for _, x := range d {
		if x.Code == code {
			return x, true
		}
	}
	return Diagnostic{}, false
}

// Warnings returns the warning-level entries.
func (d Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, x := range d {
		if x.Severity == SeverityWarning {
			out = append(out, x)
		}
	}
	return out
}

// Package signals resolves trackside signal positions from reference tables
// and checks the speed at which a trip passed each of them.
package signals

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/banshee-data/spm.report/internal/geo"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/telemetry"
)

// SignalColumns names the headers of a signal list CSV.
type SignalColumns struct {
	ID   string // origin location code, joined against the master
	Name string
}

// DefaultSignalColumns returns the headers used by the divisional signal
// list export.
func DefaultSignalColumns() SignalColumns {
	return SignalColumns{ID: "OHE FROM", Name: "SIGNAL NAME"}
}

// MasterColumns names the headers of an OHE master CSV.
type MasterColumns struct {
	ID        string
	Latitude  string
	Longitude string
}

// DefaultMasterColumns returns the headers used by the OHE master export.
func DefaultMasterColumns() MasterColumns {
	return MasterColumns{ID: "OHEMas", Latitude: "Latitude", Longitude: "Longitude"}
}

func pick(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// SignalRow is one entry of the signal list.
type SignalRow struct {
	Line int
	ID   string
	Name string
}

// MasterRow is one entry of the coordinate master. Unparseable coordinates
// are stored as NaN and the row never matches.
type MasterRow struct {
	Line int
	ID   string
	Lat  float64
	Lon  float64
}

// ReadSignals reads a signal list. A missing required column is an
// *telemetry.InputFormatError.
func ReadSignals(r io.Reader, cols SignalColumns) ([]SignalRow, error) {
	def := DefaultSignalColumns()
	cols = SignalColumns{ID: pick(cols.ID, def.ID), Name: pick(cols.Name, def.Name)}

	cr := telemetry.NewCSVReader(r)
	hdr, err := telemetry.ReadHeader(cr)
	if err != nil {
		return nil, err
	}
	idIdx, err := hdr.Require(cols.ID)
	if err != nil {
		return nil, err
	}
	nameIdx, err := hdr.Require(cols.Name)
	if err != nil {
		return nil, err
	}

	var rows []SignalRow
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &telemetry.InputFormatError{Row: line, Err: fmt.Errorf("failed to read signal row %d: %w", line, err)}
		}
		rows = append(rows, SignalRow{
			Line: line,
			ID:   telemetry.Cell(record, idIdx),
			Name: telemetry.Cell(record, nameIdx),
		})
	}
	return rows, nil
}

// ReadMaster reads a coordinate master table.
func ReadMaster(r io.Reader, cols MasterColumns) ([]MasterRow, error) {
	def := DefaultMasterColumns()
	cols = MasterColumns{
		ID:        pick(cols.ID, def.ID),
		Latitude:  pick(cols.Latitude, def.Latitude),
		Longitude: pick(cols.Longitude, def.Longitude),
	}

	cr := telemetry.NewCSVReader(r)
	hdr, err := telemetry.ReadHeader(cr)
	if err != nil {
		return nil, err
	}
	idIdx, err := hdr.Require(cols.ID)
	if err != nil {
		return nil, err
	}
	latIdx, err := hdr.Require(cols.Latitude)
	if err != nil {
		return nil, err
	}
	lonIdx, err := hdr.Require(cols.Longitude)
	if err != nil {
		return nil, err
	}

	var rows []MasterRow
	bad := 0
	for line := 1; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &telemetry.InputFormatError{Row: line, Err: fmt.Errorf("failed to read master row %d: %w", line, err)}
		}
		row := MasterRow{Line: line, ID: telemetry.Cell(record, idIdx)}
		lat, latErr := telemetry.ParseFloatCell(record, latIdx, cols.Latitude, line)
		lon, lonErr := telemetry.ParseFloatCell(record, lonIdx, cols.Longitude, line)
		if latErr != nil || lonErr != nil {
			bad++
			lat, lon = math.NaN(), math.NaN()
		}
		row.Lat, row.Lon = lat, lon
		rows = append(rows, row)
	}
	if bad > 0 {
		monitoring.Logf("signals: %d master rows have unreadable coordinates and will not match", bad)
	}
	return rows, nil
}

// NormalizeID puts an identifier into the canonical form used for joining:
// surrounding whitespace is trimmed and integral numbers written with a
// zero fraction ("1234.0") lose it, as spreadsheet exports often add one.
func NormalizeID(s string) string {
	s = strings.TrimSpace(s)
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || whole == "" || frac == "" {
		return s
	}
	if strings.Trim(frac, "0") != "" {
		return s
	}
	digits := strings.TrimPrefix(whole, "-")
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return s
	}
	return whole
}

// SignalRef is a signal resolved to a position.
type SignalRef struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Position returns the signal's coordinates.
func (s SignalRef) Position() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// Mapping is the result of joining a signal list to the master.
type Mapping struct {
	Refs      []SignalRef
	Total     int // signal rows considered
	Unmatched int // signal rows with no usable master entry
}

// Mapped returns the number of resolved signal positions.
func (m Mapping) Mapped() int {
	return len(m.Refs)
}

// Map left-joins signals to master on normalised identifiers. A signal that
// matches several master rows yields one ref per match, in master order.
// Signals without a match, or whose only matches lack coordinates, are
// dropped. Map never fails; an empty result is reported through Mapping.
func Map(signals []SignalRow, master []MasterRow) Mapping {
	byID := make(map[string][]MasterRow, len(master))
	for _, m := range master {
		if !(geo.Point{Lat: m.Lat, Lon: m.Lon}).IsValid() {
			continue
		}
		id := NormalizeID(m.ID)
		byID[id] = append(byID[id], m)
	}

	out := Mapping{Total: len(signals)}
	for _, s := range signals {
		id := NormalizeID(s.ID)
		matches := byID[id]
		if id == "" || len(matches) == 0 {
			out.Unmatched++
			continue
		}
		for _, m := range matches {
			out.Refs = append(out.Refs, SignalRef{ID: id, Name: s.Name, Lat: m.Lat, Lon: m.Lon})
		}
	}
	return out
}

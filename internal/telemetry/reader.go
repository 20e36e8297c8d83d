package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Columns names the CSV headers read from a telemetry file. Matching is
// case-insensitive and ignores surrounding whitespace.
type Columns struct {
	Time         string
	Latitude     string
	Longitude    string
	Speed        string
	StepDistance string // optional: metres travelled since the previous row
	StationCode  string // optional
}

// DefaultColumns returns the header names written by the locomotive SPM
// recorder export.
func DefaultColumns() Columns {
	return Columns{
		Time:         "Logging Time",
		Latitude:     "Latitude",
		Longitude:    "Longitude",
		Speed:        "Speed",
		StepDistance: "distFromPrevLatLng",
		StationCode:  "last/cur stationCode",
	}
}

// Merge returns c with every empty field taken from def.
func (c Columns) Merge(def Columns) Columns {
	pick := func(v, d string) string {
		if strings.TrimSpace(v) == "" {
			return d
		}
		return v
	}
	return Columns{
		Time:         pick(c.Time, def.Time),
		Latitude:     pick(c.Latitude, def.Latitude),
		Longitude:    pick(c.Longitude, def.Longitude),
		Speed:        pick(c.Speed, def.Speed),
		StepDistance: pick(c.StepDistance, def.StepDistance),
		StationCode:  pick(c.StationCode, def.StationCode),
	}
}

// Row is one telemetry record as read, before timestamp parsing and sorting.
type Row struct {
	Line       int // 1-based data row number
	Timestamp  string
	Lat        float64
	Lon        float64
	Speed      float64
	Step       float64 // NaN when blank or when the file has no step column
	Station    string
	HasStation bool
}

// Table is the parsed content of a telemetry CSV.
type Table struct {
	Rows       []Row
	HasStep    bool
	HasStation bool
}

// HeaderIndex maps normalised header names to their column positions.
type HeaderIndex map[string]int

func normaliseHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(s, "\ufeff")))
}

// NewHeaderIndex builds a lookup from a CSV header record.
func NewHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := normaliseHeader(h)
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// Lookup returns the position of the named column, or -1.
func (h HeaderIndex) Lookup(name string) int {
	if i, ok := h[normaliseHeader(name)]; ok {
		return i
	}
	return -1
}

// Require returns the position of the named column or an InputFormatError.
func (h HeaderIndex) Require(name string) (int, error) {
	i := h.Lookup(name)
	if i < 0 {
		return -1, &InputFormatError{Column: name, Err: ErrMissingColumn}
	}
	return i, nil
}

// Cell returns the trimmed cell at i, or "" when the record is short.
func Cell(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

// ParseFloatCell parses a numeric cell; blank cells become NaN.
func ParseFloatCell(record []string, i int, column string, line int) (float64, error) {
	s := Cell(record, i)
	if s == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &InputFormatError{Column: column, Row: line, Value: s, Err: ErrInvalidNumber}
	}
	return v, nil
}

// NewCSVReader returns a csv.Reader configured for spreadsheet exports:
// ragged rows are tolerated and stray quotes are accepted.
func NewCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// ReadHeader reads the first record of cr.
func ReadHeader(cr *csv.Reader) (HeaderIndex, error) {
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &InputFormatError{Err: ErrEmptyInput}
	}
	if err != nil {
		return nil, &InputFormatError{Err: fmt.Errorf("failed to read CSV header: %w", err)}
	}
	return NewHeaderIndex(header), nil
}

// ReadRows streams a telemetry CSV into a Table. Header names, not column
// order, select the fields.
func ReadRows(r io.Reader, cols Columns) (*Table, error) {
	cols = cols.Merge(DefaultColumns())
	cr := NewCSVReader(r)

	hdr, err := ReadHeader(cr)
	if err != nil {
		return nil, err
	}

	timeIdx, err := hdr.Require(cols.Time)
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
	speedIdx, err := hdr.Require(cols.Speed)
	if err != nil {
		return nil, err
	}
	stepIdx := hdr.Lookup(cols.StepDistance)
	stationIdx := hdr.Lookup(cols.StationCode)

	table := &Table{
		HasStep:    stepIdx >= 0,
		HasStation: stationIdx >= 0,
	}

	line := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &InputFormatError{Row: line + 1, Err: fmt.Errorf("failed to read CSV row %d: %w", line+1, err)}
		}
		line++

		row := Row{Line: line, Timestamp: Cell(record, timeIdx), Step: math.NaN()}
		if row.Lat, err = ParseFloatCell(record, latIdx, cols.Latitude, line); err != nil {
			return nil, err
		}
		if row.Lon, err = ParseFloatCell(record, lonIdx, cols.Longitude, line); err != nil {
			return nil, err
		}
		if row.Speed, err = ParseFloatCell(record, speedIdx, cols.Speed, line); err != nil {
			return nil, err
		}
		if table.HasStep {
			if row.Step, err = ParseFloatCell(record, stepIdx, cols.StepDistance, line); err != nil {
				return nil, err
			}
		}
		if table.HasStation {
			row.Station = Cell(record, stationIdx)
			row.HasStation = row.Station != ""
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteXLSX writes rep as a workbook with Summary, Stoppages, Sections and
// Signals sheets.
func WriteXLSX(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetName("Sheet1", "Summary"); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	summary := [][]any{
		{"Field", "Value"},
		{"LP", fmt.Sprintf("%s (%s)", rep.Trip.LPName, rep.Trip.LPID)},
		{"ALP", fmt.Sprintf("%s (%s)", rep.Trip.ALPName, rep.Trip.ALPID)},
		{"CLI", rep.Trip.CLIName},
		{"Train", rep.Trip.TrainNumber},
		{"Loco", rep.Trip.LocoNumber},
		{"Section", rep.Trip.Section},
		{"Journey date", rep.Trip.JourneyDate},
		{"Train type", rep.TrainType},
		{"MPS (km/h)", rep.MPS},
		{"Distance (km)", rep.Summary.DistanceKm},
		{"Duration (h)", rep.Summary.DurationHours},
		{"Average speed (km/h)", rep.Summary.AvgSpeed},
		{"Max speed (km/h)", rep.Summary.MaxSpeed},
		{"Samples above MPS", rep.Summary.OverMPSPoints},
		{"Stoppages", rep.Summary.Stoppages},
		{"Signals mapped", rep.Summary.SignalsMapped},
		{"Signal passes", rep.Summary.SignalPasses},
		{"Violations", rep.Summary.Violations},
		{"Generated", rep.GeneratedAt.Format(timeLayout)},
	}
	if err := writeSheet(f, "Summary", summary, header); err != nil {
		return err
	}

	stops := [][]any{{"Start", "End", "Duration (min)", "Location"}}
	for _, s := range rep.Stoppages {
		stops = append(stops, []any{s.Start.Format(timeLayout), s.End.Format(timeLayout), s.DurationMin, s.Location})
	}
	if err := writeSheet(f, "Stoppages", stops, header); err != nil {
		return err
	}

	sections := [][]any{{"Station", "Start", "End", "Duration (min)", "Distance (km)", "Mean speed", "Max speed"}}
	for _, s := range rep.Sections {
		sections = append(sections, []any{s.Station, s.Start.Format(timeLayout), s.End.Format(timeLayout),
			s.DurationMin, s.DistanceKm, s.MeanSpeed, s.MaxSpeed})
	}
	if err := writeSheet(f, "Sections", sections, header); err != nil {
		return err
	}

	passes := [][]any{{"Signal", "Pass time", "Speed (km/h)", "Distance (m)", "Limit (km/h)", "Excess (km/h)"}}
	for _, v := range rep.Violations {
		passes = append(passes, []any{v.Signal, v.PassTime.Format(timeLayout), v.Speed, v.DistanceM, v.Limit, v.Excess})
	}
	if err := writeSheet(f, "Violations", passes, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style %s header: %w", sheet, err)
		}
		end, _ := excelize.ColumnNumberToName(len(rows[0]))
		if err := f.SetColWidth(sheet, "A", end, 20); err != nil {
			return fmt.Errorf("failed to size %s columns: %w", sheet, err)
		}
	}
	return nil
}

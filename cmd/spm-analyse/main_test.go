package main

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spm.report/internal/config"
	"github.com/banshee-data/spm.report/internal/fsutil"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/report"
	"github.com/banshee-data/spm.report/internal/telemetry"
	"github.com/banshee-data/spm.report/internal/timeutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	m.Run()
}

var generatedAt = time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC)

func tripCSV() string {
	var b strings.Builder
	b.WriteString("Logging Time,Latitude,Longitude,Speed\n")
	lats := []float64{-0.01, -0.01, -0.01, -0.01, -0.005, 0.0005, 0.01}
	speeds := []float64{50, 1, 1, 1, 60, 70, 80}
	for i := range speeds {
		fmt.Fprintf(&b, "01/03/2024 10:%02d:00,%g,0,%g\n", i, lats[i], speeds[i])
	}
	return b.String()
}

func memFS(t *testing.T, files map[string]string) *fsutil.MemoryFileSystem {
	t.Helper()
	mfs := fsutil.NewMemoryFileSystem()
	require.NoError(t, mfs.MkdirAll("/in", 0o755))
	for name, content := range files {
		require.NoError(t, mfs.WriteFile(filepath.Join("/in", name), []byte(content), 0o644))
	}
	return mfs
}

func TestRun_WritesEveryFormat(t *testing.T) {
	mfs := memFS(t, map[string]string{
		"trip.csv":    tripCSV(),
		"signals.csv": "OHE FROM,SIGNAL NAME\n101,S1 Home\n",
		"master.csv":  "OHEMas,Latitude,Longitude\n101,0,0\n",
	})
	outDir := t.TempDir()

	written, res, err := run(context.Background(), mfs, timeutil.NewMockClock(generatedAt), options{
		Telemetry: "/in/trip.csv",
		Signals:   "/in/signals.csv",
		Master:    "/in/master.csv",
		Config:    config.DefaultAnalysisConfig(),
		Meta:      report.TripMetadata{LocoNumber: "30201"},
		OutDir:    outDir,
		Formats:   []string{"html", "xlsx", "json"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(outDir, "SPM_Report_30201.html"),
		filepath.Join(outDir, "SPM_Report_30201.xlsx"),
		filepath.Join(outDir, "SPM_Report_30201.json"),
	}, written)
	assert.Len(t, res.Stoppages, 1)
	assert.Len(t, res.Violations, 1)

	data, err := mfs.ReadFile(written[2])
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Equal(t, generatedAt, rep.GeneratedAt)
	assert.Equal(t, 1, rep.Summary.Violations)

	html, err := mfs.ReadFile(written[0])
	require.NoError(t, err)
	assert.Contains(t, string(html), "S1 Home")
}

func TestRun_Errors(t *testing.T) {
	mfs := memFS(t, map[string]string{
		"trip.csv": tripCSV(),
		"bad.csv":  "Logging Time,Latitude\n",
	})

	tests := []struct {
		name string
		opts options
		is   error
		msg  string
	}{
		{name: "no telemetry flag", opts: options{}, msg: "-telemetry is required"},
		{name: "missing file", opts: options{Telemetry: "/in/none.csv"}, msg: "failed to read telemetry"},
		{name: "bad telemetry", opts: options{Telemetry: "/in/bad.csv"}, is: telemetry.ErrInputFormat},
		{name: "missing signal list", opts: options{Telemetry: "/in/trip.csv", Signals: "/in/none.csv"}, msg: "failed to read signal list"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.OutDir = t.TempDir()
			tt.opts.Formats = []string{"json"}
			_, _, err := run(context.Background(), mfs, timeutil.NewMockClock(generatedAt), tt.opts)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	got, err := parseFormats(" HTML, json,html,, xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{"html", "json", "xlsx"}, got)

	_, err = parseFormats("pdf")
	assert.ErrorContains(t, err, `unknown format "pdf"`)

	_, err = parseFormats(" , ")
	assert.Error(t, err)
}

func TestFlagDefaults(t *testing.T) {
	assert.Equal(t, "html,xlsx,json", *formats)
	assert.Equal(t, ".", *outDir)
	assert.Equal(t, 0.0, *mps)
}

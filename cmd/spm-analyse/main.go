// Command spm-analyse analyses one locomotive speedometer export and writes
// the report files.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/spm.report/internal/analysis"
	"github.com/banshee-data/spm.report/internal/config"
	"github.com/banshee-data/spm.report/internal/fsutil"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/report"
	"github.com/banshee-data/spm.report/internal/security"
	"github.com/banshee-data/spm.report/internal/timeutil"
	"github.com/banshee-data/spm.report/internal/version"
)

const maxInputBytes = 256 << 20

var (
	telemetryPath = flag.String("telemetry", "", "Telemetry CSV exported from the SPM recorder (required)")
	signalsPath   = flag.String("signals", "", "Signal list CSV (optional, needs -master)")
	masterPath    = flag.String("master", "", "OHE master CSV with signal coordinates (optional, needs -signals)")
	configPath    = flag.String("config", "", "Analysis config JSON; defaults apply when empty")
	mps           = flag.Float64("mps", 0, "Maximum permissible speed in km/h, overrides the config")
	trainType     = flag.String("train-type", "", "Coaching, Vande Bharat or Freight, overrides the config")
	outDir        = flag.String("out-dir", ".", "Directory for the report files")
	formats       = flag.String("format", "html,xlsx,json", "Comma separated report formats: html, xlsx, json")
	showVersion   = flag.Bool("version", false, "Print the version and exit")

	lpName      = flag.String("lp-name", "", "Loco pilot name")
	lpID        = flag.String("lp-id", "", "Loco pilot id")
	alpName     = flag.String("alp-name", "", "Assistant loco pilot name")
	alpID       = flag.String("alp-id", "", "Assistant loco pilot id")
	cliName     = flag.String("cli-name", "", "Chief loco inspector name")
	trainNumber = flag.String("train-number", "", "Train number")
	locoNumber  = flag.String("loco", "", "Locomotive number, used in the file names")
	section     = flag.String("section", "", "Section, e.g. NDLS-GZB")
	journeyDate = flag.String("journey-date", "", "Journey date")
)

// options is everything run needs, so tests can drive it without flags.
type options struct {
	Telemetry, Signals, Master string
	Config                     *config.AnalysisConfig
	Meta                       report.TripMetadata
	OutDir                     string
	Formats                    []string
}

var knownFormats = map[string]string{"html": "html", "xlsx": "xlsx", "json": "json"}

func parseFormats(s string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		if _, ok := knownFormats[f]; !ok {
			return nil, fmt.Errorf("unknown format %q (want html, xlsx or json)", f)
		}
		seen[f] = true
		out = append(out, f)
	}
	if len(out) == 0 {
		return nil, errors.New("no output format selected")
	}
	return out, nil
}

// run analyses the inputs named in opts and writes one file per format.
// It returns the written paths and the analysis result.
func run(ctx context.Context, fsys fsutil.FileSystem, clock timeutil.Clock, opts options) ([]string, *analysis.Result, error) {
	if opts.Telemetry == "" {
		return nil, nil, errors.New("-telemetry is required")
	}

	var in analysis.Inputs
	var err error
	if in.Telemetry, err = fsutil.ReadLimited(fsys, opts.Telemetry, maxInputBytes); err != nil {
		return nil, nil, fmt.Errorf("failed to read telemetry: %w", err)
	}
	if opts.Signals != "" {
		if in.Signals, err = fsutil.ReadLimited(fsys, opts.Signals, maxInputBytes); err != nil {
			return nil, nil, fmt.Errorf("failed to read signal list: %w", err)
		}
	}
	if opts.Master != "" {
		if in.Master, err = fsutil.ReadLimited(fsys, opts.Master, maxInputBytes); err != nil {
			return nil, nil, fmt.Errorf("failed to read master list: %w", err)
		}
	}

	res, err := analysis.NewAnalyzer(0).Run(ctx, opts.Config, in)
	if err != nil {
		return nil, nil, err
	}
	rep := report.Assemble(opts.Meta, res, clock.Now())

	if err := fsys.MkdirAll(opts.OutDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, format := range opts.Formats {
		data, err := render(format, rep, res)
		if err != nil {
			return written, res, err
		}
		name := report.Filename(rep, knownFormats[format])
		if err := security.ValidatePathWithinDirectory(filepath.Join(opts.OutDir, name), opts.OutDir); err != nil {
			return written, res, err
		}
		p, err := fsutil.WriteInDir(fsys, opts.OutDir, name, data)
		if err != nil {
			return written, res, err
		}
		written = append(written, p)
	}
	return written, res, nil
}

func render(format string, rep *report.Report, res *analysis.Result) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "html":
		chart, err := report.SpeedProfilePNG(res.Points, rep.MPS)
		if err != nil {
			if !errors.Is(err, report.ErrNoSpeedData) {
				log.Printf("speed chart skipped: %v", err)
			}
			chart = nil
		}
		if err := report.RenderHTML(&buf, rep, chart); err != nil {
			return nil, fmt.Errorf("failed to render html: %w", err)
		}
	case "xlsx":
		if err := report.WriteXLSX(&buf, rep); err != nil {
			return nil, fmt.Errorf("failed to build workbook: %w", err)
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return nil, fmt.Errorf("failed to encode json: %w", err)
		}
	}
	return buf.Bytes(), nil
}

func loadConfig() (*config.AnalysisConfig, error) {
	cfg := config.EmptyAnalysisConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(*configPath); err != nil {
			return nil, err
		}
	}
	if *mps != 0 {
		cfg.MaxPermissibleSpeed = config.Float64(*mps)
	}
	if *trainType != "" {
		cfg.TrainType = config.String(*trainType)
	}
	return cfg, nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("spm-analyse", version.String())
		return
	}

	monitoring.SetLogger(log.Printf)

	fmts, err := parseFormats(*formats)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	written, res, err := run(ctx, fsutil.OSFileSystem{}, timeutil.RealClock{}, options{
		Telemetry: *telemetryPath,
		Signals:   *signalsPath,
		Master:    *masterPath,
		Config:    cfg,
		Meta: report.TripMetadata{
			LPName:      *lpName,
			LPID:        *lpID,
			ALPName:     *alpName,
			ALPID:       *alpID,
			CLIName:     *cliName,
			TrainNumber: *trainNumber,
			LocoNumber:  *locoNumber,
			Section:     *section,
			JourneyDate: *journeyDate,
		},
		OutDir:  *outDir,
		Formats: fmts,
	})
	if err != nil {
		log.Printf("analysis failed: %v", err)
		os.Exit(1)
	}

	for _, d := range res.Diagnostics {
		log.Printf("%s: %s", d.Severity, d.Message)
	}
	for _, p := range written {
		log.Printf("wrote %s", p)
	}
}

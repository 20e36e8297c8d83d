// Package api serves the SPM analysis over HTTP: trips are uploaded as
// multipart forms, analysed, and kept for a while so the report can be
// downloaded as JSON, HTML or XLSX.
package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/banshee-data/spm.report/internal/analysis"
	"github.com/banshee-data/spm.report/internal/config"
	"github.com/banshee-data/spm.report/internal/httputil"
	"github.com/banshee-data/spm.report/internal/metrics"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/report"
	"github.com/banshee-data/spm.report/internal/segment"
	"github.com/banshee-data/spm.report/internal/telemetry"
	"github.com/banshee-data/spm.report/internal/timeutil"
	"github.com/banshee-data/spm.report/internal/version"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Options configures a Server. Zero values select the defaults.
type Options struct {
	CacheSize      int           // parsed inputs memoised by the analyzer
	ReportCapacity int           // reports kept for download
	ReportTTL      time.Duration // how long a report stays downloadable
	MaxUploadBytes int64
	Clock          timeutil.Clock
}

// Defaults used by NewServer for zero Options fields.
const (
	DefaultCacheSize      = 32
	DefaultReportCapacity = 256
	DefaultReportTTL      = time.Hour
	DefaultMaxUploadBytes = 64 << 20
)

// Server handles the HTTP API.
type Server struct {
	analyzer  *analysis.Analyzer
	reports   *reportStore
	metrics   *metrics.Collector
	clock     timeutil.Clock
	maxUpload int64
}

// NewServer returns a Server with its own analyzer, report store and
// metrics registry.
func NewServer(opts Options) *Server {
	if opts.CacheSize == 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.ReportCapacity <= 0 {
		opts.ReportCapacity = DefaultReportCapacity
	}
	if opts.ReportTTL <= 0 {
		opts.ReportTTL = DefaultReportTTL
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	s := &Server{
		analyzer:  analysis.NewAnalyzer(opts.CacheSize),
		reports:   newReportStore(opts.ReportCapacity, opts.ReportTTL),
		clock:     opts.Clock,
		maxUpload: opts.MaxUploadBytes,
	}
	s.metrics = metrics.NewCollector(s.analyzer.CacheStats, s.reports.len)
	return s
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.analyze)
	mux.HandleFunc("/api/reports/{id}", s.showReport)
	mux.HandleFunc("/api/reports/{id}/{format}", s.showReport)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/version", s.showVersion)
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.ServeMux())
}

type analyzeResponse struct {
	ID          string               `json:"id"`
	Report      *report.Report       `json:"report"`
	Diagnostics analysis.Diagnostics `json:"diagnostics"`
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w, http.MethodPost)
		return
	}
	start := s.clock.Now()
	outcome := metrics.OutcomeOK
	defer func() { s.metrics.ObserveAnalysis(outcome, s.clock.Since(start)) }()

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		outcome = metrics.OutcomeInputError
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RequestTooLarge(w, s.maxUpload)
			return
		}
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()
	form := r.MultipartForm

	var in analysis.Inputs
	var err error
	if in.Telemetry, err = readFile(form, fieldTelemetry); err == nil && in.Telemetry == nil {
		err = &formError{field: fieldTelemetry, err: errors.New("file is required")}
	}
	if err == nil {
		in.Signals, err = readFile(form, fieldSignals)
	}
	if err == nil {
		in.Master, err = readFile(form, fieldMaster)
	}
	if err != nil {
		outcome = metrics.OutcomeInputError
		httputil.BadRequest(w, err.Error())
		return
	}
	s.metrics.UploadBytes.Observe(float64(len(in.Telemetry)))

	cfg, err := configFromForm(form)
	if err != nil {
		outcome = metrics.OutcomeConfigError
		httputil.BadRequest(w, err.Error())
		return
	}

	res, err := s.analyzer.Run(r.Context(), cfg, in)
	if err != nil {
		outcome = s.writeAnalysisError(w, err)
		return
	}
	s.metrics.ObserveResult(len(res.Points), len(res.Stoppages), len(res.Passes), len(res.Violations))

	rep := report.Assemble(metadataFromForm(form), res, s.clock.Now())
	id, err := s.reports.put(rep, res)
	if err != nil {
		outcome = metrics.OutcomeError
		httputil.InternalServerError(w, "failed to store report")
		return
	}

	w.Header().Set("Location", "/api/reports/"+id)
	httputil.WriteJSON(w, http.StatusCreated, analyzeResponse{ID: id, Report: rep, Diagnostics: rep.Diagnostics})
}

// writeAnalysisError maps err to a response and returns the metrics outcome.
func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) string {
	switch {
	case errors.Is(err, telemetry.ErrInputFormat):
		httputil.BadRequest(w, err.Error())
		return metrics.OutcomeInputError
	case errors.Is(err, analysis.ErrInvalidConfig):
		httputil.BadRequest(w, err.Error())
		return metrics.OutcomeConfigError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		httputil.WriteJSONError(w, http.StatusServiceUnavailable, "analysis cancelled")
		return metrics.OutcomeCanceled
	default:
		monitoring.Logf("api: analysis failed: %v", err)
		httputil.InternalServerError(w, "analysis failed")
		return metrics.OutcomeError
	}
}

func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	stored, ok := s.reports.get(r.PathValue("id"))
	if !ok {
		httputil.NotFound(w, "report not found or expired")
		return
	}

	format := r.PathValue("format")
	if format == "" {
		format = "json"
	}
	switch format {
	case "json":
		s.writeReportJSON(w, r, stored)
	case "html":
		s.writeReportHTML(w, r, stored)
	case "xlsx":
		s.writeReportXLSX(w, stored)
	case "speed":
		s.writeSpeedPage(w, stored)
	default:
		httputil.NotFound(w, "unknown report format "+format)
		return
	}
	s.metrics.Downloads.WithLabelValues(format).Inc()
}

func (s *Server) writeReportJSON(w http.ResponseWriter, r *http.Request, stored *storedReport) {
	rep := stored.report
	switch order := r.URL.Query().Get("order"); order {
	case "", "time":
	case "duration":
		sorted := *rep
		sorted.Stoppages = report.StoppageRows(segment.ByDurationDesc(stored.result.Stoppages))
		rep = &sorted
	default:
		httputil.BadRequest(w, "order must be time or duration")
		return
	}
	httputil.WriteJSONOK(w, rep)
}

func (s *Server) writeReportHTML(w http.ResponseWriter, r *http.Request, stored *storedReport) {
	chart, err := report.SpeedProfilePNG(stored.result.Points, stored.report.MPS)
	if err != nil {
		if !errors.Is(err, report.ErrNoSpeedData) {
			monitoring.Logf("api: speed chart failed: %v", err)
		}
		chart = nil
	}

	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, stored.report, chart); err != nil {
		monitoring.Logf("api: render html: %v", err)
		httputil.InternalServerError(w, "failed to render report")
		return
	}
	inline := r.URL.Query().Get("inline") == "1"
	httputil.WriteAttachment(w, "text/html; charset=utf-8", report.Filename(stored.report, "html"), buf.Bytes(), inline)
}

func (s *Server) writeReportXLSX(w http.ResponseWriter, stored *storedReport) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, stored.report); err != nil {
		monitoring.Logf("api: write xlsx: %v", err)
		httputil.InternalServerError(w, "failed to build workbook")
		return
	}
	httputil.WriteAttachment(w, xlsxContentType, report.Filename(stored.report, "xlsx"), buf.Bytes(), false)
}

func (s *Server) writeSpeedPage(w http.ResponseWriter, stored *storedReport) {
	var buf bytes.Buffer
	subtitle := stored.report.Trip.TrainNumber
	if err := report.SpeedProfilePage(&buf, stored.result.Points, stored.report.MPS, subtitle); err != nil {
		monitoring.Logf("api: speed page: %v", err)
		httputil.InternalServerError(w, "failed to render speed profile")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(buf.Bytes()); err != nil {
		monitoring.Logf("api: write speed page: %v", err)
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, config.DefaultAnalysisConfig())
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w, http.MethodGet)
		return
	}
	httputil.WriteJSONOK(w, version.Current())
}

// Command spm-server serves the SPM analysis API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/spm.report/internal/api"
	"github.com/banshee-data/spm.report/internal/config"
	"github.com/banshee-data/spm.report/internal/monitoring"
	"github.com/banshee-data/spm.report/internal/version"
)

var (
	envFile     = flag.String("env", "", "Environment file to load before reading SPM_* variables (default .env)")
	listen      = flag.String("listen", "", "Listen address, overrides SPM_LISTEN")
	showVersion = flag.Bool("version", false, "Print the version and exit")
)

func newHTTPServer(cfg *config.ServerConfig) *http.Server {
	s := api.NewServer(api.Options{
		CacheSize:      cfg.CacheSize,
		ReportCapacity: cfg.ReportCapacity,
		ReportTTL:      cfg.ReportTTL,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	return &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("spm-server", version.String())
		return
	}

	monitoring.SetLogger(log.Printf)

	var files []string
	if *envFile != "" {
		files = append(files, *envFile)
	}
	cfg, err := config.LoadServerConfig(files...)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := newHTTPServer(cfg)

	// Start server in a goroutine so it doesn't block
	go func() {
		log.Printf("spm-server %s listening on %s", version.Version, cfg.Listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Printf("Graceful shutdown complete")
}

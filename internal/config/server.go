package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig is the process configuration of spm-server, read from the
// environment.
type ServerConfig struct {
	Listen         string
	CacheSize      int // parsed uploads memoised; negative disables
	ReportCapacity int
	ReportTTL      time.Duration
	MaxUploadBytes int64
}

// LoadServerConfig loads envFiles into the environment and reads the SPM_*
// variables. With no files named it loads ".env" if present. Named files
// must exist and parse. Variables already set in the environment win over
// the files.
func LoadServerConfig(envFiles ...string) (*ServerConfig, error) {
	if err := godotenv.Load(envFiles...); err != nil {
		if len(envFiles) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}
	return ServerConfigFromEnv(os.Getenv)
}

// ServerConfigFromEnv reads the SPM_* variables through getenv.
func ServerConfigFromEnv(getenv func(string) string) (*ServerConfig, error) {
	cfg := &ServerConfig{
		Listen:         ":8080",
		CacheSize:      32,
		ReportCapacity: 256,
		ReportTTL:      time.Hour,
		MaxUploadBytes: 64 << 20,
	}

	if v := getenv("SPM_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := getenv("SPM_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SPM_CACHE_SIZE: %q", v)
		}
		cfg.CacheSize = n
	}
	if v := getenv("SPM_REPORT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid SPM_REPORT_CAPACITY: %q", v)
		}
		cfg.ReportCapacity = n
	}
	if v := getenv("SPM_REPORT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid SPM_REPORT_TTL: %q", v)
		}
		cfg.ReportTTL = d
	}
	if v := getenv("SPM_MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.Atoi(v)
		if err != nil || mb <= 0 {
			return nil, fmt.Errorf("invalid SPM_MAX_UPLOAD_MB: %q", v)
		}
		cfg.MaxUploadBytes = int64(mb) << 20
	}
	return cfg, nil
}

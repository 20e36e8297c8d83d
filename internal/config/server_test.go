package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestServerConfigFromEnv_Defaults(t *testing.T) {
	cfg, err := ServerConfigFromEnv(envOf(nil))
	require.NoError(t, err)
	assert.Equal(t, &ServerConfig{
		Listen:         ":8080",
		CacheSize:      32,
		ReportCapacity: 256,
		ReportTTL:      time.Hour,
		MaxUploadBytes: 64 << 20,
	}, cfg)
}

func TestServerConfigFromEnv(t *testing.T) {
	cfg, err := ServerConfigFromEnv(envOf(map[string]string{
		"SPM_LISTEN":          "127.0.0.1:9000",
		"SPM_CACHE_SIZE":      "-1",
		"SPM_REPORT_CAPACITY": "10",
		"SPM_REPORT_TTL":      "15m",
		"SPM_MAX_UPLOAD_MB":   "8",
	}))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, -1, cfg.CacheSize)
	assert.Equal(t, 10, cfg.ReportCapacity)
	assert.Equal(t, 15*time.Minute, cfg.ReportTTL)
	assert.Equal(t, int64(8<<20), cfg.MaxUploadBytes)
}

func TestServerConfigFromEnv_Invalid(t *testing.T) {
	for _, kv := range [][2]string{
		{"SPM_CACHE_SIZE", "many"},
		{"SPM_REPORT_CAPACITY", "0"},
		{"SPM_REPORT_TTL", "soon"},
		{"SPM_REPORT_TTL", "-1h"},
		{"SPM_MAX_UPLOAD_MB", "0"},
	} {
		_, err := ServerConfigFromEnv(envOf(map[string]string{kv[0]: kv[1]}))
		require.Error(t, err, kv[0]+"="+kv[1])
		assert.Contains(t, err.Error(), kv[0])
	}
}

func TestLoadServerConfig_EnvFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "spm.env")
	require.NoError(t, os.WriteFile(p, []byte("SPM_LISTEN=:9999\nSPM_REPORT_TTL=2h\n"), 0o644))
	t.Setenv("SPM_LISTEN", "")
	os.Unsetenv("SPM_LISTEN")
	t.Setenv("SPM_REPORT_TTL", "30m")

	cfg, err := LoadServerConfig(p)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Listen)
	assert.Equal(t, 30*time.Minute, cfg.ReportTTL, "environment wins over the file")
}

func TestLoadServerConfig_DefaultEnvFileOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestLoadServerConfig_NamedFileErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.env")
	require.NoError(t, os.WriteFile(bad, []byte("SPM-LISTEN=:9999\n"), 0o644))

	tests := []struct {
		name string
		file string
	}{
		{"missing", filepath.Join(dir, "missing.env")},
		{"malformed", bad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadServerConfig(tt.file)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "env file")
		})
	}
}

func TestLoadServerConfig_MalformedDefaultEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SPM-LISTEN=:9999\n"), 0o644))
	t.Chdir(dir)

	_, err := LoadServerConfig()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
	assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
	assert.Equal(t, DefaultUpstreamURL, cfg.UpstreamURL)
	assert.Equal(t, DefaultSampleRate, cfg.SampleRate)
	assert.True(t, cfg.FormatTurns)
	assert.Equal(t, DefaultMinChunkMs, cfg.MinChunkMs)
	assert.Equal(t, DefaultMaxChunkMs, cfg.MaxChunkMs)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv(ListenAddrEnvVar, ":9999")
	t.Setenv(SampleRateEnvVar, "8000")
	t.Setenv(APIKeyEnvVar, "secret")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, 8000, cfg.SampleRate)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestChunkByteDerivation(t *testing.T) {
	cfg := &Config{
		SampleRate: 16000,
		MinChunkMs: 50,
		MaxChunkMs: 1000,
	}

	assert.Equal(t, 32000, cfg.BytesPerSecond())
	assert.Equal(t, 1600, cfg.MinChunkBytes())
	assert.Equal(t, 32000, cfg.MaxChunkBytes())
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := FromEnv()
		cfg.APIKey = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing api key", func(c *Config) { c.APIKey = "" }, APIKeyEnvVar},
		{"missing upstream url", func(c *Config) { c.UpstreamURL = "" }, "upstream_url"},
		{"sample rate too low", func(c *Config) { c.SampleRate = 4000 }, "sample_rate"},
		{"zero min chunk", func(c *Config) { c.MinChunkMs = 0 }, "min_chunk_ms"},
		{"max below min", func(c *Config) { c.MaxChunkMs = 10 }, "max_chunk_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	t.Setenv(APIKeyEnvVar, "secret")
	t.Setenv("TEST_ARTIFACT_DIR", "/tmp/artifacts")

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen_addr: ":7070"
artifact_dir: "${TEST_ARTIFACT_DIR}"
sample_rate: 8000
format_turns: false
min_chunk_ms: 100
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "/tmp/artifacts", cfg.ArtifactDir, "env vars in the file should expand")
	assert.Equal(t, 8000, cfg.SampleRate)
	assert.False(t, cfg.FormatTurns)
	assert.Equal(t, 100, cfg.MinChunkMs)
	assert.Equal(t, DefaultMaxChunkMs, cfg.MaxChunkMs, "unset fields fall back to defaults")
	assert.Equal(t, "secret", cfg.APIKey, "api key always comes from the environment")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoadOrEnvEmptyPath(t *testing.T) {
	cfg, err := LoadOrEnv("")
	require.NoError(t, err)
	assert.Equal(t, DefaultListenAddr, cfg.ListenAddr)
}

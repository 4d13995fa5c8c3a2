package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variable names recognized by Load.
const (
	APIKeyEnvVar      = "SPEECH_API_KEY"
	UpstreamURLEnvVar = "SPEECH_API_URL"
	ListenAddrEnvVar  = "RELAY_LISTEN_ADDR"
	MetricsAddrEnvVar = "RELAY_METRICS_ADDR"
	ArtifactDirEnvVar = "RELAY_ARTIFACT_DIR"
	SampleRateEnvVar  = "RELAY_SAMPLE_RATE"
	LogLevelEnvVar    = "RELAY_LOG_LEVEL"
)

// Config holds the relay server configuration.
type Config struct {
	// ListenAddr is the address the WebSocket/API server binds to.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr is the address the Prometheus endpoint binds to.
	MetricsAddr string `yaml:"metrics_addr"`

	// UpstreamURL is the realtime speech API WebSocket endpoint.
	UpstreamURL string `yaml:"upstream_url"`

	// APIKey is the static credential sent in the Authorization header
	// on the upstream connection. Populated from the environment, never
	// from the YAML file.
	APIKey string `yaml:"-"`

	// ArtifactDir is where per-session audio and transcript files land.
	ArtifactDir string `yaml:"artifact_dir"`

	// SampleRate of the PCM16 audio relayed upstream, in Hz.
	SampleRate int `yaml:"sample_rate"`

	// FormatTurns asks the upstream API for formatted turn transcripts.
	// On unless the YAML file turns it off.
	FormatTurns bool `yaml:"format_turns"`

	// MinChunkMs and MaxChunkMs bound the audio chunks sent upstream, in
	// milliseconds. The upstream API rejects chunks outside its window.
	MinChunkMs int `yaml:"min_chunk_ms"`
	MaxChunkMs int `yaml:"max_chunk_ms"`

	// LogLevel is a zap level string: debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// BytesPerSecond returns the PCM16 mono byte rate for the configured
// sample rate.
func (c *Config) BytesPerSecond() int {
	return c.SampleRate * 2
}

// MinChunkBytes returns the smallest chunk the relay sends upstream.
func (c *Config) MinChunkBytes() int {
	return c.MinChunkMs * c.BytesPerSecond() / 1000
}

// MaxChunkBytes returns the largest chunk the relay sends upstream.
func (c *Config) MaxChunkBytes() int {
	return c.MaxChunkMs * c.BytesPerSecond() / 1000
}

// FromEnv builds a Config from environment variables on top of defaults.
func FromEnv() *Config {
	cfg := &Config{FormatTurns: true}
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv(ListenAddrEnvVar); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv(MetricsAddrEnvVar); v != "" {
		c.MetricsAddr = v
	}
	if v := os.Getenv(UpstreamURLEnvVar); v != "" {
		c.UpstreamURL = v
	}
	if v := os.Getenv(ArtifactDirEnvVar); v != "" {
		c.ArtifactDir = v
	}
	if v := os.Getenv(SampleRateEnvVar); v != "" {
		if rate, err := strconv.Atoi(v); err == nil {
			c.SampleRate = rate
		}
	}
	if v := os.Getenv(LogLevelEnvVar); v != "" {
		c.LogLevel = v
	}
	c.APIKey = os.Getenv(APIKeyEnvVar)
}

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing environment variable %s", APIKeyEnvVar)
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream_url is required")
	}
	if c.SampleRate < 8000 {
		return fmt.Errorf("sample_rate must be >= 8000, got %d", c.SampleRate)
	}
	if c.MinChunkMs <= 0 {
		return fmt.Errorf("min_chunk_ms must be positive")
	}
	if c.MaxChunkMs < c.MinChunkMs {
		return fmt.Errorf("max_chunk_ms (%d) cannot be below min_chunk_ms (%d)",
			c.MaxChunkMs, c.MinChunkMs)
	}
	return nil
}

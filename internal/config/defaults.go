package config

// Default values for optional configuration fields.
const (
	DefaultListenAddr  = ":8080"
	DefaultMetricsAddr = ":9090"
	DefaultUpstreamURL = "wss://streaming.assemblyai.com/v3/ws"
	DefaultArtifactDir = "sessions"
	DefaultSampleRate  = 16000

	// Chunk duration bounds accepted by the upstream streaming API, in
	// milliseconds.
	DefaultMinChunkMs = 50
	DefaultMaxChunkMs = 1000
)

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if c.UpstreamURL == "" {
		c.UpstreamURL = DefaultUpstreamURL
	}
	if c.ArtifactDir == "" {
		c.ArtifactDir = DefaultArtifactDir
	}
	if c.SampleRate == 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.MinChunkMs == 0 {
		c.MinChunkMs = DefaultMinChunkMs
	}
	if c.MaxChunkMs == 0 {
		c.MaxChunkMs = DefaultMaxChunkMs
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

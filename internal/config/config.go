// Package config provides the configuration schema, loader, and provider
// registry for the Vocalis voice-note server.
package config

import "time"

// LogLevel controls log verbosity for the Vocalis server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for Vocalis.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Recording RecordingConfig `yaml:"recording"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// ServerConfig holds network and logging settings for the Vocalis server.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`

	// MaxBodyBytes caps the size of a single request body. Zero means the
	// default of 20 MiB.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`

	// EnableCORS turns on permissive cross-origin headers for the API
	// routes. Off by default; intended for local development against a
	// separately served front end.
	EnableCORS bool `yaml:"enable_cors"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS.
type TLSConfig struct {
	// CertFile is the path to the PEM-encoded TLS certificate.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the path to the PEM-encoded TLS private key.
	KeyFile string `yaml:"key_file"`
}

// ProvidersConfig declares which provider implementation to use for each
// pipeline stage. Each field selects a named provider registered in the
// [Registry].
type ProvidersConfig struct {
	// STT is the primary transcription provider.
	STT ProviderEntry `yaml:"stt"`

	// STTFallback, when configured, is tried whenever the primary
	// transcriber fails or its circuit breaker is open.
	STTFallback ProviderEntry `yaml:"stt_fallback"`

	// Translate is the translation provider.
	Translate ProviderEntry `yaml:"translate"`

	// TTS is the speech synthesis provider used for voice previews.
	TTS ProviderEntry `yaml:"tts"`
}

// ProviderEntry is the common configuration block shared by all provider
// types. The Name field is used to look up the constructor in the [Registry].
type ProviderEntry struct {
	// Name selects the registered provider implementation
	// (e.g., "openai", "whisper", "anthropic").
	Name string `yaml:"name"`

	// APIKey is the authentication key for the provider's API if any.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the provider's default API endpoint. For the
	// "whisper" transcriber this is the whisper-server address and is
	// required.
	BaseURL string `yaml:"base_url"`

	// Model selects a specific model within the provider
	// (e.g., "gpt-4o-transcribe", "tts-1").
	Model string `yaml:"model"`

	// Options holds provider-specific configuration values not covered by
	// the standard fields above.
	Options map[string]any `yaml:"options"`
}

// RecordingConfig tunes the chunked upload subsystem.
type RecordingConfig struct {
	// SpoolDir is the directory recording chunks are accumulated in.
	// Empty means in-memory accumulation.
	SpoolDir string `yaml:"spool_dir"`

	// MaxDurationSeconds caps decoded recording length. Zero means the
	// default of 120 seconds.
	MaxDurationSeconds int `yaml:"max_duration_seconds"`

	// SessionMaxAge enables the abandoned-session reaper: sessions older
	// than this are evicted and their storage released. Zero disables the
	// reaper.
	SessionMaxAge time.Duration `yaml:"session_max_age"`

	// SweepInterval is how often the reaper runs. Zero means one quarter of
	// SessionMaxAge.
	SweepInterval time.Duration `yaml:"sweep_interval"`

	// FFmpegPath is the ffmpeg executable used to decode compressed
	// uploads. Empty means "ffmpeg" from PATH.
	FFmpegPath string `yaml:"ffmpeg_path"`
}

// DefaultsConfig holds the client-facing defaults applied when a request
// omits the corresponding field.
type DefaultsConfig struct {
	// Language is the default spoken-language code ("default" = auto-detect).
	Language string `yaml:"language"`

	// TargetLanguage is the default translation target code.
	TargetLanguage string `yaml:"target_language"`

	// Translate makes translate the default mode for new sessions.
	Translate bool `yaml:"translate"`

	// FemaleVoice and MaleVoice are the preview voices resolved when a
	// tts-test request names a gender instead of a voice.
	FemaleVoice string `yaml:"female_voice"`
	MaleVoice   string `yaml:"male_voice"`
}

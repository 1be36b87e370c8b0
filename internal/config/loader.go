package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/vocalis/internal/lang"
)

// ValidProviderNames lists known provider names per provider kind.
// Used by [Validate] to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"stt":       {"openai", "whisper"},
	"translate": {"openai", "anthropic", "gemini", "ollama", "deepseek", "mistral", "groq"},
	"tts":       {"openai"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.MaxBodyBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes %d must not be negative", cfg.Server.MaxBodyBytes))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" || tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Recording
	if cfg.Recording.MaxDurationSeconds < 0 {
		errs = append(errs, fmt.Errorf("recording.max_duration_seconds %d must not be negative", cfg.Recording.MaxDurationSeconds))
	}
	if cfg.Recording.SessionMaxAge < 0 {
		errs = append(errs, fmt.Errorf("recording.session_max_age %s must not be negative", cfg.Recording.SessionMaxAge))
	}
	if cfg.Recording.SweepInterval < 0 {
		errs = append(errs, fmt.Errorf("recording.sweep_interval %s must not be negative", cfg.Recording.SweepInterval))
	}
	if cfg.Recording.SweepInterval > 0 && cfg.Recording.SessionMaxAge == 0 {
		slog.Warn("recording.sweep_interval is set but recording.session_max_age is zero; the reaper stays disabled")
	}

	// Provider name validation — warn for unknown provider names.
	validateProviderName("stt", cfg.Providers.STT.Name)
	validateProviderName("stt", cfg.Providers.STTFallback.Name)
	validateProviderName("translate", cfg.Providers.Translate.Name)
	validateProviderName("tts", cfg.Providers.TTS.Name)

	// Provider availability warnings
	if cfg.Providers.STT.Name == "" {
		slog.Warn("no STT provider configured; finalize and transcribe requests will fail")
	}
	if cfg.Providers.Translate.Name == "" && cfg.Defaults.Translate {
		slog.Warn("defaults.translate is enabled but providers.translate is not configured")
	}
	if cfg.Providers.STT.Name == "whisper" && cfg.Providers.STT.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt.base_url is required for the whisper transcriber"))
	}
	if cfg.Providers.STTFallback.Name == "whisper" && cfg.Providers.STTFallback.BaseURL == "" {
		errs = append(errs, errors.New("providers.stt_fallback.base_url is required for the whisper transcriber"))
	}

	// Defaults
	validateLanguageCode("defaults.language", cfg.Defaults.Language)
	validateLanguageCode("defaults.target_language", cfg.Defaults.TargetLanguage)

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given kind.
func validateProviderName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name — may be a typo or third-party provider",
		"kind", kind,
		"name", name,
		"known", known,
	)
}

// validateLanguageCode logs a warning for codes outside the language
// catalogue. Providers generally accept any ISO code, so this is advisory.
func validateLanguageCode(field, code string) {
	if code == "" {
		return
	}
	for _, l := range lang.Languages {
		if l.Code == code {
			return
		}
	}
	slog.Warn("language code is not in the catalogue",
		"field", field,
		"code", code,
	)
}

// Command vocalis is the voice-note capture server: chunked browser-recording
// uploads, transcription, translation, and voice preview over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	anyllmlib "github.com/mozilla-ai/any-llm-go"

	"github.com/MrWong99/vocalis/internal/config"
	"github.com/MrWong99/vocalis/internal/health"
	"github.com/MrWong99/vocalis/internal/observe"
	"github.com/MrWong99/vocalis/internal/record"
	"github.com/MrWong99/vocalis/internal/resilience"
	"github.com/MrWong99/vocalis/internal/web"
	"github.com/MrWong99/vocalis/pkg/audio"
	"github.com/MrWong99/vocalis/pkg/provider/stt"
	sttopenai "github.com/MrWong99/vocalis/pkg/provider/stt/openai"
	"github.com/MrWong99/vocalis/pkg/provider/stt/whisper"
	"github.com/MrWong99/vocalis/pkg/provider/translate"
	"github.com/MrWong99/vocalis/pkg/provider/translate/anyllm"
	translateopenai "github.com/MrWong99/vocalis/pkg/provider/translate/openai"
	"github.com/MrWong99/vocalis/pkg/provider/tts"
	ttsopenai "github.com/MrWong99/vocalis/pkg/provider/tts/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vocalis: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "vocalis: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("vocalis starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "vocalis",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// ── Provider registry ─────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	transcriber, translator, synth, err := buildProviders(cfg, reg)
	if err != nil {
		slog.Error("failed to build providers", "err", err)
		return 1
	}
	transcriber = observe.WrapTranscriber(transcriber, metrics)
	if translator != nil {
		translator = observe.WrapTranslator(translator, metrics)
	} else {
		translator = unconfiguredTranslator{}
	}
	if synth != nil {
		synth = observe.WrapSynthesizer(synth, metrics)
	}

	// ── Recording subsystem ───────────────────────────────────────────────────
	sinks, err := buildSinkFactory(cfg.Recording)
	if err != nil {
		slog.Error("failed to prepare recording storage", "err", err)
		return 1
	}
	store := record.NewStore(sinks)

	var recOpts []record.Option
	if cfg.Recording.MaxDurationSeconds > 0 {
		recOpts = append(recOpts, record.WithMaxDuration(time.Duration(cfg.Recording.MaxDurationSeconds)*time.Second))
	}
	decoder := observe.WrapDecoder(audio.NewFFmpegDecoder(cfg.Recording.FFmpegPath), metrics)
	recorder := record.NewRecorder(store, decoder, transcriber, translator, recOpts...)

	if maxAge := cfg.Recording.SessionMaxAge; maxAge > 0 {
		interval := cfg.Recording.SweepInterval
		if interval <= 0 {
			interval = maxAge / 4
		}
		go store.RunReaper(ctx, interval, maxAge, func(evicted int) {
			metrics.RecordExpiredSessions(ctx, int64(evicted))
		})
		slog.Info("session reaper enabled", "max_age", maxAge, "interval", interval)
	}

	// ── HTTP server ───────────────────────────────────────────────────────────
	healthHandler := health.New(
		health.Checker{Name: "store", Check: func(context.Context) error {
			_ = store.Len()
			return nil
		}},
		health.Checker{Name: "stt", Check: func(context.Context) error {
			if cfg.Providers.STT.Name == "" {
				return errors.New("no transcription provider configured")
			}
			return nil
		}},
	)

	server := web.New(cfg, recorder, synth, metrics, healthHandler)

	printStartupSummary(cfg)
	slog.Info("server ready — press Ctrl+C to shut down")

	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// anyLLMTranslateProviders are the translation backends served through the
// any-llm client rather than the first-party OpenAI SDK.
var anyLLMTranslateProviders = []string{
	"anthropic", "gemini", "ollama", "deepseek", "mistral", "groq",
}

// registerBuiltinProviders wires all built-in provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// ── STT ───────────────────────────────────────────────────────────────────

	reg.RegisterSTT("openai", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []sttopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, sttopenai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, sttopenai.WithModel(entry.Model))
		}
		return sttopenai.New(entry.APIKey, opts...)
	})

	reg.RegisterSTT("whisper", func(entry config.ProviderEntry) (stt.Transcriber, error) {
		var opts []whisper.Option
		if entry.Model != "" {
			opts = append(opts, whisper.WithModel(entry.Model))
		}
		return whisper.New(entry.BaseURL, opts...)
	})

	// ── Translate ─────────────────────────────────────────────────────────────

	reg.RegisterTranslate("openai", func(entry config.ProviderEntry) (translate.Translator, error) {
		var opts []translateopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, translateopenai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, translateopenai.WithModel(entry.Model))
		}
		return translateopenai.New(entry.APIKey, opts...)
	})

	for _, providerName := range anyLLMTranslateProviders {
		reg.RegisterTranslate(providerName, func(entry config.ProviderEntry) (translate.Translator, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ── TTS ───────────────────────────────────────────────────────────────────

	reg.RegisterTTS("openai", func(entry config.ProviderEntry) (tts.Synthesizer, error) {
		var opts []ttsopenai.Option
		if entry.BaseURL != "" {
			opts = append(opts, ttsopenai.WithBaseURL(entry.BaseURL))
		}
		if entry.Model != "" {
			opts = append(opts, ttsopenai.WithModel(entry.Model))
		}
		return ttsopenai.New(entry.APIKey, opts...)
	})
}

// buildProviders instantiates the providers named in cfg. The transcriber is
// required; translation and synthesis are optional. When a fallback
// transcriber is configured, the primary is wrapped in a circuit-breaking
// failover chain.
func buildProviders(cfg *config.Config, reg *config.Registry) (stt.Transcriber, translate.Translator, tts.Synthesizer, error) {
	if cfg.Providers.STT.Name == "" {
		return nil, nil, nil, errors.New("providers.stt is required")
	}
	transcriber, err := reg.CreateSTT(cfg.Providers.STT)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create stt provider %q: %w", cfg.Providers.STT.Name, err)
	}
	slog.Info("provider created", "kind", "stt", "name", cfg.Providers.STT.Name)

	if name := cfg.Providers.STTFallback.Name; name != "" {
		fallback, err := reg.CreateSTT(cfg.Providers.STTFallback)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create stt fallback %q: %w", name, err)
		}
		chain := resilience.NewSTTFallback(transcriber, cfg.Providers.STT.Name, resilience.FallbackConfig{})
		chain.AddFallback(name, fallback)
		transcriber = chain
		slog.Info("provider created", "kind", "stt_fallback", "name", name)
	}

	var translator translate.Translator
	if name := cfg.Providers.Translate.Name; name != "" {
		translator, err = reg.CreateTranslate(cfg.Providers.Translate)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create translate provider %q: %w", name, err)
		}
		slog.Info("provider created", "kind", "translate", "name", name)
	}

	var synth tts.Synthesizer
	if name := cfg.Providers.TTS.Name; name != "" {
		synth, err = reg.CreateTTS(cfg.Providers.TTS)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("create tts provider %q: %w", name, err)
		}
		slog.Info("provider created", "kind", "tts", "name", name)
	}

	return transcriber, translator, synth, nil
}

// buildSinkFactory selects disk or in-memory chunk accumulation.
func buildSinkFactory(cfg config.RecordingConfig) (record.SinkFactory, error) {
	if cfg.SpoolDir == "" {
		slog.Info("recording chunks accumulate in memory")
		return record.NewMemorySinkFactory(), nil
	}
	slog.Info("recording chunks spool to disk", "dir", cfg.SpoolDir)
	return record.NewFileSinkFactory(cfg.SpoolDir)
}

// unconfiguredTranslator rejects translate-mode requests when no translation
// provider is configured. The recorder wraps the error as an upstream
// translation failure, so clients get a clean translation_failed response.
type unconfiguredTranslator struct{}

func (unconfiguredTranslator) Name() string { return "unconfigured" }

func (unconfiguredTranslator) Translate(context.Context, translate.Request) (string, error) {
	return "", errors.New("no translation provider configured")
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║         Vocalis — startup summary     ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	printProvider("STT", cfg.Providers.STT.Name, cfg.Providers.STT.Model)
	printProvider("STT fallback", cfg.Providers.STTFallback.Name, cfg.Providers.STTFallback.Model)
	printProvider("Translate", cfg.Providers.Translate.Name, cfg.Providers.Translate.Model)
	printProvider("TTS", cfg.Providers.TTS.Name, cfg.Providers.TTS.Model)
	storage := "memory"
	if cfg.Recording.SpoolDir != "" {
		storage = cfg.Recording.SpoolDir
	}
	printRow("Chunk storage", storage)
	if cfg.Server.ListenAddr != "" {
		printRow("Listen addr", cfg.Server.ListenAddr)
	}
	fmt.Println("╚═══════════════════════════════════════╝")
}

func printProvider(kind, name, model string) {
	value := name
	if value == "" {
		value = "(not configured)"
	} else if model != "" {
		value = name + " / " + model
	}
	printRow(kind, value)
}

func printRow(kind, value string) {
	if len(value) > 19 {
		value = value[:16] + "…"
	}
	fmt.Printf("║  %-12s    : %-19s ║\n", kind, value)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

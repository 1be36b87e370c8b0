// Package web exposes the Vocalis HTTP API: the chunked recording protocol,
// single-shot transcription, voice preview, the language/voice catalogues,
// health probes, and the Prometheus metrics endpoint.
//
// Every error response uses the uniform envelope
// {"error": {"code": ..., "message": ...}} with a stable wire code.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/vocalis/internal/config"
	"github.com/MrWong99/vocalis/internal/health"
	"github.com/MrWong99/vocalis/internal/observe"
	"github.com/MrWong99/vocalis/internal/record"
	"github.com/MrWong99/vocalis/pkg/provider/tts"
)

// defaultMaxBodyBytes caps request bodies when the config does not set a
// limit. Matches two minutes of browser-recorded audio with headroom.
const defaultMaxBodyBytes = 20 << 20

// shutdownTimeout bounds how long Run waits for in-flight requests after the
// context is cancelled.
const shutdownTimeout = 10 * time.Second

// Server serves the Vocalis HTTP API.
type Server struct {
	addr       string
	tlsConfig  *config.TLSConfig
	maxBody    int64
	enableCORS bool
	defaults   config.DefaultsConfig

	recorder *record.Recorder
	synth    tts.Synthesizer
	metrics  *observe.Metrics
	health   *health.Handler
}

// New assembles a Server from the loaded configuration and its collaborators.
// synth may be nil when no TTS provider is configured; the preview endpoint
// then reports tts_failed.
func New(cfg *config.Config, recorder *record.Recorder, synth tts.Synthesizer, metrics *observe.Metrics, healthHandler *health.Handler) *Server {
	maxBody := cfg.Server.MaxBodyBytes
	if maxBody == 0 {
		maxBody = defaultMaxBodyBytes
	}
	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	return &Server{
		addr:       addr,
		tlsConfig:  cfg.Server.TLS,
		maxBody:    maxBody,
		enableCORS: cfg.Server.EnableCORS,
		defaults:   cfg.Defaults,
		recorder:   recorder,
		synth:      synth,
		metrics:    metrics,
		health:     healthHandler,
	}
}

// Handler builds the full route table with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /record/start", s.handleRecordStart)
	mux.HandleFunc("POST /record/append", s.handleRecordAppend)
	mux.HandleFunc("POST /record/finalize", s.handleRecordFinalize)
	mux.HandleFunc("POST /record/cancel", s.handleRecordCancel)
	mux.HandleFunc("POST /transcribe", s.handleTranscribe)
	mux.HandleFunc("POST /tts-test", s.handleTTSTest)
	mux.HandleFunc("GET /languages", s.handleLanguages)
	mux.HandleFunc("GET /voices", s.handleVoices)

	if s.health != nil {
		s.health.Register(mux)
	}
	mux.Handle("GET /metrics", promhttp.Handler())

	var h http.Handler = mux
	h = s.limitBody(h)
	if s.enableCORS {
		h = corsMiddleware(h)
	}
	h = observe.Middleware(s.metrics)(h)
	return h
}

// Run serves the API until ctx is cancelled, then drains in-flight requests
// within shutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("http server listening", "addr", s.addr, "tls", s.tlsConfig != nil)
		var err error
		if s.tlsConfig != nil {
			err = srv.ListenAndServeTLS(s.tlsConfig.CertFile, s.tlsConfig.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// limitBody rejects request bodies larger than the configured cap. The limit
// is enforced lazily by MaxBytesReader so streaming uploads fail at the byte
// boundary rather than by Content-Length guesswork.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds permissive cross-origin headers for browser clients
// and short-circuits preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

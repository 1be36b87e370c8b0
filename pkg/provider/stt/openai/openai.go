// Package openai provides a speech-to-text transcriber backed by the OpenAI
// audio transcription API.
package openai

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/MrWong99/vocalis/pkg/provider/stt"
)

// DefaultModel is the transcription model used when none is configured.
const DefaultModel = "gpt-4o-transcribe"

// transcribePrompt steers the model towards paragraph-structured output
// instead of a single run-on block.
const transcribePrompt = "Transcribe the audio and return well-structured paragraphs. " +
	"Use blank lines to separate paragraphs and fix simple punctuation errors."

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// config holds optional configuration for the transcriber.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithModel overrides the default transcription model.
func WithModel(model string) Option {
	return func(c *config) {
		c.model = model
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// Transcriber implements stt.Transcriber using the OpenAI audio API.
type Transcriber struct {
	client oai.Client
	model  string
}

// New constructs an OpenAI-backed Transcriber.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: DefaultModel}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.model == "" {
		cfg.model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	return &Transcriber{
		client: oai.NewClient(reqOpts...),
		model:  cfg.model,
	}, nil
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return "openai" }

// Transcribe implements stt.Transcriber.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	if len(req.WAV) == 0 {
		return "", fmt.Errorf("openai: empty audio buffer")
	}

	params := oai.AudioTranscriptionNewParams{
		Model:  oai.AudioModel(t.model),
		File:   oai.File(bytes.NewReader(req.WAV), "audio.wav", "audio/wav"),
		Prompt: param.NewOpt(transcribePrompt),
	}
	if req.Language != "" {
		params.Language = param.NewOpt(req.Language)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("openai: transcription request: %w", err)
	}
	return resp.Text, nil
}

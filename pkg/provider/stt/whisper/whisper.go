// Package whisper provides a speech-to-text transcriber backed by a running
// whisper-server binary, which exposes a REST API at POST /inference.
//
// It is typically configured as the fallback behind the hosted transcriber so
// recordings still get transcribed when the remote API is unreachable.
//
// Usage:
//
//	t, err := whisper.New("http://localhost:8080",
//	    whisper.WithModel("base.en"),
//	)
//	text, err := t.Transcribe(ctx, stt.Request{WAV: wav, Language: "en"})
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/MrWong99/vocalis/pkg/provider/stt"
)

// Compile-time assertion that Transcriber implements stt.Transcriber.
var _ stt.Transcriber = (*Transcriber)(nil)

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithModel sets the model identifier forwarded to the whisper-server
// (e.g., "base.en", "small"). When empty the server uses whichever model it
// was started with — this is the default.
func WithModel(model string) Option {
	return func(t *Transcriber) {
		t.model = model
	}
}

// WithHTTPClient overrides the HTTP client used for inference requests.
// The default client has a 60 second timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(t *Transcriber) {
		t.httpClient = client
	}
}

// Transcriber implements stt.Transcriber backed by a whisper-server HTTP
// endpoint. Multiple recordings may be submitted concurrently.
type Transcriber struct {
	serverURL  string
	model      string
	httpClient *http.Client
}

// New creates a Transcriber that connects to the whisper-server at serverURL
// (e.g., "http://localhost:8080"). serverURL must be non-empty.
func New(serverURL string, opts ...Option) (*Transcriber, error) {
	if serverURL == "" {
		return nil, errors.New("whisper: serverURL must not be empty")
	}
	t := &Transcriber{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Name implements stt.Transcriber.
func (t *Transcriber) Name() string { return "whisper" }

// Transcribe implements stt.Transcriber. It POSTs the WAV buffer to the
// /inference endpoint as multipart/form-data and returns the transcribed text.
func (t *Transcriber) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	if len(req.WAV) == 0 {
		return "", errors.New("whisper: empty audio buffer")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	// Primary audio field.
	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(req.WAV); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}

	// Optional hint fields.
	if req.Language != "" {
		if err := mw.WriteField("language", req.Language); err != nil {
			return "", fmt.Errorf("whisper: write language field: %w", err)
		}
	}
	if t.model != "" {
		if err := mw.WriteField("model", t.model); err != nil {
			return "", fmt.Errorf("whisper: write model field: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	endpoint := t.serverURL + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}

	return result.Text, nil
}

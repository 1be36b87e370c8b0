package whisper_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/vocalis/pkg/provider/stt"
	"github.com/MrWong99/vocalis/pkg/provider/stt/whisper"
)

func TestNewRequiresServerURL(t *testing.T) {
	t.Parallel()

	if _, err := whisper.New(""); err == nil {
		t.Fatal("New(\"\") should return an error")
	}
}

func TestTranscribeSubmitsMultipartForm(t *testing.T) {
	t.Parallel()

	var (
		gotPath     string
		gotLanguage string
		gotModel    string
		gotFile     []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart form: %v", err)
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		gotLanguage = r.FormValue("language")
		gotModel = r.FormValue("model")

		f, _, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			http.Error(w, "missing file", http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotFile, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text": "hello world"}`)
	}))
	defer srv.Close()

	tr, err := whisper.New(srv.URL, whisper.WithModel("base.en"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	wav := []byte("RIFF-fake-wav-bytes")
	text, err := tr.Transcribe(context.Background(), stt.Request{WAV: wav, Language: "en"})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	if text != "hello world" {
		t.Errorf("text = %q, want %q", text, "hello world")
	}
	if gotPath != "/inference" {
		t.Errorf("request path = %q, want /inference", gotPath)
	}
	if gotLanguage != "en" {
		t.Errorf("language field = %q, want en", gotLanguage)
	}
	if gotModel != "base.en" {
		t.Errorf("model field = %q, want base.en", gotModel)
	}
	if string(gotFile) != string(wav) {
		t.Errorf("uploaded file does not match submitted WAV bytes")
	}
}

func TestTranscribeOmitsEmptyHints(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		if _, ok := r.MultipartForm.Value["language"]; ok {
			t.Error("language field should be absent when no hint is given")
		}
		if _, ok := r.MultipartForm.Value["model"]; ok {
			t.Error("model field should be absent when no model is configured")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"text": "ok"}`)
	}))
	defer srv.Close()

	tr, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tr.Transcribe(context.Background(), stt.Request{WAV: []byte("x")}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
}

func TestTranscribeServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr, err := whisper.New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = tr.Transcribe(context.Background(), stt.Request{WAV: []byte("x")})
	if err == nil {
		t.Fatal("Transcribe should fail on HTTP 500")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q should mention the HTTP status", err)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	t.Parallel()

	tr, err := whisper.New("http://localhost:1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tr.Transcribe(context.Background(), stt.Request{}); err == nil {
		t.Fatal("Transcribe should reject an empty audio buffer")
	}
}

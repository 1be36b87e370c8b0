package web

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/MrWong99/vocalis/internal/lang"
	"github.com/MrWong99/vocalis/internal/record"
	"github.com/MrWong99/vocalis/pkg/provider/tts"
)

// handleTranscribe runs the decode → transcribe → translate pipeline over one
// complete upload, without session bookkeeping.
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(chunkMemoryLimit); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "request must be multipart form data")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeMissingAudio, "audio file part is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "audio part could not be read")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	language := r.FormValue("language")
	if language == "" {
		language = s.defaults.Language
	}
	targetLang := r.FormValue("target_lang")
	if targetLang == "" {
		targetLang = s.defaults.TargetLanguage
	}
	mode := record.ModeTranscribe
	if parseBool(r.FormValue("translate")) {
		mode = record.ModeTranslate
	}

	res, err := s.recorder.Process(r.Context(), data, mimeType, mode, language, targetLang)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resultResponse{
		Mode:           string(res.Mode),
		Text:           res.Text,
		DurationMs:     res.Duration.Milliseconds(),
		TranslatedText: res.TranslatedText,
	})
}

type ttsTestRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Gender string `json:"gender"`
}

// handleTTSTest synthesizes a short voice preview and streams it back as WAV.
func (s *Server) handleTTSTest(w http.ResponseWriter, r *http.Request) {
	var req ttsTestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "request body must be JSON")
		return
	}

	if s.synth == nil {
		writeErrorCode(w, http.StatusBadGateway, codeTTSFailed, "no speech synthesizer configured")
		return
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		text = lang.VoiceSampleText
	}

	audioBytes, err := s.synth.Synthesize(r.Context(), tts.Request{
		Text:  text,
		Voice: s.resolveVoice(req.Voice, req.Gender),
	})
	if err != nil {
		writeErrorCode(w, http.StatusBadGateway, codeTTSFailed, "speech synthesis failed: "+err.Error())
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audioBytes); err != nil {
		// Client went away mid-stream; nothing left to do.
		return
	}
}

// resolveVoice picks the preview voice: an explicit voice wins, then the
// configured default for the requested gender, then the catalogue's preferred
// voice.
func (s *Server) resolveVoice(voice, gender string) string {
	if voice != "" {
		return voice
	}
	if strings.EqualFold(gender, "male") {
		if s.defaults.MaleVoice != "" {
			return s.defaults.MaleVoice
		}
		return lang.MaleVoices[0].ID
	}
	if s.defaults.FemaleVoice != "" {
		return s.defaults.FemaleVoice
	}
	return lang.FemaleVoices[0].ID
}

type languagesResponse struct {
	Languages []lang.Language `json:"languages"`
}

type voicesResponse struct {
	Female     []lang.Voice `json:"female"`
	Male       []lang.Voice `json:"male"`
	SampleText string       `json:"sample_text"`
}

// handleLanguages serves the language catalogue.
func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, languagesResponse{Languages: lang.Languages})
}

// handleVoices serves the voice catalogue with the preview sample text.
func (s *Server) handleVoices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, voicesResponse{
		Female:     lang.FemaleVoices,
		Male:       lang.MaleVoices,
		SampleText: lang.VoiceSampleText,
	})
}

// parseBool interprets the loose truthy strings browsers send for checkbox
// style form fields.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

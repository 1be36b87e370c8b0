package web

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/MrWong99/vocalis/internal/record"
)

// chunkMemoryLimit is how much of a multipart append request is buffered in
// memory before spilling to temp files.
const chunkMemoryLimit = 4 << 20

type startRequest struct {
	MIMEType   string `json:"mime_type"`
	Mode       string `json:"mode"`
	Language   string `json:"language"`
	TargetLang string `json:"target_lang"`
}

type startResponse struct {
	SessionID string `json:"session_id"`
	Mode      string `json:"mode"`
}

type appendResponse struct {
	OK      bool  `json:"ok"`
	NextSeq int64 `json:"next_seq"`
}

type finalizeRequest struct {
	SessionID  string `json:"session_id"`
	Mode       string `json:"mode"`
	Language   string `json:"language"`
	TargetLang string `json:"target_lang"`
}

type resultResponse struct {
	SessionID      string `json:"session_id,omitempty"`
	Mode           string `json:"mode"`
	Text           string `json:"text"`
	DurationMs     int64  `json:"durationMs"`
	TranslatedText string `json:"translatedText,omitempty"`
}

type ackResponse struct {
	OK bool `json:"ok"`
}

// handleRecordStart creates a chunked upload session.
func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "request body must be JSON")
		return
	}

	if req.Mode == "" && s.defaults.Translate {
		req.Mode = string(record.ModeTranslate)
	}
	if req.Language == "" {
		req.Language = s.defaults.Language
	}
	if req.TargetLang == "" {
		req.TargetLang = s.defaults.TargetLanguage
	}

	sess, err := s.recorder.Start(record.StartRequest{
		MIMEType:       req.MIMEType,
		Mode:           req.Mode,
		Language:       req.Language,
		TargetLanguage: req.TargetLang,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.ActiveSessions.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, startResponse{
		SessionID: sess.ID,
		Mode:      string(sess.Mode),
	})
}

// handleRecordAppend accepts one ordered chunk as multipart form data with
// fields session_id, seq, and a binary chunk part.
func (s *Server) handleRecordAppend(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(chunkMemoryLimit); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "request must be multipart form data")
		return
	}

	sessionID := r.FormValue("session_id")
	seq, err := strconv.ParseInt(r.FormValue("seq"), 10, 64)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidSequence,
			"seq must be a base-10 integer")
		return
	}

	file, _, err := r.FormFile("chunk")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeEmptyChunk, "chunk part is required")
		return
	}
	defer file.Close()

	chunk, err := io.ReadAll(file)
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "chunk part could not be read")
		return
	}

	next, err := s.recorder.Append(sessionID, seq, chunk)
	if err != nil {
		writeError(w, err)
		return
	}

	s.metrics.RecordChunk(r.Context(), int64(len(chunk)))
	writeJSON(w, http.StatusOK, appendResponse{OK: true, NextSeq: next})
}

// handleRecordFinalize closes a session and returns the transcription result.
func (s *Server) handleRecordFinalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, codeInvalidRequest, "request body must be JSON")
		return
	}

	res, err := s.recorder.Finalize(r.Context(), record.FinalizeRequest{
		SessionID:      req.SessionID,
		Mode:           req.Mode,
		Language:       req.Language,
		TargetLanguage: req.TargetLang,
	})
	if err != nil {
		if sessionEnded(err) {
			s.metrics.ActiveSessions.Add(r.Context(), -1)
			s.metrics.RecordRecordingOutcome(r.Context(), "failed")
		}
		writeError(w, err)
		return
	}

	s.metrics.ActiveSessions.Add(r.Context(), -1)
	s.metrics.RecordRecordingOutcome(r.Context(), "completed")
	writeJSON(w, http.StatusOK, resultResponse{
		SessionID:      res.SessionID,
		Mode:           string(res.Mode),
		Text:           res.Text,
		DurationMs:     res.Duration.Milliseconds(),
		TranslatedText: res.TranslatedText,
	})
}

// handleRecordCancel discards a session. Canceling an unknown session still
// acknowledges: the client's goal (session gone) is already met.
func (s *Server) handleRecordCancel(w http.ResponseWriter, r *http.Request) {
	sessionID := cancelSessionID(r)
	if s.recorder.Cancel(sessionID) {
		s.metrics.ActiveSessions.Add(r.Context(), -1)
		s.metrics.RecordRecordingOutcome(r.Context(), "canceled")
	}
	writeJSON(w, http.StatusOK, ackResponse{OK: true})
}

// cancelSessionID extracts the session id from either a JSON body or form
// values, whichever the client sent.
func cancelSessionID(r *http.Request) string {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		var req struct {
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			return req.SessionID
		}
		return ""
	}
	return r.FormValue("session_id")
}

// sessionEnded reports whether a finalize failure tore the session down.
// Conflicts preserve the session untouched and upstream failures preserve it
// for a retry; every other failure class removes it.
func sessionEnded(err error) bool {
	var (
		seqErr   *record.SequenceError
		upstream *record.UpstreamError
	)
	switch {
	case errors.Is(err, record.ErrUnknownSession),
		errors.Is(err, record.ErrAlreadyFinalizing),
		errors.As(err, &seqErr),
		errors.As(err, &upstream):
		return false
	}
	return true
}

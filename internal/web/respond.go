package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/MrWong99/vocalis/internal/record"
	"github.com/MrWong99/vocalis/pkg/audio"
)

// Wire error codes. Clients branch on these, so they are part of the API
// contract and must stay stable.
const (
	codeUnsupportedType     = "unsupported_type"
	codeEmptyChunk          = "empty_chunk"
	codeInvalidSequence     = "invalid_sequence"
	codeOutOfOrder          = "out_of_order"
	codeAlreadyFinalizing   = "already_finalizing"
	codeEmptyRecording      = "empty_recording"
	codeUnknownSession      = "unknown_session"
	codeInvalidAudio        = "invalid_audio"
	codeDecodeError         = "decode_error"
	codeTooLong             = "too_long"
	codeMissingAudio        = "missing_audio"
	codeInvalidRequest      = "invalid_request"
	codeInternalError       = "internal_error"
	codeTranscriptionFailed = "transcription_failed"
	codeTranslationFailed   = "translation_failed"
	codeTTSFailed           = "tts_failed"
)

// errorBody is the uniform error envelope: {"error": {"code": ..., "message": ...}}.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status. Encoding failures are logged;
// the status line has already been sent at that point.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "err", err)
	}
}

// writeErrorCode writes the error envelope with an explicit status and code.
func writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeError maps a pipeline or store error to its wire code and status.
// Unknown errors become a 500 with a generic message so internals never leak.
func writeError(w http.ResponseWriter, err error) {
	var (
		seqErr   *record.SequenceError
		upstream *record.UpstreamError
	)

	switch {
	case errors.Is(err, record.ErrUnsupportedMediaType):
		writeErrorCode(w, http.StatusBadRequest, codeUnsupportedType, err.Error())
	case errors.Is(err, record.ErrEmptyChunk):
		writeErrorCode(w, http.StatusBadRequest, codeEmptyChunk, err.Error())
	case errors.Is(err, record.ErrEmptyRecording):
		writeErrorCode(w, http.StatusBadRequest, codeEmptyRecording, err.Error())
	case errors.Is(err, record.ErrAudioTooLong):
		writeErrorCode(w, http.StatusBadRequest, codeTooLong, err.Error())
	case errors.Is(err, audio.ErrInvalidAudio):
		writeErrorCode(w, http.StatusBadRequest, codeInvalidAudio, err.Error())
	case errors.Is(err, record.ErrUnknownSession):
		writeErrorCode(w, http.StatusNotFound, codeUnknownSession, err.Error())
	case errors.As(err, &seqErr):
		writeErrorCode(w, http.StatusConflict, codeOutOfOrder, seqErr.Error())
	case errors.Is(err, record.ErrAlreadyFinalizing):
		writeErrorCode(w, http.StatusConflict, codeAlreadyFinalizing, err.Error())
	case errors.As(err, &upstream):
		code := codeTranscriptionFailed
		switch upstream.Op {
		case "translation":
			code = codeTranslationFailed
		case "tts":
			code = codeTTSFailed
		}
		writeErrorCode(w, http.StatusBadGateway, code, upstream.Error())
	case errors.Is(err, record.ErrDecodeFailed):
		slog.Error("audio decode failed", "err", err)
		writeErrorCode(w, http.StatusInternalServerError, codeDecodeError,
			"the recording could not be decoded")
	default:
		slog.Error("request failed", "err", err)
		writeErrorCode(w, http.StatusInternalServerError, codeInternalError,
			"an internal error occurred")
	}
}

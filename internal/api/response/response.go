package response

import (
	"encoding/json"
	"net/http"

	"github.com/voyadecir/ocrgateway/pkg/models"
)

type envelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string                `json:"code"`
	Message string                `json:"message"`
	Stage   *models.StageMetadata `json:"stage,omitempty"`
	Details any                   `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Data: data})
}

func Error(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Details: details,
	}})
}

// StageError writes a structured error that carries the stage metadata the
// backend uses to decide whether to retry, inform the user, or escalate.
func StageError(w http.ResponseWriter, status int, code, message string, stage models.StageMetadata) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{
		Code:    code,
		Message: message,
		Stage:   &stage,
	}})
}

// Audio streams synthesized speech back to the caller.
func Audio(w http.ResponseWriter, audio []byte) {
	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	w.Write(audio)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

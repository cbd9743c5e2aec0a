package handler

import (
	"encoding/json"
	"net/http"

	"github.com/voyadecir/ocrgateway/internal/api/response"
	"github.com/voyadecir/ocrgateway/internal/metrics"
	"github.com/voyadecir/ocrgateway/internal/speech"
)

const maxSpeechTextBytes = 32 << 10

// NewSpeechHandler returns an http.HandlerFunc for POST /api/v1/speech.
func NewSpeechHandler(synth speech.Synthesizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxSpeechTextBytes)

		var req struct {
			Text  string `json:"text"`
			Lang  string `json:"lang"`
			Voice string `json:"voice"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Text == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required", nil)
			return
		}
		if req.Lang == "" {
			req.Lang = "en-US"
		}

		audio, err := synth.Synthesize(r.Context(), speech.SynthesizeRequest{
			Text:  req.Text,
			Lang:  req.Lang,
			Voice: req.Voice,
		})
		if err != nil {
			metrics.SpeechRequest(false)
			response.Error(w, http.StatusBadGateway, "SPEECH_FAILED",
				"Speech synthesis failed", nil)
			return
		}

		metrics.SpeechRequest(true)
		response.Audio(w, audio)
	}
}

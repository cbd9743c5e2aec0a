package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/voyadecir/ocrgateway/internal/api/response"
	"github.com/voyadecir/ocrgateway/internal/di"
	"github.com/voyadecir/ocrgateway/internal/ocr"
)

// maxInlineContentBytes caps base64 document payloads (roughly 4 MB decoded).
const maxInlineContentBytes = 6 << 20

// Parser defines the interface the handler depends on.
type Parser interface {
	Parse(ctx context.Context, params ocr.ParseParams) (*ocr.ParseOutcome, error)
}

// NewParseHandler returns an http.HandlerFunc for POST /api/v1/ocr/parse.
// The call is synchronous: it does not return until the job is terminal.
func NewParseHandler(svc Parser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxInlineContentBytes)

		var req struct {
			DocumentURL string `json:"document_url"`
			Content     string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.DocumentURL == "" && req.Content == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"one of document_url or content is required", nil)
			return
		}
		if req.DocumentURL != "" && req.Content != "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"document_url and content are mutually exclusive", nil)
			return
		}

		outcome, err := svc.Parse(r.Context(), ocr.ParseParams{
			DocumentURL:  req.DocumentURL,
			Base64Source: req.Content,
		})
		if err != nil {
			stage := ocr.Stage(outcome.Job)
			switch {
			case errors.Is(err, ocr.ErrTimeout):
				response.StageError(w, http.StatusGatewayTimeout, "OCR_TIMEOUT",
					"OCR did not finish within the polling budget", stage)
			case errors.Is(err, di.ErrSubmission):
				response.StageError(w, http.StatusBadGateway, "SUBMISSION_FAILED",
					"The document could not be submitted for analysis", stage)
			case errors.Is(err, di.ErrFatalFetch):
				response.StageError(w, http.StatusBadGateway, "VENDOR_REJECTED",
					"The vendor rejected the analysis operation", stage)
			case errors.Is(err, context.Canceled):
				response.StageError(w, http.StatusRequestTimeout, "REQUEST_CANCELED",
					"The invocation was canceled before OCR finished", stage)
			default:
				response.StageError(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", stage)
			}
			return
		}

		response.JSON(w, parseResponse{
			Job:    jobView(outcome.Job),
			Result: outcome.Result,
		})
	}
}

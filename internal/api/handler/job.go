package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/voyadecir/ocrgateway/internal/api/response"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

// JobReader looks up the transient snapshot of a job.
type JobReader interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.OcrJob, bool, error)
}

// NewJobHandler returns an http.HandlerFunc for GET /api/v1/ocr/jobs/{jobID}.
// Snapshots expire with their cache TTL, so old jobs legitimately 404.
func NewJobHandler(svc JobReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "jobID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"jobID must be a valid UUID", nil)
			return
		}

		job, found, err := svc.GetJob(r.Context(), id)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
				"Failed to read job state", nil)
			return
		}
		if !found {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND",
				"No such job, or its snapshot has expired", nil)
			return
		}

		response.JSON(w, jobView(job))
	}
}

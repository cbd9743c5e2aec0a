package handler

import (
	"time"

	"github.com/voyadecir/ocrgateway/internal/ocr"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

type parseResponse struct {
	Job    jobResponse       `json:"job"`
	Result *models.OcrResult `json:"result"`
}

type jobResponse struct {
	ID          string               `json:"id"`
	OperationID string               `json:"operation_id,omitempty"`
	Status      string               `json:"status"`
	RetryCount  int                  `json:"retry_count"`
	Stage       models.StageMetadata `json:"stage"`
	SubmittedAt string               `json:"submitted_at"`
	CompletedAt string               `json:"completed_at,omitempty"`
}

func jobView(job *models.OcrJob) jobResponse {
	v := jobResponse{
		ID:          job.ID.String(),
		OperationID: job.OperationID,
		Status:      job.Status,
		RetryCount:  job.RetryCount,
		Stage:       ocr.Stage(job),
		SubmittedAt: job.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		v.CompletedAt = job.CompletedAt.UTC().Format(time.RFC3339)
	}
	return v
}

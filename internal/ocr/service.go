package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/voyadecir/ocrgateway/internal/cache"
	"github.com/voyadecir/ocrgateway/internal/di"
	"github.com/voyadecir/ocrgateway/internal/metrics"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

// snapshotTTL bounds how long a finished job stays visible on the jobs
// endpoint. Transient state only; nothing outlives the TTL.
const snapshotTTL = 30 * time.Minute

// ParseParams holds a validated document reference. Exactly one field is set.
type ParseParams struct {
	DocumentURL  string
	Base64Source string
}

// ParseOutcome pairs the normalized result with the terminal job record.
type ParseOutcome struct {
	Job    *models.OcrJob
	Result *models.OcrResult
}

// Service orchestrates one OCR invocation: submit, poll to terminal,
// normalize. The invocation is synchronous from the caller's perspective.
type Service struct {
	client     di.Client
	scheduler  *PollScheduler
	normalizer *Normalizer
	cache      cache.Cache
}

// NewService wires the pipeline together.
func NewService(client di.Client, scheduler *PollScheduler, normalizer *Normalizer, ca cache.Cache) *Service {
	return &Service{
		client:     client,
		scheduler:  scheduler,
		normalizer: normalizer,
		cache:      ca,
	}
}

// Parse runs the full submit -> poll -> normalize pipeline. The job snapshot
// is refreshed in the cache on every transition so concurrent status reads
// see progress; cache write failures never affect the pipeline.
func (s *Service) Parse(ctx context.Context, params ParseParams) (*ParseOutcome, error) {
	job := &models.OcrJob{
		ID:          uuid.New(),
		Status:      models.JobStatusSubmitted,
		SubmittedAt: time.Now().UTC(),
	}
	s.snapshot(ctx, job)

	op, err := s.client.Submit(ctx, di.DocumentRef{
		URL:          params.DocumentURL,
		Base64Source: params.Base64Source,
	})
	if err != nil {
		now := time.Now().UTC()
		job.Status = models.JobStatusFailed
		job.Cause = models.CauseSubmissionFailed
		job.Detail = err.Error()
		job.CompletedAt = &now
		s.snapshot(ctx, job)
		metrics.JobFinished(job.Status)
		return &ParseOutcome{Job: job}, fmt.Errorf("submitting document: %w", err)
	}

	job.OperationID = op.ID
	slog.Info("document submitted", "job_id", job.ID, "operation_id", op.ID)

	raw, err := s.scheduler.Run(ctx, job, op, func(j *models.OcrJob) {
		s.snapshot(ctx, j)
	})
	if err != nil {
		return &ParseOutcome{Job: job}, err
	}

	result := s.normalizer.Normalize(raw)
	slog.Info("document recognized",
		"job_id", job.ID,
		"regions", len(result.Regions),
		"confidence", result.Confidence,
		"low_confidence", result.Stage.LowConfidence,
	)

	return &ParseOutcome{Job: job, Result: result}, nil
}

// GetJob returns the cached transient snapshot of a job, if it still exists.
func (s *Service) GetJob(ctx context.Context, id uuid.UUID) (*models.OcrJob, bool, error) {
	return s.cache.GetJobSnapshot(ctx, id)
}

func (s *Service) snapshot(ctx context.Context, job *models.OcrJob) {
	// Snapshots are written with a detached context so a canceled invocation
	// can still record its terminal state.
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	if err := s.cache.SetJobSnapshot(ctx, job, snapshotTTL); err != nil {
		slog.Warn("job snapshot write failed", "job_id", job.ID, "error", err)
	}
}

// Stage maps a job to the stage metadata reported to the backend. Failed
// and timed-out jobs surface their specific cause; there is no generic
// failure stage.
func Stage(job *models.OcrJob) models.StageMetadata {
	switch job.Status {
	case models.JobStatusSubmitted:
		return models.StageMetadata{Stage: models.StageSubmitted}
	case models.JobStatusPolling:
		return models.StageMetadata{Stage: models.StageRecognizing}
	case models.JobStatusSucceeded:
		return models.StageMetadata{Stage: models.StageCompleted}
	default:
		detail := job.Cause
		if job.Detail != "" {
			detail = fmt.Sprintf("%s: %s", job.Cause, job.Detail)
		}
		return models.StageMetadata{Stage: models.StageFailed, Detail: detail}
	}
}

// Package models contains shared data models used across the OCR gateway codebase.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job moves monotonically through
// submitted -> polling -> one of {succeeded, failed, timed_out}.
const (
	JobStatusSubmitted = "submitted"
	JobStatusPolling   = "polling"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
	JobStatusTimedOut  = "timed_out"
)

// Failure causes attached to terminal failed jobs. A failed job always
// carries exactly one of these; callers can branch on the cause instead of
// parsing error strings.
const (
	CauseSubmissionFailed = "submission_failed"
	CauseVendorRejected   = "vendor_rejected"
	CausePollTimeout      = "poll_timeout"
	CauseCanceled         = "canceled"
)

// OcrJob tracks one outstanding OCR operation and its polling state. It lives
// for the duration of a single invocation; a snapshot is kept in the cache
// with a TTL so GET /api/v1/ocr/jobs/{id} can report progress, but nothing
// is persisted durably.
type OcrJob struct {
	ID          uuid.UUID  `json:"id"`
	OperationID string     `json:"operation_id,omitempty"`
	Status      string     `json:"status"`
	RetryCount  int        `json:"retry_count"`
	Cause       string     `json:"cause,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Terminal reports whether the job has reached a terminal status.
func (j *OcrJob) Terminal() bool {
	switch j.Status {
	case JobStatusSucceeded, JobStatusFailed, JobStatusTimedOut:
		return true
	}
	return false
}

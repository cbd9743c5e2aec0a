// Package ocr drives the submit/poll/normalize pipeline over the Document
// Intelligence client.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/voyadecir/ocrgateway/internal/di"
	"github.com/voyadecir/ocrgateway/internal/metrics"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

// PollPolicy is the scheduler's retry/timeout contract. Values are injected
// from configuration so the authoritative policy can change without code
// changes.
type PollPolicy struct {
	// Interval is the base delay between status checks.
	Interval time.Duration
	// MaxInterval caps the exponential backoff applied after transient errors.
	MaxInterval time.Duration
	// Timeout is the hard wall-clock budget for the whole poll loop.
	Timeout time.Duration
}

// PollScheduler polls one operation until it reaches a terminal state. Each
// job's loop is independent; schedulers hold no per-job state, so one
// instance serves any number of concurrent jobs.
type PollScheduler struct {
	client di.Client
	policy PollPolicy
}

// NewPollScheduler creates a scheduler over the given client and policy.
func NewPollScheduler(client di.Client, policy PollPolicy) *PollScheduler {
	return &PollScheduler{client: client, policy: policy}
}

// Run polls the operation until terminal, mutating job through the
// monotonic submitted -> polling -> {succeeded, failed, timed_out} cycle.
// observe is invoked after every job mutation; nil is allowed. On success
// the raw analyze payload is returned for normalization.
func (s *PollScheduler) Run(ctx context.Context, job *models.OcrJob, op di.OperationHandle, observe func(*models.OcrJob)) (*di.AnalyzeResult, error) {
	notify := func() {
		if observe != nil {
			observe(job)
		}
	}

	job.Status = models.JobStatusPolling
	notify()

	ctx, cancel := context.WithTimeout(ctx, s.policy.Timeout)
	defer cancel()

	interval := s.policy.Interval

	for {
		page, err := s.client.FetchStatus(ctx, op)
		switch {
		case err == nil:
			// fallthrough to status handling below

		case errors.Is(err, context.Canceled):
			metrics.PollAttempt("canceled")
			s.fail(job, models.CauseCanceled, "invocation canceled while polling", notify)
			return nil, err

		case errors.Is(err, di.ErrTransientFetch):
			metrics.PollAttempt("transient")
			if ctx.Err() != nil {
				return nil, s.expire(ctx, job, notify)
			}
			job.RetryCount++
			notify()
			slog.Warn("transient poll failure, backing off",
				"job_id", job.ID, "operation_id", op.ID,
				"retry", job.RetryCount, "next_interval", interval.String())
			if err := sleep(ctx, interval); err != nil {
				return nil, s.expire(ctx, job, notify)
			}
			if interval *= 2; interval > s.policy.MaxInterval {
				interval = s.policy.MaxInterval
			}
			continue

		default:
			// di.ErrFatalFetch and anything unclassified stops the loop with
			// the vendor's reason attached.
			metrics.PollAttempt("fatal")
			s.fail(job, models.CauseVendorRejected, err.Error(), notify)
			return nil, err
		}

		metrics.PollAttempt("ok")
		interval = s.policy.Interval

		switch page.Status {
		case di.StatusSucceeded:
			now := time.Now().UTC()
			job.Status = models.JobStatusSucceeded
			job.CompletedAt = &now
			notify()
			metrics.JobFinished(job.Status)
			return page.Result, nil

		case di.StatusFailed:
			detail := fmt.Sprintf("%s: %s", page.ErrorCode, page.ErrorMessage)
			s.fail(job, models.CauseVendorRejected, detail, notify)
			return nil, fmt.Errorf("%w: %s", di.ErrFatalFetch, detail)

		case di.StatusNotStarted, di.StatusRunning:
			if err := sleep(ctx, interval); err != nil {
				return nil, s.expire(ctx, job, notify)
			}

		default:
			detail := fmt.Sprintf("unrecognized vendor status %q", page.Status)
			s.fail(job, models.CauseVendorRejected, detail, notify)
			return nil, fmt.Errorf("%w: %s", di.ErrFatalFetch, detail)
		}
	}
}

// expire resolves a context stop into either cancellation or timeout.
func (s *PollScheduler) expire(ctx context.Context, job *models.OcrJob, notify func()) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		s.fail(job, models.CauseCanceled, "invocation canceled while polling", notify)
		return context.Canceled
	}

	now := time.Now().UTC()
	job.Status = models.JobStatusTimedOut
	job.Cause = models.CausePollTimeout
	job.Detail = fmt.Sprintf("no terminal status within %s", s.policy.Timeout)
	job.CompletedAt = &now
	notify()
	metrics.JobFinished(job.Status)
	return fmt.Errorf("%w: after %s", ErrTimeout, s.policy.Timeout)
}

func (s *PollScheduler) fail(job *models.OcrJob, cause, detail string, notify func()) {
	now := time.Now().UTC()
	job.Status = models.JobStatusFailed
	job.Cause = cause
	job.Detail = detail
	job.CompletedAt = &now
	notify()
	metrics.JobFinished(job.Status)
}

// sleep blocks for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package di wraps the Azure Document Intelligence "Read" HTTP API:
// submitting a document for analysis and checking the resulting
// long-running operation. Retry policy lives in the poll scheduler, not
// here; every call is a single attempt.
package di

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/voyadecir/ocrgateway/internal/metrics"
)

// Sentinel errors for Document Intelligence client failures.
var (
	// ErrSubmission means the analyze operation could not be started.
	ErrSubmission = errors.New("document intelligence submission failed")
	// ErrTransientFetch is a retryable status-check failure (network, 5xx, 429).
	ErrTransientFetch = errors.New("transient document intelligence fetch error")
	// ErrFatalFetch is a non-retryable status-check failure (vendor 4xx).
	ErrFatalFetch = errors.New("fatal document intelligence fetch error")
)

// Client is the interface for the Document Intelligence "Read" API.
type Client interface {
	Submit(ctx context.Context, ref DocumentRef) (OperationHandle, error)
	FetchStatus(ctx context.Context, op OperationHandle) (StatusPage, error)
}

// DocumentRef identifies the document to analyze. Exactly one of URL or
// Base64Source must be set.
type DocumentRef struct {
	URL          string
	Base64Source string
}

// OperationHandle is the vendor-issued pointer to a running analyze operation.
type OperationHandle struct {
	// URL is the absolute Operation-Location returned on submission.
	URL string
	// ID is the trailing operation identifier, kept for logging.
	ID string
}

// StatusPage is the outcome of one status check.
type StatusPage struct {
	Status string // one of StatusNotStarted, StatusRunning, StatusSucceeded, StatusFailed
	// Result holds the analyze payload once Status is succeeded.
	Result *AnalyzeResult
	// ErrorCode and ErrorMessage carry the vendor failure when Status is failed.
	ErrorCode    string
	ErrorMessage string
}

// Vendor operation statuses.
const (
	StatusNotStarted = "notStarted"
	StatusRunning    = "running"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
)

// HTTPClient implements Client against the documentintelligence REST API.
type HTTPClient struct {
	endpoint   string
	apiKey     string
	apiVersion string
	modelID    string
	client     *http.Client
}

// NewHTTPClient creates a new Document Intelligence HTTP client.
func NewHTTPClient(endpoint, apiKey, apiVersion, modelID string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		endpoint:   endpoint,
		apiKey:     apiKey,
		apiVersion: apiVersion,
		modelID:    modelID,
		client:     &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) Submit(ctx context.Context, ref DocumentRef) (OperationHandle, error) {
	if ref.URL == "" && ref.Base64Source == "" {
		return OperationHandle{}, fmt.Errorf("%w: document reference is empty", ErrSubmission)
	}

	body, err := json.Marshal(analyzeRequest{
		URLSource:    ref.URL,
		Base64Source: ref.Base64Source,
	})
	if err != nil {
		return OperationHandle{}, fmt.Errorf("%w: encoding request: %v", ErrSubmission, err)
	}

	u := fmt.Sprintf("%s/documentintelligence/documentModels/%s:analyze?api-version=%s",
		c.endpoint, c.modelID, c.apiVersion)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return OperationHandle{}, fmt.Errorf("%w: building request: %v", ErrSubmission, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.VendorRequest("submit", false, time.Since(start))
		return OperationHandle{}, fmt.Errorf("%w: %v", ErrSubmission, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		metrics.VendorRequest("submit", false, time.Since(start))
		code, msg := decodeVendorError(resp.Body)
		return OperationHandle{}, fmt.Errorf("%w: status %d (%s: %s)",
			ErrSubmission, resp.StatusCode, code, msg)
	}
	metrics.VendorRequest("submit", true, time.Since(start))

	loc := resp.Header.Get("Operation-Location")
	if loc == "" {
		return OperationHandle{}, fmt.Errorf("%w: missing Operation-Location header", ErrSubmission)
	}

	return OperationHandle{URL: loc, ID: operationID(loc)}, nil
}

func (c *HTTPClient) FetchStatus(ctx context.Context, op OperationHandle) (StatusPage, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, op.URL, nil)
	if err != nil {
		return StatusPage{}, fmt.Errorf("%w: building request: %v", ErrFatalFetch, err)
	}
	c.setHeaders(httpReq)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		metrics.VendorRequest("fetch_status", false, time.Since(start))
		return StatusPage{}, classifyError(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		metrics.VendorRequest("fetch_status", true, time.Since(start))
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		metrics.VendorRequest("fetch_status", false, time.Since(start))
		return StatusPage{}, fmt.Errorf("%w: status %d", ErrTransientFetch, resp.StatusCode)
	default:
		metrics.VendorRequest("fetch_status", false, time.Since(start))
		code, msg := decodeVendorError(resp.Body)
		return StatusPage{}, fmt.Errorf("%w: status %d (%s: %s)",
			ErrFatalFetch, resp.StatusCode, code, msg)
	}

	var opResp operationResponse
	if err := json.NewDecoder(resp.Body).Decode(&opResp); err != nil {
		return StatusPage{}, fmt.Errorf("%w: decoding operation response: %v", ErrTransientFetch, err)
	}

	page := StatusPage{Status: opResp.Status}
	switch opResp.Status {
	case StatusSucceeded:
		page.Result = opResp.AnalyzeResult
	case StatusFailed:
		if opResp.Error != nil {
			page.ErrorCode = opResp.Error.Code
			page.ErrorMessage = opResp.Error.Message
		}
		if page.ErrorCode == "" {
			page.ErrorCode = "unknown"
			page.ErrorMessage = "vendor reported failure without detail"
		}
	}

	return page, nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Ocp-Apim-Subscription-Key", c.apiKey)
}

// classifyError maps transport-level errors to the retryable sentinel.
// Context cancellation is passed through so the scheduler can tell a caller
// disconnect apart from a flaky network.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTransientFetch, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrTransientFetch, err)
	}

	return fmt.Errorf("%w: %v", ErrTransientFetch, err)
}

// decodeVendorError pulls the error code/message out of a vendor error body.
func decodeVendorError(r io.Reader) (code, message string) {
	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return "unknown", "undecodable vendor error body"
	}
	if body.Error.Code == "" {
		return "unknown", "vendor error body missing code"
	}
	return body.Error.Code, body.Error.Message
}

// operationID extracts the trailing id segment of an Operation-Location URL,
// dropping any query string.
func operationID(loc string) string {
	end := len(loc)
	for i := 0; i < len(loc); i++ {
		if loc[i] == '?' {
			end = i
			break
		}
	}
	start := 0
	for i := end - 1; i >= 0; i-- {
		if loc[i] == '/' {
			start = i + 1
			break
		}
	}
	return loc[start:end]
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

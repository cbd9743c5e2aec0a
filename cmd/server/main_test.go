package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voyadecir/ocrgateway/pkg/models"
)

type fakeCache struct {
	pingErr error
}

func (f *fakeCache) Ping(_ context.Context) error { return f.pingErr }
func (f *fakeCache) SetJobSnapshot(_ context.Context, _ *models.OcrJob, _ time.Duration) error {
	return nil
}
func (f *fakeCache) GetJobSnapshot(_ context.Context, _ uuid.UUID) (*models.OcrJob, bool, error) {
	return nil, false, nil
}
func (f *fakeCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	return 1, nil
}
func (f *fakeCache) Close() error { return nil }

func TestHealthHandler_OK(t *testing.T) {
	h := healthHandler(&fakeCache{})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Status   string            `json:"status"`
			Services map[string]string `json:"services"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "ok", env.Data.Status)
	assert.Equal(t, "ok", env.Data.Services["cache"])
}

func TestHealthHandler_CacheDown(t *testing.T) {
	h := healthHandler(&fakeCache{pingErr: errors.New("connection refused")})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var env struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "DEGRADED", env.Error.Code)
	assert.Equal(t, "degraded", env.Error.Details["cache"])
}

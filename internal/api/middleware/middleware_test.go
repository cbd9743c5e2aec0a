package middleware_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mw "github.com/voyadecir/ocrgateway/internal/api/middleware"
	"github.com/voyadecir/ocrgateway/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// --- Mock Cache ---

type mockCache struct {
	counter int64
	err     error
}

func (m *mockCache) Ping(_ context.Context) error { return nil }
func (m *mockCache) SetJobSnapshot(_ context.Context, _ *models.OcrJob, _ time.Duration) error {
	return nil
}
func (m *mockCache) GetJobSnapshot(_ context.Context, _ uuid.UUID) (*models.OcrJob, bool, error) {
	return nil, false, nil
}
func (m *mockCache) IncrWithExpiry(_ context.Context, _ string, _ time.Duration) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.counter++
	return m.counter, nil
}
func (m *mockCache) Close() error { return nil }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- CORS ---

func TestCORS_AllowedOrigin(t *testing.T) {
	c := mw.NewCORS([]string{"https://voyadecir.com"})
	rec := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	r.Header.Set("Origin", "https://voyadecir.com")
	c.Handle(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://voyadecir.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DisallowedOrigin(t *testing.T) {
	c := mw.NewCORS([]string{"https://voyadecir.com"})
	rec := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	r.Header.Set("Origin", "https://evil.example.com")
	c.Handle(okHandler()).ServeHTTP(rec, r)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	c := mw.NewCORS([]string{"https://voyadecir.com"})
	rec := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/ocr/parse", nil)
	r.Header.Set("Origin", "https://voyadecir.com")
	c.Handle(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://voyadecir.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

// --- Auth ---

func TestAuth_DisabledWhenNoHash(t *testing.T) {
	a := mw.NewAuth("")
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_ValidKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("vdk_live_key"), bcrypt.MinCost)
	require.NoError(t, err)

	a := mw.NewAuth(string(hash))
	rec := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer vdk_live_key")
	a.Authenticate(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuth_InvalidKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("vdk_live_key"), bcrypt.MinCost)
	require.NoError(t, err)

	a := mw.NewAuth(string(hash))
	rec := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer wrong_key")
	a.Authenticate(okHandler()).ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MissingHeader(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("vdk_live_key"), bcrypt.MinCost)

	a := mw.NewAuth(string(hash))
	rec := httptest.NewRecorder()

	a.Authenticate(okHandler()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

// --- RateLimit ---

func TestRateLimit_UnderLimit(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{}, 5)
	rec := httptest.NewRecorder()

	rl.Limit(okHandler()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimit_OverLimit(t *testing.T) {
	ca := &mockCache{}
	rl := mw.NewRateLimit(ca, 2)
	h := rl.Limit(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestRateLimit_FailsOpenOnCacheError(t *testing.T) {
	rl := mw.NewRateLimit(&mockCache{err: context.DeadlineExceeded}, 1)
	rec := httptest.NewRecorder()

	rl.Limit(okHandler()).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

// --- Logger ---

func TestLogger_SetsRequestID(t *testing.T) {
	var seen string
	h := mw.Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = mw.GetRequestID(r)
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

// --- Recovery ---

func TestRecovery_Panic(t *testing.T) {
	h := mw.Recovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, "INTERNAL_ERROR", env.Error.Code)
}

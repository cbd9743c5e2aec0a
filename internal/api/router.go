package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	mw "github.com/voyadecir/ocrgateway/internal/api/middleware"
	"github.com/voyadecir/ocrgateway/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	CORS      *mw.CORS
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc
	ParseHandler  http.HandlerFunc
	JobHandler    http.HandlerFunc
	SpeechHandler http.HandlerFunc
}

// NewRouter builds the Chi router with the middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(deps.CORS.Handle)

	// Public endpoints
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/ocr/parse", orNotImplemented(deps.ParseHandler))
		r.Get("/api/v1/ocr/jobs/{jobID}", orNotImplemented(deps.JobHandler))

		r.Post("/api/v1/speech", orNotImplemented(deps.SpeechHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder
// (used when an optional feature such as speech is disabled).
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not enabled", nil)
	}
}

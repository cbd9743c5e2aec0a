package middleware

import "net/http"

// CORS handles cross-origin requests for the browser frontend. Only origins
// on the allow-list are echoed back; preflight requests short-circuit with
// 204. Credentials are allowed, so the origin is never wildcarded.
type CORS struct {
	allowed map[string]bool
}

// NewCORS creates CORS middleware for the given origin allow-list.
func NewCORS(origins []string) *CORS {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &CORS{allowed: allowed}
}

// Handle applies the CORS headers and answers OPTIONS preflights.
func (c *CORS) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if c.allowed[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

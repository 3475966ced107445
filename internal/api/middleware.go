// Package api implements the Rollcall REST API using chi.
package api

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORSMiddleware lets browser dashboards served from other origins call the API.
// An empty list disables CORS headers; "*" allows any origin.
func CORSMiddleware(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "If-Match"},
		ExposedHeaders: []string{"ETag"},
		MaxAge:         300,
	})
}

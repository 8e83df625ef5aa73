package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORS lets a browser console on another origin call the sandbox. Downloads
// need Content-Disposition exposed so the client can name the saved blob.
func CORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept", requestIDHeader},
		ExposedHeaders: []string{"Content-Disposition", requestIDHeader},
		MaxAge:         600,
	}
	if len(origins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	return cors.New(opts).Handler
}

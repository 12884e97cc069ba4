package middleware

import "net/http"

// CORSConfig controls cross-origin access to the API. When Open is
// true any origin is allowed; otherwise only AllowedOrigin is.
type CORSConfig struct {
	Open          bool
	AllowedOrigin string
}

// CORS returns a middleware applying the configured cross-origin policy.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if config.Open {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if config.AllowedOrigin != "" {
				origin := r.Header.Get("Origin")
				if origin == config.AllowedOrigin {
					w.Header().Set("Access-Control-Allow-Origin", config.AllowedOrigin)
					w.Header().Set("Vary", "Origin")
				}
			}

			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// CORS answers preflight requests and stamps the allowed origin on every
// response. It wraps the whole router so preflights never hit route matching.
// With "*" any origin is allowed but credentials are not.
func CORS(allowedOrigin string, log *logrus.Entry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
			if allowedOrigin != "*" {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				log.WithField("path", r.URL.Path).Debug("Handled CORS preflight")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Package middleware holds small HTTP middleware shared by the bridge's
// debug/metrics server.
package middleware

import (
	"net/http"
	"runtime/debug"

	log "github.com/sirupsen/logrus"
)

// Recovery creates a panic recovery middleware for the debug/metrics
// HTTP server (the dispatch loop itself uses its own panic guard around
// generator calls; this one protects /healthz and /metrics).
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithField("panic", err).WithField("stack", string(debug.Stack())).Error("middleware: recovered from panic")
					w.WriteHeader(http.StatusInternalServerError)
					w.Write([]byte("internal server error"))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

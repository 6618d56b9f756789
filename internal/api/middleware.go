package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// loggingMiddleware logs one structured line per request, mirroring the
// request/status/duration fields erenceh-delivery-route-api's
// loggingMiddleware captures, through logrus instead of the standard logger.
func loggingMiddleware(log *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(sw, r)

			log.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sw.Status(),
				"bytes":    sw.BytesWritten(),
				"duration": time.Since(start),
			}).Info("request handled")
		})
	}
}

package controller

import (
	"context"
	"enricher/pkg/logger"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CtxKey is the type of the context keys set by this package.
type CtxKey string

// RequestIDKey holds the request ID of a debug request.
const RequestIDKey CtxKey = "requestID"

type statusRecorder struct {
	http.ResponseWriter

	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(b)
	rec.bytes += n

	return n, err //nolint: wrapcheck
}

// RemoteIP returns the address of the scraper, preferring X-Forwarded-For
// when the listener sits behind a proxy.
func RemoteIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		return strings.TrimSpace(first)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// WithLogger attaches the run logger and a request ID to every request and
// writes one debug access entry once the handler returns. Scrapes are
// frequent, so they never log above debug level.
func WithLogger(ctx context.Context, next http.Handler) http.Handler {
	base := logger.Get(ctx)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		reqCtx := context.WithValue(r.Context(), RequestIDKey, requestID)
		reqCtx = logger.WithLogger(reqCtx, base.With(zap.String(string(RequestIDKey), requestID)))

		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(reqCtx))

		logger.Debug(reqCtx, "debug request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("latency", time.Since(start)),
			zap.String("remote", RemoteIP(r)),
		)
	})
}

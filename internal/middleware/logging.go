// Package middleware holds cross-cutting wrappers for outbound calls.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// LoggingTransport wraps next and logs every request.
// It logs the method, host, status, duration, and any transport error.
func LoggingTransport(next http.RoundTripper, logger *slog.Logger) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()

		resp, err := next.RoundTrip(req)

		duration := time.Since(start).Milliseconds()
		switch {
		case err != nil:
			logger.Error("HTTP error",
				"method", req.Method,
				"host", req.URL.Host,
				"error", err,
				"duration_ms", duration,
			)
		case resp.StatusCode >= 300:
			logger.Warn("HTTP error",
				"method", req.Method,
				"host", req.URL.Host,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		default:
			logger.Debug("HTTP ok",
				"method", req.Method,
				"host", req.URL.Host,
				"status", resp.StatusCode,
				"duration_ms", duration,
			)
		}

		return resp, err
	})
}

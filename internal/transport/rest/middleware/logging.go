package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"speakexam/internal/logger"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps WebSocket upgrades working through the recorder
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// RequestLogger logs every request with its status and latency
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := logger.Log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"http_method": r.Method,
			"uri":         r.URL.RequestURI(),
			"status_code": rec.status,
			"latency_ms":  time.Since(start).Milliseconds(),
		})
		switch {
		case rec.status >= 500:
			entry.Error("request completed with server error")
		case rec.status >= 400:
			entry.Warn("request completed with client error")
		default:
			entry.Debug("request completed")
		}
	})
}

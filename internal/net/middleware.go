package net

import (
	nethttp "net/http"
	"time"

	"roadrunner/server/logging"
	"roadrunner/server/logging/network"
)

type statusRecorder struct {
	nethttp.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (s *statusRecorder) Unwrap() nethttp.ResponseWriter {
	return s.ResponseWriter
}

func requestLogger(pub logging.Publisher) func(nethttp.Handler) nethttp.Handler {
	return func(next nethttp.Handler) nethttp.Handler {
		return nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
			if r.URL.Path == "/ws" {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: nethttp.StatusOK}
			next.ServeHTTP(recorder, r)
			actor := logging.EntityRef{ID: r.RemoteAddr, Kind: logging.EntityKindClient}
			network.RequestServed(r.Context(), pub, actor, network.RequestPayload{
				Method:         r.Method,
				Path:           r.URL.Path,
				Status:         recorder.status,
				DurationMicros: time.Since(start).Microseconds(),
			})
		})
	}
}

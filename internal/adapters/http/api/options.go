package api

import (
	"net/http"
	"time"

	"github.com/okian/playoffdraft/pkg/logger"
)

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithEventStream mounts h on GET /ws.
func WithEventStream(h http.Handler) Option {
	return func(s *Server) {
		s.stream = h
	}
}

// WithRequestTimeout bounds request handling. The event stream is not affected.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used to report internal request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

package ws

import (
	"net/http"
	"time"

	"github.com/okian/playoffdraft/pkg/logger"
)

// Option applies a configuration option to the Handler.
type Option func(*Handler)

// WithPongWait sets how long a silent peer is kept. Pings go out at nine tenths of it.
func WithPongWait(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.pongWait = d
		}
	}
}

// WithSeenSize bounds how many event ids a connection remembers to avoid resending.
func WithSeenSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.seenSize = n
		}
	}
}

// WithCheckOrigin overrides the same-origin check of the upgrade.
func WithCheckOrigin(fn func(r *http.Request) bool) Option {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = fn
	}
}

// WithLogger sets the logger for the handler.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

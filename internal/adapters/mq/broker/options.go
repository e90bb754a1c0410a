package broker

import (
	"github.com/okian/playoffdraft/internal/domain/realtime"
	"github.com/okian/playoffdraft/pkg/logger"
)

// Option configures a Broker.
type Option func(*Broker)

// WithBufferSize sets the per-subscriber buffer.
func WithBufferSize(size int) Option {
	return func(b *Broker) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

// WithLog sets the event history the broker appends to.
func WithLog(l *realtime.Log) Option {
	return func(b *Broker) {
		if l != nil {
			b.log = l
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Broker) {
		if l != nil {
			b.logger = l
		}
	}
}

package dedupe

// Option configures a deduper.
type Option func(*fifoDeduper)

// WithMaxSize sets how many IDs are remembered. Values <= 0 remember every ID.
func WithMaxSize(maxSize int) Option {
	return func(d *fifoDeduper) {
		d.maxSize = maxSize
	}
}

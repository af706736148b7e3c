package dedupe

// Option configures the submission cache.
type Option func(*submissionCache)

// WithMaxSize bounds how many submission ids are remembered.
// A value <= 0 keeps every id.
func WithMaxSize(maxSize int) Option {
	return func(d *submissionCache) {
		d.capacity = maxSize
	}
}

package moderation

import "time"

type options struct {
	now func() time.Time
}

// Option configures the moderation components
type Option func(*options)

// WithClock injects the time source used for appeal dates and ledger timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

package cache

import (
	"github.com/ValentinKolb/kvcache/lib/instrument"
	"github.com/google/uuid"
)

type options struct {
	keyGen  func() string
	recOpts []instrument.Option
	reset   bool
}

func defaultOptions() options {
	return options{
		keyGen: uuid.NewString,
		reset:  true,
	}
}

// Option configures a Cache
type Option func(*options)

// WithKeyGenerator replaces the random UUIDv4 keys, e.g. for reproducible output
func WithKeyGenerator(gen func() string) Option {
	return func(o *options) {
		if gen != nil {
			o.keyGen = gen
		}
	}
}

// WithRecorderOptions passes options to the recorder of the instrumented operations
func WithRecorderOptions(opts ...instrument.Option) Option {
	return func(o *options) {
		o.recOpts = append(o.recOpts, opts...)
	}
}

// WithoutReset skips flushing the store on construction.
// Only meant for read-only tools that inspect an existing session.
func WithoutReset() Option {
	return func(o *options) {
		o.reset = false
	}
}

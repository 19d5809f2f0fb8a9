package reader

import (
	"log"
	"time"
)

// DefaultSettleDelay is the wait between card detection and connect, letting
// the card finish powering up in the field.
const DefaultSettleDelay = 20 * time.Millisecond

// Option configures a Reader or a Context.
type Option func(*config)

type config struct {
	logger      *log.Logger
	settleDelay time.Duration
}

func newConfig(opts []Option) config {
	cfg := config{
		logger:      log.Default(),
		settleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithLogger sends lifecycle messages to l.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSettleDelay overrides DefaultSettleDelay. Zero connects immediately.
func WithSettleDelay(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.settleDelay = d
		}
	}
}

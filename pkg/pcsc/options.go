package pcsc

import (
	"log"
	"time"
)

// DefaultPollInterval bounds each blocking status wait, so that reader
// hot-plug is picked up even where the PnP notification is not supported.
const DefaultPollInterval = time.Second

// Option configures a Transport.
type Option func(*Transport)

// WithLogger sends transport messages to l.
func WithLogger(l *log.Logger) Option {
	return func(t *Transport) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithPollInterval overrides DefaultPollInterval.
func WithPollInterval(d time.Duration) Option {
	return func(t *Transport) {
		if d > 0 {
			t.poll = d
		}
	}
}

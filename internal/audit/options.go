package audit

import "time"

const (
	// DefaultPeriod is the time between catalog polls.
	DefaultPeriod = 120 * time.Second

	// DefaultBatchSize is the number of newest catalog entries queued per poll.
	DefaultBatchSize = 10
)

type settings struct {
	period        time.Duration
	batchSize     int
	queueCapacity int
	batches       BatchTokenGenerator
	newTicker     func(time.Duration) Ticker
}

func defaultSettings() settings {
	return settings{
		period:        DefaultPeriod,
		batchSize:     DefaultBatchSize,
		queueCapacity: DefaultQueueCapacity,
		batches:       UUIDv7Generator{},
		newTicker:     newTimeTicker,
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures the pipeline.
type Option func(*settings)

// WithPeriod sets the scheduler period. Non-positive values are ignored.
func WithPeriod(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.period = d
		}
	}
}

// WithBatchSize sets how many catalog entries are queued per tick.
// Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithQueueCapacity sets the queue bound. Non-positive values are ignored.
func WithQueueCapacity(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.queueCapacity = n
		}
	}
}

// WithBatchTokens replaces the UUIDv7 batch token generator.
func WithBatchTokens(g BatchTokenGenerator) Option {
	return func(s *settings) {
		s.batches = g
	}
}

// WithTicker replaces the wall-clock ticker, e.g. with
// testutil.ManualTicker.
func WithTicker(newTicker func(time.Duration) Ticker) Option {
	return func(s *settings) {
		s.newTicker = newTicker
	}
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

package reconcile

import "log/slog"

type settings struct {
	logger *slog.Logger
}

// Option configures CheckExistence, ApplyMissing and friends.
type Option func(*settings)

// WithLogger routes diagnostics to l instead of slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

func newSettings(opts []Option) settings {
	s := settings{logger: slog.Default()}
	for _, o := range opts {
		o(&s)
	}
	return s
}

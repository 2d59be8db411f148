// Package startup brings up external dependencies in registration order and
// tears them down in reverse. The service only has a couple (the database,
// optionally the Kafka producer), so ordering is positional rather than
// declared.
package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

type dependency struct {
	name  string
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

// Sequencer starts registered dependencies in order, retrying the whole
// sequence with Fibonacci backoff until maxAttempts is exhausted.
type Sequencer struct {
	deps        []dependency
	logger      ectologger.Logger
	maxAttempts int
}

func NewSequencer(logger ectologger.Logger, maxAttempts int) *Sequencer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Sequencer{
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// Add registers a dependency. Either func may be nil.
func (s *Sequencer) Add(name string, start, stop func(ctx context.Context) error) {
	s.deps = append(s.deps, dependency{name: name, start: start, stop: stop})
}

func (s *Sequencer) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		lastErr = s.startAll(ctx)
		if lastErr == nil {
			return nil
		}

		if attempt >= s.maxAttempts {
			break
		}

		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return fmt.Errorf("startup failed after %d attempts: %w", s.maxAttempts, lastErr)
}

func (s *Sequencer) startAll(ctx context.Context) error {
	for _, dep := range s.deps {
		if dep.start == nil {
			continue
		}
		s.logger.WithField("dependency", dep.name).Infof("Starting dependency '%s'", dep.name)
		if err := dep.start(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", dep.name).Errorf("Failed to start dependency '%s'", dep.name)
			return err
		}
	}
	return nil
}

// Stop tears dependencies down in reverse registration order. The first stop
// failure aborts the teardown.
func (s *Sequencer) Stop(ctx context.Context) error {
	for i := len(s.deps) - 1; i >= 0; i-- {
		dep := s.deps[i]
		if dep.stop == nil {
			continue
		}
		s.logger.WithField("dependency", dep.name).Infof("Stopping dependency '%s'", dep.name)
		if err := dep.stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", dep.name).Errorf("Failed to stop dependency '%s'", dep.name)
			return err
		}
	}
	return nil
}

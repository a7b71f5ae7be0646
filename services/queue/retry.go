package queue

import (
	"context"
	"time"

	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/rs/zerolog/log"
)

// withRetry runs operation once plus at most MaxRetries retries with a fixed delay; only retryable errors are retried
func (s *service) withRetry(ctx context.Context, buildTypeID string, operation func() error) (attempts int, err error) {

	maxRetries := *s.config.MaxRetries
	delay := s.config.RetryDelay

	for attempts < maxRetries+1 {
		attempts++
		err = operation()
		if err == nil {
			return
		}

		if !teamcityapi.IsRetryable(err) || attempts > maxRetries {
			return
		}

		log.Warn().Err(err).Msgf("Attempt %v for %v failed, retrying in %v", attempts, buildTypeID, delay)
		s.events.emit(EventRetry, "", &RetryEvent{
			BuildTypeID: buildTypeID,
			Attempt:     attempts,
			MaxRetries:  maxRetries,
			Delay:       delay,
			Err:         err,
		})

		select {
		case <-ctx.Done():
			return attempts, ctx.Err()
		case <-time.After(delay):
		}
	}

	return
}

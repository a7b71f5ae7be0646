package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type monitor struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *service) MonitorBuild(ctx context.Context, buildID string, options MonitorOptions, callback func(status *BuildStatus)) (<-chan struct{}, error) {

	if err := validateBuildID(buildID); err != nil {
		return nil, err
	}

	options, err := s.monitorOptions(options)
	if err != nil {
		return nil, err
	}

	monitorCtx, cancel := context.WithCancel(ctx)
	m := &monitor{
		id:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	// replacing an active monitor cancels it without a stopped event
	s.monitorsMutex.Lock()
	if existing, ok := s.monitors[buildID]; ok {
		log.Debug().Str("monitor", existing.id).Msgf("Replacing active monitor for build %v with %v", buildID, m.id)
		existing.cancel()
	}
	s.monitors[buildID] = m
	s.monitorsMutex.Unlock()

	log.Info().Str("monitor", m.id).Msgf("Monitoring build %v every %v for at most %v", buildID, options.Interval, options.Timeout)

	go s.poll(monitorCtx, m, buildID, options, callback)

	return m.done, nil
}

func (s *service) StopMonitoring(buildID string) {

	s.monitorsMutex.Lock()
	m, ok := s.monitors[buildID]
	if ok {
		delete(s.monitors, buildID)
	}
	s.monitorsMutex.Unlock()

	if !ok {
		return
	}

	m.cancel()
	log.Info().Str("monitor", m.id).Msgf("Stopped monitoring build %v", buildID)
	s.events.emit(EventMonitorStopped, buildID, &MonitorStoppedEvent{MonitorID: m.id, BuildID: buildID})
}

func (s *service) StopAllMonitoring() {

	s.monitorsMutex.Lock()
	stopped := s.monitors
	s.monitors = map[string]*monitor{}
	s.monitorsMutex.Unlock()

	for buildID, m := range stopped {
		m.cancel()
		s.events.emit(EventMonitorStopped, buildID, &MonitorStoppedEvent{MonitorID: m.id, BuildID: buildID})
	}
	if len(stopped) > 0 {
		log.Info().Msgf("Stopped monitoring %v builds", len(stopped))
	}
}

func (s *service) monitorOptions(options MonitorOptions) (MonitorOptions, error) {

	if options.Interval == 0 {
		options.Interval = s.config.PollInterval
	}
	if options.Interval < 0 || options.Interval > s.config.MaxPollInterval {
		return options, &api.ValidationError{Field: "interval", Value: options.Interval.String(), Message: fmt.Sprintf("out-of-range interval, must be above 0 and at most %v", s.config.MaxPollInterval)}
	}

	if options.Timeout == 0 {
		options.Timeout = s.config.MonitorTimeout
	}
	if options.Timeout < 0 || options.Timeout > s.config.MaxTimeout {
		return options, &api.ValidationError{Field: "timeout", Value: options.Timeout.String(), Message: fmt.Sprintf("out-of-range timeout, must be at most %v", s.config.MaxTimeout)}
	}

	return options, nil
}

// poll emits exactly one terminal event unless the monitor gets stopped or replaced
func (s *service) poll(ctx context.Context, m *monitor, buildID string, options MonitorOptions, callback func(status *BuildStatus)) {

	defer close(m.done)
	defer s.unregister(buildID, m)

	logger := log.With().Str("monitor", m.id).Logger()

	ticker := time.NewTicker(options.Interval)
	defer ticker.Stop()

	// the timeout runs from the first poll
	timeout := time.NewTimer(options.Timeout)
	defer timeout.Stop()

	var lastStatus *BuildStatus
	for {
		status, err := s.GetBuildStatus(ctx, buildID)
		switch {
		case ctx.Err() != nil:
			return

		case err != nil:
			logger.Warn().Err(err).Msgf("Polling build %v failed", buildID)
			s.events.emit(EventMonitorError, buildID, &MonitorErrorEvent{MonitorID: m.id, BuildID: buildID, Err: err})

		default:
			if lastStatus == nil || lastStatus.State != status.State {
				logger.Info().Msgf("Build %v is %v", buildID, status.State)
			}
			lastStatus = status

			if callback != nil {
				callback(status)
			}

			if status.State.IsTerminal() {
				if status.State == api.BuildStateCanceled {
					s.events.emit(EventBuildCanceled, buildID, &BuildCanceledEvent{BuildID: buildID, Status: status})
				} else {
					s.events.emit(EventBuildCompleted, buildID, &BuildCompletedEvent{MonitorID: m.id, Status: status})
				}
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-timeout.C:
			logger.Warn().Msgf("Monitoring build %v timed out after %v", buildID, options.Timeout)
			s.events.emit(EventBuildTimeout, buildID, &BuildTimeoutEvent{MonitorID: m.id, BuildID: buildID, Timeout: options.Timeout, LastStatus: lastStatus})
			return
		case <-ticker.C:
		}
	}
}

// unregister only removes the registration if it wasn't replaced in the meantime
func (s *service) unregister(buildID string, m *monitor) {
	s.monitorsMutex.Lock()
	defer s.monitorsMutex.Unlock()

	if registered, ok := s.monitors[buildID]; ok && registered.id == m.id {
		delete(s.monitors, buildID)
		m.cancel()
	}
}

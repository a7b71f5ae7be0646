package queue

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/obfuscation"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/estafette/estafette-ci-teamcity/config"
	"github.com/estafette/estafette-ci-teamcity/services/parameter"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// SettingMaxConcurrentBuilds is the build type setting limiting the number of running builds; 0 means unlimited
const SettingMaxConcurrentBuilds = "maximumNumberOfBuilds"

// Service submits builds to the queue and follows them until they finish
//
//go:generate mockgen -package=queue -destination ./mock.go -source=service.go
type Service interface {
	QueueBuild(ctx context.Context, configuration *api.Configuration, parameters *api.ParameterSet, options QueueOptions) (*api.QueuedBuild, error)
	QueueBuilds(ctx context.Context, entries []BatchEntry, allowPartial bool) (*BatchResult, error)
	GetQueueLimitations(ctx context.Context, buildTypeID string) (*Limitations, error)
	GetQueuePosition(ctx context.Context, buildID string) (*QueuePosition, error)
	MoveToTop(ctx context.Context, buildID string) error
	ReorderQueue(ctx context.Context, buildIDs []string) error
	GetBuildStatus(ctx context.Context, buildID string) (*BuildStatus, error)
	MonitorBuild(ctx context.Context, buildID string, options MonitorOptions, callback func(status *BuildStatus)) (<-chan struct{}, error)
	StopMonitoring(buildID string)
	StopAllMonitoring()
	CancelBuild(ctx context.Context, buildID, comment string) error
	Subscribe(name EventName, handler EventHandler) func()
}

// NewService returns a new queue.Service
func NewService(ctx context.Context, teamcityapiClient teamcityapi.Client, parameterService parameter.Service, obfuscationClient obfuscation.Client, queueConfig config.QueueConfig) (Service, error) {

	queueConfig.SetDefaults()

	return &service{
		teamcityapiClient: teamcityapiClient,
		parameterService:  parameterService,
		obfuscationClient: obfuscationClient,
		config:            queueConfig,
		events:            newEventBus(),
		submissionLocks:   newMapMutex(),
		monitors:          map[string]*monitor{},
	}, nil
}

type service struct {
	teamcityapiClient teamcityapi.Client
	parameterService  parameter.Service
	obfuscationClient obfuscation.Client
	config            config.QueueConfig
	events            *eventBus
	submissionLocks   *mapMutex

	monitorsMutex sync.Mutex
	monitors      map[string]*monitor
}

func (s *service) QueueBuild(ctx context.Context, configuration *api.Configuration, parameters *api.ParameterSet, options QueueOptions) (*api.QueuedBuild, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::QueueBuild")
	defer span.Finish()

	if configuration == nil || configuration.ID == "" {
		return nil, &api.ValidationError{Field: "build configuration", Message: "build configuration is missing"}
	}
	span.SetTag("build-type", configuration.ID)

	if configuration.IsTemplate {
		return nil, &api.ValidationError{Field: "build configuration", Value: configuration.ID, Message: "templates can't be queued"}
	}
	if configuration.Paused {
		log.Warn().Msgf("Build configuration %v is paused, the build might not start", configuration.ID)
	}

	dependencies, err := validateDependencies(options.Dependencies)
	if err != nil {
		return nil, err
	}

	parameters = parameters.Clone()
	if options.Personal {
		err = s.parameterService.ConfigurePersonalBuild(parameters, configuration, parameter.PersonalBuildOptions{User: options.User, Description: options.Comment})
		if err != nil {
			return nil, err
		}
	}

	// limit check and submission have to be atomic per configuration
	s.submissionLocks.Lock(configuration.ID)
	defer s.submissionLocks.Unlock(configuration.ID)

	limitations, err := s.GetQueueLimitations(ctx, configuration.ID)
	if err != nil {
		return nil, err
	}
	if limitations.LimitReached() {
		err = &api.LimitError{BuildTypeID: configuration.ID, MaxConcurrentBuilds: *limitations.MaxConcurrentBuilds, RunningBuilds: limitations.RunningBuilds}
		log.Error().Err(err).Msgf("Not queueing build for %v", configuration.ID)
		return nil, err
	}

	request := teamcityapi.TriggerBuildRequest{
		BuildType:  teamcityapi.BuildTypeRef{ID: configuration.ID},
		BranchName: options.Branch,
		Personal:   options.Personal,
	}
	if options.Comment != "" {
		request.Comment = &teamcityapi.Comment{Text: options.Comment}
	}
	if parameters.Len() > 0 {
		request.Properties = &teamcityapi.Properties{}
		for _, p := range s.parameterService.ToProperties(parameters) {
			request.Properties.Property = append(request.Properties.Property, teamcityapi.Property{Name: p.Name, Value: p.Value})
		}
	}
	if len(dependencies) > 0 {
		request.SnapshotDependencies = &teamcityapi.BuildRefs{}
		for _, id := range dependencies {
			request.SnapshotDependencies.Build = append(request.SnapshotDependencies.Build, teamcityapi.BuildRef{ID: id})
		}
	}

	s.obfuscationClient.CollectSecrets(parameters, options.SecureParameters)
	log.Debug().Interface("parameters", s.obfuscationClient.ObfuscateParameters(parameters)).Msgf("Queueing build for %v on branch '%v'", configuration.ID, options.Branch)

	var build *teamcityapi.Build
	attempts, err := s.withRetry(ctx, configuration.ID, func() (err error) {
		build, err = s.teamcityapiClient.TriggerBuild(ctx, request)
		return
	})
	if err != nil {
		err = s.classify(err, "build configuration", configuration.ID)
		log.Error().Msgf("Failed queueing build for %v after %v attempts: %v", configuration.ID, attempts, s.obfuscationClient.Obfuscate(err.Error()))
		s.events.emit(EventBuildError, "", &BuildErrorEvent{BuildTypeID: configuration.ID, Attempts: attempts, Err: err})
		return nil, err
	}

	queuedBuild := toQueuedBuild(build)
	log.Info().Msgf("Queued build %v for %v", queuedBuild.ID, configuration.ID)
	s.events.emit(EventBuildQueued, queuedBuild.ID, &BuildQueuedEvent{Build: queuedBuild})

	if options.MoveToTop && queuedBuild.ID != "" {
		if err := s.MoveToTop(ctx, queuedBuild.ID); err != nil {
			log.Warn().Err(err).Msgf("Queued build %v but couldn't move it to the top of the queue", queuedBuild.ID)
		} else {
			queuedBuild.QueuePosition = 1
		}
	}

	return queuedBuild, nil
}

func (s *service) QueueBuilds(ctx context.Context, entries []BatchEntry, allowPartial bool) (*BatchResult, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::QueueBuilds")
	defer span.Finish()
	span.SetTag("entries", len(entries))

	result := &BatchResult{
		Builds:   make([]*api.QueuedBuild, len(entries)),
		Failures: []BatchFailure{},
	}

	// sequential to keep the number of outstanding requests bounded
	for i, entry := range entries {
		build, err := s.QueueBuild(ctx, entry.Configuration, entry.Parameters, entry.Options)
		if err != nil {
			buildTypeID := ""
			if entry.Configuration != nil {
				buildTypeID = entry.Configuration.ID
			}
			if !allowPartial {
				return nil, fmt.Errorf("Failed queueing batch entry %v (%v): %w", i, buildTypeID, err)
			}
			result.Failures = append(result.Failures, BatchFailure{Index: i, BuildTypeID: buildTypeID, Err: err})
			continue
		}
		result.Builds[i] = build
	}

	if len(result.Failures) > 0 {
		log.Warn().Msgf("%v of %v builds failed to queue", len(result.Failures), len(entries))
		s.events.emit(EventBatchPartial, "", &BatchPartialEvent{Succeeded: len(entries) - len(result.Failures), Failures: result.Failures})
	}

	return result, nil
}

func (s *service) GetQueueLimitations(ctx context.Context, buildTypeID string) (*Limitations, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::GetQueueLimitations")
	defer span.Finish()
	span.SetTag("build-type", buildTypeID)

	limitations := &Limitations{BuildTypeID: buildTypeID}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		buildType, err := s.teamcityapiClient.GetBuildType(gctx, buildTypeID)
		if err != nil {
			return s.classify(err, "build configuration", buildTypeID)
		}
		if buildType == nil {
			return fmt.Errorf("Failed retrieving build configuration %v: %w", buildTypeID, teamcityapi.ErrEmptyResponse)
		}
		if value, ok := buildType.Settings.Get(SettingMaxConcurrentBuilds); ok {
			max, err := strconv.Atoi(strings.TrimSpace(value))
			if err == nil && max > 0 {
				limitations.MaxConcurrentBuilds = &max
			}
		}
		return nil
	})

	g.Go(func() (err error) {
		limitations.RunningBuilds, err = s.teamcityapiClient.CountRunningBuilds(gctx, buildTypeID)
		return s.classify(err, "running builds of", buildTypeID)
	})

	g.Go(func() error {
		queue, err := s.teamcityapiClient.GetBuildQueue(gctx)
		if err != nil {
			return s.classify(err, "build queue", "")
		}
		for _, b := range queue {
			if b != nil && b.BuildTypeID != nil && *b.BuildTypeID == buildTypeID {
				limitations.QueuedBuilds++
			}
		}
		return nil
	})

	g.Go(func() (err error) {
		limitations.AvailableAgents, err = s.teamcityapiClient.CountAvailableAgents(gctx, buildTypeID)
		return s.classify(err, "agents for", buildTypeID)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Debug().Interface("limitations", limitations).Msgf("Retrieved queue limitations for %v", buildTypeID)

	return limitations, nil
}

func (s *service) CancelBuild(ctx context.Context, buildID, comment string) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::CancelBuild")
	defer span.Finish()
	span.SetTag("build", buildID)

	if err := validateBuildID(buildID); err != nil {
		return err
	}

	err := s.teamcityapiClient.CancelQueuedBuild(ctx, buildID, comment)
	if err != nil {
		return s.classify(err, "build", buildID)
	}

	log.Info().Msgf("Canceled build %v", buildID)
	s.events.emit(EventBuildCanceled, buildID, &BuildCanceledEvent{BuildID: buildID, Comment: comment})

	return nil
}

func (s *service) Subscribe(name EventName, handler EventHandler) func() {
	return s.events.subscribe(name, handler)
}

func (s *service) classify(err error, resource, identifier string) error {
	if err == nil {
		return nil
	}
	var validation *api.ValidationError
	if errors.As(err, &validation) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return teamcityapi.ClassifyError(err, s.teamcityapiClient.BaseURL(), resource, identifier)
}

func validateBuildID(buildID string) error {
	if _, err := strconv.Atoi(buildID); err != nil {
		return &api.ValidationError{Field: "build id", Value: buildID, Message: "bad build-number format"}
	}
	return nil
}

// validateDependencies rejects non-numeric ids and ids listed more than once
func validateDependencies(buildIDs []string) ([]int, error) {

	seen := map[int]bool{}
	ids := make([]int, 0, len(buildIDs))
	for _, buildID := range buildIDs {
		id, err := strconv.Atoi(strings.TrimSpace(buildID))
		if err != nil {
			return nil, &api.ValidationError{Field: "dependency", Value: buildID, Message: "bad build-number format"}
		}
		if seen[id] {
			return nil, &api.ValidationError{Field: "dependency", Value: buildID, Message: "circular dependency, build is listed more than once"}
		}
		seen[id] = true
		ids = append(ids, id)
	}

	return ids, nil
}

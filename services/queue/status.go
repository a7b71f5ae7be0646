package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/opentracing/opentracing-go"
)

func (s *service) GetBuildStatus(ctx context.Context, buildID string) (*BuildStatus, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::GetBuildStatus")
	defer span.Finish()
	span.SetTag("build", buildID)

	if err := validateBuildID(buildID); err != nil {
		return nil, err
	}

	build, err := s.teamcityapiClient.GetBuild(ctx, buildID)
	if err != nil {
		return nil, s.classify(err, "build", buildID)
	}
	if build == nil {
		return nil, fmt.Errorf("Failed retrieving build %v: %w", buildID, teamcityapi.ErrEmptyResponse)
	}

	return toBuildStatus(build), nil
}

// NormalizeState maps the many ways servers spell a state onto the five known states; anything unknown is queued
func NormalizeState(state string) api.BuildState {
	switch strings.ToLower(strings.TrimSpace(state)) {
	case "running", "started", "in_progress":
		return api.BuildStateRunning
	case "finished", "success", "succeeded", "completed", "complete":
		return api.BuildStateFinished
	case "failed", "failure", "error":
		return api.BuildStateFailed
	case "canceled", "cancelled", "aborted":
		return api.BuildStateCanceled
	}
	return api.BuildStateQueued
}

func toBuildStatus(build *teamcityapi.Build) *BuildStatus {

	status := &BuildStatus{
		ID:          intValue(build.ID),
		BuildTypeID: stringValue(build.BuildTypeID),
		Number:      build.Number,
		State:       NormalizeState(stringValue(build.State)),
		StatusText:  build.StatusText,
		BranchName:  stringValue(build.BranchName),
		WebURL:      stringValue(build.WebURL),
	}

	// a finished build carries its outcome in the status field
	if status.State == api.BuildStateFinished {
		switch strings.ToUpper(build.Status) {
		case "FAILURE", "ERROR":
			status.State = api.BuildStateFailed
		}
	}
	if build.CanceledInfo != nil {
		status.State = api.BuildStateCanceled
		if build.CanceledInfo.User != nil {
			status.CanceledBy = build.CanceledInfo.User.Username
		}
	}

	if build.RunningInfo != nil {
		status.PercentageComplete = build.RunningInfo.PercentageComplete
		status.Elapsed = time.Duration(build.RunningInfo.ElapsedSeconds) * time.Second
		status.EstimatedTotal = time.Duration(build.RunningInfo.EstimatedTotalSeconds) * time.Second
	}
	if build.Artifacts != nil {
		status.Artifacts = &ArtifactSummary{Count: build.Artifacts.Count, Href: build.Artifacts.Href}
	}
	if build.TestOccurrences != nil {
		status.Tests = &TestSummary{
			Count:   build.TestOccurrences.Count,
			Passed:  build.TestOccurrences.Passed,
			Failed:  build.TestOccurrences.Failed,
			Ignored: build.TestOccurrences.Ignored,
			Muted:   build.TestOccurrences.Muted,
		}
	}

	return status
}

// toQueuedBuild defaults every field the server left out
func toQueuedBuild(build *teamcityapi.Build) *api.QueuedBuild {

	queuedBuild := &api.QueuedBuild{
		State:                api.BuildStateQueued,
		TriggeredBy:          api.TriggeredBySystem,
		SnapshotDependencies: []string{},
		Parameters:           map[string]string{},
	}
	if build == nil {
		return queuedBuild
	}

	queuedBuild.ID = intValue(build.ID)
	queuedBuild.BuildTypeID = stringValue(build.BuildTypeID)
	queuedBuild.BranchName = stringValue(build.BranchName)
	queuedBuild.WebURL = stringValue(build.WebURL)
	queuedBuild.Parameters = build.Properties.ToMap()
	if build.State != nil {
		queuedBuild.State = NormalizeState(*build.State)
	}
	if build.Personal != nil {
		queuedBuild.Personal = *build.Personal
	}
	if build.Triggered != nil && build.Triggered.User != nil && build.Triggered.User.Username != "" {
		queuedBuild.TriggeredBy = build.Triggered.User.Username
	}
	if build.SnapshotDependencies != nil {
		for _, dependency := range build.SnapshotDependencies.Build {
			queuedBuild.SnapshotDependencies = append(queuedBuild.SnapshotDependencies, strconv.Itoa(dependency.ID))
		}
	}
	if build.StartEstimate != "" {
		if estimate, err := teamcityapi.ParseDate(build.StartEstimate); err == nil {
			queuedBuild.EstimatedStart = &estimate
		}
	}

	return queuedBuild
}

func intValue(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

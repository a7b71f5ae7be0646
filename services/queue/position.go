package queue

import (
	"context"
	"strconv"
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
)

func (s *service) GetQueuePosition(ctx context.Context, buildID string) (*QueuePosition, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::GetQueuePosition")
	defer span.Finish()
	span.SetTag("build", buildID)

	if err := validateBuildID(buildID); err != nil {
		return nil, err
	}

	queue, err := s.teamcityapiClient.GetBuildQueue(ctx)
	if err != nil {
		return nil, s.classify(err, "build queue", "")
	}

	if position := positionInQueue(queue, buildID); position != nil {
		return position, nil
	}

	// not queued anymore, report its current state
	status, err := s.GetBuildStatus(ctx, buildID)
	if err != nil {
		return nil, err
	}

	return &QueuePosition{
		BuildID:   buildID,
		Position:  0,
		State:     status.State,
		BlockedBy: []string{},
	}, nil
}

func (s *service) MoveToTop(ctx context.Context, buildID string) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::MoveToTop")
	defer span.Finish()
	span.SetTag("build", buildID)

	if err := validateBuildID(buildID); err != nil {
		return err
	}

	queue, err := s.teamcityapiClient.GetBuildQueue(ctx)
	if err != nil {
		return s.classify(err, "build queue", "")
	}

	if err := validateOrder(queue, []string{buildID}); err != nil {
		return err
	}

	if positionInQueue(queue, buildID).Position == 1 {
		log.Debug().Msgf("Build %v is already at the top of the queue", buildID)
		return nil
	}

	if err := s.teamcityapiClient.ReorderQueue(ctx, []string{buildID}); err != nil {
		return s.classify(err, "build queue", "")
	}

	log.Info().Msgf("Moved build %v to the top of the queue", buildID)

	return nil
}

func (s *service) ReorderQueue(ctx context.Context, buildIDs []string) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Queue::ReorderQueue")
	defer span.Finish()

	if len(buildIDs) == 0 {
		return &api.ValidationError{Field: "build ids", Message: "no builds to reorder"}
	}
	seen := map[string]bool{}
	for _, buildID := range buildIDs {
		if err := validateBuildID(buildID); err != nil {
			return err
		}
		if seen[buildID] {
			return &api.ValidationError{Field: "build id", Value: buildID, Message: "build is listed more than once"}
		}
		seen[buildID] = true
	}

	queue, err := s.teamcityapiClient.GetBuildQueue(ctx)
	if err != nil {
		return s.classify(err, "build queue", "")
	}

	if err := validateOrder(queue, buildIDs); err != nil {
		return err
	}

	if err := s.teamcityapiClient.ReorderQueue(ctx, buildIDs); err != nil {
		return s.classify(err, "build queue", "")
	}

	log.Info().Msgf("Reordered build queue to start with %v", strings.Join(buildIDs, ", "))

	return nil
}

// validateOrder checks every build is queued and each one it is blocked by comes earlier in buildIDs
func validateOrder(queue []*teamcityapi.Build, buildIDs []string) error {

	for i, buildID := range buildIDs {
		position := positionInQueue(queue, buildID)
		if position == nil {
			return &api.ValidationError{Field: "build id", Value: buildID, Message: "build is not queued and can't be moved"}
		}

		blockers := []string{}
		for _, blocker := range position.BlockedBy {
			earlier := false
			for _, previous := range buildIDs[:i] {
				if previous == blocker {
					earlier = true
					break
				}
			}
			if !earlier {
				blockers = append(blockers, blocker)
			}
		}
		if len(blockers) > 0 {
			return &api.ValidationError{Field: "build id", Value: buildID, Message: "build is blocked by queued dependencies " + strings.Join(blockers, ", ")}
		}
	}

	return nil
}

// positionInQueue returns nil if the build isn't in the queue
func positionInQueue(queue []*teamcityapi.Build, buildID string) *QueuePosition {

	index := -1
	for i, b := range queue {
		if b != nil && b.ID != nil && strconv.Itoa(*b.ID) == buildID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}

	ahead := map[string]bool{}
	for _, b := range queue[:index] {
		if b != nil && b.ID != nil {
			ahead[strconv.Itoa(*b.ID)] = true
		}
	}

	target := queue[index]
	position := &QueuePosition{
		BuildID:    buildID,
		Position:   index + 1,
		State:      api.BuildStateQueued,
		BlockedBy:  []string{},
		WaitReason: target.WaitReason,
	}
	if estimate, err := teamcityapi.ParseDate(target.StartEstimate); err == nil && target.StartEstimate != "" {
		position.EstimatedStart = &estimate
	}
	if target.SnapshotDependencies != nil {
		for _, dependency := range target.SnapshotDependencies.Build {
			if id := strconv.Itoa(dependency.ID); ahead[id] {
				position.BlockedBy = append(position.BlockedBy, id)
			}
		}
	}
	position.CanMoveToTop = len(position.BlockedBy) == 0

	return position
}

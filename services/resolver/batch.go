package resolver

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const batchConcurrency = 4

// Request is a single entry of a batch; the first populated of ID, BuildTypeName, Hints and Token decides the strategy
type Request struct {
	ID             string
	ProjectName    string
	BuildTypeName  string
	Disambiguation string
	Hints          *ContextHints
	Token          string
}

// BatchFailure records why a batch entry failed
type BatchFailure struct {
	Index   int
	Request Request
	Err     error
}

// BatchResult holds a configuration per request index, nil where the request failed
type BatchResult struct {
	Configurations []*api.Configuration
	Failures       []BatchFailure
}

func (s *service) ResolveBatch(ctx context.Context, requests []Request, allowPartial bool) (*BatchResult, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver::ResolveBatch")
	defer span.Finish()
	span.SetTag("requests", len(requests))

	result := &BatchResult{
		Configurations: make([]*api.Configuration, len(requests)),
		Failures:       []BatchFailure{},
	}

	var mutex sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)

	for i, r := range requests {
		i, r := i, r
		g.Go(func() error {
			configuration, err := s.resolveRequest(gctx, r)
			if err != nil {
				if !allowPartial {
					return fmt.Errorf("Failed resolving batch entry %v: %w", i, err)
				}
				log.Warn().Err(err).Msgf("Failed resolving batch entry %v", i)
				mutex.Lock()
				result.Failures = append(result.Failures, BatchFailure{Index: i, Request: r, Err: err})
				mutex.Unlock()
				return nil
			}
			result.Configurations[i] = configuration
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(result.Failures, func(i, j int) bool { return result.Failures[i].Index < result.Failures[j].Index })

	return result, nil
}

func (s *service) resolveRequest(ctx context.Context, r Request) (*api.Configuration, error) {
	switch {
	case r.ID != "":
		return s.ResolveByID(ctx, r.ID)
	case r.BuildTypeName != "":
		return s.ResolveByName(ctx, r.ProjectName, r.BuildTypeName, r.Disambiguation)
	case r.Hints != nil && !r.Hints.IsEmpty():
		return s.ResolveFromContext(ctx, *r.Hints)
	case r.Token != "":
		return s.Resolve(ctx, r.Token)
	}
	return nil, &api.ValidationError{Field: "batch request", Message: "request has no id, name, context or token"}
}

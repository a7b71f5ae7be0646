package resolver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/estafette/estafette-ci-teamcity/config"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

const (
	resourceBuildConfiguration  = "build configuration"
	resourceBuildConfigurations = "build configurations"
	maxSuggestions              = 5
)

// Service turns ids, names, contextual hints or free text into exactly one build configuration
//
//go:generate mockgen -package=resolver -destination ./mock.go -source=service.go
type Service interface {
	ResolveByID(ctx context.Context, id string) (*api.Configuration, error)
	ResolveByName(ctx context.Context, projectName, buildTypeName, disambiguation string) (*api.Configuration, error)
	ResolveFromContext(ctx context.Context, hints ContextHints) (*api.Configuration, error)
	Resolve(ctx context.Context, token string) (*api.Configuration, error)
	ResolveBatch(ctx context.Context, requests []Request, allowPartial bool) (*BatchResult, error)
	FindFuzzyMatches(ctx context.Context, query string, limit int) ([]Match, error)
	Invalidate(id string)
	ClearCache()
}

// NewService returns a new resolver.Service
func NewService(ctx context.Context, teamcityapiClient teamcityapi.Client, resolverConfig config.ResolverConfig) (Service, error) {

	resolverConfig.SetDefaults()

	return &service{
		teamcityapiClient: teamcityapiClient,
		config:            resolverConfig,
		cache:             newConfigurationCache(resolverConfig.CacheSize, resolverConfig.CacheTTL),
		group:             &singleflight.Group{},
	}, nil
}

type service struct {
	teamcityapiClient teamcityapi.Client
	config            config.ResolverConfig
	cache             *configurationCache
	group             *singleflight.Group
}

func (s *service) ResolveByID(ctx context.Context, id string) (*api.Configuration, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver::ResolveByID")
	defer span.Finish()
	span.SetTag("build-type", id)

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &api.ValidationError{Field: "build configuration id", Value: id, Message: "id is empty"}
	}

	key := idKey(id)
	if configuration, ok := s.cache.get(key); ok {
		log.Debug().Msgf("Cache hit for %v", key)
		return configuration, nil
	}
	log.Debug().Msgf("Cache miss for %v", key)

	// concurrent lookups of the same id share a single request
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		buildType, err := s.teamcityapiClient.GetBuildType(ctx, id)
		if err != nil {
			return nil, s.classify(err, resourceBuildConfiguration, id)
		}
		if buildType == nil {
			return nil, fmt.Errorf("Failed retrieving %v %v: %w", resourceBuildConfiguration, id, teamcityapi.ErrEmptyResponse)
		}
		configuration := toConfiguration(buildType)
		s.cache.add(key, configuration)
		return configuration, nil
	})
	if err != nil {
		return nil, err
	}

	configuration := v.(*api.Configuration).Clone()
	log.Info().Msgf("Resolved build configuration %v (%v)", configuration.ID, configuration.FullName())

	return configuration, nil
}

func (s *service) ResolveByName(ctx context.Context, projectName, buildTypeName, disambiguation string) (*api.Configuration, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver::ResolveByName")
	defer span.Finish()
	span.SetTag("project", projectName)
	span.SetTag("build-type", buildTypeName)

	buildTypeName = strings.TrimSpace(buildTypeName)
	projectName = strings.TrimSpace(projectName)
	if buildTypeName == "" {
		return nil, &api.ValidationError{Field: "build configuration name", Value: buildTypeName, Message: "name is empty"}
	}

	key := nameKey(projectName, buildTypeName, disambiguation)
	if configuration, ok := s.cache.get(key); ok {
		log.Debug().Msgf("Cache hit for %v", key)
		return configuration, nil
	}
	log.Debug().Msgf("Cache miss for %v", key)

	candidates, err := s.listCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed resolving %v: %w", describeName(projectName, buildTypeName), err)
	}

	scored := scoreCandidates(candidates, func(c *api.Configuration) float64 {
		return nameScore(c, projectName, buildTypeName)
	})

	matches := []Match{}
	for _, m := range scored {
		if m.Score >= s.config.FuzzyThreshold {
			matches = append(matches, m)
		}
	}

	if len(matches) == 0 {
		return nil, &api.NotFoundError{
			Resource:    resourceBuildConfiguration,
			Identifier:  describeName(projectName, buildTypeName),
			Suggestions: suggestions(scored, maxSuggestions),
		}
	}

	configuration, err := disambiguate(matches, projectName, buildTypeName, disambiguation)
	if err != nil {
		return nil, err
	}

	s.cache.add(key, configuration)
	log.Info().Msgf("Resolved %v to build configuration %v", describeName(projectName, buildTypeName), configuration.ID)

	return configuration.Clone(), nil
}

func (s *service) FindFuzzyMatches(ctx context.Context, query string, limit int) ([]Match, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver::FindFuzzyMatches")
	defer span.Finish()

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &api.ValidationError{Field: "query", Value: query, Message: "query is empty"}
	}
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.listCandidates(ctx)
	if err != nil {
		return nil, err
	}

	projectName, buildTypeName := "", query
	if parts := strings.SplitN(query, nameSeparator, 2); len(parts) == 2 {
		projectName, buildTypeName = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	}

	scored := scoreCandidates(candidates, func(c *api.Configuration) float64 {
		if projectName != "" {
			return nameScore(c, projectName, buildTypeName)
		}
		return freeTextScore(c, query)
	})

	matches := []Match{}
	for _, m := range scored {
		if m.Score < suggestionThreshold || len(matches) == limit {
			break
		}
		matches = append(matches, m)
	}

	return matches, nil
}

func (s *service) Invalidate(id string) {
	removed := s.cache.invalidate(id)
	log.Debug().Msgf("Invalidated %v cache entries for %v", removed, id)
}

func (s *service) ClearCache() {
	s.cache.purge()
}

// listCandidates fetches every build configuration once per concurrent burst of callers
func (s *service) listCandidates(ctx context.Context) ([]*api.Configuration, error) {

	v, err, _ := s.group.Do("list", func() (interface{}, error) {
		buildTypes, err := s.teamcityapiClient.ListBuildTypes(ctx, "")
		if err != nil {
			return nil, s.classify(err, resourceBuildConfigurations, "")
		}

		configurations := make([]*api.Configuration, 0, len(buildTypes))
		for _, bt := range buildTypes {
			if bt == nil {
				continue
			}
			configurations = append(configurations, toConfiguration(bt))
		}
		return configurations, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.([]*api.Configuration)
	candidates := make([]*api.Configuration, 0, len(shared))
	for _, c := range shared {
		candidates = append(candidates, c.Clone())
	}

	return candidates, nil
}

func (s *service) classify(err error, resource, identifier string) error {

	classified := teamcityapi.ClassifyError(err, s.teamcityapiClient.BaseURL(), resource, identifier)

	var notFound *api.NotFoundError
	var permission *api.PermissionError
	if errors.As(classified, &notFound) || errors.As(classified, &permission) {
		return classified
	}

	if identifier == "" {
		return fmt.Errorf("Failed retrieving %v: %w", resource, classified)
	}
	return fmt.Errorf("Failed retrieving %v %v: %w", resource, identifier, classified)
}

// disambiguate picks a single configuration from matches sorted by descending score
func disambiguate(matches []Match, projectName, buildTypeName, disambiguation string) (*api.Configuration, error) {

	if len(matches) == 1 {
		return matches[0].Configuration, nil
	}

	exact := []Match{}
	for _, m := range matches {
		if strings.EqualFold(m.Configuration.Name, buildTypeName) && (projectName == "" || strings.EqualFold(m.Configuration.ProjectName, projectName) || strings.EqualFold(m.Configuration.ProjectID, projectName)) {
			exact = append(exact, m)
		}
	}
	if len(exact) == 1 {
		return exact[0].Configuration, nil
	}
	if len(exact) > 1 {
		matches = exact
	}

	if disambiguation != "" {
		lower := strings.ToLower(disambiguation)
		for _, m := range matches {
			if strings.Contains(strings.ToLower(m.Configuration.Name), lower) || strings.Contains(strings.ToLower(m.Configuration.Description), lower) {
				return m.Configuration, nil
			}
		}
	}

	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, m.Configuration.ID)
	}
	sort.Strings(candidates)

	return nil, &api.AmbiguousError{Query: describeName(projectName, buildTypeName), Candidates: candidates}
}

func suggestions(scored []Match, max int) []string {
	ids := []string{}
	for _, m := range scored {
		if m.Score < suggestionThreshold || len(ids) == max {
			break
		}
		ids = append(ids, m.Configuration.ID)
	}
	return ids
}

func describeName(projectName, buildTypeName string) string {
	if projectName == "" {
		return buildTypeName
	}
	return projectName + nameSeparator + buildTypeName
}

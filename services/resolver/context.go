package resolver

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog/log"
)

var (
	buildTypeIDRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*(_[A-Za-z0-9]+)+$`)
	commitHashRegex  = regexp.MustCompile(`^[0-9a-f]{7,40}$`)
	pullRequestRegex = regexp.MustCompile(`(?i)^(#|pr[/-]?|pull/)\d+$`)
	issueKeyRegex    = regexp.MustCompile(`^[A-Z][A-Z0-9]+-\d+$`)
	keyPrefixRegex   = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9]*)[-/#]`)

	platformKeywords   = []string{"ios", "android", "web"}
	preferredNameParts = []string{"default", "main", "build"}
)

// ContextHints are the clues available from the environment a build is triggered from
type ContextHints struct {
	CommitHash  string
	PullRequest string
	IssueKey    string
	Branch      string
	ProjectHint string

	// repository hints only narrow the candidates when at least one candidate matches
	Repository      string
	RepositoryOwner string
}

// IsEmpty returns true if no clue is present
func (h ContextHints) IsEmpty() bool {
	return h.CommitHash == "" && h.PullRequest == "" && h.IssueKey == "" && h.Branch == "" && h.ProjectHint == "" && h.Repository == "" && h.RepositoryOwner == ""
}

func (h ContextHints) String() string {
	parts := []string{}
	for _, kv := range [][2]string{{"commit", h.CommitHash}, {"pull request", h.PullRequest}, {"issue", h.IssueKey}, {"branch", h.Branch}, {"project", h.ProjectHint}, {"repository", h.Repository}, {"owner", h.RepositoryOwner}} {
		if kv[1] != "" {
			parts = append(parts, fmt.Sprintf("%v %v", kv[0], kv[1]))
		}
	}
	return strings.Join(parts, ", ")
}

func (s *service) ResolveFromContext(ctx context.Context, hints ContextHints) (*api.Configuration, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver::ResolveFromContext")
	defer span.Finish()

	if hints.IsEmpty() {
		return nil, &api.ValidationError{Field: "context", Message: "no context hints supplied"}
	}

	candidates, err := s.listCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("Failed resolving build configuration for %v: %w", hints, err)
	}

	// templates can't be triggered
	candidates = filter(candidates, func(c *api.Configuration) bool { return !c.IsTemplate })

	if keywords := containedKeywords(hints.Branch, platformKeywords); len(keywords) > 0 {
		candidates = filter(candidates, func(c *api.Configuration) bool {
			return containsAny(c.Name+" "+c.ProjectName+" "+c.ID, keywords)
		})
	}

	if hints.ProjectHint != "" {
		candidates = filter(candidates, func(c *api.Configuration) bool {
			return containsAny(c.ProjectID+" "+c.ProjectName, []string{hints.ProjectHint})
		})
	}

	for _, repository := range []string{hints.Repository, hints.RepositoryOwner} {
		if repository == "" {
			continue
		}
		narrowed := filter(candidates, func(c *api.Configuration) bool {
			return containsAny(c.ProjectID+" "+c.ProjectName+" "+c.Name, []string{repository})
		})
		if len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	for _, key := range []string{hints.PullRequest, hints.IssueKey} {
		if prefix := keyPrefix(key); prefix != "" {
			candidates = filter(candidates, func(c *api.Configuration) bool {
				return containsAny(c.Name+" "+c.ID, []string{prefix})
			})
		}
	}

	if hints.CommitHash != "" {
		log.Debug().Msgf("Commit %v can't narrow down build configurations without vcs lookups", hints.CommitHash)
	}

	if len(candidates) == 0 {
		return nil, &api.NotFoundError{Resource: resourceBuildConfiguration, Identifier: "for " + hints.String()}
	}

	configuration := candidates[0]
	if len(candidates) > 1 {
		configuration = nil
		for _, part := range preferredNameParts {
			for _, c := range candidates {
				if strings.Contains(strings.ToLower(c.Name), part) {
					configuration = c
					break
				}
			}
			if configuration != nil {
				break
			}
		}
		if configuration == nil {
			configuration = candidates[0]
			log.Warn().Msgf("%v build configurations match %v, picking %v", len(candidates), hints, configuration.ID)
		}
	}

	s.cache.add(idKey(configuration.ID), configuration)
	log.Info().Msgf("Resolved %v to build configuration %v", hints, configuration.ID)

	return configuration.Clone(), nil
}

func (s *service) Resolve(ctx context.Context, token string) (*api.Configuration, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "Resolver::Resolve")
	defer span.Finish()
	span.SetTag("token", token)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, &api.ValidationError{Field: "build configuration", Value: token, Message: "nothing to resolve"}
	}

	switch {
	case buildTypeIDRegex.MatchString(token):
		configuration, err := s.ResolveByID(ctx, token)
		var notFound *api.NotFoundError
		if err != nil && errors.As(err, &notFound) {
			log.Debug().Msgf("%v is not a build configuration id, resolving it by name", token)
			return s.ResolveByName(ctx, "", token, "")
		}
		return configuration, err

	case commitHashRegex.MatchString(token), pullRequestRegex.MatchString(token), issueKeyRegex.MatchString(token):
		configuration, err := s.ResolveFromContext(ctx, classifyHint(token))
		if err != nil {
			log.Debug().Err(err).Msgf("Resolving %v from context failed, resolving it by name", token)
			return s.ResolveByName(ctx, "", token, "")
		}
		return configuration, nil

	case strings.Contains(token, nameSeparator):
		parts := strings.SplitN(token, nameSeparator, 3)
		disambiguation := ""
		if len(parts) == 3 {
			disambiguation = strings.TrimSpace(parts[2])
		}
		return s.ResolveByName(ctx, strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), disambiguation)
	}

	return s.ResolveByName(ctx, "", token, "")
}

func classifyHint(token string) ContextHints {
	switch {
	case commitHashRegex.MatchString(token):
		return ContextHints{CommitHash: token}
	case pullRequestRegex.MatchString(token):
		return ContextHints{PullRequest: token}
	}
	return ContextHints{IssueKey: token}
}

func keyPrefix(key string) string {
	if matches := keyPrefixRegex.FindStringSubmatch(key); matches != nil {
		prefix := strings.ToLower(matches[1])
		// pr/42 and pull/42 carry no project prefix
		if prefix == "pr" || prefix == "pull" {
			return ""
		}
		return matches[1]
	}
	return ""
}

func containedKeywords(s string, keywords []string) []string {
	lower := strings.ToLower(s)
	found := []string{}
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			found = append(found, k)
		}
	}
	return found
}

func containsAny(s string, parts []string) bool {
	lower := strings.ToLower(s)
	for _, p := range parts {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func filter(candidates []*api.Configuration, keep func(c *api.Configuration) bool) []*api.Configuration {
	filtered := []*api.Configuration{}
	for _, c := range candidates {
		if keep(c) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

package resolver

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"github.com/estafette/estafette-ci-teamcity/api"
)

const (
	nameWeight    = 0.7
	projectWeight = 0.3

	// candidates below this score aren't even worth suggesting
	suggestionThreshold = 0.4
)

var separatorRegex = regexp.MustCompile(`[\s\-_./:]+`)

// Match is a candidate configuration with its similarity score between 0 and 1
type Match struct {
	Configuration *api.Configuration
	Score         float64
}

func scoreCandidates(candidates []*api.Configuration, score func(c *api.Configuration) float64) []Match {

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{Configuration: c, Score: score(c)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Configuration.ID < matches[j].Configuration.ID
	})

	return matches
}

func nameScore(c *api.Configuration, projectName, buildTypeName string) float64 {

	name := max(similarity(buildTypeName, c.Name), similarity(buildTypeName, c.ID))
	if projectName == "" {
		return name
	}

	project := max(similarity(projectName, c.ProjectName), similarity(projectName, c.ProjectID))

	return nameWeight*name + projectWeight*project
}

func freeTextScore(c *api.Configuration, query string) float64 {
	return max(similarity(query, c.Name), similarity(query, c.ID), similarity(query, c.ProjectName+" "+c.Name))
}

// similarity combines exact equality, containment, token overlap and edit distance
func similarity(a, b string) float64 {

	a, b = normalize(a), normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	score := 0.0
	if strings.Contains(a, b) || strings.Contains(b, a) {
		shorter, longer := len(a), len(b)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		score = 0.8 + 0.2*float64(shorter)/float64(longer)
	}

	return max(score, tokenOverlap(a, b), levenshtein.Similarity(a, b, nil))
}

func normalize(s string) string {
	return strings.TrimSpace(separatorRegex.ReplaceAllString(strings.ToLower(s), " "))
}

// tokenOverlap is the jaccard index of the word sets
func tokenOverlap(a, b string) float64 {

	tokensA := map[string]bool{}
	for _, t := range strings.Fields(a) {
		tokensA[t] = true
	}
	tokensB := map[string]bool{}
	for _, t := range strings.Fields(b) {
		tokensB[t] = true
	}

	intersection := 0
	for t := range tokensA {
		if tokensB[t] {
			intersection++
		}
	}
	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

package parameter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/estafette/estafette-ci-teamcity/api"
)

const (
	// DefaultBranchRef is used when no branch, tag or pull request is requested
	DefaultBranchRef  = "refs/heads/main"
	defaultBranchName = "<default>"
)

var pullRequestRegex = regexp.MustCompile(`(?i)^(?:#|pr[/-]?|pull/|refs/pull/)(\d+)(?:/(head|merge))?$`)

// BranchRequest describes the branch a build should run on
type BranchRequest struct {
	Branch         string
	Tag            string
	PullRequest    int
	PreferMergeRef bool
	VcsRootID      string
	KnownBranches  []string
	ValidateExists bool
}

// ParseBranchReference turns shorthand like #42, pr/42, tag:v1.0 or refs/tags/v1.0 into a BranchRequest
func ParseBranchReference(reference string) (BranchRequest, error) {

	reference = strings.TrimSpace(reference)
	if reference == "" || reference == defaultBranchName {
		return BranchRequest{}, nil
	}

	if matches := pullRequestRegex.FindStringSubmatch(reference); matches != nil {
		number, err := strconv.Atoi(matches[1])
		if err != nil || number <= 0 {
			return BranchRequest{}, &api.ValidationError{Field: "branch", Value: reference, Message: "pull request number must be positive"}
		}
		return BranchRequest{PullRequest: number, PreferMergeRef: strings.EqualFold(matches[2], "merge")}, nil
	}

	if strings.HasPrefix(reference, "tag:") {
		return BranchRequest{Tag: strings.TrimPrefix(reference, "tag:")}, nil
	}
	if strings.HasPrefix(reference, "refs/tags/") {
		return BranchRequest{Tag: strings.TrimPrefix(reference, "refs/tags/")}, nil
	}

	return BranchRequest{Branch: reference}, nil
}

func (s *service) ResolveBranch(request BranchRequest) (string, error) {

	canonical, aliases, err := canonicalRef(request)
	if err != nil {
		return "", err
	}

	if request.VcsRootID == "" {
		return canonical, nil
	}

	// prefer a branch exactly as the vcs root knows it
	for _, known := range request.KnownBranches {
		for _, alias := range aliases {
			if known == alias {
				return known, nil
			}
		}
	}

	if request.ValidateExists {
		return "", &api.NotFoundError{
			Resource:    "branch",
			Identifier:  fmt.Sprintf("%v in vcs root %v", aliases[0], request.VcsRootID),
			Suggestions: similarBranches(aliases[0], request.KnownBranches),
		}
	}

	return canonical, nil
}

// canonicalRef returns the fully qualified ref and every name a vcs root might list it under, short name first
func canonicalRef(request BranchRequest) (string, []string, error) {

	set := 0
	if request.Branch != "" {
		set++
	}
	if request.Tag != "" {
		set++
	}
	if request.PullRequest != 0 {
		set++
	}
	if set > 1 {
		return "", nil, &api.ValidationError{Field: "branch", Value: request.Branch, Message: "only one of branch, tag or pull request can be set"}
	}
	if request.PullRequest < 0 {
		return "", nil, &api.ValidationError{Field: "pull request", Value: strconv.Itoa(request.PullRequest), Message: "pull request number must be positive"}
	}

	switch {
	case request.Tag != "":
		ref := "refs/tags/" + request.Tag
		return ref, []string{request.Tag, ref}, nil

	case request.PullRequest > 0:
		suffix := "head"
		if request.PreferMergeRef {
			suffix = "merge"
		}
		ref := fmt.Sprintf("refs/pull/%v/%v", request.PullRequest, suffix)
		return ref, []string{fmt.Sprintf("pull/%v", request.PullRequest), ref, strconv.Itoa(request.PullRequest)}, nil

	case request.Branch != "":
		if strings.HasPrefix(request.Branch, "refs/") {
			short := strings.TrimPrefix(request.Branch, "refs/heads/")
			return request.Branch, []string{short, request.Branch}, nil
		}
		ref := "refs/heads/" + request.Branch
		return ref, []string{request.Branch, ref}, nil
	}

	return DefaultBranchRef, []string{strings.TrimPrefix(DefaultBranchRef, "refs/heads/"), DefaultBranchRef, defaultBranchName}, nil
}

func similarBranches(name string, known []string) []string {
	suggestions := []string{}
	lower := strings.ToLower(name)
	for _, k := range known {
		lk := strings.ToLower(k)
		if strings.Contains(lk, lower) || strings.Contains(lower, strings.TrimPrefix(lk, "refs/heads/")) {
			suggestions = append(suggestions, k)
		}
		if len(suggestions) == 5 {
			break
		}
	}
	return suggestions
}

package envvar

import (
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	originRegex      = regexp.MustCompile(`^(git@|https://)([^:\/]+)(:|/)([^\/]+)/([^\/]+?)(\.git)?$`)
	pullBranchRegex  = regexp.MustCompile(`^(?:refs/)?pull/(\d+)(?:/(?:head|merge))?$`)
	issueKeyRegex    = regexp.MustCompile(`[A-Z][A-Z0-9]+-\d+`)
	revisionEnvvars  = []string{"BUILD_VCS_NUMBER", "GIT_COMMIT", "GITHUB_SHA", "CI_COMMIT_SHA"}
	branchEnvvars    = []string{"TEAMCITY_BUILD_BRANCH", "GIT_BRANCH", "BRANCH_NAME", "GITHUB_HEAD_REF", "CI_COMMIT_REF_NAME"}
	pullReqEnvvars   = []string{"CHANGE_ID", "PULL_REQUEST_NUMBER", "CI_MERGE_REQUEST_IID"}
	detachedBranches = map[string]bool{"HEAD": true, "": true}
)

// RepositoryContext is what is known about the checkout the command runs in
type RepositoryContext struct {
	Source      string
	Owner       string
	Name        string
	Revision    string
	Branch      string
	PullRequest string
	IssueKey    string
}

// Client is the interface for detecting the repository context from ci environment variables and the local git checkout
//
//go:generate mockgen -package=envvar -destination ./mock.go -source=client.go
type Client interface {
	GetCommandOutput(string, ...string) (string, error)
	GetGitOrigin() (string, error)
	GetGitRevision() string
	GetGitBranch() string
	GetPullRequest(branch string) string
	GetIssueKey(branch string) string
	GetSourceFromOrigin(string) string
	GetOwnerFromOrigin(string) string
	GetNameFromOrigin(string) string
	GetRepositoryContext() RepositoryContext
}

// NewClient returns a new envvar.Client
func NewClient() (Client, error) {
	return &client{}, nil
}

type client struct {
}

func (c *client) GetCommandOutput(name string, arg ...string) (string, error) {

	out, err := exec.Command(name, arg...).Output()
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(out)), nil
}

func (c *client) GetGitOrigin() (string, error) {
	return c.GetCommandOutput("git", "config", "--get", "remote.origin.url")
}

func (c *client) GetGitRevision() string {
	if revision := firstEnvvar(revisionEnvvars); revision != "" {
		return revision
	}

	revision, err := c.GetCommandOutput("git", "rev-parse", "HEAD")
	if err != nil {
		log.Debug().Err(err).Msg("Retrieving git revision failed")
		return ""
	}

	return revision
}

func (c *client) GetGitBranch() string {
	branch := firstEnvvar(branchEnvvars)
	if branch == "" {
		var err error
		branch, err = c.GetCommandOutput("git", "rev-parse", "--abbrev-ref", "HEAD")
		if err != nil {
			log.Debug().Err(err).Msg("Retrieving git branch failed")
			return ""
		}
	}

	if detachedBranches[branch] {
		return ""
	}

	return strings.TrimPrefix(strings.TrimPrefix(branch, "refs/heads/"), "origin/")
}

func (c *client) GetPullRequest(branch string) string {
	if pullRequest := firstEnvvar(pullReqEnvvars); pullRequest != "" {
		return pullRequest
	}

	if match := pullBranchRegex.FindStringSubmatch(branch); match != nil {
		return match[1]
	}

	return ""
}

func (c *client) GetIssueKey(branch string) string {
	return issueKeyRegex.FindString(branch)
}

func (c *client) GetSourceFromOrigin(origin string) string {
	return originPart(origin, 2)
}

func (c *client) GetOwnerFromOrigin(origin string) string {
	return originPart(origin, 4)
}

func (c *client) GetNameFromOrigin(origin string) string {
	return originPart(origin, 5)
}

func (c *client) GetRepositoryContext() RepositoryContext {

	repositoryContext := RepositoryContext{
		Revision: c.GetGitRevision(),
		Branch:   c.GetGitBranch(),
	}
	repositoryContext.PullRequest = c.GetPullRequest(repositoryContext.Branch)
	repositoryContext.IssueKey = c.GetIssueKey(repositoryContext.Branch)

	origin, err := c.GetGitOrigin()
	if err != nil {
		log.Debug().Err(err).Msg("Retrieving git origin failed")
	} else {
		repositoryContext.Source = c.GetSourceFromOrigin(origin)
		repositoryContext.Owner = c.GetOwnerFromOrigin(origin)
		repositoryContext.Name = c.GetNameFromOrigin(origin)
	}

	log.Debug().Interface("context", repositoryContext).Msg("Detected repository context")

	return repositoryContext
}

func firstEnvvar(names []string) string {
	for _, name := range names {
		if value := strings.TrimSpace(os.Getenv(name)); value != "" {
			return value
		}
	}
	return ""
}

func originPart(origin string, index int) string {

	match := originRegex.FindStringSubmatch(strings.TrimSpace(origin))
	if len(match) < 6 {
		return ""
	}

	return match[index]
}

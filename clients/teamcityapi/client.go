package teamcityapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/opentracing-contrib/go-stdlib/nethttp"
	"github.com/opentracing/opentracing-go"
	tracingLog "github.com/opentracing/opentracing-go/log"
	"github.com/rs/zerolog/log"
	"github.com/sethgrid/pester"
)

const buildTypeFields = "id,name,description,projectId,projectName,paused,templateFlag,href,webUrl,parameters(property(name,value)),settings(property(name,value)),vcs-root-entries(vcs-root-entry(id,vcs-root(id,name)))"

// Client is the narrow interface to the TeamCity rest api
//
//go:generate mockgen -package=teamcityapi -destination ./mock.go -source=client.go
type Client interface {
	GetBuildType(ctx context.Context, id string) (*BuildType, error)
	ListBuildTypes(ctx context.Context, locator string) ([]*BuildType, error)
	GetBuildQueue(ctx context.Context) ([]*Build, error)
	GetBuild(ctx context.Context, id string) (*Build, error)
	CountRunningBuilds(ctx context.Context, buildTypeID string) (int, error)
	CountAvailableAgents(ctx context.Context, buildTypeID string) (int, error)
	GetVcsRootBranches(ctx context.Context, vcsRootID string) ([]string, error)
	TriggerBuild(ctx context.Context, request TriggerBuildRequest) (*Build, error)
	ReorderQueue(ctx context.Context, buildIDs []string) error
	CancelQueuedBuild(ctx context.Context, buildID, comment string) error
	BaseURL() string
}

// NewClient returns a new teamcityapi.Client
func NewClient(baseURL, token string, timeout time.Duration) (Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("TeamCity server url is empty")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("TeamCity server url %v is invalid: %w", baseURL, err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		timeout: timeout,
	}, nil
}

type client struct {
	baseURL string
	token   string
	timeout time.Duration
}

func (c *client) BaseURL() string {
	return c.baseURL
}

func (c *client) GetBuildType(ctx context.Context, id string) (buildType *BuildType, err error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::GetBuildType")
	defer span.Finish()
	span.SetTag("build-type", id)

	query := url.Values{}
	query.Set("fields", buildTypeFields)

	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/app/rest/buildTypes/id:%v", url.PathEscape(id)), query, nil, &buildType)
	return
}

func (c *client) ListBuildTypes(ctx context.Context, locator string) (buildTypes []*BuildType, err error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::ListBuildTypes")
	defer span.Finish()

	query := url.Values{}
	query.Set("fields", fmt.Sprintf("count,buildType(%v)", buildTypeFields))
	if locator != "" {
		query.Set("locator", locator)
	}

	var response BuildTypes
	err = c.do(ctx, http.MethodGet, "/app/rest/buildTypes", query, nil, &response)
	if err != nil {
		return nil, err
	}
	if response.BuildType == nil {
		return []*BuildType{}, nil
	}

	return response.BuildType, nil
}

func (c *client) GetBuildQueue(ctx context.Context) (builds []*Build, err error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::GetBuildQueue")
	defer span.Finish()

	query := url.Values{}
	query.Set("fields", "count,build(id,buildTypeId,state,branchName,personal,waitReason,startEstimate,webUrl,snapshot-dependencies(build(id)))")

	var response Builds
	err = c.do(ctx, http.MethodGet, "/app/rest/buildQueue", query, nil, &response)
	if err != nil {
		return nil, err
	}
	if response.Build == nil {
		return []*Build{}, nil
	}

	return response.Build, nil
}

func (c *client) GetBuild(ctx context.Context, id string) (build *Build, err error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::GetBuild")
	defer span.Finish()
	span.SetTag("build", id)

	query := url.Values{}
	query.Set("fields", "id,buildTypeId,number,state,status,statusText,branchName,personal,waitReason,startEstimate,webUrl,triggered(type,user(username,name)),properties(property(name,value)),snapshot-dependencies(build(id)),running-info,artifacts(count,href),testOccurrences(count,passed,failed,ignored,muted),canceledInfo(text,user(username))")

	err = c.do(ctx, http.MethodGet, fmt.Sprintf("/app/rest/builds/id:%v", url.PathEscape(id)), query, nil, &build)
	return
}

func (c *client) CountRunningBuilds(ctx context.Context, buildTypeID string) (int, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::CountRunningBuilds")
	defer span.Finish()
	span.SetTag("build-type", buildTypeID)

	locator := NewLocator().With("running", "true").WithCount(10000)
	if buildTypeID != "" {
		locator = NewLocator().WithBuildType(buildTypeID).With("running", "true").WithCount(10000)
	}

	return c.count(ctx, "/app/rest/builds", locator)
}

func (c *client) CountAvailableAgents(ctx context.Context, buildTypeID string) (int, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::CountAvailableAgents")
	defer span.Finish()
	span.SetTag("build-type", buildTypeID)

	locator := NewLocator().With("connected", "true").With("authorized", "true").With("enabled", "true")
	if buildTypeID != "" {
		locator = locator.WithNested("compatible", NewLocator().WithBuildType(buildTypeID))
	}

	return c.count(ctx, "/app/rest/agents", locator)
}

func (c *client) GetVcsRootBranches(ctx context.Context, vcsRootID string) ([]string, error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::GetVcsRootBranches")
	defer span.Finish()
	span.SetTag("vcs-root", vcsRootID)

	var response Branches
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/app/rest/vcs-roots/id:%v/branches", url.PathEscape(vcsRootID)), nil, nil, &response)
	if err != nil {
		return nil, err
	}

	branches := make([]string, 0, len(response.Branch))
	for _, b := range response.Branch {
		if b.Unspecified {
			continue
		}
		branches = append(branches, b.Name)
	}

	return branches, nil
}

func (c *client) TriggerBuild(ctx context.Context, request TriggerBuildRequest) (build *Build, err error) {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::TriggerBuild")
	defer span.Finish()
	span.SetTag("build-type", request.BuildType.ID)

	err = c.do(ctx, http.MethodPost, "/app/rest/buildQueue", nil, request, &build)
	return
}

func (c *client) ReorderQueue(ctx context.Context, buildIDs []string) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::ReorderQueue")
	defer span.Finish()

	refs := BuildRefs{Build: make([]BuildRef, 0, len(buildIDs))}
	for _, id := range buildIDs {
		numericID, err := strconv.Atoi(id)
		if err != nil {
			return fmt.Errorf("Build id %v is not numeric: %w", id, err)
		}
		refs.Build = append(refs.Build, BuildRef{ID: numericID})
	}

	return c.do(ctx, http.MethodPut, "/app/rest/buildQueue/order", nil, refs, nil)
}

func (c *client) CancelQueuedBuild(ctx context.Context, buildID, comment string) error {

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCityApi::CancelQueuedBuild")
	defer span.Finish()
	span.SetTag("build", buildID)

	return c.do(ctx, http.MethodPost, fmt.Sprintf("/app/rest/buildQueue/id:%v", url.PathEscape(buildID)), nil, CancelRequest{Comment: comment}, nil)
}

func (c *client) count(ctx context.Context, path string, locator *Locator) (int, error) {

	locatorString, err := locator.Build()
	if err != nil {
		return 0, err
	}

	query := url.Values{}
	query.Set("locator", locatorString)
	query.Set("fields", "count")

	var response countResponse
	err = c.do(ctx, http.MethodGet, path, query, nil, &response)
	if err != nil {
		return 0, err
	}

	return response.Count, nil
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, requestBody interface{}, responseBody interface{}) (err error) {

	span := opentracing.SpanFromContext(ctx)

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var body io.Reader
	if requestBody != nil {
		data, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	// single attempt; retrying is up to the callers, since not every request is safe to repeat
	pesterClient := pester.NewExtendedClient(&http.Client{Transport: &nethttp.Transport{}})
	pesterClient.MaxRetries = 1
	pesterClient.Backoff = pester.DefaultBackoff
	pesterClient.KeepLog = true
	pesterClient.Timeout = c.timeout

	request, err := http.NewRequest(method, requestURL, body)
	if err != nil {
		return err
	}
	request = request.WithContext(ctx)

	var ht *nethttp.Tracer
	if span != nil {
		request, ht = nethttp.TraceRequest(span.Tracer(), request)
		defer ht.Finish()
	}

	if c.token != "" {
		request.Header.Add("Authorization", fmt.Sprintf("Bearer %v", c.token))
	}
	request.Header.Add("Accept", "application/json")
	if requestBody != nil {
		request.Header.Add("Content-Type", "application/json")
	}

	response, err := pesterClient.Do(request)
	if err != nil {
		if span != nil {
			span.SetTag("error", true)
			span.LogFields(tracingLog.String("error", err.Error()))
		}
		log.Debug().Err(err).Str("pesterLogs", pesterClient.LogString()).Msgf("Request %v %v failed", method, requestURL)
		return err
	}
	defer response.Body.Close()

	responseBytes, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &HTTPError{Method: method, URL: requestURL, StatusCode: response.StatusCode, Body: string(responseBytes)}
	}

	if responseBody == nil {
		return nil
	}
	if len(bytes.TrimSpace(responseBytes)) == 0 {
		return fmt.Errorf("%v %v responded with status %v: %w", method, requestURL, response.StatusCode, ErrEmptyResponse)
	}

	if err = json.Unmarshal(responseBytes, responseBody); err != nil {
		return fmt.Errorf("Failed unmarshalling response of %v %v: %w", method, requestURL, err)
	}

	return nil
}

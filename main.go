package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin"
	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/envvar"
	"github.com/estafette/estafette-ci-teamcity/clients/obfuscation"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/estafette/estafette-ci-teamcity/config"
	"github.com/estafette/estafette-ci-teamcity/services/evaluation"
	"github.com/estafette/estafette-ci-teamcity/services/parameter"
	"github.com/estafette/estafette-ci-teamcity/services/queue"
	"github.com/estafette/estafette-ci-teamcity/services/resolver"
	foundation "github.com/estafette/estafette-foundation"
	"github.com/opentracing/opentracing-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/uber/jaeger-client-go"
	jaegercfg "github.com/uber/jaeger-client-go/config"
	yaml "gopkg.in/yaml.v2"
)

var (
	app       string
	version   string
	branch    string
	revision  string
	buildDate string
)

const (
	exitCodeError       = 1
	exitCodeBuildFailed = 2
)

var (
	configPath = kingpin.Flag("config", "Path to the yaml config file.").Envar("TEAMCITY_CONFIG").String()
	serverURL  = kingpin.Flag("server-url", "Url of the TeamCity server, overrides the config file.").Envar("TEAMCITY_SERVER_URL").String()
	token      = kingpin.Flag("token", "Access token for the TeamCity server, overrides the config file.").Envar("TEAMCITY_TOKEN").String()
	logLevel   = kingpin.Flag("log-level", "Minimum level to log: debug, info, warn or error.").Default("info").Envar("LOG_LEVEL").String()

	resolveCommand = kingpin.Command("resolve", "Resolve an id, name, commit, pull request or issue key to a build configuration.")
	resolveToken   = resolveCommand.Arg("token", "Id, 'project::name', commit sha, pull request or issue key.").String()
	resolveFromGit = resolveCommand.Flag("from-git", "Use the branch, commit and pull request of the current checkout instead of a token.").Bool()
	resolveProject = resolveCommand.Flag("project", "Project hint used together with --from-git.").String()

	matchesCommand = kingpin.Command("matches", "List build configurations that look like the given text.")
	matchesText    = matchesCommand.Arg("text", "Text to search for.").Required().String()
	matchesLimit   = matchesCommand.Flag("limit", "Maximum number of matches.").Default("10").Int()

	queueCommand      = kingpin.Command("queue", "Queue a build for a build configuration.")
	queueToken        = queueCommand.Arg("token", "Id, 'project::name', commit sha, pull request or issue key.").String()
	queueFromGit      = queueCommand.Flag("from-git", "Use the branch, commit and pull request of the current checkout instead of a token.").Bool()
	queueProject      = queueCommand.Flag("project", "Project hint used together with --from-git.").String()
	queueParameters   = queueCommand.Flag("parameter", "Build parameter as name=value, can be repeated.").Short('P').Strings()
	queueParamsFile   = queueCommand.Flag("parameters-file", "Yaml file with build parameters; values given with -P must agree with it.").String()
	queueBranch       = queueCommand.Flag("branch", "Branch, tag:<name>, #<pull request> or <default>.").String()
	queueComment      = queueCommand.Flag("comment", "Comment to attach to the build.").String()
	queuePersonal     = queueCommand.Flag("personal", "Queue a personal build.").Bool()
	queueUser         = queueCommand.Flag("user", "User triggering the personal build.").Envar("TEAMCITY_USER").String()
	queueDependencies = queueCommand.Flag("dependency", "Id of a build this build depends on, can be repeated.").Strings()
	queueMoveToTop    = queueCommand.Flag("move-to-top", "Move the build to the top of the queue.").Bool()
	queueWait         = queueCommand.Flag("wait", "Wait for the build to finish.").Bool()
	queueInterval     = queueCommand.Flag("interval", "Polling interval while waiting.").Duration()
	queueTimeout      = queueCommand.Flag("timeout", "Maximum time to wait.").Duration()

	statusCommand = kingpin.Command("status", "Show the status of a build.")
	statusBuildID = statusCommand.Arg("id", "Build id.").Required().String()

	positionCommand = kingpin.Command("position", "Show the queue position of a build.")
	positionBuildID = positionCommand.Arg("id", "Build id.").Required().String()

	moveToTopCommand = kingpin.Command("move-to-top", "Move a queued build to the top of the queue.")
	moveToTopBuildID = moveToTopCommand.Arg("id", "Build id.").Required().String()

	cancelCommand = kingpin.Command("cancel", "Remove a build from the queue.")
	cancelBuildID = cancelCommand.Arg("id", "Build id.").Required().String()
	cancelComment = cancelCommand.Flag("comment", "Reason for canceling.").String()
)

func main() {

	// parse command line parameters
	kingpin.Version(version)
	command := kingpin.Parse()

	applicationInfo := foundation.ApplicationInfo{
		App:       app,
		Version:   version,
		Branch:    branch,
		Revision:  revision,
		BuildDate: buildDate,
	}

	initLogging(applicationInfo, *logLevel)

	closer := initJaeger(applicationInfo.App)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// cancel outstanding requests and monitors on ctrl-c
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Warn().Msg("Received signal, canceling...")
		cancel()
	}()

	span, ctx := opentracing.StartSpanFromContext(ctx, "TeamCity::"+command)
	exitCode := run(ctx, command)
	span.Finish()

	closer.Close()
	os.Exit(exitCode)
}

func run(ctx context.Context, command string) int {

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed reading configuration")
		return exitCodeError
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}
	if *token != "" {
		cfg.Server.Token = *token
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return exitCodeError
	}

	teamcityapiClient, err := teamcityapi.NewClient(cfg.Server.URL, cfg.Server.Token, cfg.Server.Timeout)
	if err != nil {
		log.Error().Err(err).Msg("Creating TeamCity api client failed")
		return exitCodeError
	}
	envvarClient, err := envvar.NewClient()
	if err != nil {
		log.Error().Err(err).Msg("Creating envvar client failed")
		return exitCodeError
	}
	obfuscationClient, err := obfuscation.NewClient()
	if err != nil {
		log.Error().Err(err).Msg("Creating obfuscation client failed")
		return exitCodeError
	}
	evaluationService, err := evaluation.NewService(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Creating evaluation service failed")
		return exitCodeError
	}
	parameterService, err := parameter.NewService(ctx, evaluationService)
	if err != nil {
		log.Error().Err(err).Msg("Creating parameter service failed")
		return exitCodeError
	}
	resolverService, err := resolver.NewService(ctx, teamcityapiClient, cfg.Resolver)
	if err != nil {
		log.Error().Err(err).Msg("Creating resolver service failed")
		return exitCodeError
	}
	queueService, err := queue.NewService(ctx, teamcityapiClient, parameterService, obfuscationClient, cfg.Queue)
	if err != nil {
		log.Error().Err(err).Msg("Creating queue service failed")
		return exitCodeError
	}
	defer queueService.StopAllMonitoring()

	queueService.Subscribe(queue.EventRetry, func(event queue.Event) {
		if retry, ok := event.Payload.(*queue.RetryEvent); ok {
			fmt.Fprintf(os.Stderr, "%v\n", colorize(api.BuildStateQueued, fmt.Sprintf("Retrying %v (%v/%v) in %v", retry.BuildTypeID, retry.Attempt, retry.MaxRetries, retry.Delay)))
		}
	})

	switch command {
	case resolveCommand.FullCommand():
		configuration, err := resolveConfiguration(ctx, resolverService, envvarClient, *resolveToken, *resolveFromGit, *resolveProject)
		if err != nil {
			return fail(err)
		}
		renderConfiguration(os.Stdout, configuration)

	case matchesCommand.FullCommand():
		matches, err := resolverService.FindFuzzyMatches(ctx, *matchesText, *matchesLimit)
		if err != nil {
			return fail(err)
		}
		renderMatches(os.Stdout, matches)

	case queueCommand.FullCommand():
		return runQueue(ctx, resolverService, parameterService, queueService, teamcityapiClient, envvarClient)

	case statusCommand.FullCommand():
		status, err := queueService.GetBuildStatus(ctx, *statusBuildID)
		if err != nil {
			return fail(err)
		}
		renderBuildStatus(os.Stdout, status)

	case positionCommand.FullCommand():
		position, err := queueService.GetQueuePosition(ctx, *positionBuildID)
		if err != nil {
			return fail(err)
		}
		renderQueuePosition(os.Stdout, position)

	case moveToTopCommand.FullCommand():
		if err := queueService.MoveToTop(ctx, *moveToTopBuildID); err != nil {
			return fail(err)
		}
		fmt.Fprintf(os.Stdout, "Build %v is at the top of the queue\n", *moveToTopBuildID)

	case cancelCommand.FullCommand():
		if err := queueService.CancelBuild(ctx, *cancelBuildID, *cancelComment); err != nil {
			return fail(err)
		}
		fmt.Fprintf(os.Stdout, "Build %v is canceled\n", *cancelBuildID)
	}

	return 0
}

func runQueue(ctx context.Context, resolverService resolver.Service, parameterService parameter.Service, queueService queue.Service, teamcityapiClient teamcityapi.Client, envvarClient envvar.Client) int {

	configuration, err := resolveConfiguration(ctx, resolverService, envvarClient, *queueToken, *queueFromGit, *queueProject)
	if err != nil {
		return fail(err)
	}

	args := make([]string, 0, len(*queueParameters))
	for _, p := range *queueParameters {
		args = append(args, "-P"+p)
	}
	commandLineParameters, err := parameterService.ParseCommandLine(args)
	if err != nil {
		return fail(err)
	}
	fileParameters, err := readParametersFile(parameterService, *queueParamsFile)
	if err != nil {
		return fail(err)
	}
	userParameters, err := parameterService.CombineParameters(fileParameters, commandLineParameters)
	if err != nil {
		return fail(err)
	}

	parameters, err := parameterService.ResolveReferences(parameterService.MergeParameters(userParameters, configuration.Parameters))
	if err != nil {
		return fail(err)
	}

	branchRef, err := resolveBranchRef(ctx, parameterService, teamcityapiClient, configuration, *queueBranch)
	if err != nil {
		return fail(err)
	}

	build, err := queueService.QueueBuild(ctx, configuration, parameters, queue.QueueOptions{
		Branch:       branchRef,
		Comment:      *queueComment,
		Personal:     *queuePersonal,
		User:         *queueUser,
		Dependencies: *queueDependencies,
		MoveToTop:    *queueMoveToTop,
	})
	if err != nil {
		return fail(err)
	}
	renderQueuedBuild(os.Stdout, build)

	if !*queueWait {
		return 0
	}

	exitCode := 0
	queueService.Subscribe(queue.EventBuildTimeout, func(event queue.Event) {
		fmt.Fprintf(os.Stderr, "%v\n", colorize(api.BuildStateFailed, fmt.Sprintf("Gave up waiting for build %v", event.BuildID)))
		exitCode = exitCodeBuildFailed
	})
	queueService.Subscribe(queue.EventBuildCanceled, func(event queue.Event) {
		exitCode = exitCodeBuildFailed
	})
	queueService.Subscribe(queue.EventBuildCompleted, func(event queue.Event) {
		if completed, ok := event.Payload.(*queue.BuildCompletedEvent); ok && completed.Status.State == api.BuildStateFailed {
			exitCode = exitCodeBuildFailed
		}
	})

	var lastState api.BuildState
	done, err := queueService.MonitorBuild(ctx, build.ID, queue.MonitorOptions{Interval: *queueInterval, Timeout: *queueTimeout}, func(status *queue.BuildStatus) {
		if status.State != lastState {
			lastState = status.State
			renderStatusLine(os.Stdout, status)
		}
	})
	if err != nil {
		return fail(err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return exitCodeError
	}

	return exitCode
}

// readParametersFile returns an empty set when no path is given
func readParametersFile(parameterService parameter.Service, path string) (*api.ParameterSet, error) {

	if path == "" {
		return api.NewParameterSet(), nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	if err := yaml.UnmarshalStrict(data, &values); err != nil {
		return nil, &api.ValidationError{Field: "parameters file", Value: path, Message: err.Error()}
	}

	return parameterService.ParseParameters(values)
}

func resolveConfiguration(ctx context.Context, resolverService resolver.Service, envvarClient envvar.Client, token string, fromGit bool, project string) (*api.Configuration, error) {

	if !fromGit {
		return resolverService.Resolve(ctx, token)
	}

	repositoryContext := envvarClient.GetRepositoryContext()
	log.Debug().Msgf("Resolving build configuration for repository %v/%v/%v", repositoryContext.Source, repositoryContext.Owner, repositoryContext.Name)

	return resolverService.ResolveFromContext(ctx, contextHints(repositoryContext, project))
}

func contextHints(repositoryContext envvar.RepositoryContext, project string) resolver.ContextHints {
	return resolver.ContextHints{
		CommitHash:      repositoryContext.Revision,
		PullRequest:     repositoryContext.PullRequest,
		IssueKey:        repositoryContext.IssueKey,
		Branch:          repositoryContext.Branch,
		ProjectHint:     project,
		Repository:      repositoryContext.Name,
		RepositoryOwner: repositoryContext.Owner,
	}
}

func resolveBranchRef(ctx context.Context, parameterService parameter.Service, teamcityapiClient teamcityapi.Client, configuration *api.Configuration, reference string) (string, error) {

	if reference == "" {
		return "", nil
	}

	request, err := parameter.ParseBranchReference(reference)
	if err != nil {
		return "", err
	}

	if len(configuration.VcsRootIDs) > 0 {
		request.VcsRootID = configuration.VcsRootIDs[0]
		request.KnownBranches, err = teamcityapiClient.GetVcsRootBranches(ctx, request.VcsRootID)
		if err != nil {
			log.Warn().Err(err).Msgf("Retrieving branches of vcs root %v failed, using branch naming conventions", request.VcsRootID)
		}
	}

	return parameterService.ResolveBranch(request)
}

func fail(err error) int {
	if errors.Is(err, context.Canceled) {
		return exitCodeError
	}
	log.Debug().Err(err).Msg("Command failed")
	fmt.Fprintf(os.Stderr, "%v\n", colorize(api.BuildStateFailed, api.Describe(err)))
	return exitCodeError
}

func initLogging(applicationInfo foundation.ApplicationInfo, level string) {

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		parsedLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsedLevel)

	log.Debug().
		Str("branch", applicationInfo.Branch).
		Str("revision", applicationInfo.Revision).
		Str("buildDate", applicationInfo.BuildDate).
		Str("goVersion", applicationInfo.GoVersion()).
		Str("os", applicationInfo.OperatingSystem()).
		Msgf("Starting %v version %v...", applicationInfo.App, applicationInfo.Version)
}

// initJaeger returns an instance of Jaeger Tracer that can be configured with environment variables
// https://github.com/jaegertracing/jaeger-client-go#environment-variables
func initJaeger(service string) io.Closer {

	cfg, err := jaegercfg.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Generating Jaeger config from environment variables failed")
	}

	// disable jaeger if service name is empty
	if cfg.ServiceName == "" {
		cfg.Disabled = true
	}

	closer, err := cfg.InitGlobalTracer(service, jaegercfg.Logger(jaeger.StdLogger))
	if err != nil {
		log.Fatal().Err(err).Msg("Generating Jaeger tracer failed")
	}

	return closer
}

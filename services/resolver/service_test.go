package resolver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/teamcityapi"
	"github.com/estafette/estafette-ci-teamcity/config"
	gomock "github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
)

func getServiceAndMocks(t *testing.T, ctrl *gomock.Controller) (Service, *teamcityapi.MockClient) {
	teamcityapiClient := teamcityapi.NewMockClient(ctrl)
	teamcityapiClient.EXPECT().BaseURL().Return("https://teamcity.example.com").AnyTimes()

	service, err := NewService(context.Background(), teamcityapiClient, config.ResolverConfig{})
	assert.Nil(t, err)

	return service, teamcityapiClient
}

func buildType(id, name, projectName string) *teamcityapi.BuildType {
	return &teamcityapi.BuildType{
		ID:          id,
		Name:        name,
		ProjectID:   projectName,
		ProjectName: projectName,
	}
}

func TestResolveByID(t *testing.T) {

	t.Run("ReturnsConfigurationAndServesSecondCallFromCache", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		bt := buildType("Proj_Build1", "Build", "Proj")
		bt.Parameters = &teamcityapi.Properties{Property: []teamcityapi.Property{{Name: "env.A", Value: "1"}}}
		bt.Settings = &teamcityapi.Properties{Property: []teamcityapi.Property{{Name: SettingAllowPersonalBuilds, Value: "false"}}}
		bt.VcsRootEntries = &teamcityapi.VcsRootEntries{VcsRootEntry: []teamcityapi.VcsRootEntry{{ID: "Root1"}}}

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(bt, nil).Times(1)

		// act
		first, err := service.ResolveByID(context.Background(), "Proj_Build1")
		second, err2 := service.ResolveByID(context.Background(), "Proj_Build1")

		assert.Nil(t, err)
		assert.Nil(t, err2)
		assert.Equal(t, first, second)
		assert.Equal(t, "1", first.Parameters["env.A"])
		assert.False(t, first.AllowPersonalBuilds)
		assert.Equal(t, []string{"Root1"}, first.VcsRootIDs)
	})

	t.Run("ReturnsCopiesThatDontAlterTheCache", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(buildType("Proj_Build1", "Build", "Proj"), nil).Times(1)

		first, _ := service.ResolveByID(context.Background(), "Proj_Build1")
		first.Name = "Changed"

		// act
		second, err := service.ResolveByID(context.Background(), "Proj_Build1")

		assert.Nil(t, err)
		assert.Equal(t, "Build", second.Name)
	})

	t.Run("ReturnsNotFoundErrorFor404", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Unknown_Build").Return(nil, &teamcityapi.HTTPError{StatusCode: http.StatusNotFound})

		// act
		_, err := service.ResolveByID(context.Background(), "Unknown_Build")

		var notFoundErr *api.NotFoundError
		if assert.True(t, errors.As(err, &notFoundErr)) {
			assert.Equal(t, "Unknown_Build", notFoundErr.Identifier)
		}
	})

	t.Run("ReturnsPermissionErrorFor403", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Secret_Build").Return(nil, &teamcityapi.HTTPError{StatusCode: http.StatusForbidden})

		// act
		_, err := service.ResolveByID(context.Background(), "Secret_Build")

		var permissionErr *api.PermissionError
		assert.True(t, errors.As(err, &permissionErr))
	})

	t.Run("ReturnsConnectionErrorWhenServerIsUnreachable", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(nil, errors.New("dial tcp 127.0.0.1:8111: connect: connection refused"))

		// act
		_, err := service.ResolveByID(context.Background(), "Proj_Build1")

		var connectionErr *api.ConnectionError
		if assert.True(t, errors.As(err, &connectionErr)) {
			assert.Equal(t, "https://teamcity.example.com", connectionErr.Endpoint)
		}
		assert.Contains(t, err.Error(), "Proj_Build1")
	})

	t.Run("ReturnsValidationErrorForEmptyID", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, _ := getServiceAndMocks(t, ctrl)

		// act
		_, err := service.ResolveByID(context.Background(), " ")

		var validationErr *api.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("ReturnsEmptyResponseErrorWhenServerReturnsNoBuildType", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(nil, nil)

		// act
		configuration, err := service.ResolveByID(context.Background(), "Proj_Build1")

		assert.Nil(t, configuration)
		assert.True(t, errors.Is(err, teamcityapi.ErrEmptyResponse))
	})
}

func TestResolveByName(t *testing.T) {

	t.Run("PrefersExactProjectAndNameMatch", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Proj_BuildDeploy", "Build Deploy", "Proj"),
			buildType("Proj_Build", "Build", "Proj"),
			buildType("Other_Test", "Test", "Other"),
		}, nil).Times(1)

		// act
		configuration, err := service.ResolveByName(context.Background(), "Proj", "Build", "")
		cached, err2 := service.ResolveByName(context.Background(), "Proj", "Build", "")

		assert.Nil(t, err)
		assert.Nil(t, err2)
		assert.Equal(t, "Proj_Build", configuration.ID)
		assert.Equal(t, configuration, cached)
	})

	t.Run("ReturnsAmbiguousErrorWithAllCandidates", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Mobile_DeployIos", "Deploy iOS", "Mobile"),
			buildType("Mobile_DeployAndroid", "Deploy Android", "Mobile"),
		}, nil)

		// act
		_, err := service.ResolveByName(context.Background(), "Mobile", "Deploy", "")

		var ambiguousErr *api.AmbiguousError
		if assert.True(t, errors.As(err, &ambiguousErr)) {
			assert.Equal(t, []string{"Mobile_DeployAndroid", "Mobile_DeployIos"}, ambiguousErr.Candidates)
		}
	})

	t.Run("UsesContextToDisambiguate", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Mobile_DeployIos", "Deploy iOS", "Mobile"),
			buildType("Mobile_DeployAndroid", "Deploy Android", "Mobile"),
		}, nil)

		// act
		configuration, err := service.ResolveByName(context.Background(), "Mobile", "Deploy", "android")

		assert.Nil(t, err)
		assert.Equal(t, "Mobile_DeployAndroid", configuration.ID)
	})

	t.Run("ReturnsNotFoundErrorWhenNothingScoresAboveThreshold", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Proj_Build", "Build", "Proj"),
		}, nil)

		// act
		_, err := service.ResolveByName(context.Background(), "", "Nightly Integration Tests", "")

		var notFoundErr *api.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
	})

	t.Run("ToleratesTyposInName", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Proj_Release", "Release", "Proj"),
			buildType("Proj_Test", "Test", "Proj"),
		}, nil)

		// act
		configuration, err := service.ResolveByName(context.Background(), "Proj", "Relaese", "")

		assert.Nil(t, err)
		assert.Equal(t, "Proj_Release", configuration.ID)
	})
}

func TestResolveFromContext(t *testing.T) {

	candidates := func() []*teamcityapi.BuildType {
		template := buildType("Mobile_Template", "Default Template", "Mobile")
		template.TemplateFlag = true
		return []*teamcityapi.BuildType{
			template,
			buildType("Mobile_IosNightly", "iOS Nightly", "Mobile"),
			buildType("Mobile_AndroidNightly", "Android Nightly", "Mobile"),
			buildType("Mobile_Tests", "Tests", "Mobile"),
			buildType("Mobile_DefaultBuild", "Default Build", "Mobile"),
			buildType("Web_Pipeline", "Pipeline", "Web"),
			buildType("Shop_Checkout", "SHOP Checkout", "Shop"),
		}
	}

	t.Run("FiltersByPlatformKeywordInBranch", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return(candidates(), nil)

		// act
		configuration, err := service.ResolveFromContext(context.Background(), ContextHints{Branch: "feature/android-login"})

		assert.Nil(t, err)
		assert.Equal(t, "Mobile_AndroidNightly", configuration.ID)
	})

	t.Run("PrefersDefaultNameAndSkipsTemplates", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return(candidates(), nil)

		// act
		configuration, err := service.ResolveFromContext(context.Background(), ContextHints{ProjectHint: "mobile"})

		assert.Nil(t, err)
		assert.Equal(t, "Mobile_DefaultBuild", configuration.ID)
	})

	t.Run("MatchesIssueKeyPrefix", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return(candidates(), nil)

		// act
		configuration, err := service.ResolveFromContext(context.Background(), ContextHints{IssueKey: "SHOP-123"})

		assert.Nil(t, err)
		assert.Equal(t, "Shop_Checkout", configuration.ID)
	})

	t.Run("NarrowsByRepositoryName", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return(candidates(), nil)

		// act
		configuration, err := service.ResolveFromContext(context.Background(), ContextHints{Branch: "main", Repository: "web", RepositoryOwner: "acme"})

		assert.Nil(t, err)
		assert.Equal(t, "Web_Pipeline", configuration.ID)
	})

	t.Run("IgnoresRepositoryThatMatchesNoCandidate", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return(candidates(), nil)

		// act
		configuration, err := service.ResolveFromContext(context.Background(), ContextHints{Branch: "feature/android-login", Repository: "unrelated-repository"})

		assert.Nil(t, err)
		assert.Equal(t, "Mobile_AndroidNightly", configuration.ID)
	})

	t.Run("ReturnsNotFoundErrorWhenFiltersLeaveNothing", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return(candidates(), nil)

		// act
		_, err := service.ResolveFromContext(context.Background(), ContextHints{ProjectHint: "billing"})

		var notFoundErr *api.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
	})

	t.Run("ReturnsValidationErrorWithoutHints", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, _ := getServiceAndMocks(t, ctrl)

		// act
		_, err := service.ResolveFromContext(context.Background(), ContextHints{})

		var validationErr *api.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})
}

func TestResolve(t *testing.T) {

	t.Run("ResolvesIDLikeTokenByID", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(buildType("Proj_Build1", "Build", "Proj"), nil)

		// act
		configuration, err := service.Resolve(context.Background(), "Proj_Build1")

		assert.Nil(t, err)
		assert.Equal(t, "Proj_Build1", configuration.ID)
	})

	t.Run("FallsBackToNameWhenIDIsNotFound", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Build_Deploy").Return(nil, &teamcityapi.HTTPError{StatusCode: http.StatusNotFound})
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{buildType("Proj_BuildDeploy", "Build Deploy", "Proj")}, nil)

		// act
		configuration, err := service.Resolve(context.Background(), "Build_Deploy")

		assert.Nil(t, err)
		assert.Equal(t, "Proj_BuildDeploy", configuration.ID)
	})

	t.Run("SplitsProjectAndBuildTypeOnSeparator", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Proj_Build", "Build", "Proj"),
			buildType("Other_Build", "Build", "Other"),
		}, nil)

		// act
		configuration, err := service.Resolve(context.Background(), "Other :: Build")

		assert.Nil(t, err)
		assert.Equal(t, "Other_Build", configuration.ID)
	})

	t.Run("FallsBackToNameWhenContextResolutionFails", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{buildType("Proj_Build", "Build", "Proj")}, nil).Times(2)

		// act
		_, err := service.Resolve(context.Background(), "OPS-42")

		var notFoundErr *api.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
	})
}

func TestResolveBatch(t *testing.T) {

	t.Run("CollectsFailuresWhenPartialIsAllowed", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(buildType("Proj_Build1", "Build", "Proj"), nil)
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Missing").Return(nil, &teamcityapi.HTTPError{StatusCode: http.StatusNotFound})

		// act
		result, err := service.ResolveBatch(context.Background(), []Request{{ID: "Proj_Build1"}, {ID: "Proj_Missing"}, {}}, true)

		assert.Nil(t, err)
		assert.Equal(t, "Proj_Build1", result.Configurations[0].ID)
		assert.Nil(t, result.Configurations[1])
		assert.Equal(t, 2, len(result.Failures))
		assert.Equal(t, 1, result.Failures[0].Index)
		assert.Equal(t, 2, result.Failures[1].Index)
	})

	t.Run("ReturnsErrorWhenPartialIsNotAllowed", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Missing").Return(nil, &teamcityapi.HTTPError{StatusCode: http.StatusNotFound})

		// act
		_, err := service.ResolveBatch(context.Background(), []Request{{ID: "Proj_Missing"}}, false)

		var notFoundErr *api.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
	})
}

func TestFindFuzzyMatches(t *testing.T) {

	t.Run("ReturnsRankedMatchesUpToLimit", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().ListBuildTypes(gomock.Any(), "").Return([]*teamcityapi.BuildType{
			buildType("Proj_DeployStaging", "Deploy Staging", "Proj"),
			buildType("Proj_Deploy", "Deploy", "Proj"),
			buildType("Proj_DeployProduction", "Deploy Production", "Proj"),
			buildType("Proj_Lint", "Lint", "Proj"),
		}, nil)

		// act
		matches, err := service.FindFuzzyMatches(context.Background(), "deploy", 2)

		assert.Nil(t, err)
		assert.Equal(t, 2, len(matches))
		assert.Equal(t, "Proj_Deploy", matches[0].Configuration.ID)
		assert.Equal(t, 1.0, matches[0].Score)
		assert.Equal(t, "Proj_DeployStaging", matches[1].Configuration.ID)
	})
}

func TestInvalidate(t *testing.T) {

	t.Run("ForcesNextResolutionToFetchAgain", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(buildType("Proj_Build1", "Build", "Proj"), nil).Times(2)

		service.ResolveByID(context.Background(), "Proj_Build1")

		// act
		service.Invalidate("Proj_Build1")
		_, err := service.ResolveByID(context.Background(), "Proj_Build1")

		assert.Nil(t, err)
	})

	t.Run("ClearCacheForcesNextResolutionToFetchAgain", func(t *testing.T) {

		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		service, teamcityapiClient := getServiceAndMocks(t, ctrl)

		// set mock responses
		teamcityapiClient.EXPECT().GetBuildType(gomock.Any(), "Proj_Build1").Return(buildType("Proj_Build1", "Build", "Proj"), nil).Times(2)

		service.ResolveByID(context.Background(), "Proj_Build1")

		// act
		service.ClearCache()
		_, err := service.ResolveByID(context.Background(), "Proj_Build1")

		assert.Nil(t, err)
	})
}

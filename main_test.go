package main

import (
	"context"
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/clients/envvar"
	"github.com/estafette/estafette-ci-teamcity/services/evaluation"
	"github.com/estafette/estafette-ci-teamcity/services/parameter"
	"github.com/stretchr/testify/assert"
)

func getParameterService(t *testing.T) parameter.Service {
	evaluationService, err := evaluation.NewService(context.Background())
	assert.Nil(t, err)
	parameterService, err := parameter.NewService(context.Background(), evaluationService)
	assert.Nil(t, err)
	return parameterService
}

func writeParametersFile(t *testing.T, content string) string {
	dir, err := ioutil.TempDir("", "parameters")
	assert.Nil(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	path := filepath.Join(dir, "parameters.yaml")
	assert.Nil(t, ioutil.WriteFile(path, []byte(content), 0644))
	return path
}

func TestContextHints(t *testing.T) {

	t.Run("PassesRepositoryNameAndOwner", func(t *testing.T) {

		repositoryContext := envvar.RepositoryContext{
			Source:      "github.com",
			Owner:       "acme",
			Name:        "shop",
			Revision:    "0a1b2c3d",
			Branch:      "feature/SHOP-12-checkout",
			PullRequest: "7",
			IssueKey:    "SHOP-12",
		}

		// act
		hints := contextHints(repositoryContext, "")

		assert.Equal(t, "shop", hints.Repository)
		assert.Equal(t, "acme", hints.RepositoryOwner)
		assert.Equal(t, "0a1b2c3d", hints.CommitHash)
		assert.Equal(t, "feature/SHOP-12-checkout", hints.Branch)
		assert.Equal(t, "7", hints.PullRequest)
		assert.Equal(t, "SHOP-12", hints.IssueKey)
		assert.Equal(t, "", hints.ProjectHint)
	})

	t.Run("KeepsExplicitProject", func(t *testing.T) {

		// act
		hints := contextHints(envvar.RepositoryContext{Name: "shop"}, "Billing")

		assert.Equal(t, "Billing", hints.ProjectHint)
		assert.Equal(t, "shop", hints.Repository)
	})
}

func TestReadParametersFile(t *testing.T) {

	t.Run("ReturnsEmptySetWithoutPath", func(t *testing.T) {

		// act
		set, err := readParametersFile(getParameterService(t), "")

		assert.Nil(t, err)
		assert.Equal(t, 0, set.Len())
	})

	t.Run("ParsesYamlMapping", func(t *testing.T) {

		path := writeParametersFile(t, "env.REGION: eu-west-1\nreplicas: 3\n")

		// act
		set, err := readParametersFile(getParameterService(t), path)

		assert.Nil(t, err)
		assert.Equal(t, "eu-west-1", set.Value("env.REGION"))
		assert.Equal(t, "3", set.Value("replicas"))
	})

	t.Run("ReturnsValidationErrorForMalformedFile", func(t *testing.T) {

		path := writeParametersFile(t, "- not\n- a mapping\n")

		// act
		_, err := readParametersFile(getParameterService(t), path)

		var validationErr *api.ValidationError
		assert.True(t, errors.As(err, &validationErr))
	})

	t.Run("ConflictsWithDisagreeingCommandLineValues", func(t *testing.T) {

		parameterService := getParameterService(t)
		path := writeParametersFile(t, "env.REGION: eu-west-1\n")
		fileParameters, err := readParametersFile(parameterService, path)
		assert.Nil(t, err)
		commandLineParameters, err := parameterService.ParseCommandLine([]string{"-Penv.REGION=us-east-1"})
		assert.Nil(t, err)

		// act
		_, err = parameterService.CombineParameters(fileParameters, commandLineParameters)

		var conflictErr *api.ParameterConflictError
		if assert.True(t, errors.As(err, &conflictErr)) {
			assert.Equal(t, []string{"eu-west-1", "us-east-1"}, conflictErr.Conflicts[0].Values)
		}
	})
}

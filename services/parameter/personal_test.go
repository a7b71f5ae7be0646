package parameter

import (
	"errors"
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/stretchr/testify/assert"
)

func TestConfigurePersonalBuild(t *testing.T) {

	t.Run("ReturnsValidationErrorIfConfigurationDisallowsPersonalBuilds", func(t *testing.T) {

		service := newTestService(t)
		set := newSet("a", "1")

		// act
		err := service.ConfigurePersonalBuild(set, &api.Configuration{ID: "Proj_Build"}, PersonalBuildOptions{User: "jane"})

		var validationErr *api.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.False(t, set.Has(ParameterPersonalBuild))
	})

	t.Run("InjectsMarkersAndKeepsExistingMetadata", func(t *testing.T) {

		service := newTestService(t)
		set := newSet("a", "1")
		set.Metadata["description"] = "existing"
		set.Metadata["origin"] = "cli"

		// act
		err := service.ConfigurePersonalBuild(set, &api.Configuration{ID: "Proj_Build", AllowPersonalBuilds: true}, PersonalBuildOptions{
			User:        "jane",
			Description: "try fix",
			Patches:     []Patch{{Path: "main.go", Content: "diff"}},
		})

		assert.Nil(t, err)
		assert.Equal(t, "true", set.Value(ParameterPersonalBuild))
		assert.Equal(t, "jane", set.Value(ParameterTriggeredBy))
		assert.Equal(t, "existing", set.Metadata["description"])
		assert.Equal(t, "cli", set.Metadata["origin"])
		assert.Equal(t, []Patch{{Path: "main.go", Content: "diff"}}, set.Metadata["patches"])
		assert.True(t, IsPersonal(set))
	})
}

package parameter

import (
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/stretchr/testify/assert"
)

func TestSerialization(t *testing.T) {

	t.Run("ToPropertiesKeepsOrder", func(t *testing.T) {

		service := newTestService(t)

		// act
		properties := service.ToProperties(newSet("b", "2", "a", "1"))

		assert.Equal(t, []api.Property{{Name: "b", Value: "2"}, {Name: "a", Value: "1"}}, properties)
	})

	t.Run("ToCommandLineRoundTripsThroughParseCommandLine", func(t *testing.T) {

		service := newTestService(t)
		set := newSet("env.OPTS", "-Da=b", "version", "1.0")

		// act
		args := service.ToCommandLine(set)

		assert.Equal(t, []string{"-Penv.OPTS=-Da=b", "-Pversion=1.0"}, args)
		parsed, err := service.ParseCommandLine(args)
		assert.Nil(t, err)
		assert.Equal(t, service.ToObject(set), service.ToObject(parsed))
	})

	t.Run("ToEnvironmentUppercasesDottedSegments", func(t *testing.T) {

		service := newTestService(t)

		// act
		environment := service.ToEnvironment(newSet("env.home", "/root", "system.path", "/bin"))

		assert.Equal(t, map[string]string{"ENV_HOME": "/root", "SYSTEM_PATH": "/bin"}, environment)
	})
}

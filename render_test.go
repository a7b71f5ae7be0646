package main

import (
	"bytes"
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/estafette/estafette-ci-teamcity/services/queue"
	"github.com/estafette/estafette-ci-teamcity/services/resolver"
	"github.com/stretchr/testify/assert"
)

func TestRenderMatches(t *testing.T) {

	t.Run("PrintsMessageWhenThereAreNoMatches", func(t *testing.T) {

		var buffer bytes.Buffer

		// act
		renderMatches(&buffer, []resolver.Match{})

		assert.Equal(t, "No matching build configurations\n", buffer.String())
	})

	t.Run("PrintsIdNameAndScorePerMatch", func(t *testing.T) {

		var buffer bytes.Buffer

		// act
		renderMatches(&buffer, []resolver.Match{{Configuration: &api.Configuration{ID: "Proj_Build1", Name: "Build", ProjectName: "Proj"}, Score: 0.875}})

		assert.Contains(t, buffer.String(), "Proj_Build1")
		assert.Contains(t, buffer.String(), "Proj :: Build")
		assert.Contains(t, buffer.String(), "0.88")
	})
}

func TestRenderQueuePosition(t *testing.T) {

	t.Run("PrintsNotQueuedForPositionZero", func(t *testing.T) {

		var buffer bytes.Buffer

		// act
		renderQueuePosition(&buffer, &queue.QueuePosition{BuildID: "42", Position: 0, State: api.BuildStateRunning})

		assert.Contains(t, buffer.String(), "not queued")
	})

	t.Run("PrintsBlockingBuilds", func(t *testing.T) {

		var buffer bytes.Buffer

		// act
		renderQueuePosition(&buffer, &queue.QueuePosition{BuildID: "42", Position: 3, State: api.BuildStateQueued, BlockedBy: []string{"7", "8"}})

		assert.Contains(t, buffer.String(), "7, 8")
	})
}

package teamcityapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/estafette/estafette-ci-teamcity/api"
	"github.com/stretchr/testify/assert"
)

func TestClassifyError(t *testing.T) {

	t.Run("ReturnsNilForNilError", func(t *testing.T) {

		assert.Nil(t, ClassifyError(nil, "http://tc", "build configuration", "Proj_Build1"))
	})

	t.Run("ReturnsNotFoundErrorFor404", func(t *testing.T) {

		// act
		err := ClassifyError(&HTTPError{StatusCode: 404}, "http://tc", "build configuration", "Proj_Build1")

		var notFoundErr *api.NotFoundError
		assert.True(t, errors.As(err, &notFoundErr))
		assert.Equal(t, "Proj_Build1", notFoundErr.Identifier)
	})

	t.Run("ReturnsPermissionErrorFor401And403", func(t *testing.T) {

		var permissionErr *api.PermissionError
		assert.True(t, errors.As(ClassifyError(&HTTPError{StatusCode: 401}, "http://tc", "build configuration", "a"), &permissionErr))
		assert.True(t, errors.As(ClassifyError(&HTTPError{StatusCode: 403}, "http://tc", "build configuration", "a"), &permissionErr))
	})

	t.Run("ReturnsRemoteAPIErrorForOtherStatusCodes", func(t *testing.T) {

		// act
		err := ClassifyError(&HTTPError{StatusCode: 500, Body: " internal error \n"}, "http://tc", "build configuration", "a")

		var remoteErr *api.RemoteAPIError
		assert.True(t, errors.As(err, &remoteErr))
		assert.Equal(t, 500, remoteErr.StatusCode)
		assert.Equal(t, "internal error", remoteErr.Message)
	})

	t.Run("RewritesConnectionRefusedToConnectionError", func(t *testing.T) {

		rawErr := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

		// act
		err := ClassifyError(fmt.Errorf("Get http://tc: %w", rawErr), "http://tc", "build configuration", "a")

		var connectionErr *api.ConnectionError
		assert.True(t, errors.As(err, &connectionErr))
		assert.Equal(t, "http://tc", connectionErr.Endpoint)
		assert.Contains(t, err.Error(), "Failed to connect")
	})

	t.Run("ReturnsUnclassifiedErrorsUnchanged", func(t *testing.T) {

		rawErr := errors.New("something odd")

		// act
		err := ClassifyError(rawErr, "http://tc", "build configuration", "a")

		assert.Equal(t, rawErr, err)
	})
}

func TestIsRetryable(t *testing.T) {

	t.Run("ReturnsFalseFor4xx", func(t *testing.T) {

		assert.False(t, IsRetryable(&HTTPError{StatusCode: 400}))
		assert.False(t, IsRetryable(fmt.Errorf("wrapped: %w", &HTTPError{StatusCode: 404})))
	})

	t.Run("ReturnsTrueFor5xx", func(t *testing.T) {

		assert.True(t, IsRetryable(&HTTPError{StatusCode: 503}))
	})

	t.Run("ReturnsTrueForNetworkAndUnclassifiedErrors", func(t *testing.T) {

		assert.True(t, IsRetryable(&net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}))
		assert.True(t, IsRetryable(errors.New("unexpected EOF")))
	})

	t.Run("ReturnsFalseForCancellationAndCallerMistakes", func(t *testing.T) {

		assert.False(t, IsRetryable(context.Canceled))
		assert.False(t, IsRetryable(&api.ValidationError{Message: "bad"}))
		assert.False(t, IsRetryable(nil))
	})
}

package teamcityapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/estafette/estafette-ci-teamcity/api"
)

// ErrEmptyResponse is returned when a successful response carries no body where one was expected
var ErrEmptyResponse = errors.New("empty response body")

// HTTPError is returned for any non-2xx response
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%v %v responded with status %v: %v", e.Method, e.URL, e.StatusCode, e.Body)
}

// Message returns the response body without surrounding whitespace, or the status text if empty
func (e *HTTPError) Message() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return http.StatusText(e.StatusCode)
	}
	return body
}

// StatusCode returns the status code of an HTTPError anywhere in the chain, or 0
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}
	return 0
}

// IsRetryable returns false for 4xx responses, caller mistakes and cancellation; 5xx, network and unclassified errors can be retried
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	statusCode := StatusCode(err)
	if statusCode >= 400 && statusCode < 500 {
		return false
	}

	var validation *api.ValidationError
	var required *api.RequiredParameterError
	var circular *api.CircularReferenceError
	var limit *api.LimitError
	if errors.As(err, &validation) || errors.As(err, &required) || errors.As(err, &circular) || errors.As(err, &limit) {
		return false
	}

	return true
}

// ClassifyError maps transport errors onto the api error taxonomy
func ClassifyError(err error, endpoint, resource, identifier string) error {
	if err == nil {
		return nil
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusNotFound:
			return &api.NotFoundError{Resource: resource, Identifier: identifier}
		case http.StatusUnauthorized, http.StatusForbidden:
			return &api.PermissionError{Resource: resource, Identifier: identifier, StatusCode: httpErr.StatusCode}
		}
		return &api.RemoteAPIError{StatusCode: httpErr.StatusCode, Message: httpErr.Message()}
	}

	if isConnectionError(err) {
		return &api.ConnectionError{Endpoint: endpoint, Err: err}
	}

	return err
}

func isConnectionError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EHOSTUNREACH) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	return strings.Contains(strings.ToLower(err.Error()), "connection refused")
}

package api

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// NotFoundError is returned when a resource doesn't exist or no candidate matched
type NotFoundError struct {
	Resource    string
	Identifier  string
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%v %v not found", e.Resource, e.Identifier)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(", did you mean one of: %v", strings.Join(e.Suggestions, ", "))
	}
	return msg
}

// PermissionError is returned for 401 and 403 responses
type PermissionError struct {
	Resource   string
	Identifier string
	StatusCode int
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("Access to %v %v denied (status %v)", e.Resource, e.Identifier, e.StatusCode)
}

// AmbiguousError is returned when more than one candidate matches equally well
type AmbiguousError struct {
	Query      string
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%v matches multiple build configurations: %v", e.Query, strings.Join(e.Candidates, ", "))
}

// ValidationError is returned for malformed input
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("Invalid %v '%v': %v", e.Field, e.Value, e.Message)
}

// RequiredParameterError carries every missing parameter name
type RequiredParameterError struct {
	Missing []string
}

func (e *RequiredParameterError) Error() string {
	return fmt.Sprintf("Missing required parameters: %v", strings.Join(e.Missing, ", "))
}

// ParameterConflict is a parameter that has different values in two sets
type ParameterConflict struct {
	Name   string
	Values []string
}

// ParameterConflictError carries every conflicting name with its competing values
type ParameterConflictError struct {
	Conflicts []ParameterConflict
}

func (e *ParameterConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%v (%v)", c.Name, strings.Join(c.Values, " vs ")))
	}
	return fmt.Sprintf("Conflicting parameter values: %v", strings.Join(parts, ", "))
}

// CircularReferenceError is returned when %name% references form a cycle
type CircularReferenceError struct {
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("Circular parameter reference: %v", strings.Join(e.Chain, " -> "))
}

// ConnectionError wraps network level failures
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("Failed to connect to TeamCity server at %v: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// RemoteAPIError is any other non-2xx response
type RemoteAPIError struct {
	StatusCode int
	Message    string
}

func (e *RemoteAPIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("TeamCity API error (status %v)", e.StatusCode)
	}
	return fmt.Sprintf("TeamCity API error (status %v): %v", e.StatusCode, e.Message)
}

// LimitError is returned when a build configuration already runs its maximum number of builds
type LimitError struct {
	BuildTypeID         string
	MaxConcurrentBuilds int
	RunningBuilds       int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("Maximum concurrent builds (%v) reached for %v, %v running", e.MaxConcurrentBuilds, e.BuildTypeID, e.RunningBuilds)
}

// NewParameterConflictError returns nil when there are no conflicts
func NewParameterConflictError(conflicts []ParameterConflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	sort.Slice(conflicts, func(i, j int) bool { return conflicts[i].Name < conflicts[j].Name })
	return &ParameterConflictError{Conflicts: conflicts}
}

// Describe turns any error into a message suitable for end users
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var notFound *NotFoundError
	var permission *PermissionError
	var ambiguous *AmbiguousError
	var validation *ValidationError
	var required *RequiredParameterError
	var conflict *ParameterConflictError
	var circular *CircularReferenceError
	var connection *ConnectionError
	var remote *RemoteAPIError
	var limit *LimitError

	switch {
	case errors.As(err, &notFound):
		return fmt.Sprintf("Not found: %v. Check the id or name, or use 'matches' to search.", notFound.Error())
	case errors.As(err, &permission):
		return "Permission denied: check that your access token is valid and has access to this project."
	case errors.As(err, &ambiguous):
		return fmt.Sprintf("Ambiguous: %v. Use a full build configuration id.", ambiguous.Error())
	case errors.As(err, &validation):
		return fmt.Sprintf("Invalid input: %v", validation.Error())
	case errors.As(err, &required):
		return fmt.Sprintf("%v. Pass them with -P<name>=<value>.", required.Error())
	case errors.As(err, &conflict):
		return conflict.Error()
	case errors.As(err, &circular):
		return fmt.Sprintf("%v. Break the cycle between these parameters.", circular.Error())
	case errors.As(err, &connection):
		return fmt.Sprintf("%v. Check the server url and your network connection.", connection.Error())
	case errors.As(err, &limit):
		return fmt.Sprintf("%v. Wait for a running build to finish.", limit.Error())
	case errors.As(err, &remote):
		switch {
		case remote.StatusCode == 400:
			return "The server rejected the request as invalid: " + remote.Message
		case remote.StatusCode == 409:
			return "The server reported a conflict: " + remote.Message
		case remote.StatusCode >= 500:
			return "The TeamCity server failed to process the request, try again later."
		}
		return remote.Error()
	}

	return err.Error()
}

package api

import "time"

// BuildState is the normalized state of a queued or running build
type BuildState string

const (
	BuildStateQueued   BuildState = "queued"
	BuildStateRunning  BuildState = "running"
	BuildStateFinished BuildState = "finished"
	BuildStateFailed   BuildState = "failed"
	BuildStateCanceled BuildState = "canceled"
)

// IsTerminal returns true once the build can no longer change state
func (s BuildState) IsTerminal() bool {
	return s == BuildStateFinished || s == BuildStateFailed || s == BuildStateCanceled
}

// TriggeredBySystem is used when the server doesn't report a triggering user
const TriggeredBySystem = "system"

// QueuedBuild is a build that has been accepted by the build queue
type QueuedBuild struct {
	ID                   string            `json:"id"`
	BuildTypeID          string            `json:"buildTypeId"`
	State                BuildState        `json:"state"`
	BranchName           string            `json:"branchName,omitempty"`
	Personal             bool              `json:"personal"`
	TriggeredBy          string            `json:"triggeredBy"`
	SnapshotDependencies []string          `json:"snapshotDependencies,omitempty"`
	QueuePosition        int               `json:"queuePosition"`
	EstimatedStart       *time.Time        `json:"estimatedStart,omitempty"`
	Parameters           map[string]string `json:"parameters,omitempty"`
	WebURL               string            `json:"webUrl,omitempty"`
}

// Property is a single name/value pair as submitted to the server
type Property struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

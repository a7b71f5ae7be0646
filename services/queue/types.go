package queue

import (
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
)

// QueueOptions controls how a single build gets submitted
type QueueOptions struct {
	Branch           string
	Comment          string
	Personal         bool
	User             string
	Dependencies     []string
	MoveToTop        bool
	SecureParameters []string
}

// Limitations is the current load of a build configuration
type Limitations struct {
	BuildTypeID         string
	MaxConcurrentBuilds *int
	RunningBuilds       int
	QueuedBuilds        int
	AvailableAgents     int
}

// LimitReached returns true if a maximum is configured and the running builds reached it
func (l *Limitations) LimitReached() bool {
	return l.MaxConcurrentBuilds != nil && l.RunningBuilds >= *l.MaxConcurrentBuilds
}

// QueuePosition is the 1-based position of a build in the queue; 0 once it left the queue
type QueuePosition struct {
	BuildID        string
	Position       int
	State          api.BuildState
	BlockedBy      []string
	CanMoveToTop   bool
	EstimatedStart *time.Time
	WaitReason     string
}

// BuildStatus is the normalized state of a build
type BuildStatus struct {
	ID                 string
	BuildTypeID        string
	Number             string
	State              api.BuildState
	StatusText         string
	BranchName         string
	PercentageComplete int
	Elapsed            time.Duration
	EstimatedTotal     time.Duration
	Artifacts          *ArtifactSummary
	Tests              *TestSummary
	CanceledBy         string
	WebURL             string
}

// ArtifactSummary is present when the server reports artifacts
type ArtifactSummary struct {
	Count int
	Href  string
}

// TestSummary is present when the server reports test occurrences
type TestSummary struct {
	Count   int
	Passed  int
	Failed  int
	Ignored int
	Muted   int
}

// MonitorOptions configures polling; zero values fall back to the configured defaults
type MonitorOptions struct {
	Interval time.Duration
	Timeout  time.Duration
}

// BatchEntry is a single build of a batch submission
type BatchEntry struct {
	Configuration *api.Configuration
	Parameters    *api.ParameterSet
	Options       QueueOptions
}

// BatchFailure records why a batch entry failed
type BatchFailure struct {
	Index       int
	BuildTypeID string
	Err         error
}

// BatchResult holds a queued build per entry index, nil where the entry failed
type BatchResult struct {
	Builds   []*api.QueuedBuild
	Failures []BatchFailure
}

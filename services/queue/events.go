package queue

import (
	"sync"
	"time"

	"github.com/estafette/estafette-ci-teamcity/api"
)

// EventName identifies the kind of event
type EventName string

const (
	EventBuildQueued    EventName = "build:queued"
	EventBuildError     EventName = "build:error"
	EventBuildCanceled  EventName = "build:canceled"
	EventBuildCompleted EventName = "build:completed"
	EventBuildTimeout   EventName = "build:timeout"
	EventMonitorError   EventName = "monitor:error"
	EventMonitorStopped EventName = "monitor:stopped"
	EventRetry          EventName = "retry"
	EventBatchPartial   EventName = "batch:partial"

	// EventAll subscribes to every event
	EventAll EventName = "*"
)

// Event is passed to subscribers; Payload is one of the *Event types below
type Event struct {
	Name    EventName
	BuildID string
	Time    time.Time
	Payload interface{}
}

// EventHandler receives events synchronously on the goroutine that emitted them
type EventHandler func(event Event)

type BuildQueuedEvent struct {
	Build *api.QueuedBuild
}

type BuildErrorEvent struct {
	BuildTypeID string
	Attempts    int
	Err         error
}

type BuildCanceledEvent struct {
	BuildID string
	Comment string
	Status  *BuildStatus
}

// BuildCompletedEvent and the other monitor events carry the id of the monitor that emitted them
type BuildCompletedEvent struct {
	MonitorID string
	Status    *BuildStatus
}

type BuildTimeoutEvent struct {
	MonitorID  string
	BuildID    string
	Timeout    time.Duration
	LastStatus *BuildStatus
}

type MonitorErrorEvent struct {
	MonitorID string
	BuildID   string
	Err       error
}

type MonitorStoppedEvent struct {
	MonitorID string
	BuildID   string
}

type RetryEvent struct {
	BuildTypeID string
	Attempt     int
	MaxRetries  int
	Delay       time.Duration
	Err         error
}

type BatchPartialEvent struct {
	Succeeded int
	Failures  []BatchFailure
}

type eventBus struct {
	mutex    sync.RWMutex
	handlers map[EventName]map[int]EventHandler
	next     int
}

func newEventBus() *eventBus {
	return &eventBus{
		handlers: map[EventName]map[int]EventHandler{},
	}
}

func (b *eventBus) subscribe(name EventName, handler EventHandler) func() {

	b.mutex.Lock()
	defer b.mutex.Unlock()

	id := b.next
	b.next++
	if b.handlers[name] == nil {
		b.handlers[name] = map[int]EventHandler{}
	}
	b.handlers[name][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mutex.Lock()
			defer b.mutex.Unlock()
			delete(b.handlers[name], id)
		})
	}
}

func (b *eventBus) emit(name EventName, buildID string, payload interface{}) {

	event := Event{
		Name:    name,
		BuildID: buildID,
		Time:    time.Now().UTC(),
		Payload: payload,
	}

	// copy so handlers can (un)subscribe without deadlocking
	b.mutex.RLock()
	handlers := make([]EventHandler, 0, len(b.handlers[name])+len(b.handlers[EventAll]))
	for _, h := range b.handlers[name] {
		handlers = append(handlers, h)
	}
	for _, h := range b.handlers[EventAll] {
		handlers = append(handlers, h)
	}
	b.mutex.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

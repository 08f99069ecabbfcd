package services

import (
	"time"
)

// HuddleService is implemented by each of huddled's long-running services
// (api, janitor, stats). Start is meant to be run in a goroutine and blocks
// for the life of the process.
type HuddleService interface {
	Start() error
}

// SessionEventSubject is the NATS subject all session lifecycle events are
// published to.
const SessionEventSubject = "huddle.session.events"

type OperationType int32

var (
	OperationType_CREATE     OperationType = 1
	OperationType_JOIN       OperationType = 2
	OperationType_CONTROLLER OperationType = 3
	OperationType_GC         OperationType = 4
	OperationType_DELETE     OperationType = 5
)

// SessionEvent describes a single change to session state. The API and
// janitor publish these over NATS; stats consumes them. The payload rides
// behind a binary-injected span context in the message body (see TraceMsg).
type SessionEvent struct {
	Operation  OperationType
	SessionID  string
	ScreenName string

	// Controller carries the new controller for CONTROLLER events, and the
	// promoted controller (if any) for GC events.
	Controller string

	Created time.Time
}

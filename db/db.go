package db

import (
	"github.com/opentracing/opentracing-go"

	models "github.com/huddle-live/huddle-core/db/models"
)

// DataManager defines all functions for the state storage layer. Every
// Huddle service is handed a DataManager; tests substitute their own.
type DataManager interface {

	// Misc
	Preflight(sc opentracing.SpanContext) error
	Initialize(sc opentracing.SpanContext) error

	// Sessions
	CreateSession(sc opentracing.SpanContext, session *models.Session) error
	ListSessions(sc opentracing.SpanContext) (map[string]models.Session, error)
	GetSession(sc opentracing.SpanContext, id string) (models.Session, error)
	UpdateSessionController(sc opentracing.SpanContext, id, controller string) error
	DeleteSession(sc opentracing.SpanContext, id string) error

	// Attendees. Attendees are keyed by (sessionID, screenName); upserting
	// an attendee that already exists refreshes its TimeLastPolled.
	UpsertAttendee(sc opentracing.SpanContext, attendee *models.Attendee) error
	ListAttendees(sc opentracing.SpanContext, sessionID string) ([]models.Attendee, error)
	GetAttendee(sc opentracing.SpanContext, sessionID, screenName string) (models.Attendee, error)
	UpdateAttendeeLastPolled(sc opentracing.SpanContext, sessionID, screenName string) error
	DeleteAttendee(sc opentracing.SpanContext, sessionID, screenName string) error
}

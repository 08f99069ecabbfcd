package db

import (
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"
	log "github.com/sirupsen/logrus"

	models "github.com/huddle-live/huddle-core/db/models"
)

// NewHDMInMem produces an initialized instance of HDMInMem ready to be used
func NewHDMInMem() DataManager {
	return &HDMInMem{
		sessions:    map[string]*models.Session{},
		sessionsMu:  &sync.Mutex{},
		attendees:   map[string][]*models.Attendee{},
		attendeesMu: &sync.Mutex{},
	}
}

// HDMInMem is an implementation of DataManager which uses in-memory
// constructs as a backing data store
type HDMInMem struct {

	// All fields are unexported; since these are managed in memory, they
	// should only be accessible through exported functions in this driver
	// that allow this to be done safely
	sessions   map[string]*models.Session
	sessionsMu *sync.Mutex

	// attendees holds each session's attendee records in join order, which
	// is the order the front-end renders them in.
	attendees   map[string][]*models.Attendee
	attendeesMu *sync.Mutex
}

var _ DataManager = &HDMInMem{}

// HOUSEKEEPING

// Preflight performs any necessary tasks to ensure the data store is ready
// to be used. Most useful for when Huddle processes start up.
//
// This function is left blank for the in-memory driver, as it's not needed.
func (h *HDMInMem) Preflight(sc opentracing.SpanContext) error {
	return nil
}

// Initialize resets a Huddle datastore to its defaults. A very destructive
// operation - use with caution.
//
// This function is left blank for the in-memory driver, as it's not needed.
func (h *HDMInMem) Initialize(sc opentracing.SpanContext) error {
	return nil
}

// SESSIONS

// CreateSession adds a new Session to the in-memory data store
func (h *HDMInMem) CreateSession(sc opentracing.SpanContext, session *models.Session) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_create",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	if _, ok := h.sessions[session.ID]; ok {
		return fmt.Errorf("Session %s already exists", session.ID)
	}
	h.sessions[session.ID] = session

	log.Infof("Created session %s", session.ID)
	return nil
}

// ListSessions lists all Sessions currently tracked in memory
func (h *HDMInMem) ListSessions(sc opentracing.SpanContext) (map[string]models.Session, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_list",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	sessions := map[string]models.Session{}
	for id, session := range h.sessions {
		sessions[id] = *session
	}
	return sessions, nil
}

// GetSession retrieves a specific Session from the in-memory store via ID
func (h *HDMInMem) GetSession(sc opentracing.SpanContext, id string) (models.Session, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_get",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	if session, ok := h.sessions[id]; ok {
		return *session, nil
	}
	return models.Session{}, fmt.Errorf("Unable to find session %s", id)
}

// UpdateSessionController updates a session's Controller property. The
// caller is responsible for having verified that the new controller is an
// attendee of the session.
func (h *HDMInMem) UpdateSessionController(sc opentracing.SpanContext, id, controller string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_update_controller",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.sessionsMu.Lock()
	defer h.sessionsMu.Unlock()
	if _, ok := h.sessions[id]; !ok {
		return fmt.Errorf("Session %s doesn't exist; cannot update", id)
	}
	h.sessions[id].Controller = controller
	return nil
}

// DeleteSession deletes an existing Session from the in-memory data store
// by ID, along with all of its attendee records.
func (h *HDMInMem) DeleteSession(sc opentracing.SpanContext, id string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_session_delete",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.sessionsMu.Lock()
	delete(h.sessions, id)
	h.sessionsMu.Unlock()

	h.attendeesMu.Lock()
	delete(h.attendees, id)
	h.attendeesMu.Unlock()
	return nil
}

// ATTENDEES

// UpsertAttendee adds a new Attendee record to the in-memory data store. If
// the (sessionID, screenName) pair already exists, the existing record's
// TimeLastPolled is refreshed instead - browsers re-join on every reload,
// and rejecting the duplicate would surface spurious errors.
func (h *HDMInMem) UpsertAttendee(sc opentracing.SpanContext, attendee *models.Attendee) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_upsert",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.attendeesMu.Lock()
	defer h.attendeesMu.Unlock()
	for _, existing := range h.attendees[attendee.SessionID] {
		if existing.ScreenName == attendee.ScreenName {
			existing.TimeLastPolled = attendee.TimeLastPolled
			return nil
		}
	}
	h.attendees[attendee.SessionID] = append(h.attendees[attendee.SessionID], attendee)

	log.Infof("Attendee %s joined session %s", attendee.ScreenName, attendee.SessionID)
	return nil
}

// ListAttendees lists a session's Attendees in join order
func (h *HDMInMem) ListAttendees(sc opentracing.SpanContext, sessionID string) ([]models.Attendee, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_list",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.attendeesMu.Lock()
	defer h.attendeesMu.Unlock()
	attendees := []models.Attendee{}
	for _, attendee := range h.attendees[sessionID] {
		attendees = append(attendees, *attendee)
	}
	return attendees, nil
}

// GetAttendee retrieves a specific Attendee record from the in-memory store
func (h *HDMInMem) GetAttendee(sc opentracing.SpanContext, sessionID, screenName string) (models.Attendee, error) {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_get",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.attendeesMu.Lock()
	defer h.attendeesMu.Unlock()
	for _, attendee := range h.attendees[sessionID] {
		if attendee.ScreenName == screenName {
			return *attendee, nil
		}
	}
	return models.Attendee{}, fmt.Errorf("Unable to find attendee %s in session %s", screenName, sessionID)
}

// UpdateAttendeeLastPolled stamps an attendee's TimeLastPolled with the
// current time
func (h *HDMInMem) UpdateAttendeeLastPolled(sc opentracing.SpanContext, sessionID, screenName string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_update_lastpolled",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.attendeesMu.Lock()
	defer h.attendeesMu.Unlock()
	for _, attendee := range h.attendees[sessionID] {
		if attendee.ScreenName == screenName {
			attendee.TimeLastPolled = time.Now()
			return nil
		}
	}
	return fmt.Errorf("Attendee %s doesn't exist in session %s; cannot update", screenName, sessionID)
}

// DeleteAttendee deletes an existing Attendee record from the in-memory
// data store
func (h *HDMInMem) DeleteAttendee(sc opentracing.SpanContext, sessionID, screenName string) error {
	tracer := opentracing.GlobalTracer()
	span := tracer.StartSpan(
		"db_attendee_delete",
		opentracing.ChildOf(sc))
	defer span.Finish()

	h.attendeesMu.Lock()
	defer h.attendeesMu.Unlock()
	attendees := h.attendees[sessionID]
	for i := range attendees {
		if attendees[i].ScreenName == screenName {
			h.attendees[sessionID] = append(attendees[:i], attendees[i+1:]...)
			return nil
		}
	}
	return nil
}

package api

import (
	"encoding/json"
	"net/http"
	"time"

	copier "github.com/jinzhu/copier"
	ot "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
	log "github.com/sirupsen/logrus"

	db "github.com/huddle-live/huddle-core/db"
	models "github.com/huddle-live/huddle-core/db/models"
	services "github.com/huddle-live/huddle-core/services"
)

// handleSessions serves the session collection: GET lists all sessions
// (operator surface), POST creates a new one.
func (s *HuddleAPI) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listSessions(w, r)
	case http.MethodPost:
		s.createSession(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HuddleAPI) listSessions(w http.ResponseWriter, r *http.Request) {
	span := ot.StartSpan("api_session_list", ext.SpanKindRPCServer)
	defer span.Finish()

	sessions, err := s.Db.ListSessions(span.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to list sessions")
		return
	}

	views := []SessionView{}
	for id := range sessions {
		session := sessions[id]
		view, err := s.sessionView(span.Context(), &session)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Unable to assemble session view")
			return
		}
		views = append(views, view)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *HuddleAPI) createSession(w http.ResponseWriter, r *http.Request) {
	span := ot.StartSpan("api_session_create", ext.SpanKindRPCServer)
	defer span.Finish()

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.ScreenName == "" || req.IPOfVM == "" {
		writeError(w, http.StatusBadRequest, "screenName and ipOfVM are required")
		return
	}

	// Session IDs are immutable once allocated, so collide-and-retry here
	// rather than ever reusing one.
	var sessionID string
	i := 0
	for {
		if i > 4 {
			writeError(w, http.StatusInternalServerError, "Unable to generate session ID")
			return
		}
		sessionID = db.RandomID(10)
		_, err := s.Db.GetSession(span.Context(), sessionID)
		if err == nil {
			i++
			continue
		}
		break
	}

	if s.Config.DevMode {
		sessionID = "huddledevmode"
	}
	span.LogFields(otlog.String("allocatedSessionId", sessionID))

	now := time.Now()
	err := s.Db.CreateSession(span.Context(), &models.Session{
		ID:          sessionID,
		Controller:  req.ScreenName,
		IPOfVM:      req.IPOfVM,
		CreatedTime: now,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to store new session record")
		return
	}

	// The creator is the first attendee and starts out in control.
	err = s.Db.UpsertAttendee(span.Context(), &models.Attendee{
		SessionID:      sessionID,
		ScreenName:     req.ScreenName,
		TimeLastPolled: now,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to store attendee record")
		return
	}

	s.publishEvent(span.Context(), services.SessionEvent{
		Operation:  services.OperationType_CREATE,
		SessionID:  sessionID,
		ScreenName: req.ScreenName,
		Controller: req.ScreenName,
		Created:    now,
	})

	view, err := s.sessionView(span.Context(), &models.Session{
		ID: sessionID, Controller: req.ScreenName, IPOfVM: req.IPOfVM,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to assemble session view")
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// handleSession serves a single session: GET fetches the view the front-end
// polls (refreshing the caller's TimeLastPolled), DELETE removes the
// session outright.
func (s *HuddleAPI) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.getSession(w, r)
	case http.MethodDelete:
		s.deleteSession(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HuddleAPI) getSession(w http.ResponseWriter, r *http.Request) {
	span := ot.StartSpan("api_session_get", ext.SpanKindRPCServer)
	defer span.Finish()

	sessionID := r.URL.Query().Get("session-id")
	screenName := r.URL.Query().Get("name")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session-id is required")
		return
	}
	span.SetTag("huddle_session_id", sessionID)

	session, err := s.Db.GetSession(span.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	// A fetch by a named attendee is that attendee's poll. A name we don't
	// recognize (e.g. an attendee the janitor just reaped) isn't an error;
	// the client will re-join.
	if screenName != "" {
		if err := s.Db.UpdateAttendeeLastPolled(span.Context(), sessionID, screenName); err != nil {
			log.Debugf("Poll from unknown attendee %s in session %s", screenName, sessionID)
		}
	}

	view, err := s.sessionView(span.Context(), &session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to assemble session view")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HuddleAPI) deleteSession(w http.ResponseWriter, r *http.Request) {
	span := ot.StartSpan("api_session_delete", ext.SpanKindRPCServer)
	defer span.Finish()

	sessionID := r.URL.Query().Get("session-id")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session-id is required")
		return
	}

	if _, err := s.Db.GetSession(span.Context(), sessionID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if err := s.Db.DeleteSession(span.Context(), sessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to delete session")
		return
	}

	s.publishEvent(span.Context(), services.SessionEvent{
		Operation: services.OperationType_DELETE,
		SessionID: sessionID,
		Created:   time.Now(),
	})
	w.WriteHeader(http.StatusNoContent)
}

// handleJoin registers an attendee in an existing session. Joining a
// session you're already in just refreshes your poll timestamp.
func (s *HuddleAPI) handleJoin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	span := ot.StartSpan("api_session_join", ext.SpanKindRPCServer)
	defer span.Finish()

	var req JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.SessionID == "" || req.ScreenName == "" {
		writeError(w, http.StatusBadRequest, "sessionID and screenName are required")
		return
	}

	session, err := s.Db.GetSession(span.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	now := time.Now()
	err = s.Db.UpsertAttendee(span.Context(), &models.Attendee{
		SessionID:      req.SessionID,
		ScreenName:     req.ScreenName,
		TimeLastPolled: now,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to store attendee record")
		return
	}

	s.publishEvent(span.Context(), services.SessionEvent{
		Operation:  services.OperationType_JOIN,
		SessionID:  req.SessionID,
		ScreenName: req.ScreenName,
		Created:    now,
	})

	view, err := s.sessionView(span.Context(), &session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to assemble session view")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleController reassigns control of a session. The browser gates this
// on being the controller as a UX nicety, but this check is the
// authoritative one.
func (s *HuddleAPI) handleController(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	span := ot.StartSpan("api_session_controller", ext.SpanKindRPCServer)
	defer span.Finish()

	var req ControllerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.SessionID == "" || req.ScreenName == "" || req.NewController == "" {
		writeError(w, http.StatusBadRequest, "sessionID, screenName and newController are required")
		return
	}

	session, err := s.Db.GetSession(span.Context(), req.SessionID)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if session.Controller != req.ScreenName {
		ext.Error.Set(span, true)
		writeError(w, http.StatusForbidden, "only the current controller may reassign control")
		return
	}

	if _, err := s.Db.GetAttendee(span.Context(), req.SessionID, req.NewController); err != nil {
		writeError(w, http.StatusBadRequest, "new controller is not an attendee of this session")
		return
	}

	if err := s.Db.UpdateSessionController(span.Context(), req.SessionID, req.NewController); err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to update controller")
		return
	}

	s.publishEvent(span.Context(), services.SessionEvent{
		Operation:  services.OperationType_CONTROLLER,
		SessionID:  req.SessionID,
		ScreenName: req.ScreenName,
		Controller: req.NewController,
		Created:    time.Now(),
	})

	session.Controller = req.NewController
	view, err := s.sessionView(span.Context(), &session)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Unable to assemble session view")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// sessionView translates a db Session plus its attendee records into the
// wire shape the front-end consumes.
func (s *HuddleAPI) sessionView(sc ot.SpanContext, session *models.Session) (SessionView, error) {

	// Copy the like-named fields, then fill in the ones that differ
	var view SessionView
	copier.Copy(&view, session)
	view.SessionID = session.ID

	attendees, err := s.Db.ListAttendees(sc, session.ID)
	if err != nil {
		return SessionView{}, err
	}
	view.ListOfAttendees = []string{}
	for _, attendee := range attendees {
		view.ListOfAttendees = append(view.ListOfAttendees, attendee.ScreenName)
	}
	return view, nil
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("Failed to encode response body: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func createTestSession(t *testing.T, s *HuddleAPI, screenName, ip string) SessionView {
	t.Helper()
	body, _ := json.Marshal(CreateSessionRequest{ScreenName: screenName, IPOfVM: ip})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleSessions(w, req)

	equals(t, http.StatusCreated, w.Code)
	var view SessionView
	ok(t, json.Unmarshal(w.Body.Bytes(), &view))
	return view
}

func TestCreateSession(t *testing.T) {
	s := createFakeAPIServer()

	view := createTestSession(t, s, "alice", "10.0.0.14")

	equals(t, 10, len(view.SessionID))
	equals(t, "alice", view.Controller)
	equals(t, "10.0.0.14", view.IPOfVM)
	equals(t, []string{"alice"}, view.ListOfAttendees)
}

func TestCreateSessionValidation(t *testing.T) {
	s := createFakeAPIServer()

	body, _ := json.Marshal(CreateSessionRequest{ScreenName: "alice"})
	req := httptest.NewRequest(http.MethodPost, "/api/sessions", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleSessions(w, req)
	equals(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionDevMode(t *testing.T) {
	s := createFakeAPIServer()
	s.Config.DevMode = true

	view := createTestSession(t, s, "alice", "10.0.0.14")
	equals(t, "huddledevmode", view.SessionID)
}

func TestGetSessionRefreshesPoll(t *testing.T) {
	s := createFakeAPIServer()
	view := createTestSession(t, s, "alice", "10.0.0.14")

	before, err := s.Db.GetAttendee(nil, view.SessionID, "alice")
	ok(t, err)
	time.Sleep(5 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/api/session?session-id="+view.SessionID+"&name=alice", nil)
	w := httptest.NewRecorder()
	s.handleSession(w, req)
	equals(t, http.StatusOK, w.Code)

	var fetched SessionView
	ok(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	equals(t, view.SessionID, fetched.SessionID)
	equals(t, "alice", fetched.Controller)
	equals(t, []string{"alice"}, fetched.ListOfAttendees)

	after, err := s.Db.GetAttendee(nil, view.SessionID, "alice")
	ok(t, err)
	assert(t, after.TimeLastPolled.After(before.TimeLastPolled), "expected poll to refresh TimeLastPolled")
}

func TestGetMissingSession(t *testing.T) {
	s := createFakeAPIServer()

	req := httptest.NewRequest(http.MethodGet, "/api/session?session-id=nonexistent", nil)
	w := httptest.NewRecorder()
	s.handleSession(w, req)
	equals(t, http.StatusNotFound, w.Code)
}

func TestJoinSession(t *testing.T) {
	s := createFakeAPIServer()
	view := createTestSession(t, s, "alice", "10.0.0.14")

	body, _ := json.Marshal(JoinRequest{SessionID: view.SessionID, ScreenName: "bob"})
	req := httptest.NewRequest(http.MethodPost, "/api/session/join", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleJoin(w, req)
	equals(t, http.StatusOK, w.Code)

	// Attendee list comes back in join order
	attendees, err := s.Db.ListAttendees(nil, view.SessionID)
	ok(t, err)
	equals(t, 2, len(attendees))
	equals(t, "alice", attendees[0].ScreenName)
	equals(t, "bob", attendees[1].ScreenName)
}

func TestJoinMissingSession(t *testing.T) {
	s := createFakeAPIServer()

	body, _ := json.Marshal(JoinRequest{SessionID: "nonexistent", ScreenName: "bob"})
	req := httptest.NewRequest(http.MethodPost, "/api/session/join", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleJoin(w, req)
	equals(t, http.StatusNotFound, w.Code)
}

func changeController(t *testing.T, s *HuddleAPI, sessionID, requester, newController string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(ControllerRequest{
		SessionID:     sessionID,
		ScreenName:    requester,
		NewController: newController,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/session/controller", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.handleController(w, req)
	return w
}

func TestControllerHandoff(t *testing.T) {
	s := createFakeAPIServer()
	view := createTestSession(t, s, "alice", "10.0.0.14")

	body, _ := json.Marshal(JoinRequest{SessionID: view.SessionID, ScreenName: "bob"})
	req := httptest.NewRequest(http.MethodPost, "/api/session/join", bytes.NewReader(body))
	s.handleJoin(httptest.NewRecorder(), req)

	// Only the current controller may hand off control - the client-side
	// check is just a UX nicety.
	w := changeController(t, s, view.SessionID, "bob", "bob")
	equals(t, http.StatusForbidden, w.Code)

	// The new controller has to actually be in the session.
	w = changeController(t, s, view.SessionID, "alice", "mallory")
	equals(t, http.StatusBadRequest, w.Code)

	w = changeController(t, s, view.SessionID, "alice", "bob")
	equals(t, http.StatusOK, w.Code)

	var updated SessionView
	ok(t, json.Unmarshal(w.Body.Bytes(), &updated))
	equals(t, "bob", updated.Controller)

	session, err := s.Db.GetSession(nil, view.SessionID)
	ok(t, err)
	equals(t, "bob", session.Controller)
}

func TestDeleteSession(t *testing.T) {
	s := createFakeAPIServer()
	view := createTestSession(t, s, "alice", "10.0.0.14")

	req := httptest.NewRequest(http.MethodDelete, "/api/session?session-id="+view.SessionID, nil)
	w := httptest.NewRecorder()
	s.handleSession(w, req)
	equals(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/session?session-id="+view.SessionID, nil)
	w = httptest.NewRecorder()
	s.handleSession(w, req)
	equals(t, http.StatusNotFound, w.Code)
}

func TestInfo(t *testing.T) {
	s := createFakeAPIServer()

	req := httptest.NewRequest(http.MethodGet, "/api/info", nil)
	w := httptest.NewRecorder()
	s.handleInfo(w, req)
	equals(t, http.StatusOK, w.Code)

	var info map[string]string
	ok(t, json.Unmarshal(w.Body.Bytes(), &info))
	equals(t, "test", info["buildVersion"])
	equals(t, "huddle-test", info["instanceId"])
}

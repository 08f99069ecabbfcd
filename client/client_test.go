package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetSessionRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		equals(t, http.MethodGet, r.Method)
		equals(t, "/api/session", r.URL.Path)
		equals(t, "abcdef1234", r.URL.Query().Get("session-id"))
		equals(t, "alice", r.URL.Query().Get("name"))

		json.NewEncoder(w).Encode(Session{
			SessionID:       "abcdef1234",
			Controller:      "alice",
			IPOfVM:          "10.0.0.14",
			ListOfAttendees: []string{"alice"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "abcdef1234", "alice")
	session, err := c.GetSession(context.Background())
	ok(t, err)
	equals(t, "10.0.0.14", session.IPOfVM)
	equals(t, []string{"alice"}, session.ListOfAttendees)
}

func TestJoinRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		equals(t, http.MethodPost, r.Method)
		equals(t, "/api/session/join", r.URL.Path)

		var body map[string]string
		ok(t, json.NewDecoder(r.Body).Decode(&body))
		equals(t, "abcdef1234", body["sessionID"])
		equals(t, "bob", body["screenName"])

		json.NewEncoder(w).Encode(Session{
			SessionID:       "abcdef1234",
			Controller:      "alice",
			ListOfAttendees: []string{"alice", "bob"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "abcdef1234", "bob")
	session, err := c.Join(context.Background())
	ok(t, err)
	equals(t, []string{"alice", "bob"}, session.ListOfAttendees)
}

func TestChangeControllerRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		equals(t, "/api/session/controller", r.URL.Path)

		var body map[string]string
		ok(t, json.NewDecoder(r.Body).Decode(&body))
		equals(t, "alice", body["screenName"])
		equals(t, "bob", body["newController"])

		json.NewEncoder(w).Encode(Session{SessionID: "abcdef1234", Controller: "bob"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "abcdef1234", "alice")
	session, err := c.ChangeControllerTo(context.Background(), "bob")
	ok(t, err)
	equals(t, "bob", session.Controller)
}

func TestServerErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "only the current controller may reassign control"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "abcdef1234", "bob")
	_, err := c.ChangeControllerTo(context.Background(), "bob")
	assert(t, err != nil, "expected error from 403 response")
	assert(t, strings.Contains(err.Error(), "only the current controller"),
		"expected server message in error, got %v", err)
}

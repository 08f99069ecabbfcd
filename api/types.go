package api

// SessionView is the JSON shape the front-end consumes when polling session
// state. Field names are part of the client-server contract; don't change
// them without also changing the browser client.
type SessionView struct {
	SessionID       string   `json:"sessionID"`
	Controller      string   `json:"controller"`
	IPOfVM          string   `json:"ipOfVM"`
	ListOfAttendees []string `json:"listOfAttendees"`
}

// CreateSessionRequest creates a new session. The creator joins immediately
// and starts out holding control.
type CreateSessionRequest struct {
	ScreenName string `json:"screenName"`
	IPOfVM     string `json:"ipOfVM"`
}

// JoinRequest registers an attendee in an existing session.
type JoinRequest struct {
	SessionID  string `json:"sessionID"`
	ScreenName string `json:"screenName"`
}

// ControllerRequest hands control of a session to another attendee. The
// requester must be the current controller; this is enforced here, not just
// in the browser.
type ControllerRequest struct {
	SessionID     string `json:"sessionID"`
	ScreenName    string `json:"screenName"`
	NewController string `json:"newController"`
}

type errorResponse struct {
	Error string `json:"error"`
}

package db

import "time"

// Entity field names for Attendee records. Durable drivers use these as
// column names so that stored data stays compatible with the original
// datastore schema.
const (
	AttendeeTable         = "Attendee"
	AttendeeSessionID     = "sessionId"
	AttendeeScreenName    = "screenName"
	AttendeeLastPolledKey = "timeLastPolled"
)

// Attendee represents a user in a session. Attendees are keyed by
// (SessionID, ScreenName); joining a session the attendee is already in
// refreshes TimeLastPolled rather than creating a duplicate record.
type Attendee struct {
	SessionID  string `json:"sessionId"`
	ScreenName string `json:"screenName"`

	// TimeLastPolled is refreshed every time the attendee polls session
	// state. The janitor reaps attendees that stop polling.
	TimeLastPolled time.Time `json:"timeLastPolled"`
}

package db

import "time"

// Session represents a single watch-together session: a group of attendees
// viewing one shared virtual machine, with exactly one of them holding
// control at any time.
type Session struct {
	// ID is allocated when the session is created and never changes afterwards.
	ID string `json:"id"`

	// Controller is the screen name of the attendee currently authorized to
	// interact with the VM. Must always refer to one of the session's
	// attendees; the API layer enforces this on every mutation.
	Controller string `json:"controller"`

	// IPOfVM is the address of the virtual machine attendees point their
	// remote-framebuffer viewers at. Huddle treats it as opaque data - the
	// VM itself is provisioned elsewhere.
	IPOfVM string `json:"ipOfVM"`

	CreatedTime time.Time `json:"createdTime"`
}

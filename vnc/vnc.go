// Package vnc defines the contract for the remote-framebuffer viewer the
// front-end embeds. The actual RFB protocol work is delegated to a
// third-party viewer library; this wrapper only exists to pin down the
// interface the page controller programs against. None of it is implemented
// yet.
package vnc

import "errors"

// ErrUnimplemented is returned by every operation on Viewer.
var ErrUnimplemented = errors.New("unimplemented")

// Config describes a connection to a session's VM.
type Config struct {
	// Host is the VM address, as reported in the session's ipOfVM field.
	Host string
	Port int

	// ViewOnly starts the viewer without forwarding input. Attendees who
	// don't hold control view in this mode.
	ViewOnly bool

	OnConnect    func()
	OnDisconnect func()
}

// Viewer wraps a remote-framebuffer connection to a session's VM.
type Viewer struct {
	Config Config
}

// NewViewer returns a disconnected Viewer for the given VM.
func NewViewer(config Config) *Viewer {
	return &Viewer{Config: config}
}

// Connect establishes the remote-framebuffer connection.
func (v *Viewer) Connect() error {
	return ErrUnimplemented
}

// Disconnect tears down the connection.
func (v *Viewer) Disconnect() error {
	return ErrUnimplemented
}

// SetViewOnly toggles between read-only and interactive mode, typically in
// response to a controller change.
func (v *Viewer) SetViewOnly(viewOnly bool) error {
	return ErrUnimplemented
}

// Connected reports whether the viewer currently holds a connection.
func (v *Viewer) Connected() bool {
	return false
}

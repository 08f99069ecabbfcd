package vnc

import "testing"

func TestViewerUnimplemented(t *testing.T) {
	v := NewViewer(Config{Host: "10.0.0.14", Port: 5900})

	if err := v.Connect(); err != ErrUnimplemented {
		t.Fatalf("expected ErrUnimplemented, got %v", err)
	}
	if err := v.Disconnect(); err != ErrUnimplemented {
		t.Fatalf("expected ErrUnimplemented, got %v", err)
	}
	if err := v.SetViewOnly(true); err != ErrUnimplemented {
		t.Fatalf("expected ErrUnimplemented, got %v", err)
	}
	if v.Connected() {
		t.Fatal("viewer should never report connected")
	}
}

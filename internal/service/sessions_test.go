package service

import "testing"

func TestSessionRegistryClearRoom(t *testing.T) {
	r := NewSessionRegistry()
	r.Set(Session{ConnectionID: "c1", RoomID: "r1", UserID: "u1"})
	r.Set(Session{ConnectionID: "c2", RoomID: "r1", UserID: "u2"})
	r.Set(Session{ConnectionID: "c3", RoomID: "r2", UserID: "u3"})

	removed := r.ClearRoom("r1")
	if len(removed) != 2 {
		t.Fatalf("removed %d sessions, want 2", len(removed))
	}
	if _, ok := r.Get("c1"); ok {
		t.Error("c1 still registered after room clear")
	}
	if _, ok := r.Get("c3"); !ok {
		t.Error("session in another room was cleared")
	}
}

func TestSessionRegistrySetReplaces(t *testing.T) {
	r := NewSessionRegistry()
	r.Set(Session{ConnectionID: "c1", RoomID: "r1", UserID: "u1"})
	r.Set(Session{ConnectionID: "c1", RoomID: "r2", UserID: "u1"})

	s, ok := r.Get("c1")
	if !ok || s.RoomID != "r2" {
		t.Errorf("session = %+v ok=%v, want room r2", s, ok)
	}

	r.Clear("c1")
	r.Clear("c1") // absent id is a no-op
	if _, ok := r.Get("c1"); ok {
		t.Error("session survived Clear")
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/state"
)

func seedRoom(t *testing.T, s state.Store, roomID string, ids ...string) {
	t.Helper()
	base := time.Now().UTC()
	for i, id := range ids {
		p := model.Participant{
			ID:       id,
			Username: "user-" + id,
			JoinedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.AddOrUpdateParticipant(context.Background(), roomID, p); err != nil {
			t.Fatal(err)
		}
	}
}

func controllerOf(t *testing.T, s state.Store, roomID string) (string, int) {
	t.Helper()
	ps, err := s.ListParticipants(context.Background(), roomID)
	if err != nil {
		t.Fatal(err)
	}
	id, holders := "", 0
	for _, p := range ps {
		if p.HasControl {
			id = p.ID
			holders++
		}
	}
	return id, holders
}

func TestTransferToUnknownTarget(t *testing.T) {
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	seedRoom(t, s, "r1", "a")

	if _, err := cm.TransferTo(context.Background(), "r1", "ghost"); err != errs.ErrParticipantNotFound {
		t.Errorf("err = %v, want ErrParticipantNotFound", err)
	}
	// The failed transfer must not have disturbed anything.
	if _, holders := controllerOf(t, s, "r1"); holders != 0 {
		t.Errorf("holders = %d after failed transfer, want 0", holders)
	}
}

func TestTransferToSwapsHolder(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	seedRoom(t, s, "r1", "a", "b", "c")
	if err := s.SetController(ctx, "r1", "a"); err != nil {
		t.Fatal(err)
	}

	got, err := cm.TransferTo(ctx, "r1", "c")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "c" || !got.HasControl {
		t.Errorf("returned %q hasControl=%v, want c with control", got.ID, got.HasControl)
	}
	if id, holders := controllerOf(t, s, "r1"); id != "c" || holders != 1 {
		t.Errorf("controller = %q (holders=%d), want c (1)", id, holders)
	}
}

func TestSuccessionPicksEarliestJoiner(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	seedRoom(t, s, "r1", "a", "b", "c")
	_ = s.SetController(ctx, "r1", "a")

	// a leaves while holding control; b joined before c.
	if err := s.RemoveParticipant(ctx, "r1", "a"); err != nil {
		t.Fatal(err)
	}
	next, ok, err := cm.SuccessionAfterRemoval(ctx, "r1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || next.ID != "b" {
		t.Errorf("successor = %q ok=%v, want b true", next.ID, ok)
	}
	if id, holders := controllerOf(t, s, "r1"); id != "b" || holders != 1 {
		t.Errorf("controller = %q (holders=%d), want b (1)", id, holders)
	}
}

func TestSuccessionExcludesRemovedBeforeStoreUpdate(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	seedRoom(t, s, "r1", "a", "b")
	_ = s.SetController(ctx, "r1", "a")

	// Succession may run before the removal lands in the store; the removed
	// id must still be skipped.
	next, ok, err := cm.SuccessionAfterRemoval(ctx, "r1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || next.ID != "b" {
		t.Errorf("successor = %q ok=%v, want b true", next.ID, ok)
	}
}

func TestSuccessionEmptyRoom(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	seedRoom(t, s, "r1", "a")
	_ = s.SetController(ctx, "r1", "a")
	_ = s.RemoveParticipant(ctx, "r1", "a")

	_, ok, err := cm.SuccessionAfterRemoval(ctx, "r1", "a")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("ok = true for empty room, want false")
	}
}

func TestEnsureConsistencyGrantsWhenUnheld(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	seedRoom(t, s, "r1", "a", "b")

	got, ok, err := cm.EnsureConsistency(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.ID != "a" {
		t.Errorf("repaired controller = %q ok=%v, want a true", got.ID, ok)
	}
	if id, holders := controllerOf(t, s, "r1"); id != "a" || holders != 1 {
		t.Errorf("controller = %q (holders=%d), want a (1)", id, holders)
	}
}

func TestEnsureConsistencyCollapsesMultipleHolders(t *testing.T) {
	ctx := context.Background()
	s := state.NewMemoryStore(0, 0)
	cm := NewControlManager(s)
	base := time.Now().UTC()
	for i, id := range []string{"a", "b", "c"} {
		p := model.Participant{ID: id, JoinedAt: base.Add(time.Duration(i) * time.Second), HasControl: true}
		if err := s.AddOrUpdateParticipant(ctx, "r1", p); err != nil {
			t.Fatal(err)
		}
	}

	got, ok, err := cm.EnsureConsistency(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got.ID != "a" {
		t.Errorf("kept controller = %q ok=%v, want a true", got.ID, ok)
	}
	if id, holders := controllerOf(t, s, "r1"); id != "a" || holders != 1 {
		t.Errorf("controller = %q (holders=%d), want a (1)", id, holders)
	}
}

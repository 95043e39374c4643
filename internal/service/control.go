package service

import (
	"context"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/model"
	"github.com/ZiadHesham225/StreamSync-sub001/internal/state"
)

// ControlManager implements the controller-token protocol on top of the
// state store. It is written once, against the Store interface, so both
// backends share the exact same succession rules.
//
// Steady state: at most one participant per room holds control. A zero-
// controller state in a non-empty room is transient-illegal and repaired by
// EnsureConsistency.
type ControlManager struct {
	store state.Store
}

// NewControlManager creates a control manager over the given store.
func NewControlManager(store state.Store) *ControlManager {
	return &ControlManager{store: store}
}

// TransferTo grants control to targetID, clearing everyone else.
func (c *ControlManager) TransferTo(ctx context.Context, roomID, targetID string) (model.Participant, error) {
	target, err := c.store.GetParticipant(ctx, roomID, targetID)
	if err != nil {
		return model.Participant{}, err
	}
	if err := c.store.SetController(ctx, roomID, targetID); err != nil {
		return model.Participant{}, err
	}
	target.HasControl = true
	return target, nil
}

// SuccessionAfterRemoval grants control to the earliest-joined participant
// still in the room, excluding removedID. Returns false when the room is
// empty and control stays unset. It finishes with a consistency repair pass.
func (c *ControlManager) SuccessionAfterRemoval(ctx context.Context, roomID, removedID string) (model.Participant, bool, error) {
	ps, err := c.store.ListParticipants(ctx, roomID)
	if err != nil {
		return model.Participant{}, false, err
	}
	var next *model.Participant
	for i := range ps {
		if ps[i].ID != removedID {
			next = &ps[i]
			break
		}
	}
	if next == nil {
		if err := c.store.SetController(ctx, roomID, ""); err != nil {
			return model.Participant{}, false, err
		}
		return model.Participant{}, false, nil
	}
	if err := c.store.SetController(ctx, roomID, next.ID); err != nil {
		return model.Participant{}, false, err
	}
	repaired, ok, err := c.EnsureConsistency(ctx, roomID)
	if err != nil || !ok {
		next.HasControl = true
		return *next, true, err
	}
	return repaired, true, nil
}

// EnsureConsistency repairs the single-controller invariant: a non-empty
// room with no controller gets the earliest joiner; multiple controllers
// collapse to the earliest-joined holder. Returns the resulting controller,
// or ok=false for an empty room.
func (c *ControlManager) EnsureConsistency(ctx context.Context, roomID string) (model.Participant, bool, error) {
	ps, err := c.store.ListParticipants(ctx, roomID)
	if err != nil {
		return model.Participant{}, false, err
	}
	if len(ps) == 0 {
		return model.Participant{}, false, nil
	}
	var holders []model.Participant
	for _, p := range ps {
		if p.HasControl {
			holders = append(holders, p)
		}
	}
	switch len(holders) {
	case 1:
		return holders[0], true, nil
	case 0:
		// List is already ordered by join time, so ps[0] is the earliest.
		earliest := ps[0]
		if err := c.store.SetController(ctx, roomID, earliest.ID); err != nil {
			return model.Participant{}, false, err
		}
		earliest.HasControl = true
		return earliest, true, nil
	default:
		keep := holders[0]
		if err := c.store.SetController(ctx, roomID, keep.ID); err != nil {
			return model.Participant{}, false, err
		}
		return keep, true, nil
	}
}

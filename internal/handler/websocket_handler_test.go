package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ZiadHesham225/StreamSync-sub001/internal/errs"
)

func TestErrorMessagePassesSentinelsThrough(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errs.ErrRoomNotFound, errs.ErrRoomNotFound.Error()},
		{errs.ErrInvalidPassword, errs.ErrInvalidPassword.Error()},
		{fmt.Errorf("join: %w", errs.ErrPermissionDenied), errs.ErrPermissionDenied.Error()},
		{errors.New("malformed action frame"), "malformed action frame"},
		{errors.New("unknown action: fly"), "unknown action: fly"},
	}
	for _, c := range cases {
		if got := errorMessage(c.err); got != c.want {
			t.Errorf("errorMessage(%v) = %q, want %q", c.err, got, c.want)
		}
	}
}

func TestErrorMessageMasksInternalErrors(t *testing.T) {
	internal := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	if got := errorMessage(internal); got != "action failed" {
		t.Errorf("errorMessage = %q, want masked %q", got, "action failed")
	}
}

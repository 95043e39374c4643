package service

import (
	"strings"
	"testing"
)

func TestNewInviteCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := newInviteCode()
		if len(code) != 8 {
			t.Fatalf("code %q has length %d, want 8", code, len(code))
		}
		if code != strings.ToUpper(code) {
			t.Errorf("code %q is not upper case", code)
		}
		if strings.Contains(code, "-") {
			t.Errorf("code %q contains a dash", code)
		}
		seen[code] = true
	}
	// 100 draws from a 16^8 space colliding would mean the source is broken.
	if len(seen) < 100 {
		t.Errorf("only %d distinct codes out of 100", len(seen))
	}
}

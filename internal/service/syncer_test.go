package service

import "testing"

func TestEvaluateFlagsOnlyDriftedConnections(t *testing.T) {
	s := NewPositionSyncer(3.0, 0.8)
	s.Report("r1", "c1", 10.0)
	s.Report("r1", "c2", 10.2)
	s.Report("r1", "c3", 9.8)
	s.Report("r1", "c4", 50.0)

	median, corrections, ok := s.Evaluate("r1", 4)
	if !ok {
		t.Fatal("ok = false, want evaluation to run")
	}
	// Even count takes the lower middle of {9.8, 10.0, 10.2, 50.0}.
	if median != 10.0 {
		t.Errorf("median = %v, want 10.0", median)
	}
	if len(corrections) != 1 {
		t.Fatalf("corrections = %v, want exactly one", corrections)
	}
	if corrections[0].ConnectionID != "c4" || corrections[0].Position != 10.0 {
		t.Errorf("correction = %+v, want c4 -> 10.0", corrections[0])
	}
}

func TestEvaluateWithinToleranceNoCorrections(t *testing.T) {
	s := NewPositionSyncer(3.0, 0.8)
	s.Report("r1", "c1", 12.0)
	s.Report("r1", "c2", 13.5)
	s.Report("r1", "c3", 11.0)

	_, corrections, ok := s.Evaluate("r1", 3)
	if !ok {
		t.Fatal("ok = false, want evaluation to run")
	}
	if len(corrections) != 0 {
		t.Errorf("corrections = %v, want none", corrections)
	}
}

func TestEvaluateBelowQuorum(t *testing.T) {
	s := NewPositionSyncer(3.0, 0.8)
	s.Report("r1", "c1", 10.0)
	s.Report("r1", "c2", 10.5)

	// 2 of 10 participants reported; quorum not met.
	if _, _, ok := s.Evaluate("r1", 10); ok {
		t.Error("ok = true below quorum, want false")
	}
	// The pending reports survive a skipped pass.
	s.Report("r1", "c3", 10.1)
	if _, _, ok := s.Evaluate("r1", 3); !ok {
		t.Error("ok = false at quorum, want true")
	}
}

func TestEvaluateNeedsTwoReports(t *testing.T) {
	s := NewPositionSyncer(3.0, 0.8)
	s.Report("r1", "c1", 10.0)
	if _, _, ok := s.Evaluate("r1", 1); ok {
		t.Error("ok = true with a single report, want false")
	}
}

func TestEvaluateClearsReportsAfterPass(t *testing.T) {
	s := NewPositionSyncer(3.0, 0.8)
	s.Report("r1", "c1", 10.0)
	s.Report("r1", "c2", 10.5)

	if _, _, ok := s.Evaluate("r1", 2); !ok {
		t.Fatal("first pass did not run")
	}
	if _, _, ok := s.Evaluate("r1", 2); ok {
		t.Error("second pass ran on a cleared set")
	}
}

func TestReportOverwritesPerConnection(t *testing.T) {
	s := NewPositionSyncer(3.0, 1.0)
	s.Report("r1", "c1", 5.0)
	s.Report("r1", "c1", 20.0)
	s.Report("r1", "c2", 20.4)

	median, corrections, ok := s.Evaluate("r1", 2)
	if !ok {
		t.Fatal("ok = false, want evaluation to run")
	}
	if median != 20.0 {
		t.Errorf("median = %v, want 20.0 (stale 5.0 replaced)", median)
	}
	if len(corrections) != 0 {
		t.Errorf("corrections = %v, want none", corrections)
	}
}

func TestForgetDropsPendingReports(t *testing.T) {
	s := NewPositionSyncer(3.0, 0.8)
	s.Report("r1", "c1", 10.0)
	s.Report("r1", "c2", 10.5)
	s.Forget("r1")
	if _, _, ok := s.Evaluate("r1", 2); ok {
		t.Error("evaluation ran after Forget")
	}
}

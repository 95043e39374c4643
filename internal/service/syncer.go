package service

import (
	"sort"
	"sync"
)

// Defaults for position reconciliation.
const (
	DefaultSyncTolerance = 3.0
	DefaultSyncQuorum    = 0.8
	minSyncReports       = 2
)

// PositionSyncer collects self-reported playback positions per room and
// detects clients that drifted from the group. It is best-effort
// convergence, not consensus: the majority wins even when the majority is
// wrong, and that is fine.
type PositionSyncer struct {
	mu      sync.Mutex
	reports map[string]map[string]float64 // roomID -> connectionID -> latest position

	tolerance float64
	quorum    float64
}

// Correction tells one connection to resync to the group position.
type Correction struct {
	ConnectionID string
	Position     float64
}

// NewPositionSyncer creates a syncer. Non-positive arguments fall back to
// the defaults.
func NewPositionSyncer(tolerance, quorum float64) *PositionSyncer {
	if tolerance <= 0 {
		tolerance = DefaultSyncTolerance
	}
	if quorum <= 0 || quorum > 1 {
		quorum = DefaultSyncQuorum
	}
	return &PositionSyncer{
		reports:   make(map[string]map[string]float64),
		tolerance: tolerance,
		quorum:    quorum,
	}
}

// Report records the latest position for a connection, overwriting any
// previous report from the same connection.
func (s *PositionSyncer) Report(roomID, connectionID string, position float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.reports[roomID]
	if room == nil {
		room = make(map[string]float64)
		s.reports[roomID] = room
	}
	room[connectionID] = position
}

// Evaluate runs a reconciliation pass when enough reports have accumulated:
// at least the quorum fraction of participantCount and at least two reports.
// The reference position is the median of the collected reports; for an even
// count the lower-middle element is taken. Reports further than the
// tolerance from the median produce a Correction for that connection only.
// The collected set is cleared after evaluation, whether or not anything was
// flagged. Returns ok=false when the threshold was not reached.
func (s *PositionSyncer) Evaluate(roomID string, participantCount int) (median float64, corrections []Correction, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := s.reports[roomID]
	n := len(room)
	if n < minSyncReports || float64(n) < s.quorum*float64(participantCount) {
		return 0, nil, false
	}

	positions := make([]float64, 0, n)
	for _, pos := range room {
		positions = append(positions, pos)
	}
	sort.Float64s(positions)
	median = positions[(n-1)/2]

	for connID, pos := range room {
		diff := pos - median
		if diff < 0 {
			diff = -diff
		}
		if diff > s.tolerance {
			corrections = append(corrections, Correction{ConnectionID: connID, Position: median})
		}
	}
	delete(s.reports, roomID)
	return median, corrections, true
}

// Forget drops any pending reports for a room (room closed or cleared).
func (s *PositionSyncer) Forget(roomID string) {
	s.mu.Lock()
	delete(s.reports, roomID)
	s.mu.Unlock()
}

package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/apodwall/internal/fault"
)

// Phase mirrors the scheduler's lifecycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseRunning:
		return "running"
	case PhaseStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Snapshot represents the latest agent activity available to the status view.
type Snapshot struct {
	Phase               Phase
	CycleStarted        time.Time
	LastFinished        time.Time
	NextRun             time.Time
	Cycles              int
	LastOutcome         string
	LastURL             string
	LastTitle           string
	LastError           error
	LastErrorKind       fault.Kind
	ConsecutiveFailures int // cancelled cycles are not counted
}

// IsFailing returns true when several cycles in a row have failed.
func (s Snapshot) IsFailing() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot. The scheduler writes,
// the status view reads.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// CycleStarted marks a cycle as in flight.
func (s *Store) CycleStarted(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Phase = PhaseRunning
	s.snapshot.CycleStarted = at
	s.snapshot.NextRun = time.Time{}
}

// CycleFinished records the end of a cycle. When err is non-nil the previous
// result fields are kept but the error is recorded for visibility.
func (s *Store) CycleFinished(at time.Time, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Phase = PhaseIdle
	s.snapshot.LastFinished = at
	s.snapshot.Cycles++
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastErrorKind = fault.KindOf(err)
		if !fault.IsCancelled(err) {
			s.snapshot.ConsecutiveFailures++
		}
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.LastErrorKind = fault.Unknown
	s.snapshot.ConsecutiveFailures = 0
}

// RecordResult stores what the last successful cycle decided.
func (s *Store) RecordResult(outcome, url, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.LastOutcome = outcome
	if url != "" {
		s.snapshot.LastURL = url
	}
	if title != "" {
		s.snapshot.LastTitle = title
	}
}

// Scheduled records when the next cycle will fire.
func (s *Store) Scheduled(next time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.NextRun = next
}

// Stopped marks the scheduler as terminated.
func (s *Store) Stopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Phase = PhaseStopped
	s.snapshot.NextRun = time.Time{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

package domain

import (
	"sync"
	"time"
)

// State is a step of the per-session recommendation workflow.
type State int

const (
	StateIdle State = iota
	StateRetrieving
	StateScoring
	StateReady
	StateExplaining
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRetrieving:
		return "retrieving"
	case StateScoring:
		return "scoring"
	case StateReady:
		return "ready"
	case StateExplaining:
		return "explaining"
	default:
		return "unknown"
	}
}

// Session is the state owned by one user: the workflow state and the last
// Candidate Set. Workflow steps hold Lock for their whole duration, so actions
// on one session run one at a time.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	state      State
	candidates *CandidateSet
}

// NewSession returns an Idle session.
func NewSession(id string) *Session {
	return &Session{ID: id, CreatedAt: time.Now()}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// The accessors below must be called with the session locked.

func (s *Session) State() State              { return s.state }
func (s *Session) SetState(st State)         { s.state = st }
func (s *Session) Candidates() *CandidateSet { return s.candidates }

// SetCandidates replaces the held Candidate Set.
func (s *Session) SetCandidates(cs *CandidateSet) {
	s.candidates = cs
}

// Snapshot returns the state and Candidate Set under the session lock.
func (s *Session) Snapshot() (State, *CandidateSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.candidates
}

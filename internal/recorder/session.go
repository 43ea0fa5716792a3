// Package recorder records play sessions: turn outcomes into the journal, raw
// stimuli into a JSONL log for replay, and a small state file remembering
// the last session and device.
package recorder

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/SeamusWaldron/cubeturn/internal/cube"
	"github.com/SeamusWaldron/cubeturn/internal/engine"
	"github.com/SeamusWaldron/cubeturn/internal/storage"
)

var (
	ErrAlreadyRecording = errors.New("recorder: session already in progress")
	ErrNotRecording     = errors.New("recorder: no session in progress")
)

// SessionState is the journal session lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateRecording
	StateEnded
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Session writes one journal session. ObserveTurn is meant to be passed to
// engine.WithTurnObserver.
type Session struct {
	sessions  *storage.SessionRepository
	turns     *storage.TurnRepository
	stateFile *StateFile
	log       logrus.FieldLogger

	mu        sync.Mutex
	state     SessionState
	sessionID string
	startTime time.Time
	counts    map[engine.Outcome]int
}

// NewSession creates a session recorder. stateFile may be nil.
func NewSession(db *storage.DB, stateFile *StateFile, log logrus.FieldLogger) *Session {
	return &Session{
		sessions:  storage.NewSessionRepository(db),
		turns:     storage.NewTurnRepository(db),
		stateFile: stateFile,
		log:       log,
		counts:    make(map[engine.Outcome]int),
	}
}

// Start opens a journal session.
func (s *Session) Start(params storage.NewSession) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRecording {
		return "", ErrAlreadyRecording
	}
	if params.StartedAt.IsZero() {
		params.StartedAt = time.Now()
	}

	id, err := s.sessions.Create(params)
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	s.sessionID = id
	s.startTime = params.StartedAt
	s.state = StateRecording
	s.counts = make(map[engine.Outcome]int)

	if s.stateFile != nil {
		if err := s.stateFile.SetLastSession(id); err != nil {
			s.log.WithError(err).Warn("failed to update state file")
		}
	}
	return id, nil
}

// SetScramble records the opening scramble in notation.
func (s *Session) SetScramble(faces []cube.Face) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return ErrNotRecording
	}
	return s.sessions.SetScramble(s.sessionID, Notation(faces))
}

// ObserveTurn journals a turn event. Errors are logged: the engine loop has
// nowhere to return them.
func (s *Session) ObserveTurn(ev engine.TurnEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return
	}
	s.counts[ev.Outcome]++

	_, err := s.turns.Create(storage.Turn{
		SessionID: s.sessionID,
		Seq:       ev.Seq,
		TsMs:      ev.At.Sub(s.startTime).Milliseconds(),
		Face:      ev.Face.String(),
		Direction: int(ev.Direction),
		Animated:  ev.Animated,
		Source:    ev.Source,
		Outcome:   ev.Outcome.String(),
		Recovered: ev.Recovered,
	})
	if err != nil {
		s.log.WithError(err).WithField("seq", ev.Seq).Error("failed to journal turn")
	}
}

// End closes the journal session.
func (s *Session) End(at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return ErrNotRecording
	}
	if err := s.sessions.End(s.sessionID, at); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	s.state = StateEnded
	return nil
}

// State returns the lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the current session ID.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// Count returns how many events with outcome o were journaled.
func (s *Session) Count(o engine.Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[o]
}

// Notation renders faces as space separated letters, e.g. "L U F".
func Notation(faces []cube.Face) string {
	parts := make([]string, len(faces))
	for i, f := range faces {
		parts[i] = f.Notation()
	}
	return strings.Join(parts, " ")
}

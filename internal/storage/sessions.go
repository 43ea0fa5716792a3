package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("storage: session not found")

// Fixed width so that text order is time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Session is one run of the puzzle.
type Session struct {
	SessionID    string
	StartedAt    time.Time
	EndedAt      *time.Time
	DurationMs   *int64
	Seed         uint64
	ScrambleText *string
	Source       string // play, replay, scramble
	DeviceName   *string
	AppVersion   *string
}

// NewSession describes a session to create.
type NewSession struct {
	StartedAt  time.Time
	Seed       uint64
	Scramble   string
	Source     string
	DeviceName string
	AppVersion string
}

// SessionRepository reads and writes sessions.
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a session repository.
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Create inserts a session and returns its ID.
func (r *SessionRepository) Create(s NewSession) (string, error) {
	id := uuid.New().String()
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now()
	}
	if s.Source == "" {
		s.Source = "play"
	}

	_, err := r.db.Exec(`
		INSERT INTO sessions (session_id, started_at, seed, scramble_text, source, device_name, app_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, s.StartedAt.UTC().Format(timeLayout), int64(s.Seed),
		nullable(s.Scramble), s.Source, nullable(s.DeviceName), nullable(s.AppVersion))
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return id, nil
}

// SetScramble records the faces picked by the opening scramble.
func (r *SessionRepository) SetScramble(id, scramble string) error {
	res, err := r.db.Exec("UPDATE sessions SET scramble_text = ? WHERE session_id = ?", nullable(scramble), id)
	if err != nil {
		return fmt.Errorf("failed to set scramble: %w", err)
	}
	return expectOne(res, id)
}

// End closes a session at endedAt.
func (r *SessionRepository) End(id string, endedAt time.Time) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	duration := endedAt.Sub(s.StartedAt).Milliseconds()

	_, err = r.db.Exec(`
		UPDATE sessions SET ended_at = ?, duration_ms = ? WHERE session_id = ?
	`, endedAt.UTC().Format(timeLayout), duration, id)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Get returns one session.
func (r *SessionRepository) Get(id string) (*Session, error) {
	row := r.db.QueryRow(`
		SELECT session_id, started_at, ended_at, duration_ms, seed, scramble_text, source, device_name, app_version
		FROM sessions WHERE session_id = ?
	`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, err
}

// List returns the most recent sessions, newest first.
func (r *SessionRepository) List(limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`
		SELECT session_id, started_at, ended_at, duration_ms, seed, scramble_text, source, device_name, app_version
		FROM sessions
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Latest returns the most recently started session.
func (r *SessionRepository) Latest() (*Session, error) {
	sessions, err := r.List(1)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, ErrSessionNotFound
	}
	return &sessions[0], nil
}

// Delete removes a session and its turns.
func (r *SessionRepository) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM sessions WHERE session_id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return expectOne(res, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	var (
		s       Session
		started string
		ended   *string
		seed    int64
	)
	err := row.Scan(&s.SessionID, &started, &ended, &s.DurationMs, &seed,
		&s.ScrambleText, &s.Source, &s.DeviceName, &s.AppVersion)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	s.Seed = uint64(seed)
	if s.StartedAt, err = time.Parse(timeLayout, started); err != nil {
		return nil, fmt.Errorf("bad started_at for session %s: %w", s.SessionID, err)
	}
	if ended != nil {
		t, err := time.Parse(timeLayout, *ended)
		if err != nil {
			return nil, fmt.Errorf("bad ended_at for session %s: %w", s.SessionID, err)
		}
		s.EndedAt = &t
	}
	return &s, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

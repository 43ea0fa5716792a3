package storage

import (
	"database/sql"
	"fmt"
)

// Turn is one turn outcome recorded during a session.
type Turn struct {
	TurnID    int64
	SessionID string
	Seq       int
	TsMs      int64 // milliseconds since the session started
	Face      string
	Direction int
	Animated  bool
	Source    string
	Outcome   string
	Recovered bool
}

// TurnRepository reads and writes turns.
type TurnRepository struct {
	db *DB
}

// NewTurnRepository creates a turn repository.
func NewTurnRepository(db *DB) *TurnRepository {
	return &TurnRepository{db: db}
}

const insertTurn = `
	INSERT INTO turns (session_id, seq, ts_ms, face, direction, animated, source, outcome, recovered)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

// Create inserts a turn and returns its ID.
func (r *TurnRepository) Create(t Turn) (int64, error) {
	res, err := r.db.Exec(insertTurn, turnArgs(t)...)
	if err != nil {
		return 0, fmt.Errorf("failed to create turn: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get turn ID: %w", err)
	}
	return id, nil
}

// CreateBatch inserts turns in one transaction.
func (r *TurnRepository) CreateBatch(turns []Turn) error {
	if len(turns) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(insertTurn)
		if err != nil {
			return fmt.Errorf("failed to prepare turn insert: %w", err)
		}
		defer stmt.Close()

		for _, t := range turns {
			if _, err := stmt.Exec(turnArgs(t)...); err != nil {
				return fmt.Errorf("failed to insert turn %d: %w", t.Seq, err)
			}
		}
		return nil
	})
}

func turnArgs(t Turn) []any {
	return []any{t.SessionID, t.Seq, t.TsMs, t.Face, t.Direction, t.Animated, t.Source, t.Outcome, t.Recovered}
}

// GetBySession returns a session's turns in insertion order.
func (r *TurnRepository) GetBySession(sessionID string) ([]Turn, error) {
	rows, err := r.db.Query(`
		SELECT turn_id, session_id, seq, ts_ms, face, direction, animated, source, outcome, recovered
		FROM turns
		WHERE session_id = ?
		ORDER BY turn_id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		err := rows.Scan(&t.TurnID, &t.SessionID, &t.Seq, &t.TsMs, &t.Face, &t.Direction,
			&t.Animated, &t.Source, &t.Outcome, &t.Recovered)
		if err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// CountByOutcome counts a session's turns per outcome.
func (r *TurnRepository) CountByOutcome(sessionID string) (map[string]int, error) {
	rows, err := r.db.Query(`
		SELECT outcome, COUNT(*) FROM turns WHERE session_id = ? GROUP BY outcome
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to count turns: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, fmt.Errorf("failed to scan turn count: %w", err)
		}
		counts[outcome] = n
	}
	return counts, rows.Err()
}

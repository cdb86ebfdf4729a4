// Package store handles SQLite persistence of practice sessions.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for session history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			session_id TEXT NOT NULL,
			challenge TEXT NOT NULL,
			notes TEXT NOT NULL,
			correct INTEGER NOT NULL,
			at TEXT NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_session ON results(session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_results_challenge ON results(challenge);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// BeginSession inserts a new session row.
func (s *Store) BeginSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		id, at.Format(time.RFC3339Nano))
	return err
}

// EndSession stamps the session's end time.
func (s *Store) EndSession(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ? WHERE id = ?`,
		at.Format(time.RFC3339Nano), id)
	return err
}

// InsertResult stores one completed challenge attempt.
func (s *Store) InsertResult(ctx context.Context, sessionID, challenge string, noteIDs []string, correct bool, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO results (session_id, challenge, notes, correct, at)
		 VALUES (?, ?, ?, ?, ?)`,
		sessionID, challenge, strings.Join(noteIDs, " "), correct, at.Format(time.RFC3339Nano))
	return err
}

// SessionSummary aggregates one session for the stats view.
type SessionSummary struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time // zero when the session never ended cleanly
	Attempts  int
	Correct   int
}

// ListSessions returns session aggregates, most recent first.
func (s *Store) ListSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT s.id, s.started_at, COALESCE(s.ended_at, ''),
		COUNT(r.session_id), COALESCE(SUM(r.correct), 0)
		FROM sessions s
		LEFT JOIN results r ON r.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []SessionSummary
	for rows.Next() {
		var sum SessionSummary
		var startedAt, endedAt string
		if err := rows.Scan(&sum.ID, &startedAt, &endedAt, &sum.Attempts, &sum.Correct); err != nil {
			return nil, err
		}
		if sum.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, err
		}
		if endedAt != "" {
			if sum.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
				return nil, err
			}
		}
		sessions = append(sessions, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// ChallengeAccuracy aggregates attempts per challenge description.
type ChallengeAccuracy struct {
	Challenge string
	Attempts  int
	Correct   int
}

// AccuracyByChallenge aggregates all recorded attempts grouped by
// challenge, weakest first.
func (s *Store) AccuracyByChallenge(ctx context.Context) ([]ChallengeAccuracy, error) {
	query := `SELECT challenge, COUNT(*), SUM(correct)
		FROM results
		GROUP BY challenge
		ORDER BY CAST(SUM(correct) AS REAL) / COUNT(*) ASC, COUNT(*) DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []ChallengeAccuracy
	for rows.Next() {
		var acc ChallengeAccuracy
		if err := rows.Scan(&acc.Challenge, &acc.Attempts, &acc.Correct); err != nil {
			return nil, err
		}
		result = append(result, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

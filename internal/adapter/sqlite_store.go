package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	m "spectra.dev/pkg/spectra/internal/model"
)

// SQLiteSessionStore persists sessions in a single sqlite file.
type SQLiteSessionStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

// OpenSQLiteSessionStore opens (and migrates) the database at path.
func OpenSQLiteSessionStore(ctx context.Context, path string) (*SQLiteSessionStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if err := createSessionTables(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite %s: %w", path, err)
	}

	slog.Debug("Opened session store", "path", path)

	return &SQLiteSessionStore{path: path, db: db}, nil
}

// SavePopulation upserts the snapshot of the session.
func (s *SQLiteSessionStore) SavePopulation(ctx context.Context, pop *m.Population) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := encodePayload(pop)
	if err != nil {
		return err
	}

	best := 0.0
	if b := pop.Best(); b != nil {
		best = b.Fitness
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO populations (session_id, generation, best_fitness, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			generation = excluded.generation,
			best_fitness = excluded.best_fitness,
			payload = excluded.payload
	`, pop.SessionID, pop.Generation, best, payload)
	if err != nil {
		return fmt.Errorf("save population %s: %w", pop.SessionID, err)
	}

	return touchSession(ctx, db, pop.SessionID)
}

// GetPopulation loads the snapshot of the session.
func (s *SQLiteSessionStore) GetPopulation(ctx context.Context, sessionID string) (*m.Population, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, false, err
	}

	var payload []byte

	err = db.QueryRowContext(ctx, `SELECT payload FROM populations WHERE session_id = ?`, sessionID).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}

		return nil, false, err
	}

	pop, err := decodePayload[m.Population](payload)
	if err != nil {
		return nil, false, fmt.Errorf("decode population %s: %w", sessionID, err)
	}

	return &pop, true, nil
}

// SaveAnalysis upserts an analysis.
func (s *SQLiteSessionStore) SaveAnalysis(ctx context.Context, analysis m.FaultLocalizationAnalysis) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := encodePayload(analysis)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO analyses (id, session_id, created_at, payload)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			session_id = excluded.session_id,
			created_at = excluded.created_at,
			payload = excluded.payload
	`, analysis.ID, analysis.SessionID, analysis.CreatedAt.UnixNano(), payload)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", analysis.ID, err)
	}

	return touchSession(ctx, db, analysis.SessionID)
}

// GetAnalysis loads an analysis by id.
func (s *SQLiteSessionStore) GetAnalysis(ctx context.Context, id string) (m.FaultLocalizationAnalysis, bool, error) {
	return s.queryAnalysis(ctx, `SELECT payload FROM analyses WHERE id = ?`, id)
}

// LatestAnalysis loads the newest analysis of the session.
func (s *SQLiteSessionStore) LatestAnalysis(ctx context.Context, sessionID string) (m.FaultLocalizationAnalysis, bool, error) {
	return s.queryAnalysis(ctx, `
		SELECT payload FROM analyses WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1
	`, sessionID)
}

func (s *SQLiteSessionStore) queryAnalysis(ctx context.Context, query string, arg string) (m.FaultLocalizationAnalysis, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return m.FaultLocalizationAnalysis{}, false, err
	}

	var payload []byte

	err = db.QueryRowContext(ctx, query, arg).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m.FaultLocalizationAnalysis{}, false, nil
		}

		return m.FaultLocalizationAnalysis{}, false, err
	}

	analysis, err := decodePayload[m.FaultLocalizationAnalysis](payload)
	if err != nil {
		return m.FaultLocalizationAnalysis{}, false, fmt.Errorf("decode analysis: %w", err)
	}

	return analysis, true, nil
}

// SaveExecutions appends results in one transaction.
func (s *SQLiteSessionStore) SaveExecutions(ctx context.Context, sessionID string, results []m.TestExecutionResult) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() { _ = tx.Rollback() }()

	for _, r := range results {
		payload, err := encodePayload(r)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `INSERT INTO executions (session_id, payload) VALUES (?, ?)`, sessionID, payload); err != nil {
			return fmt.Errorf("save execution %s: %w", r.TestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return touchSession(ctx, db, sessionID)
}

// GetExecutions loads the results of the session in save order.
func (s *SQLiteSessionStore) GetExecutions(ctx context.Context, sessionID string) ([]m.TestExecutionResult, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM executions WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rows.Close() }()

	results := []m.TestExecutionResult{}

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}

		r, err := decodePayload[m.TestExecutionResult](payload)
		if err != nil {
			return nil, err
		}

		results = append(results, r)
	}

	return results, rows.Err()
}

// ListSessions summarizes every session, most recently updated first.
func (s *SQLiteSessionStore) ListSessions(ctx context.Context) ([]m.SessionInfo, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT s.id, s.updated_at,
			COALESCE(p.generation, 0), COALESCE(p.best_fitness, 0),
			(SELECT COUNT(*) FROM executions e WHERE e.session_id = s.id),
			(SELECT COUNT(*) FROM analyses a WHERE a.session_id = s.id)
		FROM sessions s
		LEFT JOIN populations p ON p.session_id = s.id
	`)
	if err != nil {
		return nil, err
	}

	defer func() { _ = rows.Close() }()

	infos := []m.SessionInfo{}

	for rows.Next() {
		var (
			info    m.SessionInfo
			updated int64
		)

		if err := rows.Scan(&info.ID, &updated, &info.Generation, &info.BestFitness, &info.Executions, &info.Analyses); err != nil {
			return nil, err
		}

		info.UpdatedAt = time.Unix(0, updated)
		infos = append(infos, info)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortSessions(infos)

	return infos, nil
}

// DeleteSession drops every row of the session in one transaction.
func (s *SQLiteSessionStore) DeleteSession(ctx context.Context, sessionID string) (bool, error) {
	db, err := s.getDB()
	if err != nil {
		return false, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}

	defer func() { _ = tx.Rollback() }()

	for _, query := range []string{
		`DELETE FROM populations WHERE session_id = ?`,
		`DELETE FROM analyses WHERE session_id = ?`,
		`DELETE FROM executions WHERE session_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, query, sessionID); err != nil {
			return false, fmt.Errorf("delete session %s: %w", sessionID, err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	return deleted > 0, nil
}

// Close releases the database.
func (s *SQLiteSessionStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil

	return err
}

func (s *SQLiteSessionStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("sqlite session store is closed")
	}

	return s.db, nil
}

func touchSession(ctx context.Context, db *sql.DB, sessionID string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, updated_at) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at
	`, sessionID, time.Now().UnixNano())

	return err
}

func createSessionTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			updated_at INTEGER NOT NULL
		);
		CREATE TABLE IF NOT EXISTS populations (
			session_id TEXT PRIMARY KEY,
			generation INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS analyses_session ON analyses (session_id, created_at);
		CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS executions_session ON executions (session_id);
	`)

	return err
}

package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"

	"github.com/bnema/shrink/internal/port"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists user and compression-job history. The queue itself stays
// in memory; these rows are an audit trail, not restart state.
type Store struct {
	db *sql.DB
}

var hookOnce sync.Once

func registerHook() {
	hookOnce.Do(func() {
		sqlite.RegisterConnectionHook(func(conn sqlite.ExecQuerierContext, dsn string) error {
			pragmas := []string{
				"PRAGMA journal_mode = WAL",
				"PRAGMA busy_timeout = 5000",
				"PRAGMA synchronous = NORMAL",
				"PRAGMA foreign_keys = ON",
			}
			for _, p := range pragmas {
				if _, err := conn.ExecContext(context.Background(), p, nil); err != nil {
					return fmt.Errorf("execute %s: %w", p, err)
				}
			}
			return nil
		})
	})
}

func NewStore(dataDir string) (*Store, error) {
	registerHook()

	dbPath := filepath.Join(dataDir, "shrink.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite (WAL allows concurrent reads but only one writer)
	db.SetMaxOpenConns(1)

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) UpsertUser(telegramID int64, username, firstName, lastName string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO users (telegram_id, username, first_name, last_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id`,
		telegramID, username, firstName, lastName,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert user %d: %w", telegramID, err)
	}
	return id, nil
}

func (s *Store) CreateJob(userID int64, filename string, sizeMB float64) (int64, error) {
	var id int64
	err := s.db.QueryRow(`
		INSERT INTO compression_jobs (user_id, original_file_name, original_file_size, status)
		VALUES (?, ?, ?, 'pending')
		RETURNING id`,
		userID, filename, sizeMB,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create job for user %d: %w", userID, err)
	}
	return id, nil
}

func (s *Store) MarkStarted(jobID int64) error {
	return s.setStatus(jobID, `
		UPDATE compression_jobs
		SET status = 'processing', started_at = ?
		WHERE id = ?`,
		time.Now().UTC(), jobID)
}

func (s *Store) MarkCompleted(jobID int64, compressedMB, ratio, processingSeconds float64) error {
	if jobID == 0 {
		return nil
	}
	_, err := s.db.Exec(`
		UPDATE compression_jobs
		SET status = 'completed',
			compressed_file_size = ?,
			compression_ratio = ?,
			processing_time = ?,
			completed_at = ?
		WHERE id = ?`,
		compressedMB, ratio, processingSeconds, time.Now().UTC(), jobID)
	if err != nil {
		return fmt.Errorf("mark job %d completed: %w", jobID, err)
	}
	return nil
}

func (s *Store) MarkFailed(jobID int64, errMsg string) error {
	return s.setStatus(jobID, `
		UPDATE compression_jobs
		SET status = 'failed', error_message = ?, completed_at = ?
		WHERE id = ?`,
		errMsg, time.Now().UTC(), jobID)
}

func (s *Store) MarkCancelled(jobID int64) error {
	return s.setStatus(jobID, `
		UPDATE compression_jobs
		SET status = 'canceled', completed_at = ?
		WHERE id = ?`,
		time.Now().UTC(), jobID)
}

// setStatus runs a status-transition update. Job id 0 means history
// recording failed at submission time; transitions on it are silent no-ops.
func (s *Store) setStatus(jobID int64, query string, args ...any) error {
	if jobID == 0 {
		return nil
	}
	if _, err := s.db.Exec(query, args...); err != nil {
		return fmt.Errorf("update job %d: %w", jobID, err)
	}
	return nil
}

var _ port.History = (*Store)(nil)

package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages run persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// timeLayout has fixed-width fractions so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

const runColumns = "id, source, task, model, language, status, stage, error_kind, error_message, detected_language, language_name, run_dir, archive_path, video_path, published_url, partial, created_at, updated_at"

// Open initializes or connects to the run database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("run store path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure run store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Create inserts a new run. Missing timestamps and status are filled in.
func (s *Store) Create(ctx context.Context, run *Run) error {
	if run == nil || strings.TrimSpace(run.ID) == "" {
		return errors.New("run id required")
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.UpdatedAt = now
	if run.Status == "" {
		run.Status = StatusPending
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (`+runColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Source,
		run.Task,
		run.Model,
		nullableString(run.Language),
		run.Status,
		nullableString(run.Stage),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		nullableString(run.DetectedLanguage),
		nullableString(run.LanguageName),
		nullableString(run.RunDir),
		nullableString(run.ArchivePath),
		nullableString(run.VideoPath),
		nullableString(run.PublishedURL),
		boolToInt(run.Partial),
		run.CreatedAt.Format(timeLayout),
		run.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Update persists changes to an existing run.
func (s *Store) Update(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	run.UpdatedAt = time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE runs
         SET status = ?, stage = ?, error_kind = ?, error_message = ?,
             detected_language = ?, language_name = ?, run_dir = ?, archive_path = ?,
             video_path = ?, published_url = ?, partial = ?, updated_at = ?
         WHERE id = ?`,
		run.Status,
		nullableString(run.Stage),
		nullableString(run.ErrorKind),
		nullableString(run.ErrorMessage),
		nullableString(run.DetectedLanguage),
		nullableString(run.LanguageName),
		nullableString(run.RunDir),
		nullableString(run.ArchivePath),
		nullableString(run.VideoPath),
		nullableString(run.PublishedURL),
		boolToInt(run.Partial),
		run.UpdatedAt.Format(timeLayout),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update run %s: not found", run.ID)
	}
	return nil
}

// Get fetches a run by id, or a unique id prefix. Returns nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY (id = ?) DESC LIMIT 2`,
		id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var found []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(found) == 0:
		return nil, nil
	case found[0].ID == id || len(found) == 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
}

// List returns the most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ActiveIDs returns the ids of runs that have not reached a terminal status.
func (s *Store) ActiveIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE status NOT IN (?, ?)`, StatusCompleted, StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("active runs: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// FailInterrupted marks every non-terminal run as failed. Call it at startup
// before new runs begin; it returns the number of rows changed.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET status = ?, error_kind = COALESCE(error_kind, 'Interrupted'), error_message = ?, updated_at = ?
         WHERE status NOT IN (?, ?)`,
		StatusFailed,
		InterruptedReason,
		time.Now().UTC().Format(timeLayout),
		StatusCompleted,
		StatusFailed,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Stats returns a count of runs grouped by status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

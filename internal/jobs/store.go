package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"hookreel/internal/composition"
	"hookreel/internal/config"
	"hookreel/internal/services"
)

// Store persists composition jobs in SQLite. It satisfies
// composition.Recorder.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the job database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the job database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Save inserts or updates a job.
func (s *Store) Save(ctx context.Context, job *composition.Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	if strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}
	row, err := encodeJob(job)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO composition_jobs (
            id, composition_id, snapshot_json, metadata_json, captions_json, status, attempt,
            combined_url, artifact_url, error_message, failure_kind, cancel_requested,
            resubmitted_from, catalog_id, publish_error, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            status = excluded.status,
            attempt = excluded.attempt,
            combined_url = excluded.combined_url,
            artifact_url = excluded.artifact_url,
            error_message = excluded.error_message,
            failure_kind = excluded.failure_kind,
            cancel_requested = excluded.cancel_requested,
            catalog_id = excluded.catalog_id,
            publish_error = excluded.publish_error,
            updated_at = excluded.updated_at`,
		job.ID,
		nullableString(job.CompositionID),
		row.snapshot,
		nullableString(row.metadata),
		row.captions,
		string(job.Status),
		job.Attempt,
		nullableString(job.CombinedURL),
		nullableString(job.ArtifactURL),
		nullableString(job.Error),
		nullableString(job.FailureKind),
		boolToInt(job.CancelRequested),
		nullableString(job.ResubmittedFrom),
		nullableString(job.CatalogID),
		nullableString(job.PublishError),
		formatTime(job.CreatedAt),
		formatTime(job.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("save job %s: %w", job.ID, err)
	}
	return nil
}

// Get fetches a job by exact id. It returns nil, nil when absent.
func (s *Store) Get(ctx context.Context, id string) (*composition.Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM composition_jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Resolve finds a job by id or unique id prefix.
func (s *Store) Resolve(ctx context.Context, idOrPrefix string) (*composition.Job, error) {
	key := strings.TrimSpace(idOrPrefix)
	if key == "" {
		return nil, services.Wrap(services.ErrValidation, "jobs", "resolve", "job id is required", nil)
	}
	if job, err := s.Get(ctx, key); err != nil || job != nil {
		return job, err
	}

	pattern := escapeLike(key) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM composition_jobs WHERE id LIKE ? ESCAPE '\' ORDER BY created_at LIMIT 2`, pattern)
	if err != nil {
		return nil, fmt.Errorf("resolve job: %w", err)
	}
	defer rows.Close()
	matches, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, services.Wrap(services.ErrNotFound, "jobs", "resolve", fmt.Sprintf("no job matches %q", key), nil)
	case 1:
		return matches[0], nil
	default:
		return nil, services.Wrap(services.ErrValidation, "jobs", "resolve", fmt.Sprintf("job prefix %q is ambiguous", key), nil)
	}
}

// List returns jobs newest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...composition.Status) ([]*composition.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM composition_jobs`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// ListByComposition returns a composition's jobs oldest first.
func (s *Store) ListByComposition(ctx context.Context, compositionID string) ([]*composition.Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM composition_jobs WHERE composition_id = ? ORDER BY created_at, id`, compositionID)
	if err != nil {
		return nil, fmt.Errorf("list composition jobs: %w", err)
	}
	defer rows.Close()
	return scanJobs(rows)
}

// StatusCounts returns the number of jobs per status.
func (s *Store) StatusCounts(ctx context.Context) (map[composition.Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM composition_jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	defer rows.Close()
	counts := make(map[composition.Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[composition.Status(status)] = count
	}
	return counts, rows.Err()
}

// RemoveCompleted deletes Complete jobs last updated before cutoff and
// returns how many were removed.
func (s *Store) RemoveCompleted(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM composition_jobs WHERE status = ? AND updated_at < ?`,
		string(composition.StatusComplete), formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("remove completed jobs: %w", err)
	}
	return res.RowsAffected()
}

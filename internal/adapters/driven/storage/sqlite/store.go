package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/slidecast/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driven"
	"github.com/custodia-labs/slidecast/internal/logger"
)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store is a unified SQLite-based storage that backs the run history
// and the extraction cache through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.slidecast/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".slidecast", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// RunStore returns a RunStore interface backed by this store.
func (s *Store) RunStore() driven.RunStore {
	return &runStore{store: s}
}

// ExtractionCache returns an ExtractionCache interface backed by this store.
func (s *Store) ExtractionCache() driven.ExtractionCache {
	return &extractionCache{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Run Store ====================

// runStore implements driven.RunStore.
type runStore struct {
	store *Store
}

var _ driven.RunStore = (*runStore)(nil)

// SaveRun inserts or updates a run.
func (s *runStore) SaveRun(ctx context.Context, run *domain.PipelineRun) error {
	configJSON, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	stagesJSON, err := json.Marshal(run.Stages)
	if err != nil {
		return fmt.Errorf("marshalling stages: %w", err)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO runs
			(id, document_id, document_path, config, stage, stages, error, workspace_dir, video_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			document_path = excluded.document_path,
			config = excluded.config,
			stage = excluded.stage,
			stages = excluded.stages,
			error = excluded.error,
			workspace_dir = excluded.workspace_dir,
			video_path = excluded.video_path,
			updated_at = excluded.updated_at
	`, run.ID, run.DocumentID, run.DocumentPath, string(configJSON), string(run.Stage),
		string(stagesJSON), run.Error, run.WorkspaceDir, run.VideoPath,
		run.CreatedAt, run.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *runStore) GetRun(ctx context.Context, id string) (*domain.PipelineRun, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, document_path, config, stage, stages, error, workspace_dir, video_path, created_at, updated_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return run, nil
}

// ListRuns returns runs ordered newest first. A limit below 1 returns
// all runs.
func (s *runStore) ListRuns(ctx context.Context, limit int) ([]*domain.PipelineRun, error) {
	if limit < 1 {
		limit = -1 // SQLite treats a negative LIMIT as unlimited
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, document_path, config, stage, stages, error, workspace_dir, video_path, created_at, updated_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.PipelineRun //nolint:prealloc // size unknown from query
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run record. Workspace artifacts on disk are not
// touched.
func (s *runStore) DeleteRun(ctx context.Context, id string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// scanRun scans one run row via the given scan function.
func scanRun(scan func(dest ...any) error) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	var configJSON, stage, stagesJSON string

	if err := scan(&run.ID, &run.DocumentID, &run.DocumentPath, &configJSON, &stage,
		&stagesJSON, &run.Error, &run.WorkspaceDir, &run.VideoPath,
		&run.CreatedAt, &run.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("scanning run: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := json.Unmarshal([]byte(stagesJSON), &run.Stages); err != nil {
		return nil, fmt.Errorf("unmarshalling stages: %w", err)
	}
	if run.Stages == nil {
		run.Stages = make(map[domain.Stage]*domain.StageRecord)
	}
	run.Stage = domain.Stage(stage)

	return &run, nil
}

// ==================== Extraction Cache ====================

// extractionCache implements driven.ExtractionCache.
type extractionCache struct {
	store *Store
}

var _ driven.ExtractionCache = (*extractionCache)(nil)

// Get retrieves the entry for a document.
func (c *extractionCache) Get(ctx context.Context, documentID string) (*domain.CachedExtraction, error) {
	row := c.store.db.QueryRowContext(ctx, `
		SELECT document_id, text, page_count, figures, failure_message, cached_at
		FROM extractions WHERE document_id = ?
	`, documentID)

	var entry domain.CachedExtraction
	var text, figuresJSON, failureMessage string
	var pageCount int
	if err := row.Scan(&entry.DocumentID, &text, &pageCount, &figuresJSON,
		&failureMessage, &entry.CachedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning extraction: %w", err)
	}

	if failureMessage != "" {
		entry.FailureMessage = failureMessage
		return &entry, nil
	}

	result := &domain.ExtractionResult{
		DocumentID: entry.DocumentID,
		Text:       text,
		PageCount:  pageCount,
	}
	if figuresJSON != "" && figuresJSON != jsonNull {
		if err := json.Unmarshal([]byte(figuresJSON), &result.Figures); err != nil {
			return nil, fmt.Errorf("unmarshalling figures: %w", err)
		}
	}
	entry.Result = result

	return &entry, nil
}

// PutResult stores a successful extraction, replacing any existing entry.
// The result is fingerprinted against the last one recorded for the
// document; a difference is logged as a warning. Fingerprints live in
// their own table so explicit cache clears do not erase them.
func (c *extractionCache) PutResult(ctx context.Context, result *domain.ExtractionResult) error {
	figuresJSON, err := json.Marshal(result.Figures)
	if err != nil {
		return fmt.Errorf("marshalling figures: %w", err)
	}

	fingerprint := result.Fingerprint()
	var previous string
	err = c.store.db.QueryRowContext(ctx,
		"SELECT fingerprint FROM extraction_fingerprints WHERE document_id = ?",
		result.DocumentID).Scan(&previous)
	switch {
	case err == sql.ErrNoRows:
		// First extraction of this document.
	case err != nil:
		return fmt.Errorf("reading extraction fingerprint: %w", err)
	case previous != fingerprint:
		logger.Warn("Extraction result for %s differs from the previous one; the OCR service is not fully deterministic", result.DocumentID)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO extractions
			(document_id, text, page_count, figure_count, figures, failure_message, cached_at)
		VALUES (?, ?, ?, ?, ?, '', ?)
		ON CONFLICT(document_id) DO UPDATE SET
			text = excluded.text,
			page_count = excluded.page_count,
			figure_count = excluded.figure_count,
			figures = excluded.figures,
			failure_message = '',
			cached_at = excluded.cached_at
	`, result.DocumentID, result.Text, result.PageCount, len(result.Figures),
		string(figuresJSON), time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving extraction: %w", err)
	}

	_, err = c.store.db.ExecContext(ctx, `
		INSERT INTO extraction_fingerprints (document_id, fingerprint, recorded_at)
		VALUES (?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			recorded_at = excluded.recorded_at
	`, result.DocumentID, fingerprint, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving extraction fingerprint: %w", err)
	}
	return nil
}

// PutFailure stores a permanent failure, replacing any existing entry.
func (c *extractionCache) PutFailure(ctx context.Context, documentID, message string) error {
	_, err := c.store.db.ExecContext(ctx, `
		INSERT INTO extractions
			(document_id, text, page_count, figure_count, figures, failure_message, cached_at)
		VALUES (?, '', 0, 0, 'null', ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			text = '',
			page_count = 0,
			figure_count = 0,
			figures = 'null',
			failure_message = excluded.failure_message,
			cached_at = excluded.cached_at
	`, documentID, message, time.Now().UTC())

	if err != nil {
		return fmt.Errorf("saving extraction failure: %w", err)
	}
	return nil
}

// Delete removes the entry for a document.
func (c *extractionCache) Delete(ctx context.Context, documentID string) error {
	result, err := c.store.db.ExecContext(ctx, "DELETE FROM extractions WHERE document_id = ?", documentID)
	if err != nil {
		return fmt.Errorf("deleting extraction: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List summarises all entries, newest first. Figure image data is not
// loaded; the summary reads counts and sizes only.
func (c *extractionCache) List(ctx context.Context) ([]domain.CacheSummary, error) {
	rows, err := c.store.db.QueryContext(ctx, `
		SELECT document_id, failure_message, page_count, figure_count, LENGTH(text), cached_at
		FROM extractions
		ORDER BY cached_at DESC, document_id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying extractions: %w", err)
	}
	defer rows.Close()

	var summaries []domain.CacheSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var summary domain.CacheSummary
		var failureMessage string
		if err := rows.Scan(&summary.DocumentID, &failureMessage, &summary.Pages,
			&summary.Figures, &summary.TextBytes, &summary.CachedAt); err != nil {
			return nil, fmt.Errorf("scanning extraction summary: %w", err)
		}
		summary.Failed = failureMessage != ""
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating extractions: %w", err)
	}

	return summaries, nil
}

// Clear removes all entries.
func (c *extractionCache) Clear(ctx context.Context) error {
	if _, err := c.store.db.ExecContext(ctx, "DELETE FROM extractions"); err != nil {
		return fmt.Errorf("clearing extractions: %w", err)
	}
	return nil
}

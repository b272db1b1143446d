// Package registry persists the catalog of generated projects in SQLite.
// The registry is append-mostly: synthesis upserts one record per project,
// the HTTP surface lists and fetches them.
package registry

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound reports a project ID absent from the registry.
var ErrNotFound = errors.New("project not found")

// ProjectRecord is one generated project.
type ProjectRecord struct {
	ID         string    `json:"id"`
	EntityName string    `json:"entityName"`
	CreatedAt  time.Time `json:"createdAt"`
	Status     string    `json:"status"`
	Schema     string    `json:"schema"`
	Path       string    `json:"path"`
}

// Registry is a SQLite-backed project catalog. Thread-safe: the mutex
// serializes the upsert cycle so concurrent syntheses never interleave
// partial writes.
type Registry struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or opens the registry database at dbPath, creating parent
// directories and the projects table as needed.
func Open(dbPath string) (*Registry, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create registry dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open registry db: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000; PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure registry db: %w", err)
	}

	r := &Registry{db: db}
	if err := r.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure registry schema: %w", err)
	}
	return r, nil
}

func (r *Registry) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		entity_name TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		status TEXT NOT NULL,
		schema TEXT NOT NULL,
		path TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_projects_created ON projects(created_at);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Upsert inserts or replaces one project record. A zero CreatedAt is filled
// with the current time.
func (r *Registry) Upsert(rec ProjectRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO projects (id, entity_name, created_at, status, schema, path)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.EntityName, rec.CreatedAt, rec.Status, rec.Schema, rec.Path,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert project %s: %w", rec.ID, err)
	}
	return nil
}

// List returns all project records, newest first.
func (r *Registry) List() ([]ProjectRecord, error) {
	rows, err := r.db.Query(
		`SELECT id, entity_name, created_at, status, schema, path
		 FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var records []ProjectRecord
	for rows.Next() {
		var rec ProjectRecord
		if err := rows.Scan(&rec.ID, &rec.EntityName, &rec.CreatedAt, &rec.Status, &rec.Schema, &rec.Path); err != nil {
			return nil, fmt.Errorf("failed to scan project row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read project rows: %w", err)
	}
	return records, nil
}

// Get returns one project record by ID.
func (r *Registry) Get(id string) (ProjectRecord, error) {
	var rec ProjectRecord
	err := r.db.QueryRow(
		`SELECT id, entity_name, created_at, status, schema, path
		 FROM projects WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.EntityName, &rec.CreatedAt, &rec.Status, &rec.Schema, &rec.Path)
	if errors.Is(err, sql.ErrNoRows) {
		return ProjectRecord{}, ErrNotFound
	}
	if err != nil {
		return ProjectRecord{}, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return rec, nil
}

// Close releases the underlying database handle.
func (r *Registry) Close() error {
	return r.db.Close()
}

// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/redlinehq/redline/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS passages (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		title TEXT,
		source_url TEXT,
		token_count INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_passages_source_url ON passages(source_url);

	CREATE TABLE IF NOT EXISTS reports (
		task_id TEXT PRIMARY KEY,
		process TEXT,
		body TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
	`
	_, err := db.Exec(schema)
	return err
}

// ReplacePassages atomically replaces all passage rows with a new generation.
// The delete and inserts run in one transaction so readers never see a mix of
// generations.
func (s *SQLiteStorage) ReplacePassages(ctx context.Context, passages []models.Passage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM passages"); err != nil {
		return fmt.Errorf("clear passages: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO passages (id, text, title, source_url, token_count, chunk_index)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range passages {
		if _, err := stmt.ExecContext(ctx, p.ID, p.Text, p.Title, p.SourceURL, p.TokenCount, p.ChunkIndex); err != nil {
			return fmt.Errorf("insert passage %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// GetPassage returns a passage by ID.
func (s *SQLiteStorage) GetPassage(ctx context.Context, id string) (*models.Passage, error) {
	var p models.Passage
	err := s.db.QueryRowContext(ctx,
		`SELECT id, text, title, source_url, token_count, chunk_index FROM passages WHERE id = ?`, id,
	).Scan(&p.ID, &p.Text, &p.Title, &p.SourceURL, &p.TokenCount, &p.ChunkIndex)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("passage %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPassages returns all passages ordered by source and chunk index.
func (s *SQLiteStorage) ListPassages(ctx context.Context) ([]models.Passage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, title, source_url, token_count, chunk_index
		 FROM passages ORDER BY source_url, chunk_index`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Passage
	for rows.Next() {
		var p models.Passage
		if err := rows.Scan(&p.ID, &p.Text, &p.Title, &p.SourceURL, &p.TokenCount, &p.ChunkIndex); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPassages returns the number of indexed passages.
func (s *SQLiteStorage) CountPassages(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n)
	return n, err
}

// SaveReport stores a finished report as JSON keyed by task ID.
func (s *SQLiteStorage) SaveReport(ctx context.Context, report *models.Report) error {
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	body, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO reports (task_id, process, body, created_at) VALUES (?, ?, ?, ?)`,
		report.TaskID, report.Process, string(body), report.CreatedAt)
	return err
}

// GetReport returns a stored report by task ID.
func (s *SQLiteStorage) GetReport(ctx context.Context, taskID string) (*models.Report, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM reports WHERE task_id = ?", taskID).Scan(&body)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report %s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	var report models.Report
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// CountReports returns the number of stored reports.
func (s *SQLiteStorage) CountReports(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reports").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

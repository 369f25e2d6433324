// SQLite transcript storage.
//
// Information Hiding:
// - SQLite connection management hidden behind TranscriptStorage
// - Schema and migration details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStorage implements TranscriptStorage using SQLite.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS transcripts (
			id TEXT PRIMARY KEY,
			topic TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_transcripts_created
		ON transcripts(created_at DESC);

		CREATE TABLE IF NOT EXISTS transcript_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transcript_id TEXT NOT NULL,
			entry_index INTEGER NOT NULL,
			member TEXT NOT NULL,
			role TEXT NOT NULL,
			message TEXT NOT NULL,
			FOREIGN KEY (transcript_id) REFERENCES transcripts(id) ON DELETE CASCADE,
			UNIQUE(transcript_id, entry_index)
		);

		CREATE INDEX IF NOT EXISTS idx_entries_transcript
		ON transcript_entries(transcript_id, entry_index);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveTranscript stores a complete transcript in one transaction.
func (s *SqliteStorage) SaveTranscript(ctx context.Context, transcript Transcript) error {
	if transcript.ID == "" {
		return fmt.Errorf("transcript id must not be empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO transcripts (id, topic, created_at) VALUES (?, ?, ?)",
		transcript.ID, transcript.Topic, transcript.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	// Replace any existing entries for this id
	_, err = tx.ExecContext(ctx,
		"DELETE FROM transcript_entries WHERE transcript_id = ?", transcript.ID)
	if err != nil {
		return fmt.Errorf("failed to clear old entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO transcript_entries (transcript_id, entry_index, member, role, message) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, entry := range transcript.Entries {
		if _, err := stmt.ExecContext(ctx, transcript.ID, i, entry.Member, entry.Role, entry.Message); err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetTranscript loads a transcript by id.
// Returns nil, nil if not found.
func (s *SqliteStorage) GetTranscript(ctx context.Context, id string) (*Transcript, error) {
	var transcript Transcript
	err := s.db.QueryRowContext(ctx,
		"SELECT id, topic, created_at FROM transcripts WHERE id = ?", id).
		Scan(&transcript.ID, &transcript.Topic, &transcript.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT member, role, message FROM transcript_entries WHERE transcript_id = ? ORDER BY entry_index ASC",
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry TranscriptEntry
		if err := rows.Scan(&entry.Member, &entry.Role, &entry.Message); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		transcript.Entries = append(transcript.Entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return &transcript, nil
}

// ListTranscripts lists recent transcripts, newest first.
func (s *SqliteStorage) ListTranscripts(ctx context.Context, limit int) ([]TranscriptSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.topic, t.created_at, COUNT(e.id)
		FROM transcripts t
		LEFT JOIN transcript_entries e ON e.transcript_id = t.id
		GROUP BY t.id
		ORDER BY t.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	summaries := []TranscriptSummary{} // Start with empty slice, not nil
	for rows.Next() {
		var summary TranscriptSummary
		if err := rows.Scan(&summary.ID, &summary.Topic, &summary.CreatedAt, &summary.EntryCount); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transcripts: %w", err)
	}

	return summaries, nil
}

// DeleteTranscript removes a transcript and its entries.
func (s *SqliteStorage) DeleteTranscript(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Explicit entry delete; foreign_keys pragma is off by default.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transcript_entries WHERE transcript_id = ?", id); err != nil {
		return fmt.Errorf("failed to delete entries: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM transcripts WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Verify SqliteStorage implements the interface
var _ TranscriptStorage = (*SqliteStorage)(nil)

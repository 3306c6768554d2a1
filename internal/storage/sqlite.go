package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/models"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string, log logger.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db, log: log}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		filename TEXT,
		title TEXT,
		authors TEXT,
		year INTEGER,
		summary TEXT,
		citation TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// GetSummary retrieves a cached summary and citation by document ID
func (s *SQLiteStore) GetSummary(ctx context.Context, docID string) (*models.PaperSummary, *models.Citation, error) {
	var filename, summaryJSON, citationText string
	err := s.db.QueryRowContext(ctx,
		"SELECT filename, summary, citation FROM documents WHERE id = ?", docID,
	).Scan(&filename, &summaryJSON, &citationText)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query document %s: %w", docID, err)
	}

	var summary models.PaperSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, nil, fmt.Errorf("failed to decode cached summary %s: %w", docID, err)
	}
	citation := &models.Citation{Filename: filename, Text: citationText}
	return &summary, citation, nil
}

// PutSummary stores the analysis outcome for a document
func (s *SQLiteStore) PutSummary(ctx context.Context, docID string, summary *models.PaperSummary, citation *models.Citation) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	authorsJSON, err := json.Marshal(summary.Authors)
	if err != nil {
		return fmt.Errorf("failed to encode authors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (id, filename, title, authors, year, summary, citation)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		docID, summary.Filename, summary.Title, string(authorsJSON), summary.Year,
		string(summaryJSON), citation.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to store document %s: %w", docID, err)
	}
	s.log.Debug("Cached summary for %s (%s)", summary.Filename, docID)
	return nil
}

// GetCitation retrieves only the cached citation for a document
func (s *SQLiteStore) GetCitation(ctx context.Context, docID string) (*models.Citation, error) {
	var filename, citationText string
	err := s.db.QueryRowContext(ctx,
		"SELECT filename, citation FROM documents WHERE id = ?", docID,
	).Scan(&filename, &citationText)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query citation %s: %w", docID, err)
	}
	return &models.Citation{Filename: filename, Text: citationText}, nil
}

// ListDocuments returns all cached documents with their metadata
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, filename, title, authors, year FROM documents ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.DocumentInfo
	for rows.Next() {
		var info models.DocumentInfo
		var authorsJSON string
		if err := rows.Scan(&info.DocumentID, &info.Filename, &info.Title, &authorsJSON, &info.Year); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		if authorsJSON != "" {
			if err := json.Unmarshal([]byte(authorsJSON), &info.Authors); err != nil {
				s.log.Warn("Invalid authors data for %s: %v", info.DocumentID, err)
			}
		}
		docs = append(docs, info)
	}
	return docs, rows.Err()
}

// DeleteDocument removes a document's cached analysis
func (s *SQLiteStore) DeleteDocument(ctx context.Context, docID string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", docID)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", docID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

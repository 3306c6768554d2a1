package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/scholarpipe/litreview/models"
)

// ErrNotFound indicates no cached entry exists for a document ID.
var ErrNotFound = errors.New("document not found")

// Store is the summary cache: analyzed papers keyed by content hash so
// re-running a pipeline over an unchanged folder skips re-analysis.
type Store interface {
	// GetSummary retrieves a cached summary and citation by document ID.
	// Returns ErrNotFound when the document has not been analyzed.
	GetSummary(ctx context.Context, docID string) (*models.PaperSummary, *models.Citation, error)

	// PutSummary stores the analysis outcome for a document.
	PutSummary(ctx context.Context, docID string, summary *models.PaperSummary, citation *models.Citation) error

	// ListDocuments returns all cached documents with their metadata.
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)

	// GetCitation retrieves only the cached citation for a document.
	GetCitation(ctx context.Context, docID string) (*models.Citation, error)

	// DeleteDocument removes a document's cached analysis.
	DeleteDocument(ctx context.Context, docID string) error

	// Close closes the database connection.
	Close() error
}

// DocumentID derives the cache key from the document's raw bytes, so any
// edit to the source PDF invalidates its cached analysis.
func DocumentID(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), logger.NewNoOpLogger())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleSummary() *models.PaperSummary {
	return &models.PaperSummary{
		Filename:         "smith2020.pdf",
		Title:            "Social Capital Online",
		Authors:          []string{"John Smith", "Ana de Silva"},
		Year:             2020,
		ResearchQuestion: "How do online communities form social capital?",
		Methodology:      "Survey",
		Findings:         "Bridging capital dominates.",
	}
}

func TestPutGetSummary(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	summary := sampleSummary()
	citation := &models.Citation{Filename: summary.Filename, Text: "Smith, J., & de Silva, A. (2020). Social Capital Online."}
	docID := DocumentID([]byte("pdf bytes"))

	require.NoError(t, store.PutSummary(ctx, docID, summary, citation))

	gotSummary, gotCitation, err := store.GetSummary(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, summary, gotSummary)
	assert.Equal(t, citation, gotCitation)
}

func TestGetSummary_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, _, err := store.GetSummary(context.Background(), "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutSummary_Replaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := DocumentID([]byte("pdf bytes"))

	first := sampleSummary()
	require.NoError(t, store.PutSummary(ctx, docID, first, &models.Citation{Filename: first.Filename, Text: "old"}))

	second := sampleSummary()
	second.Title = "Revised Title"
	require.NoError(t, store.PutSummary(ctx, docID, second, &models.Citation{Filename: second.Filename, Text: "new"}))

	got, citation, err := store.GetSummary(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "Revised Title", got.Title)
	assert.Equal(t, "new", citation.Text)

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1, "same document ID overwrites, not duplicates")
}

func TestGetCitation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := DocumentID([]byte("pdf bytes"))

	summary := sampleSummary()
	require.NoError(t, store.PutSummary(ctx, docID, summary, &models.Citation{Filename: summary.Filename, Text: "cite"}))

	citation, err := store.GetCitation(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, "smith2020.pdf", citation.Filename)
	assert.Equal(t, "cite", citation.Text)

	_, err = store.GetCitation(ctx, "missing-id")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListDocuments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	first := sampleSummary()
	second := sampleSummary()
	second.Filename = "jones2021.pdf"
	second.Title = "Network Effects"
	second.Authors = []string{"Pat Jones"}
	second.Year = 2021

	require.NoError(t, store.PutSummary(ctx, DocumentID([]byte("first")), first, &models.Citation{Text: "a"}))
	require.NoError(t, store.PutSummary(ctx, DocumentID([]byte("second")), second, &models.Citation{Text: "b"}))

	docs, err = store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byFile := map[string]models.DocumentInfo{}
	for _, doc := range docs {
		byFile[doc.Filename] = doc
	}
	info := byFile["jones2021.pdf"]
	assert.Equal(t, "Network Effects", info.Title)
	assert.Equal(t, []string{"Pat Jones"}, info.Authors)
	assert.Equal(t, 2021, info.Year)
	assert.Equal(t, DocumentID([]byte("second")), info.DocumentID)
}

func TestDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	docID := DocumentID([]byte("pdf bytes"))

	summary := sampleSummary()
	require.NoError(t, store.PutSummary(ctx, docID, summary, &models.Citation{Text: "cite"}))
	require.NoError(t, store.DeleteDocument(ctx, docID))

	_, _, err := store.GetSummary(ctx, docID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteDocument(ctx, docID), ErrNotFound)
}

func TestDocumentID_Deterministic(t *testing.T) {
	a := DocumentID([]byte("same bytes"))
	b := DocumentID([]byte("same bytes"))
	c := DocumentID([]byte("different bytes"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

// Package review orchestrates the document-to-review pipeline: folder
// enumeration, per-document analysis and citation with bounded concurrency,
// the synthesis barrier, and all-or-nothing output assembly.
package review

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/scholarpipe/litreview/internal/analyze"
	"github.com/scholarpipe/litreview/internal/citations"
	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/internal/storage"
	"github.com/scholarpipe/litreview/internal/synthesis"
	"github.com/scholarpipe/litreview/models"
)

// Extractor converts a PDF file into plain text. Extraction is an external
// capability from the pipeline's point of view.
type Extractor interface {
	Text(path string) (string, error)
}

// Pipeline runs one folder-to-review synthesis. It owns all per-run state;
// nothing outlives a Run call.
type Pipeline struct {
	extractor   Extractor
	analyzer    *analyze.Analyzer
	synthesizer *synthesis.Synthesizer
	store       storage.Store
	workers     int
	log         logger.Logger
}

// NewPipeline assembles a pipeline. store may be nil to disable the summary
// cache; workers bounds concurrent per-document processing.
func NewPipeline(extractor Extractor, analyzer *analyze.Analyzer, synthesizer *synthesis.Synthesizer, store storage.Store, workers int, log logger.Logger) *Pipeline {
	if workers <= 0 {
		workers = 4
	}
	return &Pipeline{
		extractor:   extractor,
		analyzer:    analyzer,
		synthesizer: synthesizer,
		store:       store,
		workers:     workers,
		log:         log,
	}
}

// docResult is the per-document processing outcome, slotted by input index.
type docResult struct {
	summary  *models.PaperSummary
	citation *models.Citation
	cached   bool
	err      error
}

// Run processes every PDF in folder and writes the assembled review to
// outputPath. Per-document failures are isolated and reported; a synthesis
// failure aborts the run and leaves no output file.
func (p *Pipeline) Run(ctx context.Context, folder, outputPath string) (*models.ReviewResult, *models.RunReport, error) {
	report := &models.RunReport{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	files, err := enumeratePDFs(folder)
	if err != nil {
		return nil, report, err
	}
	if len(files) == 0 {
		return nil, report, fmt.Errorf("no PDF files found in %s", folder)
	}
	p.log.Info("Run %s: processing %d documents from %s", report.RunID, len(files), folder)

	results := p.processDocuments(ctx, folder, files)

	// Barrier: every document outcome is known before synthesis starts.
	if err := ctx.Err(); err != nil {
		report.Finished = time.Now()
		return nil, report, err
	}

	var included []models.PaperSummary
	var cites []models.Citation
	for i, file := range files {
		res := results[i]
		if res.err != nil {
			p.log.Warn("Excluding %s: %v", file, res.err)
			report.Outcomes = append(report.Outcomes, models.DocumentOutcome{
				Filename: file,
				Included: false,
				Reason:   res.err.Error(),
			})
			continue
		}
		report.Outcomes = append(report.Outcomes, models.DocumentOutcome{
			Filename: file,
			Included: true,
			Cached:   res.cached,
		})
		included = append(included, *res.summary)
		cites = append(cites, *res.citation)
	}

	narrative, err := p.synthesizer.Review(ctx, included)
	if err != nil {
		report.Finished = time.Now()
		return nil, report, &SynthesisError{Err: err}
	}

	result := &models.ReviewResult{
		Summaries: included,
		Narrative: narrative,
		Citations: cites,
	}

	if err := writeAtomic(outputPath, Assemble(result)); err != nil {
		report.Finished = time.Now()
		return nil, report, fmt.Errorf("failed to write review: %w", err)
	}

	report.OutputPath = outputPath
	report.Finished = time.Now()
	p.log.Info("Run %s: review written to %s (%d included, %d excluded)",
		report.RunID, outputPath, len(included), len(files)-len(included))
	return result, report, nil
}

// processDocuments runs extraction, analysis, and citation for each file
// concurrently under the worker pool, returning results slotted by input
// index so output order matches enumeration order.
func (p *Pipeline) processDocuments(ctx context.Context, folder string, files []string) []docResult {
	results := make([]docResult, len(files))

	type indexed struct {
		index int
		res   docResult
	}
	resultChan := make(chan indexed, len(files))

	pool := llm.NewWorkerPool(p.workers)
	spawned := 0
	for i, file := range files {
		if err := pool.Acquire(ctx); err != nil {
			// Cancelled; unspawned documents report the context error.
			for j := i; j < len(files); j++ {
				results[j] = docResult{err: err}
			}
			break
		}
		spawned++
		go func(index int, filename string) {
			defer pool.Release()
			res := p.processDocument(ctx, models.Document{
				Index:    index,
				Filename: filename,
				Path:     filepath.Join(folder, filename),
			})
			resultChan <- indexed{index: index, res: res}
		}(i, file)
	}

	for range spawned {
		r := <-resultChan
		results[r.index] = r.res
	}
	return results
}

// processDocument handles one document end to end: cache lookup, extraction,
// analysis, citation. Citation building never fails the document; missing
// metadata degrades to a placeholder.
func (p *Pipeline) processDocument(ctx context.Context, doc models.Document) docResult {
	p.log.Info("Processing %s", doc.Filename)

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return docResult{err: &ExtractionError{Filename: doc.Filename, Err: err}}
	}

	var docID string
	if p.store != nil {
		docID = storage.DocumentID(data)
		summary, citation, err := p.store.GetSummary(ctx, docID)
		if err == nil {
			p.log.Info("Using cached analysis for %s", doc.Filename)
			return docResult{summary: summary, citation: citation, cached: true}
		}
		if !errors.Is(err, storage.ErrNotFound) {
			p.log.Warn("Cache lookup failed for %s: %v", doc.Filename, err)
		}
	}

	text, err := p.extractor.Text(doc.Path)
	if err != nil {
		return docResult{err: &ExtractionError{Filename: doc.Filename, Err: err}}
	}
	doc.Text = text

	summary, err := p.analyzer.Paper(ctx, doc)
	if err != nil {
		return docResult{err: &AnalysisError{Filename: doc.Filename, Err: err}}
	}

	citation := citations.FormatAPA(summary)

	if p.store != nil && docID != "" {
		if err := p.store.PutSummary(ctx, docID, summary, &citation); err != nil {
			p.log.Warn("Failed to cache analysis for %s: %v", doc.Filename, err)
		}
	}

	return docResult{summary: summary, citation: &citation}
}

// enumeratePDFs lists the folder's PDF filenames sorted lexically, which
// fixes run ordering independent of filesystem enumeration.
func enumeratePDFs(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("failed to read input folder: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// writeAtomic writes content via a temp file and rename so a failed or
// cancelled run never leaves a partial output file.
func writeAtomic(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".litreview-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	// CreateTemp opens 0600; the review document is a normal output file.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

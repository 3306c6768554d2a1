package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scholarpipe/litreview/internal/analyze"
	"github.com/scholarpipe/litreview/internal/citations"
	"github.com/scholarpipe/litreview/internal/config"
	"github.com/scholarpipe/litreview/internal/extract"
	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/internal/storage"
	"github.com/scholarpipe/litreview/models"
)

type PaperAnalyzeQuery struct {
	FilePath string `json:"file_path"`
}

type PaperAnalyzeResponse struct {
	DocumentID string               `json:"document_id,omitempty"`
	Summary    *models.PaperSummary `json:"summary,omitempty"`
	Citation   string               `json:"citation,omitempty"`
	Cached     bool                 `json:"cached,omitempty"`
}

func PaperAnalyzeTool() *mcp.Tool {
	inputschema, err := jsonschema.For[PaperAnalyzeQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "paper-analyze",
		Description: "Analyze a single PDF paper: extract its text, produce a structured summary (research question, methodology, findings, and more), and format an APA citation.",
		InputSchema: inputschema,
	}
}

func PaperAnalyzeToolHandler(ctx context.Context, req *mcp.CallToolRequest, query PaperAnalyzeQuery, cfg config.Config, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *PaperAnalyzeResponse, error) {
	log.Info("paper-analyze tool called for %s", query.FilePath)

	if query.FilePath == "" {
		return nil, nil, errors.New("file_path is required")
	}

	data, err := os.ReadFile(query.FilePath)
	if err != nil {
		return nil, nil, err
	}
	docID := storage.DocumentID(data)

	if store != nil {
		summary, citation, err := store.GetSummary(ctx, docID)
		if err == nil {
			return nil, &PaperAnalyzeResponse{
				DocumentID: docID,
				Summary:    summary,
				Citation:   citation.Text,
				Cached:     true,
			}, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			log.Warn("Cache lookup failed for %s: %v", query.FilePath, err)
		}
	}

	if cfg.OpenAI.APIKey == "" {
		return nil, nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	text, err := extract.NewPDFExtractor().Text(query.FilePath)
	if err != nil {
		return nil, nil, err
	}

	retry := llm.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Pipeline.MaxRetries
	client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	analyzer := analyze.New(client, cfg.Pipeline.AnalysisCharBudget, retry, log)

	summary, err := analyzer.Paper(ctx, models.Document{
		Filename: filepath.Base(query.FilePath),
		Path:     query.FilePath,
		Text:     text,
	})
	if err != nil {
		return nil, nil, err
	}

	citation := citations.FormatAPA(summary)

	if store != nil {
		if err := store.PutSummary(ctx, docID, summary, &citation); err != nil {
			log.Warn("Failed to cache analysis for %s: %v", query.FilePath, err)
		}
	}

	return nil, &PaperAnalyzeResponse{
		DocumentID: docID,
		Summary:    summary,
		Citation:   citation.Text,
	}, nil
}

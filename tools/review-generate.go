package tools

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scholarpipe/litreview/internal/analyze"
	"github.com/scholarpipe/litreview/internal/config"
	"github.com/scholarpipe/litreview/internal/extract"
	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/internal/review"
	"github.com/scholarpipe/litreview/internal/storage"
	"github.com/scholarpipe/litreview/internal/synthesis"
	"github.com/scholarpipe/litreview/models"
)

type ReviewGenerateQuery struct {
	FolderPath string `json:"folder_path"`
	OutputPath string `json:"output_path,omitempty"`
}

type ReviewGenerateResponse struct {
	RunID      string                   `json:"run_id"`
	OutputPath string                   `json:"output_path,omitempty"`
	Narrative  string                   `json:"narrative,omitempty"`
	Citations  []string                 `json:"citations,omitempty"`
	Outcomes   []models.DocumentOutcome `json:"outcomes,omitempty"`
}

func ReviewGenerateTool() *mcp.Tool {
	inputschema, err := jsonschema.For[ReviewGenerateQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "review-generate",
		Description: "Generate a synthesized literature review from a folder of PDF papers. Writes the review to output_path (or literature_review_<timestamp>.md in the folder) and reports which papers were included or excluded.",
		InputSchema: inputschema,
	}
}

func ReviewGenerateToolHandler(ctx context.Context, req *mcp.CallToolRequest, query ReviewGenerateQuery, cfg config.Config, store storage.Store, log logger.Logger) (*mcp.CallToolResult, *ReviewGenerateResponse, error) {
	log.Info("review-generate tool called for %s", query.FolderPath)

	if query.FolderPath == "" {
		return nil, nil, errors.New("folder_path is required")
	}
	if cfg.OpenAI.APIKey == "" {
		return nil, nil, errors.New("OPENAI_API_KEY environment variable not set")
	}

	outputPath := query.OutputPath
	if outputPath == "" {
		outputPath = filepath.Join(query.FolderPath, DefaultOutputName(time.Now()))
	}

	pipeline := buildPipeline(cfg, store, log)
	result, report, err := pipeline.Run(ctx, query.FolderPath, outputPath)
	if err != nil {
		return nil, nil, err
	}

	citationLines := make([]string, len(result.Citations))
	for i, c := range result.Citations {
		citationLines[i] = c.Text
	}

	return nil, &ReviewGenerateResponse{
		RunID:      report.RunID,
		OutputPath: report.OutputPath,
		Narrative:  result.Narrative,
		Citations:  citationLines,
		Outcomes:   report.Outcomes,
	}, nil
}

// DefaultOutputName returns the timestamped review filename.
func DefaultOutputName(now time.Time) string {
	return fmt.Sprintf("literature_review_%s.md", now.Format("20060102_150405"))
}

// buildPipeline assembles the pipeline components from configuration.
func buildPipeline(cfg config.Config, store storage.Store, log logger.Logger) *review.Pipeline {
	client := llm.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	retry := llm.DefaultRetryPolicy()
	retry.MaxRetries = cfg.Pipeline.MaxRetries

	analyzer := analyze.New(client, cfg.Pipeline.AnalysisCharBudget, retry, log)
	synthesizer := synthesis.New(client, cfg.Pipeline.SynthesisCharBudget, retry, log)
	return review.NewPipeline(extract.NewPDFExtractor(), analyzer, synthesizer, store, cfg.Pipeline.Workers, log)
}

// Package analyze turns one document's extracted text into a structured
// paper summary via a single text-generation call.
package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/scholarpipe/litreview/internal/extract"
	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/models"
)

// ErrEmptyText indicates extraction yielded nothing to analyze. The document
// is skipped rather than sent to the service.
var ErrEmptyText = errors.New("document text is empty")

// Roughly chars/4 plus structured-output overhead; used for rate-limiter
// accounting, not billing.
const estimatedTokensPerAnalysis = 2500

// paperSummarySchema constrains the analysis response to the structured
// summary shape.
var paperSummarySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"title": map[string]any{"type": "string"},
		"authors": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"year":                  map[string]any{"type": "integer"},
		"research_question":     map[string]any{"type": "string"},
		"theoretical_framework": map[string]any{"type": "string"},
		"methodology":           map[string]any{"type": "string"},
		"main_arguments": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"findings":        map[string]any{"type": "string"},
		"significance":    map[string]any{"type": "string"},
		"limitations":     map[string]any{"type": "string"},
		"future_research": map[string]any{"type": "string"},
	},
	"required": []string{
		"title", "authors", "year", "research_question", "theoretical_framework",
		"methodology", "main_arguments", "findings", "significance",
		"limitations", "future_research",
	},
	"additionalProperties": false,
}

// Analyzer produces structured summaries of individual papers.
type Analyzer struct {
	generator  llm.Generator
	charBudget int
	retry      llm.RetryPolicy
	log        logger.Logger
}

// New creates an Analyzer. charBudget caps how much document text goes into
// the prompt; zero or negative disables truncation.
func New(generator llm.Generator, charBudget int, retry llm.RetryPolicy, log logger.Logger) *Analyzer {
	return &Analyzer{
		generator:  generator,
		charBudget: charBudget,
		retry:      retry,
		log:        log,
	}
}

// Paper analyzes one document and returns its structured summary. The input
// text must be non-empty; the summary is trimmed and never empty on success.
func (a *Analyzer) Paper(ctx context.Context, doc models.Document) (*models.PaperSummary, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, ErrEmptyText
	}

	text := extract.Truncate(doc.Text, a.charBudget)
	prompt := buildPrompt(doc.Filename, text)

	a.log.Debug("Calling text-generation service for %s (%d chars)", doc.Filename, len(text))
	output, err := llm.RateLimitedCall(ctx, estimatedTokensPerAnalysis, a.retry, a.log, func(ctx context.Context) (string, error) {
		return a.generator.Generate(ctx, llm.GenerateRequest{
			Prompt:     prompt,
			SchemaName: "paper_summary",
			Schema:     paperSummarySchema,
		})
	})
	if err != nil {
		return nil, err
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return nil, fmt.Errorf("service returned empty summary for %s", doc.Filename)
	}

	var summary models.PaperSummary
	if err := json.Unmarshal([]byte(output), &summary); err != nil {
		return nil, fmt.Errorf("failed to decode summary for %s: %w", doc.Filename, err)
	}
	summary.Filename = doc.Filename
	trimSummary(&summary)

	a.log.Info("Analyzed %s: %q", doc.Filename, summary.Title)
	return &summary, nil
}

func buildPrompt(filename, text string) string {
	return fmt.Sprintf(`Analyze the following academic paper and provide a detailed summary in the specified JSON structure.

Filename: %s
Text: %s

Fill every field:
- title: the paper's title
- authors: author names in "First Last" form
- year: publication year as an integer, 0 if unknown
- research_question: the central question the paper addresses
- theoretical_framework: the theoretical lens or framework used
- methodology: research design, data, and methods
- main_arguments: the paper's principal arguments
- findings: the key findings
- significance: the paper's contribution to its field
- limitations: acknowledged or evident limitations
- future_research: directions for future work suggested by the paper`, filename, text)
}

func trimSummary(s *models.PaperSummary) {
	s.Title = strings.TrimSpace(s.Title)
	s.ResearchQuestion = strings.TrimSpace(s.ResearchQuestion)
	s.TheoreticalFramework = strings.TrimSpace(s.TheoreticalFramework)
	s.Methodology = strings.TrimSpace(s.Methodology)
	s.Findings = strings.TrimSpace(s.Findings)
	s.Significance = strings.TrimSpace(s.Significance)
	s.Limitations = strings.TrimSpace(s.Limitations)
	s.FutureResearch = strings.TrimSpace(s.FutureResearch)
	for i, author := range s.Authors {
		s.Authors[i] = strings.TrimSpace(author)
	}
	for i, arg := range s.MainArguments {
		s.MainArguments[i] = strings.TrimSpace(arg)
	}
}

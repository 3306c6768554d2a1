// Package synthesis produces a single literature-review narrative from a set
// of paper summaries, batching and reducing when the combined input exceeds
// the service's size budget.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/models"
)

// ErrNoSummaries indicates there is nothing to synthesize: zero documents
// survived analysis.
var ErrNoSummaries = errors.New("no paper summaries to synthesize")

const (
	estimatedTokensPerSynthesis = 12000
	maxNarrativeTokens          = 4000
)

// Synthesizer merges paper summaries into one review narrative.
type Synthesizer struct {
	generator  llm.Generator
	charBudget int
	retry      llm.RetryPolicy
	log        logger.Logger
}

// New creates a Synthesizer. charBudget caps the combined summary text sent
// in one call; larger inputs are batched and reduced.
func New(generator llm.Generator, charBudget int, retry llm.RetryPolicy, log logger.Logger) *Synthesizer {
	if charBudget <= 0 {
		charBudget = 48000
	}
	return &Synthesizer{
		generator:  generator,
		charBudget: charBudget,
		retry:      retry,
		log:        log,
	}
}

// Review synthesizes all summaries into one narrative. When the summaries do
// not fit one call, each batch is synthesized independently and a single
// reduction pass merges the batch narratives, preserving cross-paper
// comparison instead of concatenating per-batch output.
func (s *Synthesizer) Review(ctx context.Context, summaries []models.PaperSummary) (string, error) {
	if len(summaries) == 0 {
		return "", ErrNoSummaries
	}

	blocks := make([]string, len(summaries))
	for i, summary := range summaries {
		blocks[i] = renderSummary(summary)
	}

	batches := packBatches(blocks, s.charBudget)
	s.log.Info("Synthesizing review from %d summaries in %d batch(es)", len(summaries), len(batches))

	narratives := make([]string, len(batches))
	for i, batch := range batches {
		narrative, err := s.synthesizeBatch(ctx, batch)
		if err != nil {
			return "", fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		narratives[i] = narrative
	}

	if len(narratives) == 1 {
		return narratives[0], nil
	}

	return s.reduce(ctx, narratives)
}

func (s *Synthesizer) synthesizeBatch(ctx context.Context, batch []string) (string, error) {
	prompt := reviewPrompt(strings.Join(batch, "\n\n"))
	narrative, err := llm.RateLimitedCall(ctx, estimatedTokensPerSynthesis, s.retry, s.log, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, llm.GenerateRequest{
			Prompt:          prompt,
			MaxOutputTokens: maxNarrativeTokens,
		})
	})
	if err != nil {
		return "", err
	}
	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return "", errors.New("service returned empty narrative")
	}
	return narrative, nil
}

func (s *Synthesizer) reduce(ctx context.Context, narratives []string) (string, error) {
	s.log.Info("Reducing %d batch narratives into final review", len(narratives))

	var sb strings.Builder
	sb.WriteString(`The following are partial literature reviews, each covering a different subset of the same paper collection. Merge them into one cohesive literature review. Integrate themes, agreements, and contrasts across all subsets rather than summarizing each partial review in turn. Keep the review under 2500 words.

Structure the review as follows:
1. Introduction
2. Theoretical Frameworks
3. Methodological Approaches
4. Synthesis of Main Arguments and Findings
5. Significance and Implications
6. Gaps and Future Research Directions
7. Conclusion

`)
	for i, narrative := range narratives {
		fmt.Fprintf(&sb, "--- Partial review %d ---\n%s\n\n", i+1, narrative)
	}

	merged, err := llm.RateLimitedCall(ctx, estimatedTokensPerSynthesis, s.retry, s.log, func(ctx context.Context) (string, error) {
		return s.generator.Generate(ctx, llm.GenerateRequest{
			Prompt:          sb.String(),
			MaxOutputTokens: maxNarrativeTokens,
		})
	})
	if err != nil {
		return "", fmt.Errorf("reduction pass: %w", err)
	}
	merged = strings.TrimSpace(merged)
	if merged == "" {
		return "", errors.New("service returned empty narrative in reduction pass")
	}
	return merged, nil
}

// packBatches groups summary blocks in order so each batch stays within the
// character budget. A single oversized block still gets its own batch.
func packBatches(blocks []string, budget int) [][]string {
	var batches [][]string
	var current []string
	size := 0

	for _, block := range blocks {
		if len(current) > 0 && size+len(block) > budget {
			batches = append(batches, current)
			current = nil
			size = 0
		}
		current = append(current, block)
		size += len(block)
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}
	return batches
}

func reviewPrompt(summaries string) string {
	return `Create a comprehensive literature review based on the following paper summaries.
Focus on synthesizing information, comparing and contrasting key arguments, methodologies, and significance of findings.
Highlight any contradictions, agreements, or trends between authors.
Discuss the evolution of ideas and methodologies in the field.
Identify gaps in the current research and suggest future research directions.
Keep the review under 2500 words.

Structure the review as follows:
1. Introduction
2. Theoretical Frameworks
3. Methodological Approaches
4. Synthesis of Main Arguments and Findings
5. Significance and Implications
6. Gaps and Future Research Directions
7. Conclusion

Summaries:

` + summaries
}

// renderSummary flattens one structured summary into prompt text.
func renderSummary(s models.PaperSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Paper: %s\n", s.Filename)
	if s.Title != "" {
		fmt.Fprintf(&sb, "Title: %s\n", s.Title)
	}
	if len(s.Authors) > 0 {
		fmt.Fprintf(&sb, "Authors: %s\n", strings.Join(s.Authors, ", "))
	}
	if s.Year > 0 {
		fmt.Fprintf(&sb, "Year: %d\n", s.Year)
	}
	writeField(&sb, "Research question", s.ResearchQuestion)
	writeField(&sb, "Theoretical framework", s.TheoreticalFramework)
	writeField(&sb, "Methodology", s.Methodology)
	if len(s.MainArguments) > 0 {
		fmt.Fprintf(&sb, "Main arguments: %s\n", strings.Join(s.MainArguments, "; "))
	}
	writeField(&sb, "Findings", s.Findings)
	writeField(&sb, "Significance", s.Significance)
	writeField(&sb, "Limitations", s.Limitations)
	writeField(&sb, "Future research", s.FutureResearch)
	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	if value != "" {
		fmt.Fprintf(sb, "%s: %s\n", label, value)
	}
}

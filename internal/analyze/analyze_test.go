package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarpipe/litreview/internal/llm"
	"github.com/scholarpipe/litreview/internal/logger"
	"github.com/scholarpipe/litreview/models"
)

// stubGenerator returns canned responses and records the requests it saw.
type stubGenerator struct {
	responses []string
	err       error
	requests  []llm.GenerateRequest
}

func (s *stubGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	if len(s.responses) == 0 {
		return "", errors.New("stub exhausted")
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	return resp, nil
}

func fastRetry() llm.RetryPolicy {
	return llm.RetryPolicy{MaxRetries: 1, BaseDelay: 1, MaxDelay: 1}
}

const summaryJSON = `{
	"title": " Social capital online ",
	"authors": ["John Smith"],
	"year": 2020,
	"research_question": "How do online communities form social capital?",
	"theoretical_framework": "Social capital theory",
	"methodology": "Survey of 300 forum users",
	"main_arguments": ["Weak ties dominate online"],
	"findings": "Bridging capital exceeds bonding capital.",
	"significance": "Extends social capital theory to online settings.",
	"limitations": "Single-platform sample.",
	"future_research": "Longitudinal designs."
}`

func TestPaper_Success(t *testing.T) {
	gen := &stubGenerator{responses: []string{summaryJSON}}
	analyzer := New(gen, 6000, fastRetry(), logger.NewNoOpLogger())

	summary, err := analyzer.Paper(context.Background(), models.Document{
		Filename: "smith2020.pdf",
		Text:     "This paper examines social capital in online communities.",
	})
	require.NoError(t, err)

	assert.Equal(t, "smith2020.pdf", summary.Filename)
	assert.Equal(t, "Social capital online", summary.Title, "fields are whitespace-trimmed")
	assert.Equal(t, []string{"John Smith"}, summary.Authors)
	assert.Equal(t, 2020, summary.Year)
	assert.NotEmpty(t, summary.Findings)

	require.Len(t, gen.requests, 1)
	req := gen.requests[0]
	assert.Contains(t, req.Prompt, "smith2020.pdf")
	assert.Contains(t, req.Prompt, "social capital in online communities")
	assert.NotNil(t, req.Schema, "analysis requests structured output")
	assert.Equal(t, "paper_summary", req.SchemaName)
}

func TestPaper_EmptyTextSkipped(t *testing.T) {
	gen := &stubGenerator{responses: []string{summaryJSON}}
	analyzer := New(gen, 6000, fastRetry(), logger.NewNoOpLogger())

	for _, text := range []string{"", "   \n\t "} {
		_, err := analyzer.Paper(context.Background(), models.Document{Filename: "empty.pdf", Text: text})
		assert.ErrorIs(t, err, ErrEmptyText)
	}
	assert.Empty(t, gen.requests, "no service call for empty documents")
}

func TestPaper_TruncatesToCharBudget(t *testing.T) {
	gen := &stubGenerator{responses: []string{summaryJSON}}
	analyzer := New(gen, 200, fastRetry(), logger.NewNoOpLogger())

	longText := strings.Repeat("sentence about methods ", 100)
	_, err := analyzer.Paper(context.Background(), models.Document{Filename: "long.pdf", Text: longText})
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	assert.Less(t, len(gen.requests[0].Prompt), len(longText), "prompt must not carry the full document")
}

func TestPaper_ServiceError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("400 invalid request")}
	analyzer := New(gen, 6000, fastRetry(), logger.NewNoOpLogger())

	_, err := analyzer.Paper(context.Background(), models.Document{Filename: "bad.pdf", Text: "some text"})
	require.Error(t, err)
	assert.Len(t, gen.requests, 1, "permanent errors are not retried")
}

func TestPaper_MalformedResponse(t *testing.T) {
	gen := &stubGenerator{responses: []string{"not json at all"}}
	analyzer := New(gen, 6000, fastRetry(), logger.NewNoOpLogger())

	_, err := analyzer.Paper(context.Background(), models.Document{Filename: "weird.pdf", Text: "some text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode summary")
}

func TestPaper_RetriesTransientError(t *testing.T) {
	calls := 0
	gen := &flakyGenerator{failures: 2, response: summaryJSON, calls: &calls}
	analyzer := New(gen, 6000, llm.RetryPolicy{MaxRetries: 3, BaseDelay: 1, MaxDelay: 1}, logger.NewNoOpLogger())

	summary, err := analyzer.Paper(context.Background(), models.Document{Filename: "flaky.pdf", Text: "some text"})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "flaky.pdf", summary.Filename)
}

// flakyGenerator fails with a transient error a fixed number of times.
type flakyGenerator struct {
	failures int
	response string
	calls    *int
}

func (f *flakyGenerator) Generate(ctx context.Context, req llm.GenerateRequest) (string, error) {
	*f.calls++
	if *f.calls <= f.failures {
		return "", errors.New("429 Too Many Requests")
	}
	return f.response, nil
}

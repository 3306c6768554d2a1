package models

import "time"

// Document is one input PDF and its extracted text. Index is the document's
// position in the input folder enumeration; final output ordering is keyed on
// it regardless of call-completion order.
type Document struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Text     string `json:"text,omitempty"`
}

// PaperSummary is the structured analysis of a single paper.
type PaperSummary struct {
	Filename             string   `json:"filename,omitempty"`
	Title                string   `json:"title,omitempty"`
	Authors              []string `json:"authors,omitempty"`
	Year                 int      `json:"year,omitempty"`
	ResearchQuestion     string   `json:"research_question,omitempty"`
	TheoreticalFramework string   `json:"theoretical_framework,omitempty"`
	Methodology          string   `json:"methodology,omitempty"`
	MainArguments        []string `json:"main_arguments,omitempty"`
	Findings             string   `json:"findings,omitempty"`
	Significance         string   `json:"significance,omitempty"`
	Limitations          string   `json:"limitations,omitempty"`
	FutureResearch       string   `json:"future_research,omitempty"`
}

// Citation pairs an APA-formatted reference string with its source document.
type Citation struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

// ReviewResult aggregates the outcome of one pipeline run. Summaries and
// Citations are the same length and both follow input enumeration order.
type ReviewResult struct {
	Summaries []PaperSummary `json:"summaries"`
	Narrative string         `json:"narrative"`
	Citations []Citation     `json:"citations"`
}

// DocumentOutcome records what happened to one input document during a run.
type DocumentOutcome struct {
	Filename string `json:"filename"`
	Included bool   `json:"included"`
	Cached   bool   `json:"cached,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RunReport is the end-of-run summary: which documents made it into the
// review, which were excluded and why.
type RunReport struct {
	RunID      string            `json:"run_id"`
	Started    time.Time         `json:"started"`
	Finished   time.Time         `json:"finished"`
	Outcomes   []DocumentOutcome `json:"outcomes"`
	OutputPath string            `json:"output_path,omitempty"`
}

// Included returns the outcomes for documents that made it into the review.
func (r *RunReport) Included() []DocumentOutcome {
	var included []DocumentOutcome
	for _, o := range r.Outcomes {
		if o.Included {
			included = append(included, o)
		}
	}
	return included
}

// Excluded returns the outcomes for documents dropped from the review.
func (r *RunReport) Excluded() []DocumentOutcome {
	var excluded []DocumentOutcome
	for _, o := range r.Outcomes {
		if !o.Included {
			excluded = append(excluded, o)
		}
	}
	return excluded
}

// DocumentInfo describes a cached document summary in the library.
type DocumentInfo struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename,omitempty"`
	Title      string   `json:"title,omitempty"`
	Authors    []string `json:"authors,omitempty"`
	Year       int      `json:"year,omitempty"`
}

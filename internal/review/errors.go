package review

import "fmt"

// ExtractionError marks a document whose text could not be extracted. The
// document is excluded from the run; siblings are unaffected.
type ExtractionError struct {
	Filename string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Filename, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// AnalysisError marks a document whose analysis call failed after retries.
// The document is excluded from the run; siblings are unaffected.
type AnalysisError struct {
	Filename string
	Err      error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis failed for %s: %v", e.Filename, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// SynthesisError aborts the whole run: a review over an unknown subset of
// the inputs is worse than no review, so no output file is produced.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

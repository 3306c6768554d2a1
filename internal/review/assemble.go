package review

import (
	"fmt"
	"strings"
	"time"

	"github.com/scholarpipe/litreview/models"
)

// referencesHeader opens the citation section of the assembled document.
const referencesHeader = "## References"

// Assemble renders the final review document: the narrative followed by one
// citation line per included paper, in input order. Pure formatting.
func Assemble(result *models.ReviewResult) string {
	var sb strings.Builder
	sb.WriteString("# Literature Review\n\n")
	sb.WriteString(strings.TrimSpace(result.Narrative))
	sb.WriteString("\n\n")
	sb.WriteString(referencesHeader)
	sb.WriteString("\n\n")
	for _, citation := range result.Citations {
		fmt.Fprintf(&sb, "- %s\n", citation.Text)
	}
	return sb.String()
}

// FormatReport renders the end-of-run summary for display: included papers,
// excluded papers with reasons, and where the review was written.
func FormatReport(report *models.RunReport) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Run %s (%s)\n", report.RunID, report.Finished.Sub(report.Started).Round(time.Millisecond))

	included := report.Included()
	fmt.Fprintf(&sb, "Included (%d):\n", len(included))
	for _, o := range included {
		if o.Cached {
			fmt.Fprintf(&sb, "  %s (cached)\n", o.Filename)
		} else {
			fmt.Fprintf(&sb, "  %s\n", o.Filename)
		}
	}

	if excluded := report.Excluded(); len(excluded) > 0 {
		fmt.Fprintf(&sb, "Excluded (%d):\n", len(excluded))
		for _, o := range excluded {
			fmt.Fprintf(&sb, "  %s: %s\n", o.Filename, o.Reason)
		}
	}

	if report.OutputPath != "" {
		fmt.Fprintf(&sb, "Review written to %s\n", report.OutputPath)
	}
	return sb.String()
}

// Package citations formats APA 7th edition reference strings from paper
// metadata, degrading to a filename-based placeholder when metadata is
// missing.
package citations

import (
	"fmt"
	"strings"

	"github.com/scholarpipe/litreview/models"
)

// Surname particles kept attached to the last name (e.g. "van Dijk").
var nameParticles = map[string]bool{
	"van": true,
	"von": true,
	"de":  true,
	"du":  true,
}

// Words left lowercase inside a title unless they lead it.
var titleStopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "but": true, "or": true, "for": true, "nor": true,
	"on": true, "at": true, "to": true, "from": true, "by": true,
	"in": true, "of": true,
}

// FormatAPA creates an APA 7th edition style citation for a paper summary.
// Falls back to a placeholder built from the filename when the summary
// carries no usable metadata.
func FormatAPA(summary *models.PaperSummary) models.Citation {
	if summary.Title == "" && len(summary.Authors) == 0 {
		return Placeholder(summary.Filename)
	}

	year := "n.d."
	if summary.Year > 0 {
		year = fmt.Sprintf("%d", summary.Year)
	}

	title := formatTitle(summary.Title)
	if title == "" {
		title = fmt.Sprintf("[%s]", summary.Filename)
	}

	authors := joinAuthors(formatAuthors(summary.Authors))
	if authors == "" {
		authors = "Unknown"
	}

	return models.Citation{
		Filename: summary.Filename,
		Text:     fmt.Sprintf("%s (%s). %s.", authors, year, title),
	}
}

// Placeholder builds the degraded citation used when a document's metadata
// could not be determined. Citation building never fails a document outright.
func Placeholder(filename string) models.Citation {
	name := strings.TrimSuffix(filename, ".pdf")
	return models.Citation{
		Filename: filename,
		Text:     fmt.Sprintf("Unknown (n.d.). [%s]. Metadata unavailable.", name),
	}
}

// formatAuthors converts author names to "Last, F. M." form, keeping
// surname particles with the last name.
func formatAuthors(authors []string) []string {
	var formatted []string
	for _, author := range authors {
		author = strings.TrimSpace(author)
		if author == "" {
			continue
		}
		parts := strings.Fields(author)
		if len(parts) < 2 {
			formatted = append(formatted, author)
			continue
		}

		lastName := parts[len(parts)-1]
		given := parts[:len(parts)-1]
		if len(parts) >= 2 && nameParticles[strings.ToLower(parts[len(parts)-2])] {
			lastName = parts[len(parts)-2] + " " + parts[len(parts)-1]
			given = parts[:len(parts)-2]
		}

		var initials []string
		for _, name := range given {
			if nameParticles[strings.ToLower(name)] {
				continue
			}
			first := []rune(name)[0]
			initials = append(initials, strings.ToUpper(string(first))+".")
		}

		if len(initials) == 0 {
			formatted = append(formatted, lastName)
			continue
		}
		formatted = append(formatted, fmt.Sprintf("%s, %s", lastName, strings.Join(initials, " ")))
	}
	return formatted
}

// joinAuthors joins formatted author names per APA: two authors with "&",
// three or more with serial comma before the final "&".
func joinAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " & " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", & " + authors[len(authors)-1]
	}
}

// formatTitle applies APA-ish casing: first word capitalized, minor words
// lowercased, and no trailing period.
func formatTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return ""
	}

	words := strings.Fields(title)
	for i, word := range words {
		lower := strings.ToLower(word)
		if i > 0 && titleStopwords[lower] {
			words[i] = lower
			continue
		}
		words[i] = capitalize(word)
	}

	return strings.TrimSuffix(strings.Join(words, " "), ".")
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	runes := []rune(word)
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// Package extract converts PDF documents into plain text suitable for
// analysis prompts. Extraction is structure-blind: content-stream text
// operators only, no attempt to recover sections, figures, or references.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ErrNoText indicates the PDF parsed cleanly but yielded no text content
// (e.g. a scanned document with image-only pages).
var ErrNoText = errors.New("no text content found in PDF")

// PDFExtractor extracts plain text from PDF files using pdfcpu.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF text extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Text extracts and cleans the text content of the PDF at path.
// Returns ErrNoText when the document contains no extractable text.
func (e *PDFExtractor) Text(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return e.textFromReader(f)
}

func (e *PDFExtractor) textFromReader(r io.ReadSeeker) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfContext, err := api.ReadValidateAndOptimize(r, conf)
	if err != nil {
		return "", fmt.Errorf("pdfcpu read: %w", err)
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pdfContext.PageCount; pageNr++ {
		pageText := pageContentText(pdfContext, pageNr)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(pageText)
	}

	text := CleanText(sb.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

// pageContentText extracts text from a single page's content stream.
func pageContentText(pdfContext *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfContext, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromStream(data)
}

// pdfStringRe matches PDF string literals in parentheses: (text here)
var pdfStringRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromStream parses PDF content stream operators for text.
func textFromStream(data []byte) string {
	var sb strings.Builder

	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		// Tj operator: (text) Tj
		// TJ operator: [(text) -100 (more text)] TJ
		if bytes.HasSuffix(line, []byte("Tj")) || bytes.HasSuffix(line, []byte("TJ")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteString(text)
				}
			}
		}

		// ' operator (move to next line and show text): (text) '
		if bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")) {
			for _, m := range pdfStringRe.FindAllSubmatch(line, -1) {
				if text := decodePDFString(m[1]); text != "" {
					sb.WriteByte('\n')
					sb.WriteString(text)
				}
			}
		}

		// Td/TD operators reposition the text cursor; treat as a word break.
		if bytes.HasSuffix(line, []byte("Td")) || bytes.HasSuffix(line, []byte("TD")) {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		}

		// T* operator (move to start of next line).
		if bytes.Equal(line, []byte("T*")) {
			sb.WriteByte('\n')
		}
	}

	return sb.String()
}

// decodePDFString handles basic PDF escape sequences.
func decodePDFString(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' && i+1 < len(raw) {
			i++
			switch raw[i] {
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case '\\':
				sb.WriteByte('\\')
			case '(':
				sb.WriteByte('(')
			case ')':
				sb.WriteByte(')')
			default:
				// Octal escape (e.g. \040 for space).
				if raw[i] >= '0' && raw[i] <= '7' {
					val := int(raw[i] - '0')
					if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
						i++
						val = val*8 + int(raw[i]-'0')
						if i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7' {
							i++
							val = val*8 + int(raw[i]-'0')
						}
					}
					sb.WriteByte(byte(val))
				} else {
					sb.WriteByte(raw[i])
				}
			}
		} else {
			sb.WriteByte(raw[i])
		}
	}
	return sb.String()
}

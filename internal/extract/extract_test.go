package extract

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTextFromStream(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name:   "Tj operator",
			stream: "BT\n(Hello world) Tj\nET",
			want:   "Hello world",
		},
		{
			name:   "TJ array operator",
			stream: "BT\n[(Hel) -20 (lo)] TJ\nET",
			want:   "Hello",
		},
		{
			name:   "quote operator starts new line",
			stream: "BT\n(First) Tj\n(Second) '\nET",
			want:   "First Second",
		},
		{
			name:   "Td inserts word break",
			stream: "BT\n(One) Tj\n10 20 Td\n(Two) Tj\nET",
			want:   "One Two",
		},
		{
			name:   "multiple text lines concatenate",
			stream: "BT\n(alpha ) Tj\n(beta) Tj\nET",
			want:   "alpha beta",
		},
		{
			name:   "octal escape",
			stream: `BT
(A\040B) Tj
ET`,
			want: "A B",
		},
		{
			name:   "no text operators",
			stream: "q\n1 0 0 1 50 700 cm\nQ",
			want:   "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(textFromStream([]byte(tt.stream)))
			if got != tt.want {
				t.Errorf("textFromStream() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodePDFString(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "hello", "hello"},
		{"newline escape", `line\nbreak`, "line\nbreak"},
		{"tab escape", `a\tb`, "a\tb"},
		{"backslash escape", `a\\b`, `a\b`},
		{"octal single digit", `\7x`, "\x07x"},
		{"octal three digits", `\101`, "A"},
		{"unknown escape passes through", `\q`, "q"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodePDFString([]byte(tt.raw))
			if got != tt.want {
				t.Errorf("decodePDFString(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "a  b\t\nc", "a b c"},
		{"trims surrounding space", "  padded  ", "padded"},
		{"drops control characters", "ab\x00\x01cd", "abcd"},
		{"folds accented characters", "café", "cafe"},
		{"empty input", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.in)
			if got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("word ", 100)

	t.Run("under limit unchanged", func(t *testing.T) {
		if got := Truncate("short", 100); got != "short" {
			t.Errorf("Truncate() = %q", got)
		}
	})

	t.Run("cuts at word boundary", func(t *testing.T) {
		got := Truncate(text, 23)
		if len(got) > 23 {
			t.Errorf("Truncate() returned %d chars, want <= 23", len(got))
		}
		if strings.HasSuffix(got, " ") || strings.Contains(got, "wor ") {
			t.Errorf("Truncate() split a word: %q", got)
		}
	})

	t.Run("zero limit disables truncation", func(t *testing.T) {
		if got := Truncate(text, 0); got != text {
			t.Error("Truncate() with zero limit should return input unchanged")
		}
	})

	t.Run("never splits a multibyte rune", func(t *testing.T) {
		// Two-byte runes with no spaces; an odd limit lands mid-rune.
		accented := strings.Repeat("é", 50)
		got := Truncate(accented, 21)
		if !utf8.ValidString(got) {
			t.Errorf("Truncate() produced invalid UTF-8: %q", got)
		}
		if len(got) > 21 {
			t.Errorf("Truncate() returned %d bytes, want <= 21", len(got))
		}
	})
}

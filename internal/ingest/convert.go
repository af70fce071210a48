// Package ingest converts input documents and URLs into chunked,
// attributable text ready for embedding and indexing.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Document is the converted form of one input: plain text with optional
// markdown section headers, plus whatever metadata conversion recovered.
type Document struct {
	ID       string
	Title    string
	Authors  []string
	Date     string
	FileType string // txt, md, url
	Content  string
}

// Converter turns one input (a file path or URL) into a Document
type Converter interface {
	Convert(ctx context.Context, input string) (*Document, error)
}

// IsURL reports whether the input should be fetched rather than read
// from disk.
func IsURL(input string) bool {
	return strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
}

// TextConverter reads already-extracted text or markdown files. Rich
// formats (PDF, DOCX) are expected to arrive pre-converted to text by an
// external tool; section structure survives as markdown headers.
type TextConverter struct{}

// NewTextConverter creates a converter for local text files
func NewTextConverter() *TextConverter {
	return &TextConverter{}
}

var firstHeadingRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// Convert reads the file and derives title and type metadata
func (c *TextConverter) Convert(_ context.Context, path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	content := string(data)
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty document: %s", path)
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch fileType {
	case "markdown":
		fileType = "md"
	case "":
		fileType = "txt"
	}

	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return &Document{
		ID:       uuid.NewString(),
		Title:    deriveTitle(content, base),
		FileType: fileType,
		Content:  content,
	}, nil
}

// deriveTitle prefers the first top-level markdown heading, then cleans
// up the filename fallback.
func deriveTitle(content, fallback string) string {
	if m := firstHeadingRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return titleize(fallback)
}

// titleize converts a slug to a readable title
func titleize(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

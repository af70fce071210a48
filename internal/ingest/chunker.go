package ingest

import (
	"fmt"
	"regexp"
	"strings"

	"scholarbrief/internal/model"
)

// Chunker splits converted documents into bounded chunks along section
// and sentence boundaries, with character overlap between neighbors.
type Chunker struct {
	maxSize int
	overlap int
}

// NewChunker creates a chunker; non-positive sizes fall back to defaults
func NewChunker(maxSize, overlap int) *Chunker {
	if maxSize <= 0 {
		maxSize = 512
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Chunker{maxSize: maxSize, overlap: overlap}
}

var (
	sectionHeaderRe  = regexp.MustCompile(`^(#{2,3})\s+(.+)$`)
	sentenceBoundary = regexp.MustCompile(`([.!?])\s+`)
)

type section struct {
	title   string
	content string
}

// Chunk splits the document into indexed chunks carrying source
// attribution. Empty content yields no chunks.
func (c *Chunker) Chunk(doc *Document) []model.Chunk {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	var chunks []model.Chunk
	chunkIndex := 0

	for _, sec := range splitSections(doc.Content) {
		for _, text := range c.chunkText(sec.content) {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			chunks = append(chunks, model.Chunk{
				ID:         fmt.Sprintf("%s_chunk_%d", doc.ID, chunkIndex),
				DocumentID: doc.ID,
				Content:    text,
				ChunkIndex: chunkIndex,
				Metadata: model.ChunkMetadata{
					SourceTitle:  doc.Title,
					Authors:      doc.Authors,
					Date:         doc.Date,
					SectionTitle: sec.title,
					FileType:     doc.FileType,
				},
			})
			chunkIndex++
		}
	}

	return chunks
}

// splitSections splits content on markdown section headers (## and ###).
// Content before the first header forms an untitled section.
func splitSections(content string) []section {
	var sections []section
	current := section{}

	for _, line := range strings.Split(content, "\n") {
		if m := sectionHeaderRe.FindStringSubmatch(line); m != nil {
			if strings.TrimSpace(current.content) != "" {
				sections = append(sections, current)
			}
			current = section{title: strings.TrimSpace(m[2])}
			continue
		}
		current.content += line + "\n"
	}

	if strings.TrimSpace(current.content) != "" {
		sections = append(sections, current)
	}

	if len(sections) == 0 {
		sections = []section{{content: content}}
	}

	return sections
}

// chunkText packs sentences into chunks of at most maxSize characters,
// carrying overlap characters from the end of each chunk into the next.
func (c *Chunker) chunkText(text string) []string {
	if len(text) <= c.maxSize {
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, sentence := range splitSentences(text) {
		if len(current)+len(sentence) > c.maxSize && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = c.overlapText(current) + sentence
		} else {
			current += sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// overlapText takes the trailing overlap characters of a chunk, trimmed
// forward to the next sentence start when one exists.
func (c *Chunker) overlapText(text string) string {
	if len(text) <= c.overlap {
		return text
	}

	tail := text[len(text)-c.overlap:]
	if idx := strings.Index(tail, ". "); idx > 0 {
		return tail[idx+2:]
	}
	return tail
}

// Abbreviations masked before sentence splitting to avoid false breaks
var abbreviations = []string{"Dr.", "Mr.", "Mrs.", "Ms.", "Prof.", "et al.", "i.e.", "e.g.", "vs.", "Fig.", "fig."}

// abbrevMask replaces the period inside abbreviations during splitting.
// NUL never occurs in prose, so unmasking cannot corrupt literal text.
const abbrevMask = "\x00"

// splitSentences splits text on sentence boundaries, keeping terminal
// punctuation with each sentence.
func splitSentences(text string) []string {
	masked := text
	for _, abbr := range abbreviations {
		masked = strings.ReplaceAll(masked, abbr, strings.ReplaceAll(abbr, ".", abbrevMask))
	}

	parts := sentenceBoundary.Split(masked, -1)
	marks := sentenceBoundary.FindAllStringSubmatch(masked, -1)

	var sentences []string
	for i, part := range parts {
		s := part
		if i < len(marks) {
			s += marks[i][1]
		}
		s = strings.ReplaceAll(s, abbrevMask, ".")
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s+" ")
		}
	}

	return sentences
}

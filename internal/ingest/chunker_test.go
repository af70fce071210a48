package ingest

import (
	"strings"
	"testing"
)

func TestChunk_ShortDocumentIsSingleChunk(t *testing.T) {
	c := NewChunker(512, 50)
	doc := &Document{
		ID:       "d1",
		Title:    "Short Note",
		FileType: "txt",
		Content:  "Exercise improves mood. Sleep matters too.",
	}

	chunks := c.Chunk(doc)
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].ID != "d1_chunk_0" {
		t.Errorf("Expected id d1_chunk_0, got %s", chunks[0].ID)
	}
	if chunks[0].DocumentID != "d1" || chunks[0].ChunkIndex != 0 {
		t.Errorf("Unexpected chunk attribution: %+v", chunks[0])
	}
	if chunks[0].Metadata.SourceTitle != "Short Note" || chunks[0].Metadata.FileType != "txt" {
		t.Errorf("Unexpected chunk metadata: %+v", chunks[0].Metadata)
	}
}

func TestChunk_EmptyDocument(t *testing.T) {
	c := NewChunker(512, 50)
	if chunks := c.Chunk(&Document{ID: "d1", Content: "   \n  "}); chunks != nil {
		t.Errorf("Expected no chunks for blank content, got %d", len(chunks))
	}
}

func TestChunk_SectionTitlesInMetadata(t *testing.T) {
	c := NewChunker(512, 50)
	doc := &Document{
		ID: "d1",
		Content: "Intro text before any section.\n" +
			"## Methods\nWe ran a trial.\n" +
			"### Analysis\nWe used regression.\n",
	}

	chunks := c.Chunk(doc)
	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	if chunks[0].Metadata.SectionTitle != "" {
		t.Errorf("Expected untitled preamble section, got %q", chunks[0].Metadata.SectionTitle)
	}
	if chunks[1].Metadata.SectionTitle != "Methods" {
		t.Errorf("Expected section Methods, got %q", chunks[1].Metadata.SectionTitle)
	}
	if chunks[2].Metadata.SectionTitle != "Analysis" {
		t.Errorf("Expected section Analysis, got %q", chunks[2].Metadata.SectionTitle)
	}
	for i, ch := range chunks {
		if ch.ChunkIndex != i {
			t.Errorf("Expected chunk index %d, got %d", i, ch.ChunkIndex)
		}
	}
}

func TestChunkText_RespectsMaxSizeAndOverlap(t *testing.T) {
	c := NewChunker(100, 30)
	sentence := "The quick brown fox jumps over the lazy dog near the river. "
	text := strings.Repeat(sentence, 5)

	chunks := c.chunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch) > 100+30 {
			t.Errorf("Chunk %d exceeds size plus overlap budget: %d chars", i, len(ch))
		}
	}
}

func TestSplitSentences_MasksAbbreviations(t *testing.T) {
	got := splitSentences("Dr. Smith et al. found an effect. The effect was small.")
	if len(got) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], "Dr. Smith et al.") {
		t.Errorf("Expected abbreviations restored in %q", got[0])
	}
	if !strings.HasPrefix(got[1], "The effect") {
		t.Errorf("Unexpected second sentence: %q", got[1])
	}
}

func TestSplitSentences_PreservesLiteralAtSign(t *testing.T) {
	got := splitSentences("Contact a@b.com for the dataset. Dr. Smith maintains it.")
	if len(got) != 2 {
		t.Fatalf("Expected 2 sentences, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], "a@b.com") {
		t.Errorf("Expected literal @ preserved in %q", got[0])
	}
	if !strings.Contains(got[1], "Dr. Smith") {
		t.Errorf("Expected abbreviation restored in %q", got[1])
	}
}

func TestSplitSentences_KeepsTerminalPunctuation(t *testing.T) {
	got := splitSentences("Does it work? Yes! It does.")
	if len(got) != 3 {
		t.Fatalf("Expected 3 sentences, got %d: %v", len(got), got)
	}
	if !strings.HasSuffix(strings.TrimSpace(got[0]), "?") {
		t.Errorf("Expected question mark kept, got %q", got[0])
	}
	if !strings.HasSuffix(strings.TrimSpace(got[1]), "!") {
		t.Errorf("Expected exclamation mark kept, got %q", got[1])
	}
}

func TestDeriveTitle(t *testing.T) {
	if got := deriveTitle("# Exercise and Mood\n\nBody text.", "fallback"); got != "Exercise and Mood" {
		t.Errorf("Expected heading title, got %q", got)
	}
	if got := deriveTitle("No heading here.", "exercise_mood-study"); got != "Exercise Mood Study" {
		t.Errorf("Expected titleized filename, got %q", got)
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.org/paper") || !IsURL("http://example.org") {
		t.Error("Expected http(s) inputs recognized as URLs")
	}
	if IsURL("notes/paper.md") || IsURL("ftp://example.org") {
		t.Error("Expected non-http inputs rejected")
	}
}

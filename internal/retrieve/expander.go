package retrieve

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// stopWords are interrogatives and auxiliaries stripped when building the
// keyword-only query variant.
var stopWords = map[string]bool{
	"what": true, "how": true, "why": true, "when": true,
	"where": true, "which": true, "who": true,
	"is": true, "are": true, "does": true, "do": true,
}

// QueryExpander generates alternate phrasings of a query to broaden recall
type QueryExpander struct{}

// NewQueryExpander creates a new query expander
func NewQueryExpander() *QueryExpander {
	return &QueryExpander{}
}

// Expand returns up to three query variants. The first element is always
// the original query verbatim; later elements never duplicate an earlier
// one.
func (e *QueryExpander) Expand(query string) []string {
	variants := []string{query}

	// Variant 1: drop question words and short tokens, keeping keywords.
	var keywords []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		if stopWords[word] || len(word) <= 2 {
			continue
		}
		keywords = append(keywords, word)
	}
	if len(keywords) > 0 {
		keywordQuery := strings.Join(keywords, " ")
		if keywordQuery != strings.ToLower(query) {
			variants = appendDistinct(variants, keywordQuery)
		}
	}

	// Variant 2: capitalized tokens, likely proper nouns or technical terms.
	var keyTerms []string
	for _, word := range strings.Fields(query) {
		first, _ := utf8.DecodeRuneInString(word)
		if unicode.IsUpper(first) && len(word) > 2 {
			keyTerms = append(keyTerms, word)
		}
	}
	if len(keyTerms) > 0 {
		variants = appendDistinct(variants, strings.Join(keyTerms, " "))
	}

	if len(variants) > 3 {
		variants = variants[:3]
	}
	return variants
}

func appendDistinct(variants []string, candidate string) []string {
	for _, existing := range variants {
		if existing == candidate {
			return variants
		}
	}
	return append(variants, candidate)
}

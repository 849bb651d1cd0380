package search

import (
	"strings"
	"unicode"
)

// stopWords are ignored when checking for verbatim matches.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "be": true, "is": true, "are": true,
	"was": true, "to": true, "of": true, "and": true, "in": true, "that": true,
	"have": true, "it": true, "for": true, "not": true, "on": true, "with": true,
	"as": true, "you": true, "do": true, "at": true, "this": true, "but": true,
	"by": true, "from": true, "or": true, "we": true, "our": true,
	"your": true, "will": true, "can": true,
}

// tokenizeAndFilter lowercases the words of text, trims their punctuation
// and drops stop words.
func tokenizeAndFilter(text string) []string {
	words := strings.Fields(text)
	filtered := make([]string, 0, len(words))

	for _, word := range words {
		cleaned := strings.ToLower(strings.TrimFunc(word, isEdgeRune))

		if cleaned != "" && !stopWords[cleaned] {
			filtered = append(filtered, cleaned)
		}
	}

	return filtered
}

// containsAllQueryWords reports whether every filtered query word occurs in
// the document. A query made only of stop words never matches.
func containsAllQueryWords(document, query string) bool {
	queryWords := tokenizeAndFilter(query)
	if len(queryWords) == 0 {
		return false
	}

	docWords := tokenizeAndFilter(document)
	docWordSet := make(map[string]struct{}, len(docWords))
	for _, word := range docWords {
		docWordSet[word] = struct{}{}
	}

	for _, qWord := range queryWords {
		if _, ok := docWordSet[qWord]; !ok {
			return false
		}
	}

	return true
}

func isEdgeRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

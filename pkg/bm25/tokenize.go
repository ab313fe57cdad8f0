package bm25

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/blevesearch/segment"
)

// DefaultStopWords is a small, generic English stop-word list. Callers can
// pass a nil or custom set to Tokenize; this one is only a convenience
// default, not something the tokenizer hardcodes.
var DefaultStopWords = buildStopWordSet([]string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from",
	"has", "he", "in", "is", "it", "its", "of", "on", "that", "the",
	"to", "was", "were", "will", "with",
})

func buildStopWordSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// Tokenize lowercases text and splits it on non-alphanumeric boundaries
// using a Unicode word segmenter, then drops any token present in
// stopWords (nil disables stop-word filtering). Segments that contain no
// letter or digit (pure punctuation or whitespace runs) are discarded, and
// a segment the word segmenter keeps whole across a non-alphanumeric rune
// (such as "foo_bar") is split again at that rune.
func Tokenize(text string, stopWords map[string]struct{}) []string {
	seg := segment.NewWordSegmenter(bytes.NewReader([]byte(text)))
	tokens := make([]string, 0, len(text)/6+1)
	notAlphanumeric := func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) }

	for seg.Segment() {
		word := seg.Bytes()
		if !containsAlphanumeric(word) {
			continue
		}
		for _, term := range strings.FieldsFunc(strings.ToLower(string(word)), notAlphanumeric) {
			if stopWords != nil {
				if _, stop := stopWords[term]; stop {
					continue
				}
			}
			tokens = append(tokens, term)
		}
	}

	return tokens
}

func containsAlphanumeric(b []byte) bool {
	for _, r := range string(b) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

package search

import (
	"regexp"
	"strings"
)

// Stop words excluded from keyword extraction
var stopWords = map[string]bool{
	"the": true, "is": true, "at": true, "which": true, "on": true,
	"and": true, "or": true, "but": true, "in": true, "to": true,
	"for": true, "with": true, "by": true, "from": true, "up": true,
	"about": true, "into": true, "over": true, "after": true,
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s]`)

// ExtractKeywords pulls meaningful search terms out of a query: lowercased,
// stripped of punctuation, at least three characters, and not a stop word.
// Duplicates are removed, first occurrence order is preserved.
func ExtractKeywords(text string) []string {
	cleaned := nonAlphanumeric.ReplaceAllString(strings.ToLower(text), "")

	seen := make(map[string]bool)
	keywords := make([]string, 0)
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 2 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

// ScoreKeywords counts whole-word occurrences of each keyword in the content
// and normalizes the count per 100 characters. The score is diagnostic
// metadata only and never feeds back into the semantic rank. Also returns
// the keywords that matched at least once.
func ScoreKeywords(content string, keywords []string) (float32, []string) {
	if content == "" || len(keywords) == 0 {
		return 0, nil
	}

	contentLower := strings.ToLower(content)
	total := 0
	matched := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		count := countWholeWord(contentLower, keyword)
		if count > 0 {
			total += count
			matched = append(matched, keyword)
		}
	}
	if total == 0 {
		return 0, nil
	}

	return float32(total) / (float32(len(content)) / 100), matched
}

// countWholeWord counts occurrences of word in s that are bounded by
// non-word characters or the string edges. Overlaps are impossible since
// an occurrence is consumed whole before the scan resumes.
func countWholeWord(s, word string) int {
	if word == "" {
		return 0
	}

	count := 0
	for offset := 0; ; {
		i := strings.Index(s[offset:], word)
		if i < 0 {
			return count
		}
		at := offset + i
		end := at + len(word)
		if (at == 0 || !isWordChar(s[at-1])) && (end == len(s) || !isWordChar(s[end])) {
			count++
		}
		offset = end
	}
}

// isWordChar reports whether b belongs to the \w class, so boundaries agree
// with the regexp definition: letters, digits, underscore.
func isWordChar(b byte) bool {
	return b == '_' ||
		('0' <= b && b <= '9') ||
		('a' <= b && b <= 'z') ||
		('A' <= b && b <= 'Z')
}

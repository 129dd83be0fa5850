package search

import (
	"regexp"
	"strings"
)

// wikiLinkPattern matches [[Title]] and [[Title|alias]] references.
var wikiLinkPattern = regexp.MustCompile(`\[\[(.*?)\]\]`)

// extractWikiLinks returns the note titles referenced by wiki links in the
// text. Aliased links keep only the target before the pipe. Duplicates are
// removed, first occurrence order is preserved.
func extractWikiLinks(text string) []string {
	matches := wikiLinkPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	titles := make([]string, 0, len(matches))
	for _, match := range matches {
		title := strings.TrimSpace(strings.SplitN(match[1], "|", 2)[0])
		if title == "" {
			continue
		}
		key := strings.ToLower(title)
		if seen[key] {
			continue
		}
		seen[key] = true
		titles = append(titles, title)
	}
	return titles
}

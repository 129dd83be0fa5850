package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	t.Run("drops stop words and short tokens", func(t *testing.T) {
		keywords := ExtractKeywords("the notes about my go project")
		assert.Equal(t, []string{"notes", "project"}, keywords)
	})

	t.Run("strips punctuation and lowercases", func(t *testing.T) {
		keywords := ExtractKeywords("Kubernetes, deployment-plan!")
		assert.Equal(t, []string{"kubernetes", "deploymentplan"}, keywords)
	})

	t.Run("deduplicates preserving order", func(t *testing.T) {
		keywords := ExtractKeywords("docker docker compose Docker")
		assert.Equal(t, []string{"docker", "compose"}, keywords)
	})

	t.Run("empty input yields no keywords", func(t *testing.T) {
		assert.Empty(t, ExtractKeywords(""))
		assert.Empty(t, ExtractKeywords("a to of"))
	})
}

func TestScoreKeywords(t *testing.T) {
	t.Run("counts whole word matches only", func(t *testing.T) {
		content := "the catalog lists a cat and another cat"
		score, matched := ScoreKeywords(content, []string{"cat"})
		// Two whole-word hits; "catalog" must not count.
		assert.InDelta(t, 2.0/(float64(len(content))/100), float64(score), 1e-6)
		assert.Equal(t, []string{"cat"}, matched)
	})

	t.Run("normalizes per 100 characters", func(t *testing.T) {
		short := "meeting"
		long := "meeting" + strings.Repeat(" filler", 100)
		shortScore, _ := ScoreKeywords(short, []string{"meeting"})
		longScore, _ := ScoreKeywords(long, []string{"meeting"})
		assert.Greater(t, shortScore, longScore)
	})

	t.Run("no matches yields zero and no matched terms", func(t *testing.T) {
		score, matched := ScoreKeywords("nothing relevant here", []string{"kubernetes"})
		assert.Equal(t, float32(0), score)
		assert.Empty(t, matched)
	})

	t.Run("empty content or keywords yields zero", func(t *testing.T) {
		score, matched := ScoreKeywords("", []string{"cat"})
		assert.Equal(t, float32(0), score)
		assert.Empty(t, matched)

		score, matched = ScoreKeywords("content", nil)
		assert.Equal(t, float32(0), score)
		assert.Empty(t, matched)
	})
}

func TestCountWholeWord(t *testing.T) {
	tests := []struct {
		name    string
		content string
		word    string
		want    int
	}{
		{"hit at both edges", "cat sat on a cat", "cat", 2},
		{"substring is not a word", "concatenate the catalog", "cat", 0},
		{"underscore is a word character", "build_cat cat_name cat", "cat", 1},
		{"adjacent punctuation still bounds", "cat, (cat) cat.", "cat", 3},
		{"repeated occurrences back to back", "cat cat cat", "cat", 3},
		{"empty word", "anything", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countWholeWord(tt.content, tt.word))
		})
	}
}

func TestExtractWikiLinks(t *testing.T) {
	t.Run("finds links", func(t *testing.T) {
		links := extractWikiLinks("see [[Project Plan]] and [[Meeting Notes]]")
		assert.Equal(t, []string{"Project Plan", "Meeting Notes"}, links)
	})

	t.Run("aliased links keep only the target", func(t *testing.T) {
		links := extractWikiLinks("see [[Project Plan|the plan]]")
		assert.Equal(t, []string{"Project Plan"}, links)
	})

	t.Run("deduplicates case-insensitively", func(t *testing.T) {
		links := extractWikiLinks("[[Project Plan]] then [[project plan]]")
		assert.Equal(t, []string{"Project Plan"}, links)
	})

	t.Run("ignores empty links and plain text", func(t *testing.T) {
		assert.Empty(t, extractWikiLinks("[[]] no links here"))
		assert.Empty(t, extractWikiLinks("nothing bracketed"))
	})
}

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIDFromContent(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		a := IDFromContent("daily note 2025-01-02")
		b := IDFromContent("daily note 2025-01-02")
		assert.Equal(t, a, b)
	})

	t.Run("distinct content distinct ids", func(t *testing.T) {
		a := IDFromContent("alpha")
		b := IDFromContent("beta")
		assert.NotEqual(t, a, b)
	})
}

func TestRankedDocumentOffer(t *testing.T) {
	t.Run("aggregate score is best chunk", func(t *testing.T) {
		doc := &RankedDocument{DocumentId: 1}
		doc.Offer("a", 0.80)
		doc.Offer("b", 0.92)
		doc.Offer("c", 0.85)
		assert.InDelta(t, 0.92, doc.Score, 1e-6)
	})

	t.Run("never exceeds five chunks", func(t *testing.T) {
		doc := &RankedDocument{DocumentId: 1}
		for i := 0; i < 10; i++ {
			doc.Offer("chunk", 0.76+float32(i)*0.01)
		}
		assert.Len(t, doc.Chunks, MaxChunksPerDocument)
	})

	t.Run("new chunk displaces minimum only when strictly better", func(t *testing.T) {
		doc := &RankedDocument{DocumentId: 1}
		scores := []float32{0.90, 0.88, 0.86, 0.84, 0.82}
		for _, s := range scores {
			doc.Offer("kept", s)
		}

		// Equal to the minimum: must not displace.
		doc.Offer("equal", 0.82)
		for _, c := range doc.Chunks {
			assert.NotEqual(t, "equal", c.Text)
		}

		// Strictly better than the minimum: displaces it.
		doc.Offer("better", 0.83)
		var found bool
		for _, c := range doc.Chunks {
			assert.Greater(t, c.Score, float32(0.82))
			if c.Text == "better" {
				found = true
			}
		}
		assert.True(t, found)
	})
}

func TestDateRangeContains(t *testing.T) {
	r := DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	assert.True(t, r.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDateRangeString(t *testing.T) {
	single := DateRange{
		Start: time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2025-06-14", single.String())

	span := DateRange{
		Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "2025-01-01 to 2025-01-31", span.String())
}

func TestPromptBudget(t *testing.T) {
	budget := &PromptBudget{MaxTokens: 100}
	assert.Equal(t, 100, budget.Remaining())

	budget.Spend(60)
	assert.Equal(t, 40, budget.Remaining())

	budget.Spend(60)
	assert.Equal(t, 0, budget.Remaining())
}

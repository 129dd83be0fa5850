package mock

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
)

// embeddingDim is the dimensionality of default mock embeddings. Small on
// purpose: bucket collisions between unrelated words are tolerable in tests,
// and similarity stays driven by shared vocabulary.
const embeddingDim = 64

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
//
// When no function is injected, embeddings are bag-of-words vectors: each
// word of the text is hashed into a dimension and the result is normalized
// to unit length. Texts sharing vocabulary therefore score high cosine
// similarity against each other, which lets retrieval tests seed notes and
// queries as plain strings instead of hand-picked vectors.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	callCount int
}

// NewMockEmbedder creates a mock embedder with the bag-of-words default.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{}
}

// EmbedText embeds a single text.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}
	return vocabularyVector(text), nil
}

// EmbedTexts embeds a batch of texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, texts)
	}

	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = vocabularyVector(text)
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// vocabularyVector builds a unit-length bag-of-words embedding. Each word
// contributes its occurrence count to one hashed dimension. Deterministic:
// the same text always yields the same vector, and word order is ignored.
// Whitespace-only text yields the zero vector.
func vocabularyVector(text string) []float32 {
	vector := make([]float32, embeddingDim)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?()[]\"'")
		if word == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(word))
		vector[h.Sum32()%embeddingDim]++
	}

	var sumSquares float64
	for _, v := range vector {
		sumSquares += float64(v) * float64(v)
	}
	if sumSquares == 0 {
		return vector
	}
	norm := float32(math.Sqrt(sumSquares))
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

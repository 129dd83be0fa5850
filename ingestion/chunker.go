// Copyright 2025 Sidekick Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import "strings"

const (
	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 2000

	// DefaultChunkOverlap is how many characters consecutive chunks share,
	// so sentences near a boundary stay searchable in one piece.
	DefaultChunkOverlap = 300
)

// boundarySeparators are tried in order when pulling a chunk boundary back
// to a natural break: paragraph, line, then sentence.
var boundarySeparators = []string{"\n\n", "\n", ". "}

// Chunker splits document text into overlapping chunks for embedding.
type Chunker struct {
	size    int
	overlap int
}

// ChunkerOption configures a Chunker.
type ChunkerOption func(*Chunker)

// WithChunkSize sets the maximum chunk length in characters.
func WithChunkSize(size int) ChunkerOption {
	return func(c *Chunker) {
		if size > 0 {
			c.size = size
		}
	}
}

// WithChunkOverlap sets the overlap between consecutive chunks.
func WithChunkOverlap(overlap int) ChunkerOption {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// NewChunker creates a Chunker with the default size and overlap.
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size - 1
	}
	return c
}

// Split cuts text into overlapping chunks. Chunk boundaries are pulled back
// to the last paragraph break, line break, or sentence end inside the
// window, in that order of preference. Each returned chunk is trimmed of
// surrounding whitespace; whitespace-only pieces are dropped.
//
// Lengths count characters, not bytes, so multi-byte text never gets cut
// mid-rune.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			// Final window, no boundary search needed.
			if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
				chunks = append(chunks, piece)
			}
			break
		}

		// Pull the boundary back to a natural break inside the window.
		for _, sep := range boundarySeparators {
			if pos := lastIndexRunes(runes[start:end], sep); pos != -1 {
				end = start + pos + len([]rune(sep))
				break
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			chunks = append(chunks, piece)
		}

		// A boundary very close to start could otherwise move the window
		// backwards and loop forever.
		next := end - c.overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastIndexRunes returns the rune index of the last occurrence of sep in
// window, or -1.
func lastIndexRunes(window []rune, sep string) int {
	sepRunes := []rune(sep)
	for i := len(window) - len(sepRunes); i >= 0; i-- {
		match := true
		for j, r := range sepRunes {
			if window[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

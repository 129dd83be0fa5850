package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Document and chunk IDs are derived from content hashing so that
// re-ingesting the same note is idempotent.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// Identical content always produces the same ID.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// DateSource identifies where a document's date was derived from.
type DateSource int

const (
	// DateSourceFilename means the date was parsed out of the note's filename.
	DateSourceFilename DateSource = iota + 1
	// DateSourceContent means the date was parsed out of the note's body.
	DateSourceContent
	// DateSourceCreatedAt means the date fell back to the file creation time.
	DateSourceCreatedAt
)

// Document represents a single note in the corpus.
type Document struct {
	Id             ID
	UserId         string
	Title          string
	Content        string
	Date           time.Time // zero when no date could be extracted
	DateConfidence float32
	DateSource     DateSource
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// HasDate reports whether a date was extracted for the document.
func (d *Document) HasDate() bool {
	return !d.Date.IsZero()
}

// Chunk is a bounded-length slice of a document's text with its embedding.
// Chunks are immutable once produced.
type Chunk struct {
	Id         ID
	DocumentId ID
	Index      int
	Text       string
	Embedding  []float32
	InsertedAt time.Time
}

// ScoredChunk pairs a chunk's text with its similarity score against a query.
type ScoredChunk struct {
	Text  string
	Score float32
}

// MaxChunksPerDocument bounds the chunk set retained per document while ranking.
const MaxChunksPerDocument = 5

// RankedDocument accumulates the best-scoring chunks of one document during
// a ranking pass. The chunk set is a bounded top-K structure: it never holds
// more than MaxChunksPerDocument entries, and a new chunk only enters by
// displacing the current minimum when strictly better.
type RankedDocument struct {
	DocumentId ID
	Title      string
	Score      float32 // best single chunk, later boosted
	Chunks     []ScoredChunk
	Date       time.Time
}

// Offer considers a chunk for the bounded top-K set and updates the
// document's aggregate score, which is the score of its single best chunk.
func (r *RankedDocument) Offer(text string, score float32) {
	if score > r.Score {
		r.Score = score
	}
	if len(r.Chunks) < MaxChunksPerDocument {
		r.Chunks = append(r.Chunks, ScoredChunk{Text: text, Score: score})
		return
	}
	min := 0
	for i := 1; i < len(r.Chunks); i++ {
		if r.Chunks[i].Score < r.Chunks[min].Score {
			min = i
		}
	}
	if score > r.Chunks[min].Score {
		r.Chunks[min] = ScoredChunk{Text: text, Score: score}
	}
}

// LinkedContext is a wiki-linked note attached to a highly relevant result.
type LinkedContext struct {
	NotePath  string
	Relevance float32
	Context   string
}

// SearchResult is one entry of a ranked, deduplicated result set.
// Explicit results come from [[Title]] references in the user's message and
// are exempt from the similarity threshold and from budget eviction.
type SearchResult struct {
	Id              ID
	Score           float32
	Content         string
	Title           string
	Explicit        bool
	KeywordScore    float32
	MatchedKeywords []string
	LinkedContexts  []LinkedContext
	DocumentDate    time.Time // zero when unknown
}

// DateRange is an inclusive calendar date range with Start <= End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the range, at day granularity.
func (r DateRange) Contains(d time.Time) bool {
	day := Day(d)
	return !day.Before(Day(r.Start)) && !day.After(Day(r.End))
}

// String renders the range as ISO dates.
func (r DateRange) String() string {
	if Day(r.Start).Equal(Day(r.End)) {
		return r.Start.Format("2006-01-02")
	}
	return r.Start.Format("2006-01-02") + " to " + r.End.Format("2006-01-02")
}

// Day truncates a time to midnight UTC, the day granularity used by all
// date-range arithmetic.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParsedQuery is the result of parsing a query for temporal intent.
type ParsedQuery struct {
	CleanQuery        string // query with temporal phrases removed, for semantic search
	DateRange         *DateRange
	HasTemporalIntent bool
	Description       string // human-readable, e.g. "January 2025", "last 7 days"
}

// ExtractedDate is the result of date extraction from a filename.
type ExtractedDate struct {
	Date       time.Time
	Source     DateSource
	Confidence float32
}

// PromptBudget tracks token spend during context assembly.
// It is request-scoped and never persisted.
type PromptBudget struct {
	MaxTokens  int
	UsedTokens int
}

// Remaining returns the tokens still available, never negative.
func (b *PromptBudget) Remaining() int {
	if b.UsedTokens >= b.MaxTokens {
		return 0
	}
	return b.MaxTokens - b.UsedTokens
}

// Spend records token usage against the budget.
func (b *PromptBudget) Spend(tokens int) {
	b.UsedTokens += tokens
}

// MessageRole identifies the author of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single conversational turn handed to the completion provider.
type Message struct {
	Role    MessageRole
	Content string
}

// Checkpoint records how far a background processor has progressed, so an
// interrupted run can resume instead of starting over.
type Checkpoint struct {
	ProcessorType string
	Position      int
	UpdatedAt     time.Time
}

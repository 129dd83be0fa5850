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


package search

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sort"
	"strings"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
	"github.com/sidekick-labs/sidekick/temporal"
)

const (
	// SimilarityThreshold is the minimum cosine similarity for a chunk to
	// participate in ranking at all.
	SimilarityThreshold float32 = 0.75

	// LinkThreshold is the stricter score above which a result qualifies for
	// linked-note expansion.
	LinkThreshold float32 = 0.8

	// DateMatchScore is assigned to documents found purely by date-range
	// scan. It sits below 1.0 so explicit references still outrank them.
	DateMatchScore float32 = 0.95

	// ExplicitScore is assigned to documents cited via [[Title]] references.
	ExplicitScore float32 = 1.0

	// DefaultPageSize bounds how many chunk embeddings are held in memory
	// during one corpus scan step.
	DefaultPageSize = 500

	// MaxResults caps the result set of a single search.
	MaxResults = 50

	// linkedContextLength bounds the excerpt attached for a linked note.
	linkedContextLength = 2000
)

// Searcher ranks a user's notes against free-text queries, combining
// semantic similarity with temporal intent.
type Searcher struct {
	docRepository   storage.DocumentRepository
	chunkRepository storage.ChunkRepository
	embedder        ai.Embedder
	parser          *temporal.Parser
	retry           ai.RetryPolicy
	pageSize        int
	logger          *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithParser sets a custom temporal query parser.
func WithParser(parser *temporal.Parser) Option {
	return func(s *Searcher) error {
		if parser != nil {
			s.parser = parser
		}
		return nil
	}
}

// WithRetryPolicy sets the retry policy applied to embedding calls.
func WithRetryPolicy(policy ai.RetryPolicy) Option {
	return func(s *Searcher) error {
		s.retry = policy
		return nil
	}
}

// WithPageSize sets the corpus scan page size.
func WithPageSize(size int) Option {
	return func(s *Searcher) error {
		if size > 0 {
			s.pageSize = size
		}
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	docRepository storage.DocumentRepository,
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Searcher, error) {
	if docRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		docRepository:   docRepository,
		chunkRepository: chunkRepository,
		embedder:        provider.Embedder(),
		parser:          temporal.NewParser(),
		retry:           ai.DefaultRetryPolicy(),
		pageSize:        DefaultPageSize,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// ParseTemporalIntent exposes the temporal parse step on its own, for
// callers that want to inspect date intent without running a full search.
func (s *Searcher) ParseTemporalIntent(query string) core.ParsedQuery {
	return s.parser.Parse(query)
}

// Search ranks the user's notes against the query.
// Returns up to maxHits results sorted by score descending; maxHits values
// outside (0, MaxResults] are clamped to MaxResults.
func (s *Searcher) Search(ctx context.Context, userID, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, userID, query, maxHits, nil)
}

// SearchWithMonitor runs a search with monitoring callbacks at each stage.
//
// Embedding-provider failures are returned to the caller; corpus scan
// failures degrade to an empty result set so a broken index never blocks
// the surrounding chat flow.
func (s *Searcher) SearchWithMonitor(ctx context.Context, userID, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if maxHits <= 0 || maxHits > MaxResults {
		maxHits = MaxResults
	}

	monitor.Start(query)

	// 1. Parse temporal intent; ranking runs on the cleaned query.
	parsed := s.parser.Parse(query)
	monitor.AfterTemporalParse(parsed)
	if parsed.HasTemporalIntent {
		s.logger.Debug("detected temporal intent",
			"query", query, "range", parsed.DateRange.String(), "description", parsed.Description)
	}

	// 2. Resolve explicit [[Title]] references at maximum relevance.
	explicit, explicitIds := s.resolveExplicit(ctx, userID, query)
	monitor.AfterExplicitResolution(explicitIds)

	// 3. Embed the cleaned query. A purely temporal query may clean down to
	// nothing; then the date-range scan is the only retrieval signal.
	var embedding []float32
	if strings.TrimSpace(parsed.CleanQuery) != "" {
		err := s.retry.Do(ctx, func(ctx context.Context) error {
			var embedErr error
			embedding, embedErr = s.embedder.EmbedText(ctx, parsed.CleanQuery)
			return embedErr
		})
		if err != nil {
			s.logger.Error("error generating embedding for query", "query", parsed.CleanQuery, "err", err)
			return nil, err
		}
	}

	// 4. Rank chunk embeddings over a paginated corpus scan.
	ranked, err := s.rank(ctx, userID, embedding, monitor)
	if err != nil {
		s.logger.Error("corpus scan failed, returning empty result set", "err", err)
		empty := []*core.SearchResult{}
		monitor.Finish(empty)
		return empty, nil
	}
	monitor.AfterRanking(maps.Keys(ranked))

	// 5. Attach document metadata and apply the date proximity boost.
	if err := s.attachDocuments(ctx, userID, ranked); err != nil {
		s.logger.Error("document retrieval failed, returning empty result set", "err", err)
		empty := []*core.SearchResult{}
		monitor.Finish(empty)
		return empty, nil
	}
	if parsed.DateRange != nil {
		for _, doc := range ranked {
			doc.Score = temporal.Apply(doc.Score, doc.Date, parsed.DateRange)
		}
	}

	// 6. Build results from ranked documents, expanding linked notes for the
	// highly relevant ones.
	results := make([]*core.SearchResult, 0, len(ranked)+len(explicit))
	results = append(results, explicit...)
	inExplicit := make(map[core.ID]bool, len(explicitIds))
	for _, id := range explicitIds {
		inExplicit[id] = true
	}

	for _, doc := range ranked {
		if inExplicit[doc.DocumentId] {
			continue
		}
		result := &core.SearchResult{
			Id:           doc.DocumentId,
			Score:        doc.Score,
			Content:      combineChunks(doc.Chunks),
			Title:        doc.Title,
			DocumentDate: doc.Date,
		}
		if doc.Score >= LinkThreshold && embedding != nil {
			result.LinkedContexts = s.linkedContexts(ctx, userID, result, embedding, monitor)
		}
		results = append(results, result)
	}

	// 7. Inject documents matched purely by date so temporal queries surface
	// all same-day content, not only what resembles the query text.
	if parsed.DateRange != nil {
		results = append(results, s.dateMatched(ctx, userID, parsed.DateRange, ranked, inExplicit, monitor)...)
	}

	// 8. Annotate keyword overlap. Diagnostic only.
	keywords := ExtractKeywords(parsed.CleanQuery)
	for _, result := range results {
		result.KeywordScore, result.MatchedKeywords = ScoreKeywords(result.Content, keywords)
	}

	// Sort by score descending; explicit results win score ties, then
	// document ID ascending keeps equal scores deterministic.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Explicit != results[j].Explicit {
			return results[i].Explicit
		}
		return results[i].Id < results[j].Id
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// resolveExplicit looks up every [[Title]] reference in the raw query.
// Unresolvable references are skipped; the user may be citing a note that
// does not exist yet.
func (s *Searcher) resolveExplicit(ctx context.Context, userID, query string) ([]*core.SearchResult, []core.ID) {
	titles := extractWikiLinks(query)
	if len(titles) == 0 {
		return nil, nil
	}

	results := make([]*core.SearchResult, 0, len(titles))
	ids := make([]core.ID, 0, len(titles))
	for _, title := range titles {
		doc, err := s.docRepository.GetDocumentByTitle(ctx, userID, title)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.logger.Debug("referenced note not found", "title", title)
			} else {
				s.logger.Warn("error resolving referenced note", "title", title, "err", err)
			}
			continue
		}
		results = append(results, &core.SearchResult{
			Id:           doc.Id,
			Score:        ExplicitScore,
			Content:      doc.Content,
			Title:        doc.Title,
			Explicit:     true,
			DocumentDate: doc.Date,
		})
		ids = append(ids, doc.Id)
	}
	return results, ids
}

// rank scans the user's chunk embeddings page by page, keeping a bounded
// top-5 chunk set per document. Chunks below the similarity threshold are
// discarded immediately; malformed rows are skipped with a warning. The
// outcome is invariant to page order.
func (s *Searcher) rank(ctx context.Context, userID string, queryEmbedding []float32, monitor SearchMonitor) (map[core.ID]*core.RankedDocument, error) {
	ranked := make(map[core.ID]*core.RankedDocument)
	if queryEmbedding == nil {
		return ranked, nil
	}

	offset := 0
	for {
		page, err := s.chunkRepository.FetchEmbeddingsPage(ctx, userID, offset, s.pageSize)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}

		retained := 0
		for _, chunk := range page {
			if len(chunk.Embedding) != len(queryEmbedding) {
				s.logger.Warn("skipping chunk with malformed embedding",
					"chunkId", chunk.Id, "documentId", chunk.DocumentId,
					"dimensions", len(chunk.Embedding), "expected", len(queryEmbedding))
				continue
			}
			score := CosineSimilarity(queryEmbedding, chunk.Embedding)
			if score < SimilarityThreshold {
				continue
			}
			doc := ranked[chunk.DocumentId]
			if doc == nil {
				doc = &core.RankedDocument{DocumentId: chunk.DocumentId}
				ranked[chunk.DocumentId] = doc
			}
			doc.Offer(chunk.Text, score)
			retained++
		}
		monitor.AfterPageScan(offset, len(page), retained)

		if len(page) < s.pageSize {
			break
		}
		offset += s.pageSize
	}
	return ranked, nil
}

// attachDocuments fills in title and date for every ranked document.
// Ranked entries whose document record is gone are dropped; their chunks
// are orphans from an interrupted delete.
func (s *Searcher) attachDocuments(ctx context.Context, userID string, ranked map[core.ID]*core.RankedDocument) error {
	if len(ranked) == 0 {
		return nil
	}

	ids := make([]core.ID, 0, len(ranked))
	for id := range ranked {
		ids = append(ids, id)
	}
	docs, err := s.docRepository.GetDocuments(ctx, userID, ids...)
	if err != nil {
		return err
	}

	found := make(map[core.ID]*core.Document, len(docs))
	for _, doc := range docs {
		found[doc.Id] = doc
	}
	for id, entry := range ranked {
		doc := found[id]
		if doc == nil {
			s.logger.Warn("dropping ranked chunks with no document record", "documentId", id)
			delete(ranked, id)
			continue
		}
		entry.Title = doc.Title
		entry.Date = doc.Date
	}
	return nil
}

// dateMatched fetches documents dated inside the query range and injects
// the ones ranking has not already surfaced.
func (s *Searcher) dateMatched(
	ctx context.Context,
	userID string,
	dateRange *core.DateRange,
	ranked map[core.ID]*core.RankedDocument,
	inExplicit map[core.ID]bool,
	monitor SearchMonitor,
) []*core.SearchResult {
	// Anything past the result cap would be trimmed after sorting anyway,
	// so the fetch is bounded to the cap.
	docs, err := s.docRepository.GetDocumentsByDateRange(ctx, userID, dateRange.Start, dateRange.End, MaxResults)
	if err != nil {
		s.logger.Warn("date-range scan failed, continuing without injection", "range", dateRange.String(), "err", err)
		return nil
	}

	injected := make([]*core.SearchResult, 0, len(docs))
	for _, doc := range docs {
		if inExplicit[doc.Id] {
			continue
		}
		if _, ok := ranked[doc.Id]; ok {
			continue
		}
		monitor.DateMatchedHit(doc.Id)
		injected = append(injected, &core.SearchResult{
			Id:           doc.Id,
			Score:        DateMatchScore,
			Content:      doc.Content,
			Title:        doc.Title,
			DocumentDate: doc.Date,
		})
	}
	return injected
}

// linkedContexts resolves wiki links inside a result's content and attaches
// the linked notes that also clear the similarity threshold against the
// query. Link resolution failures never fail the search.
func (s *Searcher) linkedContexts(
	ctx context.Context,
	userID string,
	result *core.SearchResult,
	queryEmbedding []float32,
	monitor SearchMonitor,
) []core.LinkedContext {
	titles := extractWikiLinks(result.Content)
	if len(titles) == 0 {
		return nil
	}

	contexts := make([]core.LinkedContext, 0, len(titles))
	for _, title := range titles {
		doc, err := s.docRepository.GetDocumentByTitle(ctx, userID, title)
		if err != nil {
			if !errors.Is(err, storage.ErrNotFound) {
				s.logger.Warn("error resolving linked note", "title", title, "err", err)
			}
			continue
		}
		if doc.Id == result.Id {
			continue
		}

		relevance, err := s.bestChunkSimilarity(ctx, userID, doc.Id, queryEmbedding)
		if err != nil {
			s.logger.Warn("error scoring linked note", "title", title, "err", err)
			continue
		}
		if relevance < SimilarityThreshold {
			continue
		}

		monitor.LinkedNoteAttached(result.Id, doc.Title)
		contexts = append(contexts, core.LinkedContext{
			NotePath:  doc.Title,
			Relevance: relevance,
			Context:   excerpt(doc.Content, linkedContextLength),
		})
	}
	if len(contexts) == 0 {
		return nil
	}

	sort.SliceStable(contexts, func(i, j int) bool {
		return contexts[i].Relevance > contexts[j].Relevance
	})
	return contexts
}

// bestChunkSimilarity returns the highest similarity between the query and
// any chunk of the given document.
func (s *Searcher) bestChunkSimilarity(ctx context.Context, userID string, docID core.ID, queryEmbedding []float32) (float32, error) {
	chunks, err := s.chunkRepository.GetChunksByDocument(ctx, userID, docID)
	if err != nil {
		return 0, err
	}

	var best float32 = -1
	for _, chunk := range chunks {
		if len(chunk.Embedding) != len(queryEmbedding) {
			continue
		}
		if score := CosineSimilarity(queryEmbedding, chunk.Embedding); score > best {
			best = score
		}
	}
	return best, nil
}

// combineChunks joins a document's retained chunks, best-scoring first.
func combineChunks(chunks []core.ScoredChunk) string {
	sorted := make([]core.ScoredChunk, len(chunks))
	copy(sorted, chunks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	texts := make([]string, len(sorted))
	for i, chunk := range sorted {
		texts[i] = chunk.Text
	}
	return strings.Join(texts, "\n")
}

// excerpt truncates content to at most maxLength runes.
func excerpt(content string, maxLength int) string {
	runes := []rune(content)
	if len(runes) <= maxLength {
		return content
	}
	return string(runes[:maxLength])
}

package ingestion

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/core"
	"github.com/sidekick-labs/sidekick/storage"
	"github.com/sidekick-labs/sidekick/temporal"
)

// Pipeline orchestrates the ingestion of note files. It stores the document,
// anchors it in time via filename date extraction, and embeds its chunks
// concurrently on a worker pool.
type Pipeline struct {
	docRepository   storage.DocumentRepository
	chunkRepository storage.ChunkRepository
	chunker         *Chunker
	extractor       *temporal.Extractor
	embeddingPool   *ants.Pool
	embeddingProc   *embeddingProcessor
	wg              sync.WaitGroup
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent embedding.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		if p.embeddingPool != nil {
			p.embeddingPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.embeddingPool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithChunker sets a custom chunker.
func WithChunker(chunker *Chunker) Option {
	return func(p *Pipeline) error {
		if chunker != nil {
			p.chunker = chunker
		}
		return nil
	}
}

// WithExtractor sets a custom date extractor.
func WithExtractor(extractor *temporal.Extractor) Option {
	return func(p *Pipeline) error {
		if extractor != nil {
			p.extractor = extractor
		}
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	docRepository storage.DocumentRepository,
	chunkRepository storage.ChunkRepository,
	provider ai.AIProvider,
	opts ...Option,
) (*Pipeline, error) {
	if docRepository == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if chunkRepository == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		docRepository:   docRepository,
		chunkRepository: chunkRepository,
		chunker:         NewChunker(),
		extractor:       temporal.NewExtractor(),
		embeddingPool:   pool,
		logger:          slog.Default(),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	proc, err := newEmbeddingProcessor(chunkRepository, provider.Embedder(), p.logger)
	if err != nil {
		p.Release()
		return nil, err
	}
	p.embeddingProc = proc

	return p, nil
}

// IngestFile stores a note file as a document and schedules its chunks for
// embedding. The title is the filename without directory or extension; the
// document date comes from the filename when one can be extracted, falling
// back to createdAt.
//
// Embedding runs asynchronously; failures there are logged and retried on
// the next ingest of the same file, they do not fail this call. The returned
// document is already persisted.
func (p *Pipeline) IngestFile(ctx context.Context, userID, filename, content string, createdAt time.Time) (*core.Document, error) {
	title := TitleFromFilename(filename)
	if title == "" {
		return nil, ErrEmptyFilename
	}

	doc := &core.Document{
		UserId:  userID,
		Title:   title,
		Content: content,
	}

	if extracted := p.extractor.ExtractWithFallback(filepath.Base(filename), createdAt); extracted != nil {
		doc.Date = extracted.Date
		doc.DateConfidence = extracted.Confidence
		doc.DateSource = extracted.Source
	}

	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	added, err := p.docRepository.AddDocuments(ctx, doc)
	if err != nil {
		return nil, err
	}
	stored := added[0]

	texts := p.chunker.Split(content)
	p.logger.Debug("scheduling document for embedding",
		"user", userID, "title", title, "chunks", len(texts))

	p.wg.Add(1)
	submitErr := p.embeddingPool.Submit(func() {
		defer p.wg.Done()
		if err := p.embeddingProc.process(context.Background(), userID, stored.Id, texts); err != nil {
			p.logger.Error("error embedding document", "document", stored.Id, "err", err)
		}
	})
	if submitErr != nil {
		p.wg.Done()
		return nil, submitErr
	}

	return stored, nil
}

// Wait blocks until all scheduled embedding work has finished.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release waits for in-flight work and releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.wg.Wait()
	if p.embeddingPool != nil {
		p.embeddingPool.Release()
	}
}

// TitleFromFilename derives a document title: the base name without its
// extension.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	title := strings.TrimSuffix(base, filepath.Ext(base))
	title = strings.TrimSpace(title)
	if title == "." || title == string(filepath.Separator) {
		return ""
	}
	return title
}

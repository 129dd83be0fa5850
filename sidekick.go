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


package sidekick

import (
	"io"
	"log/slog"

	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/ai/openai"
	"github.com/sidekick-labs/sidekick/chat"
	"github.com/sidekick-labs/sidekick/ingestion"
	"github.com/sidekick-labs/sidekick/prompt"
	"github.com/sidekick-labs/sidekick/reindex"
	"github.com/sidekick-labs/sidekick/search"
	"github.com/sidekick-labs/sidekick/storage"
	"github.com/sidekick-labs/sidekick/storage/badger"
)

// Database is the top-level handle to a note store: it owns the storage
// backend, the repositories, and the AI provider, and builds the services
// that operate on them.
type Database struct {
	backend        *badger.Backend
	docRepo        storage.DocumentRepository
	chunkRepo      storage.ChunkRepository
	checkpointRepo storage.CheckpointRepository
	provider       ai.AIProvider
	config         *ai.Config
	logger         *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
}

// WithAIConfig sets the AI provider configuration.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	docRepo := badger.NewDocumentRepository(backend)
	chunkRepo := badger.NewChunkRepository(backend)
	checkpointRepo := badger.NewCheckpointRepository(backend)

	// Create AI provider with configured settings
	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:        backend,
		docRepo:        docRepo,
		chunkRepo:      chunkRepo,
		checkpointRepo: checkpointRepo,
		provider:       provider,
		config:         options.aiConfig,
		logger:         slog.Default(),
	}, nil
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close backend; the repositories share it
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.docRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) CheckpointRepository() storage.CheckpointRepository {
	return db.checkpointRepo
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.docRepo, db.chunkRepo, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.docRepo, db.chunkRepo, db.provider, opts...)
}

func (db *Database) NewAssembler(opts ...prompt.Option) *prompt.Assembler {
	return prompt.NewAssembler(db.config.ChatModel, opts...)
}

// NewChatService wires a searcher and a prompt assembler into a chat
// service over this store.
func (db *Database) NewChatService(opts ...chat.Option) (*chat.Service, error) {
	searcher, err := db.NewSearcher()
	if err != nil {
		return nil, err
	}
	return chat.NewService(searcher, db.NewAssembler(), db.provider, opts...)
}

// NewReindexer builds a reindexer that re-embeds stored chunks with the
// provider's current embedding model. Progress output goes to progress.
func (db *Database) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(db.chunkRepo, db.checkpointRepo, db.provider.Embedder(), config, progress)
}

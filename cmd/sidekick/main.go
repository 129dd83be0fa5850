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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/sidekick-labs/sidekick"
	"github.com/sidekick-labs/sidekick/ai"
	"github.com/sidekick-labs/sidekick/reindex"
)

func main() {
	app := &cli.App{
		Name:  "sidekick",
		Usage: "Chat with an assistant grounded in your personal notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest note files into the store",
				ArgsUsage: "FILE...",
				Action:    ingestCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
				),
			},
			{
				Name:      "search",
				Usage:     "Search stored notes semantically",
				ArgsUsage: "QUERY",
				Action:    searchCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.IntFlag{
						Name:  "max-results",
						Usage: "Maximum number of results to return",
						Value: 5,
					},
				),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question answered from your notes",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name",
					},
					&cli.StringFlag{
						Name:  "chat-model",
						Usage: "Chat completion model name",
					},
				),
			},
			{
				Name:   "reindex",
				Usage:  "Re-embed all stored chunks with the configured embedding model",
				Action: reindexCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to process in each batch",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// storeFlags returns the flags shared by every command that opens the store.
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "db",
			Aliases:  []string{"d"},
			Usage:    "Path to BadgerDB database directory",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"u"},
			Usage:   "User whose notes to operate on",
			Value:   "default",
		},
	}
}

// openDatabase builds the store handle from the command's flags.
func openDatabase(c *cli.Context) (*sidekick.Database, error) {
	opts := []ai.ConfigOption{
		ai.WithHost(c.String("host")),
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("chat-model"); model != "" {
		opts = append(opts, ai.WithChatModel(model))
	}
	if token := os.Getenv("SIDEKICK_API_TOKEN"); token != "" {
		opts = append(opts, ai.WithToken(token))
	}

	db, err := sidekick.NewDatabase(c.String("db"), sidekick.WithAIConfig(ai.NewConfig(opts...)))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one note file is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return fmt.Errorf("failed to create ingestion pipeline: %w", err)
	}
	defer pipeline.Release()

	ctx := context.Background()
	userID := c.String("user")

	for _, path := range c.Args().Slice() {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", path, err)
		}

		doc, err := pipeline.IngestFile(ctx, userID, filepath.Base(path), string(content), info.ModTime())
		if err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}

		fmt.Printf("Ingested %s as [[%s]] (%d)\n", path, doc.Title, doc.Id)
	}

	pipeline.Wait()
	return nil
}

func searchCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a query is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return fmt.Errorf("failed to create searcher: %w", err)
	}

	query := strings.Join(c.Args().Slice(), " ")
	results, err := searcher.Search(context.Background(), c.String("user"), query, c.Int("max-results"))
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: [[%s]] (%d)[%0.3f]\n", i, hit.Title, hit.Id, hit.Score)
		if len(hit.MatchedKeywords) > 0 {
			fmt.Printf("   matched: %s\n", strings.Join(hit.MatchedKeywords, ", "))
		}
		for _, linked := range hit.LinkedContexts {
			fmt.Printf("   linked: [[%s]] [%0.3f]\n", linked.NotePath, linked.Relevance)
		}
	}
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("a question is required")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	service, err := db.NewChatService()
	if err != nil {
		return fmt.Errorf("failed to create chat service: %w", err)
	}

	question := strings.Join(c.Args().Slice(), " ")
	for delta, err := range service.Ask(context.Background(), c.String("user"), uuid.Nil, question) {
		if err != nil {
			return fmt.Errorf("ask failed: %w", err)
		}
		fmt.Print(delta)
	}
	fmt.Println()
	return nil
}

func reindexCommand(c *cli.Context) error {
	config := &reindex.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		Retry:          ai.DefaultRetryPolicy(),
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	reindexer, err := db.NewReindexer(config, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to create reindexer: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Database: %s\n", c.String("db"))
	fmt.Fprintf(os.Stderr, "Embedding host: %s\n", c.String("host"))
	fmt.Fprintf(os.Stderr, "Embedding model: %s\n", c.String("embedding-model"))
	fmt.Fprintln(os.Stderr)

	if err := reindexer.Run(context.Background(), c.String("user")); err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}

	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

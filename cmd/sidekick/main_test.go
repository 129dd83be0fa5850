package main

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestReindexCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "sidekick",
		Commands: []*cli.Command{
			{
				Name:   "reindex",
				Action: reindexCommand,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:     "embedding-model",
						Usage:    "Embedding model name",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Value: 100,
					},
				),
			},
		},
	}

	t.Run("embedding-model is required", func(t *testing.T) {
		args := []string{"sidekick", "reindex", "--db", "/tmp/test"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("db is required", func(t *testing.T) {
		args := []string{"sidekick", "reindex", "--embedding-model", "embeddinggemma"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})
}

func TestStoreFlags(t *testing.T) {
	flags := storeFlags()

	var hostFlag *cli.StringFlag
	var userFlag *cli.StringFlag
	for _, flag := range flags {
		if f, ok := flag.(*cli.StringFlag); ok {
			switch f.Name {
			case "host":
				hostFlag = f
			case "user":
				userFlag = f
			}
		}
	}

	require.NotNil(t, hostFlag)
	assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)

	require.NotNil(t, userFlag)
	assert.Equal(t, "default", userFlag.Value)
}

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	app := &cli.App{
		Name: "sidekick",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Value: "info",
			},
		},
		Before: setupLogger,
		Action: func(c *cli.Context) error { return nil },
	}

	t.Run("valid level", func(t *testing.T) {
		err := app.Run([]string{"sidekick", "--log-level", "debug"})
		assert.NoError(t, err)
	})

	t.Run("invalid level", func(t *testing.T) {
		err := app.Run([]string{"sidekick", "--log-level", "loud"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/anirudhbannikoppa/elderwell/internal/app"
	"github.com/anirudhbannikoppa/elderwell/internal/config"
	"github.com/anirudhbannikoppa/elderwell/internal/log"
)

var (
	indexDataDir string
	indexReplace bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index documents into the vector store",
	Long: `Load documents from a directory, split them into chunks, embed every
chunk and store the vectors in PostgreSQL.

Supported formats: .txt, .md, .pdf. Re-running the command appends the
documents again; pass --replace to delete each file's previously indexed
chunks first.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runIndex()
	},
}

func init() {
	indexCmd.Flags().StringVar(&indexDataDir, "data", "data", "Directory containing documents to index")
	indexCmd.Flags().BoolVar(&indexReplace, "replace", false, "Delete previously indexed chunks of each file before inserting")
	rootCmd.AddCommand(indexCmd)
}

func runIndex() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := log.New(log.Config{})

	a, err := app.Setup(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			logger.Warn("shutdown error", "error", closeErr)
		}
	}()

	indexer, err := a.NewIndexer(indexReplace)
	if err != nil {
		return fmt.Errorf("creating indexer: %w", err)
	}

	result, err := indexer.Run(ctx, indexDataDir)
	if err != nil {
		return fmt.Errorf("indexing %s: %w", indexDataDir, err)
	}

	total, err := a.Index.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting passages: %w", err)
	}

	fmt.Printf("Indexed %d documents (%d chunks) in %s\n",
		result.Documents, result.Chunks, result.Duration.Round(time.Millisecond))
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d files (see log for reasons)\n", result.Skipped)
	}
	fmt.Printf("Vector store now holds %d passages\n", total)

	return nil
}

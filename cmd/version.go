package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/anirudhbannikoppa/elderwell/internal/config"
)

// Version information (injected at build time via ldflags)
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runVersion()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion() error {
	fmt.Printf("ElderWell %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Configuration: not loaded")
		fmt.Printf("  Error: %v\n", err)
		return nil
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", cfg.FullModelName())
	fmt.Printf("  Embedder: %s/%s (%d dimensions)\n",
		cfg.EmbedderProvider, cfg.EmbedderModel, cfg.EmbedderDimension)
	fmt.Printf("  Chunking: %d characters, %d overlap\n", cfg.ChunkSize, cfg.ChunkOverlap)
	fmt.Printf("  Top-K: %d\n", cfg.TopK)
	fmt.Printf("  Database: %s:%d/%s\n", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)

	// Check API key from environment (don't display full content)
	openaiKey := os.Getenv("OPENAI_API_KEY")
	if openaiKey != "" && len(openaiKey) > 8 {
		fmt.Printf("  OPENAI_API_KEY: %s...%s (configured)\n",
			openaiKey[:4],
			openaiKey[len(openaiKey)-4:])
	} else if openaiKey != "" {
		fmt.Println("  OPENAI_API_KEY: (configured)")
	} else {
		fmt.Println("  OPENAI_API_KEY: Not set")
	}

	return nil
}

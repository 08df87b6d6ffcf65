package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/anirudhbannikoppa/elderwell/cmd"
)

func main() {
	// Best-effort: API keys and DATABASE_URL may live in a local .env file.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

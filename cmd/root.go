// Package cmd implements the elderwell command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "elderwell",
	Short: "ElderWell - retrieval-augmented health question answering",
	Long: `ElderWell is a retrieval-augmented question answering backend.

It indexes health documents into a PostgreSQL vector store and answers
questions over HTTP by retrieving the most relevant passages and asking
a language model to compose a grounded reply.

Run "elderwell index" to build the vector index from a document
directory, then "elderwell serve" to start the API server.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

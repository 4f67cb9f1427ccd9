// Package main provides doclint, a command-line front end for the documentation linter.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "doclint",
		Short:         "Lint product documentation for structural problems",
		Long:          "doclint parses DOCX and PDF documents, checks them for missing sections, uncaptioned images and heading problems, and prints a scored JSON report.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd())
	return root
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docdocs-backend/internal/bootstrap"
	"docdocs-backend/internal/model"
	"docdocs-backend/internal/parsing"
	"docdocs-backend/internal/scoring"
)

type analyzeOptions struct {
	rulesFile       string
	pretty          bool
	includeDocument bool
}

type analyzeOutput struct {
	model.LintReport
	Document *model.Document `json:"document,omitempty"`
}

func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze <path>",
		Short: "Analyze a DOCX or PDF file and print its lint report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.rulesFile, "rules", "r", os.Getenv("RULES_FILE"), "Path to a YAML rule file overriding the defaults")
	cmd.Flags().BoolVar(&opts.pretty, "pretty", false, "Indent the JSON report")
	cmd.Flags().BoolVar(&opts.includeDocument, "document", false, "Include the parsed document in the output")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts *analyzeOptions) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}

	ruleSet, err := bootstrap.LoadRules(opts.rulesFile)
	if err != nil {
		return err
	}

	fileName := filepath.Base(path)
	parse, err := parsing.ForExtension(parsing.Extension(fileName))
	if err != nil {
		return fmt.Errorf("analyze %s: %w", fileName, err)
	}
	doc, err := parse(path, fileName)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", fileName, err)
	}

	out := analyzeOutput{LintReport: scoring.NewEngine(ruleSet).Report(doc)}
	if opts.includeDocument {
		out.Document = &doc
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	if opts.pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

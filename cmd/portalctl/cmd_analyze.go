package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kirillkom/lesson-portal/internal/bootstrap"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document-id>",
	Short: "Analyze one catalog document and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close()

	doc, ok := app.Catalog.ByID(args[0])
	if !ok {
		return fmt.Errorf("document %q not found", args[0])
	}

	res, err := app.Analyzer.Analyze(ctx, doc)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", doc.Name, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

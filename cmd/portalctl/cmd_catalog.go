package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kirillkom/lesson-portal/internal/core/domain"
	"github.com/kirillkom/lesson-portal/internal/infrastructure/catalog"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [grade] [subject]",
	Short: "List grades, subjects or documents",
	Long: `Without arguments lists every grade with its subjects.
With a grade slug lists that grade's subjects; with a grade and a subject
slug lists their documents.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runCatalog,
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := openCatalog()
	if err != nil {
		return err
	}
	return printCatalog(cmd.OutOrStdout(), cat, args)
}

func openCatalog() (*catalog.Catalog, error) {
	if cfg.CatalogPath != "" {
		return catalog.Load(cfg.CatalogPath)
	}
	return catalog.Default()
}

func printCatalog(w io.Writer, cat *catalog.Catalog, args []string) error {
	switch len(args) {
	case 0:
		for _, g := range cat.Grades() {
			fmt.Fprintf(w, "%s\t%s\t%d subjects\n", g.Slug, g.Name, len(g.Subjects))
		}
		return nil
	case 1:
		grade, ok := cat.Grade(args[0])
		if !ok {
			return fmt.Errorf("grade %q not found", args[0])
		}
		for _, s := range grade.Subjects {
			fmt.Fprintf(w, "%s\t%s\t%d documents\n", s.Slug, s.Name, len(cat.ByGradeSubject(grade.Slug, s.Slug)))
		}
		return nil
	default:
		grade, ok := cat.Grade(args[0])
		if !ok {
			return fmt.Errorf("grade %q not found", args[0])
		}
		if _, ok := grade.FindSubject(args[1]); !ok {
			return fmt.Errorf("subject %q not found in %s", args[1], grade.Name)
		}
		for _, d := range cat.ByGradeSubject(grade.Slug, args[1]) {
			printDocument(w, d)
		}
		return nil
	}
}

func printDocument(w io.Writer, d domain.Document) {
	fmt.Fprintf(w, "%s\t%s\t%s\n", d.ID, d.Name, d.File)
}

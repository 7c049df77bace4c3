package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pubmed-explorer/services"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Ingest the articles found for one search term",
	RunE: func(cmd *cobra.Command, args []string) error {
		term, _ := cmd.Flags().GetString("term")
		maxArticles, _ := cmd.Flags().GetInt("max")

		term, err := services.ValidateSearchTerm(term)
		if err != nil {
			return err
		}
		if maxArticles <= 0 {
			maxArticles = env.cfg.MaxArticles
		}

		pipeline, err := services.BuildPipeline(cmd.Context(), env.cfg, env.store, env.logger)
		if err != nil {
			return err
		}
		report, err := pipeline.Run(cmd.Context(), term, maxArticles)
		if err != nil {
			return err
		}
		return printReports(cmd, report)
	},
}

var runAllCmd = &cobra.Command{
	Use:   "run-all",
	Short: "Ingest every saved search term combined with every saved filter",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := env.store.SeedDefaults(cmd.Context()); err != nil {
			return err
		}
		pipeline, err := services.BuildPipeline(cmd.Context(), env.cfg, env.store, env.logger)
		if err != nil {
			return err
		}
		reports, err := pipeline.RunAllSearchTerms(cmd.Context())
		if err != nil {
			return err
		}
		return printReports(cmd, reports...)
	},
}

func printReports(cmd *cobra.Command, reports ...*services.RunReport) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	out := cmd.OutOrStdout()
	for _, r := range reports {
		fmt.Fprintf(out, "%s\n", r.Term)
		fmt.Fprintf(out, "  found: %d  stored: %d  errors: %d  (%s)\n",
			r.Found, r.Succeeded, r.Failed, r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	if n := len(reports); n > 0 {
		st := reports[n-1].Stats
		fmt.Fprintf(out, "catalog: %d articles, %d authors, %d journals, %d MeSH terms\n",
			st.TotalArticles, st.TotalAuthors, st.TotalJournals, st.TotalMeshTerms)
	}
	return nil
}

func init() {
	runCmd.Flags().String("term", "", "catalog search term, e.g. \"cancer immunotherapy\"")
	runCmd.Flags().Int("max", 0, "maximum number of articles (default MAX_ARTICLES)")
	runCmd.Flags().Bool("json", false, "print the report as JSON")
	_ = runCmd.MarkFlagRequired("term")

	runAllCmd.Flags().Bool("json", false, "print the reports as JSON")

	rootCmd.AddCommand(runCmd, runAllCmd)
}

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"pubmed-explorer/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st, err := env.store.Stats(ctx)
		if err != nil {
			return err
		}
		top, _ := cmd.Flags().GetInt("top")
		journals, err := env.store.TopJournals(ctx, top)
		if err != nil {
			return err
		}
		meshTerms, err := env.store.TopMeshTerms(ctx, top)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Articles\t%d\n", st.TotalArticles)
		fmt.Fprintf(w, "Authors\t%d\n", st.TotalAuthors)
		fmt.Fprintf(w, "Journals\t%d\n", st.TotalJournals)
		fmt.Fprintf(w, "MeSH terms\t%d\n", st.TotalMeshTerms)
		if yr := st.YearRange(); yr != "" {
			fmt.Fprintf(w, "Years\t%s\n", yr)
		}
		fmt.Fprintln(w, "\nTop journals\t")
		for _, j := range journals {
			fmt.Fprintf(w, "  %s\t%d\n", j.Name, j.Count)
		}
		fmt.Fprintln(w, "\nTop MeSH terms\t")
		for _, m := range meshTerms {
			fmt.Fprintf(w, "  %s\t%d\n", m.Name, m.Count)
		}
		return w.Flush()
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search stored articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		q, _ := cmd.Flags().GetString("q")
		year, _ := cmd.Flags().GetString("year")
		journal, _ := cmd.Flags().GetString("journal")
		limit, _ := cmd.Flags().GetInt("limit")

		years, err := store.ParseYearFilter(year)
		if err != nil {
			return err
		}
		rows, err := env.store.SearchArticles(cmd.Context(), store.SearchParams{
			Query:   q,
			Years:   years,
			Journal: journal,
			Limit:   limit,
		})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PMID\tYEAR\tJOURNAL\tTITLE")
		for _, r := range rows {
			yearCol := "-"
			if r.PublicationYear != nil {
				yearCol = fmt.Sprint(*r.PublicationYear)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", r.PMID, yearCol, truncate(r.JournalTitle, 40), truncate(r.Title, 90))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d articles\n", len(rows))
		return nil
	},
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of journals and MeSH terms to list")

	searchCmd.Flags().String("q", "", "keyword matched against title and abstract")
	searchCmd.Flags().String("year", "", "year (2023) or inclusive range (2022-2024)")
	searchCmd.Flags().String("journal", "", "journal title substring")
	searchCmd.Flags().Int("limit", 20, "maximum number of results")

	rootCmd.AddCommand(statsCmd, searchCmd)
}

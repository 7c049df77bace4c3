// Command etl runs the ingestion pipeline and queries the stored catalog from the
// command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/logging"
	"pubmed-explorer/store"
)

// app holds what every subcommand needs. It is filled in by the root command.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

var env app

var rootCmd = &cobra.Command{
	Use:   "etl",
	Short: "Ingest PubMed articles into the relational catalog",
	Long: `etl searches PubMed (or Europe PMC), fetches every matching article and stores
it together with its journal, authors and MeSH terms. Repeated runs are safe:
articles already stored are skipped.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		logger, err := logging.New(cfg.LogMode, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("creating logger: %w", err)
		}
		st, err := store.Open(cfg, logger)
		if err != nil {
			return err
		}
		if err := st.EnsureSchema(cmd.Context()); err != nil {
			_ = st.Close()
			return err
		}
		env = app{cfg: cfg, logger: logger, store: st}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if env.store != nil {
			_ = env.store.Close()
		}
		if env.logger != nil {
			_ = env.logger.Sync()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"postpulse/internal/enrich"
	"postpulse/internal/feed"
	"postpulse/internal/vault"
	"postpulse/lib/browser"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(harvestCmd)
}

// one browser carries both phases; this is what the refresh endpoint
// and cron invoke
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Runs collection and enrichment back to back.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}
		v, database, err := openVault(config)
		if err != nil {
			return err
		}
		defer database.Close()

		b, err := browser.Launch(cmd.Context(), config.Browser)
		if err != nil {
			return fmt.Errorf("launch browser: %w", err)
		}
		defer b.Close()

		collector := feed.NewCollector(v, config.Collect)
		refs, err := collector.Collect(cmd.Context(), b)
		if errors.Is(err, vault.ErrNoAccount) {
			return fmt.Errorf("no account connected, run `postpulse connect` first")
		}
		if errors.Is(err, feed.ErrSessionInvalid) {
			return fmt.Errorf("stored session is no longer valid, reconnect your account")
		}
		if err != nil {
			return err
		}

		store := artifactStore(config)
		err = store.WriteReferences(refs)
		if err != nil {
			return err
		}
		slog.Info("wrote reference artifact", "count", len(refs))

		enricher := enrich.NewEnricher(v, config.Enrich)
		posts, err := enricher.Enrich(cmd.Context(), b, refs)
		if err != nil {
			return err
		}
		err = store.WriteEnriched(posts)
		if err != nil {
			return err
		}
		slog.Info("wrote enriched artifact", "count", len(posts), "path", store.EnrichedPath())
		return nil
	},
}

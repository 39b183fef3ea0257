package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"postpulse/internal/artifact"
	"postpulse/internal/enrich"
	"postpulse/lib/browser"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Visits each collected post and writes the enriched artifact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		store := artifactStore(config)
		refs, err := store.ReadReferences()
		if errors.Is(err, artifact.ErrNoArtifact) {
			return fmt.Errorf("no reference artifact, run `postpulse collect` first")
		}
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

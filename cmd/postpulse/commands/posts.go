package commands

import (
	"errors"
	"fmt"
	"os"

	"postpulse/internal/artifact"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(postsCmd)
}

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Prints the enriched posts from the last run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig()
		if err != nil {
			return err
		}

		posts, err := artifactStore(config).ReadEnriched()
		if errors.Is(err, artifact.ErrNoArtifact) {
			return fmt.Errorf("no enriched artifact yet, run `postpulse harvest` first")
		}
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Posted", "Impressions", "Likes", "Comments", "Reposts", "Content"})

		for _, post := range posts {
			t.AppendRow(table.Row{
				post.RawPostedAt,
				post.Impressions,
				post.Likes,
				post.Comments,
				post.Reposts,
				truncate(post.Content, 60),
			})
		}

		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

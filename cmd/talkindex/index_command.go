package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talkindex/talkindex/internal/config"
	"github.com/talkindex/talkindex/internal/indexer"
	"github.com/talkindex/talkindex/internal/manifest"
)

func newIndexCommand(logger *slog.Logger) *cobra.Command {
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Re-index the document store from an enriched snapshot",
		Long: "Replays a snapshot written by harvest into the document store " +
			"without re-running acquisition. Upsert semantics make this safe to " +
			"repeat.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			f, err := os.Open(snapshotPath)
			if err != nil {
				return err
			}
			rows, err := manifest.ReadSnapshot(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeStore()
			}()
			return indexer.Run(cmd.Context(), logger, rows, st, "")
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "data_with_transcript.csv", "Enriched snapshot CSV to index from")
	return cmd
}

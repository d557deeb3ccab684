package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/talkindex/talkindex/internal/config"
	"github.com/talkindex/talkindex/internal/harvest"
	"github.com/talkindex/talkindex/internal/indexer"
	"github.com/talkindex/talkindex/internal/manifest"
)

func newHarvestCommand(logger *slog.Logger) *cobra.Command {
	var manifestPath string
	var snapshotPath string

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Fetch transcripts for every manifest reference and index them",
		Long: "Fetches the transcript for every reference in the manifest through " +
			"parallel browser sessions, persists the enriched snapshot, and indexes " +
			"every found transcript into the document store.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			f, err := os.Open(manifestPath)
			if err != nil {
				return err
			}
			refs, err := manifest.ReadRefs(f)
			_ = f.Close()
			if err != nil {
				return fmt.Errorf("read manifest: %w", err)
			}

			fetcher, err := newFetcher(cfg)
			if err != nil {
				return err
			}

			rows, err := harvest.Run(cmd.Context(), logger, refs, fetcher, harvest.Options{
				Workers:      cfg.Workers,
				FetchTimeout: cfg.FetchTimeout,
				FetchRetries: cfg.FetchRetries,
			})
			if err != nil {
				return err
			}

			st, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() {
				_ = closeStore()
			}()
			return indexer.Run(cmd.Context(), logger, rows, st, snapshotPath)
		},
	}
	cmd.Flags().StringVar(&manifestPath, "manifest", "data.csv", "Input manifest CSV (must include a 'link' column)")
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "data_with_transcript.csv", "Enriched snapshot CSV to write")
	return cmd
}

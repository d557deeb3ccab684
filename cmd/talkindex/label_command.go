package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talkindex/talkindex/internal/config"
	"github.com/talkindex/talkindex/internal/label"
)

func newLabelCommand(logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "Derive keyword labels for every indexed document",
		Long: "Scans the document store, materializes each transcript to a " +
			"transient scratch file, ranks its terms, and writes the filtered " +
			"top terms back as the document's labels. Scratch files are removed " +
			"when the batch ends, even after partial failures.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ranker, err := newRanker(cmd.Context(), cfg)
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

			engine := label.NewEngine(st, ranker, logger, label.Options{
				ScratchRoot: cfg.ScratchRoot,
				Stopwords:   cfg.StopwordSet(),
				MinTokenLen: cfg.MinTokenLen,
				MaxLabels:   cfg.MaxLabels,
				PageSize:    cfg.ScanPageSize,
			})
			return engine.Run(cmd.Context())
		},
	}
	return cmd
}

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talkindex/talkindex/internal/config"
	"github.com/talkindex/talkindex/internal/export"
)

func newExportCommand(logger *slog.Logger) *cobra.Command {
	var trainPath string
	var testPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write classifier train/test files from the labeled corpus",
		Long: "Reconstructs one labeled example per labeled document and splits " +
			"them into train and test files at the configured fraction with a " +
			"fixed seed, so repeated exports produce the same partition.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
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

			return export.Run(cmd.Context(), logger, st, trainPath, testPath, export.Options{
				TestFraction: cfg.TestFraction,
				Seed:         cfg.Seed,
				PageSize:     cfg.ScanPageSize,
			})
		},
	}
	cmd.Flags().StringVar(&trainPath, "train", "train_data.txt", "Training corpus file to write")
	cmd.Flags().StringVar(&testPath, "test", "test_data.txt", "Test corpus file to write")
	return cmd
}

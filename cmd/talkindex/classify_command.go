package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/talkindex/talkindex/internal/classify"
	"github.com/talkindex/talkindex/internal/config"
)

func newClassifyCommand(logger *slog.Logger) *cobra.Command {
	var trainPath string
	var testPath string
	var modelBase string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Train and evaluate the supervised classifier over exported files",
		Long: "Runs the external fasttext binary: supervised training over the " +
			"exported train file, then precision/recall evaluation over the test " +
			"file.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			cli := classify.NewCLI(classify.WithBinary(cfg.FastTextBinary))
			hp := classify.Hyperparams{
				LearningRate: cfg.LearningRate,
				WordNgrams:   cfg.WordNgrams,
				Epochs:       cfg.Epochs,
			}
			if err := cli.Train(cmd.Context(), trainPath, modelBase, hp); err != nil {
				return err
			}
			logger.Info("classifier trained", "model", modelBase+".bin",
				"lr", hp.LearningRate, "wordNgrams", hp.WordNgrams, "epochs", hp.Epochs)

			rep, err := cli.Test(cmd.Context(), modelBase, testPath)
			if err != nil {
				return err
			}
			logger.Info("classifier evaluated",
				"examples", rep.Examples, "precision", rep.Precision, "recall", rep.Recall)
			return nil
		},
	}
	cmd.Flags().StringVar(&trainPath, "train", "train_data.txt", "Training corpus file")
	cmd.Flags().StringVar(&testPath, "test", "test_data.txt", "Test corpus file")
	cmd.Flags().StringVar(&modelBase, "model", "classifier_model", "Model output path (fasttext appends .bin)")
	return cmd
}

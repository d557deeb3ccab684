// talkindex drives the transcript pipeline as discrete batch jobs: harvest
// transcripts into the document store, label them, and export classifier
// corpora. Runtime knobs come from TALKINDEX_* environment variables; the
// flags on each command only name the files that one job reads and writes.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "talkindex",
		Short:         "Talk transcript harvesting, indexing, labeling and corpus export",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newHarvestCommand(logger),
		newIndexCommand(logger),
		newLabelCommand(logger),
		newExportCommand(logger),
		newClassifyCommand(logger),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

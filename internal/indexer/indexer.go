// Package indexer normalizes fetched transcripts and upserts them into the
// document store.
package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/talkindex/talkindex/internal/manifest"
	"github.com/talkindex/talkindex/internal/store"
)

// Run persists the enriched snapshot, then indexes every row that has a
// transcript. Rows without one are skipped silently; they are a normal
// outcome of harvesting, not errors. Store failures abort the stage so a
// later labeling run never sees a half-written corpus.
//
// Indexing is idempotent: document ids are the reference ids and writes are
// upserts, so re-running over the same snapshot converges to the same store
// state.
func Run(ctx context.Context, logger *slog.Logger, rows []manifest.Row, st store.Store, snapshotPath string) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("stage", "index")

	if snapshotPath != "" {
		if err := writeSnapshot(snapshotPath, rows); err != nil {
			return err
		}
		logger.Info("snapshot written", "path", snapshotPath, "rows", len(rows))
	}

	indexed := 0
	for _, row := range rows {
		if !row.Found {
			continue
		}
		tokens, err := st.Analyze(ctx, row.Transcript)
		if err != nil {
			return fmt.Errorf("normalize transcript %d: %w", row.Ref.ID, err)
		}
		doc := store.Document{
			Title:      row.Ref.Title,
			Link:       row.Ref.URL,
			Transcript: strings.Join(tokens, " "),
		}
		id := strconv.Itoa(row.Ref.ID)
		if err := st.Index(ctx, id, doc); err != nil {
			return fmt.Errorf("index document %s: %w", id, err)
		}
		indexed++
	}
	logger.Info("indexing finished", "rows", len(rows), "indexed", indexed, "skipped", len(rows)-indexed)
	return nil
}

func writeSnapshot(path string, rows []manifest.Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := manifest.WriteSnapshot(f, rows); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return f.Close()
}

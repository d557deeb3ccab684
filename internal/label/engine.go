// Package label derives per-document keyword labels from transcripts. Each
// document's transcript is materialized to a transient file, ranked by a
// TermRanker, filtered, and the surviving tokens are written back onto the
// document as a comma-separated labels field.
package label

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/talkindex/talkindex/internal/store"
)

type Options struct {
	// ScratchRoot is the shared scratch space. Each batch gets its own
	// directory underneath, and a lock file at the root keeps batches from
	// interleaving artifact lifecycles.
	ScratchRoot string

	// Stopwords are excluded from labels. This is the labeling filter
	// list, independent of the index-side analyzer's stop set.
	Stopwords map[string]struct{}

	// MinTokenLen drops shorter tokens from labels.
	MinTokenLen int

	// MaxLabels caps the label set per document.
	MaxLabels int

	// PageSize is the store scan cursor page size.
	PageSize int
}

func (o Options) withDefaults() Options {
	if o.ScratchRoot == "" {
		o.ScratchRoot = "scratch"
	}
	if o.MinTokenLen <= 0 {
		o.MinTokenLen = 3
	}
	if o.MaxLabels <= 0 {
		o.MaxLabels = 10
	}
	if o.PageSize <= 0 {
		o.PageSize = 100
	}
	return o
}

type Engine struct {
	store  store.Store
	ranker TermRanker
	logger *slog.Logger
	opts   Options
}

func NewEngine(st store.Store, ranker TermRanker, logger *slog.Logger, opts Options) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:  st,
		ranker: ranker,
		logger: logger.With("stage", "label"),
		opts:   opts.withDefaults(),
	}
}

// Run labels every document currently in the store. Per-document ranker
// failures are logged with the document id and skipped; store and scratch
// filesystem failures abort the batch. The batch scratch directory is
// removed on every path once it has been created, success or not.
func (e *Engine) Run(ctx context.Context) (err error) {
	total, err := e.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	if total == 0 {
		e.logger.Info("nothing to label")
		return nil
	}

	if err := os.MkdirAll(e.opts.ScratchRoot, 0o755); err != nil {
		return fmt.Errorf("create scratch root: %w", err)
	}
	lock := flock.New(filepath.Join(e.opts.ScratchRoot, ".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire scratch lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another labeling batch holds the scratch lock")
	}
	defer func() {
		_ = lock.Unlock()
	}()

	batchDir := filepath.Join(e.opts.ScratchRoot, "batch-"+uuid.NewString())
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer func() {
		if rerr := os.RemoveAll(batchDir); rerr != nil && err == nil {
			err = fmt.Errorf("remove scratch dir: %w", rerr)
		}
	}()

	e.logger.Info("labeling batch start", "documents", total, "scratch", batchDir)

	labeled := 0
	skipped := 0
	scanErr := e.store.Scan(ctx, e.opts.PageSize, func(hit store.Hit) error {
		artifact := filepath.Join(batchDir, "transcript_"+hit.ID+".txt")
		if err := os.WriteFile(artifact, []byte(hit.Doc.Transcript), 0o644); err != nil {
			return fmt.Errorf("write artifact for %s: %w", hit.ID, err)
		}

		terms, err := e.ranker.Rank(ctx, artifact)
		if err != nil {
			e.logger.Warn("ranker failed, document skipped", "id", hit.ID, "error", err)
			skipped++
			return nil
		}

		labels := e.selectLabels(terms)
		if err := e.store.UpdateLabels(ctx, hit.ID, labels); err != nil {
			return fmt.Errorf("update labels for %s: %w", hit.ID, err)
		}
		labeled++
		return nil
	})
	if scanErr != nil {
		return scanErr
	}

	e.logger.Info("labeling batch finished", "labeled", labeled, "skipped", skipped)
	return nil
}

// selectLabels filters the ranker's vocabulary down to the label set:
// stopwords out, short tokens out, first MaxLabels survivors kept, ranker
// order preserved. Zero survivors yield an empty string, which is a valid
// labeled state distinct from never-labeled.
func (e *Engine) selectLabels(terms []string) string {
	kept := make([]string, 0, e.opts.MaxLabels)
	seen := make(map[string]struct{}, e.opts.MaxLabels)
	for _, term := range terms {
		if len(kept) == e.opts.MaxLabels {
			break
		}
		if len(term) < e.opts.MinTokenLen {
			continue
		}
		if _, stop := e.opts.Stopwords[term]; stop {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		kept = append(kept, term)
	}
	return strings.Join(kept, ",")
}

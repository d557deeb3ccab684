// Package harvest fans document references out to a bounded worker pool and
// merges the per-reference fetch outcomes into the working dataset.
package harvest

import (
	"context"
	"log/slog"
	"time"

	"github.com/talkindex/talkindex/internal/fetch"
	"github.com/talkindex/talkindex/internal/manifest"
	"github.com/talkindex/talkindex/internal/pool"
)

// Fetcher retrieves one transcript. Implemented by fetch.Fetcher; tests
// substitute fakes.
type Fetcher interface {
	Fetch(ctx context.Context, ref fetch.Ref) (fetch.Result, error)
}

type Options struct {
	// Workers bounds the parallel browser sessions. This is the only
	// admission control on the remote site.
	Workers int

	// FetchTimeout bounds one fetch attempt, hung sessions included.
	FetchTimeout time.Duration

	// FetchRetries is how many extra attempts transient transport errors
	// get. Absent-transcript outcomes are never retried.
	FetchRetries int
}

// Run fetches every reference and returns exactly one row per reference, in
// manifest order. Driver faults for single references are logged with the
// reference id and recorded as absent rows; they never abort the batch or
// cancel sibling fetches. Progress (completed vs remaining) is logged as
// completions drain, in completion order.
func Run(ctx context.Context, logger *slog.Logger, refs []fetch.Ref, fetcher Fetcher, opts Options) ([]manifest.Row, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("stage", "harvest")

	total := len(refs)
	completed := 0
	onResult := func(res pool.Result[fetch.Ref, fetch.Result]) error {
		completed++
		if res.Err != nil {
			logger.Warn("fetch failed",
				"id", res.Input.ID,
				"url", res.Input.URL,
				"error", res.Err,
				"completed", completed,
				"remaining", total-completed)
			return nil
		}
		logger.Info("fetch completed",
			"id", res.Input.ID,
			"found", res.Output.Found,
			"completed", completed,
			"remaining", total-completed)
		return nil
	}

	results, err := pool.ProcessAllWithCallback(ctx, refs, fetcher.Fetch, onResult, pool.Options{
		Workers:        opts.Workers,
		MaxRetries:     opts.FetchRetries,
		RequestTimeout: opts.FetchTimeout,
		FailurePolicy:  pool.FailurePolicyPartialOutput,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]manifest.Row, 0, len(results))
	found := 0
	for _, res := range results {
		row := manifest.Row{Ref: res.Input}
		if res.Err == nil && res.Output.Found {
			row.Transcript = res.Output.Transcript
			row.Found = true
			found++
		}
		rows = append(rows, row)
	}
	logger.Info("harvest finished", "refs", total, "found", found, "absent", total-found)
	return rows, nil
}

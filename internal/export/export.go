// Package export reconstructs labeled examples from the document store and
// writes the train/test corpus files the supervised classifier consumes.
package export

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"os"

	"github.com/talkindex/talkindex/internal/store"
)

// Example is one classifier training unit: a transcript with its label set.
type Example struct {
	Labels []string
	Text   string
}

type Options struct {
	// TestFraction is the share of examples routed to the test file.
	TestFraction float64

	// Seed fixes the shuffle so repeated exports produce the same
	// partition.
	Seed uint64

	// PageSize is the store scan cursor page size.
	PageSize int
}

// Run scans all labeled documents, deterministically splits them, and
// writes the train and test files. Documents that have not been labeled
// yet, or whose labeling found no qualifying tokens, produce no examples.
func Run(ctx context.Context, logger *slog.Logger, st store.Store, trainPath, testPath string, opts Options) error {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("stage", "export")
	if opts.TestFraction < 0 || opts.TestFraction > 1 {
		return fmt.Errorf("test fraction %g out of range", opts.TestFraction)
	}

	var examples []Example
	err := st.Scan(ctx, opts.PageSize, func(hit store.Hit) error {
		labels := hit.Doc.LabelList()
		if len(labels) == 0 {
			return nil
		}
		examples = append(examples, Example{Labels: labels, Text: hit.Doc.Transcript})
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan labeled documents: %w", err)
	}

	train, test := Split(examples, opts.TestFraction, opts.Seed)
	if err := writeFile(trainPath, train); err != nil {
		return err
	}
	if err := writeFile(testPath, test); err != nil {
		return err
	}

	logger.Info("export finished", "examples", len(examples), "train", len(train), "test", len(test))
	return nil
}

// Split shuffles the examples with a fixed seed and partitions them at the
// test fraction. The same inputs, fraction and seed always yield the same
// partition.
func Split(examples []Example, testFraction float64, seed uint64) (train, test []Example) {
	shuffled := make([]Example, len(examples))
	copy(shuffled, examples)
	rng := rand.New(rand.NewPCG(seed, seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTest := int(math.Round(float64(len(shuffled)) * testFraction))
	if nTest > len(shuffled) {
		nTest = len(shuffled)
	}
	return shuffled[nTest:], shuffled[:nTest]
}

// WriteExamples writes one example per line: __label__ tokens space-joined,
// then the transcript text, newline-terminated.
func WriteExamples(w io.Writer, examples []Example) error {
	bw := bufio.NewWriter(w)
	for _, ex := range examples {
		for _, l := range ex.Labels {
			if _, err := bw.WriteString("__label__" + l + " "); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(ex.Text + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeFile(path string, examples []Example) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	if err := WriteExamples(f, examples); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

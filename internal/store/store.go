// Package store defines the document-store contract the pipeline stages
// consume. Implementations live in the eshttp and sqlitestore subpackages.
package store

import "context"

// Document is one indexed talk. Labels distinguishes three states: nil means
// the document has not been labeled yet, an empty string means labeling ran
// and found no qualifying tokens, and anything else is a comma-separated
// label list.
type Document struct {
	Title      string  `json:"title,omitempty"`
	Link       string  `json:"link"`
	Transcript string  `json:"transcript"`
	Labels     *string `json:"labels,omitempty"`
}

// Labeled reports whether the labeling stage has processed the document.
func (d Document) Labeled() bool {
	return d.Labels != nil
}

// LabelList splits the labels field into its tokens. Unlabeled and
// empty-labeled documents both return nil.
func (d Document) LabelList() []string {
	if d.Labels == nil || *d.Labels == "" {
		return nil
	}
	var out []string
	start := 0
	s := *d.Labels
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// Hit pairs a document with its store identifier.
type Hit struct {
	ID  string
	Doc Document
}

// Store is the searchable document index the pipeline writes to and reads
// back from. Operation failures are returned as-is; callers treat them as
// fatal to the current batch step.
type Store interface {
	// Count returns the number of documents in the index.
	Count(ctx context.Context) (int, error)

	// Scan streams every document through fn in stable id order, fetching
	// pageSize documents at a time. A non-nil error from fn stops the scan.
	Scan(ctx context.Context, pageSize int, fn func(Hit) error) error

	// Get returns the document stored under id.
	Get(ctx context.Context, id string) (Document, error)

	// Index upserts the full document under id.
	Index(ctx context.Context, id string, doc Document) error

	// UpdateLabels partially updates one document, touching only its
	// labels field.
	UpdateLabels(ctx context.Context, id string, labels string) error

	// Analyze runs the index-side stop analyzer over text: case folding,
	// punctuation stripping and stop-word removal.
	Analyze(ctx context.Context, text string) ([]string, error)
}

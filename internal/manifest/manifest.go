// Package manifest reads the input reference manifest and round-trips the
// enriched snapshot the indexing stage can be retried from.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/talkindex/talkindex/internal/fetch"
)

// Row is one reference with its fetch outcome. Found is false when the
// transcript is absent; absent rows snapshot as an empty transcript cell.
type Row struct {
	Ref        fetch.Ref
	Transcript string
	Found      bool
}

// ReadRefs reads a CSV manifest and returns its references in file order.
// The manifest must have a "link" column; a "title" column is optional.
// Reference ids are row ordinals, so the id for a given row is stable
// across repeated reads of the same manifest.
func ReadRefs(r io.Reader) ([]fetch.Ref, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	linkIdx := columnIndex(header, "link")
	if linkIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", "link")
	}
	titleIdx := columnIndex(header, "title")

	var refs []fetch.Ref
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if linkIdx >= len(rec) {
			return nil, fmt.Errorf("row has %d columns, want at least %d", len(rec), linkIdx+1)
		}
		ref := fetch.Ref{
			ID:  len(refs),
			URL: strings.TrimSpace(rec[linkIdx]),
		}
		if titleIdx >= 0 && titleIdx < len(rec) {
			ref.Title = strings.TrimSpace(rec[titleIdx])
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// WriteSnapshot writes the enriched dataset: the manifest columns plus a
// transcript column, one row per reference, absent transcripts as empty
// cells.
func WriteSnapshot(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"title", "link", "transcript"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		transcript := ""
		if row.Found {
			transcript = row.Transcript
		}
		if err := cw.Write([]string{row.Ref.Title, row.Ref.URL, transcript}); err != nil {
			return fmt.Errorf("write row %d: %w", row.Ref.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadSnapshot reads an enriched snapshot back so indexing can be re-run
// without re-harvesting.
func ReadSnapshot(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	linkIdx := columnIndex(header, "link")
	transcriptIdx := columnIndex(header, "transcript")
	if linkIdx < 0 || transcriptIdx < 0 {
		return nil, fmt.Errorf("snapshot must have %q and %q columns", "link", "transcript")
	}
	titleIdx := columnIndex(header, "title")

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := Row{Ref: fetch.Ref{ID: len(rows)}}
		if linkIdx < len(rec) {
			row.Ref.URL = strings.TrimSpace(rec[linkIdx])
		}
		if titleIdx >= 0 && titleIdx < len(rec) {
			row.Ref.Title = strings.TrimSpace(rec[titleIdx])
		}
		if transcriptIdx < len(rec) && rec[transcriptIdx] != "" {
			row.Transcript = rec[transcriptIdx]
			row.Found = true
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), name) {
			return i
		}
	}
	return -1
}

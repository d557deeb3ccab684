package export_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/talkindex/talkindex/internal/export"
	"github.com/talkindex/talkindex/internal/store"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string]store.Document
}

func (m *memStore) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.docs), nil
}

func (m *memStore) Scan(_ context.Context, _ int, fn func(store.Hit) error) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.docs))
	for id := range m.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	hits := make([]store.Hit, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, store.Hit{ID: id, Doc: m.docs[id]})
	}
	m.mu.Unlock()
	for _, h := range hits {
		if err := fn(h); err != nil {
			return err
		}
	}
	return nil
}

func (m *memStore) Get(_ context.Context, id string) (store.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[id], nil
}

func (m *memStore) Index(_ context.Context, id string, doc store.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[id] = doc
	return nil
}

func (m *memStore) UpdateLabels(_ context.Context, id string, labels string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.docs[id]
	d.Labels = &labels
	m.docs[id] = d
	return nil
}

func (m *memStore) Analyze(_ context.Context, text string) ([]string, error) {
	return store.StopAnalyze(text), nil
}

func labeled(transcript, labels string) store.Document {
	return store.Document{Transcript: transcript, Labels: &labels}
}

func TestWriteExamples_LineFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	err := export.WriteExamples(&buf, []export.Example{
		{Labels: []string{"climate", "ocean"}, Text: "seas are rising"},
		{Labels: []string{"music"}, Text: "tempo and rhythm"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "__label__climate __label__ocean seas are rising\n" +
		"__label__music tempo and rhythm\n"
	if buf.String() != want {
		t.Fatalf("output = %q, want %q", buf.String(), want)
	}
}

func TestSplit_DeterministicAcrossRuns(t *testing.T) {
	t.Parallel()

	examples := make([]export.Example, 10)
	for i := range examples {
		examples[i] = export.Example{Labels: []string{"l"}, Text: "doc " + strconv.Itoa(i)}
	}

	train1, test1 := export.Split(examples, 0.9, 444)
	train2, test2 := export.Split(examples, 0.9, 444)

	if len(train1) != 1 || len(test1) != 9 {
		t.Fatalf("split sizes = %d/%d, want 1/9", len(train1), len(test1))
	}
	if !reflect.DeepEqual(train1, train2) || !reflect.DeepEqual(test1, test2) {
		t.Fatal("same seed must produce the same partition")
	}

	seen := make(map[string]bool, 10)
	for _, ex := range append(append([]export.Example(nil), train1...), test1...) {
		seen[ex.Text] = true
	}
	if len(seen) != 10 {
		t.Fatalf("partition covers %d distinct examples, want 10", len(seen))
	}
}

func TestRun_SkipsUnlabeledAndEmptyLabeled(t *testing.T) {
	t.Parallel()

	empty := ""
	st := &memStore{docs: map[string]store.Document{
		"0": labeled("seas are rising", "climate,ocean"),
		"1": {Transcript: "never labeled"},
		"2": {Transcript: "labeled empty", Labels: &empty},
		"3": labeled("tempo and rhythm", "music"),
	}}

	dir := t.TempDir()
	trainPath := filepath.Join(dir, "train_data.txt")
	testPath := filepath.Join(dir, "test_data.txt")

	err := export.Run(context.Background(), slog.New(slog.DiscardHandler), st, trainPath, testPath, export.Options{
		TestFraction: 0.5,
		Seed:         444,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	lines := readLines(t, trainPath)
	lines = append(lines, readLines(t, testPath)...)
	if len(lines) != 2 {
		t.Fatalf("got %d example lines, want 2", len(lines))
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "__label__") {
			t.Fatalf("line %q missing label prefix", line)
		}
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out []string
	for _, line := range strings.Split(string(b), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

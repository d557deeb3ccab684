package eshttp_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/talkindex/talkindex/internal/mockindex"
	"github.com/talkindex/talkindex/internal/store"
	"github.com/talkindex/talkindex/internal/store/eshttp"
)

func newTestClient(t *testing.T) (*eshttp.Client, *mockindex.Server) {
	t.Helper()
	mock := mockindex.New("talk-index")
	srv := httptest.NewServer(mock.Handler())
	t.Cleanup(srv.Close)

	client, err := eshttp.NewClient(srv.URL, "talk-index")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, mock
}

func TestIndexGetCount(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	ctx := context.Background()

	doc := store.Document{Title: "A talk", Link: "https://talks.example/a", Transcript: "hello world"}
	if err := client.Index(ctx, "0", doc); err != nil {
		t.Fatalf("index: %v", err)
	}

	got, err := client.Get(ctx, "0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Transcript != "hello world" || got.Title != "A talk" {
		t.Fatalf("unexpected document: %#v", got)
	}
	if got.Labeled() {
		t.Fatal("fresh document must not be labeled")
	}

	n, err := client.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count = %d, want 1", n)
	}
}

func TestIndexIsUpsert(t *testing.T) {
	t.Parallel()

	client, mock := newTestClient(t)
	ctx := context.Background()

	doc := store.Document{Link: "https://talks.example/a", Transcript: "first"}
	if err := client.Index(ctx, "0", doc); err != nil {
		t.Fatalf("index: %v", err)
	}
	doc.Transcript = "second"
	if err := client.Index(ctx, "0", doc); err != nil {
		t.Fatalf("re-index: %v", err)
	}
	if mock.Len() != 1 {
		t.Fatalf("store holds %d documents, want 1", mock.Len())
	}
	got, err := client.Get(ctx, "0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Transcript != "second" {
		t.Fatalf("transcript = %q, want %q", got.Transcript, "second")
	}
}

func TestUpdateLabels(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	ctx := context.Background()

	if err := client.Index(ctx, "0", store.Document{Link: "l", Transcript: "t"}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := client.UpdateLabels(ctx, "0", "fox,runs"); err != nil {
		t.Fatalf("update labels: %v", err)
	}

	got, err := client.Get(ctx, "0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Labeled() || *got.Labels != "fox,runs" {
		t.Fatalf("unexpected labels: %#v", got.Labels)
	}
	if got.Transcript != "t" {
		t.Fatal("partial update must not touch the transcript")
	}
}

func TestScanPaginatesWithoutDriftOrDuplication(t *testing.T) {
	t.Parallel()

	client, mock := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := strconv.Itoa(i)
		mock.Put(id, store.Document{Link: "l" + id, Transcript: "t" + id})
	}

	seen := map[string]int{}
	err := client.Scan(ctx, 2, func(hit store.Hit) error {
		seen[hit.ID]++
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(seen) != 5 {
		t.Fatalf("scan saw %d documents, want 5", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("document %s seen %d times", id, n)
		}
	}
}

func TestScanSortsOnIndexedIDField(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)
	ctx := context.Background()

	// The mock, like a real cluster, answers 400 to any sort on the _id
	// metadata field, so a scan only succeeds by sorting on the id copy
	// indexed with each document.
	for i := 4; i >= 0; i-- {
		id := strconv.Itoa(i)
		if err := client.Index(ctx, id, store.Document{Link: "l" + id, Transcript: "t" + id}); err != nil {
			t.Fatalf("index %s: %v", id, err)
		}
	}

	var order []string
	err := client.Scan(ctx, 2, func(hit store.Hit) error {
		order = append(order, hit.ID)
		return nil
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(order) != 5 {
		t.Fatalf("scan saw %d documents, want 5", len(order))
	}
	for i := 1; i < len(order); i++ {
		if order[i-1] >= order[i] {
			t.Fatalf("scan order not ascending: %v", order)
		}
	}
}

func TestAnalyzeStopAnalyzer(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t)

	tokens, err := client.Analyze(context.Background(), "The quick brown fox, and the lazy dog!")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	want := []string{"quick", "brown", "fox", "lazy", "dog"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", tokens, want)
		}
	}
}

func TestStoreFailureSurfacesAsHTTPError(t *testing.T) {
	t.Parallel()

	client, mock := newTestClient(t)
	mock.FailOp("count", true)

	_, err := client.Count(context.Background())
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	var he *eshttp.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected HTTPError, got %T: %v", err, err)
	}
	if he.Type != "injected_failure" {
		t.Fatalf("error type = %q, want %q", he.Type, "injected_failure")
	}
}

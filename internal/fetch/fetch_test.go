package fetch_test

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/talkindex/talkindex/internal/fetch"
	"github.com/talkindex/talkindex/internal/mockdriver"
	"github.com/talkindex/talkindex/internal/webdriver"
)

func newTestFetcher(t *testing.T, driver *mockdriver.Server) *fetch.Fetcher {
	t.Helper()
	srv := httptest.NewServer(driver.Handler())
	t.Cleanup(srv.Close)

	client, err := webdriver.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return fetch.New(client, fetch.Options{
		Selector:     "span.transcript-segment",
		RenderWait:   200 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	})
}

func TestFetch_JoinsSegmentsInOrder(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	driver.Register("https://talks.example/1/transcript", mockdriver.Page{
		Segments: []string{"  So here is ", "an idea ", " worth spreading."},
	})
	f := newTestFetcher(t, driver)

	res, err := f.Fetch(context.Background(), fetch.Ref{ID: 1, URL: "https://talks.example/1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found {
		t.Fatal("expected transcript to be found")
	}
	want := "So here is an idea worth spreading."
	if res.Transcript != want {
		t.Fatalf("transcript = %q, want %q", res.Transcript, want)
	}
	if res.ID != 1 {
		t.Fatalf("result id = %d, want 1", res.ID)
	}
	if live := driver.SessionsLive(); live != 0 {
		t.Fatalf("%d sessions leaked", live)
	}
}

func TestFetch_MalformedURLIsAbsentNotError(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	f := newTestFetcher(t, driver)

	res, err := f.Fetch(context.Background(), fetch.Ref{ID: 7, URL: "bad url"})
	if err != nil {
		t.Fatalf("navigation failure must not surface as error, got: %v", err)
	}
	if res.Found {
		t.Fatal("expected absent transcript")
	}
	if res.ID != 7 {
		t.Fatalf("result id = %d, want 7", res.ID)
	}
	if live := driver.SessionsLive(); live != 0 {
		t.Fatalf("%d sessions leaked on the navigation-error path", live)
	}
}

func TestFetch_ZeroSegmentsIsAbsent(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	driver.Register("https://talks.example/2/transcript", mockdriver.Page{})
	f := newTestFetcher(t, driver)

	res, err := f.Fetch(context.Background(), fetch.Ref{ID: 2, URL: "https://talks.example/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Fatal("expected absent transcript for page with no segments")
	}
	if live := driver.SessionsLive(); live != 0 {
		t.Fatalf("%d sessions leaked", live)
	}
}

func TestFetch_WaitsForClientSideRender(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	driver.Register("https://talks.example/3/transcript", mockdriver.Page{
		Segments:    []string{"late content"},
		RenderPolls: 3,
	})
	f := newTestFetcher(t, driver)

	res, err := f.Fetch(context.Background(), fetch.Ref{ID: 3, URL: "https://talks.example/3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found || res.Transcript != "late content" {
		t.Fatalf("unexpected result: %#v", res)
	}
}

func TestFetch_DriverFaultReturnsError(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	driver.FailNewSession(true)
	f := newTestFetcher(t, driver)

	res, err := f.Fetch(context.Background(), fetch.Ref{ID: 4, URL: "https://talks.example/4"})
	if err == nil {
		t.Fatal("expected driver fault to surface as error")
	}
	if res.Found {
		t.Fatal("faulted fetch must not report a transcript")
	}
	if live := driver.SessionsLive(); live != 0 {
		t.Fatalf("%d sessions leaked", live)
	}
}

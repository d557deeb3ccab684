package webdriver_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/talkindex/talkindex/internal/mockdriver"
	"github.com/talkindex/talkindex/internal/webdriver"
)

func newTestClient(t *testing.T, driver *mockdriver.Server) *webdriver.Client {
	t.Helper()
	srv := httptest.NewServer(driver.Handler())
	t.Cleanup(srv.Close)
	client, err := webdriver.NewClient(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	driver.Register("https://talks.example/1/transcript", mockdriver.Page{
		Segments: []string{"hello", "world"},
	})
	client := newTestClient(t, driver)
	ctx := context.Background()

	sess, err := client.NewSession(ctx, webdriver.SessionOptions{Headless: true, Locale: "en-US"})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := sess.Navigate(ctx, "https://talks.example/1/transcript"); err != nil {
		t.Fatalf("navigate: %v", err)
	}
	elements, err := sess.FindElements(ctx, "span")
	if err != nil {
		t.Fatalf("find elements: %v", err)
	}
	if len(elements) != 2 {
		t.Fatalf("got %d elements, want 2", len(elements))
	}
	text, err := sess.ElementText(ctx, elements[0])
	if err != nil {
		t.Fatalf("element text: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text = %q, want %q", text, "hello")
	}
	if err := sess.Delete(ctx); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if created := driver.SessionsCreated(); created != 1 {
		t.Fatalf("created %d sessions, want 1", created)
	}
	if live := driver.SessionsLive(); live != 0 {
		t.Fatalf("%d sessions still live", live)
	}
}

func TestNavigationErrorClassification(t *testing.T) {
	t.Parallel()

	driver := mockdriver.New()
	client := newTestClient(t, driver)
	ctx := context.Background()

	sess, err := client.NewSession(ctx, webdriver.SessionOptions{})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	defer func() {
		_ = sess.Delete(ctx)
	}()

	err = sess.Navigate(ctx, "not a url")
	if err == nil {
		t.Fatal("expected navigation error")
	}
	var pe *webdriver.ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProtocolError, got %T: %v", err, err)
	}
	if pe.Code != "invalid argument" {
		t.Fatalf("code = %q, want %q", pe.Code, "invalid argument")
	}
	if !webdriver.IsNavigationError(err) {
		t.Fatal("navigate failure should classify as navigation error")
	}

	// The same code on a non-navigate op is a driver fault, not a
	// navigation error.
	_, err = sess.ElementText(ctx, "missing")
	if err == nil {
		t.Fatal("expected element text error")
	}
	if webdriver.IsNavigationError(err) {
		t.Fatal("element lookup failure must not classify as navigation error")
	}
}

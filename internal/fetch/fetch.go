// Package fetch retrieves one talk transcript per document reference through
// a browser-automation session.
package fetch

import (
	"context"
	"strings"
	"time"

	"github.com/talkindex/talkindex/internal/webdriver"
)

// Ref identifies one remote document to fetch. ID is the manifest row
// ordinal and stays stable through indexing.
type Ref struct {
	ID    int
	Title string
	URL   string
}

// Result is the outcome of exactly one fetch attempt. Found is false for
// both navigation failures and pages without transcript segments; neither
// is an error.
type Result struct {
	ID         int
	Transcript string
	Found      bool
}

// Options configures transcript extraction.
type Options struct {
	// Selector matches the transcript segment elements on the rendered page.
	Selector string

	// RenderWait bounds how long to wait for client-side-rendered segments
	// to appear after navigation.
	RenderWait time.Duration

	// PollInterval is the delay between element lookups during RenderWait.
	PollInterval time.Duration

	Session webdriver.SessionOptions
}

func (o Options) withDefaults() Options {
	if o.RenderWait <= 0 {
		o.RenderWait = 10 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
	return o
}

// Fetcher fetches transcripts. One Fetcher is shared by all workers; every
// Fetch call owns an isolated browser session.
type Fetcher struct {
	driver *webdriver.Client
	opts   Options
}

func New(driver *webdriver.Client, opts Options) *Fetcher {
	return &Fetcher{driver: driver, opts: opts.withDefaults()}
}

// Fetch navigates to the transcript sub-resource of ref.URL, waits for the
// segments to render, and extracts their text in document order.
//
// A navigation-level failure or a page with zero matching segments returns
// an absent Result and a nil error. A driver fault (session creation or
// protocol failure) returns a non-nil error; the coordinator records it
// against ref.ID and moves on. The session is torn down on every path.
func (f *Fetcher) Fetch(ctx context.Context, ref Ref) (Result, error) {
	absent := Result{ID: ref.ID}

	sess, err := f.driver.NewSession(ctx, f.opts.Session)
	if err != nil {
		return absent, err
	}
	defer func() {
		// Teardown must happen even when ctx is already done.
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		_ = sess.Delete(dctx)
	}()

	target := strings.TrimRight(strings.TrimSpace(ref.URL), "/") + "/transcript"
	if err := sess.Navigate(ctx, target); err != nil {
		if webdriver.IsNavigationError(err) {
			return absent, nil
		}
		return absent, err
	}

	elements, err := f.waitForSegments(ctx, sess)
	if err != nil {
		return absent, err
	}
	if len(elements) == 0 {
		return absent, nil
	}

	segments := make([]string, 0, len(elements))
	for _, el := range elements {
		text, err := sess.ElementText(ctx, el)
		if err != nil {
			return absent, err
		}
		if t := strings.TrimSpace(text); t != "" {
			segments = append(segments, t)
		}
	}

	transcript := strings.TrimSpace(strings.Join(segments, " "))
	if transcript == "" {
		return absent, nil
	}
	return Result{ID: ref.ID, Transcript: transcript, Found: true}, nil
}

// waitForSegments polls for the transcript elements until they render or
// the render deadline passes. Zero elements after the deadline is a valid
// outcome, not an error.
func (f *Fetcher) waitForSegments(ctx context.Context, sess *webdriver.Session) ([]string, error) {
	deadline := time.Now().Add(f.opts.RenderWait)
	for {
		elements, err := sess.FindElements(ctx, f.opts.Selector)
		if err != nil {
			return nil, err
		}
		if len(elements) > 0 {
			return elements, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
		}
		t := time.NewTimer(f.opts.PollInterval)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}
}

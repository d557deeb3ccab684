// Package webdriver is a minimal W3C WebDriver wire-protocol client against
// a chromedriver-compatible endpoint.
//
// Note: This is intentionally minimal, covering only the commands the
// transcript fetcher needs (session lifecycle, navigation, element lookup,
// element text).
package webdriver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// elementKey is the W3C web element identifier key.
const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// SessionOptions configures the browser process backing one session.
type SessionOptions struct {
	// Binary is the browser executable path. Empty lets the driver pick.
	Binary string

	Headless      bool
	NoSandbox     bool
	DisableDevShm bool

	// Locale is passed as --lang so pages render in a known language.
	Locale string
}

// Client talks to one driver endpoint. Sessions created from it are
// independent and safe to use from different goroutines.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient constructs a client for a driver base URL,
// e.g. NewClient("http://127.0.0.1:9515").
func NewClient(baseURL string) (*Client, error) {
	raw := strings.TrimSpace(baseURL)
	if raw == "" {
		return nil, fmt.Errorf("driver base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse driver base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("driver base URL must include a host (got %q)", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return &Client{
		baseURL: u,
		http: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// Session is one live browser session. It is owned by the goroutine that
// created it and must be deleted before its unit of work returns.
type Session struct {
	client *Client
	id     string
}

type newSessionResponse struct {
	Value struct {
		SessionID string `json:"sessionId"`
	} `json:"value"`
}

// NewSession starts a fresh browser session.
func (c *Client) NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	args := []string{}
	if opts.Headless {
		args = append(args, "--headless")
	}
	if opts.NoSandbox {
		args = append(args, "--no-sandbox")
	}
	if opts.DisableDevShm {
		args = append(args, "--disable-dev-shm-usage")
	}
	if strings.TrimSpace(opts.Locale) != "" {
		args = append(args, "--lang="+strings.TrimSpace(opts.Locale))
	}

	chromeOpts := map[string]any{"args": args}
	if strings.TrimSpace(opts.Binary) != "" {
		chromeOpts["binary"] = strings.TrimSpace(opts.Binary)
	}
	body := map[string]any{
		"capabilities": map[string]any{
			"alwaysMatch": map[string]any{
				"browserName":        "chrome",
				"goog:chromeOptions": chromeOpts,
			},
		},
	}

	rb, err := c.do(ctx, "newSession", http.MethodPost, "session", body)
	if err != nil {
		return nil, err
	}
	var out newSessionResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return nil, fmt.Errorf("parse new session response: %w", err)
	}
	if strings.TrimSpace(out.Value.SessionID) == "" {
		return nil, fmt.Errorf("new session response missing sessionId")
	}
	return &Session{client: c, id: out.Value.SessionID}, nil
}

// Navigate loads url and blocks until the driver considers the page loaded.
// Client-side-rendered content may still arrive afterwards; callers poll
// FindElements for it.
func (s *Session) Navigate(ctx context.Context, pageURL string) error {
	_, err := s.client.do(ctx, "navigate", http.MethodPost,
		"session/"+url.PathEscape(s.id)+"/url",
		map[string]any{"url": pageURL})
	return err
}

type valueResponse struct {
	Value json.RawMessage `json:"value"`
}

// PageSource returns the current rendered page markup.
func (s *Session) PageSource(ctx context.Context) (string, error) {
	rb, err := s.client.do(ctx, "pageSource", http.MethodGet,
		"session/"+url.PathEscape(s.id)+"/source", nil)
	if err != nil {
		return "", err
	}
	var out valueResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return "", fmt.Errorf("parse page source response: %w", err)
	}
	var src string
	if err := json.Unmarshal(out.Value, &src); err != nil {
		return "", fmt.Errorf("parse page source response: %w", err)
	}
	return src, nil
}

// FindElements returns the element ids matching the CSS selector, in
// document order. Zero matches is not an error.
func (s *Session) FindElements(ctx context.Context, cssSelector string) ([]string, error) {
	rb, err := s.client.do(ctx, "findElements", http.MethodPost,
		"session/"+url.PathEscape(s.id)+"/elements",
		map[string]any{"using": "css selector", "value": cssSelector})
	if err != nil {
		return nil, err
	}
	var out valueResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return nil, fmt.Errorf("parse find elements response: %w", err)
	}
	var raw []map[string]string
	if err := json.Unmarshal(out.Value, &raw); err != nil {
		return nil, fmt.Errorf("parse find elements response: %w", err)
	}
	ids := make([]string, 0, len(raw))
	for _, m := range raw {
		if id := m[elementKey]; id != "" {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ElementText returns the rendered text of one element.
func (s *Session) ElementText(ctx context.Context, elementID string) (string, error) {
	rb, err := s.client.do(ctx, "elementText", http.MethodGet,
		"session/"+url.PathEscape(s.id)+"/element/"+url.PathEscape(elementID)+"/text", nil)
	if err != nil {
		return "", err
	}
	var out valueResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return "", fmt.Errorf("parse element text response: %w", err)
	}
	var text string
	if err := json.Unmarshal(out.Value, &text); err != nil {
		return "", fmt.Errorf("parse element text response: %w", err)
	}
	return text, nil
}

// Delete tears the session and its browser process down. Safe to call on
// every exit path; the driver treats repeat deletes as invalid session ids.
func (s *Session) Delete(ctx context.Context) error {
	_, err := s.client.do(ctx, "deleteSession", http.MethodDelete,
		"session/"+url.PathEscape(s.id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, relPath string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}

	rel := &url.URL{Path: strings.TrimPrefix(relPath, "/")}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		return nil, newProtocolError(op, resp, rb)
	}
	return rb, nil
}

// Package eshttp implements the store contract against an
// Elasticsearch-compatible REST API.
//
// Note: This is intentionally minimal, covering only the endpoints this
// pipeline uses (_count, _search, _doc, _update, _analyze).
package eshttp

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

	"github.com/talkindex/talkindex/internal/store"
)

// Client is a minimal HTTP client for one index on one cluster.
type Client struct {
	baseURL *url.URL
	index   string
	http    *http.Client
}

// NewClient constructs a client for the cluster base URL and index name,
// e.g. NewClient("http://127.0.0.1:9200", "talk-index").
func NewClient(baseURL, index string) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	index = strings.TrimSpace(index)
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	return &Client{
		baseURL: base,
		index:   index,
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("store base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse store base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("store base URL must include a host (got %q)", raw)
	}
	// Ensure the base path ends with a slash so ResolveReference treats it
	// as a directory.
	u.Path = strings.TrimRight(u.Path, "/") + "/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func (c *Client) resolve(relPath string) *url.URL {
	relPath = strings.TrimPrefix(relPath, "/")
	rel := &url.URL{Path: relPath}
	return c.baseURL.ResolveReference(rel)
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

	u := c.resolve(relPath)
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
		return nil, newHTTPError(op, resp, rb)
	}
	return rb, nil
}

type countResponse struct {
	Count int `json:"count"`
}

// Count returns the number of documents in the index.
func (c *Client) Count(ctx context.Context) (int, error) {
	rb, err := c.do(ctx, "count", http.MethodGet, c.index+"/_count", nil)
	if err != nil {
		return 0, err
	}
	var out countResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return 0, fmt.Errorf("parse count response: %w", err)
	}
	return out.Count, nil
}

// sourceDoc is the indexed source: the document plus its id as a regular
// field. Sorting on the _id metadata field needs fielddata, which clusters
// disable, so scans sort on the keyword subfield of this id copy instead.
type sourceDoc struct {
	store.Document
	ID string `json:"id"`
}

type searchRequest struct {
	Query       map[string]any `json:"query"`
	Size        int            `json:"size"`
	Sort        []any          `json:"sort"`
	SearchAfter []any          `json:"search_after,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string         `json:"_id"`
			Source store.Document `json:"_source"`
			Sort   []any          `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// Scan streams every document through fn in id order, search_after-paginated
// so large corpora are never materialized in one response.
func (c *Client) Scan(ctx context.Context, pageSize int, fn func(store.Hit) error) error {
	if pageSize <= 0 {
		pageSize = 100
	}

	var after []any
	for {
		req := searchRequest{
			Query:       map[string]any{"match_all": map[string]any{}},
			Size:        pageSize,
			Sort:        []any{map[string]any{"id.keyword": "asc"}},
			SearchAfter: after,
		}
		rb, err := c.do(ctx, "search", http.MethodPost, c.index+"/_search", req)
		if err != nil {
			return err
		}
		var out searchResponse
		if err := json.Unmarshal(rb, &out); err != nil {
			return fmt.Errorf("parse search response: %w", err)
		}
		if len(out.Hits.Hits) == 0 {
			return nil
		}
		for _, h := range out.Hits.Hits {
			if err := fn(store.Hit{ID: h.ID, Doc: h.Source}); err != nil {
				return err
			}
		}
		last := out.Hits.Hits[len(out.Hits.Hits)-1]
		after = last.Sort
		if len(after) == 0 {
			// Server did not echo sort values; fall back to the id.
			after = []any{last.ID}
		}
		if len(out.Hits.Hits) < pageSize {
			return nil
		}
	}
}

type getResponse struct {
	Found  bool           `json:"found"`
	Source store.Document `json:"_source"`
}

// Get returns the document stored under id.
func (c *Client) Get(ctx context.Context, id string) (store.Document, error) {
	rb, err := c.do(ctx, "get", http.MethodGet, c.index+"/_doc/"+url.PathEscape(id), nil)
	if err != nil {
		return store.Document{}, err
	}
	var out getResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return store.Document{}, fmt.Errorf("parse get response: %w", err)
	}
	if !out.Found {
		return store.Document{}, fmt.Errorf("document %s not found", id)
	}
	return out.Source, nil
}

// Index upserts the full document under id.
func (c *Client) Index(ctx context.Context, id string, doc store.Document) error {
	src := sourceDoc{Document: doc, ID: id}
	_, err := c.do(ctx, "index", http.MethodPut, c.index+"/_doc/"+url.PathEscape(id), src)
	return err
}

type updateRequest struct {
	Doc map[string]any `json:"doc"`
}

// UpdateLabels partially updates one document, touching only its labels field.
func (c *Client) UpdateLabels(ctx context.Context, id string, labels string) error {
	body := updateRequest{Doc: map[string]any{"labels": labels}}
	_, err := c.do(ctx, "update", http.MethodPost, c.index+"/_update/"+url.PathEscape(id), body)
	return err
}

type analyzeRequest struct {
	Analyzer string `json:"analyzer"`
	Text     string `json:"text"`
}

type analyzeResponse struct {
	Tokens []struct {
		Token string `json:"token"`
	} `json:"tokens"`
}

// Analyze runs the cluster-side stop analyzer over text and returns the
// surviving tokens in order.
func (c *Client) Analyze(ctx context.Context, text string) ([]string, error) {
	rb, err := c.do(ctx, "analyze", http.MethodPost, "_analyze", analyzeRequest{
		Analyzer: "stop",
		Text:     text,
	})
	if err != nil {
		return nil, err
	}
	var out analyzeResponse
	if err := json.Unmarshal(rb, &out); err != nil {
		return nil, fmt.Errorf("parse analyze response: %w", err)
	}
	tokens := make([]string, 0, len(out.Tokens))
	for _, t := range out.Tokens {
		tokens = append(tokens, t.Token)
	}
	return tokens, nil
}

var _ store.Store = (*Client)(nil)

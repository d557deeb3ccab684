package eshttp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// errorEnvelope is the standard error shape returned by the search index.
// Responses may include additional fields; we intentionally ignore them.
type errorEnvelope struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// HTTPError is a sanitized summary of a non-2xx index API response.
//
// Important: do not include raw response bodies here (they can echo document
// content back at us).
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	Type       string
	Reason     string

	// Snippet is a truncated hint for responses without an error envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "index http error"
	}
	parts := []string{
		fmt.Sprintf("index api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Type) != "" {
		parts = append(parts, "type="+strings.TrimSpace(e.Type))
	}
	if strings.TrimSpace(e.Reason) != "" {
		parts = append(parts, "reason="+strings.TrimSpace(e.Reason))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.Type = strings.TrimSpace(env.Error.Type)
		h.Reason = strings.TrimSpace(env.Error.Reason)
		if h.Type != "" || h.Reason != "" {
			return h
		}
	}

	h.Snippet = truncate(body)
	return h
}

func truncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := strings.ReplaceAll(string(b), "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}

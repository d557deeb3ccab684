package webdriver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// errorEnvelope is the W3C WebDriver error response shape.
type errorEnvelope struct {
	Value struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	} `json:"value"`
}

// ProtocolError is a sanitized summary of a non-2xx driver response. The
// Code field carries the W3C error code string ("invalid argument",
// "invalid session id", ...).
type ProtocolError struct {
	Op         string
	StatusCode int
	Status     string
	Code       string
	Message    string
}

func (e *ProtocolError) Error() string {
	if e == nil {
		return "webdriver protocol error"
	}
	parts := []string{
		fmt.Sprintf("webdriver error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.Code) != "" {
		parts = append(parts, "code="+strings.TrimSpace(e.Code))
	}
	if strings.TrimSpace(e.Message) != "" {
		parts = append(parts, "message="+firstLine(e.Message))
	}
	return strings.Join(parts, " ")
}

func newProtocolError(op string, resp *http.Response, body []byte) error {
	pe := &ProtocolError{Op: op}
	if resp != nil {
		pe.StatusCode = resp.StatusCode
		pe.Status = resp.Status
	}
	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		pe.Code = strings.TrimSpace(env.Value.Error)
		pe.Message = strings.TrimSpace(env.Value.Message)
	}
	return pe
}

// IsNavigationError reports whether err is a driver-side navigation failure
// (malformed or unreachable URL) rather than a driver fault. The fetcher
// maps these to absent-transcript results.
func IsNavigationError(err error) bool {
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Code {
	case "invalid argument", "unknown error", "timeout":
		return pe.Op == "navigate"
	default:
		return false
	}
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	const max = 200
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}

// Package mockdriver implements a scripted WebDriver API surface for
// exercising the fetcher without a browser. Pages are registered per URL
// with their transcript segments; navigation failures and slow client-side
// rendering are injectable.
package mockdriver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

const elementKey = "element-6066-11e4-a52e-4f735466cecf"

// Page scripts the behavior of one URL.
type Page struct {
	// NavError makes navigation to this URL fail with "invalid argument".
	NavError bool

	// Segments are the transcript segment texts the page exposes.
	Segments []string

	// RenderPolls is how many findElements calls return nothing before the
	// segments "render". Zero means immediately visible.
	RenderPolls int
}

type session struct {
	url   string
	polls int
}

// Server is the mock driver.
type Server struct {
	mu             sync.Mutex
	pages          map[string]Page
	sessions       map[string]*session
	nextSession    int
	created        int
	deleted        int
	failNewSession bool
}

func New() *Server {
	return &Server{
		pages:    make(map[string]Page),
		sessions: make(map[string]*session),
	}
}

// Register scripts a page for a URL.
func (s *Server) Register(url string, p Page) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[url] = p
}

// FailNewSession makes session creation fail with "session not created",
// simulating a fatal driver/backend error.
func (s *Server) FailNewSession(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNewSession = fail
}

// SessionsCreated returns how many sessions were started.
func (s *Server) SessionsCreated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created
}

// SessionsLive returns how many sessions were started but never deleted.
func (s *Server) SessionsLive() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.created - s.deleted
}

// Handler returns an http.Handler serving the mock driver API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/session", s.handleNewSession)
	mux.HandleFunc("/session/", s.handleSession)
	return mux
}

func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.Lock()
	if s.failNewSession {
		s.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "session not created", "injected driver failure")
		return
	}
	s.nextSession++
	id := "mock-session-" + strconv.Itoa(s.nextSession)
	s.sessions[id] = &session{}
	s.created++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"value": map[string]any{"sessionId": id},
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/session/")
	parts := strings.Split(rest, "/")
	sid := parts[0]

	s.mu.Lock()
	sess, ok := s.sessions[sid]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "invalid session id", "unknown session "+sid)
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.mu.Lock()
		delete(s.sessions, sid)
		s.deleted++
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"value": nil})

	case len(parts) == 2 && parts[1] == "url" && r.Method == http.MethodPost:
		s.handleNavigate(w, r, sess)

	case len(parts) == 2 && parts[1] == "source" && r.Method == http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"value": "<html></html>"})

	case len(parts) == 2 && parts[1] == "elements" && r.Method == http.MethodPost:
		s.handleFindElements(w, sess)

	case len(parts) == 4 && parts[1] == "element" && parts[3] == "text" && r.Method == http.MethodGet:
		s.handleElementText(w, sess, parts[2])

	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request, sess *session) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid argument", "bad navigate body")
		return
	}

	s.mu.Lock()
	page, scripted := s.pages[body.URL]
	s.mu.Unlock()

	if !scripted || page.NavError {
		writeError(w, http.StatusBadRequest, "invalid argument", "cannot navigate to "+body.URL)
		return
	}

	s.mu.Lock()
	sess.url = body.URL
	sess.polls = 0
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"value": nil})
}

func (s *Server) handleFindElements(w http.ResponseWriter, sess *session) {
	s.mu.Lock()
	page := s.pages[sess.url]
	sess.polls++
	rendered := sess.polls > page.RenderPolls
	n := 0
	if rendered {
		n = len(page.Segments)
	}
	s.mu.Unlock()

	els := make([]map[string]string, 0, n)
	for i := 0; i < n; i++ {
		els = append(els, map[string]string{elementKey: "seg-" + strconv.Itoa(i)})
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": els})
}

func (s *Server) handleElementText(w http.ResponseWriter, sess *session, elementID string) {
	idx, err := strconv.Atoi(strings.TrimPrefix(elementID, "seg-"))
	if err != nil {
		writeError(w, http.StatusNotFound, "stale element reference", "unknown element "+elementID)
		return
	}

	s.mu.Lock()
	page := s.pages[sess.url]
	s.mu.Unlock()

	if idx < 0 || idx >= len(page.Segments) {
		writeError(w, http.StatusNotFound, "stale element reference", "unknown element "+elementID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": page.Segments[idx]})
}

func writeError(w http.ResponseWriter, code int, wdCode, message string) {
	writeJSON(w, code, map[string]any{
		"value": map[string]any{
			"error":   wdCode,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

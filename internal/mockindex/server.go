// Package mockindex implements a minimal in-memory search-index API surface
// shaped like the endpoints the eshttp client calls. It backs the client
// tests and the local mockstack binary.
package mockindex

import (
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/talkindex/talkindex/internal/store"
)

// Call records a request made to the mock service.
type Call struct {
	Method string
	Path   string
}

// Server holds one in-memory index.
type Server struct {
	index string

	mu    sync.Mutex
	docs  map[string]store.Document
	calls []Call

	// failOps forces the named ops (count, search, get, index, update,
	// analyze) to respond 500, for error-path tests.
	failOps map[string]bool
}

// New constructs a mock server for one index name.
func New(index string) *Server {
	return &Server{
		index:   index,
		docs:    make(map[string]store.Document),
		failOps: make(map[string]bool),
	}
}

// Handler returns an http.Handler serving the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/_analyze", s.handleAnalyze)
	mux.HandleFunc("/"+s.index+"/", s.handleIndex)
	return mux
}

// Calls returns a snapshot of calls made to the server.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// Put seeds a document directly, bypassing the HTTP surface.
func (s *Server) Put(id string, doc store.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc
}

// Doc returns a seeded or indexed document and whether it exists.
func (s *Server) Doc(id string) (store.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	return d, ok
}

// Len returns the number of stored documents.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// FailOp makes the named op respond 500 until cleared.
func (s *Server) FailOp(op string, fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOps[op] = fail
}

func (s *Server) recordCall(r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Method: r.Method, Path: r.URL.Path})
}

func (s *Server) shouldFail(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failOps[op]
}

func (s *Server) fail(w http.ResponseWriter, op string) bool {
	if !s.shouldFail(op) {
		return false
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{
		"error": map[string]any{
			"type":   "injected_failure",
			"reason": "op " + op + " forced to fail",
		},
		"status": 500,
	})
	return true
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)

	rest := strings.TrimPrefix(r.URL.Path, "/"+s.index+"/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 1 && parts[0] == "_count" && r.Method == http.MethodGet:
		s.handleCount(w)
	case len(parts) == 1 && parts[0] == "_search" && r.Method == http.MethodPost:
		s.handleSearch(w, r)
	case len(parts) == 2 && parts[0] == "_doc" && r.Method == http.MethodGet:
		s.handleGet(w, parts[1])
	case len(parts) == 2 && parts[0] == "_doc" && r.Method == http.MethodPut:
		s.handlePut(w, r, parts[1])
	case len(parts) == 2 && parts[0] == "_update" && r.Method == http.MethodPost:
		s.handleUpdate(w, r, parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleCount(w http.ResponseWriter) {
	if s.fail(w, "count") {
		return
	}
	s.mu.Lock()
	n := len(s.docs)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"count": n})
}

type searchBody struct {
	Size        int              `json:"size"`
	Sort        []map[string]any `json:"sort"`
	SearchAfter []any            `json:"search_after"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.fail(w, "search") {
		return
	}
	var body searchBody
	b, _ := io.ReadAll(r.Body)
	if len(b) > 0 {
		if err := json.Unmarshal(b, &body); err != nil {
			http.Error(w, "bad search body", http.StatusBadRequest)
			return
		}
	}
	// Clusters disallow fielddata on _id; reject sorts on it the same way.
	for _, clause := range body.Sort {
		if _, ok := clause["_id"]; ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": map[string]any{
					"type":   "illegal_argument_exception",
					"reason": "Fielddata access on the _id field is disallowed",
				},
				"status": 400,
			})
			return
		}
	}
	if body.Size <= 0 {
		body.Size = 10
	}
	after := ""
	if len(body.SearchAfter) == 1 {
		if sv, ok := body.SearchAfter[0].(string); ok {
			after = sv
		}
	}

	s.mu.Lock()
	ids := make([]string, 0, len(s.docs))
	for id := range s.docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	hits := make([]map[string]any, 0, body.Size)
	for _, id := range ids {
		if after != "" && id <= after {
			continue
		}
		if len(hits) == body.Size {
			break
		}
		hits = append(hits, map[string]any{
			"_id":     id,
			"_source": s.docs[id],
			"sort":    []any{id},
		})
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"hits": map[string]any{"hits": hits},
	})
}

func (s *Server) handleGet(w http.ResponseWriter, id string) {
	if s.fail(w, "get") {
		return
	}
	s.mu.Lock()
	doc, ok := s.docs[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"found": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"found": true, "_source": doc})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request, id string) {
	if s.fail(w, "index") {
		return
	}
	var doc store.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		http.Error(w, "bad document body", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	_, existed := s.docs[id]
	s.docs[id] = doc
	s.mu.Unlock()
	result := "created"
	code := http.StatusCreated
	if existed {
		result = "updated"
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{"_id": id, "result": result})
}

type updateBody struct {
	Doc map[string]any `json:"doc"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	if s.fail(w, "update") {
		return
	}
	var body updateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad update body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	doc, ok := s.docs[id]
	if ok {
		if v, has := body.Doc["labels"]; has {
			if labels, isStr := v.(string); isStr {
				doc.Labels = &labels
			}
		}
		s.docs[id] = doc
	}
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{
				"type":   "document_missing_exception",
				"reason": "document " + id + " missing",
			},
			"status": 404,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"_id": id, "result": "updated"})
}

type analyzeBody struct {
	Analyzer string `json:"analyzer"`
	Text     string `json:"text"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	s.recordCall(r)
	if s.fail(w, "analyze") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var body analyzeBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad analyze body", http.StatusBadRequest)
		return
	}

	tokens := store.StopAnalyze(body.Text)
	out := make([]map[string]any, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, map[string]any{"token": t})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tokens": out})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

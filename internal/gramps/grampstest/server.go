// Package grampstest provides an in-process fake of the Gramps Web API for tests.
package grampstest

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/olgasafonova/gramps-mcp-server/internal/auth"
	"github.com/olgasafonova/gramps-mcp-server/internal/base"
	"github.com/olgasafonova/gramps-mcp-server/internal/gramps"
)

// Token is the access token the fake hands out.
const Token = "test-token"

// Request is a recorded call to the fake.
type Request struct {
	Method string
	Path   string // relative to /api/, e.g. "people/h1"
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the request body.
func (r Request) JSON() map[string]any {
	var m map[string]any
	_ = json.Unmarshal(r.Body, &m)
	return m
}

// Server is a fake Gramps Web API. GET responses are served from canned
// values; anything else needs a handler.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	gets     map[string]any
	handlers map[string]http.HandlerFunc
	requests []Request
	logins   int
}

// NewServer starts a fake and closes it when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{
		gets:     map[string]any{},
		handlers: map[string]http.HandlerFunc{},
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Set registers the JSON value returned by GET path.
func (s *Server) Set(path string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets[path] = v
}

// Handle registers a handler for method and path, taking precedence over Set.
func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method+" "+path] = h
}

// Requests returns recorded calls, excluding logins.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// RequestsTo returns recorded calls matching method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Logins returns how many token exchanges happened.
func (s *Server) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

// Client returns a gramps.Client wired to the fake with caching disabled.
func (s *Server) Client(t testing.TB) *gramps.Client {
	return s.ClientWithCache(t, -1)
}

// ClientWithCache returns a client with the given record cache TTL.
func (s *Server) ClientWithCache(t testing.TB, ttl time.Duration) *gramps.Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	httpClient := base.NewClient(base.WithLogger(logger), base.WithMaxRetry(1))
	tokens := auth.NewTokenManager(httpClient, logger, s.URL+"/api", "owner", "secret")
	c := gramps.NewClient(httpClient, tokens, logger, gramps.Options{
		APIBase:   s.URL + "/api",
		TreeID:    "tree1",
		CacheTTL:  ttl,
		CacheSize: 100,
	})
	t.Cleanup(c.Close)
	return c
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rel := strings.TrimPrefix(r.URL.Path, "/api/")

	if rel == "token/" {
		s.mu.Lock()
		s.logins++
		s.mu.Unlock()
		WriteJSON(w, http.StatusOK, map[string]string{"access_token": Token})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   rel,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	h := s.handlers[r.Method+" "+rel]
	v, ok := s.gets[rel]
	s.mu.Unlock()

	if h != nil {
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
		return
	}
	if r.Method == http.MethodGet && ok {
		WriteJSON(w, http.StatusOK, v)
		return
	}
	WriteJSON(w, http.StatusNotFound, map[string]any{"error": map[string]any{"code": 404, "message": "Not Found"}})
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

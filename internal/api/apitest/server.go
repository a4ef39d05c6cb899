// Package apitest provides an in-process stand-in for every upstream API family.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"downfall/internal/api"
)

// Server routes on method and path (query strings are ignored) and counts hits per route.
type Server struct {
	*httptest.Server

	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func New(t testing.TB) *Server {
	s := &Server{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

func key(method, path string) string {
	return method + " " + path
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	k := key(r.Method, r.URL.Path)

	s.mu.Lock()
	s.hits[k]++
	h, ok := s.routes[k]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	h(w, r)
}

func (s *Server) Handle(method, path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[key(method, path)] = h
}

// JSON registers a route answering with a fixed status and JSON body.
func (s *Server) JSON(method, path string, status int, body any) {
	payload, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	s.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(payload)
	})
}

func (s *Server) Status(method, path string, status int) {
	s.Handle(method, path, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	})
}

func (s *Server) Remove(method, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.routes, key(method, path))
}

func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[key(method, path)]
}

// Endpoints points every family, whatever the port, region or shard, at this server.
func (s *Server) Endpoints() api.Endpoints {
	return api.Endpoints{
		Local:    func(int) string { return s.URL },
		PD:       func(string) string { return s.URL },
		GLZ:      func(string, string) string { return s.URL },
		Metadata: s.URL,
	}
}

func (s *Server) Gateway() *api.Gateway {
	return api.NewGatewayWithEndpoints(s.Endpoints(), nil, zerolog.Nop())
}

// Package viewer serves the analysed dependency graph as JSON over HTTP.
package viewer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/joshharrison/depweave/internal/engine"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/levels"
	"github.com/joshharrison/depweave/internal/logger"
)

type GraphNode struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority int    `json:"priority"`
	// Level is nil for cyclic and isolated tasks.
	Level   *int `json:"level"`
	InCycle bool `json:"in_cycle"`
}

type GraphEdge struct {
	From string     `json:"from"`
	To   string     `json:"to"`
	Kind graph.Kind `json:"kind"`
}

type GraphMetadata struct {
	GeneratedAt string `json:"generated_at"`
	TotalTasks  int    `json:"total_tasks"`
	TotalEdges  int    `json:"total_edges"`
	Depth       int    `json:"depth"`
	Cyclic      int    `json:"cyclic"`
}

// Graph is the document the viewer serves.
type Graph struct {
	Nodes    []GraphNode    `json:"nodes"`
	Edges    []GraphEdge    `json:"edges"`
	Cycles   [][]string     `json:"cycles"`
	Layers   []levels.Layer `json:"layers"`
	Metadata GraphMetadata  `json:"metadata"`
}

// ToGraph analyses snap and converts it into the viewer document. Every
// task appears as a node, including tasks with no edges.
func ToGraph(snap graph.Snapshot) (*Graph, error) {
	a, err := engine.Analyze(snap)
	if err != nil {
		return nil, err
	}

	nodes := make([]GraphNode, 0, len(snap.Tasks))
	for _, t := range snap.Tasks {
		n := GraphNode{
			ID:       t.ID,
			Title:    t.Title,
			Status:   t.Status,
			Priority: t.Priority,
			InCycle:  a.Cycles.Contains(t.ID),
		}
		if lv, ok := a.Levels.Levels[t.ID]; ok {
			n.Level = &lv
		}
		nodes = append(nodes, n)
	}

	canonical := a.Graph.Edges()
	edges := make([]GraphEdge, 0, len(canonical))
	for _, e := range canonical {
		edges = append(edges, GraphEdge{From: e.From, To: e.To, Kind: e.Kind})
	}

	cycles := a.Cycles.Components()
	if cycles == nil {
		cycles = [][]string{}
	}
	layers := a.Levels.Layers()

	return &Graph{
		Nodes:  nodes,
		Edges:  edges,
		Cycles: cycles,
		Layers: layers,
		Metadata: GraphMetadata{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			TotalTasks:  len(nodes),
			TotalEdges:  len(edges),
			Depth:       a.Levels.Depth(),
			Cyclic:      a.Cycles.Len(),
		},
	}, nil
}

// --- HTTP server ---

type server struct {
	mu    sync.RWMutex
	snap  *graph.Snapshot
	graph *Graph
}

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Component("viewer").Error().Err(err).Int("status", status).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error(), Code: graph.CodeOf(err)})
}

func (s *server) handlePostGraph(w http.ResponseWriter, r *http.Request) {
	var snap graph.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err))
		return
	}

	g, err := ToGraph(snap)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	s.mu.Lock()
	s.snap = &snap
	s.graph = g
	s.mu.Unlock()

	logger.Component("viewer").Info().
		Int("tasks", g.Metadata.TotalTasks).
		Int("edges", g.Metadata.TotalEdges).
		Msg("graph loaded")
	writeJSON(w, http.StatusCreated, g)
}

func (s *server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	g := s.graph
	s.mu.RUnlock()

	if g == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph loaded"))
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *server) handleGetChain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.mu.RLock()
	snap := s.snap
	s.mu.RUnlock()

	if snap == nil {
		writeError(w, http.StatusNotFound, errors.New("no graph loaded"))
		return
	}
	ch, err := engine.ResolveChain(*snap, r.URL.Query().Get("root"))
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, graph.ErrUnknownTask) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// NewHandler returns the viewer routes, optionally preloaded with snap.
func NewHandler(snap *graph.Snapshot) (http.Handler, error) {
	srv := &server{}
	if snap != nil {
		g, err := ToGraph(*snap)
		if err != nil {
			return nil, err
		}
		srv.snap = snap
		srv.graph = g
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/graph", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			srv.handlePostGraph(w, r)
		case http.MethodGet:
			srv.handleGetGraph(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/chain", srv.handleGetChain)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("depweave viewer: GET /graph, POST /graph, GET /chain?root=<id>\n"))
	})
	return mux, nil
}

// Start launches the viewer HTTP server on the given port in the background.
// Returns the base URL (e.g. "http://localhost:7171") or an error.
func Start(port int, snap *graph.Snapshot) (string, error) {
	h, err := NewHandler(snap)
	if err != nil {
		return "", err
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return "", fmt.Errorf("listen on port %d: %w", port, err)
	}

	go func() {
		if err := http.Serve(ln, h); err != nil {
			logger.Component("viewer").Error().Err(err).Msg("viewer stopped")
		}
	}()

	return fmt.Sprintf("http://localhost:%d", port), nil
}

// PostSnapshot sends a snapshot to a running viewer server.
func PostSnapshot(addr string, snap graph.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	resp, err := http.Post(addr+"/graph", "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("POST /graph: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("POST /graph returned %d", resp.StatusCode)
	}
	return nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

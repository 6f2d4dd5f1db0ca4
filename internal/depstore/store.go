// Package depstore holds the mutable task set and dependency edges a caller
// edits between engine queries.
//
// Edges live in one canonical list: a blocked_by statement is stored as the
// inverse blocks edge and relates_to puts the lower id first. Mirror views
// are derived on read, so both directions can never drift apart.
package depstore

import (
	"sort"
	"sync"

	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// Adjacency is the per-task view of the store in all three relation kinds.
type Adjacency struct {
	Blocks    []string `json:"blocks"`
	BlockedBy []string `json:"blocked_by"`
	RelatesTo []string `json:"relates_to"`
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	tasks []graph.Task
	ids   map[string]int
	edges []graph.Edge
	index map[graph.Edge]int // canonical edge -> position in edges
}

// New creates a Store over the given task set.
func New(tasks []graph.Task) (*Store, error) {
	s := &Store{
		ids:   make(map[string]int, len(tasks)),
		index: make(map[graph.Edge]int),
	}
	for _, t := range tasks {
		if err := s.addTask(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FromSnapshot creates a Store holding a copy of snap. Every edge goes
// through AddEdge, so a snapshot with structural errors is rejected.
func FromSnapshot(snap graph.Snapshot) (*Store, error) {
	s, err := New(snap.Tasks)
	if err != nil {
		return nil, err
	}
	for _, e := range snap.Edges {
		if err := s.AddEdge(e.From, e.To, e.Kind); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// AddTask registers a task so edges may reference it.
func (s *Store) AddTask(t graph.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addTask(t)
}

func (s *Store) addTask(t graph.Task) error {
	if t.ID == "" {
		return &graph.Error{Kind: graph.ErrInvalidSnapshot, Code: graph.CodeInvalidSnapshot, Msg: "task id is required"}
	}
	if _, dup := s.ids[t.ID]; dup {
		return &graph.Error{Kind: graph.ErrInvalidSnapshot, Code: graph.CodeInvalidSnapshot, TaskID: t.ID, Msg: "duplicate task id " + t.ID}
	}
	s.ids[t.ID] = len(s.tasks)
	s.tasks = append(s.tasks, t)
	return nil
}

// AddEdge records from -[kind]-> to. It fails with graph.ErrInvalidEdge for
// self-loops, unknown kinds and endpoints outside the task set. Cycles are
// accepted: a multi-step edit may pass through a cyclic state.
func (s *Store) AddEdge(from, to string, kind graph.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := graph.Edge{From: from, To: to, Kind: kind}
	if err := s.check(e); err != nil {
		return err
	}

	c := e.Canonical()
	if _, exists := s.index[c]; exists {
		return nil
	}
	s.index[c] = len(s.edges)
	s.edges = append(s.edges, c)

	logger.Component("depstore").Debug().
		Str("from", from).Str("to", to).Str("kind", string(kind)).
		Msg("edge added")
	return nil
}

func (s *Store) check(e graph.Edge) error {
	if !e.Kind.Valid() {
		return graph.InvalidEdgef("unknown kind %q", e.Kind)
	}
	if e.From == e.To {
		return graph.InvalidEdgef("task %q cannot depend on itself", e.From)
	}
	for _, id := range []string{e.From, e.To} {
		if _, ok := s.ids[id]; !ok {
			return graph.InvalidEdgef("endpoint %q is not a known task", id)
		}
	}
	return nil
}

// RemoveEdge deletes the edge equivalent to from -[kind]-> to and reports
// whether one was present.
func (s *Store) RemoveEdge(from, to string, kind graph.Kind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := graph.Edge{From: from, To: to, Kind: kind}.Canonical()
	pos, ok := s.index[c]
	if !ok {
		return false
	}

	last := len(s.edges) - 1
	if pos != last {
		moved := s.edges[last]
		s.edges[pos] = moved
		s.index[moved] = pos
	}
	s.edges = s.edges[:last]
	delete(s.index, c)

	logger.Component("depstore").Debug().
		Str("from", from).Str("to", to).Str("kind", string(kind)).
		Msg("edge removed")
	return true
}

// EdgesOf returns every relation touching id, both directions included.
// Tasks without dependencies, known or not, get empty lists.
func (s *Store) EdgesOf(id string) Adjacency {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adj := Adjacency{
		Blocks:    []string{},
		BlockedBy: []string{},
		RelatesTo: []string{},
	}
	for _, e := range s.edges {
		switch e.Kind {
		case graph.Blocks:
			if e.From == id {
				adj.Blocks = append(adj.Blocks, e.To)
			}
			if e.To == id {
				adj.BlockedBy = append(adj.BlockedBy, e.From)
			}
		case graph.RelatesTo:
			if e.From == id {
				adj.RelatesTo = append(adj.RelatesTo, e.To)
			}
			if e.To == id {
				adj.RelatesTo = append(adj.RelatesTo, e.From)
			}
		}
	}
	sort.Strings(adj.Blocks)
	sort.Strings(adj.BlockedBy)
	sort.Strings(adj.RelatesTo)
	return adj
}

// HasTask reports whether id is in the task set.
func (s *Store) HasTask(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Tasks returns a copy of the task set in insertion order.
func (s *Store) Tasks() []graph.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTasks(s.tasks)
}

// Edges returns the canonical edges ordered by (from, to, kind).
func (s *Store) Edges() []graph.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedEdges(s.edges)
}

// Snapshot captures tasks and edges atomically.
func (s *Store) Snapshot() graph.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return graph.Snapshot{
		Tasks: copyTasks(s.tasks),
		Edges: sortedEdges(s.edges),
	}
}

func copyTasks(in []graph.Task) []graph.Task {
	out := make([]graph.Task, len(in))
	for i, t := range in {
		t.Labels = append([]string(nil), t.Labels...)
		out[i] = t
	}
	return out
}

func sortedEdges(in []graph.Edge) []graph.Edge {
	out := make([]graph.Edge, len(in))
	copy(out, in)
	sort.Slice(out, func(a, b int) bool {
		if out[a].From != out[b].From {
			return out[a].From < out[b].From
		}
		if out[a].To != out[b].To {
			return out[a].To < out[b].To
		}
		return out[a].Kind < out[b].Kind
	})
	return out
}

package depstore

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/joshharrison/depweave/internal/graph"
)

func newStore(t *testing.T, ids ...string) *Store {
	t.Helper()
	tasks := make([]graph.Task, len(ids))
	for i, id := range ids {
		tasks[i] = graph.Task{ID: id, Status: "open"}
	}
	s, err := New(tasks)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestEdgesOf_MirrorView(t *testing.T) {
	s := newStore(t, "a", "b", "c")
	if err := s.AddEdge("a", "b", graph.Blocks); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	if err := s.AddEdge("c", "b", graph.BlockedBy); err != nil {
		t.Fatalf("add edge: %v", err)
	}

	a := s.EdgesOf("a")
	if !reflect.DeepEqual(a.Blocks, []string{"b"}) || len(a.BlockedBy) != 0 {
		t.Errorf("unexpected adjacency for a: %+v", a)
	}
	b := s.EdgesOf("b")
	if !reflect.DeepEqual(b.BlockedBy, []string{"a"}) {
		t.Errorf("expected b blocked_by [a], got %v", b.BlockedBy)
	}
	if !reflect.DeepEqual(b.Blocks, []string{"c"}) {
		t.Errorf("expected b blocks [c], got %v", b.Blocks)
	}
	c := s.EdgesOf("c")
	if !reflect.DeepEqual(c.BlockedBy, []string{"b"}) {
		t.Errorf("expected c blocked_by [b], got %v", c.BlockedBy)
	}
}

func TestEdgesOf_EmptyNotNil(t *testing.T) {
	s := newStore(t, "a")
	for _, id := range []string{"a", "missing"} {
		adj := s.EdgesOf(id)
		if adj.Blocks == nil || adj.BlockedBy == nil || adj.RelatesTo == nil {
			t.Errorf("expected empty lists for %s, got %+v", id, adj)
		}
	}
}

func TestAddEdge_RelatesToSymmetric(t *testing.T) {
	s := newStore(t, "a", "b")
	if err := s.AddEdge("b", "a", graph.RelatesTo); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	if err := s.AddEdge("a", "b", graph.RelatesTo); err != nil {
		t.Fatalf("add edge: %v", err)
	}

	if got := s.EdgesOf("a").RelatesTo; !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected a relates_to [b], got %v", got)
	}
	if got := s.EdgesOf("b").RelatesTo; !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected b relates_to [a], got %v", got)
	}
	if len(s.Edges()) != 1 {
		t.Errorf("expected one stored edge, got %v", s.Edges())
	}
}

func TestAddEdge_Invalid(t *testing.T) {
	s := newStore(t, "a", "b")

	cases := []struct {
		name     string
		from, to string
		kind     graph.Kind
	}{
		{"self loop", "a", "a", graph.Blocks},
		{"unknown target", "a", "z", graph.Blocks},
		{"unknown source", "z", "a", graph.BlockedBy},
		{"unknown kind", "a", "b", graph.Kind("duplicates")},
	}
	for _, tc := range cases {
		err := s.AddEdge(tc.from, tc.to, tc.kind)
		if !errors.Is(err, graph.ErrInvalidEdge) {
			t.Errorf("%s: expected ErrInvalidEdge, got %v", tc.name, err)
		}
	}
	if len(s.Edges()) != 0 {
		t.Errorf("rejected edges must not be stored, got %v", s.Edges())
	}
}

func TestAddEdge_AcceptsCycles(t *testing.T) {
	s := newStore(t, "a", "b")
	if err := s.AddEdge("a", "b", graph.Blocks); err != nil {
		t.Fatalf("add edge: %v", err)
	}
	if err := s.AddEdge("a", "b", graph.BlockedBy); err != nil {
		t.Fatalf("cycle-forming edge should be accepted: %v", err)
	}
	if len(s.Edges()) != 2 {
		t.Errorf("expected 2 edges, got %v", s.Edges())
	}
}

func TestRemoveEdge(t *testing.T) {
	s := newStore(t, "a", "b", "c")
	s.AddEdge("a", "b", graph.Blocks)
	s.AddEdge("b", "c", graph.Blocks)

	// Removing through the mirror statement removes the same edge.
	if !s.RemoveEdge("b", "a", graph.BlockedBy) {
		t.Fatal("expected mirror removal to succeed")
	}
	if s.RemoveEdge("a", "b", graph.Blocks) {
		t.Error("edge should already be gone")
	}
	if got := s.EdgesOf("b").BlockedBy; len(got) != 0 {
		t.Errorf("expected b unblocked, got %v", got)
	}
	if got := s.EdgesOf("b").Blocks; !reflect.DeepEqual(got, []string{"c"}) {
		t.Errorf("remaining edge lost: %v", got)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := newStore(t, "a", "b")
	s.AddEdge("a", "b", graph.Blocks)

	snap := s.Snapshot()
	s.RemoveEdge("a", "b", graph.Blocks)

	if len(snap.Edges) != 1 {
		t.Errorf("snapshot changed after store edit: %v", snap.Edges)
	}
	if len(snap.Tasks) != 2 {
		t.Errorf("expected 2 tasks in snapshot, got %d", len(snap.Tasks))
	}
}

func TestFromSnapshot(t *testing.T) {
	s, err := FromSnapshot(graph.Snapshot{
		Tasks: []graph.Task{{ID: "a"}, {ID: "b"}},
		Edges: []graph.Edge{{From: "b", To: "a", Kind: graph.BlockedBy}},
	})
	if err != nil {
		t.Fatalf("from snapshot: %v", err)
	}
	want := []graph.Edge{{From: "a", To: "b", Kind: graph.Blocks}}
	if got := s.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	_, err = FromSnapshot(graph.Snapshot{
		Tasks: []graph.Task{{ID: "a"}},
		Edges: []graph.Edge{{From: "a", To: "ghost", Kind: graph.Blocks}},
	})
	if !errors.Is(err, graph.ErrInvalidEdge) {
		t.Errorf("expected ErrInvalidEdge, got %v", err)
	}
}

func TestNew_DuplicateTask(t *testing.T) {
	_, err := New([]graph.Task{{ID: "a"}, {ID: "a"}})
	if !errors.Is(err, graph.ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot, got %v", err)
	}
}

func TestConcurrentEdits(t *testing.T) {
	s := newStore(t, "a", "b", "c", "d")
	pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"c", "d"}, {"a", "d"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := pairs[i%len(pairs)]
			s.AddEdge(p[0], p[1], graph.Blocks)
			_ = s.Snapshot()
			_ = s.EdgesOf(p[1])
		}(i)
	}
	wg.Wait()

	if len(s.Edges()) != len(pairs) {
		t.Errorf("expected %d edges, got %v", len(pairs), s.Edges())
	}
}

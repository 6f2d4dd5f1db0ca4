package graph

import (
	"errors"
	"reflect"
	"testing"
)

func tasks(ids ...string) []Task {
	out := make([]Task, len(ids))
	for i, id := range ids {
		out[i] = Task{ID: id, Title: "Task " + id, Status: "open"}
	}
	return out
}

func mustBuild(t *testing.T, snap Snapshot) *DependencyGraph {
	t.Helper()
	g, err := Build(snap)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func TestBuild_SimpleDAG(t *testing.T) {
	// a -> b -> d
	// a -> c -> d
	g := mustBuild(t, Snapshot{
		Tasks: tasks("a", "b", "c", "d"),
		Edges: []Edge{
			{From: "a", To: "b", Kind: Blocks},
			{From: "a", To: "c", Kind: Blocks},
			{From: "d", To: "b", Kind: BlockedBy},
			{From: "d", To: "c", Kind: BlockedBy},
		},
	})

	if g.Len() != 4 {
		t.Errorf("expected 4 nodes, got %d", g.Len())
	}
	if roots := g.Roots(); !reflect.DeepEqual(roots, []string{"a"}) {
		t.Errorf("expected roots=[a], got %v", roots)
	}
	if leaves := g.Leaves(); !reflect.DeepEqual(leaves, []string{"d"}) {
		t.Errorf("expected leaves=[d], got %v", leaves)
	}
	if succ := g.Successors("a"); !reflect.DeepEqual(succ, []string{"b", "c"}) {
		t.Errorf("expected a to block [b c], got %v", succ)
	}
	if pred := g.Predecessors("d"); !reflect.DeepEqual(pred, []string{"b", "c"}) {
		t.Errorf("expected d blocked by [b c], got %v", pred)
	}
}

func TestBuild_MirrorStatementsCollapse(t *testing.T) {
	g := mustBuild(t, Snapshot{
		Tasks: tasks("a", "b"),
		Edges: []Edge{
			{From: "a", To: "b", Kind: Blocks},
			{From: "b", To: "a", Kind: BlockedBy},
		},
	})

	if got := g.Successors("a"); len(got) != 1 {
		t.Errorf("expected a single a -> b edge, got %v", got)
	}
	if got := g.Edges(); len(got) != 1 {
		t.Errorf("expected 1 canonical edge, got %v", got)
	}
}

func TestBuild_IsolatedTasksExcluded(t *testing.T) {
	g := mustBuild(t, Snapshot{
		Tasks: tasks("a", "b", "solo"),
		Edges: []Edge{{From: "a", To: "b", Kind: Blocks}},
	})

	if _, ok := g.Index("solo"); ok {
		t.Error("isolated task should not be a graph node")
	}
	if g.Len() != 2 {
		t.Errorf("expected 2 nodes, got %d", g.Len())
	}
}

func TestBuild_RelatesToIsSymmetric(t *testing.T) {
	g := mustBuild(t, Snapshot{
		Tasks: tasks("a", "b"),
		Edges: []Edge{
			{From: "b", To: "a", Kind: RelatesTo},
			{From: "a", To: "b", Kind: RelatesTo},
		},
	})

	if got := g.Related("a"); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("expected a related to [b], got %v", got)
	}
	if got := g.Related("b"); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("expected b related to [a], got %v", got)
	}
	if len(g.Successors("a")) != 0 || len(g.Successors("b")) != 0 {
		t.Error("relates_to must not create blocking edges")
	}
}

func TestBuild_Empty(t *testing.T) {
	g := mustBuild(t, Snapshot{})
	if g.Len() != 0 {
		t.Errorf("expected 0 nodes, got %d", g.Len())
	}
}

func TestBuild_UnknownEndpoint(t *testing.T) {
	_, err := Build(Snapshot{
		Tasks: tasks("a"),
		Edges: []Edge{{From: "a", To: "z", Kind: Blocks}},
	})
	if !errors.Is(err, ErrUnknownTask) {
		t.Fatalf("expected ErrUnknownTask, got %v", err)
	}
	if CodeOf(err) != CodeUnknownTask {
		t.Errorf("expected code %s, got %q", CodeUnknownTask, CodeOf(err))
	}
}

func TestBuild_SelfLoop(t *testing.T) {
	_, err := Build(Snapshot{
		Tasks: tasks("a"),
		Edges: []Edge{{From: "a", To: "a", Kind: Blocks}},
	})
	if !errors.Is(err, ErrInvalidEdge) {
		t.Fatalf("expected ErrInvalidEdge, got %v", err)
	}
}

func TestBuild_BadKind(t *testing.T) {
	_, err := Build(Snapshot{
		Tasks: tasks("a", "b"),
		Edges: []Edge{{From: "a", To: "b", Kind: "depends"}},
	})
	if !errors.Is(err, ErrInvalidEdge) {
		t.Fatalf("expected ErrInvalidEdge, got %v", err)
	}
}

func TestBuild_DuplicateAndEmptyTaskIDs(t *testing.T) {
	_, err := Build(Snapshot{Tasks: tasks("a", "a")})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot for duplicate id, got %v", err)
	}

	_, err = Build(Snapshot{Tasks: []Task{{Title: "no id"}}})
	if !errors.Is(err, ErrInvalidSnapshot) {
		t.Errorf("expected ErrInvalidSnapshot for empty id, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"blocks":     Blocks,
		"Blocked-By": BlockedBy,
		"blockedby":  BlockedBy,
		"related":    RelatesTo,
		"relates_to": RelatesTo,
	}
	for in, want := range cases {
		got, ok := ParseKind(in)
		if !ok || got != want {
			t.Errorf("ParseKind(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := ParseKind("parent"); ok {
		t.Error("expected parent to be rejected")
	}
	if Blocks.Inverse() != BlockedBy || BlockedBy.Inverse() != Blocks || RelatesTo.Inverse() != RelatesTo {
		t.Error("unexpected Inverse mapping")
	}
}

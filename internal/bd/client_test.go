package bd

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/joshharrison/depweave/internal/graph"
)

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "")
	if c.BdBin != "bd" {
		t.Errorf("expected default bd binary 'bd', got %q", c.BdBin)
	}
	if c.DbPath != "" {
		t.Errorf("expected empty db path, got %q", c.DbPath)
	}
}

func TestBaseArgs_WithDB(t *testing.T) {
	c := NewClient("bd", "/my/db")
	args := c.baseArgs()
	if len(args) != 2 || args[0] != "--db" || args[1] != "/my/db" {
		t.Errorf("expected [--db /my/db], got %v", args)
	}
}

func TestBaseArgs_WithoutDB(t *testing.T) {
	c := NewClient("bd", "")
	if args := c.baseArgs(); len(args) != 0 {
		t.Errorf("expected empty args, got %v", args)
	}
}

func TestParseDepList(t *testing.T) {
	out := []byte(`[
		{"id": "bd-1", "title": "one"},
		{"id": "bd-2", "dependency_type": "related"},
		{"title": "no id"}
	]`)
	refs, err := parseDepList(out)
	if err != nil {
		t.Fatalf("parseDepList: %v", err)
	}
	want := []DepRef{{ID: "bd-1", Type: "blocks"}, {ID: "bd-2", Type: "related"}}
	if !reflect.DeepEqual(refs, want) {
		t.Errorf("expected %v, got %v", want, refs)
	}
}

func TestParseDepList_Invalid(t *testing.T) {
	if _, err := parseDepList([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestAssemble(t *testing.T) {
	raw := []RawTask{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	deps := map[string][]DepRef{
		"b": {{ID: "a", Type: "blocks"}, {ID: "closed-1", Type: "blocks"}},
		"c": {{ID: "b", Type: "blocks"}, {ID: "a", Type: "related"}},
		"a": {{ID: "c", Type: "related"}},
	}
	snap := assemble(raw, deps)

	want := []graph.Edge{
		{From: "a", To: "b", Kind: graph.Blocks},
		{From: "a", To: "c", Kind: graph.RelatesTo},
		{From: "b", To: "c", Kind: graph.Blocks},
	}
	if !reflect.DeepEqual(snap.Edges, want) {
		t.Errorf("expected %v, got %v", want, snap.Edges)
	}
	if len(snap.Tasks) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(snap.Tasks))
	}
}

type recorder struct {
	calls [][]string
	out   map[string]string
}

func (r *recorder) exec(bin string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)
	key := strings.Join(args, " ")
	if out, ok := r.out[key]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("exit status 1")
}

func TestSnapshot(t *testing.T) {
	r := &recorder{out: map[string]string{
		"list --json --limit 0 --status open": `[{"id":"a","title":"A","priority":1},{"id":"b","title":"B"}]`,
		"dep list b --direction=down --json":  `[{"id":"a"}]`,
	}}
	c := NewClient("bd", "")
	c.exec = r.exec

	snap, err := c.Snapshot("open")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Tasks) != 2 || snap.Tasks[0].Title != "A" || snap.Tasks[0].Priority != 1 {
		t.Errorf("unexpected tasks %+v", snap.Tasks)
	}
	want := []graph.Edge{{From: "a", To: "b", Kind: graph.Blocks}}
	if !reflect.DeepEqual(snap.Edges, want) {
		t.Errorf("expected %v, got %v", want, snap.Edges)
	}
}

func TestApplyAndDeleteEdge(t *testing.T) {
	r := &recorder{out: map[string]string{
		"--db /db dep add b a":                "",
		"--db /db dep add a c --type related": "",
		"--db /db dep remove b a":             "",
	}}
	c := NewClient("bd", "/db")
	c.exec = r.exec

	if err := c.ApplyEdge(graph.Edge{From: "b", To: "a", Kind: graph.BlockedBy}); err != nil {
		t.Fatalf("ApplyEdge blocked_by: %v", err)
	}
	if err := c.ApplyEdge(graph.Edge{From: "c", To: "a", Kind: graph.RelatesTo}); err != nil {
		t.Fatalf("ApplyEdge relates_to: %v", err)
	}
	if err := c.DeleteEdge(graph.Edge{From: "a", To: "b", Kind: graph.Blocks}); err != nil {
		t.Fatalf("DeleteEdge: %v", err)
	}
	if len(r.calls) != 3 {
		t.Errorf("expected 3 bd calls, got %d", len(r.calls))
	}
}

func TestRun_ErrorIncludesOutput(t *testing.T) {
	c := NewClient("bd", "")
	c.exec = func(string, ...string) ([]byte, error) {
		return []byte("no such issue"), errors.New("exit status 1")
	}
	_, err := c.List("")
	if err == nil || !strings.Contains(err.Error(), "no such issue") {
		t.Errorf("expected error with bd output, got %v", err)
	}
}

package graph

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/joshharrison/depweave/internal/logger"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks snap for structural problems and returns its task id set.
// Duplicate or empty task ids are invalid snapshots; self-loops and unknown
// kinds are invalid edges; edges naming a missing task are unknown tasks.
func Validate(snap Snapshot) (map[string]struct{}, error) {
	if err := getValidator().Struct(snap); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if strings.Contains(fe.Namespace(), ".edges[") {
				return nil, InvalidEdgef("%s failed %q", fe.Namespace(), fe.Tag())
			}
			return nil, invalidSnapshotf("%s failed %q", fe.Namespace(), fe.Tag())
		}
		return nil, invalidSnapshotf("%v", err)
	}

	ids := make(map[string]struct{}, len(snap.Tasks))
	for _, t := range snap.Tasks {
		if _, dup := ids[t.ID]; dup {
			return nil, invalidSnapshotf("duplicate task id %q", t.ID)
		}
		ids[t.ID] = struct{}{}
	}

	for _, e := range snap.Edges {
		if err := CheckEdge(ids, e); err != nil {
			return nil, err
		}
	}
	return ids, nil
}

// CheckEdge applies the structural edge rules against a task id set.
func CheckEdge(ids map[string]struct{}, e Edge) error {
	if !e.Kind.Valid() {
		return InvalidEdgef("unknown kind %q on %s -> %s", e.Kind, e.From, e.To)
	}
	if e.From == e.To {
		return InvalidEdgef("self-loop on %q", e.From)
	}
	if _, ok := ids[e.From]; !ok {
		return UnknownTask(e.From)
	}
	if _, ok := ids[e.To]; !ok {
		return UnknownTask(e.To)
	}
	return nil
}

// Build validates snap and constructs a fresh DependencyGraph from it.
func Build(snap Snapshot) (*DependencyGraph, error) {
	if _, err := Validate(snap); err != nil {
		return nil, err
	}
	g := FromEdges(snap.Edges)
	logger.Component("graph").Debug().
		Int("tasks", len(snap.Tasks)).
		Int("edges", len(snap.Edges)).
		Int("nodes", g.Len()).
		Msg("built dependency graph")
	return g, nil
}

// FromEdges builds the graph without validation. Both directions of every
// blocking statement feed the same adjacency, so "A blocks B" and
// "B blocked_by A" collapse into a single edge.
func FromEdges(edges []Edge) *DependencyGraph {
	seen := make(map[Edge]bool, len(edges))
	canon := make([]Edge, 0, len(edges))
	nodeSet := make(map[string]struct{})
	for _, e := range edges {
		c := e.Canonical()
		if c.From == c.To || seen[c] {
			continue
		}
		seen[c] = true
		canon = append(canon, c)
		nodeSet[c.From] = struct{}{}
		nodeSet[c.To] = struct{}{}
	}

	g := &DependencyGraph{
		ids:   make([]string, 0, len(nodeSet)),
		index: make(map[string]int, len(nodeSet)),
	}
	for id := range nodeSet {
		g.ids = append(g.ids, id)
	}
	sort.Strings(g.ids)
	for i, id := range g.ids {
		g.index[id] = i
	}

	n := len(g.ids)
	g.succ = make([][]int, n)
	g.pred = make([][]int, n)
	g.rel = make([][]int, n)
	for _, e := range canon {
		from, to := g.index[e.From], g.index[e.To]
		switch e.Kind {
		case Blocks:
			g.succ[from] = append(g.succ[from], to)
			g.pred[to] = append(g.pred[to], from)
		case RelatesTo:
			g.rel[from] = append(g.rel[from], to)
			g.rel[to] = append(g.rel[to], from)
		}
	}

	// Sort adjacency lists for deterministic ordering
	for i := 0; i < n; i++ {
		sort.Ints(g.succ[i])
		sort.Ints(g.pred[i])
		g.rel[i] = dedupSorted(g.rel[i])
	}
	return g
}

func dedupSorted(xs []int) []int {
	sort.Ints(xs)
	out := xs[:0]
	for i, x := range xs {
		if i > 0 && x == xs[i-1] {
			continue
		}
		out = append(out, x)
	}
	return out
}

// Len returns the number of nodes (tasks with at least one edge).
func (g *DependencyGraph) Len() int { return len(g.ids) }

// Index returns the node index of id.
func (g *DependencyGraph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// ID returns the task id of node i.
func (g *DependencyGraph) ID(i int) string { return g.ids[i] }

// Succ returns the nodes i blocks. The slice must not be modified.
func (g *DependencyGraph) Succ(i int) []int { return g.succ[i] }

// Pred returns the nodes blocking i. The slice must not be modified.
func (g *DependencyGraph) Pred(i int) []int { return g.pred[i] }

// Successors returns the ids id blocks.
func (g *DependencyGraph) Successors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.succ[i])
}

// Predecessors returns the ids blocking id.
func (g *DependencyGraph) Predecessors(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.pred[i])
}

// Related returns the ids sharing a relates_to edge with id.
func (g *DependencyGraph) Related(id string) []string {
	i, ok := g.index[id]
	if !ok {
		return nil
	}
	return g.names(g.rel[i])
}

// Roots returns nodes without blockers.
func (g *DependencyGraph) Roots() []string {
	var out []string
	for i, p := range g.pred {
		if len(p) == 0 {
			out = append(out, g.ids[i])
		}
	}
	return out
}

// Leaves returns nodes that block nothing.
func (g *DependencyGraph) Leaves() []string {
	var out []string
	for i, s := range g.succ {
		if len(s) == 0 {
			out = append(out, g.ids[i])
		}
	}
	return out
}

// Edges returns the canonical edge list ordered by (from, to, kind).
func (g *DependencyGraph) Edges() []Edge {
	var out []Edge
	for i := range g.ids {
		for _, j := range g.succ[i] {
			out = append(out, Edge{From: g.ids[i], To: g.ids[j], Kind: Blocks})
		}
		for _, j := range g.rel[i] {
			if i < j {
				out = append(out, Edge{From: g.ids[i], To: g.ids[j], Kind: RelatesTo})
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
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

func (g *DependencyGraph) names(idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.ids[i]
	}
	return out
}

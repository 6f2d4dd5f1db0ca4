// Package engine is the query façade over the dependency graph
// algorithms. Every function is a pure computation over the snapshot it is
// given: nothing is cached between calls and nothing is mutated, so calls
// may run concurrently against the same snapshot.
package engine

import (
	"github.com/joshharrison/depweave/internal/chain"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/levels"
	"github.com/joshharrison/depweave/internal/logger"
)

// CycleReport describes every blocking cycle in a snapshot.
type CycleReport struct {
	CycleSet   graph.CycleSet `json:"cycle_set"`
	Components [][]string     `json:"components"`
	// Loops holds one closed walk per component, first task repeated last.
	Loops [][]string `json:"loops"`
}

// Analysis bundles the results the renderers need in one pass.
type Analysis struct {
	Graph  *graph.DependencyGraph
	Cycles graph.CycleSet
	Levels levels.Assignment
}

// DetectCycles reports the tasks lying on at least one blocking cycle.
func DetectCycles(snap graph.Snapshot) (CycleReport, error) {
	g, err := graph.Build(snap)
	if err != nil {
		return CycleReport{}, err
	}
	cs := graph.DetectCycles(g)
	comps := cs.Components()
	loops := make([][]string, 0, len(comps))
	for _, comp := range comps {
		loops = append(loops, loopThrough(g, cs, comp[0]))
	}
	logger.Component("engine").Debug().Int("cyclic", cs.Len()).Msg("cycles detected")
	return CycleReport{CycleSet: cs, Components: comps, Loops: loops}, nil
}

// loopThrough returns the shortest blocking loop from id back to itself.
// id must be cyclic; every path back stays inside its component.
func loopThrough(g *graph.DependencyGraph, cs graph.CycleSet, id string) []string {
	comp := cs.Component(id)
	member := make(map[string]bool, len(comp))
	for _, m := range comp {
		member[m] = true
	}
	var best []string
	for _, next := range g.Successors(id) {
		if !member[next] {
			continue
		}
		back := graph.PathBetween(g, next, id)
		if back != nil && (best == nil || len(back)+1 < len(best)) {
			best = append([]string{id}, back...)
		}
	}
	return best
}

// ResolveChain returns the dependency chain of rootID. It fails with
// graph.ErrUnknownTask when rootID is not in snap.Tasks.
func ResolveChain(snap graph.Snapshot, rootID string) (chain.DependencyChain, error) {
	ids, err := graph.Validate(snap)
	if err != nil {
		return chain.DependencyChain{}, err
	}
	if _, ok := ids[rootID]; !ok {
		return chain.DependencyChain{}, graph.UnknownTask(rootID)
	}
	g := graph.FromEdges(snap.Edges)
	return chain.Resolve(g, graph.DetectCycles(g), rootID), nil
}

// AssignLevels returns the level of every acyclic task that has at least
// one edge, with cyclic tasks reported as unassignable.
func AssignLevels(snap graph.Snapshot) (levels.Assignment, error) {
	g, err := graph.Build(snap)
	if err != nil {
		return levels.Assignment{}, err
	}
	return levels.Assign(g, graph.DetectCycles(g)), nil
}

// Analyze builds the graph once and runs cycle detection and level
// assignment over it.
func Analyze(snap graph.Snapshot) (*Analysis, error) {
	g, err := graph.Build(snap)
	if err != nil {
		return nil, err
	}
	cs := graph.DetectCycles(g)
	return &Analysis{
		Graph:  g,
		Cycles: cs,
		Levels: levels.Assign(g, cs),
	}, nil
}

package levels

import (
	"sort"

	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// Assign gives every acyclic node level 0 when nothing acyclic blocks it,
// otherwise 1 + the highest level among its acyclic blockers. cycles must
// come from graph.DetectCycles on g.
func Assign(g *graph.DependencyGraph, cycles graph.CycleSet) Assignment {
	n := g.Len()
	cyclic := make([]bool, n)
	for _, id := range cycles.IDs() {
		if i, ok := g.Index(id); ok {
			cyclic[i] = true
		}
	}

	order := topoSort(g, cyclic)

	result := Assignment{
		Levels:       make(map[string]int, len(order)),
		Unassignable: cycles.IDs(),
		TopoOrder:    make([]string, 0, len(order)),
	}

	// Forward pass: level = 1 + max(level of blockers)
	level := make([]int, n)
	for _, v := range order {
		lv := 0
		for _, p := range g.Pred(v) {
			if cyclic[p] {
				continue
			}
			if level[p]+1 > lv {
				lv = level[p] + 1
			}
		}
		level[v] = lv
		result.Levels[g.ID(v)] = lv
		result.TopoOrder = append(result.TopoOrder, g.ID(v))
	}

	logger.Component("levels").Debug().
		Int("assigned", len(result.Levels)).
		Int("unassignable", len(result.Unassignable)).
		Msg("levels assigned")
	return result
}

// topoSort performs Kahn's algorithm over the acyclic nodes, ignoring
// edges that touch a cyclic node. The ready queue is kept sorted by index
// (id order) for determinism.
func topoSort(g *graph.DependencyGraph, cyclic []bool) []int {
	n := g.Len()
	inDegree := make([]int, n)
	for v := 0; v < n; v++ {
		if cyclic[v] {
			continue
		}
		for _, p := range g.Pred(v) {
			if !cyclic[p] {
				inDegree[v]++
			}
		}
	}

	var queue []int
	for v := 0; v < n; v++ {
		if !cyclic[v] && inDegree[v] == 0 {
			queue = append(queue, v)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []int
		for _, succ := range g.Succ(node) {
			if cyclic[succ] {
				continue
			}
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.Ints(newReady)
		queue = append(queue, newReady...)
	}
	return order
}

// Layers groups the assigned tasks by level, ascending, ids sorted
// within each layer.
func (a Assignment) Layers() []Layer {
	groups := make(map[int][]string)
	for id, lv := range a.Levels {
		groups[lv] = append(groups[lv], id)
	}

	indices := make([]int, 0, len(groups))
	for lv := range groups {
		indices = append(indices, lv)
	}
	sort.Ints(indices)

	layers := make([]Layer, len(indices))
	for i, lv := range indices {
		ids := groups[lv]
		sort.Strings(ids)
		layers[i] = Layer{Index: lv, TaskIDs: ids}
	}
	return layers
}

// Depth returns the number of layers.
func (a Assignment) Depth() int {
	max := -1
	for _, lv := range a.Levels {
		if lv > max {
			max = lv
		}
	}
	return max + 1
}

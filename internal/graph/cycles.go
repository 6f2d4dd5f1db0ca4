package graph

import (
	"encoding/json"
	"sort"
)

// CycleSet holds every task id that lies on at least one cycle of
// blocking edges, together with the cyclic components themselves.
type CycleSet struct {
	ids   []string
	comps [][]string
	comp  map[string]int
}

// Contains reports whether id is on a blocking cycle.
func (c CycleSet) Contains(id string) bool {
	_, ok := c.comp[id]
	return ok
}

// IDs returns the members in ascending order.
func (c CycleSet) IDs() []string {
	out := make([]string, len(c.ids))
	copy(out, c.ids)
	return out
}

// Len returns the number of cyclic tasks.
func (c CycleSet) Len() int { return len(c.ids) }

// Empty reports whether the graph is acyclic.
func (c CycleSet) Empty() bool { return len(c.ids) == 0 }

// Components returns the cyclic components, each sorted, ordered by first id.
func (c CycleSet) Components() [][]string {
	out := make([][]string, len(c.comps))
	for i, comp := range c.comps {
		out[i] = append([]string(nil), comp...)
	}
	return out
}

// Component returns the cyclic component containing id, or nil.
func (c CycleSet) Component(id string) []string {
	i, ok := c.comp[id]
	if !ok {
		return nil
	}
	return append([]string(nil), c.comps[i]...)
}

// MarshalJSON encodes the set as a sorted id list.
func (c CycleSet) MarshalJSON() ([]byte, error) {
	ids := c.ids
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(ids)
}

// DetectCycles returns the set of nodes on any blocking cycle.
//
// The scan is a depth-first search with an explicit stack and three
// visitation states (unvisited, on stack, done). Alongside the colours it
// keeps discovery/lowlink numbers, so every node of a strongly connected
// component with more than one member is reported, not only the nodes on
// the first back edge found. It restarts from every unvisited node, making
// the result independent of visitation order. O(V+E).
func DetectCycles(g *DependencyGraph) CycleSet {
	const (
		unvisited = iota
		onStack
		done
	)

	n := g.Len()
	state := make([]int8, n)
	disc := make([]int, n)
	low := make([]int, n)
	var stack []int
	var comps [][]int

	type frame struct {
		node int
		next int
	}

	counter := 0
	for root := 0; root < n; root++ {
		if state[root] != unvisited {
			continue
		}

		disc[root], low[root] = counter, counter
		counter++
		state[root] = onStack
		stack = append(stack, root)
		call := []frame{{node: root}}

		for len(call) > 0 {
			top := &call[len(call)-1]
			u := top.node

			if top.next < len(g.succ[u]) {
				v := g.succ[u][top.next]
				top.next++
				switch state[v] {
				case unvisited:
					disc[v], low[v] = counter, counter
					counter++
					state[v] = onStack
					stack = append(stack, v)
					call = append(call, frame{node: v})
				case onStack:
					if disc[v] < low[u] {
						low[u] = disc[v]
					}
				}
				continue
			}

			call = call[:len(call)-1]
			if len(call) > 0 {
				p := call[len(call)-1].node
				if low[u] < low[p] {
					low[p] = low[u]
				}
			}

			if low[u] != disc[u] {
				continue
			}
			var comp []int
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				state[w] = done
				comp = append(comp, w)
				if w == u {
					break
				}
			}
			if len(comp) > 1 {
				sort.Ints(comp)
				comps = append(comps, comp)
			}
		}
	}

	sort.Slice(comps, func(a, b int) bool { return comps[a][0] < comps[b][0] })

	cs := CycleSet{comp: make(map[string]int)}
	for ci, comp := range comps {
		names := g.names(comp)
		cs.comps = append(cs.comps, names)
		for _, id := range names {
			cs.comp[id] = ci
			cs.ids = append(cs.ids, id)
		}
	}
	sort.Strings(cs.ids)
	return cs
}

// PathBetween returns the shortest chain of blocking edges from -> ... -> to,
// preferring lower ids at each step. It returns nil when no path exists.
func PathBetween(g *DependencyGraph, from, to string) []string {
	src, ok := g.Index(from)
	if !ok {
		return nil
	}
	dst, ok := g.Index(to)
	if !ok {
		return nil
	}
	if src == dst {
		return []string{from}
	}

	parent := make([]int, g.Len())
	for i := range parent {
		parent[i] = -1
	}
	parent[src] = src
	queue := []int{src}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range g.succ[u] {
			if parent[v] != -1 {
				continue
			}
			parent[v] = u
			if v == dst {
				var rev []int
				for cur := dst; cur != src; cur = parent[cur] {
					rev = append(rev, cur)
				}
				rev = append(rev, src)
				path := make([]string, len(rev))
				for i, idx := range rev {
					path[len(rev)-1-i] = g.ids[idx]
				}
				return path
			}
			queue = append(queue, v)
		}
	}
	return nil
}

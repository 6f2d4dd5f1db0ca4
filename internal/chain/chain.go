package chain

import (
	"sort"

	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// Resolve builds the dependency chain of root. cycles must come from
// graph.DetectCycles on the same graph. A root without edges yields a
// chain holding only itself; checking that root exists in the task set
// is the caller's job.
func Resolve(g *graph.DependencyGraph, cycles graph.CycleSet, root string) DependencyChain {
	result := DependencyChain{
		Root:         root,
		Upstream:     []string{},
		Downstream:   []string{},
		CriticalPath: []string{root},
	}

	r, ok := g.Index(root)
	if !ok {
		return result
	}

	cyclic := make([]bool, g.Len())
	for _, id := range cycles.IDs() {
		if i, ok := g.Index(id); ok {
			cyclic[i] = true
		}
	}

	up := reach(g, r, g.Pred)
	down := reach(g, r, g.Succ)
	result.Upstream = names(g, up)
	result.Downstream = names(g, down)

	var before, after []int
	if cyclic[r] {
		inComp := make([]bool, g.Len())
		for _, id := range cycles.Component(root) {
			i, _ := g.Index(id)
			inComp[i] = true
		}
		used := map[int]bool{r: true}
		after = walk(r, g.Succ, inComp, used)
		before = walk(r, g.Pred, inComp, used)
	} else {
		before = longest(g, r, g.Pred, cyclic)
		after = longest(g, r, g.Succ, cyclic)
	}

	path := make([]string, 0, len(before)+1+len(after))
	for i := len(before) - 1; i >= 0; i-- {
		path = append(path, g.ID(before[i]))
	}
	path = append(path, root)
	for _, i := range after {
		path = append(path, g.ID(i))
	}
	result.CriticalPath = path
	result.MaxDepth = len(path) - 1

	seen := map[int]bool{}
	for _, set := range [][]int{{r}, up, down} {
		for _, i := range set {
			if cyclic[i] && !seen[i] {
				seen[i] = true
				result.CyclicNodes = append(result.CyclicNodes, g.ID(i))
			}
		}
	}
	sort.Strings(result.CyclicNodes)
	result.Indeterminate = len(result.CyclicNodes) > 0

	logger.Component("chain").Debug().
		Str("root", root).
		Int("upstream", len(up)).
		Int("downstream", len(down)).
		Int("max_depth", result.MaxDepth).
		Bool("indeterminate", result.Indeterminate).
		Msg("chain resolved")
	return result
}

// reach runs a visited-guarded BFS from start along next, excluding start.
func reach(g *graph.DependencyGraph, start int, next func(int) []int) []int {
	visited := make([]bool, g.Len())
	visited[start] = true
	queue := []int{start}
	var out []int
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range next(u) {
			if visited[v] {
				continue
			}
			visited[v] = true
			out = append(out, v)
			queue = append(queue, v)
		}
	}
	return out
}

// longest returns the longest chain leaving start along next, start
// excluded. Ties go to the lowest id, which is the lowest index because
// node indices follow id order. A cyclic node ends the chain.
//
// Memoised DP in post-order with an explicit stack. Restricted to acyclic
// nodes the graph is a DAG, so every node opens and closes once.
func longest(g *graph.DependencyGraph, start int, next func(int) []int, cyclic []bool) []int {
	const (
		unseen = iota
		open
		closed
	)

	n := g.Len()
	state := make([]uint8, n)
	best := make([]int, n)
	choice := make([]int, n)

	stack := []int{start}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		if state[v] == unseen {
			state[v] = open
			for _, w := range next(v) {
				if !cyclic[w] && state[w] == unseen {
					stack = append(stack, w)
				}
			}
			continue
		}

		stack = stack[:len(stack)-1]
		if state[v] == closed {
			continue
		}
		state[v] = closed
		best[v], choice[v] = 0, -1
		for _, w := range next(v) {
			l := 1
			if !cyclic[w] {
				l += best[w]
			}
			if l > best[v] {
				best[v], choice[v] = l, w
			}
		}
	}

	var path []int
	for cur := choice[start]; cur != -1; cur = choice[cur] {
		path = append(path, cur)
		if cyclic[cur] {
			break
		}
	}
	return path
}

// walk follows the lowest unused neighbour inside one cyclic component
// until it runs out, so the result never repeats a task.
func walk(start int, next func(int) []int, inComp []bool, used map[int]bool) []int {
	var path []int
	cur := start
	for {
		step := -1
		for _, w := range next(cur) {
			if inComp[w] && !used[w] {
				step = w
				break
			}
		}
		if step == -1 {
			return path
		}
		used[step] = true
		path = append(path, step)
		cur = step
	}
}

func names(g *graph.DependencyGraph, idx []int) []string {
	out := make([]string, len(idx))
	for k, i := range idx {
		out[k] = g.ID(i)
	}
	return out
}

package chain

// DependencyChain is everything reachable from a root task along blocking
// edges, plus the longest blocking chain through it.
type DependencyChain struct {
	Root         string   `json:"root"`
	Upstream     []string `json:"upstream"`   // reachable via blocked_by, nearest first
	Downstream   []string `json:"downstream"` // reachable via blocks, nearest first
	CriticalPath []string `json:"critical_path"`
	MaxDepth     int      `json:"max_depth"` // edge count of CriticalPath

	// Indeterminate is set when the chain touches a cycle. The critical
	// path then stops at the first cyclic task it meets, or, for a cyclic
	// root, walks the root's cycle without repeating a task.
	Indeterminate bool     `json:"indeterminate"`
	CyclicNodes   []string `json:"cyclic_nodes,omitempty"`
}

package graph

import "strings"

// Task is a node in the dependency graph. Only ID is used by the
// algorithms; the remaining fields pass through to rendered output.
type Task struct {
	ID       string   `json:"id" validate:"required"`
	Title    string   `json:"title,omitempty"`
	Status   string   `json:"status,omitempty"`
	Priority int      `json:"priority"`
	Labels   []string `json:"labels,omitempty"`
}

// Kind is the relation an edge expresses between two tasks.
type Kind string

const (
	Blocks    Kind = "blocks"
	BlockedBy Kind = "blocked_by"
	RelatesTo Kind = "relates_to"
)

// ParseKind accepts the canonical names plus a few spellings the CLI
// and LLM output tend to use.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocks", "block":
		return Blocks, true
	case "blocked_by", "blockedby", "blocked-by":
		return BlockedBy, true
	case "relates_to", "relatesto", "relates-to", "related":
		return RelatesTo, true
	}
	return "", false
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return k == Blocks || k == BlockedBy || k == RelatesTo
}

// Inverse returns the kind of the mirror edge.
func (k Kind) Inverse() Kind {
	switch k {
	case Blocks:
		return BlockedBy
	case BlockedBy:
		return Blocks
	}
	return k
}

// Edge is a directed relation From -[Kind]-> To.
type Edge struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
	Kind Kind   `json:"kind" validate:"required,oneof=blocks blocked_by relates_to"`
}

// Canonical rewrites e so equivalent statements compare equal:
// BlockedBy becomes the inverse Blocks, RelatesTo puts the lower id first.
func (e Edge) Canonical() Edge {
	switch e.Kind {
	case BlockedBy:
		return Edge{From: e.To, To: e.From, Kind: Blocks}
	case RelatesTo:
		if e.To < e.From {
			return Edge{From: e.To, To: e.From, Kind: RelatesTo}
		}
	}
	return e
}

// Snapshot is the consistent task and edge set a caller hands to the engine.
type Snapshot struct {
	Tasks []Task `json:"tasks" validate:"dive"`
	Edges []Edge `json:"edges" validate:"dive"`
}

// DependencyGraph is the per-query working structure. Nodes are the task
// ids that carry at least one edge, sorted ascending and addressed by index.
type DependencyGraph struct {
	ids   []string
	index map[string]int

	succ [][]int // i blocks succ[i]
	pred [][]int // pred[i] block i
	rel  [][]int // symmetric relates_to
}

package levels

// Assignment maps each acyclic graph node to its topological level.
// Tasks on a cycle have no consistent level and are listed in
// Unassignable instead.
type Assignment struct {
	Levels       map[string]int `json:"levels"`
	Unassignable []string       `json:"unassignable"`
	TopoOrder    []string       `json:"topo_order"`
}

// Layer is a group of tasks sharing a level.
type Layer struct {
	Index   int      `json:"index"`
	TaskIDs []string `json:"task_ids"`
}

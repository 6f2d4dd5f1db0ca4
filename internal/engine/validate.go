package engine

import (
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// Verdict is the outcome of a structurally valid edge proposal.
type Verdict struct {
	Edge graph.Edge `json:"edge"`
	// Duplicate is set when an equivalent edge is already present.
	Duplicate bool `json:"duplicate"`
	// CycleChecked is false when the advisory cycle check was skipped.
	CycleChecked bool `json:"cycle_checked"`
	// WouldCycle is advisory: committing the edge would create a cycle.
	WouldCycle bool `json:"would_cycle"`
	// CyclePath is the loop the edge would close, first task repeated last.
	CyclePath []string `json:"cycle_path,omitempty"`
}

type validateOptions struct {
	cycleCheck bool
}

// ValidateOption configures ValidateNewEdge.
type ValidateOption func(*validateOptions)

// WithCycleCheck turns the advisory cycle check on or off. It is on by default.
func WithCycleCheck(on bool) ValidateOption {
	return func(o *validateOptions) { o.cycleCheck = on }
}

// ValidateNewEdge checks a proposed edge against snap without changing
// anything. Self-loops, unknown kinds and endpoints missing from the task
// set fail with graph.ErrInvalidEdge.
func ValidateNewEdge(snap graph.Snapshot, from, to string, kind graph.Kind, opts ...ValidateOption) (Verdict, error) {
	o := validateOptions{cycleCheck: true}
	for _, opt := range opts {
		opt(&o)
	}

	ids, err := graph.Validate(snap)
	if err != nil {
		return Verdict{}, err
	}

	e := graph.Edge{From: from, To: to, Kind: kind}
	if !kind.Valid() {
		return Verdict{}, graph.InvalidEdgef("unknown kind %q", kind)
	}
	if from == to {
		return Verdict{}, graph.InvalidEdgef("task %q cannot depend on itself", from)
	}
	for _, id := range []string{from, to} {
		if _, ok := ids[id]; !ok {
			return Verdict{}, graph.InvalidEdgef("endpoint %q is not a known task", id)
		}
	}

	v := Verdict{Edge: e}
	c := e.Canonical()
	for _, existing := range snap.Edges {
		if existing.Canonical() == c {
			v.Duplicate = true
			break
		}
	}

	if o.cycleCheck {
		v.CycleChecked = true
		if c.Kind == graph.Blocks && !v.Duplicate {
			g := graph.FromEdges(snap.Edges)
			// c.From -> c.To closes a loop iff c.To already reaches c.From.
			if back := graph.PathBetween(g, c.To, c.From); back != nil {
				v.WouldCycle = true
				v.CyclePath = append([]string{c.From}, back...)
			}
		}
	}

	logger.Component("engine").Debug().
		Str("from", from).Str("to", to).Str("kind", string(kind)).
		Bool("duplicate", v.Duplicate).
		Bool("would_cycle", v.WouldCycle).
		Msg("edge validated")
	return v, nil
}

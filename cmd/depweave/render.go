package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/joshharrison/depweave/internal/chain"
	"github.com/joshharrison/depweave/internal/depstore"
	"github.com/joshharrison/depweave/internal/engine"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/levels"
	"github.com/joshharrison/depweave/internal/ui"
)

func formatEdge(e graph.Edge) string {
	return fmt.Sprintf("%s %s %s", ui.BoldMagenta(e.From), ui.Dim(string(e.Kind)), ui.BoldMagenta(e.To))
}

func orNone(ids []string) string {
	if len(ids) == 0 {
		return ui.Dim("none")
	}
	return strings.Join(ids, ", ")
}

func printCycles(w io.Writer, report engine.CycleReport) {
	if report.CycleSet.Empty() {
		fmt.Fprintf(w, "✅ %s\n", ui.Green("No blocking cycles"))
		return
	}
	fmt.Fprintf(w, "⟳ %s tasks on %s blocking cycles\n\n",
		ui.BoldRed(report.CycleSet.Len()), ui.BoldRed(len(report.Components)))
	for i, comp := range report.Components {
		fmt.Fprintf(w, "  %s %s\n", ui.Bold(fmt.Sprintf("#%d", i+1)), strings.Join(comp, ", "))
		if i < len(report.Loops) && len(report.Loops[i]) > 0 {
			fmt.Fprintf(w, "     %s %s\n", ui.Dim("e.g."), ui.Path(report.Loops[i]))
		}
	}
}

func printChain(w io.Writer, ch chain.DependencyChain) {
	fmt.Fprintf(w, "🔗 %s %s\n", ui.BoldCyan("Dependency chain of"), ui.BoldMagenta(ch.Root))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════════"))
	fmt.Fprintf(w, "Upstream:   %s\n", orNone(ch.Upstream))
	fmt.Fprintf(w, "Downstream: %s\n", orNone(ch.Downstream))
	fmt.Fprintf(w, "⚡ Critical path: %s (depth %d)\n", ui.BoldYellow(ui.Path(ch.CriticalPath)), ch.MaxDepth)
	if ch.Indeterminate {
		fmt.Fprintf(w, "%s chain reaches a cycle through %s; depth is a lower bound\n",
			ui.BoldYellow("⚠️ "), strings.Join(ch.CyclicNodes, ", "))
	}
}

func taskTitles(snap graph.Snapshot) map[string]graph.Task {
	byID := make(map[string]graph.Task, len(snap.Tasks))
	for _, t := range snap.Tasks {
		byID[t.ID] = t
	}
	return byID
}

func printLevels(w io.Writer, snap graph.Snapshot, a levels.Assignment) {
	tasks := taskTitles(snap)
	fmt.Fprintf(w, "📊 %s\n", ui.BoldCyan("Task Levels"))
	fmt.Fprintln(w, ui.Cyan("═══════════"))
	fmt.Fprintln(w)

	for _, layer := range a.Layers() {
		depStr := ui.Dim("independent")
		if layer.Index > 0 {
			depStr = ui.Dim(fmt.Sprintf("after level %d", layer.Index-1))
		}
		fmt.Fprintf(w, "%s (%d tasks, %s):\n", ui.LevelLabel(layer.Index), len(layer.TaskIDs), depStr)
		for _, id := range layer.TaskIDs {
			t := tasks[id]
			fmt.Fprintf(w, "  %s %s  %s\n", ui.StatusIcon(t.Status), ui.BoldMagenta(id), t.Title)
		}
		fmt.Fprintln(w)
	}

	if len(a.Unassignable) > 0 {
		fmt.Fprintf(w, "%s %s:\n", ui.CycleMark(true), ui.BoldRed("Unassignable (on a cycle)"))
		for _, id := range a.Unassignable {
			fmt.Fprintf(w, "  %s  %s\n", ui.BoldMagenta(id), tasks[id].Title)
		}
	}
}

func printAdjacency(w io.Writer, id string, adj depstore.Adjacency) {
	fmt.Fprintf(w, "%s\n", ui.BoldMagenta(id))
	fmt.Fprintf(w, "  blocks:     %s\n", orNone(adj.Blocks))
	fmt.Fprintf(w, "  blocked_by: %s\n", orNone(adj.BlockedBy))
	fmt.Fprintf(w, "  relates_to: %s\n", orNone(adj.RelatesTo))
}

func printVerdict(w io.Writer, v engine.Verdict) {
	fmt.Fprintf(w, "%s  %s\n", formatEdge(v.Edge), ui.Verdict(v.Duplicate, v.WouldCycle))
	if v.WouldCycle {
		fmt.Fprintf(w, "  %s %s\n", ui.Dim("closes"), ui.Path(v.CyclePath))
	}
	if !v.CycleChecked {
		fmt.Fprintf(w, "  %s\n", ui.Dim("cycle check disabled"))
	}
}

// printASCII draws the graph level by level with each task's blocked
// successors underneath it.
func printASCII(w io.Writer, snap graph.Snapshot, a *engine.Analysis) {
	tasks := taskTitles(snap)
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Task Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("═══════════════════════"))
	fmt.Fprintln(w)

	printTask := func(id string) {
		fmt.Fprintf(w, "  %s [%s] %s\n", ui.CycleMark(a.Cycles.Contains(id)), ui.BoldMagenta(id), tasks[id].Title)
		for _, next := range a.Graph.Successors(id) {
			fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), ui.Magenta(next))
		}
		for _, rel := range a.Graph.Related(id) {
			if rel > id {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("╌╌╌"), ui.Dim(rel))
			}
		}
	}

	for _, layer := range a.Levels.Layers() {
		fmt.Fprintf(w, "%s %s %s\n", ui.Cyan("──"), ui.LevelLabel(layer.Index), ui.Cyan("──────────────────────────────"))
		for _, id := range layer.TaskIDs {
			printTask(id)
		}
		fmt.Fprintln(w)
	}
	if !a.Cycles.Empty() {
		fmt.Fprintf(w, "%s %s %s\n", ui.Cyan("──"), ui.BoldRed("cyclic"), ui.Cyan("──────────────────────────────"))
		for _, id := range a.Cycles.IDs() {
			printTask(id)
			fmt.Fprintf(w, "      %s %s\n", ui.Dim("blocked by"), orNone(a.Graph.Predecessors(id)))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "%s %s\n", ui.Dim("entry points:"), orNone(a.Graph.Roots()))
	fmt.Fprintf(w, "%s %s\n", ui.Dim("terminal:    "), orNone(a.Graph.Leaves()))
}

// printDOT emits Graphviz with one rank per level and cyclic tasks in red.
func printDOT(w io.Writer, snap graph.Snapshot, a *engine.Analysis) {
	fmt.Fprintln(w, "digraph depweave {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	for _, t := range snap.Tasks {
		label := fmt.Sprintf("%s\\n%s", t.ID, strings.ReplaceAll(t.Title, `"`, `\"`))
		attrs := fmt.Sprintf(`label="%s"`, label)
		if a.Cycles.Contains(t.ID) {
			attrs += `, style="rounded,bold", color=red`
		}
		fmt.Fprintf(w, "  %q [%s];\n", t.ID, attrs)
	}
	fmt.Fprintln(w)

	for _, layer := range a.Levels.Layers() {
		quoted := make([]string, len(layer.TaskIDs))
		for i, id := range layer.TaskIDs {
			quoted[i] = fmt.Sprintf("%q", id)
		}
		fmt.Fprintf(w, "  { rank=same; %s; }\n", strings.Join(quoted, "; "))
	}
	fmt.Fprintln(w)

	for _, e := range a.Graph.Edges() {
		switch {
		case e.Kind == graph.RelatesTo:
			fmt.Fprintf(w, "  %q -> %q [style=dashed, dir=none];\n", e.From, e.To)
		case sameCycle(a.Cycles, e.From, e.To):
			fmt.Fprintf(w, "  %q -> %q [color=red, penwidth=2];\n", e.From, e.To)
		default:
			fmt.Fprintf(w, "  %q -> %q;\n", e.From, e.To)
		}
	}
	fmt.Fprintln(w, "}")
}

func sameCycle(cs graph.CycleSet, a, b string) bool {
	ca, cb := cs.Component(a), cs.Component(b)
	return len(ca) > 0 && len(cb) > 0 && ca[0] == cb[0]
}

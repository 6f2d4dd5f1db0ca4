// Package ui holds the terminal styling shared by the CLI renderers.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
)

// DisableColor turns off styling, e.g. for --no-color or non-TTY output.
func DisableColor() {
	color.NoColor = true
}

// levelColors cycles so adjacent levels stay distinguishable.
var levelColors = []func(a ...interface{}) string{
	BoldCyan,
	BoldMagenta,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
}

// LevelLabel returns a colored "L<n>" tag.
func LevelLabel(level int) string {
	c := levelColors[level%len(levelColors)]
	return c(fmt.Sprintf("L%d", level))
}

// CycleMark flags a task that sits on a blocking cycle.
func CycleMark(inCycle bool) string {
	if inCycle {
		return BoldRed("⟳")
	}
	return " "
}

// StatusIcon returns a colored icon for a bd task status.
func StatusIcon(status string) string {
	switch status {
	case "closed", "done", "completed":
		return Green("✓")
	case "in_progress", "running":
		return Cyan("●")
	case "blocked":
		return Red("✗")
	case "deferred":
		return Yellow("⊘")
	default:
		return Dim("◌")
	}
}

// Verdict renders the outcome of an edge check.
func Verdict(duplicate, wouldCycle bool) string {
	switch {
	case wouldCycle:
		return BoldRed("would cycle")
	case duplicate:
		return Yellow("duplicate")
	default:
		return Green("ok")
	}
}

// Path joins task ids with arrows.
func Path(ids []string) string {
	return strings.Join(ids, Dim(" → "))
}

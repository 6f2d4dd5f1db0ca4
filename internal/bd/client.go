// Package bd reads and writes task dependencies through the bd CLI.
package bd

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
)

// Client wraps the bd CLI binary.
type Client struct {
	BdBin  string // path to bd binary (default: "bd")
	DbPath string // --db flag value (optional)

	// exec runs the binary; swapped out in tests.
	exec func(bin string, args ...string) ([]byte, error)
}

// NewClient creates a Client using the given bd binary path and database path.
func NewClient(bdBin, dbPath string) *Client {
	if bdBin == "" {
		bdBin = "bd"
	}
	return &Client{BdBin: bdBin, DbPath: dbPath, exec: combinedOutput}
}

func combinedOutput(bin string, args ...string) ([]byte, error) {
	return exec.Command(bin, args...).CombinedOutput()
}

func (c *Client) baseArgs() []string {
	if c.DbPath != "" {
		return []string{"--db", c.DbPath}
	}
	return nil
}

func (c *Client) run(args ...string) ([]byte, error) {
	all := append(c.baseArgs(), args...)
	run := c.exec
	if run == nil {
		run = combinedOutput
	}
	out, err := run(c.BdBin, all...)
	if err != nil {
		return nil, fmt.Errorf("bd %s: %w\n%s", strings.Join(args, " "), err, string(out))
	}
	return out, nil
}

// RawTask is the JSON structure returned by bd list.
type RawTask struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"`
	Priority int      `json:"priority"`
	Type     string   `json:"issue_type"`
	Labels   []string `json:"labels,omitempty"`
}

// Task converts a bd issue into a graph task.
func (r RawTask) Task() graph.Task {
	return graph.Task{
		ID:       r.ID,
		Title:    r.Title,
		Status:   r.Status,
		Priority: r.Priority,
		Labels:   r.Labels,
	}
}

// List returns tasks with the given status, or every task when status is empty.
func (c *Client) List(status string) ([]RawTask, error) {
	args := []string{"list", "--json", "--limit", "0"}
	if status != "" {
		args = append(args, "--status", status)
	}
	out, err := c.run(args...)
	if err != nil {
		return nil, err
	}
	var tasks []RawTask
	if err := json.Unmarshal(out, &tasks); err != nil {
		return nil, fmt.Errorf("parse bd list output: %w", err)
	}
	return tasks, nil
}

// DepRef is one entry of bd dep list --json.
type DepRef struct {
	ID   string
	Type string // "blocks" or "related"
}

// parseDepList pulls the ids and dependency types out of bd dep list
// output. Entries without an id are skipped.
func parseDepList(out []byte) ([]DepRef, error) {
	if !gjson.ValidBytes(out) {
		return nil, fmt.Errorf("invalid JSON from bd dep list")
	}
	var refs []DepRef
	gjson.ParseBytes(out).ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		if id == "" {
			return true
		}
		typ := item.Get("dependency_type").String()
		if typ == "" {
			typ = "blocks"
		}
		refs = append(refs, DepRef{ID: id, Type: typ})
		return true
	})
	return refs, nil
}

// Deps returns what id depends on (bd dep list <id> --direction=down).
func (c *Client) Deps(id string) ([]DepRef, error) {
	out, err := c.run("dep", "list", id, "--direction=down", "--json")
	if err != nil {
		// dep list may fail if no deps exist; treat as empty
		return nil, nil
	}
	refs, err := parseDepList(out)
	if err != nil {
		return nil, fmt.Errorf("parse bd dep list %s: %w", id, err)
	}
	return refs, nil
}

// Snapshot reads the tasks with the given status and every dependency
// between them. Dependencies on tasks outside the listed set are dropped.
func (c *Client) Snapshot(status string) (graph.Snapshot, error) {
	raw, err := c.List(status)
	if err != nil {
		return graph.Snapshot{}, err
	}
	deps := make(map[string][]DepRef, len(raw))
	for _, t := range raw {
		refs, err := c.Deps(t.ID)
		if err != nil {
			return graph.Snapshot{}, err
		}
		deps[t.ID] = refs
	}
	return assemble(raw, deps), nil
}

func assemble(raw []RawTask, deps map[string][]DepRef) graph.Snapshot {
	log := logger.Component("bd")
	known := make(map[string]bool, len(raw))
	snap := graph.Snapshot{Tasks: make([]graph.Task, 0, len(raw))}
	for _, t := range raw {
		known[t.ID] = true
		snap.Tasks = append(snap.Tasks, t.Task())
	}

	seen := make(map[graph.Edge]bool)
	for _, t := range raw {
		for _, d := range deps[t.ID] {
			if !known[d.ID] || d.ID == t.ID {
				log.Debug().Str("task", t.ID).Str("dep", d.ID).Msg("dependency outside snapshot skipped")
				continue
			}
			e := graph.Edge{From: d.ID, To: t.ID, Kind: graph.Blocks}
			if d.Type == "related" || d.Type == string(graph.RelatesTo) {
				e.Kind = graph.RelatesTo
			}
			e = e.Canonical()
			if seen[e] {
				continue
			}
			seen[e] = true
			snap.Edges = append(snap.Edges, e)
		}
	}
	sort.Slice(snap.Edges, func(i, j int) bool {
		a, b := snap.Edges[i], snap.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	log.Debug().Int("tasks", len(snap.Tasks)).Int("edges", len(snap.Edges)).Msg("snapshot read from bd")
	return snap
}

// AddDep adds a dependency edge: blockedID is blocked by blockerID.
func (c *Client) AddDep(blockedID, blockerID string) error {
	_, err := c.run("dep", "add", blockedID, blockerID)
	return err
}

// RemoveDep removes the dependency of blockedID on blockerID.
func (c *Client) RemoveDep(blockedID, blockerID string) error {
	_, err := c.run("dep", "remove", blockedID, blockerID)
	return err
}

// depArgs maps an edge onto the (dependent, dependency, type) triple bd expects.
func depArgs(e graph.Edge) (string, string, string) {
	c := e.Canonical()
	if c.Kind == graph.RelatesTo {
		return c.From, c.To, "related"
	}
	return c.To, c.From, "blocks"
}

// ApplyEdge writes e to bd.
func (c *Client) ApplyEdge(e graph.Edge) error {
	dependent, dependency, typ := depArgs(e)
	if typ == "blocks" {
		return c.AddDep(dependent, dependency)
	}
	_, err := c.run("dep", "add", dependent, dependency, "--type", typ)
	return err
}

// DeleteEdge removes e from bd.
func (c *Client) DeleteEdge(e graph.Edge) error {
	dependent, dependency, _ := depArgs(e)
	return c.RemoveDep(dependent, dependency)
}

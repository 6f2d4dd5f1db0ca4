package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshharrison/depweave/internal/bd"
	"github.com/joshharrison/depweave/internal/depstore"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
	"github.com/joshharrison/depweave/internal/snapshot"
)

// source is where the graph was read from and where edits go back to.
type source struct {
	snap graph.Snapshot
	file *snapshot.File // file source
	bd   *bd.Client     // bd source
}

func openSource() (*source, error) {
	if cfg.Source == "bd" {
		client := bd.NewClient(cfg.BdBin, cfg.DBPath)
		snap, err := client.Snapshot(cfg.BdStatus)
		if err != nil {
			return nil, fmt.Errorf("read bd graph: %w", err)
		}
		if len(snap.Tasks) == 0 {
			return nil, fmt.Errorf("no %s tasks found", cfg.BdStatus)
		}
		return &source{snap: snap, bd: client}, nil
	}

	if !snapshot.Exists(cfg.SnapshotPath) {
		return nil, fmt.Errorf("no snapshot at %s (run 'depweave import' or pass --snapshot)", cfg.SnapshotPath)
	}
	f, err := snapshot.Load(cfg.SnapshotPath)
	if err != nil {
		return nil, err
	}
	return &source{snap: f.Snapshot(), file: f}, nil
}

// addEdge writes e back to the source.
func (s *source) addEdge(e graph.Edge) error {
	store, err := depstore.FromSnapshot(s.snap)
	if err != nil {
		return err
	}
	if err := store.AddEdge(e.From, e.To, e.Kind); err != nil {
		return err
	}
	if s.bd != nil {
		if err := s.bd.ApplyEdge(e); err != nil {
			return fmt.Errorf("write edge to bd: %w", err)
		}
	} else if err := s.file.Replace(store.Snapshot()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.snap = store.Snapshot()
	return nil
}

// removeEdge deletes e from the source, reporting whether it was present.
func (s *source) removeEdge(e graph.Edge) (bool, error) {
	store, err := depstore.FromSnapshot(s.snap)
	if err != nil {
		return false, err
	}
	if !store.RemoveEdge(e.From, e.To, e.Kind) {
		return false, nil
	}
	if s.bd != nil {
		if err := s.bd.DeleteEdge(e); err != nil {
			return false, fmt.Errorf("remove edge from bd: %w", err)
		}
	} else if err := s.file.Replace(store.Snapshot()); err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	s.snap = store.Snapshot()
	return true, nil
}

// applyFilter keeps the tasks matching filter and the edges between them.
// Supported: priority<=N, priority=N, priority>=N, label=X, status=X.
func applyFilter(snap graph.Snapshot, filter string) (graph.Snapshot, error) {
	if filter == "" {
		return snap, nil
	}
	keep, err := parseFilter(filter)
	if err != nil {
		return graph.Snapshot{}, err
	}

	out := graph.Snapshot{}
	kept := make(map[string]bool)
	for _, t := range snap.Tasks {
		if keep(t) {
			kept[t.ID] = true
			out.Tasks = append(out.Tasks, t)
		}
	}
	for _, e := range snap.Edges {
		if kept[e.From] && kept[e.To] {
			out.Edges = append(out.Edges, e)
		}
	}
	logger.Component("cli").Debug().
		Str("filter", filter).
		Int("tasks", len(out.Tasks)).
		Int("edges", len(out.Edges)).
		Msg("filter applied")
	return out, nil
}

func parseFilter(filter string) (func(graph.Task) bool, error) {
	if strings.HasPrefix(filter, "priority") {
		return priorityFilter(strings.TrimPrefix(filter, "priority"))
	}
	if strings.HasPrefix(filter, "label=") {
		label := strings.TrimPrefix(filter, "label=")
		return func(t graph.Task) bool {
			for _, l := range t.Labels {
				if l == label {
					return true
				}
			}
			return false
		}, nil
	}
	if strings.HasPrefix(filter, "status=") {
		status := strings.TrimPrefix(filter, "status=")
		return func(t graph.Task) bool { return t.Status == status }, nil
	}
	return nil, fmt.Errorf("unsupported filter: %s (use priority<=N, label=X, or status=X)", filter)
}

func priorityFilter(expr string) (func(graph.Task) bool, error) {
	for _, op := range []string{"<=", ">=", "="} {
		if !strings.HasPrefix(expr, op) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(expr, op))
		if err != nil {
			return nil, fmt.Errorf("invalid priority value: %w", err)
		}
		switch op {
		case "<=":
			return func(t graph.Task) bool { return t.Priority <= n }, nil
		case ">=":
			return func(t graph.Task) bool { return t.Priority >= n }, nil
		default:
			return func(t graph.Task) bool { return t.Priority == n }, nil
		}
	}
	return nil, fmt.Errorf("unsupported priority filter: priority%s", expr)
}

// parseKindFlag validates --kind.
func parseKindFlag(s string) (graph.Kind, error) {
	k, ok := graph.ParseKind(s)
	if !ok {
		return "", graph.InvalidEdgef("unknown kind %q (use blocks, blocked_by or relates_to)", s)
	}
	return k, nil
}

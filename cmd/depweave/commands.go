package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshharrison/depweave/internal/bd"
	"github.com/joshharrison/depweave/internal/depstore"
	"github.com/joshharrison/depweave/internal/engine"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/levels"
	"github.com/joshharrison/depweave/internal/snapshot"
	"github.com/joshharrison/depweave/internal/ui"
)

func cyclesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cycles",
		Short: "List tasks that sit on a blocking cycle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource()
			if err != nil {
				return err
			}
			report, err := engine.DetectCycles(src.snap)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), report)
			}
			printCycles(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func chainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chain <task-id>",
		Short: "Show everything upstream and downstream of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource()
			if err != nil {
				return err
			}
			ch, err := engine.ResolveChain(src.snap, args[0])
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), ch)
			}
			printChain(cmd.OutOrStdout(), ch)
			return nil
		},
	}
}

// levelsOutput is the --json shape of the levels command.
type levelsOutput struct {
	levels.Assignment
	Layers []levels.Layer `json:"layers"`
}

func levelsCmd() *cobra.Command {
	var flagFilter string

	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Assign topological levels to acyclic tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource()
			if err != nil {
				return err
			}
			snap, err := applyFilter(src.snap, flagFilter)
			if err != nil {
				return fmt.Errorf("apply filter: %w", err)
			}
			a, err := engine.AssignLevels(snap)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), levelsOutput{Assignment: a, Layers: a.Layers()})
			}
			printLevels(cmd.OutOrStdout(), snap, a)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks (e.g., priority<=1, label=backend)")
	return cmd
}

func edgesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edges <task-id>",
		Short: "List a task's edges in every relation kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource()
			if err != nil {
				return err
			}
			store, err := depstore.FromSnapshot(src.snap)
			if err != nil {
				return err
			}
			if !store.HasTask(args[0]) {
				return graph.UnknownTask(args[0])
			}
			adj := store.EdgesOf(args[0])
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), adj)
			}
			printAdjacency(cmd.OutOrStdout(), args[0], adj)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	var flagKind string

	cmd := &cobra.Command{
		Use:   "validate <from> <to>",
		Short: "Check a proposed edge without writing it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(flagKind)
			if err != nil {
				return err
			}
			src, err := openSource()
			if err != nil {
				return err
			}
			v, err := engine.ValidateNewEdge(src.snap, args[0], args[1], kind, engine.WithCycleCheck(cfg.CycleCheck))
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), v)
			}
			printVerdict(cmd.OutOrStdout(), v)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagKind, "kind", string(graph.Blocks), "Edge kind (blocks, blocked_by, relates_to)")
	return cmd
}

func addEdgeCmd() *cobra.Command {
	var (
		flagKind  string
		flagForce bool
	)

	cmd := &cobra.Command{
		Use:   "add-edge <from> <to>",
		Short: "Add an edge after checking it",
		Long: `Adds "<from> <kind> <to>" to the graph. An edge that would close a
blocking cycle is refused unless --force is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(flagKind)
			if err != nil {
				return err
			}
			src, err := openSource()
			if err != nil {
				return err
			}
			v, err := engine.ValidateNewEdge(src.snap, args[0], args[1], kind, engine.WithCycleCheck(cfg.CycleCheck))
			if err != nil {
				return err
			}
			if v.WouldCycle && !flagForce {
				return fmt.Errorf("edge would create a cycle %s (use --force to add it anyway)", ui.Path(v.CyclePath))
			}

			added := false
			if !v.Duplicate {
				if err := src.addEdge(v.Edge); err != nil {
					return err
				}
				added = true
			}

			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), struct {
					engine.Verdict
					Added bool `json:"added"`
				}{v, added})
			}
			w := cmd.OutOrStdout()
			if !added {
				fmt.Fprintf(w, "%s %s already present\n", ui.Yellow("⏭️ "), formatEdge(v.Edge))
				return nil
			}
			fmt.Fprintf(w, "%s added %s\n", ui.Green("✅"), formatEdge(v.Edge))
			if v.WouldCycle {
				fmt.Fprintf(w, "%s closes cycle %s\n", ui.BoldYellow("⚠️ "), ui.Path(v.CyclePath))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagKind, "kind", string(graph.Blocks), "Edge kind (blocks, blocked_by, relates_to)")
	cmd.Flags().BoolVar(&flagForce, "force", false, "Add the edge even if it closes a cycle")
	return cmd
}

func removeEdgeCmd() *cobra.Command {
	var flagKind string

	cmd := &cobra.Command{
		Use:   "remove-edge <from> <to>",
		Short: "Remove an edge (either direction of a blocks/blocked_by pair)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(flagKind)
			if err != nil {
				return err
			}
			src, err := openSource()
			if err != nil {
				return err
			}
			e := graph.Edge{From: args[0], To: args[1], Kind: kind}
			removed, err := src.removeEdge(e)
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), struct {
					Edge    graph.Edge `json:"edge"`
					Removed bool       `json:"removed"`
				}{e, removed})
			}
			if removed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s removed %s\n", ui.Green("✅"), formatEdge(e))
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s not present\n", ui.Yellow("⏭️ "), formatEdge(e))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagKind, "kind", string(graph.Blocks), "Edge kind (blocks, blocked_by, relates_to)")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Copy the Beads task graph into the snapshot file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := bd.NewClient(cfg.BdBin, cfg.DBPath)
			snap, err := client.Snapshot(cfg.BdStatus)
			if err != nil {
				return fmt.Errorf("read bd graph: %w", err)
			}
			if _, err := graph.Validate(snap); err != nil {
				return err
			}
			f := snapshot.New(cfg.SnapshotPath, snap, "bd")
			if err := f.Save(); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
			if flagJSON {
				return outputJSON(cmd.OutOrStdout(), struct {
					Path  string `json:"path"`
					Tasks int    `json:"tasks"`
					Edges int    `json:"edges"`
				}{f.Path(), len(snap.Tasks), len(snap.Edges)})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "📂 Imported %s tasks and %s edges into %s\n",
				ui.Bold(len(snap.Tasks)), ui.Bold(len(snap.Edges)), ui.Dim(f.Path()))
			return nil
		},
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/depweave/internal/claude"
	"github.com/joshharrison/depweave/internal/engine"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
	"github.com/joshharrison/depweave/internal/ui"
)

// screened is the outcome of checking one proposal.
type screened struct {
	Proposal claude.Proposal `json:"proposal"`
	Accepted bool            `json:"accepted"`
	Reason   string          `json:"skip_reason,omitempty"`
}

// screenProposals checks each proposal against snap plus the proposals
// accepted before it, so the accepted set never closes a cycle.
func screenProposals(snap graph.Snapshot, proposals []claude.Proposal) ([]screened, []graph.Edge) {
	working := graph.Snapshot{Tasks: snap.Tasks, Edges: append([]graph.Edge(nil), snap.Edges...)}
	var (
		out      []screened
		accepted []graph.Edge
	)
	for _, p := range proposals {
		s := screened{Proposal: p}
		v, err := engine.ValidateNewEdge(working, p.Edge.From, p.Edge.To, p.Edge.Kind)
		switch {
		case err != nil:
			s.Reason = err.Error()
		case v.Duplicate:
			s.Reason = "already present"
		case v.WouldCycle:
			s.Reason = "would create cycle " + ui.Path(v.CyclePath)
		default:
			s.Accepted = true
			working.Edges = append(working.Edges, v.Edge)
			accepted = append(accepted, v.Edge)
		}
		out = append(out, s)
	}
	return out, accepted
}

func inferDepsCmd() *cobra.Command {
	var (
		flagApply    bool
		flagModel    string
		flagFromFile string
	)

	cmd := &cobra.Command{
		Use:   "infer-deps",
		Short: "Use Claude to propose missing dependencies",
		Long: `Sends task titles and existing edges to Claude and screens the proposed
edges through the same checks as add-edge. By default runs in dry-run mode;
use --apply to write the accepted edges.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource()
			if err != nil {
				return err
			}
			if _, err := graph.Validate(src.snap); err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			var inf *claude.Inference
			if flagFromFile != "" {
				data, err := os.ReadFile(flagFromFile)
				if err != nil {
					return fmt.Errorf("read from-file: %w", err)
				}
				inf, err = claude.ParseInference(string(data))
				if err != nil {
					return err
				}
				if !flagJSON {
					fmt.Fprintf(w, "📂 Loaded %s proposals from %s\n", ui.Bold(len(inf.Proposals)), ui.Dim(flagFromFile))
				}
			} else {
				model := cfg.Model
				if flagModel != "" {
					model = flagModel
				}
				client, err := claude.NewClient("", model)
				if err != nil {
					return err
				}
				if !flagJSON {
					fmt.Fprintf(w, "🔍 Sending %s tasks to Claude for dependency inference...\n", ui.Bold(len(src.snap.Tasks)))
				}
				inf, err = client.InferEdges(context.Background(), src.snap)
				if err != nil {
					return fmt.Errorf("infer deps: %w", err)
				}
			}

			results, accepted := screenProposals(src.snap, inf.Proposals)

			applied := 0
			if flagApply {
				for _, e := range accepted {
					if err := src.addEdge(e); err != nil {
						logger.Component("cli").Warn().Err(err).Str("from", e.From).Str("to", e.To).Msg("edge not applied")
						if !flagJSON {
							fmt.Fprintf(w, "  %s %s: %v\n", ui.Red("❌ ERROR:"), formatEdge(e), err)
						}
						continue
					}
					applied++
				}
			}

			if flagJSON {
				return outputJSON(w, struct {
					Results   []screened `json:"results"`
					Summary   string     `json:"summary"`
					Discarded int        `json:"discarded"`
					Applied   int        `json:"applied"`
				}{results, inf.Summary, inf.Discarded, applied})
			}

			printScreened(w, results, inf)
			if !flagApply {
				fmt.Fprintf(w, "\n🎯 %s\n", ui.Yellow("Dry run: use --apply to write the accepted dependencies."))
				return nil
			}
			fmt.Fprintf(w, "\n🏁 Applied %s/%d dependencies.\n", ui.BoldGreen(applied), len(accepted))
			return nil
		},
	}

	cmd.Flags().BoolVar(&flagApply, "apply", false, "Write accepted edges (default: dry-run)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Claude model to use (default: config or Sonnet)")
	cmd.Flags().StringVar(&flagFromFile, "from-file", "", "Read a saved model response instead of calling Claude")
	return cmd
}

func printScreened(w io.Writer, results []screened, inf *claude.Inference) {
	accepted := 0
	for _, r := range results {
		if r.Accepted {
			accepted++
		}
	}
	fmt.Fprintf(w, "\n🔗 %s of %d proposed dependencies accepted", ui.Bold(accepted), len(results))
	if inf.Discarded > 0 {
		fmt.Fprintf(w, " (%d malformed entries dropped)", inf.Discarded)
	}
	fmt.Fprint(w, ":\n\n")

	for _, r := range results {
		if r.Accepted {
			fmt.Fprintf(w, "  %s %s  %s\n", ui.Cyan("→"), formatEdge(r.Proposal.Edge), ui.Dim(r.Proposal.Reason))
			continue
		}
		fmt.Fprintf(w, "  %s %s: %s\n", ui.Yellow("⏭️  SKIP"), formatEdge(r.Proposal.Edge), r.Reason)
	}
	if inf.Summary != "" {
		fmt.Fprintf(w, "\n💡 %s %s\n", ui.Bold("Summary:"), inf.Summary)
	}
}

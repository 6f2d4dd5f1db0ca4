package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/depweave/internal/config"
	"github.com/joshharrison/depweave/internal/graph"
	"github.com/joshharrison/depweave/internal/logger"
	"github.com/joshharrison/depweave/internal/ui"
)

var (
	flagConfig   string
	flagSnapshot string
	flagSource   string
	flagDB       string
	flagLogLevel string
	flagJSON     bool

	cfg *config.Config
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "depweave",
		Short: "Inspect and edit task dependency graphs",
		Long: `Depweave loads a task dependency graph from a snapshot file or a Beads
database, reports blocking cycles, resolves dependency chains and assigns
topological levels, and checks new edges before they are written.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: ./depweave.yml if present)")
	rootCmd.PersistentFlags().StringVar(&flagSnapshot, "snapshot", "", "Snapshot file path (default: .depweave/snapshot.json)")
	rootCmd.PersistentFlags().StringVar(&flagSource, "source", "", "Graph source: file or bd")
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "Beads database path (bd source)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(cyclesCmd())
	rootCmd.AddCommand(chainCmd())
	rootCmd.AddCommand(levelsCmd())
	rootCmd.AddCommand(edgesCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(addEdgeCmd())
	rootCmd.AddCommand(removeEdgeCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(inferDepsCmd())
	rootCmd.AddCommand(importCmd())

	return rootCmd
}

// setup loads the config, lets explicit flags override it and installs
// the logger.
func setup(cmd *cobra.Command, args []string) error {
	var opts []config.Option
	if flagConfig != "" {
		opts = append(opts, config.WithConfigFile(flagConfig))
	}
	loaded, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("snapshot") {
		loaded.SnapshotPath = flagSnapshot
	}
	if flags.Changed("source") {
		loaded.Source = flagSource
	}
	if flags.Changed("db") {
		loaded.DBPath = flagDB
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = flagLogLevel
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	logger.Init(loaded.Log)
	if loaded.Log.NoColor || flagJSON {
		ui.DisableColor()
	}
	cfg = loaded
	return nil
}

// --- Output helpers ---

func outputJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// errorOutput is the --json shape of a failed command.
type errorOutput struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	TaskID string `json:"task_id,omitempty"`
}

func reportError(w io.Writer, err error) {
	if flagJSON {
		out := errorOutput{Error: err.Error(), Code: graph.CodeOf(err)}
		var ge *graph.Error
		if errors.As(err, &ge) {
			out.TaskID = ge.TaskID
		}
		jerr := outputJSON(w, out)
		if jerr == nil {
			return
		}
		logger.Component("cli").Error().Err(jerr).Msg("encode error output")
	}
	fmt.Fprintf(w, "%s %v\n", ui.BoldRed("❌ error:"), err)
}

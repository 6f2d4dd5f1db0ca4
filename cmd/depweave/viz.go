package main

import (
	"context"
	"fmt"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshharrison/depweave/internal/engine"
	"github.com/joshharrison/depweave/internal/logger"
	"github.com/joshharrison/depweave/internal/ui"
	"github.com/joshharrison/depweave/internal/viewer"
)

func vizCmd() *cobra.Command {
	var (
		flagFormat string
		flagFilter string
	)

	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Print the dependency graph by level (ASCII or DOT)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFormat != "ascii" && flagFormat != "dot" {
				return fmt.Errorf("unsupported format %q (use ascii or dot)", flagFormat)
			}
			src, err := openSource()
			if err != nil {
				return err
			}
			snap, err := applyFilter(src.snap, flagFilter)
			if err != nil {
				return fmt.Errorf("apply filter: %w", err)
			}
			a, err := engine.Analyze(snap)
			if err != nil {
				return err
			}

			if flagFormat == "dot" {
				printDOT(cmd.OutOrStdout(), snap, a)
				return nil
			}
			printASCII(cmd.OutOrStdout(), snap, a)
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks")
	return cmd
}

func viewCmd() *cobra.Command {
	var (
		flagPort   int
		flagNoOpen bool
		flagFilter string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Serve the analysed graph as JSON over HTTP",
		Long: `Starts the viewer on --port (or sends the graph to a viewer already
listening there) and serves GET /graph, POST /graph and GET /chain?root=<id>
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := openSource()
			if err != nil {
				return err
			}
			snap, err := applyFilter(src.snap, flagFilter)
			if err != nil {
				return fmt.Errorf("apply filter: %w", err)
			}
			port := cfg.ViewerPort
			if cmd.Flags().Changed("port") {
				port = flagPort
			}

			addr := fmt.Sprintf("http://localhost:%d", port)
			if viewer.IsPortOpen(fmt.Sprintf("localhost:%d", port)) {
				if err := viewer.PostSnapshot(addr, snap); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ Graph sent to viewer already running at %s\n", addr)
				return nil
			}

			addr, err = viewer.Start(port, &snap)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🖥️  Viewer listening on %s\n", ui.Bold(addr))
			if !flagNoOpen {
				openBrowser(addr + "/graph")
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()
			logger.Component("cli").Info().Msg("viewer shutting down")
			return nil
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", 7171, "Viewer port")
	cmd.Flags().BoolVar(&flagNoOpen, "no-open", false, "Skip opening browser")
	cmd.Flags().StringVar(&flagFilter, "filter", "", "Filter tasks before viewing")
	return cmd
}

// openBrowser opens the given URL in the default browser.
func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		cmd = exec.Command("cmd", "/c", "start", url)
	}
	if err := cmd.Start(); err != nil {
		logger.Component("cli").Warn().Err(err).Str("url", url).Msg("could not open browser")
	}
}

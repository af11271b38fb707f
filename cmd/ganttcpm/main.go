package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshharrison/ganttcpm/internal/config"
	"github.com/joshharrison/ganttcpm/internal/cpm"
	"github.com/joshharrison/ganttcpm/internal/graph"
	"github.com/joshharrison/ganttcpm/internal/logging"
	"github.com/joshharrison/ganttcpm/internal/reporter"
	"github.com/joshharrison/ganttcpm/internal/server"
	"github.com/joshharrison/ganttcpm/internal/snapshot"
	"github.com/joshharrison/ganttcpm/internal/ui"
)

var (
	flagConfig            string
	flagLogLevel          string
	flagJSON              bool
	flagFinishToStartOnly bool
	flagFile              string
	flagPhase             string
	flagFormat            string
	flagFrom              string
	flagTo                string
	flagRelation          string
	flagAddr              string
)

// errEdgeRejected makes check-edge exit non-zero without a second message.
var errEdgeRejected = errors.New("dependency rejected")

// app holds what every subcommand needs once flags and config are resolved.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errEdgeRejected) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ganttcpm",
		Short: "Critical path scheduling for Gantt task graphs",
		Long: `ganttcpm reads a task/dependency snapshot exported from the Gantt editor,
computes earliest and latest start/finish times with the critical path
method, and reports slack and the critical tasks and dependencies.

Cyclic graphs are not an error: the result falls back to the tasks the
editor already flagged as critical.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")
	rootCmd.PersistentFlags().BoolVar(&flagFinishToStartOnly, "finish-to-start-only", false, "Treat every relation as finish-to-start")

	rootCmd.AddCommand(scheduleCmd(a))
	rootCmd.AddCommand(checkEdgeCmd(a))
	rootCmd.AddCommand(vizCmd(a))
	rootCmd.AddCommand(serveCmd(a))

	return rootCmd
}

// setup loads the config file and lets explicitly set flags override it.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadConfig(flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var logLevel, output, addr *string
	var fsOnly *bool
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		logLevel = &flagLogLevel
	}
	if flags.Changed("finish-to-start-only") {
		fsOnly = &flagFinishToStartOnly
	}
	if flags.Changed("json") && flagJSON {
		jsonOut := "json"
		output = &jsonOut
	}
	if flags.Lookup("addr") != nil && flags.Changed("addr") {
		addr = &flagAddr
	}
	cfg.MergeWithFlags(logLevel, fsOnly, output, addr)
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	return nil
}

func (a *app) options() cpm.Options {
	return cpm.Options{FinishToStartOnly: a.cfg.FinishToStartOnly}
}

// analyze loads the snapshot named by --file, applies --phase and runs the
// engine.
func (a *app) analyze() (*graph.TaskGraph, cpm.Result, error) {
	if flagFile == "" {
		return nil, nil, fmt.Errorf("--file is required")
	}
	snap, err := snapshot.Load(flagFile)
	if err != nil {
		return nil, nil, err
	}

	g, warnings := graph.Build(snap.Tasks, snap.Dependencies)
	if flagPhase != "" {
		var dropped []graph.Warning
		g, dropped = g.Filter(func(n *graph.Node) bool {
			return n.Phase == flagPhase || snap.PhaseOf(n.ID) == flagPhase
		})
		warnings = append(warnings, dropped...)
		if g.TaskCount() == 0 {
			return nil, nil, fmt.Errorf("no tasks in phase %q", flagPhase)
		}
	}

	result := cpm.Analyze(g, warnings, a.options())
	logging.Warnings(a.logger, result.Diagnostics())
	a.logger.Debug("analysis complete",
		"tasks", g.TaskCount(),
		"dependencies", len(g.Edges),
		"degraded", result.IsDegraded())

	return g, result, nil
}

func scheduleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute the schedule and critical path of a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, result, err := a.analyze()
			if err != nil {
				return err
			}

			rpt := reporter.New(g, result)
			out := cmd.OutOrStdout()
			if a.cfg.Output == "json" {
				return writeJSON(out, rpt.Document())
			}

			rpt.PrintSchedule(out)
			rpt.PrintWarnings(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Snapshot file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&flagPhase, "phase", "", "Only schedule tasks in this phase; dependencies on other phases are ignored and reported")

	return cmd
}

func checkEdgeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check-edge",
		Short: "Check whether a new dependency may be added to a snapshot",
		Long: `Reports whether adding predecessor --from to successor --to would create a
cycle, duplicate an existing dependency, or make a task depend on itself.
Exits non-zero when the dependency is rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagFile == "" || flagFrom == "" || flagTo == "" {
				return fmt.Errorf("--file, --from and --to are required")
			}
			snap, err := snapshot.Load(flagFile)
			if err != nil {
				return err
			}

			candidate := graph.Dependency{
				PredecessorID: flagFrom,
				SuccessorID:   flagTo,
				Relation:      graph.ParseRelation(flagRelation),
			}
			resp := server.CheckResponse{
				WouldCreateCycle: graph.WouldCreateCycle(snap.Dependencies, flagFrom, flagTo),
			}
			_, admitErr := snapshot.AddDependency(snap, candidate)
			if admitErr != nil {
				resp.Reason = admitErr.Error()
			} else {
				resp.Admitted = true
			}

			out := cmd.OutOrStdout()
			if a.cfg.Output == "json" {
				if err := writeJSON(out, resp); err != nil {
					return err
				}
			} else if resp.Admitted {
				fmt.Fprintf(out, "%s %s → %s can be added\n", ui.Green("✓"), flagFrom, flagTo)
			} else {
				fmt.Fprintf(out, "%s %s → %s rejected: %s\n", ui.Red("✗"), flagFrom, flagTo, resp.Reason)
			}

			if !resp.Admitted {
				return errEdgeRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Snapshot file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&flagFrom, "from", "", "Predecessor task ID")
	cmd.Flags().StringVar(&flagTo, "to", "", "Successor task ID")
	cmd.Flags().StringVar(&flagRelation, "relation", "finish_to_start", "Dependency relation (FS, SS, FF, SF)")

	return cmd
}

func vizCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Print the dependency graph with the critical path highlighted",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, result, err := a.analyze()
			if err != nil {
				return err
			}

			rpt := reporter.New(g, result)
			switch flagFormat {
			case "dot":
				rpt.PrintDOT(cmd.OutOrStdout())
			case "ascii":
				rpt.PrintASCII(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unsupported format %q (use ascii or dot)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Snapshot file (.json, .yaml, .yml)")
	cmd.Flags().StringVar(&flagFormat, "format", "ascii", "Output format (ascii, dot)")
	cmd.Flags().StringVar(&flagPhase, "phase", "", "Only show tasks in this phase; dependencies on other phases are ignored and reported")

	return cmd
}

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling API for the Gantt dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if a.cfg.Output != "json" {
				ui.PrintBanner(cmd.ErrOrStderr())
			}
			srv := server.New(a.cfg.Server, a.options(), a.logger)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (default from config, 127.0.0.1:7420)")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, string(data))
	return nil
}

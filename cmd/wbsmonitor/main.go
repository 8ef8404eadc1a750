package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theadarsh-ai/WBSMonitor/internal/depgraph"
	"github.com/theadarsh-ai/WBSMonitor/internal/heal"
	"github.com/theadarsh-ai/WBSMonitor/internal/impact"
	"github.com/theadarsh-ai/WBSMonitor/internal/ingest"
	"github.com/theadarsh-ai/WBSMonitor/internal/monitor"
	"github.com/theadarsh-ai/WBSMonitor/internal/oracle"
	"github.com/theadarsh-ai/WBSMonitor/internal/report"
	"github.com/theadarsh-ai/WBSMonitor/internal/risk"
	"github.com/theadarsh-ai/WBSMonitor/internal/state"
	"github.com/theadarsh-ai/WBSMonitor/internal/task"
	"github.com/theadarsh-ai/WBSMonitor/internal/ui"
)

var (
	flagWBS            string
	flagOutput         string
	flagAlertWindow    int
	flagAlertThreshold int
	flagOverdueDays    int
	flagOracle         bool
	flagModel          string
	flagRecipients     []string
	flagJSON           bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wbsmonitor",
		Short: "Monitor a project WBS for delivery risk",
		Long: `WBSMonitor reads a work breakdown structure, builds the task dependency
graph, classifies every task into an ordered risk tier, and derives
downstream impact, cross-module dependencies, and reallocation advice.`,
	}

	rootCmd.PersistentFlags().StringVar(&flagWBS, "wbs", "wbs.json", "Path to the WBS export (JSON array of task rows)")
	rootCmd.PersistentFlags().IntVar(&flagAlertWindow, "alert-window", 7, "Days before a deadline that triggers the alert tier (0 disables)")
	rootCmd.PersistentFlags().IntVar(&flagAlertThreshold, "alert-threshold", 30, "Completion percent below which an imminent deadline alerts (0 disables)")
	rootCmd.PersistentFlags().IntVar(&flagOverdueDays, "overdue-escalation", 2, "Days overdue that triggers critical escalation (0 disables)")
	rootCmd.PersistentFlags().BoolVar(&flagOracle, "oracle", false, "Classify with the Claude oracle (falls back to the deterministic policy)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "Oracle model override")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(impactCmd())
	rootCmd.AddCommand(pathCmd())
	rootCmd.AddCommand(suggestCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildRunner wires a cycle runner from the flag surface.
func buildRunner() *monitor.Runner {
	cfg := monitor.Config{
		Risk: risk.Config{
			AlertWindowDays:          flagAlertWindow,
			AlertCompletionThreshold: flagAlertThreshold,
			OverdueEscalationDays:    flagOverdueDays,
		},
		Heal:       heal.DefaultPolicy(),
		Recipients: flagRecipients,
	}

	var orc risk.Oracle
	if flagOracle {
		client, err := oracle.NewClient("", flagModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s oracle disabled: %v\n", ui.Yellow("warning:"), err)
		} else {
			orc = client
		}
	}

	classifier := risk.New(cfg.Risk, orc, nil)
	source := ingest.NewFileSource(flagWBS)

	var persister monitor.Persister
	if flagOutput != "" {
		persister = ingest.NewFileSink(flagOutput)
	}

	return monitor.New(source, classifier, persister, nil, cfg, nil)
}

func runOneCycle(ctx context.Context) (*monitor.Result, error) {
	runner := buildRunner()
	result, err := runner.RunCycle(ctx)
	if err != nil {
		return nil, err
	}
	if err := state.NewStore(".").Save(result); err != nil {
		fmt.Fprintf(os.Stderr, "%s save result snapshot: %v\n", ui.Yellow("warning:"), err)
	}
	return result, nil
}

func printResult(result *monitor.Result) error {
	rpt := report.New(result)
	if flagJSON {
		data, err := rpt.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	rpt.PrintSummary(os.Stdout)
	return nil
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one monitoring cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flagJSON {
				ui.PrintLogo()
			}
			result, err := runOneCycle(cmd.Context())
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}

	cmd.Flags().StringVar(&flagOutput, "output", "", "Write the post-cycle task snapshot to this file")
	cmd.Flags().StringSliceVar(&flagRecipients, "notify", nil, "Digest recipient addresses")

	return cmd
}

func watchCmd() *cobra.Command {
	var flagInterval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run monitoring cycles on an interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				fmt.Fprintf(os.Stderr, "\n%s\n", ui.Yellow("Received interrupt, stopping..."))
				cancel()
			}()

			if !flagJSON {
				ui.PrintLogo()
			}

			for {
				result, err := runOneCycle(ctx)
				if err != nil {
					fmt.Fprintf(os.Stderr, "%s cycle failed: %v\n", ui.Red("error:"), err)
				} else if err := printResult(result); err != nil {
					return err
				}

				select {
				case <-ctx.Done():
					return nil
				case <-time.After(flagInterval):
				}
			}
		},
	}

	cmd.Flags().DurationVar(&flagInterval, "interval", 30*time.Minute, "Time between cycles")
	cmd.Flags().StringVar(&flagOutput, "output", "", "Write the post-cycle task snapshot to this file")
	cmd.Flags().StringSliceVar(&flagRecipients, "notify", nil, "Digest recipient addresses")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent monitoring result",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := state.NewStore(".")
			if !store.Exists() {
				return fmt.Errorf("no monitoring result found (run 'wbsmonitor run' first)")
			}
			result, err := store.Load()
			if err != nil {
				return err
			}
			return printResult(result)
		},
	}
}

// loadGraph fetches the WBS, classifies deterministically, and builds
// the dependency graph for the ad-hoc query commands.
func loadGraph(ctx context.Context) ([]task.Task, *depgraph.Graph, error) {
	source := ingest.NewFileSource(flagWBS)
	raw, err := source.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	store := task.NewStore(raw)

	classifier := risk.New(risk.Config{
		AlertWindowDays:          flagAlertWindow,
		AlertCompletionThreshold: flagAlertThreshold,
		OverdueEscalationDays:    flagOverdueDays,
	}, nil, nil)
	for _, tier := range classifier.ClassifyAll(ctx, store.Tasks()) {
		for _, t := range tier {
			store.Replace(t)
		}
	}

	tasks := store.Tasks()
	return tasks, depgraph.Build(tasks), nil
}

func impactCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "impact <task-id>",
		Short: "Show the downstream impact of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			tasks, g, err := loadGraph(cmd.Context())
			if err != nil {
				return err
			}

			var target *task.Task
			for i := range tasks {
				if tasks[i].ID == id {
					target = &tasks[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("task %d not found", id)
			}

			impacted := impact.Downstream(g, id)
			fmt.Printf("%s %s\n", ui.BoldMagenta(target.Name), ui.Dim(fmt.Sprintf("(task %d)", id)))
			fmt.Println(impact.Narrative(*target, impacted))
			for _, s := range impacted {
				fmt.Printf("  %s %s %s %d%%\n", ui.Dim(fmt.Sprintf("#%d", s.ID)), s.Name, ui.Dim(s.Module), s.Completion)
			}
			return nil
		},
	}
}

func pathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the critical path through the dependency graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, g, err := loadGraph(cmd.Context())
			if err != nil {
				return err
			}

			path := g.CriticalPath()
			if len(path) == 0 {
				fmt.Println(ui.Dim("No critical path (empty graph or dependency cycle)."))
				return nil
			}
			fmt.Printf("%s %d task(s)\n", ui.BoldYellow("Critical path:"), len(path))
			for i, id := range path {
				fmt.Printf("  %d. %s %s\n", i+1, ui.BoldMagenta(g.Nodes[id].Name), ui.Dim(fmt.Sprintf("(task %d)", id)))
			}
			return nil
		},
	}
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <task-id>",
		Short: "Propose a reassignment for a struggling task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid task id %q", args[0])
			}

			tasks, _, err := loadGraph(cmd.Context())
			if err != nil {
				return err
			}

			var target *task.Task
			for i := range tasks {
				if tasks[i].ID == id {
					target = &tasks[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("task %d not found", id)
			}

			s := heal.Suggest(*target, heal.Workload(tasks), heal.DefaultPolicy(), time.Now())
			if s == nil {
				fmt.Println(ui.Dim("No reassignment suggested: task is not eligible or no candidate exists."))
				return nil
			}
			fmt.Printf("%s %s %s %s\n", ui.Bold("Reassign"), s.FromAssignee, ui.Dim("→"), ui.BoldGreen(s.ToAssignee))
			fmt.Printf("  %s\n", s.Reason)
			return nil
		},
	}
}

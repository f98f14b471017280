package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kelsos/unit-review/internal/config"
	"github.com/kelsos/unit-review/internal/logger"
	"github.com/kelsos/unit-review/internal/review"
	"github.com/kelsos/unit-review/internal/services"
	"github.com/kelsos/unit-review/internal/store"
	"github.com/kelsos/unit-review/internal/tui"
	"github.com/kelsos/unit-review/internal/utils"
)

func buildConfig(port int, baseURL, taskRunID string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.LoadFromEnvironment()

	if port != 0 {
		cfg.Port = port
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if taskRunID != "" {
		cfg.TaskRunID = taskRunID
	}
	cfg.SetBaseURL()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.TaskRunID == "" {
		return nil, fmt.Errorf("no task run id given (flag --task-run-id or REVIEW_TASK_RUN_ID)")
	}

	return cfg, nil
}

func runReview(cfg *config.Config) error {
	// The TUI owns the terminal, logs go to a file.
	if err := logger.InitFileOnly(); err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var monitor *tui.ReviewMonitor

	service := services.NewReviewService(cfg, services.Callbacks{
		OnLoading:   func() { monitor.Loading() },
		OnError:     func(cause error) { monitor.LoadFailed(cause) },
		OnEmptyData: func() { monitor.NoUnits() },
		OnData:      func(units store.TaskRunUnits) { monitor.UnitsLoaded(units) },
		OnDispatchSettled: func(unitID string, outcome review.Outcome) {
			monitor.DispatchSettled(unitID, outcome)
		},
	})
	defer service.Close()

	if !service.WaitForAPIReady() {
		return fmt.Errorf("review API at %s did not become ready", cfg.BaseURL)
	}

	model := tui.NewModel(cfg.TaskRunID, tui.Hooks{
		Mount:   func() { service.LoadUnits(ctx, cfg.TaskRunID) },
		Refresh: func() { service.LoadUnits(ctx, cfg.TaskRunID) },
		Dispatch: func(action review.Action) (review.Verdict, error) {
			return service.Dispatch(ctx, action)
		},
		Snapshot: service.Units,
	})
	monitor = tui.NewReviewMonitor(model)

	return monitor.Run()
}

func runList(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)

	service := services.NewReviewService(cfg, services.Callbacks{
		OnError: func(cause error) {
			done <- cause
		},
		OnEmptyData: func() {
			fmt.Println("Nothing to review for this task run.")
			done <- nil
		},
		OnData: func(units store.TaskRunUnits) {
			fmt.Printf("%-16s %-16s %-16s %s\n", "UNIT", "WORKER", "ASSIGNMENT", "STATUS")
			for _, unit := range units {
				fmt.Printf("%-16s %-16s %-16s %s\n", unit.UnitID, unit.WorkerID, unit.AssignmentID, unit.Status)
			}
			done <- nil
		},
	})
	defer service.Close()

	if !service.WaitForAPIReady() {
		return fmt.Errorf("review API at %s did not become ready", cfg.BaseURL)
	}

	service.LoadUnits(ctx, cfg.TaskRunID)
	return <-done
}

func main() {
	utils.LoadEnvironment()
	logger.Init()

	var (
		port      int
		baseURL   string
		taskRunID string
	)

	rootCmd := &cobra.Command{
		Use:   "unit-review",
		Short: "Review the units of work produced for a task run",
		Long: `unit-review loads the units submitted for a task run and lets a reviewer
accept, reject, soft-block or hard-block each one.`,
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := buildConfig(port, baseURL, taskRunID)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}

			if err := runReview(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "unit-review: %v\n", err)
				os.Exit(1)
			}
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the units of a task run and exit",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := buildConfig(port, baseURL, taskRunID)
			if err != nil {
				logger.Fatal("Invalid configuration: %v", err)
			}

			if err := runList(cfg); err != nil {
				logger.Fatal("Failed to list units: %v", err)
			}
		},
	}

	rootCmd.PersistentFlags().IntVarP(&port, "port", "p", 0, "Port the review API listens on")
	rootCmd.PersistentFlags().StringVarP(&baseURL, "base-url", "u", "", "Base URL of the review API (overrides --port)")
	rootCmd.PersistentFlags().StringVarP(&taskRunID, "task-run-id", "t", "", "Task run whose units should be reviewed")

	rootCmd.AddCommand(listCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatal("Failed to execute command: %v", err)
	}
}

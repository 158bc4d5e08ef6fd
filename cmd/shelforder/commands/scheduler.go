package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/shelforder/internal/scheduler"
	"github.com/wonny/shelforder/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled jobs",
	Long: `Starts the scheduler or manages its jobs.

Subcommands:
  start   - run the scheduler until interrupted
  list    - registered jobs with their schedules
  run     - run one job now and wait for it

Example:
  go run ./cmd/shelforder scheduler start
  go run ./cmd/shelforder scheduler list
  go run ./cmd/shelforder scheduler run global_resort`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler",
		Long: `Schedules all jobs and runs until Ctrl+C.

Registered jobs:
- global_resort: SORT_SCHEDULE (default 03:30:00 daily), sorts every grouping`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// newScheduler registers every job against the app's runner
func newScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewGlobalResortJob(a.runner, a.cfg.Sort.Schedule, a.log)); err != nil {
		return nil, err
	}

	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== shelforder Scheduler ===")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sched, err := newScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJobNow(ctx, jobName)
	if err != nil {
		return err
	}

	if !result.Success {
		PrintError(fmt.Sprintf("%s failed after %d attempts: %s", jobName, result.Attempts, result.Error))
		return fmt.Errorf("job %s failed", jobName)
	}

	PrintSuccess(fmt.Sprintf("%s completed in %s", jobName, result.Duration.Round(time.Millisecond)))
	return nil
}

var jobWidths = []int{16, 16}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	PrintTableHeader([]string{"Job", "Schedule"}, jobWidths)
	for _, name := range sched.GetAllJobs() {
		PrintTableRow([]string{name, stats[name].Schedule}, jobWidths)
	}
	fmt.Printf("\n%d job(s)\n", len(stats))
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/shelforder/internal/alternation"
	"github.com/wonny/shelforder/internal/contracts"
	"github.com/wonny/shelforder/internal/runner"
)

var sortCmd = &cobra.Command{
	Use:   "sort [grouping_id]",
	Short: "Sort one grouping or all of them",
	Long: `Runs the scoring and brand alternation for a grouping and stores the
new order (the replaced order stays available for undo).

With --all every grouping not listed in SORT_EXCLUDED_GROUPINGS is sorted,
paced at SORT_BULK_RATE groupings per second.

Example:
  go run ./cmd/shelforder sort shoes
  go run ./cmd/shelforder sort shoes --dry-run --strategy round_robin
  go run ./cmd/shelforder sort --all`,
	Args: func(cmd *cobra.Command, args []string) error {
		if sortAll && len(args) > 0 {
			return errors.New("--all takes no grouping id")
		}
		if !sortAll && len(args) != 1 {
			return errors.New("grouping id required (or --all)")
		}
		return nil
	},
	RunE: runSort,
}

var undoCmd = &cobra.Command{
	Use:   "undo [grouping_id]",
	Short: "Restore the previous order of a grouping",
	Long: `Swaps the current and previous order. Running undo twice restores
the order that was undone.`,
	Args: cobra.ExactArgs(1),
	RunE: runUndo,
}

var showCmd = &cobra.Command{
	Use:   "show [grouping_id]",
	Short: "Show the stored order and the latest diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var (
	sortAll      bool
	sortDryRun   bool
	sortStrategy string
	showLimit    int
)

func init() {
	rootCmd.AddCommand(sortCmd)
	rootCmd.AddCommand(undoCmd)
	rootCmd.AddCommand(showCmd)

	sortCmd.Flags().BoolVar(&sortAll, "all", false, "sort every grouping")
	sortCmd.Flags().BoolVar(&sortDryRun, "dry-run", false, "compute without storing")
	sortCmd.Flags().StringVar(&sortStrategy, "strategy", "",
		"alternation strategy ("+strings.Join(alternation.Names(), "|")+")")

	showCmd.Flags().IntVar(&showLimit, "limit", 50, "rows to print (0 = all)")
}

func runSort(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := runner.Options{DryRun: sortDryRun, Strategy: sortStrategy}
	start := time.Now()

	if sortAll {
		PrintHeader("Bulk sort", map[string]string{
			"Dry run":  strconv.FormatBool(opts.DryRun),
			"Rate":     fmt.Sprintf("%.1f/s", a.cfg.Sort.BulkRate),
			"Excluded": strconv.Itoa(len(a.cfg.Sort.Excluded)),
		})

		summary, err := a.runner.RunAll(ctx, opts)
		if summary != nil {
			printSummary(summary)
		}
		if err != nil {
			return err
		}
		PrintCompletion(time.Since(start).Seconds())
		return nil
	}

	groupingID := args[0]
	PrintHeader("Sort grouping", map[string]string{
		"Grouping": groupingID,
		"Dry run":  strconv.FormatBool(opts.DryRun),
	})

	report, err := a.runner.RunGrouping(ctx, groupingID, opts)
	if err != nil {
		PrintError(err.Error())
		return err
	}

	printReport(report)
	PrintCompletion(time.Since(start).Seconds())
	return nil
}

func runUndo(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	rec, err := a.runner.Undo(context.Background(), args[0])
	if err != nil {
		if errors.Is(err, contracts.ErrNoPrevious) {
			PrintWarning("No previous order stored for " + args[0])
		}
		return err
	}

	PrintSuccess(fmt.Sprintf("Restored order of %s (version %d)", rec.GroupingID, rec.Version))
	printOrder(rec)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	groupingID := args[0]

	rec, err := a.runner.Order(ctx, groupingID)
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		PrintInfo("No stored order for " + groupingID)
	case err != nil:
		return err
	default:
		printOrder(rec)
	}

	diag, err := a.runner.Diagnostics(ctx, groupingID)
	if errors.Is(err, runner.ErrNoDiagnostics) {
		PrintInfo("No diagnostics cached (run sort first)")
		return nil
	}
	if err != nil {
		return err
	}

	printDiagnostics(diag, showLimit)
	return nil
}

func printReport(report *runner.Report) {
	res := report.Result

	fmt.Println()
	PrintKeyValue("Outcome", string(res.Outcome), 12)
	PrintKeyValue("Strategy", res.Strategy, 12)
	if alternation.IsRandomized(res.Strategy) {
		PrintKeyValue("Seed", strconv.FormatInt(report.Seed, 10), 12)
	}
	PrintKeyValue("Items", strconv.Itoa(len(res.Ranked)), 12)
	PrintKeyValue("Moved", strconv.Itoa(res.Moved()), 12)
	if report.Record != nil {
		PrintKeyValue("Version", strconv.Itoa(report.Record.Version), 12)
	}

	fmt.Println()
	PrintTableHeader([]string{"Stage", "In", "Out", "Duration"}, stageWidths)
	for _, s := range res.Stages {
		PrintTableRow([]string{
			s.Stage.String(),
			strconv.Itoa(s.InputCount),
			strconv.Itoa(s.OutputCount),
			s.Duration.String(),
		}, stageWidths)
	}

	switch res.Outcome {
	case contracts.OutcomeNotApplicable:
		PrintWarning("Fewer than 2 brands: order left unchanged")
	case contracts.OutcomeEmpty:
		PrintWarning("Grouping has no items")
	}
}

var stageWidths = []int{10, 6, 6, 14}

func printOrder(rec *contracts.OrderRecord) {
	fmt.Println()
	PrintKeyValue("Grouping", rec.GroupingID, 12)
	PrintKeyValue("Version", strconv.Itoa(rec.Version), 12)
	PrintKeyValue("Strategy", rec.Strategy, 12)
	PrintKeyValue("Profile", shortHash(rec.ProfileHash), 12)
	PrintKeyValue("Updated", rec.UpdatedAt.Format(time.RFC3339), 12)
	PrintKeyValue("Undo ready", strconv.FormatBool(rec.HasPrevious()), 12)
	PrintKeyValue("Items", strconv.Itoa(len(rec.Current)), 12)
}

var diagWidths = []int{5, 5, 20, 12, 6, 6, 6, 9, 5}

func printDiagnostics(d *runner.Diagnostics, limit int) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  Diagnostics: %s (%s, %s)\n", d.GroupingID, d.Outcome, d.RanAt.Format(time.RFC3339))
	PrintSeparator()

	items := make([]runner.DiagnosticItem, len(d.Items))
	copy(items, d.Items)
	// final order first; unassigned rows keep rank order at the end
	sort.SliceStable(items, func(i, j int) bool {
		fi, fj := items[i].FinalPosition, items[j].FinalPosition
		if fi < 0 || fj < 0 {
			return fj < 0 && fi >= 0
		}
		return fi < fj
	})

	PrintTableHeader([]string{"Pos", "Rank", "Item", "Brand", "Score", "Dlv", "Price", "PriceAdj", "Slow"}, diagWidths)
	for i, it := range items {
		if limit > 0 && i >= limit {
			PrintInfo(fmt.Sprintf("%d more rows", len(items)-limit))
			break
		}
		pos := "-"
		if it.FinalPosition >= 0 {
			pos = strconv.Itoa(it.FinalPosition)
		}
		PrintTableRow([]string{
			pos,
			strconv.Itoa(it.RankPosition),
			truncate(it.ID, diagWidths[2]),
			truncate(it.Brand, diagWidths[3]),
			strconv.Itoa(it.ValueScore),
			strconv.Itoa(it.DeliveryRank),
			strconv.FormatFloat(it.Price, 'f', 0, 64),
			strconv.Itoa(it.PricePenalty),
			strconv.FormatBool(it.SlowOnly),
		}, diagWidths)
	}
}

func printSummary(s *runner.Summary) {
	fmt.Println()
	PrintKeyValue("Total", strconv.Itoa(s.Total), 15)
	PrintKeyValue("Sorted", strconv.Itoa(len(s.Sorted)), 15)
	PrintKeyValue("Not applicable", strconv.Itoa(len(s.NotApplicable)), 15)
	PrintKeyValue("Empty", strconv.Itoa(len(s.Empty)), 15)
	PrintKeyValue("Skipped", strconv.Itoa(len(s.Skipped)), 15)
	PrintKeyValue("Failed", strconv.Itoa(len(s.Failed)), 15)

	if len(s.Failed) > 0 {
		ids := make([]string, 0, len(s.Failed))
		for id := range s.Failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		lines := make([]string, len(ids))
		for i, id := range ids {
			lines[i] = id + ": " + s.Failed[id]
		}
		PrintWarning("Failed groupings")
		PrintList(lines)
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/libraryhub/internal/entrypoint"
	"github.com/mrlokans/libraryhub/internal/reports"
)

func newReportCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print circulation reports",
	}
	cmd.AddCommand(
		newOverdueReportCommand(opts),
		newMostBorrowedReportCommand(opts),
		newSummaryReportCommand(opts),
	)
	return cmd
}

func orID(name, id string) string {
	if name == "" {
		return id
	}
	return name
}

func newOverdueReportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "List copies past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				items, err := app.Reports.Overdue(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, items)
				}
				section(out, "Overdue books")
				if len(items) == 0 {
					success(out, "No overdue books")
					return nil
				}
				rows := make([][]string, len(items))
				for i, item := range items {
					rows[i] = []string{
						orID(item.StudentName, item.StudentID),
						orID(item.BookTitle, item.BookID),
						item.DueDate.Format("2006-01-02"),
						fmt.Sprint(item.DaysOverdue),
					}
				}
				renderTable(out, []string{"Student", "Book", "Due", "Days overdue"}, rows)
				return nil
			})
		},
	}
}

func newMostBorrowedReportCommand(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "most-borrowed",
		Short: "Rank books by times borrowed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				ranking, err := app.Reports.MostBorrowed(ctx, limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, ranking)
				}
				section(out, "Most borrowed")
				if len(ranking) == 0 {
					muted(out, "No borrowing history yet")
					return nil
				}
				rows := make([][]string, len(ranking))
				for i, bc := range ranking {
					rows[i] = []string{fmt.Sprint(i + 1), orID(bc.Title, bc.BookID), fmt.Sprint(bc.Count)}
				}
				renderTable(out, []string{"#", "Book", "Times borrowed"}, rows)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", reports.DefaultMostBorrowedLimit, "Number of books to list")
	return cmd
}

func newSummaryReportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, app *entrypoint.App) error {
				summary, err := app.Reports.Summary(ctx, time.Now().UTC())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.jsonOutput {
					return printJSON(out, summary)
				}
				section(out, "Library summary")
				renderTable(out, []string{"Metric", "Value"}, [][]string{
					{"Total books", fmt.Sprint(summary.TotalBooks)},
					{"Total students", fmt.Sprint(summary.TotalStudents)},
					{"Borrowed today", fmt.Sprint(summary.BorrowsToday)},
					{"Pending returns", fmt.Sprint(summary.PendingReturns)},
				})
				return nil
			})
		},
	}
}

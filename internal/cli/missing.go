package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/timeline"
)

func newMissingCmd(opts *options) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "missing",
		Short: "Print scheduled jobs that have no timecard yet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 0 || page > timeline.MaxPage {
				return fmt.Errorf("invalid page %d", page)
			}
			loc, err := opts.cfg.Location()
			if err != nil {
				return err
			}
			client, ctx, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			if pageSize <= 0 {
				pageSize = opts.cfg.Timeline.PageSize
			}

			view, err := feed.NewService(client, loc, pageSize).Missing(ctx, feed.MissingRequest{Page: page, PageSize: pageSize})
			if err != nil {
				return err
			}
			printMissing(cmd.OutOrStdout(), view)
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 0, "zero-based page")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "timecards per page (default timeline.page_size)")
	return cmd
}

func printMissing(w io.Writer, v *feed.MissingView) {
	fmt.Fprintln(w, headerStyle.Render("Missing timecards"))
	for _, key := range sortedKeys(v.Counts) {
		fmt.Fprintf(w, "  %-12s %s\n", key, countStyle.Render(fmt.Sprint(v.Counts[key])))
	}
	fmt.Fprintln(w)

	if len(v.Timecards) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("Every scheduled job has a timecard."))
		return
	}

	fmt.Fprintf(w, "%-12s %-20s %-20s %-12s %s\n", "Job", "Worker", "Site", "Expected", "Status")
	for _, m := range v.Timecards {
		job := m.JobNumber
		if job == "" {
			job = m.JobID
		}
		worker := m.WorkerName
		if worker == "" {
			worker = m.WorkerID
		}
		status := m.Status
		if status == "" {
			status = "pending"
		}
		line := fmt.Sprintf("%-12s %-20s %-20s %-12s %s",
			truncate(job, 12), truncate(worker, 20), truncate(m.SiteName, 20),
			m.ExpectedCompletion.Format("2006-01-02"), status)
		if m.Overdue {
			line = errorStyle.Render(line + " (overdue)")
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("page %d of %d · %d timecards", v.Page+1, max(v.TotalPages, 1), v.Total)))
}

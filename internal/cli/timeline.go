package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/eagle-green/mysked/internal/export"
	"github.com/eagle-green/mysked/internal/feed"
	"github.com/eagle-green/mysked/internal/timeline"
)

func newTimelineCmd(opts *options) *cobra.Command {
	var (
		tab      string
		page     int
		pageSize int
		xlsxPath string
	)

	cmd := &cobra.Command{
		Use:   "timeline <entity> <id>",
		Short: "Print one page of an entity's history timeline",
		Long: `Print one page of the merged history and inventory timeline of a
vehicle, site or employee. With --xlsx the whole tab is written to a
workbook instead.`,
		Example: `  mysked timeline vehicles 42
  mysked timeline vehicles 42 --tab site --page 1
  mysked timeline vehicles 42 --tab driver_assigned --xlsx drivers.xlsx`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entity, id := args[0], args[1]
			if !opts.cfg.HasEntity(entity) {
				return fmt.Errorf("unknown entity %q (configured: %v)", entity, opts.cfg.Timeline.Entities)
			}
			t, err := timeline.ParseTab(tab)
			if err != nil {
				return err
			}
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
			svc := feed.NewService(client, loc, pageSize)
			req := feed.Request{Entity: entity, ID: id, Tab: t, Page: page, PageSize: pageSize}

			if xlsxPath != "" {
				entries, err := svc.All(ctx, req)
				if err != nil {
					return err
				}
				if err := writeWorkbook(xlsxPath, entries, loc); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d entries to %s\n", len(entries), xlsxPath)
				return nil
			}

			result, err := svc.Timeline(ctx, req)
			if err != nil {
				return err
			}
			printTimeline(cmd.OutOrStdout(), entity, id, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tab, "tab", "t", string(timeline.TabAll), "tab: all, site or an action type")
	cmd.Flags().IntVarP(&page, "page", "p", 0, "zero-based page")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "entries per page (default timeline.page_size)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the whole tab to this XLSX file")
	return cmd
}

func writeWorkbook(path string, entries []timeline.Entry, loc *time.Location) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if err := export.WriteTimeline(f, entries, loc); err != nil {
		return err
	}
	return f.Close()
}

func printTimeline(w io.Writer, entity, id string, p *feed.Page) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("%s %s · %s", entity, id, p.Tab)))
	if len(p.Entries) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No history yet."))
		return
	}

	for _, e := range p.Entries {
		title := e.Display.Title
		if e.Display.Quantity > 0 {
			title = fmt.Sprintf("%s ×%d", title, e.Display.Quantity)
		}
		fmt.Fprintf(w, "%s  %s\n", entryStyle(e.Display.Color).Render(title), mutedStyle.Render(e.Display.Relative))
		fmt.Fprintf(w, "  %s\n", e.Display.Description)
		if e.Group != nil {
			for _, m := range e.Group.Transactions {
				fmt.Fprintf(w, "    %d × %s\n", m.Quantity, m.InventoryName)
			}
		}
	}
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("page %d of %d · %d entries", p.Page+1, max(p.TotalPages, 1), p.Total)))
}

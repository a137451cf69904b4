package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jonboulle/clockwork"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/trends-etl-service/internal/aggregate"
	"github.com/couchcryptid/trends-etl-service/internal/domain"
	"github.com/couchcryptid/trends-etl-service/internal/observability"
	"github.com/couchcryptid/trends-etl-service/internal/snapshot"
)

func newShowCmd(a *app) *cobra.Command {
	var window string

	cmd := &cobra.Command{
		Use:   "show REGION",
		Short: "Print the stored view of a region",
		Long: `Print the aggregated view of a region as a table. Reads stored snapshots
only; no source is contacted. The embedded pebble store admits one
process at a time, so query GET /v1/trends/{region} while serve is running.

Windows: yesterday (single day) or last_7_days (default).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			region, err := domain.ParseRegion(args[0])
			if err != nil {
				return err
			}
			w, err := domain.ParseWindow(window)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			repo, err := openRepository(ctx, a.cfg)
			if err != nil {
				return fmt.Errorf("open snapshot store: %w", err)
			}
			defer repo.Close()

			clock := clockwork.NewRealClock()
			store := snapshot.NewStore(repo, clock, a.logger)
			reader := aggregate.NewReader(aggregate.NewAggregator(store, clock), nil, a.cfg.StoreTimeout, clock, a.logger, observability.NewMetrics())

			view, err := reader.Read(ctx, region, w)
			if err != nil {
				return err
			}
			return renderView(cmd.OutOrStdout(), region, w, view, clock.Now())
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "last_7_days", "view window: yesterday or last_7_days")
	return cmd
}

// renderView writes a header line and the topic table of view. A nil view
// prints a "no data" notice.
func renderView(w io.Writer, region domain.Region, window domain.Window, view *domain.WindowView, now time.Time) error {
	bold := color.New(color.Bold)
	faint := color.New(color.Faint)

	if view == nil {
		_, err := color.New(color.FgYellow).Fprintf(w, "%s %s: no data\n", region, window)
		return err
	}

	bold.Fprintf(w, "%s %s", view.Region, view.Window)
	faint.Fprintf(w, "  source=%s fetched %s", view.Provenance, humanize.RelTime(view.FetchedAt, now, "ago", "from now"))
	if view.Legacy {
		color.New(color.FgYellow).Fprint(w, "  (legacy)")
	}
	fmt.Fprintln(w)

	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header([]string{"#", "Title", "Volume", "Started", "Days"})

	rows := make([][]string, 0, len(view.Topics))
	for i, t := range view.Topics {
		days := ""
		if t.DaysOngoing > 0 {
			days = color.GreenString("%dd", t.DaysOngoing)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), t.Title, t.SearchVolume, t.StartedAgo, days})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/itbi-consulta/internal/report"
)

// createReportCmd creates the report subcommand
func createReportCmd(a *app) *cobra.Command {
	var (
		flags    filterFlags
		selected []int
		pick     bool
		htmlPath string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a report over selected search results",
		Long:  `Runs a search and builds the report over the selected rows (--select or --pick), or over every row when none is selected. Writes JSON to stdout, or the printable page with --html.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !a.settings.Reports {
				return fmt.Errorf("reports are disabled (ENABLE_REPORTS=false)")
			}

			ctx := cmd.Context()
			f, err := flags.filter(cmd)
			if err != nil {
				return err
			}

			res, err := a.searcher(ctx).Search(ctx, f)
			if err != nil {
				return err
			}
			if res.Notice != "" {
				fmt.Fprintln(os.Stderr, res.Notice)
			}

			if pick && len(res.Rows) > 0 {
				if selected, err = pickRows(res.Rows); err != nil {
					return err
				}
			}

			rep, err := report.Build(res.Rows, selected, f, time.Now())
			if err != nil {
				return err
			}

			if htmlPath == "" {
				return printJSON(rep)
			}

			out, err := os.Create(htmlPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", htmlPath, err)
			}
			defer out.Close()

			if err := report.RenderHTML(out, rep); err != nil {
				return err
			}
			fmt.Printf("Report %s written to %s (%d rows)\n", rep.ID, htmlPath, len(rep.Rows))
			return out.Close()
		},
	}

	flags.bind(cmd)
	cmd.Flags().IntSliceVar(&selected, "select", nil, "row indexes to include (as shown by search)")
	cmd.Flags().BoolVar(&pick, "pick", false, "select rows interactively")
	cmd.Flags().StringVar(&htmlPath, "html", "", "write the printable HTML page to this file")
	cmd.MarkFlagsMutuallyExclusive("select", "pick")
	return cmd
}

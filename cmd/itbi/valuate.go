package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itbi-consulta/internal/report"
	"github.com/itbi-consulta/internal/resolve"
	"github.com/itbi-consulta/internal/valuation"
)

// createValuateCmd creates the valuate subcommand
func createValuateCmd(a *app) *cobra.Command {
	var (
		flags    filterFlags
		selected []int
		pick     bool
		price    float64
		area     float64
		target   resolve.Lookup
		address  string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "valuate",
		Short: "Estimate a property's value from comparable transactions",
		Long: `With --price, multiplies --area by that price per m².
Otherwise searches reference transactions, averages the value per m² of the
selected ones and applies it to the target property's built area, resolved
from --target-street/--target-number/--target-complement or --address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if cmd.Flags().Changed("price") {
				est, err := valuation.Estimate(price, area)
				if err != nil {
					return err
				}
				if asJSON {
					return printJSON(est)
				}
				fmt.Printf("Valor estimado: %s\n", report.Currency(est.Value.InexactFloat64()))
				return nil
			}

			f, err := flags.filter(cmd)
			if err != nil {
				return err
			}
			engine := a.searcher(ctx)

			if pick {
				res, err := engine.Search(ctx, f)
				if err != nil {
					return err
				}
				if selected, err = pickRows(res.Rows); err != nil {
					return err
				}
			}

			cmp, err := valuation.Compare(ctx, engine, a.resolver(), valuation.Request{
				Filter:     f,
				Selected:   selected,
				Target:     target,
				TargetText: address,
				Area:       area,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmp)
			}

			fmt.Printf("Referência: %d transação(ões), média %s por m²\n", len(cmp.ReferenceRows), report.Currency(cmp.ReferencePrice))
			if cmp.Resolution.Found {
				fmt.Printf("Imóvel: %s, %s m²\n", cmp.Resolution.Property.FormattedAddress, report.Area(cmp.Resolution.BuiltArea))
			}
			if cmp.Estimate == nil {
				fmt.Printf("Sem estimativa: %s\n", cmp.Notice)
				return nil
			}
			fmt.Printf("Valor estimado: %s\n", report.Currency(cmp.Estimate.Value.InexactFloat64()))
			return nil
		},
	}

	flags.bind(cmd)
	fs := cmd.Flags()
	fs.IntSliceVar(&selected, "select", nil, "reference row indexes (default: all results)")
	fs.BoolVar(&pick, "pick", false, "select reference rows interactively")
	fs.Float64Var(&price, "price", 0, "reference price per m²; skips the search")
	fs.Float64Var(&area, "area", 0, "target built area in m² (overrides the resolved area)")
	fs.StringVar(&target.Street, "target-street", "", "target property street")
	fs.IntVar(&target.Number, "target-number", 0, "target property number")
	fs.StringVar(&target.Complement, "target-complement", "", "target property complement")
	fs.StringVar(&address, "address", "", "target property as free text")
	fs.BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.MarkFlagsMutuallyExclusive("select", "pick")
	return cmd
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/itbi-consulta/internal/model"
	"github.com/itbi-consulta/internal/query"
	"github.com/itbi-consulta/internal/report"
	"github.com/itbi-consulta/internal/termui"
)

// filterFlags binds the search flags shared by search, report and valuate.
type filterFlags struct {
	street    string
	number    int
	numberMin int
	numberMax int
	areaMin   float64
	areaMax   float64
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.street, "street", "", "street name contains (case-insensitive)")
	fs.IntVar(&f.number, "number", 0, "exact house number (0 matches only number 0)")
	fs.IntVar(&f.numberMin, "number-min", 0, "house number range start (inclusive)")
	fs.IntVar(&f.numberMax, "number-max", 10000, "house number range end (inclusive)")
	fs.Float64Var(&f.areaMin, "area-min", 0, "built area range start (m²)")
	fs.Float64Var(&f.areaMax, "area-max", 5000, "built area range end (m²)")
	cmd.MarkFlagsMutuallyExclusive("number", "number-min")
	cmd.MarkFlagsMutuallyExclusive("number", "number-max")
}

func (f *filterFlags) filter(cmd *cobra.Command) (query.Filter, error) {
	fs := cmd.Flags()
	filter := query.Filter{StreetContains: f.street, Number: query.Exact(f.number)}
	if fs.Changed("number-min") || fs.Changed("number-max") {
		filter.Number = query.Between(f.numberMin, f.numberMax)
	}
	if fs.Changed("area-min") || fs.Changed("area-max") {
		filter = filter.WithArea(f.areaMin, f.areaMax)
	}
	return filter, filter.Validate()
}

var tableHeader = []string{"#", "Logradouro", "Número", "Complemento", "Valor", "Data", "Área (m²)", "Valor/m²"}

func tableRows(rows []model.Transaction) [][]string {
	out := make([][]string, len(rows))
	for i, t := range rows {
		r := report.DisplayRow(t)
		out[i] = []string{strconv.Itoa(i), r.Street, strconv.Itoa(r.Number), r.Complement, r.Value, r.Date, r.BuiltArea, r.ValuePerArea}
	}
	return out
}

// pickRows lets the user mark rows on the terminal. A non-interactive stdin
// selects nothing.
func pickRows(rows []model.Transaction) ([]int, error) {
	selected, err := termui.Pick(os.Stdin, os.Stdout, termui.Lines(tableRows(rows)))
	if errors.Is(err, termui.ErrNotTerminal) {
		return nil, nil
	}
	return selected, err
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// createSearchCmd creates the search subcommand
func createSearchCmd(a *app) *cobra.Command {
	var (
		flags  filterFlags
		asJSON bool
		pick   bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search ITBI transactions by street, number and built area",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			f, err := flags.filter(cmd)
			if err != nil {
				return err
			}

			res, err := a.searcher(ctx).Search(ctx, f)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(res)
			}
			if res.Notice != "" {
				fmt.Println(res.Notice)
				return nil
			}
			if len(res.Rows) == 0 {
				fmt.Println("Nenhum resultado encontrado com os critérios de busca especificados.")
				return nil
			}

			var selected []int
			if pick {
				if selected, err = pickRows(res.Rows); err != nil {
					return err
				}
			}

			if err := termui.Table(os.Stdout, tableHeader, tableRows(res.Rows)); err != nil {
				return err
			}

			var picked []model.Transaction
			scope := report.ScopeAll
			if len(selected) > 0 {
				if picked, err = query.Select(res.Rows, selected); err != nil {
					return err
				}
				scope = report.ScopeSelected
			} else {
				picked = res.Rows
			}
			st := report.Compute(picked, scope)
			fmt.Printf("\n%d resultado(s); média sobre %d (%s)\n", len(res.Rows), st.Count, st.Scope)
			fmt.Printf("  Média do valor de transação: %s\n", st.MeanValueText)
			fmt.Printf("  Média do valor por m²:       %s\n", st.MeanValuePerAreaText)
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&pick, "pick", false, "select rows interactively for the statistics")
	return cmd
}

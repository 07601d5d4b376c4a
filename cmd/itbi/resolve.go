package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itbi-consulta/internal/report"
	"github.com/itbi-consulta/internal/resolve"
)

// createResolveCmd creates the resolve subcommand
func createResolveCmd(a *app) *cobra.Command {
	var (
		lookup resolve.Lookup
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "resolve [address]",
		Short: "Look up a property's built area in the IPTU roll",
		Long:  `Looks up by --street/--number/--complement, or parses a free-text address given as argument.`,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			r := a.resolver()

			var res resolve.Resolution
			if len(args) > 0 {
				res = r.ResolveText(ctx, strings.Join(args, " "))
			} else {
				res = r.Resolve(ctx, lookup)
			}

			if asJSON {
				return printJSON(res)
			}
			if res.Parsed != nil {
				fmt.Printf("Endereço interpretado: %s, %d %s\n", res.Parsed.Street, res.Parsed.Number, res.Parsed.Complement)
			}
			if !res.Found {
				fmt.Printf("Imóvel não encontrado (%s)\n", res.Notice)
				return nil
			}
			fmt.Printf("%s\n", res.Property.FormattedAddress)
			fmt.Printf("  Área construída: %s m²\n", report.Area(res.BuiltArea))
			return nil
		},
	}

	cmd.Flags().StringVar(&lookup.Street, "street", "", "street name contains")
	cmd.Flags().IntVar(&lookup.Number, "number", 0, "house number (0 = any)")
	cmd.Flags().StringVar(&lookup.Complement, "complement", "", "complement contains")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

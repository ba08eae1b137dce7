package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"credit-sales/policy"
)

func newPolicyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "policy [query]",
		Short:   "Look up credit policies",
		Long:    "Look up credit policies by keyword. Without a query, list the available topics.",
		Example: "  credit-sales policy requisitos\n  credit-sales policy tasas y plazos",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := policy.LoadFile(a.cfg.Policy.File)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, key := range catalog.Keys() {
					fmt.Fprintln(out, key)
				}
				return nil
			}
			fmt.Fprintln(out, strings.TrimRight(catalog.Lookup(strings.Join(args, " ")), "\n"))
			return nil
		},
	}
}

package cmd

import (
	"github.com/spf13/cobra"

	"ticketclassifier/internal/clix"
	"ticketclassifier/internal/fileingest"
	"ticketclassifier/internal/report"
)

func newCategoriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Validate a categories file and print it as a table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := clix.RequiredPath(cmd.Flags(), "categories")
			if err != nil {
				return err
			}
			taxonomy, err := fileingest.LoadCategories(path)
			if err != nil {
				return err
			}
			report.PrintTaxonomy(cmd.OutOrStdout(), taxonomy)
			return nil
		},
	}
	cmd.Flags().StringP("categories", "c", "", "Path to the categories JSON file")
	return cmd
}

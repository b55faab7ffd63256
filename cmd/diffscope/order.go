package main

import (
	"fmt"
	"io"

	"github.com/agusespa/diffscope/internal/types"
	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Print the changed files in review order",
	Long: `Print the changed files ordered by their import dependencies.

top-down lists files before the files they import, bottom-up lists
dependencies first. Files that cannot be placed (deleted, non-source)
come last in lexicographic order.

Examples:
  diffscope order
  diffscope order --base main --head HEAD --direction bottom-up
  diffscope order --format json`,
	Args: cobra.NoArgs,
	RunE: runOrder,
}

func init() {
	rootCmd.AddCommand(orderCmd)
}

func runOrder(cmd *cobra.Command, _ []string) error {
	env, err := setup()
	if err != nil {
		return err
	}

	ordering, err := env.agent.Order(cmd.Context(), baseFlag, revision(headFlag), types.ParseOrderDirection(directionFlag))
	if err != nil {
		return err
	}

	return withOutput(cmd.OutOrStdout(), func(w io.Writer) error {
		if formatFlag == "json" {
			return writeJSON(w, ordering)
		}
		if ordering.Approximate {
			fmt.Fprintf(w, "# %s order (approximate, %d import edges ignored to break cycles)\n", ordering.Direction, len(ordering.BrokenEdges))
		}
		for _, p := range ordering.Paths {
			fmt.Fprintln(w, p)
		}
		return nil
	})
}

package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "report per-node instance counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var counts map[string]int
		if err := newClient().do("GET", "/api/instances/counts", nil, &counts); err != nil {
			return err
		}

		ids := make([]string, 0, len(counts))
		for id := range counts {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NODE\tINSTANCES")
		for _, id := range ids {
			fmt.Fprintf(w, "%s\t%d\n", id, counts[id])
		}
		w.Flush()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(instancesCmd)
}

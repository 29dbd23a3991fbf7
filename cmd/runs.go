package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	runsLimit  int
	runsOffset int
	runsShow   string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List or show stored screening runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if runsShow != "" {
			run, err := st.GetRun(ctx, runsShow)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		summaries, err := st.ListRuns(ctx, runsLimit, runsOffset)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLAT\tLON\tDOMAINS\tCREATED")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%d\t%s\n",
				s.ID, s.Lat, s.Lon, s.Domains, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")
	runsCmd.Flags().IntVar(&runsOffset, "offset", 0, "listing offset")
	runsCmd.Flags().StringVar(&runsShow, "show", "", "print one run as JSON by id")
	rootCmd.AddCommand(runsCmd)
}

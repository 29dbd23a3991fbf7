package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List the configured screening domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		domains, err := loadDomainProfile()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTITLE\tLAYERS\tLADDER (MI)\tEXTENDED (MI)")
		for _, d := range domains {
			ladder := make([]string, len(d.Proximity.Ladder))
			for i, r := range d.Proximity.Ladder {
				ladder[i] = fmt.Sprintf("%g", r)
			}
			ext := "-"
			if d.Proximity.ExtendedRadius > 0 {
				ext = fmt.Sprintf("%g", d.Proximity.ExtendedRadius)
			}
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				d.Name, d.Title, len(d.Proximity.Layers), strings.Join(ladder, ", "), ext)
		}
		return w.Flush()
	},
}

func init() { rootCmd.AddCommand(domainsCmd) }

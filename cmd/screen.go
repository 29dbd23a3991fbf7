package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/internal/report"
	"github.com/sells-group/envscreen/internal/screening"
)

var (
	screenLat     float64
	screenLon     float64
	screenDomains []string
	screenJSON    bool
	screenXLSX    string
	screenSave    bool
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Screen a point against the configured regulatory domains",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		origin, err := geo.NewPoint(screenLon, screenLat)
		if err != nil {
			return err
		}

		domains, err := loadDomainProfile()
		if err != nil {
			return err
		}
		domains, err = screening.SelectDomains(domains, screenDomains)
		if err != nil {
			return err
		}

		screener := screening.New(newQuerierFactory(),
			screening.WithConcurrency(cfg.Screening.Concurrency),
		)

		run, err := screener.Screen(ctx, origin, domains)
		if err != nil {
			return eris.Wrap(err, "screen")
		}

		if screenSave {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.SaveRun(ctx, run); err != nil {
				return eris.Wrap(err, "save run")
			}
			zap.L().Info("run saved", zap.String("id", run.ID))
		}

		if screenXLSX != "" {
			if err := report.WriteXLSX(run, screenXLSX); err != nil {
				return eris.Wrap(err, "write xlsx")
			}
			zap.L().Info("xlsx written", zap.String("path", screenXLSX))
		}

		if screenJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		}

		fmt.Print(report.RenderText(run))
		return nil
	},
}

// loadDomainProfile returns the YAML-configured domains when set, otherwise
// the builtin profile.
func loadDomainProfile() ([]screening.DomainConfig, error) {
	if cfg.Screening.DomainsFile != "" {
		return screening.LoadDomains(cfg.Screening.DomainsFile)
	}
	return screening.BuiltinDomains(), nil
}

func init() {
	screenCmd.Flags().Float64Var(&screenLat, "lat", 0, "latitude in decimal degrees (required)")
	screenCmd.Flags().Float64Var(&screenLon, "lon", 0, "longitude in decimal degrees (required)")
	screenCmd.Flags().StringSliceVar(&screenDomains, "domain", nil, "domain names to screen (default all)")
	screenCmd.Flags().BoolVar(&screenJSON, "json", false, "print the full run as JSON")
	screenCmd.Flags().StringVar(&screenXLSX, "xlsx", "", "write the feature tables to this XLSX file")
	screenCmd.Flags().BoolVar(&screenSave, "save", false, "persist the run in the configured store")
	_ = screenCmd.MarkFlagRequired("lat")
	_ = screenCmd.MarkFlagRequired("lon")
	rootCmd.AddCommand(screenCmd)
}

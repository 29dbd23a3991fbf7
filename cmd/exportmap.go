package main

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/envscreen/internal/geo"
	"github.com/sells-group/envscreen/pkg/mapservice"
)

var (
	exportLat    float64
	exportLon    float64
	exportBuffer float64
	exportRun    string
	exportDomain string
	exportLayers []int
	exportOut    string
	exportWidth  int
	exportHeight int
)

var exportMapCmd = &cobra.Command{
	Use:   "export-map",
	Short: "Export a map image centered on a point or a stored run",
	Long:  "Renders a PNG from the configured map service. Either pass --lat/--lon/--buffer directly, or --run/--domain to reuse the origin and adaptive buffer of a stored screening run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if cfg.MapService.URL == "" {
			return eris.New("export-map: map_service.url is not configured")
		}

		center := geo.Point{Lon: exportLon, Lat: exportLat}
		buffer := exportBuffer
		layers := exportLayers

		if exportRun != "" {
			if exportDomain == "" {
				return eris.New("export-map: --domain is required with --run")
			}

			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			run, err := st.GetRun(ctx, exportRun)
			if err != nil {
				return err
			}

			found := false
			for _, d := range run.Domains {
				if d.Domain != exportDomain {
					continue
				}
				if d.Result == nil {
					return eris.Errorf("export-map: domain %s has no result in run %s", exportDomain, exportRun)
				}
				center = run.Origin
				buffer = d.Result.BufferMiles
				found = true
				break
			}
			if !found {
				return eris.Errorf("export-map: run %s has no domain %s", exportRun, exportDomain)
			}

			if len(layers) == 0 {
				domains, err := loadDomainProfile()
				if err != nil {
					return err
				}
				for _, d := range domains {
					if d.Name == exportDomain {
						layers = d.MapLayerIDs
						break
					}
				}
			}
		}

		if err := center.Validate(); err != nil {
			return err
		}

		client := mapservice.NewClient(cfg.MapService.URL,
			mapservice.WithTimeout(time.Duration(cfg.MapService.TimeoutSecs)*time.Second),
		)

		img, err := client.ExportMap(ctx, mapservice.ExportRequest{
			Center:        center,
			BufferMiles:   buffer,
			VisibleLayers: layers,
			Basemap:       cfg.MapService.Basemap,
			Transparency:  cfg.MapService.Transparency,
			Width:         exportWidth,
			Height:        exportHeight,
		})
		if err != nil {
			return eris.Wrap(err, "export map")
		}

		if err := os.WriteFile(exportOut, img, 0o644); err != nil {
			return eris.Wrapf(err, "write %s", exportOut)
		}
		zap.L().Info("map exported",
			zap.String("path", exportOut),
			zap.Float64("buffer_miles", buffer),
			zap.Int("bytes", len(img)),
		)
		return nil
	},
}

func init() {
	exportMapCmd.Flags().Float64Var(&exportLat, "lat", 0, "center latitude in decimal degrees")
	exportMapCmd.Flags().Float64Var(&exportLon, "lon", 0, "center longitude in decimal degrees")
	exportMapCmd.Flags().Float64Var(&exportBuffer, "buffer", 0.5, "map radius in miles")
	exportMapCmd.Flags().StringVar(&exportRun, "run", "", "stored run id to render from")
	exportMapCmd.Flags().StringVar(&exportDomain, "domain", "", "domain within the stored run")
	exportMapCmd.Flags().IntSliceVar(&exportLayers, "layer", nil, "layer ids to show (default from the domain profile)")
	exportMapCmd.Flags().StringVar(&exportOut, "out", "map.png", "output image path")
	exportMapCmd.Flags().IntVar(&exportWidth, "width", 800, "image width in pixels")
	exportMapCmd.Flags().IntVar(&exportHeight, "height", 800, "image height in pixels")
	rootCmd.AddCommand(exportMapCmd)
}

// Package report renders a screening run for humans: a plain-text summary
// and an XLSX feature table. It carries the engine's attribute content
// opaquely; regulatory interpretation happens elsewhere.
package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/envscreen/internal/screening"
)

// RenderText formats a screening run as a plain-text report.
func RenderText(run *screening.Run) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Screening run %s\n", run.ID)
	fmt.Fprintf(&b, "Point: %.6f, %.6f (lat, lon)\n", run.Origin.Lat, run.Origin.Lon)
	fmt.Fprintf(&b, "Date:  %s\n\n", run.CreatedAt.Format("2006-01-02 15:04 MST"))

	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DOMAIN\tSTATUS\tNEAREST\tBEARING\tBUFFER (MI)")

	for _, d := range run.Domains {
		if d.Result == nil {
			fmt.Fprintf(w, "%s\tunavailable (%s)\t-\t-\t-\n", d.Title, firstLine(d.Error))
			continue
		}
		r := d.Result
		switch {
		case r.Intersects:
			fmt.Fprintf(w, "%s\tON SITE (%d features)\t0.00\t-\t%.2f\n",
				d.Title, len(r.FeaturesAtOrigin), r.BufferMiles)
		case r.Nearest != nil:
			fmt.Fprintf(w, "%s\twithin %.1f mi\t%.2f\t%s\t%.2f\n",
				d.Title, r.SearchRadiusUsed, r.Nearest.DistanceMiles, r.Nearest.Bearing, r.BufferMiles)
		default:
			fmt.Fprintf(w, "%s\tnone within %.1f mi\t-\t-\t%.2f\n",
				d.Title, r.SearchRadiusUsed, r.BufferMiles)
		}
	}
	_ = w.Flush()

	for _, d := range run.Domains {
		if d.Result == nil || len(d.Result.Failures) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nWarning: feature data unavailable for %s from:\n", d.Title)
		for _, f := range d.Result.Failures {
			fmt.Fprintf(&b, "  - layer %s (%s)\n", f.Layer, f.Op)
		}
	}

	for _, d := range run.Domains {
		if d.Result != nil && d.Result.Approximate {
			fmt.Fprintf(&b, "\nNote: %s includes coordinates converted with a reduced-accuracy datum fallback.\n", d.Title)
		}
	}

	return b.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

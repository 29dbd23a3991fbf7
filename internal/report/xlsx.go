package report

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/envscreen/internal/screening"
)

// WriteXLSX exports a screening run as a workbook: one summary sheet plus a
// feature table per domain with results.
func WriteXLSX(run *screening.Run, path string) error {
	file := xlsx.NewFile()

	summary, err := file.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "report: add summary sheet")
	}

	header := summary.AddRow()
	for _, h := range []string{"Domain", "Intersects", "Nearest (mi)", "Bearing", "Search Radius (mi)", "Buffer (mi)", "Features", "Layer Failures", "Error"} {
		header.AddCell().Value = h
	}

	for _, d := range run.Domains {
		row := summary.AddRow()
		row.AddCell().Value = d.Title
		if d.Result == nil {
			for i := 0; i < 7; i++ {
				row.AddCell().Value = ""
			}
			row.AddCell().Value = d.Error
			continue
		}
		r := d.Result
		row.AddCell().SetBool(r.Intersects)
		if r.Nearest != nil {
			row.AddCell().SetFloat(r.Nearest.DistanceMiles)
			row.AddCell().Value = r.Nearest.Bearing
		} else {
			row.AddCell().Value = ""
			row.AddCell().Value = ""
		}
		row.AddCell().SetFloat(r.SearchRadiusUsed)
		row.AddCell().SetFloat(r.BufferMiles)
		row.AddCell().SetInt(len(r.FeaturesInRadius) + len(r.FeaturesAtOrigin))
		row.AddCell().SetInt(len(r.Failures))
		row.AddCell().Value = ""
	}

	for _, d := range run.Domains {
		if d.Result == nil {
			continue
		}
		if len(d.Result.FeaturesInRadius) == 0 && len(d.Result.FeaturesAtOrigin) == 0 {
			continue
		}
		if err := addDomainSheet(file, d); err != nil {
			return err
		}
	}

	return eris.Wrapf(file.Save(path), "report: save %s", path)
}

func addDomainSheet(file *xlsx.File, d screening.DomainResult) error {
	name := d.Domain
	if len(name) > 31 { // sheet name limit
		name = name[:31]
	}
	sheet, err := file.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "report: add sheet %s", name)
	}

	keys := attributeKeys(d)

	header := sheet.AddRow()
	for _, h := range []string{"Layer", "Kind", "Precision", "Distance (mi)", "Bearing"} {
		header.AddCell().Value = h
	}
	for _, k := range keys {
		header.AddCell().Value = k
	}

	for _, rec := range d.Result.FeaturesAtOrigin {
		row := sheet.AddRow()
		row.AddCell().Value = rec.SourceLayer
		row.AddCell().Value = rec.Kind.String()
		row.AddCell().Value = rec.Precision.String()
		row.AddCell().SetFloat(0)
		row.AddCell().Value = "-"
		for _, k := range keys {
			row.AddCell().Value = attrString(rec.Attributes, k)
		}
	}

	for _, c := range d.Result.FeaturesInRadius {
		row := sheet.AddRow()
		row.AddCell().Value = c.Feature.SourceLayer
		row.AddCell().Value = c.Feature.Kind.String()
		row.AddCell().Value = c.Feature.Precision.String()
		row.AddCell().SetFloat(c.DistanceMiles)
		row.AddCell().Value = c.Bearing
		for _, k := range keys {
			row.AddCell().Value = attrString(c.Feature.Attributes, k)
		}
	}

	return nil
}

// attributeKeys collects the union of attribute names across the domain's
// features, sorted for a stable column order.
func attributeKeys(d screening.DomainResult) []string {
	set := map[string]struct{}{}
	for _, rec := range d.Result.FeaturesAtOrigin {
		for k := range rec.Attributes {
			set[k] = struct{}{}
		}
	}
	for _, c := range d.Result.FeaturesInRadius {
		for k := range c.Feature.Attributes {
			set[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func attrString(attrs map[string]any, key string) string {
	v, ok := attrs[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

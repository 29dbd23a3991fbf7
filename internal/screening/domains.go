package screening

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/envscreen/internal/proximity"
)

// DomainConfig describes one regulatory domain: where its feature service
// lives, which layers to query, and the engine parameters it supplies. The
// regulatory meaning of the attributes (NWI codes, FIRM zones, PRAPEC names)
// stays opaque to the engine.
type DomainConfig struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`

	// ServiceURL is the ArcGIS REST service root for this domain. Empty
	// means the domain expects a locally configured source (shapefiles).
	ServiceURL string `json:"service_url" yaml:"service_url"`

	// MapLayerIDs are the service layer ids made visible on exported maps.
	MapLayerIDs []int `json:"map_layer_ids,omitempty" yaml:"map_layer_ids,omitempty"`

	Proximity proximity.Options `json:"proximity" yaml:"proximity"`
}

// Validate checks the parts of the config the engine depends on.
func (d DomainConfig) Validate() error {
	if d.Name == "" {
		return eris.New("screening: domain name is required")
	}
	if len(d.Proximity.Layers) == 0 {
		return eris.Errorf("screening: domain %s has no layers", d.Name)
	}
	if len(d.Proximity.Ladder) == 0 {
		return eris.Errorf("screening: domain %s has no radius ladder", d.Name)
	}
	return nil
}

// standardLadder is the default radius ladder in miles, shared by most
// domains. Karst uses a wider ladder because PRAPEC zones are sparse.
var standardLadder = []float64{0.1, 0.5, 1.0, 2.0, 5.0}

// BuiltinDomains returns the Puerto Rico screening profile. A YAML domains
// file (LoadDomains) replaces this wholesale when configured.
func BuiltinDomains() []DomainConfig {
	return []DomainConfig{
		{
			Name:       "wetland",
			Title:      "Wetlands (NWI)",
			ServiceURL: "https://fwsprimary.wim.usgs.gov/server/rest/services/Wetlands/MapServer",
			MapLayerIDs: []int{0},
			Proximity: proximity.Options{
				Layers: []proximity.Layer{
					{ID: "0", Name: "Wetlands", IdentityFields: []string{"ATTRIBUTE", "WETLAND_TYPE", "ACRES"}},
				},
				Ladder:          standardLadder,
				ExtendedRadius:  10.0,
				MaxResults:      25,
				DomainOffset:    0.25,
				MinBuffer:       0.5,
				MaxBuffer:       5.0,
				IntersectBuffer: 0.5,
				FallbackBuffer:  2.0,
			},
		},
		{
			Name:       "flood",
			Title:      "Flood Hazard (FIRM)",
			ServiceURL: "https://hazards.fema.gov/arcgis/rest/services/public/NFHL/MapServer",
			MapLayerIDs: []int{28},
			Proximity: proximity.Options{
				Layers: []proximity.Layer{
					{ID: "28", Name: "Flood Hazard Zones", IdentityFields: []string{"FLD_ZONE", "ZONE_SUBTY", "FLD_AR_ID"}},
				},
				Ladder:          standardLadder,
				ExtendedRadius:  0, // the NFHL blankets mapped territory; a miss is a real gap
				MaxResults:      25,
				DomainOffset:    0.25,
				MinBuffer:       0.5,
				MaxBuffer:       5.0,
				IntersectBuffer: 0.5,
				FallbackBuffer:  2.0,
			},
		},
		{
			Name:       "habitat",
			Title:      "Critical Habitat (USFWS)",
			ServiceURL: "https://services.arcgis.com/QVENGdaPbd4LUkLV/ArcGIS/rest/services/USFWS_Critical_Habitat/FeatureServer",
			MapLayerIDs: []int{0, 1},
			Proximity: proximity.Options{
				// Final and proposed polygon layers overlap for many species;
				// identity fields keep one record per designation.
				Layers: []proximity.Layer{
					{ID: "0", Name: "Final Critical Habitat", IdentityFields: []string{"comname", "sciname", "unitname"}},
					{ID: "1", Name: "Proposed Critical Habitat", IdentityFields: []string{"comname", "sciname", "unitname"}},
				},
				Ladder:          standardLadder,
				ExtendedRadius:  10.0,
				MaxResults:      25,
				DomainOffset:    0.5,
				MinBuffer:       0.5,
				MaxBuffer:       6.0,
				IntersectBuffer: 0.5,
				FallbackBuffer:  3.0,
			},
		},
		{
			Name:       "karst",
			Title:      "Karst (PRAPEC)",
			ServiceURL: "https://sige.pr.gov/server/rest/services/Ambientales/Carso/MapServer",
			MapLayerIDs: []int{0},
			Proximity: proximity.Options{
				Layers: []proximity.Layer{
					{ID: "0", Name: "PRAPEC Karst Zone", IdentityFields: []string{"ZONA", "NOMBRE"}},
				},
				Ladder:          []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
				ExtendedRadius:  15.0,
				MaxResults:      10,
				DomainOffset:    0.5,
				MinBuffer:       0.5,
				MaxBuffer:       8.0,
				IntersectBuffer: 0.5,
				FallbackBuffer:  3.0,
			},
		},
		{
			Name:       "air",
			Title:      "Air Quality Nonattainment (EPA)",
			ServiceURL: "https://gispub.epa.gov/arcgis/rest/services/OAR_OAQPS/NonattainmentAreas/MapServer",
			MapLayerIDs: []int{0},
			Proximity: proximity.Options{
				Layers: []proximity.Layer{
					{ID: "0", Name: "Nonattainment Areas", IdentityFields: []string{"area_name", "pollutant_name"}},
				},
				Ladder:          []float64{0.5, 1.0, 2.0, 5.0},
				ExtendedRadius:  0,
				MaxResults:      10,
				DomainOffset:    0.5,
				MinBuffer:       1.0,
				MaxBuffer:       10.0,
				IntersectBuffer: 1.0,
				FallbackBuffer:  3.0,
			},
		},
		{
			Name:       "cadastral",
			Title:      "Cadastral Parcels (CRIM)",
			ServiceURL: "https://sige.pr.gov/server/rest/services/Catastro/Parcelas/MapServer",
			MapLayerIDs: []int{0},
			Proximity: proximity.Options{
				Layers: []proximity.Layer{
					{ID: "0", Name: "Parcels", IdentityFields: []string{"CATASTRO", "MUNICIPIO"}},
				},
				Ladder:          []float64{0.05, 0.1, 0.25, 0.5},
				ExtendedRadius:  1.0,
				MaxResults:      10,
				DomainOffset:    0.1,
				MinBuffer:       0.25,
				MaxBuffer:       1.0,
				IntersectBuffer: 0.25,
				FallbackBuffer:  0.5,
			},
		},
	}
}

// LoadDomains reads a YAML domains file. The file replaces the builtin
// profile entirely; partial overrides proved too easy to misread.
func LoadDomains(path string) ([]DomainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "screening: read domains file %s", path)
	}

	var doc struct {
		Domains []DomainConfig `yaml:"domains"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "screening: parse domains file %s", path)
	}
	if len(doc.Domains) == 0 {
		return nil, eris.Errorf("screening: domains file %s defines no domains", path)
	}

	for _, d := range doc.Domains {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return doc.Domains, nil
}

// SelectDomains filters configs by name, in the order requested. Unknown
// names are an error so a typo doesn't silently skip a domain.
func SelectDomains(all []DomainConfig, names []string) ([]DomainConfig, error) {
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]DomainConfig, len(all))
	for _, d := range all {
		byName[d.Name] = d
	}
	out := make([]DomainConfig, 0, len(names))
	for _, n := range names {
		d, ok := byName[n]
		if !ok {
			return nil, eris.Errorf("screening: unknown domain %q", n)
		}
		out = append(out, d)
	}
	return out, nil
}

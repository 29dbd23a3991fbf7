package screening

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinDomainsAreValid(t *testing.T) {
	domains := BuiltinDomains()
	require.NotEmpty(t, domains)

	seen := map[string]bool{}
	for _, d := range domains {
		assert.NoError(t, d.Validate(), "domain %s", d.Name)
		assert.False(t, seen[d.Name], "duplicate domain name %s", d.Name)
		seen[d.Name] = true

		// The ladder must ascend and the extension must exceed it.
		prev := 0.0
		for _, r := range d.Proximity.Ladder {
			assert.Greater(t, r, prev, "domain %s ladder", d.Name)
			prev = r
		}
		if ext := d.Proximity.ExtendedRadius; ext > 0 {
			assert.Greater(t, ext, prev, "domain %s extended radius", d.Name)
		}

		for _, l := range d.Proximity.Layers {
			assert.NotEmpty(t, l.IdentityFields, "domain %s layer %s needs identity fields", d.Name, l.ID)
		}
	}

	assert.True(t, seen["wetland"])
	assert.True(t, seen["flood"])
	assert.True(t, seen["habitat"])
	assert.True(t, seen["karst"])
}

func TestLoadDomains(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
domains:
  - name: wetland
    title: Wetlands
    service_url: https://example.test/Wetlands/MapServer
    proximity:
      layers:
        - id: "0"
          name: Wetlands
          identity_fields: [ATTRIBUTE, ACRES]
      ladder: [0.1, 0.5, 1.0]
      extended_radius: 5.0
      domain_offset: 0.25
      min_buffer: 0.5
      max_buffer: 5.0
      intersect_buffer: 0.5
      fallback_buffer: 2.0
`), 0o644))

	domains, err := LoadDomains(path)
	require.NoError(t, err)
	require.Len(t, domains, 1)

	d := domains[0]
	assert.Equal(t, "wetland", d.Name)
	assert.Equal(t, []float64{0.1, 0.5, 1.0}, d.Proximity.Ladder)
	assert.Equal(t, 5.0, d.Proximity.ExtendedRadius)
	require.Len(t, d.Proximity.Layers, 1)
	assert.Equal(t, []string{"ATTRIBUTE", "ACRES"}, d.Proximity.Layers[0].IdentityFields)
}

func TestLoadDomainsRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
domains:
  - name: broken
    proximity:
      ladder: [0.5]
`), 0o644))

	_, err := LoadDomains(path)
	require.Error(t, err, "domain without layers must be rejected")
}

func TestLoadDomainsMissingFile(t *testing.T) {
	_, err := LoadDomains(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDomainsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "domains.yaml")
	require.NoError(t, os.WriteFile(path, []byte("domains: []\n"), 0o644))

	_, err := LoadDomains(path)
	require.Error(t, err)
}

func TestSelectDomains(t *testing.T) {
	all := BuiltinDomains()

	selected, err := SelectDomains(all, nil)
	require.NoError(t, err)
	assert.Equal(t, all, selected, "no names selects everything")

	selected, err = SelectDomains(all, []string{"flood", "wetland"})
	require.NoError(t, err)
	require.Len(t, selected, 2)
	assert.Equal(t, "flood", selected[0].Name)
	assert.Equal(t, "wetland", selected[1].Name)

	_, err = SelectDomains(all, []string{"volcano"})
	require.Error(t, err, "a typo must not silently skip a domain")
}

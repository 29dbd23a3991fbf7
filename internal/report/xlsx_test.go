package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screening.xlsx")
	require.NoError(t, WriteXLSX(sampleRun(), path))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	names := make(map[string]*xlsx.Sheet, len(file.Sheets))
	for _, s := range file.Sheets {
		names[s.Name] = s
	}

	summary, ok := names["Summary"]
	require.True(t, ok)
	// Header plus one row per domain, including the errored one.
	assert.Len(t, summary.Rows, 5)
	assert.Equal(t, "Domain", summary.Rows[0].Cells[0].Value)
	assert.Equal(t, "Flood Hazard (FIRM)", summary.Rows[1].Cells[0].Value)

	// Domains with features get their own sheet; empty and errored ones don't.
	flood, ok := names["flood"]
	require.True(t, ok)
	assert.Len(t, flood.Rows, 2)
	assert.Equal(t, "FLD_ZONE", flood.Rows[0].Cells[5].Value)
	assert.Equal(t, "AE", flood.Rows[1].Cells[5].Value)

	wetland, ok := names["wetland"]
	require.True(t, ok)
	assert.Len(t, wetland.Rows, 2)
	assert.Equal(t, "E", wetland.Rows[1].Cells[4].Value)

	_, ok = names["karst"]
	assert.False(t, ok)
	_, ok = names["habitat"]
	assert.False(t, ok)
}

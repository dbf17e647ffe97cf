package sankey

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Source,Target,Value
Saudi Arabia,China,100
Russia,China,80
Saudi Arabia,Japan,40.5
`

func TestReadCSV(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), DefaultColumns)
	require.NoError(t, err)
	require.Len(t, table.Flows, 3)
	assert.Equal(t, Flow{Source: "Saudi Arabia", Target: "China", Value: 100}, table.Flows[0])
	assert.Equal(t, Flow{Source: "Saudi Arabia", Target: "Japan", Value: 40.5}, table.Flows[2])
}

func TestReadCSVCustomColumns(t *testing.T) {
	const data = "exporter,importer,volume\nA,B,7\n"
	table, err := ReadCSV(strings.NewReader(data), Columns{Source: "Exporter", Target: "Importer", Value: "Volume"})
	require.NoError(t, err)
	require.Len(t, table.Flows, 1)
	assert.Equal(t, Flow{Source: "A", Target: "B", Value: 7}, table.Flows[0])
}

func TestReadCSVSkipsBlankRows(t *testing.T) {
	const data = "Source,Target,Value\nA,B,1\n,,\nC,D,2\n"
	table, err := ReadCSV(strings.NewReader(data), DefaultColumns)
	require.NoError(t, err)
	assert.Len(t, table.Flows, 2)
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"missing column", "Source,Target\nA,B\n", "header is missing"},
		{"negative value", "Source,Target,Value\nA,B,-5\n", "negative value"},
		{"bad value", "Source,Target,Value\nA,B,lots\n", "bad value"},
		{"empty label", "Source,Target,Value\nA,,5\n", "empty source or target"},
		{"no rows", "Source,Target,Value\n", "no flow rows"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data), DefaultColumns)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flows.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Source", "Target", "Value"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Saudi Arabia", "China", 100}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"Russia", "Japan", 25.5}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadFile(path, DefaultColumns)
	require.NoError(t, err)
	require.Len(t, table.Flows, 2)
	assert.Equal(t, Flow{Source: "Russia", Target: "Japan", Value: 25.5}, table.Flows[1])
}

func TestTotals(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), DefaultColumns)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"Saudi Arabia": 140.5, "Russia": 80}, table.SourceTotals())
	assert.Equal(t, map[string]float64{"China": 180, "Japan": 40.5}, table.TargetTotals())
}

func TestNodesSortedAndDeduplicated(t *testing.T) {
	table, err := ReadCSV(strings.NewReader(sampleCSV), DefaultColumns)
	require.NoError(t, err)
	assert.Equal(t, []string{"Russia", "Saudi Arabia", "China", "Japan"}, table.Nodes())

	// A label on both sides shows up once.
	chained := &Table{Flows: []Flow{
		{Source: "A", Target: "B", Value: 1},
		{Source: "B", Target: "C", Value: 1},
	}}
	assert.Equal(t, []string{"A", "B", "C"}, chained.Nodes())
}

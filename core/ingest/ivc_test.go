package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tracerExport = `# SunSim 3000 export
Device: SC-400M
Operator: tech-01
Irradiance: 1000 W/m2

[DATA]
0.0   5.0
5.0   5.0
not-a-number  5.0
10.0  4.0
15.0  2.0
20.0
20.0  0.0
`

func TestParseIVCFile(t *testing.T) {
	file := ParseIVCFile(tracerExport)

	assert.Equal(t, "SC-400M", file.Metadata["Device"])
	assert.Equal(t, "tech-01", file.Metadata["Operator"])
	assert.Equal(t, "1000 W/m2", file.Metadata["Irradiance"])

	// Malformed and short rows are skipped
	require.Len(t, file.Points, 5)
	assert.Equal(t, 0.0, file.Points[0].Voltage)
	assert.Equal(t, 5.0, file.Points[0].Current)
	assert.Equal(t, 20.0, file.Points[4].Voltage)

	require.NotNil(t, file.Parameters)
	assert.Equal(t, 20.0, file.Parameters.Voc)
	assert.Equal(t, 5.0, file.Parameters.Isc)
	assert.Equal(t, 40.0, file.Parameters.Pmax)
	assert.InDelta(t, 0.40, file.Parameters.FF, 1e-9)
}

func TestParseIVCFileVoltageHeaderMarker(t *testing.T) {
	content := "Device: X\nVoltage Current\n1.0 2.0\n"
	file := ParseIVCFile(content)

	require.Len(t, file.Points, 1)
	assert.Equal(t, 1.0, file.Points[0].Voltage)
	assert.Equal(t, 2.0, file.Points[0].Current)
}

func TestParseIVCFileEmpty(t *testing.T) {
	file := ParseIVCFile("")
	assert.Empty(t, file.Metadata)
	assert.Empty(t, file.Points)
	assert.Nil(t, file.Parameters)
}

func TestParseIVCFileHeaderOnly(t *testing.T) {
	file := ParseIVCFile("Device: X\nOperator: Y\n")
	assert.Len(t, file.Metadata, 2)
	assert.Empty(t, file.Points)
	assert.Nil(t, file.Parameters)
}

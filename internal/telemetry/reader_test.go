package telemetry

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = "\ufeffLogging Time,Latitude,Longitude,Speed,distFromPrevLatLng,last/cur stationCode\n" +
	"2024-03-01 10:00:00,28.6100,77.2000,0,0,NDLS\n" +
	"2024-03-01 10:01:00,28.6110,77.2010,35.5,150,NDLS\n" +
	"2024-03-01 10:02:00,28.6120,77.2020,62,,\n"

func TestReadRows(t *testing.T) {
	table, err := ReadRows(strings.NewReader(sampleCSV), Columns{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 3)

	assert.True(t, table.HasStep)
	assert.True(t, table.HasStation)

	r := table.Rows[1]
	assert.Equal(t, 2, r.Line)
	assert.Equal(t, "2024-03-01 10:01:00", r.Timestamp)
	assert.InDelta(t, 28.611, r.Lat, 1e-9)
	assert.InDelta(t, 77.201, r.Lon, 1e-9)
	assert.Equal(t, 35.5, r.Speed)
	assert.Equal(t, 150.0, r.Step)
	assert.Equal(t, "NDLS", r.Station)
	assert.True(t, r.HasStation)

	last := table.Rows[2]
	assert.True(t, math.IsNaN(last.Step), "blank step should be NaN")
	assert.False(t, last.HasStation)
}

func TestReadRows_HeaderMatching(t *testing.T) {
	// Reordered columns, different case, padding and no optional columns.
	data := " speed ,LONGITUDE,latitude,logging time\n12,77.1,28.5,2024-03-01 10:00:00\n"
	table, err := ReadRows(strings.NewReader(data), Columns{})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.False(t, table.HasStep)
	assert.False(t, table.HasStation)
	assert.Equal(t, 12.0, table.Rows[0].Speed)
	assert.Equal(t, 28.5, table.Rows[0].Lat)
	assert.True(t, math.IsNaN(table.Rows[0].Step))
}

func TestReadRows_CustomColumns(t *testing.T) {
	data := "ts,lat,lon,v\n2024-03-01 10:00:00,1,2,3\n"
	table, err := ReadRows(strings.NewReader(data), Columns{Time: "ts", Latitude: "lat", Longitude: "lon", Speed: "v"})
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, 3.0, table.Rows[0].Speed)
}

func TestReadRows_Errors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		sentinel error
		column   string
	}{
		{"empty", "", ErrEmptyInput, ""},
		{"missing speed", "Logging Time,Latitude,Longitude\n", ErrMissingColumn, "Speed"},
		{"missing time", "Latitude,Longitude,Speed\n", ErrMissingColumn, "Logging Time"},
		{"bad latitude", "Logging Time,Latitude,Longitude,Speed\nx,north,77,0\n", ErrInvalidNumber, "Latitude"},
		{"bad step", "Logging Time,Latitude,Longitude,Speed,distFromPrevLatLng\nx,1,2,3,far\n", ErrInvalidNumber, "distFromPrevLatLng"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRows(strings.NewReader(tt.data), Columns{})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInputFormat)
			assert.ErrorIs(t, err, tt.sentinel)

			var ife *InputFormatError
			require.True(t, errors.As(err, &ife))
			assert.Equal(t, tt.column, ife.Column)
		})
	}
}

func TestReadRows_HeaderOnly(t *testing.T) {
	table, err := ReadRows(strings.NewReader("Logging Time,Latitude,Longitude,Speed\n"), Columns{})
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestHeaderIndex_FirstDuplicateWins(t *testing.T) {
	idx := NewHeaderIndex([]string{"Latitude", "Longitude", "latitude"})
	assert.Equal(t, 0, idx.Lookup("LATITUDE"))
	assert.Equal(t, -1, idx.Lookup("Speed"))
}

func TestParseFloatCell(t *testing.T) {
	v, err := ParseFloatCell([]string{" 1.5 "}, 0, "c", 1)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)

	v, err = ParseFloatCell([]string{"a"}, 3, "c", 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v), "short record reads as blank")
}

package netcdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapVariables(t *testing.T) {
	tests := []struct {
		name      string
		available []string
		want      map[string]string
	}{
		{
			name:      "argo uppercase spellings",
			available: []string{"JULD", "LATITUDE", "LONGITUDE", "PRES", "TEMP", "PSAL"},
			want: map[string]string{
				VarTime:        "JULD",
				VarLat:         "LATITUDE",
				VarLon:         "LONGITUDE",
				VarDepth:       "PRES",
				VarTemperature: "TEMP",
				VarSalinity:    "PSAL",
			},
		},
		{
			name:      "axis-style coordinate names",
			available: []string{"TAXIS", "YAXIS", "XAXIS", "ZAX", "temp", "sal"},
			want: map[string]string{
				VarTime:        "TAXIS",
				VarLat:         "YAXIS",
				VarLon:         "XAXIS",
				VarDepth:       "ZAX",
				VarTemperature: "temp",
				VarSalinity:    "sal",
			},
		},
		{
			name:      "preference order picks the first alias",
			available: []string{"time", "JULD", "lat", "lon", "depth", "PRES"},
			want: map[string]string{
				VarTime:  "time",
				VarLat:   "lat",
				VarLon:   "lon",
				VarDepth: "depth",
			},
		},
		{
			name:      "bgc parameters resolve when present",
			available: []string{"JULD", "LATITUDE", "LONGITUDE", "PRES", "DOXY", "CHLA", "PH_IN_SITU_TOTAL"},
			want: map[string]string{
				VarTime:        "JULD",
				VarLat:         "LATITUDE",
				VarLon:         "LONGITUDE",
				VarDepth:       "PRES",
				VarOxygen:      "DOXY",
				VarChlorophyll: "CHLA",
				VarPH:          "PH_IN_SITU_TOTAL",
			},
		},
		{
			name:      "unknown names resolve nothing",
			available: []string{"meridional_velocity", "zonal_velocity"},
			want:      map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mapVariables(tt.available))
		})
	}
}

func TestMissingRequired(t *testing.T) {
	full := mapVariables([]string{"JULD", "LATITUDE", "LONGITUDE", "PRES"})
	assert.Empty(t, missingRequired(full))

	partial := mapVariables([]string{"LATITUDE", "LONGITUDE", "TEMP"})
	assert.ElementsMatch(t, []string{VarTime, VarDepth}, missingRequired(partial))
}

func TestDepthUnits(t *testing.T) {
	for _, u := range []string{"", "m", "meters", "dbar", "decibar"} {
		assert.True(t, depthUnits[u], "units %q", u)
	}
	for _, u := range []string{"feet", "km", "cm"} {
		assert.False(t, depthUnits[u], "units %q", u)
	}

	assert.True(t, depthIsPressure("dbar"))
	assert.True(t, depthIsPressure("db"))
	assert.False(t, depthIsPressure("m"))
	assert.False(t, depthIsPressure(""))
}

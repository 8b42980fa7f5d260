package netcdf

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTimeDecoder(t *testing.T) {
	tests := []struct {
		name      string
		units     string
		wantUnit  time.Duration
		wantEpoch time.Time
		wantErr   bool
	}{
		{
			name:      "juld convention",
			units:     "days since 1950-01-01 00:00:00",
			wantUnit:  24 * time.Hour,
			wantEpoch: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "empty attribute falls back to juld",
			units:     "",
			wantUnit:  24 * time.Hour,
			wantEpoch: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "seconds since unix epoch",
			units:     "seconds since 1970-01-01",
			wantUnit:  time.Second,
			wantEpoch: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "hours with iso epoch",
			units:     "hours since 2000-01-01T00:00:00Z",
			wantUnit:  time.Hour,
			wantEpoch: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "trailing UTC suffix",
			units:     "days since 1950-01-01 00:00:00 UTC",
			wantUnit:  24 * time.Hour,
			wantEpoch: time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "missing since", units: "days", wantErr: true},
		{name: "unknown unit", units: "fortnights since 1950-01-01", wantErr: true},
		{name: "garbage epoch", units: "days since yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec, err := newTimeDecoder(tt.units)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUnit, dec.unit)
			assert.Equal(t, tt.wantEpoch, dec.epoch)
		})
	}
}

func TestTimeDecoderDecode(t *testing.T) {
	juld, err := newTimeDecoder("days since 1950-01-01 00:00:00")
	require.NoError(t, err)

	assert.Equal(t, time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC), juld.decode(0))
	assert.Equal(t, time.Date(1950, 1, 2, 0, 0, 0, 0, time.UTC), juld.decode(1))
	assert.Equal(t, time.Date(1950, 1, 1, 12, 0, 0, 0, time.UTC), juld.decode(0.5))

	days := time.Date(2010, 3, 4, 0, 0, 0, 0, time.UTC).Sub(juld.epoch).Hours() / 24
	assert.Equal(t, time.Date(2010, 3, 4, 0, 0, 0, 0, time.UTC), juld.decode(days))
}

func TestTimeDecoderRejectsImplausibleValues(t *testing.T) {
	juld, err := newTimeDecoder("")
	require.NoError(t, err)

	assert.True(t, juld.decode(math.NaN()).IsZero())
	assert.True(t, juld.decode(math.Inf(1)).IsZero())
	assert.True(t, juld.decode(999999).IsZero(), "year past 2200")
	assert.True(t, juld.decode(-999999).IsZero(), "year before 1850")
	assert.False(t, juld.decode(21978).IsZero())
}

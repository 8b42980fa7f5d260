package ingestion_engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Archit1030/FloatChat-AI/internal/models"
)

func fp(v float64) *float64 { return &v }

func validRecord() models.RawRecord {
	return models.RawRecord{
		Time:        time.Date(2010, 3, 4, 12, 0, 0, 0, time.UTC),
		Lat:         -7.5,
		Lon:         77.5,
		Depth:       12.5,
		Temperature: fp(28.4),
		Salinity:    fp(35.1),
	}
}

func TestValidateRecord(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*models.RawRecord)
		wantReason RejectReason
		wantOK     bool
	}{
		{name: "valid record", mutate: func(r *models.RawRecord) {}, wantOK: true},
		{name: "temperature lower bound inclusive", mutate: func(r *models.RawRecord) { r.Temperature = fp(-2) }, wantOK: true},
		{name: "temperature upper bound inclusive", mutate: func(r *models.RawRecord) { r.Temperature = fp(40) }, wantOK: true},
		{name: "temperature below lower bound", mutate: func(r *models.RawRecord) { r.Temperature = fp(-2.01) }, wantReason: ReasonTemperature},
		{name: "temperature above upper bound", mutate: func(r *models.RawRecord) { r.Temperature = fp(40.01) }, wantReason: ReasonTemperature},
		{name: "temperature absent from dataset is accepted", mutate: func(r *models.RawRecord) { r.Temperature = nil }, wantOK: true},
		{name: "temperature fill value", mutate: func(r *models.RawRecord) { r.Temperature = fp(math.NaN()) }, wantReason: ReasonTemperature},
		{name: "salinity lower bound inclusive", mutate: func(r *models.RawRecord) { r.Salinity = fp(0) }, wantOK: true},
		{name: "salinity upper bound inclusive", mutate: func(r *models.RawRecord) { r.Salinity = fp(50) }, wantOK: true},
		{name: "salinity implausible", mutate: func(r *models.RawRecord) { r.Salinity = fp(55) }, wantReason: ReasonSalinity},
		{name: "salinity negative", mutate: func(r *models.RawRecord) { r.Salinity = fp(-0.1) }, wantReason: ReasonSalinity},
		{name: "salinity absent from dataset is accepted", mutate: func(r *models.RawRecord) { r.Salinity = nil }, wantOK: true},
		{name: "salinity fill value", mutate: func(r *models.RawRecord) { r.Salinity = fp(math.NaN()) }, wantReason: ReasonSalinity},
		{name: "surface depth accepted", mutate: func(r *models.RawRecord) { r.Depth = 0 }, wantOK: true},
		{name: "negative depth", mutate: func(r *models.RawRecord) { r.Depth = -0.001 }, wantReason: ReasonDepth},
		{name: "depth fill value", mutate: func(r *models.RawRecord) { r.Depth = math.NaN() }, wantReason: ReasonDepth},
		{name: "latitude out of range", mutate: func(r *models.RawRecord) { r.Lat = 90.5 }, wantReason: ReasonCoordinate},
		{name: "longitude out of range", mutate: func(r *models.RawRecord) { r.Lon = -180.5 }, wantReason: ReasonCoordinate},
		{name: "latitude fill value", mutate: func(r *models.RawRecord) { r.Lat = math.NaN() }, wantReason: ReasonCoordinate},
		{name: "missing timestamp", mutate: func(r *models.RawRecord) { r.Time = time.Time{} }, wantReason: ReasonTimestamp},
		{
			name: "timestamp checked before ranges",
			mutate: func(r *models.RawRecord) {
				r.Time = time.Time{}
				r.Temperature = fp(99)
			},
			wantReason: ReasonTimestamp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)

			m, reason, ok := validateRecord(&rec)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, rec.Depth, m.Depth)
				assert.Equal(t, 1, m.QualityFlag)
			} else {
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}

func TestValidateRecordDerivesPressure(t *testing.T) {
	rec := validRecord()
	rec.Depth = 100

	m, _, ok := validateRecord(&rec)
	require.True(t, ok)
	assert.InDelta(t, 102.5, m.Pressure, 1e-9)

	rec.Pressure = fp(101.3)
	m, _, ok = validateRecord(&rec)
	require.True(t, ok)
	assert.Equal(t, 101.3, m.Pressure)
}

func TestPartitionChunkAccountsForEveryRecord(t *testing.T) {
	bad := validRecord()
	bad.Salinity = fp(55)
	noTime := validRecord()
	noTime.Time = time.Time{}

	chunk := &Chunk{
		Index:   0,
		Records: []models.RawRecord{validRecord(), bad, validRecord(), noTime},
	}

	res := PartitionChunk(chunk)

	var rejected int64
	for _, n := range res.Rejected {
		rejected += n
	}
	assert.Equal(t, int64(len(chunk.Records)), int64(len(res.Accepted))+rejected)
	assert.Equal(t, int64(1), res.Rejected[ReasonSalinity])
	assert.Equal(t, int64(1), res.Rejected[ReasonTimestamp])
	assert.Len(t, res.Accepted, 2)
}

func TestPartitionChunkIsStateless(t *testing.T) {
	chunk := &Chunk{Records: []models.RawRecord{validRecord()}}

	first := PartitionChunk(chunk)
	second := PartitionChunk(chunk)
	assert.Equal(t, first, second)
}

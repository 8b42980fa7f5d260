package netcdf

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	nc "github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"

	"github.com/Archit1030/FloatChat-AI/internal/core"
	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// column holds the per-variable handles and CF decoding attributes resolved
// once at open time.
type column struct {
	name   string
	vg     api.VarGetter
	fill   float64 // NaN when no fill value is declared
	scale  float64
	offset float64
}

// Dataset is a record-aligned NetCDF archive opened for windowed reads. All
// mapped variables must share the record dimension; measurement arrays are
// only materialized one window at a time through ReadWindow.
type Dataset struct {
	path       string
	group      api.Group
	mapping    map[string]string
	columns    map[string]*column
	timeDec    *timeDecoder
	presAsZ    bool // depth variable carries decibar pressure
	recordDim  string
	numRecords int64
}

// Open opens a NetCDF file and validates its header against the pipeline's
// requirements. Header problems wrap core.ErrStructural so a batch of
// analyses can report them per dataset without aborting the others.
func Open(path string) (*Dataset, error) {
	group, err := nc.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", core.ErrStructural, path, err)
	}

	d := &Dataset{
		path:    path,
		group:   group,
		columns: make(map[string]*column),
	}
	if err := d.resolve(); err != nil {
		group.Close()
		return nil, err
	}
	return d, nil
}

// resolve maps variables, checks units, and pins the record dimension.
func (d *Dataset) resolve() error {
	d.mapping = mapVariables(d.group.ListVariables())
	if missing := missingRequired(d.mapping); len(missing) > 0 {
		return fmt.Errorf("%w: %s: missing required variables %v", core.ErrStructural, d.Name(), missing)
	}

	for std, varName := range d.mapping {
		vg, err := d.group.GetVarGetter(varName)
		if err != nil {
			return fmt.Errorf("%w: %s: variable %s: %v", core.ErrStructural, d.Name(), varName, err)
		}
		col := &column{
			name:   varName,
			vg:     vg,
			fill:   math.NaN(),
			scale:  1,
			offset: 0,
		}
		if v, ok := attrFloat(vg.Attributes(), "_FillValue"); ok {
			col.fill = v
		} else if v, ok := attrFloat(vg.Attributes(), "missing_value"); ok {
			col.fill = v
		}
		if v, ok := attrFloat(vg.Attributes(), "scale_factor"); ok {
			col.scale = v
		}
		if v, ok := attrFloat(vg.Attributes(), "add_offset"); ok {
			col.offset = v
		}
		d.columns[std] = col
	}

	timeCol := d.columns[VarTime]
	dims := timeCol.vg.Dimensions()
	if len(dims) != 1 {
		return fmt.Errorf("%w: %s: time variable %s is %d-dimensional, want record-aligned data",
			core.ErrStructural, d.Name(), timeCol.name, len(dims))
	}
	d.recordDim = dims[0]
	d.numRecords = timeCol.vg.Len()

	for std, col := range d.columns {
		cdims := col.vg.Dimensions()
		if len(cdims) != 1 || cdims[0] != d.recordDim {
			return fmt.Errorf("%w: %s: variable %s (%s) not aligned to record dimension %q",
				core.ErrStructural, d.Name(), col.name, std, d.recordDim)
		}
	}

	depthCol := d.columns[VarDepth]
	units := attrString(depthCol.vg.Attributes(), "units")
	if !depthUnits[units] {
		return fmt.Errorf("%w: %s: depth variable %s has units %q", core.ErrUnitMismatch, d.Name(), depthCol.name, units)
	}
	d.presAsZ = depthIsPressure(units)

	dec, err := newTimeDecoder(attrString(timeCol.vg.Attributes(), "units"))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrStructural, d.Name(), err)
	}
	d.timeDec = dec

	return nil
}

func (d *Dataset) Name() string {
	return filepath.Base(d.path)
}

func (d *Dataset) NumRecords() int64 {
	return d.numRecords
}

func (d *Dataset) Close() error {
	d.group.Close()
	return nil
}

// ReadWindow reads records [begin, end) as one in-memory batch, pulling only
// the mapped columns through GetSlice. The caller bounds the window size.
func (d *Dataset) ReadWindow(ctx context.Context, begin, end int64) (*models.RecordBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if begin < 0 {
		begin = 0
	}
	if end > d.numRecords {
		end = d.numRecords
	}
	if begin >= end {
		return &models.RecordBatch{Start: begin}, nil
	}

	cols := make(map[string][]float64, len(d.columns))
	for std, col := range d.columns {
		vals, err := d.readColumn(col, begin, end)
		if err != nil {
			return nil, fmt.Errorf("read %s [%d:%d): %w", col.name, begin, end, err)
		}
		cols[std] = vals
	}

	n := int(end - begin)
	records := make([]models.RawRecord, n)
	for i := 0; i < n; i++ {
		rec := models.RawRecord{
			Index: begin + int64(i),
			Time:  d.timeDec.decode(cols[VarTime][i]),
			Lat:   cols[VarLat][i],
			Lon:   cols[VarLon][i],
			Depth: cols[VarDepth][i],
		}
		if d.presAsZ {
			rec.Pressure = optional(cols[VarDepth][i])
		}
		// Temperature and salinity keep their NaN fills: a present-but-fill
		// value fails the range rules and rejects the record, while a
		// dataset without the variable at all yields nil (missing).
		if vals, ok := cols[VarTemperature]; ok {
			v := vals[i]
			rec.Temperature = &v
		}
		if vals, ok := cols[VarSalinity]; ok {
			v := vals[i]
			rec.Salinity = &v
		}
		if vals, ok := cols[VarOxygen]; ok {
			rec.Oxygen = optional(vals[i])
		}
		if vals, ok := cols[VarPH]; ok {
			rec.PH = optional(vals[i])
		}
		if vals, ok := cols[VarChlorophyll]; ok {
			rec.Chlorophyll = optional(vals[i])
		}
		records[i] = rec
	}

	return &models.RecordBatch{Start: begin, Records: records}, nil
}

// readColumn pulls one window of one variable and decodes fills and CF
// scale/offset packing into float64s (fill values become NaN).
func (d *Dataset) readColumn(col *column, begin, end int64) ([]float64, error) {
	raw, err := col.vg.GetSlice(begin, end)
	if err != nil {
		return nil, err
	}
	vals, err := toFloat64s(raw)
	if err != nil {
		return nil, fmt.Errorf("variable %s: %w", col.name, err)
	}
	for i, v := range vals {
		if !math.IsNaN(col.fill) && v == col.fill {
			vals[i] = math.NaN()
			continue
		}
		if col.scale != 1 || col.offset != 0 {
			vals[i] = v*col.scale + col.offset
		}
	}
	return vals, nil
}

// errStructuralFor tags an error with the structural sentinel and the
// dataset name for batch reporting.
func errStructuralFor(d *Dataset) error {
	return fmt.Errorf("%w: %s", core.ErrStructural, d.Name())
}

// optional maps NaN (fill/absent) to nil.
func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	out := v
	return &out
}

// toFloat64s widens the slice types go-native-netcdf hands back.
func toFloat64s(raw interface{}) ([]float64, error) {
	switch vals := raw.(type) {
	case []float64:
		return vals, nil
	case []float32:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	case []uint8:
		out := make([]float64, len(vals))
		for i, v := range vals {
			out[i] = float64(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", raw)
	}
}

// attrString reads a string attribute, tolerating absence.
func attrString(attrs api.AttributeMap, key string) string {
	v, ok := attrs.Get(key)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []string:
		if len(s) > 0 {
			return s[0]
		}
	}
	return ""
}

// attrFloat reads a numeric attribute of any width.
func attrFloat(attrs api.AttributeMap, key string) (float64, bool) {
	v, ok := attrs.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case []float64:
		if len(n) > 0 {
			return n[0], true
		}
	case []float32:
		if len(n) > 0 {
			return float64(n[0]), true
		}
	case []int32:
		if len(n) > 0 {
			return float64(n[0]), true
		}
	case []int16:
		if len(n) > 0 {
			return float64(n[0]), true
		}
	}
	return 0, false
}

// fileSize is best-effort; analysis reports 0 for non-regular sources.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

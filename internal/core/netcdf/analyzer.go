package netcdf

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Archit1030/FloatChat-AI/internal/models"
)

// extentWindow bounds how many coordinate values are resident while scanning
// for min/max extents during analysis.
const extentWindow = 65536

// Structure reports dimension sizes, variable names/types and coordinate
// extents without materializing measurement arrays. Extents are computed by
// scanning the coordinate columns in bounded windows.
func (d *Dataset) Structure(ctx context.Context) (*models.StructureReport, error) {
	report := &models.StructureReport{
		Path:             d.path,
		FileSizeBytes:    fileSize(d.path),
		Dimensions:       make(map[string]uint64),
		VariableMapping:  make(map[string]string, len(d.mapping)),
		EstimatedRecords: d.numRecords,
	}

	for _, dim := range d.group.ListDimensions() {
		if size, ok := d.group.GetDimension(dim); ok {
			report.Dimensions[dim] = size
		}
	}

	for _, name := range d.group.ListVariables() {
		vg, err := d.group.GetVarGetter(name)
		if err != nil {
			return nil, fmt.Errorf("%w: variable %s: %v", errStructuralFor(d), name, err)
		}
		report.Variables = append(report.Variables, models.VariableInfo{
			Name:       name,
			Type:       vg.Type(),
			Dimensions: vg.Dimensions(),
		})
	}

	for std, varName := range d.mapping {
		report.VariableMapping[std] = varName
	}

	if err := d.scanExtents(ctx, report); err != nil {
		return nil, err
	}

	return report, nil
}

// scanExtents walks the coordinate columns window by window.
func (d *Dataset) scanExtents(ctx context.Context, report *models.StructureReport) error {
	var (
		latMin, latMax     = math.Inf(1), math.Inf(-1)
		lonMin, lonMax     = math.Inf(1), math.Inf(-1)
		depthMin, depthMax = math.Inf(1), math.Inf(-1)
		timeMin, timeMax   time.Time
	)

	for begin := int64(0); begin < d.numRecords; begin += extentWindow {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := begin + extentWindow
		if end > d.numRecords {
			end = d.numRecords
		}

		for _, c := range []struct {
			std      string
			min, max *float64
		}{
			{VarLat, &latMin, &latMax},
			{VarLon, &lonMin, &lonMax},
			{VarDepth, &depthMin, &depthMax},
		} {
			vals, err := d.readColumn(d.columns[c.std], begin, end)
			if err != nil {
				return fmt.Errorf("%w: extent scan %s: %v", errStructuralFor(d), c.std, err)
			}
			for _, v := range vals {
				if math.IsNaN(v) {
					continue
				}
				if v < *c.min {
					*c.min = v
				}
				if v > *c.max {
					*c.max = v
				}
			}
		}

		timeVals, err := d.readColumn(d.columns[VarTime], begin, end)
		if err != nil {
			return fmt.Errorf("%w: extent scan time: %v", errStructuralFor(d), err)
		}
		for _, v := range timeVals {
			t := d.timeDec.decode(v)
			if t.IsZero() {
				continue
			}
			if timeMin.IsZero() || t.Before(timeMin) {
				timeMin = t
			}
			if timeMax.IsZero() || t.After(timeMax) {
				timeMax = t
			}
		}
	}

	if !math.IsInf(latMin, 1) {
		report.LatMin, report.LatMax = &latMin, &latMax
	}
	if !math.IsInf(lonMin, 1) {
		report.LonMin, report.LonMax = &lonMin, &lonMax
	}
	if !math.IsInf(depthMin, 1) {
		report.DepthMin, report.DepthMax = &depthMin, &depthMax
	}
	if !timeMin.IsZero() {
		report.TimeStart, report.TimeEnd = &timeMin, &timeMax
	}

	return nil
}

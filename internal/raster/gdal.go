package raster

import (
	"sync"

	"github.com/airbusgeo/godal"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

var registerDrivers sync.Once

// Load reads band 1 of a GDAL-readable raster (GeoTIFF) into a Grid.
// Rotated or south-up rasters are rejected.
func Load(path string) (*Grid, error) {
	registerDrivers.Do(godal.RegisterAll)

	ds, err := godal.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = ds.Close() }()

	st := ds.Structure()
	if st.NBands < 1 {
		return nil, eris.Errorf("raster: %s has no bands", path)
	}

	gt, err := ds.GeoTransform()
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read geotransform of %s", path)
	}
	if gt[2] != 0 || gt[4] != 0 {
		return nil, eris.Errorf("raster: %s is rotated, only north-up rasters are supported", path)
	}
	if gt[5] >= 0 {
		return nil, eris.Errorf("raster: %s is not north-up (pixel height %g)", path, gt[5])
	}

	band := ds.Bands()[0]
	values := make([]float64, st.SizeX*st.SizeY)
	if err := band.Read(0, 0, values, st.SizeX, st.SizeY); err != nil {
		return nil, eris.Wrapf(err, "raster: read band 1 of %s", path)
	}

	g := &Grid{
		OriginX:    gt[0],
		OriginY:    gt[3],
		CellWidth:  gt[1],
		CellHeight: -gt[5],
		Cols:       st.SizeX,
		Rows:       st.SizeY,
		Values:     values,
	}
	if nd, ok := band.NoData(); ok {
		g.NoData, g.HasNoData = nd, true
	}
	if err := g.Validate(); err != nil {
		return nil, eris.Wrapf(err, "raster: %s", path)
	}

	zap.L().Debug("raster: loaded",
		zap.String("path", path),
		zap.Int("cols", g.Cols),
		zap.Int("rows", g.Rows),
		zap.Float64("cell_width", g.CellWidth),
		zap.Bool("has_nodata", g.HasNoData),
	)
	return g, nil
}

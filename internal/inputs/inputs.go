// Package inputs loads and stages the three input layers of a sweep.
package inputs

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/aggregate"
	"github.com/sells-group/damsweep/internal/config"
	"github.com/sells-group/damsweep/internal/model"
	"github.com/sells-group/damsweep/internal/raster"
	"github.com/sells-group/damsweep/internal/shapefile"
	"github.com/sells-group/damsweep/internal/sweep"
)

// Load reads the dams, census and slope layers and builds the census index.
// Every failure is fatal for the sweep and carries the input_load or schema kind.
func Load(cfg config.InputConfig, ix aggregate.Indexer) (*sweep.Inputs, error) {
	log := zap.L().With(zap.String("component", "inputs"))

	damsPath := cfg.Path(cfg.DamsFile)
	dams, err := shapefile.ReadDams(damsPath, cfg.DamFields)
	if err != nil {
		return nil, model.NewError(model.KindInputLoad, err)
	}
	if len(dams) == 0 {
		return nil, model.Errorf(model.KindInputLoad, "inputs: %s has no features", damsPath)
	}

	censusPath := cfg.Path(cfg.CensusFile)
	blocks, schema, err := shapefile.ReadCensus(censusPath, cfg.CensusFields)
	if err != nil {
		return nil, model.NewError(model.KindInputLoad, err)
	}
	layer, err := aggregate.NewLayer(blocks, schema, ix)
	if err != nil {
		return nil, eris.Wrapf(err, "inputs: census layer %s", censusPath)
	}

	slopePath := cfg.Path(cfg.SlopeFile)
	slope, err := raster.Load(slopePath)
	if err != nil {
		return nil, model.NewError(model.KindInputLoad, err)
	}

	log.Info("inputs loaded",
		zap.Int("dams", len(dams)),
		zap.Int("census_blocks", layer.Len()),
		zap.Int("slope_cols", slope.Cols),
		zap.Int("slope_rows", slope.Rows),
	)
	return &sweep.Inputs{Dams: dams, Census: layer, Slope: slope}, nil
}

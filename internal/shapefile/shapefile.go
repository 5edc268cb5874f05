// Package shapefile reads the dam and census-block input layers.
package shapefile

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/damsweep/internal/model"
)

// DamFields names the attribute columns of the dams layer.
type DamFields struct {
	Height string `yaml:"height" mapstructure:"height"`
	ID     string `yaml:"id" mapstructure:"id"`
}

// CensusFields maps the canonical census attributes to column names.
type CensusFields struct {
	ID         string `yaml:"id" mapstructure:"id"`
	Households string `yaml:"households" mapstructure:"households"`
	Population string `yaml:"population" mapstructure:"population"`
	Footprint  string `yaml:"footprint" mapstructure:"footprint"`
	Contact    string `yaml:"contact" mapstructure:"contact"`
	Buildings  string `yaml:"buildings" mapstructure:"buildings"`
}

// columns returns canonical name → column name in output order.
func (f CensusFields) columns() [][2]string {
	return [][2]string{
		{model.FieldHouseholds, f.Households},
		{model.FieldPopulation, f.Population},
		{model.FieldFootprint, f.Footprint},
		{model.FieldContact, f.Contact},
		{model.FieldBuildings, f.Buildings},
	}
}

// layer wraps an open shapefile with a case-insensitive field lookup.
type layer struct {
	reader   *shp.Reader
	fieldIdx map[string]int
}

func open(path string) (*layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "shapefile: open %s", path)
	}
	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	return &layer{reader: reader, fieldIdx: fieldIdx}, nil
}

func (l *layer) close() { _ = l.reader.Close() }

func (l *layer) column(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	idx, ok := l.fieldIdx[strings.ToLower(name)]
	return idx, ok
}

// attr returns the trimmed attribute text; empty when absent.
func (l *layer) attr(idx int, ok bool) string {
	if !ok {
		return ""
	}
	val := strings.TrimRight(l.reader.Attribute(idx), "\x00")
	return strings.TrimSpace(val)
}

func (l *layer) number(idx int, ok bool) (float64, bool) {
	val := l.attr(idx, ok)
	if val == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ReadDams reads drain/dam features. A feature keeps a nil DamHeight when
// the height column is missing or unparseable, and a nil Geom for null shapes.
func ReadDams(path string, fields DamFields) ([]model.DamFeature, error) {
	l, err := open(path)
	if err != nil {
		return nil, err
	}
	defer l.close()

	heightIdx, hasHeight := l.column(fields.Height)
	if !hasHeight {
		zap.L().Warn("shapefile: dam height column not found",
			zap.String("path", path),
			zap.String("column", fields.Height),
		)
	}
	idIdx, hasID := l.column(fields.ID)

	var dams []model.DamFeature
	for l.reader.Next() {
		n, shape := l.reader.Shape()

		d := model.DamFeature{ID: l.attr(idIdx, hasID)}
		if d.ID == "" {
			d.ID = strconv.Itoa(n)
		}
		if h, ok := l.number(heightIdx, hasHeight); ok {
			d.DamHeight = &h
		}
		g, err := ToGeom(shape)
		if err != nil {
			return nil, eris.Wrapf(err, "shapefile: dam %s", d.ID)
		}
		d.Geom = g
		dams = append(dams, d)
	}
	return dams, nil
}

// ReadCensus reads census blocks. schema lists the canonical census fields
// whose column exists; absent columns read as zero. Blank values read as zero.
// Records without a polygon are skipped.
func ReadCensus(path string, fields CensusFields) (blocks []model.DemographicBlock, schema []string, err error) {
	l, err := open(path)
	if err != nil {
		return nil, nil, err
	}
	defer l.close()

	type col struct {
		idx int
		ok  bool
	}
	var cols []col
	for _, c := range fields.columns() {
		idx, ok := l.column(c[1])
		cols = append(cols, col{idx, ok})
		if ok {
			schema = append(schema, c[0])
		}
	}
	idIdx, hasID := l.column(fields.ID)

	var skipped int
	for l.reader.Next() {
		n, shape := l.reader.Shape()
		g, err := ToGeom(shape)
		if err != nil || g == nil {
			skipped++
			continue
		}

		var vals [5]float64
		for i, c := range cols {
			vals[i], _ = l.number(c.idx, c.ok)
		}
		b := model.DemographicBlock{
			ID:   l.attr(idIdx, hasID),
			Geom: g,
			Counts: model.Counts{
				Households: vals[0],
				Population: vals[1],
				Footprint:  vals[2],
				Contact:    vals[3],
				Buildings:  vals[4],
			},
		}
		if b.ID == "" {
			b.ID = strconv.Itoa(n)
		}
		blocks = append(blocks, b)
	}

	if skipped > 0 {
		zap.L().Debug("shapefile: skipped census records without polygons",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return blocks, schema, nil
}

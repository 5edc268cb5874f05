package model

import "github.com/twpayne/go-geom"

// DamFeature is a drain/dam record from the dams layer.
type DamFeature struct {
	ID   string
	Geom geom.T
	// DamHeight is nil when the attribute was missing or unparseable.
	DamHeight *float64
}

// Counts holds the summable census attributes of a block.
type Counts struct {
	Households float64 `json:"households" yaml:"households"`
	Population float64 `json:"population" yaml:"population"`
	Footprint  float64 `json:"footprint" yaml:"footprint"`
	Contact    float64 `json:"contact" yaml:"contact"`
	Buildings  float64 `json:"buildings" yaml:"buildings"`
}

// Add returns the field-wise sum.
func (c Counts) Add(o Counts) Counts {
	return Counts{
		Households: c.Households + o.Households,
		Population: c.Population + o.Population,
		Footprint:  c.Footprint + o.Footprint,
		Contact:    c.Contact + o.Contact,
		Buildings:  c.Buildings + o.Buildings,
	}
}

// Canonical census field names.
const (
	FieldHouseholds = "households"
	FieldPopulation = "population"
	FieldFootprint  = "footprint"
	FieldContact    = "contact"
	FieldBuildings  = "buildings"
)

// CensusFields lists the canonical census fields in output order.
var CensusFields = []string{FieldHouseholds, FieldPopulation, FieldFootprint, FieldContact, FieldBuildings}

// DemographicBlock is one census-block polygon.
type DemographicBlock struct {
	ID     string
	Geom   geom.T
	Counts Counts
}

// Region is the downstream impact zone derived for one dam at one grid point.
type Region struct {
	DamID      string
	DamHeight  float64
	Pair       ParameterPair
	CenterLine geom.T
	Polygon    geom.T
}

package model

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParameterPair is one (N_length, N_width) grid point of the sweep.
type ParameterPair struct {
	Length int `json:"n_length" yaml:"n_length"`
	Width  int `json:"n_width" yaml:"n_width"`
}

// Key returns the store key for the pair, e.g. "N_length_3_N_width_5".
func (p ParameterPair) Key() string {
	return fmt.Sprintf("N_length_%d_N_width_%d", p.Length, p.Width)
}

func (p ParameterPair) String() string {
	return p.Key()
}

// Validate rejects non-positive multipliers.
func (p ParameterPair) Validate() error {
	if p.Length <= 0 || p.Width <= 0 {
		return Errorf(KindInvalidParameter, "model: multipliers must be positive, got length=%d width=%d", p.Length, p.Width)
	}
	return nil
}

// ParseKey is the inverse of ParameterPair.Key.
func ParseKey(key string) (ParameterPair, error) {
	rest, ok := strings.CutPrefix(key, "N_length_")
	if !ok {
		return ParameterPair{}, eris.Errorf("model: malformed key %q", key)
	}
	l, w, ok := strings.Cut(rest, "_N_width_")
	if !ok {
		return ParameterPair{}, eris.Errorf("model: malformed key %q", key)
	}
	length, err := strconv.Atoi(l)
	if err != nil {
		return ParameterPair{}, eris.Wrapf(err, "model: parse length in key %q", key)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return ParameterPair{}, eris.Wrapf(err, "model: parse width in key %q", key)
	}
	return ParameterPair{Length: length, Width: width}, nil
}

// Range is an arithmetic sequence of multipliers. Stop is inclusive.
type Range struct {
	Start int `json:"start" yaml:"start" mapstructure:"start"`
	Stop  int `json:"stop" yaml:"stop" mapstructure:"stop"`
	Step  int `json:"step" yaml:"step" mapstructure:"step"`
}

// DefaultRange covers the odd multipliers 1..79.
var DefaultRange = Range{Start: 1, Stop: 79, Step: 2}

// Validate checks the range yields at least one positive value.
func (r Range) Validate() error {
	if r.Start <= 0 {
		return Errorf(KindInvalidParameter, "model: range start must be positive, got %d", r.Start)
	}
	if r.Step <= 0 {
		return Errorf(KindInvalidParameter, "model: range step must be positive, got %d", r.Step)
	}
	if r.Stop < r.Start {
		return Errorf(KindInvalidParameter, "model: range stop %d is before start %d", r.Stop, r.Start)
	}
	return nil
}

// Values expands the range.
func (r Range) Values() []int {
	if r.Step <= 0 || r.Stop < r.Start {
		return nil
	}
	out := make([]int, 0, (r.Stop-r.Start)/r.Step+1)
	for v := r.Start; v <= r.Stop; v += r.Step {
		out = append(out, v)
	}
	return out
}

func (r Range) String() string {
	return fmt.Sprintf("%d:%d:%d", r.Start, r.Stop, r.Step)
}

// ParseRange parses "start:stop:step" or "start:stop" (step 1) or a single value.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) > 3 || parts[0] == "" {
		return Range{}, eris.Errorf("model: malformed range %q, want start:stop:step", s)
	}
	vals := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Range{}, eris.Wrapf(err, "model: malformed range %q", s)
		}
		vals[i] = v
	}
	r := Range{Start: vals[0], Stop: vals[0], Step: 1}
	if len(vals) > 1 {
		r.Stop = vals[1]
	}
	if len(vals) > 2 {
		r.Step = vals[2]
	}
	return r, r.Validate()
}

// Grid returns the Cartesian product lengths × widths, length-major.
func Grid(lengths, widths Range) []ParameterPair {
	ls, ws := lengths.Values(), widths.Values()
	pairs := make([]ParameterPair, 0, len(ls)*len(ws))
	for _, l := range ls {
		for _, w := range ws {
			pairs = append(pairs, ParameterPair{Length: l, Width: w})
		}
	}
	return pairs
}

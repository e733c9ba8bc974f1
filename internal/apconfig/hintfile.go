package apconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/vprap/internal/apnetlist"
)

// FlatPlacementHint is a previous run's per-atom (x, y, layer, sub_tile),
// keyed by block name, loaded from a flat-placement hint file (§6,
// optional input). A component set to -1 (or any negative value) is unknown
// and left unconstrained (apnetlist.UnsetAxis) rather than fixed at -1. A
// component absent from the file reads as 0.
type FlatPlacementHint struct {
	Blocks []FlatPlacementHintBlock `yaml:"blocks"`
}

// FlatPlacementHintBlock is one entry of a FlatPlacementHint file.
type FlatPlacementHintBlock struct {
	Name    string `yaml:"name"`
	X       int32  `yaml:"x"`
	Y       int32  `yaml:"y"`
	Layer   int32  `yaml:"layer"`
	SubTile int32  `yaml:"sub_tile"`
}

// LoadFlatPlacementHint reads and parses a flat-placement hint file,
// following the source's per-run YAML document shape the same way
// core/program.go parses its own array-of-entries YAML documents.
func LoadFlatPlacementHint(path string) (*FlatPlacementHint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("apconfig: reading flat-placement hint file: %w", err)
	}

	var hint FlatPlacementHint
	if err := yaml.Unmarshal(data, &hint); err != nil {
		return nil, fmt.Errorf("apconfig: parsing flat-placement hint file: %w", err)
	}
	return &hint, nil
}

// FixedLocs converts the hint into a map keyed by block name, with any
// sentinel -1 component (the sign of "unknown" in the hint file) collapsed
// to apnetlist.UnsetAxis so the netlist builder treats that axis as free.
func (h *FlatPlacementHint) FixedLocs() map[string]apnetlist.FixedLoc {
	out := make(map[string]apnetlist.FixedLoc, len(h.Blocks))
	for _, b := range h.Blocks {
		out[b.Name] = apnetlist.FixedLoc{
			X:       normalizeAxis(b.X),
			Y:       normalizeAxis(b.Y),
			Layer:   normalizeAxis(b.Layer),
			SubTile: normalizeAxis(b.SubTile),
		}
	}
	return out
}

func normalizeAxis(v int32) int32 {
	if v < 0 {
		return apnetlist.UnsetAxis
	}
	return v
}

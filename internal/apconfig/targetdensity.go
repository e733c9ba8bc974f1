// Package apconfig parses the two optional, external configuration shapes
// the driver (internal/apflow) accepts: target-density override arguments
// and flat-placement hint files. Device grids, architectures and
// mass-calculator inputs are wired together with fluent With* builders
// instead (internal/apflow.NewBuilder); this package only covers the
// string/file grammars spec.md §6 calls out.
package apconfig

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/vprap/internal/density"
)

// ParseTargetDensities parses the `tile_type:factor` key/value arguments
// spec.md §4.5/§6 describes, the same grammar the repo's other tools use
// for comma-separated key:value strings. An empty list, or the single
// string "auto", means "use the architecture-wide default of 1.0
// everywhere" and is reported as no overrides at all.
func ParseTargetDensities(args []string) ([]density.TargetDensityOverride, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "auto") {
		return nil, nil
	}

	var out []density.TargetDensityOverride
	for _, arg := range args {
		for _, kv := range strings.Split(arg, ",") {
			kv = strings.TrimSpace(kv)
			if kv == "" {
				continue
			}
			tile, factorStr, ok := strings.Cut(kv, ":")
			if !ok {
				return nil, fmt.Errorf("apconfig: malformed target-density argument %q, want tile_type:factor", kv)
			}
			factor, err := strconv.ParseFloat(factorStr, 64)
			if err != nil {
				return nil, fmt.Errorf("apconfig: target-density factor for %q is not a number: %w", tile, err)
			}
			out = append(out, density.TargetDensityOverride{TileType: tile, Factor: factor})
		}
	}
	return out, nil
}

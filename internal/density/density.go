package density

import (
	"errors"
	"fmt"
	"math"

	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/mass"
	"github.com/sarchlab/vprap/internal/placement"
	"github.com/sarchlab/vprap/internal/primitivevec"
)

// epsilon insets a block's exported (x, y) strictly inside its bin's region,
// matching the source's get_block_location_in_bin clamp. Too small a margin
// risks re-landing on a neighbouring bin under floating-point rounding; too
// large distorts the placement. 0.0001 is the source's constant.
const epsilon = 0.0001

// TargetDensityOverride sets the target density of every physical tile type
// named TileType to Factor, overriding the architecture-wide default of 1.0.
// A Factor of 0 (or negative) is rejected as a fatal error at construction —
// spec.md §4.5 requires this for a factor of exactly zero, which the VTR
// source itself does not reject (the source only rejects negative values).
type TargetDensityOverride struct {
	TileType string
	Factor   float64
}

// Manager owns the fixed grid of density bins covering the device and the
// spatial lookup used to map a continuous placement coordinate to the bin
// that currently contains it.
type Manager struct {
	bins          []bin
	spatialLookup []BinID // layer-major, then y, then x; aliases non-root cells to their tile's root bin
	blockBin      map[apnetlist.BlockID]BinID
	width, height, layers int
	usedDimsMask  primitivevec.Vector
}

// NewManager builds the bin grid from the device grid and architecture: one
// bin per root tile, with non-root cells of a multi-cell tile aliased to
// their tile's root bin, exactly as the source's bin_spatial_lookup_
// construction does. Capacity is computed from the mass calculator and then
// projected onto only the dimensions actually used by some block's mass in
// the netlist.
func NewManager(grid arch.Grid, a arch.Architecture, calc *mass.Calculator, netlist *apnetlist.Netlist, overrides []TargetDensityOverride) (*Manager, error) {
	targetDensity, err := resolveTargetDensities(a, overrides)
	if err != nil {
		return nil, err
	}

	usedDims := usedDimensionMask(netlist, calc)

	m := &Manager{
		width:  grid.Width(),
		height: grid.Height(),
		layers: grid.NumLayers(),
	}
	m.usedDimsMask = usedDims
	m.blockBin = make(map[apnetlist.BlockID]BinID)
	m.spatialLookup = make([]BinID, m.width*m.height*m.layers)
	for i := range m.spatialLookup {
		m.spatialLookup[i] = -1
	}

	for l := 0; l < m.layers; l++ {
		for y := 0; y < m.height; y++ {
			for x := 0; x < m.width; x++ {
				typeIdx := grid.TileTypeIndexAt(l, x, y)
				if typeIdx < 0 {
					continue
				}
				if grid.WidthOffset(l, x, y) != 0 || grid.HeightOffset(l, x, y) != 0 {
					rootX := x - grid.WidthOffset(l, x, y)
					rootY := y - grid.HeightOffset(l, x, y)
					m.spatialLookup[m.index(l, x, y)] = m.spatialLookup[m.index(l, rootX, rootY)]
					continue
				}

				pt := a.PhysicalTileTypes()[typeIdx]
				cap := primitivevec.Scale(calc.PhysicalTileTypeCapacity(typeIdx), targetDensity[typeIdx])
				cap = primitivevec.Project(cap, usedDims)

				id := BinID(len(m.bins))
				m.bins = append(m.bins, bin{
					region: Region{
						X0: float64(x), Y0: float64(y),
						X1: float64(x + pt.Width), Y1: float64(y + pt.Height),
					},
					layer:       l,
					capacity:    cap,
					utilization: primitivevec.New(),
					overfill:    primitivevec.New(),
					underfill:   calcUnderfill(primitivevec.New(), cap),
					contained:   make(map[apnetlist.BlockID]struct{}),
				})
				m.spatialLookup[m.index(l, x, y)] = id
			}
		}
	}
	return m, nil
}

func (m *Manager) index(layer, x, y int) int {
	return (layer*m.height+y)*m.width + x
}

// ErrInvalidTargetDensityFactor classifies a rejected non-positive
// target-density factor (spec.md §7), distinguishable via errors.Is from
// ErrUnknownTargetDensityTile.
var ErrInvalidTargetDensityFactor = errors.New("target density factor must be positive")

// ErrUnknownTargetDensityTile classifies a target-density override naming a
// physical tile type the architecture does not define (spec.md §7).
var ErrUnknownTargetDensityTile = errors.New("target density override names unknown physical tile type")

// resolveTargetDensities defaults every physical tile type to 1.0, then
// applies the "tile:factor" overrides, rejecting a non-positive factor.
func resolveTargetDensities(a arch.Architecture, overrides []TargetDensityOverride) ([]float64, error) {
	types := a.PhysicalTileTypes()
	density := make([]float64, len(types))
	for i := range density {
		density[i] = 1.0
	}

	byName := make(map[string]int, len(types))
	for i, pt := range types {
		byName[pt.Name] = i
	}

	for _, o := range overrides {
		if o.Factor <= 0 {
			return nil, fmt.Errorf("density: %w: %q got %v", ErrInvalidTargetDensityFactor, o.TileType, o.Factor)
		}
		i, ok := byName[o.TileType]
		if !ok {
			return nil, fmt.Errorf("density: %w: %q", ErrUnknownTargetDensityTile, o.TileType)
		}
		density[i] = o.Factor
	}
	return density, nil
}

// usedDimensionMask marks a model dimension as used if any block's mass
// carries a nonzero entry there — mirroring the source's used_dims_mask_,
// which is derived once from the netlist's block masses. Tile capacities
// play no part in the mask.
func usedDimensionMask(netlist *apnetlist.Netlist, calc *mass.Calculator) primitivevec.Vector {
	mask := primitivevec.New()
	for _, b := range netlist.Blocks() {
		m := calc.BlockMass(b)
		for _, d := range m.Dims() {
			if m.Get(d) != 0 {
				mask.Set(d, 1)
			}
		}
	}
	return mask
}

// NumBins returns the number of distinct bins (root tiles) in the manager.
func (m *Manager) NumBins() int { return len(m.bins) }

// BinCapacity returns the (density-scaled, dimension-projected) capacity of
// bin id.
func (m *Manager) BinCapacity(id BinID) primitivevec.Vector { return m.bins[id].capacity }

// BinUtilization returns the current utilisation of bin id.
func (m *Manager) BinUtilization(id BinID) primitivevec.Vector { return m.bins[id].utilization }

// BinOverfill returns the current overfill of bin id: max(0, utilization - capacity).
func (m *Manager) BinOverfill(id BinID) primitivevec.Vector { return m.bins[id].overfill }

// BinUnderfill returns the current underfill of bin id: max(0, capacity - utilization).
func (m *Manager) BinUnderfill(id BinID) primitivevec.Vector { return m.bins[id].underfill }

// BinRegion returns the rectangular device-grid region bin id covers.
func (m *Manager) BinRegion(id BinID) Region { return m.bins[id].region }

// BinLayer returns the device layer bin id lives on.
func (m *Manager) BinLayer(id BinID) int { return m.bins[id].layer }

// BinBlocks returns the set of blocks currently inserted into bin id.
func (m *Manager) BinBlocks(id BinID) []apnetlist.BlockID {
	out := make([]apnetlist.BlockID, 0, len(m.bins[id].contained))
	for b := range m.bins[id].contained {
		out = append(out, b)
	}
	return out
}

// IsOverfilled reports whether bin id currently holds more mass than its
// capacity in some used dimension.
func (m *Manager) IsOverfilled(id BinID) bool { return m.bins[id].overfill.IsNonZero() }

// Width, Height and NumLayers return the device-grid dimensions the manager
// was built over.
func (m *Manager) Width() int     { return m.width }
func (m *Manager) Height() int    { return m.height }
func (m *Manager) NumLayers() int { return m.layers }

// DirectNeighbors returns the distinct bins that share an edge (not a
// corner) with bin id's rectangular region, on id's layer. Mirrors the
// source's get_direct_neighbors_of_bin.
func (m *Manager) DirectNeighbors(id BinID) []BinID {
	r := m.bins[id].region
	layer := m.bins[id].layer
	seen := make(map[BinID]struct{})

	for ty := int(r.Y0); ty < int(r.Y1); ty++ {
		if r.X0 >= 1 {
			seen[m.GetBin(r.X0-1, float64(ty), layer)] = struct{}{}
		}
		if int(r.X1) <= m.width-1 {
			seen[m.GetBin(r.X1, float64(ty), layer)] = struct{}{}
		}
	}
	for tx := int(r.X0); tx < int(r.X1); tx++ {
		if r.Y0 >= 1 {
			seen[m.GetBin(float64(tx), r.Y0-1, layer)] = struct{}{}
		}
		if int(r.Y1) <= m.height-1 {
			seen[m.GetBin(float64(tx), r.Y1, layer)] = struct{}{}
		}
	}

	delete(seen, id)
	out := make([]BinID, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	return out
}

// CenterOf returns the geometric center point of bin id's region.
func (m *Manager) CenterOf(id BinID) (x, y float64) {
	r := m.bins[id].region
	return (r.X0 + r.X1) / 2, (r.Y0 + r.Y1) / 2
}

// GetBin returns the id of the bin containing device-grid point (x, y, layer),
// flooring each coordinate, exactly as the source's get_bin does.
func (m *Manager) GetBin(x, y float64, layer int) BinID {
	xi, yi := int(math.Floor(x)), int(math.Floor(y))
	return m.spatialLookup[m.index(layer, xi, yi)]
}

// InsertBlock adds blockMass to bin id's utilisation and incrementally
// recomputes its overfill/underfill, recording b as contained.
func (m *Manager) InsertBlock(id BinID, b apnetlist.BlockID, blockMass primitivevec.Vector) {
	bn := &m.bins[id]
	bn.utilization.PlusEquals(blockMass)
	bn.overfill = calcOverfill(bn.utilization, bn.capacity)
	bn.underfill = calcUnderfill(bn.utilization, bn.capacity)
	bn.contained[b] = struct{}{}
	m.blockBin[b] = id
}

// RemoveBlock subtracts blockMass from bin id's utilisation and
// incrementally recomputes its overfill/underfill, forgetting b.
func (m *Manager) RemoveBlock(id BinID, b apnetlist.BlockID, blockMass primitivevec.Vector) {
	bn := &m.bins[id]
	bn.utilization.MinusEquals(blockMass)
	bn.overfill = calcOverfill(bn.utilization, bn.capacity)
	bn.underfill = calcUnderfill(bn.utilization, bn.capacity)
	delete(bn.contained, b)
	delete(m.blockBin, b)
}

// BlockBin returns the bin block b currently occupies, as last recorded by
// InsertBlock/ImportPlacement.
func (m *Manager) BlockBin(b apnetlist.BlockID) BinID { return m.blockBin[b] }

// OverfilledBins returns the ids of every bin currently overfilled in some
// used dimension. The source maintains this incrementally as an ordered
// set; this module recomputes it by a linear scan, which is equivalent in
// observable behaviour and avoids keeping a second mutable index in sync.
func (m *Manager) OverfilledBins() []BinID {
	var out []BinID
	for i := range m.bins {
		if m.bins[i].overfill.IsNonZero() {
			out = append(out, BinID(i))
		}
	}
	return out
}

// ImportPlacement empties every bin and reinserts every block (fixed and
// moveable) at its current placement coordinate, matching the source's
// import_placement_into_bins.
func (m *Manager) ImportPlacement(netlist *apnetlist.Netlist, p *placement.PartialPlacement, calc *mass.Calculator) {
	for i := range m.bins {
		m.bins[i].utilization = primitivevec.New()
		m.bins[i].overfill = primitivevec.New()
		m.bins[i].underfill = calcUnderfill(primitivevec.New(), m.bins[i].capacity)
		m.bins[i].contained = make(map[apnetlist.BlockID]struct{})
	}
	for _, b := range netlist.Blocks() {
		id := m.GetBin(p.X[b], p.Y[b], int(p.Layer[b]))
		m.InsertBlock(id, b, calc.BlockMass(b))
	}
}

// ExportPlacement writes every moveable block's bin-relative position back
// into p, clamping it strictly inside its current bin's region by epsilon on
// each side. Fixed blocks are left untouched since their coordinates are
// already pinned, matching the source's export_placement_from_bins.
func (m *Manager) ExportPlacement(netlist *apnetlist.Netlist, p *placement.PartialPlacement) {
	for _, b := range netlist.Blocks() {
		if netlist.BlockMobility(b) == apnetlist.Fixed {
			continue
		}
		id := m.blockBin[b]
		x, y := m.blockLocationInBin(id, p.X[b], p.Y[b])
		p.X[b] = x
		p.Y[b] = y
	}
}

// blockLocationInBin clamps (x, y) into bin id's region, inset by epsilon on
// each side, so the exported coordinate never lands exactly on a bin
// boundary (and so can never be floored into a neighbouring bin).
func (m *Manager) blockLocationInBin(id BinID, x, y float64) (cx, cy float64) {
	r := m.bins[id].region
	cx = clamp(r.X0+epsilon, r.X1-epsilon, x)
	cy = clamp(r.Y0+epsilon, r.Y1-epsilon, y)
	return cx, cy
}

func clamp(lo, hi, v float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Verify checks the bin/overfill/underfill consistency invariants of spec.md
// §8: every bin's overfill/underfill is the Relu of utilization vs capacity.
// The overfilled set needs no separate check: OverfilledBins derives it from
// each bin's overfill on every call.
func (m *Manager) Verify() bool {
	for i := range m.bins {
		bn := &m.bins[i]
		if !primitivevec.Equal(bn.overfill, calcOverfill(bn.utilization, bn.capacity)) {
			return false
		}
		if !primitivevec.Equal(bn.underfill, calcUnderfill(bn.utilization, bn.capacity)) {
			return false
		}
	}
	return true
}

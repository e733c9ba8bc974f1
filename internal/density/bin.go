// Package density implements the density manager (C5): a grid of
// capacity-tracking bins, one per device root-tile, that the legaliser
// spreads overfilled blocks across.
package density

import (
	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/primitivevec"
)

// BinID identifies a bin: a dense index into Manager's bin table.
type BinID int32

// Region is the axis-aligned rectangle a bin covers on the device grid.
type Region struct {
	X0, Y0, X1, Y1 float64
}

// Contains reports whether the point (x, y) lies within the region,
// inclusive of the low edge and exclusive of the high edge.
func (r Region) Contains(x, y float64) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// bin is one record in the density manager: its region, capacity,
// utilisation, cached overfill/underfill and the set of blocks it holds.
type bin struct {
	region      Region
	layer       int
	capacity    primitivevec.Vector
	utilization primitivevec.Vector
	overfill    primitivevec.Vector
	underfill   primitivevec.Vector
	contained   map[apnetlist.BlockID]struct{}
}

func calcOverfill(util, cap primitivevec.Vector) primitivevec.Vector {
	return primitivevec.Relu(primitivevec.Minus(util, cap))
}

func calcUnderfill(util, cap primitivevec.Vector) primitivevec.Vector {
	return primitivevec.Relu(primitivevec.Minus(cap, util))
}

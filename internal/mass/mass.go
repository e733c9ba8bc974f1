// Package mass implements the mass calculator (C3): the per-logical-block,
// per-physical-tile and per-AP-block primitive-vector tables computed once
// from the architecture and the netlist.
package mass

import (
	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/primitivevec"
)

// ModelMassFunc returns the unit mass contributed by one instance of a
// primitive leaf bound to the given model. The source hard-codes this to a
// constant 1.0 with a TODO to make it a weighted function later (spec §9);
// this module keeps that single injection point so a future heuristic
// weighting can replace DefaultModelMass without touching the recursion.
type ModelMassFunc func(model arch.ModelIndex) float64

// DefaultModelMass is the source's "every model costs one unit" policy.
func DefaultModelMass(arch.ModelIndex) float64 { return 1.0 }

// MoleculeAtoms resolves an AP block's molecule handle to the dense list of
// atom model indices it contains. An atom slot that could not be resolved
// (see spec.md §9, source issue #2791: "some of the atom_block_ids may be
// invalid") is represented by a negative ModelIndex and is silently
// skipped — preserved here for parity with the source, not because it is
// believed correct; it is a candidate for revisit.
type MoleculeAtoms func(mol apnetlist.MoleculeHandle) []arch.ModelIndex

// Calculator holds the precomputed, read-only capacity and mass tables.
type Calculator struct {
	logicalBlockCapacity []primitivevec.Vector
	physicalTileCapacity []primitivevec.Vector
	blockMass            []primitivevec.Vector
}

// New computes the three tables once: logical-block-type capacities (by
// recursing the pb/mode tree), physical-tile-type capacities (by combining
// logical-block capacities across sub-tiles), and AP-block masses (by
// summing the unit masses of the atoms inside each block's molecule).
func New(netlist *apnetlist.Netlist, a arch.Architecture, atoms MoleculeAtoms, modelMass ModelMassFunc) *Calculator {
	if modelMass == nil {
		modelMass = DefaultModelMass
	}

	logical := a.LogicalBlockTypes()
	logicalCap := make([]primitivevec.Vector, len(logical))
	for i, lt := range logical {
		logicalCap[i] = logicalBlockTypeCapacity(lt, modelMass)
	}

	physical := a.PhysicalTileTypes()
	physicalCap := make([]primitivevec.Vector, len(physical))
	for i, pt := range physical {
		physicalCap[i] = physicalTileTypeCapacity(pt, logicalCap)
	}

	blockMass := make([]primitivevec.Vector, netlist.NumBlocks())
	for _, b := range netlist.Blocks() {
		blockMass[b] = blockMassOf(b, netlist, atoms, modelMass)
	}

	return &Calculator{
		logicalBlockCapacity: logicalCap,
		physicalTileCapacity: physicalCap,
		blockMass:            blockMass,
	}
}

// LogicalBlockTypeCapacity returns the precomputed capacity of the
// logical-block type at index i.
func (c *Calculator) LogicalBlockTypeCapacity(i int) primitivevec.Vector {
	return c.logicalBlockCapacity[i]
}

// PhysicalTileTypeCapacity returns the precomputed capacity of the
// physical-tile type at index i.
func (c *Calculator) PhysicalTileTypeCapacity(i int) primitivevec.Vector {
	return c.physicalTileCapacity[i]
}

// BlockMass returns the precomputed mass of AP block b.
func (c *Calculator) BlockMass(b apnetlist.BlockID) primitivevec.Vector {
	return c.blockMass[b]
}

// logicalBlockTypeCapacity is the primitive capacity a logical block type
// can hold: the capacity of its root pb type, or the zero vector if the
// logical block type is empty (cannot contain primitives).
func logicalBlockTypeCapacity(lt arch.LogicalBlockType, modelMass ModelMassFunc) primitivevec.Vector {
	if lt.Empty {
		return primitivevec.New()
	}
	return pbTypeCapacity(lt.Root, modelMass)
}

// pbTypeCapacity implements the double recursion between pb types and
// modes: at a primitive leaf, inject the model's unit mass; at a non-leaf,
// mix the capacities of its modes (a pb can only be in one mode at a time)
// by taking the elementwise maximum, an upper bound on what it might hold.
func pbTypeCapacity(pb arch.PbType, modelMass ModelMassFunc) primitivevec.Vector {
	if pb.IsPrimitive {
		cap := primitivevec.New()
		cap.Add(int(pb.Model), modelMass(pb.Model))
		return cap
	}

	cap := primitivevec.New()
	for _, mode := range pb.Modes {
		cap = primitivevec.Max(cap, modeCapacity(mode, modelMass))
	}
	return cap
}

// modeCapacity sums the capacities of every child pb type in the mode,
// each scaled by how many instances of that child pb type the mode
// contains (num_pb).
func modeCapacity(mode arch.Mode, modelMass ModelMassFunc) primitivevec.Vector {
	cap := primitivevec.New()
	for _, child := range mode.Children {
		childCap := pbTypeCapacity(child, modelMass)
		childCap.ScaleEquals(float64(child.NumPb))
		cap.PlusEquals(childCap)
	}
	return cap
}

// physicalTileTypeCapacity sums, over every sub-tile of a physical tile
// type, the mix (elementwise max) of its equivalent logical-block-site
// capacities, scaled by how many instances of that sub-tile the tile
// contains.
func physicalTileTypeCapacity(pt arch.PhysicalTileType, logicalBlockCapacity []primitivevec.Vector) primitivevec.Vector {
	cap := primitivevec.New()
	for _, sub := range pt.SubTiles {
		subCap := primitivevec.New()
		for _, siteIdx := range sub.EquivalentSites {
			subCap = primitivevec.Max(subCap, logicalBlockCapacity[siteIdx])
		}
		subCap.ScaleEquals(float64(sub.Capacity))
		cap.PlusEquals(subCap)
	}
	return cap
}

// blockMassOf sums the unit masses of every atom inside the block's
// molecule, skipping atoms the collaborator could not resolve.
func blockMassOf(b apnetlist.BlockID, netlist *apnetlist.Netlist, atoms MoleculeAtoms, modelMass ModelMassFunc) primitivevec.Vector {
	mass := primitivevec.New()
	if atoms == nil {
		return mass
	}
	mol := netlist.BlockMolecule(b)
	for _, model := range atoms(mol) {
		if model < 0 {
			continue
		}
		mass.Add(int(model), modelMass(model))
	}
	return mass
}

// Package apnetlist implements the analytical-placement netlist: an
// immutable-after-build graph of blocks, ports, pins and nets handed to the
// core by the atom-netlist/prepacker collaborators.
package apnetlist

// BlockID identifies an AP block: a collection of atoms (a molecule) which
// move together during placement.
type BlockID int32

// PortID identifies a port belonging to exactly one block.
type PortID int32

// PinID identifies a single bit of a port, belonging to exactly one net.
type PinID int32

// NetID identifies an unordered hyperedge between pins.
type NetID int32

// InvalidBlockID is returned when no block exists at a given slot.
const InvalidBlockID BlockID = -1

// Mobility describes whether a block may be moved by the solver/legaliser.
type Mobility bool

const (
	// Moveable blocks may be relocated freely by the solver and legaliser.
	Moveable Mobility = false
	// Fixed blocks carry a FixedLoc that constrains one or more axes.
	Fixed Mobility = true
)

// UnsetAxis marks a FixedLoc component as unconstrained.
const UnsetAxis int32 = -1

// FixedLoc is a block's fixed-location constraint. Any component may be
// UnsetAxis, meaning placement verification does not check that axis. The
// solver, density manager and legaliser still keep every Fixed block where
// it is on all axes; an unset axis is not moved.
type FixedLoc struct {
	X, Y, Layer, SubTile int32
}

// PortDirection is the direction of signal flow through a port.
type PortDirection int

const (
	DirIn PortDirection = iota
	DirOut
	DirClock
)

// PinRole distinguishes a pin that drives a net from one that sinks it.
type PinRole int

const (
	RoleSink PinRole = iota
	RoleDriver
)

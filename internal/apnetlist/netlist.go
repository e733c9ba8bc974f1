package apnetlist

// MoleculeHandle is an opaque pointer into the prepacker's molecule table.
// The netlist never dereferences it; it is only carried through to the mass
// calculator (C3), which resolves it against the prepacker collaborator.
type MoleculeHandle int64

type block struct {
	name     string
	molecule MoleculeHandle
	mobility Mobility
	loc      FixedLoc
}

type port struct {
	blockID BlockID
	name    string
	width   int
	dir     PortDirection
	pins    []PinID
}

type pin struct {
	portID   PortID
	bitIndex int
	netID    NetID
	role     PinRole
	isConst  bool
}

type net struct {
	name    string
	pins    []PinID
	ignored bool
	global  bool
}

// Netlist is the frozen, read-only graph of AP blocks/ports/pins/nets. It is
// built once via Builder and never mutated afterward; ids are contiguous,
// stable, and returned in insertion order by every enumeration method.
type Netlist struct {
	blocks []block
	ports  []port
	pins   []pin
	nets   []net
}

// NumBlocks returns the number of blocks in the netlist.
func (n *Netlist) NumBlocks() int { return len(n.blocks) }

// NumPorts returns the number of ports in the netlist.
func (n *Netlist) NumPorts() int { return len(n.ports) }

// NumPins returns the number of pins in the netlist.
func (n *Netlist) NumPins() int { return len(n.pins) }

// NumNets returns the number of nets in the netlist.
func (n *Netlist) NumNets() int { return len(n.nets) }

// Blocks returns every block id, in insertion order.
func (n *Netlist) Blocks() []BlockID {
	ids := make([]BlockID, len(n.blocks))
	for i := range n.blocks {
		ids[i] = BlockID(i)
	}
	return ids
}

// Ports returns every port id, in insertion order.
func (n *Netlist) Ports() []PortID {
	ids := make([]PortID, len(n.ports))
	for i := range n.ports {
		ids[i] = PortID(i)
	}
	return ids
}

// Pins returns every pin id, in insertion order.
func (n *Netlist) Pins() []PinID {
	ids := make([]PinID, len(n.pins))
	for i := range n.pins {
		ids[i] = PinID(i)
	}
	return ids
}

// Nets returns every net id, in insertion order.
func (n *Netlist) Nets() []NetID {
	ids := make([]NetID, len(n.nets))
	for i := range n.nets {
		ids[i] = NetID(i)
	}
	return ids
}

// BlockName returns the name of block b.
func (n *Netlist) BlockName(b BlockID) string { return n.blocks[b].name }

// BlockMolecule returns the molecule handle for block b.
func (n *Netlist) BlockMolecule(b BlockID) MoleculeHandle { return n.blocks[b].molecule }

// BlockMobility returns whether block b is moveable or fixed.
func (n *Netlist) BlockMobility(b BlockID) Mobility { return n.blocks[b].mobility }

// BlockFixedLoc returns the fixed-location constraint for block b. Callers
// must not use this for a moveable block.
func (n *Netlist) BlockFixedLoc(b BlockID) FixedLoc { return n.blocks[b].loc }

// BlockPorts returns the ports belonging to block b, in insertion order.
func (n *Netlist) BlockPorts(b BlockID) []PortID {
	var out []PortID
	for i, p := range n.ports {
		if p.blockID == b {
			out = append(out, PortID(i))
		}
	}
	return out
}

// PortBlock returns the block a port belongs to.
func (n *Netlist) PortBlock(p PortID) BlockID { return n.ports[p].blockID }

// PortWidth returns the bit width of a port.
func (n *Netlist) PortWidth(p PortID) int { return n.ports[p].width }

// PortDirection returns the direction of a port.
func (n *Netlist) PortDirection(p PortID) PortDirection { return n.ports[p].dir }

// PortPins returns the dense pin array of a port, indexed by bit.
func (n *Netlist) PortPins(p PortID) []PinID { return n.ports[p].pins }

// PinPort returns the port a pin belongs to.
func (n *Netlist) PinPort(p PinID) PortID { return n.pins[p].portID }

// PinBlock returns the block that owns the given pin.
func (n *Netlist) PinBlock(p PinID) BlockID { return n.PortBlock(n.PinPort(p)) }

// PinNet returns the net a pin belongs to.
func (n *Netlist) PinNet(p PinID) NetID { return n.pins[p].netID }

// PinRole returns whether a pin drives or sinks its net.
func (n *Netlist) PinRole(p PinID) PinRole { return n.pins[p].role }

// PinIsConst reports whether a pin holds a constant (e.g. vcc/gnd) value.
func (n *Netlist) PinIsConst(p PinID) bool { return n.pins[p].isConst }

// NetName returns the name of a net.
func (n *Netlist) NetName(id NetID) string { return n.nets[id].name }

// NetPins returns the pins belonging to a net, in insertion order.
func (n *Netlist) NetPins(id NetID) []PinID { return n.nets[id].pins }

// NetIsIgnored reports whether a net is excluded from HPWL/the solver
// objective.
func (n *Netlist) NetIsIgnored(id NetID) bool { return n.nets[id].ignored }

// NetIsGlobal reports whether a net is a clock/reset net, excluded from
// post-placement wirelength estimation.
func (n *Netlist) NetIsGlobal(id NetID) bool { return n.nets[id].global }

package apnetlist

// Builder accumulates blocks, ports, pins and nets before Build() freezes
// them into an immutable Netlist. All create_* methods silently return the
// existing id if the entity was already created under that name, matching
// the source netlist's contract.
type Builder struct {
	n            Netlist
	blockByName  map[string]BlockID
	portByBlock  map[BlockID]map[string]PortID
	netByName    map[string]NetID
}

// NewBuilder returns an empty netlist builder.
func NewBuilder() *Builder {
	return &Builder{
		n:           Netlist{},
		blockByName: make(map[string]BlockID),
		portByBlock: make(map[BlockID]map[string]PortID),
		netByName:   make(map[string]NetID),
	}
}

// CreateBlock creates or returns the existing moveable block with the given
// name, carrying the given molecule handle.
func (b *Builder) CreateBlock(name string, molecule MoleculeHandle) BlockID {
	if id, ok := b.blockByName[name]; ok {
		return id
	}
	id := BlockID(len(b.n.blocks))
	b.n.blocks = append(b.n.blocks, block{name: name, molecule: molecule, mobility: Moveable})
	b.blockByName[name] = id
	return id
}

// SetBlockFixedLoc marks a block as Fixed at the given location. Components
// of loc set to UnsetAxis are not checked by placement verification; the
// block is still not moved on those axes.
func (b *Builder) SetBlockFixedLoc(id BlockID, loc FixedLoc) {
	b.n.blocks[id].mobility = Fixed
	b.n.blocks[id].loc = loc
}

// CreatePort creates or returns the existing port of the given name on
// block blk.
func (b *Builder) CreatePort(blk BlockID, name string, width int, dir PortDirection) PortID {
	if byName, ok := b.portByBlock[blk]; ok {
		if id, ok := byName[name]; ok {
			return id
		}
	} else {
		b.portByBlock[blk] = make(map[string]PortID)
	}
	id := PortID(len(b.n.ports))
	b.n.ports = append(b.n.ports, port{
		blockID: blk,
		name:    name,
		width:   width,
		dir:     dir,
		pins:    make([]PinID, width),
	})
	for i := range b.n.ports[id].pins {
		b.n.ports[id].pins[i] = -1
	}
	b.portByBlock[blk][name] = id
	return id
}

// CreateNet creates or returns the existing net with the given name.
func (b *Builder) CreateNet(name string) NetID {
	if id, ok := b.netByName[name]; ok {
		return id
	}
	id := NetID(len(b.n.nets))
	b.n.nets = append(b.n.nets, net{name: name})
	b.netByName[name] = id
	return id
}

// SetNetFlags sets the ignored/global flags of a net.
func (b *Builder) SetNetFlags(id NetID, ignored, global bool) {
	b.n.nets[id].ignored = ignored
	b.n.nets[id].global = global
}

// CreatePin creates a pin at bit portBit of port p, wired to net, and
// returns its id.
func (b *Builder) CreatePin(p PortID, portBit int, netID NetID, role PinRole, isConst bool) PinID {
	if existing := b.n.ports[p].pins[portBit]; existing >= 0 {
		return existing
	}
	id := PinID(len(b.n.pins))
	b.n.pins = append(b.n.pins, pin{
		portID:   p,
		bitIndex: portBit,
		netID:    netID,
		role:     role,
		isConst:  isConst,
	})
	b.n.ports[p].pins[portBit] = id
	b.n.nets[netID].pins = append(b.n.nets[netID].pins, id)
	return id
}

// Build freezes the accumulated entities into an immutable Netlist.
func (b *Builder) Build() *Netlist {
	out := b.n
	return &out
}

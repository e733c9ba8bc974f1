// Package arch defines the external collaborator contracts the core
// consumes (§6): the device grid and the architecture description. These
// are interfaces only — the core never owns an implementation beyond the
// minimal in-memory ones provided here for tests and simple embedders.
package arch

// ModelIndex is a dense primitive-type index in [0, M), assigned once at
// startup from the architecture's model table.
type ModelIndex int

// PbType is a node in a pb/mode tree: either a primitive leaf bound to a
// model, or an internal node with one or more Modes.
type PbType struct {
	Name string
	// NumPb is how many instances of this pb type exist within its parent
	// mode (the "num_pb" multiplicity in the source).
	NumPb int
	// Model is valid (and Modes empty) only when this pb type is a
	// primitive leaf.
	IsPrimitive bool
	Model       ModelIndex
	// Modes holds the mutually-exclusive implementations of this pb type.
	// A leaf has no modes.
	Modes []Mode
}

// Mode is one mode of a non-leaf PbType: a fixed set of child pb types,
// every one of which is simultaneously present whenever this mode is
// chosen.
type Mode struct {
	Name     string
	Children []PbType
}

// LogicalBlockType is a placeable logical block, rooted at a pb/mode tree.
// A logical block type with no root pb type (Empty) cannot hold primitives.
type LogicalBlockType struct {
	Name  string
	Empty bool
	Root  PbType
}

// SubTile is one sub-tile slot of a physical tile type: a set of
// interchangeable logical block types ("equivalent sites") and a count of
// how many instances of this sub-tile the physical tile type contains.
type SubTile struct {
	Name             string
	EquivalentSites  []int // indexes into Architecture.LogicalBlockTypes
	Capacity         int   // number of instances of this sub-tile per tile
}

// PhysicalTileType is a placeable tile type on the device grid.
type PhysicalTileType struct {
	Name      string
	SubTiles  []SubTile
	Width     int
	Height    int
}

// Architecture exposes the logical/physical tile-type tables and model
// table the mass calculator (C3) needs. No core logic lives behind this
// interface; it is implemented by the embedder or by StaticArchitecture.
type Architecture interface {
	NumModels() int
	LogicalBlockTypes() []LogicalBlockType
	PhysicalTileTypes() []PhysicalTileType
}

// StaticArchitecture is a minimal in-memory Architecture, useful for tests
// and for embedders that already have the whole architecture resident.
type StaticArchitecture struct {
	Models   []string
	Logical  []LogicalBlockType
	Physical []PhysicalTileType
}

func (a *StaticArchitecture) NumModels() int                          { return len(a.Models) }
func (a *StaticArchitecture) LogicalBlockTypes() []LogicalBlockType    { return a.Logical }
func (a *StaticArchitecture) PhysicalTileTypes() []PhysicalTileType    { return a.Physical }

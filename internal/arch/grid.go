package arch

// Grid is the device-grid collaborator (§6): a width x height x layers
// array of physical-tile-type placements. Multi-cell tiles occupy more than
// one grid cell; WidthOffset/HeightOffset identify how far a cell is from
// its tile's root (top-left) cell, with (0, 0) marking the root itself.
type Grid interface {
	Width() int
	Height() int
	NumLayers() int

	// TileTypeIndexAt returns the index into Architecture.PhysicalTileTypes
	// of the tile occupying (layer, x, y), or -1 if the cell is empty.
	TileTypeIndexAt(layer, x, y int) int

	// WidthOffset and HeightOffset return how far (x, y) is from the root
	// (top-left) cell of the multi-cell tile it belongs to. Both are zero
	// exactly at the root cell.
	WidthOffset(layer, x, y int) int
	HeightOffset(layer, x, y int) int
}

// StaticGrid is a minimal in-memory Grid built from a dense tile-type index
// array, useful for tests and for embedders with a fully-resident grid.
type StaticGrid struct {
	width, height, layers int
	tileType              []int // layer-major, then y, then x
	widthOffset            []int
	heightOffset           []int
}

// NewStaticGrid builds a grid where every cell is a separate, single-cell
// tile of tileType(layer, x, y). Use PlaceTile to carve out multi-cell
// tiles after construction.
func NewStaticGrid(width, height, layers int, tileType func(layer, x, y int) int) *StaticGrid {
	g := &StaticGrid{width: width, height: height, layers: layers}
	n := width * height * layers
	g.tileType = make([]int, n)
	g.widthOffset = make([]int, n)
	g.heightOffset = make([]int, n)
	for l := 0; l < layers; l++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				g.tileType[g.index(l, x, y)] = tileType(l, x, y)
			}
		}
	}
	return g
}

func (g *StaticGrid) index(layer, x, y int) int {
	return (layer*g.height+y)*g.width + x
}

// PlaceTile marks a w x h tile of type typeIdx rooted at (x0, y0, layer),
// setting the width/height offsets of every cell it covers.
func (g *StaticGrid) PlaceTile(layer, x0, y0, typeIdx, w, h int) {
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			i := g.index(layer, x0+dx, y0+dy)
			g.tileType[i] = typeIdx
			g.widthOffset[i] = dx
			g.heightOffset[i] = dy
		}
	}
}

func (g *StaticGrid) Width() int      { return g.width }
func (g *StaticGrid) Height() int     { return g.height }
func (g *StaticGrid) NumLayers() int  { return g.layers }

func (g *StaticGrid) TileTypeIndexAt(layer, x, y int) int {
	return g.tileType[g.index(layer, x, y)]
}

func (g *StaticGrid) WidthOffset(layer, x, y int) int {
	return g.widthOffset[g.index(layer, x, y)]
}

func (g *StaticGrid) HeightOffset(layer, x, y int) int {
	return g.heightOffset[g.index(layer, x, y)]
}

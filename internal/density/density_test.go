package density_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/density"
	"github.com/sarchlab/vprap/internal/mass"
	"github.com/sarchlab/vprap/internal/placement"
	"github.com/sarchlab/vprap/internal/primitivevec"
)

const modelLUT arch.ModelIndex = 0

func lutArchitecture() *arch.StaticArchitecture {
	return &arch.StaticArchitecture{
		Models: []string{"lut"},
		Logical: []arch.LogicalBlockType{
			{Name: "LUT", Root: arch.PbType{Name: "lut", IsPrimitive: true, Model: modelLUT, NumPb: 1}},
		},
		Physical: []arch.PhysicalTileType{
			{
				Name: "CLB_TILE", Width: 1, Height: 1,
				SubTiles: []arch.SubTile{{Name: "clb_site", EquivalentSites: []int{0}, Capacity: 1}},
			},
			{
				Name: "IO_TILE", Width: 2, Height: 1,
				SubTiles: []arch.SubTile{{Name: "io_site", EquivalentSites: []int{0}, Capacity: 1}},
			},
		},
	}
}

// threeByOneGrid places CLB_TILE at x=0 and a 2-wide IO_TILE rooted at x=1,
// so GetBin(2, 0, 0) must alias to the same bin as GetBin(1, 0, 0).
func threeByOneGrid() *arch.StaticGrid {
	g := arch.NewStaticGrid(3, 1, 1, func(layer, x, y int) int {
		if x == 0 {
			return 0
		}
		return 1
	})
	g.PlaceTile(0, 1, 0, 1, 2, 1)
	return g
}

func oneAtomMolecule(apnetlist.MoleculeHandle) []arch.ModelIndex {
	return []arch.ModelIndex{modelLUT}
}

var _ = Describe("Manager", func() {
	var (
		a    *arch.StaticArchitecture
		g    *arch.StaticGrid
		nl   *apnetlist.Netlist
		calc *mass.Calculator
		blk0 apnetlist.BlockID
	)

	BeforeEach(func() {
		a = lutArchitecture()
		g = threeByOneGrid()

		b := apnetlist.NewBuilder()
		blk0 = b.CreateBlock("blk0", 1)
		nl = b.Build()

		calc = mass.New(nl, a, oneAtomMolecule, nil)
	})

	It("creates one bin per root tile and aliases non-root cells to it", func() {
		m, err := density.NewManager(g, a, calc, nl, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.NumBins()).To(Equal(2))

		ioRootBin := m.GetBin(1, 0, 0)
		Expect(m.GetBin(2, 0, 0)).To(Equal(ioRootBin))
	})

	It("projects bin capacity onto only dimensions used by some block mass", func() {
		m, err := density.NewManager(g, a, calc, nl, nil)
		Expect(err).NotTo(HaveOccurred())

		clbBin := m.GetBin(0, 0, 0)
		Expect(m.BinCapacity(clbBin).Get(int(modelLUT))).To(Equal(1.0))
	})

	It("rejects a non-positive target density override", func() {
		_, err := density.NewManager(g, a, calc, nl, []density.TargetDensityOverride{
			{TileType: "CLB_TILE", Factor: 0},
		})
		Expect(err).To(HaveOccurred())

		_, err = density.NewManager(g, a, calc, nl, []density.TargetDensityOverride{
			{TileType: "CLB_TILE", Factor: -1},
		})
		Expect(err).To(HaveOccurred())
	})

	It("scales bin capacity by a positive target density override", func() {
		m, err := density.NewManager(g, a, calc, nl, []density.TargetDensityOverride{
			{TileType: "CLB_TILE", Factor: 2},
		})
		Expect(err).NotTo(HaveOccurred())
		clbBin := m.GetBin(0, 0, 0)
		Expect(m.BinCapacity(clbBin).Get(int(modelLUT))).To(Equal(2.0))
	})

	It("incrementally maintains overfill on insert and remove", func() {
		m, err := density.NewManager(g, a, calc, nl, nil)
		Expect(err).NotTo(HaveOccurred())

		clbBin := m.GetBin(0, 0, 0)
		Expect(m.IsOverfilled(clbBin)).To(BeFalse())

		blockMass := calc.BlockMass(blk0)
		m.InsertBlock(clbBin, blk0, blockMass)
		Expect(m.IsOverfilled(clbBin)).To(BeFalse())
		Expect(m.BinUtilization(clbBin).Get(int(modelLUT))).To(Equal(1.0))

		m.InsertBlock(clbBin, blk0, blockMass)
		Expect(m.IsOverfilled(clbBin)).To(BeTrue())
		Expect(m.OverfilledBins()).To(ContainElement(clbBin))

		m.RemoveBlock(clbBin, blk0, blockMass)
		Expect(m.IsOverfilled(clbBin)).To(BeFalse())
		Expect(m.OverfilledBins()).NotTo(ContainElement(clbBin))
	})

	It("imports a placement into empty bins and exports it clamped by epsilon", func() {
		m, err := density.NewManager(g, a, calc, nl, nil)
		Expect(err).NotTo(HaveOccurred())

		p := placement.New(nl)
		p.X[blk0], p.Y[blk0], p.Layer[blk0] = 0, 0, 0

		m.ImportPlacement(nl, p, calc)
		clbBin := m.GetBin(0, 0, 0)
		Expect(m.BinUtilization(clbBin).Get(int(modelLUT))).To(Equal(1.0))

		p.X[blk0], p.Y[blk0] = 0, 0
		m.ExportPlacement(nl, p)
		Expect(p.X[blk0]).To(BeNumerically(">", 0))
		Expect(p.X[blk0]).To(BeNumerically("<", 1))
		Expect(p.Y[blk0]).To(BeNumerically(">", 0))
	})

	It("passes Verify when overfill/underfill match utilization and capacity", func() {
		m, err := density.NewManager(g, a, calc, nl, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Verify()).To(BeTrue())

		clbBin := m.GetBin(0, 0, 0)
		m.InsertBlock(clbBin, blk0, calc.BlockMass(blk0))
		Expect(m.Verify()).To(BeTrue())
	})
})

var _ = Describe("Region", func() {
	It("contains points on its low edge but not its high edge", func() {
		r := density.Region{X0: 1, Y0: 1, X1: 2, Y1: 2}
		Expect(r.Contains(1, 1)).To(BeTrue())
		Expect(r.Contains(1.999, 1.999)).To(BeTrue())
		Expect(r.Contains(2, 1)).To(BeFalse())
	})
})

var _ = Describe("calcOverfill/calcUnderfill parity", func() {
	It("matches Relu(util - cap) and Relu(cap - util)", func() {
		cap := primitivevec.New()
		cap.Set(0, 2)
		util := primitivevec.New()
		util.Set(0, 3)
		Expect(primitivevec.Relu(primitivevec.Minus(util, cap)).Get(0)).To(Equal(1.0))
		Expect(primitivevec.Relu(primitivevec.Minus(cap, util)).Get(0)).To(Equal(0.0))
	})
})

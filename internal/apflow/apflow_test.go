package apflow_test

import (
	gomock "github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vprap/internal/apflow"
	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/density"
	"github.com/sarchlab/vprap/internal/mass"
)

const model0 arch.ModelIndex = 0

func identityArchitecture() *arch.StaticArchitecture {
	return &arch.StaticArchitecture{
		Models: []string{"m0"},
		Logical: []arch.LogicalBlockType{
			{Name: "T0", Root: arch.PbType{Name: "t0", IsPrimitive: true, Model: model0, NumPb: 1}},
		},
		Physical: []arch.PhysicalTileType{
			{
				Name: "tile0", Width: 1, Height: 1,
				SubTiles: []arch.SubTile{{Name: "t0_site", EquivalentSites: []int{0}, Capacity: 1}},
			},
		},
	}
}

func identityGrid() *arch.StaticGrid {
	return arch.NewStaticGrid(13, 43, 3, func(layer, x, y int) int { return 0 })
}

func noAtoms(apnetlist.MoleculeHandle) []arch.ModelIndex { return nil }

var _ = Describe("Run", func() {
	It("leaves a fixed block at its constrained coordinates with no nets (Scenario A)", func() {
		a := identityArchitecture()
		g := identityGrid()

		b := apnetlist.NewBuilder()
		b.CreateBlock("A", 0)
		b.CreateBlock("B", 1)
		blkC := b.CreateBlock("C", 2)
		b.SetBlockFixedLoc(blkC, apnetlist.FixedLoc{X: 12, Y: 42, Layer: 2, SubTile: 1})
		nl := b.Build()

		calc := mass.New(nl, a, noAtoms, nil)

		cfg := apflow.NewBuilder().
			WithNetlist(nl).
			WithGrid(g).
			WithArchitecture(a).
			WithCalculator(calc).
			Build()

		result, err := apflow.Run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Placement.X[blkC]).To(Equal(12.0))
		Expect(result.Placement.Y[blkC]).To(Equal(42.0))
		Expect(result.Placement.Layer[blkC]).To(Equal(2.0))
		Expect(result.Placement.SubTile[blkC]).To(Equal(int32(1)))
		Expect(result.RunID).NotTo(BeEmpty())
	})

	It("surfaces an unknown target-density tile as an APError", func() {
		a := identityArchitecture()
		g := identityGrid()

		b := apnetlist.NewBuilder()
		b.CreateBlock("A", 0)
		nl := b.Build()
		calc := mass.New(nl, a, noAtoms, nil)

		cfg := apflow.NewBuilder().
			WithNetlist(nl).
			WithGrid(g).
			WithArchitecture(a).
			WithCalculator(calc).
			WithDensityOverrides([]density.TargetDensityOverride{{TileType: "nonexistent", Factor: 1.0}}).
			Build()

		_, err := apflow.Run(cfg)
		Expect(err).To(HaveOccurred())
		var apErr *apflow.APError
		Expect(err).To(BeAssignableToTypeOf(apErr))
		Expect(err.(*apflow.APError).Kind).To(Equal(apflow.UnknownTargetDensityTile))
	})

	It("runs against collaborators supplied only through the arch.Grid/arch.Architecture interfaces", func() {
		mockCtrl := gomock.NewController(GinkgoT())
		defer mockCtrl.Finish()

		mockGrid := NewMockGrid(mockCtrl)
		mockGrid.EXPECT().Width().Return(1).AnyTimes()
		mockGrid.EXPECT().Height().Return(1).AnyTimes()
		mockGrid.EXPECT().NumLayers().Return(1).AnyTimes()
		mockGrid.EXPECT().TileTypeIndexAt(gomock.Any(), gomock.Any(), gomock.Any()).Return(0).AnyTimes()
		mockGrid.EXPECT().WidthOffset(gomock.Any(), gomock.Any(), gomock.Any()).Return(0).AnyTimes()
		mockGrid.EXPECT().HeightOffset(gomock.Any(), gomock.Any(), gomock.Any()).Return(0).AnyTimes()

		mockArch := NewMockArchitecture(mockCtrl)
		mockArch.EXPECT().NumModels().Return(1).AnyTimes()
		mockArch.EXPECT().LogicalBlockTypes().Return([]arch.LogicalBlockType{
			{Name: "T0", Root: arch.PbType{Name: "t0", IsPrimitive: true, Model: model0, NumPb: 1}},
		}).AnyTimes()
		mockArch.EXPECT().PhysicalTileTypes().Return([]arch.PhysicalTileType{
			{
				Name: "tile0", Width: 1, Height: 1,
				SubTiles: []arch.SubTile{{Name: "t0_site", EquivalentSites: []int{0}, Capacity: 1}},
			},
		}).AnyTimes()

		nl := apnetlist.NewBuilder().Build()
		calc := mass.New(nl, mockArch, noAtoms, nil)

		cfg := apflow.NewBuilder().
			WithNetlist(nl).
			WithGrid(mockGrid).
			WithArchitecture(mockArch).
			WithCalculator(calc).
			Build()

		result, err := apflow.Run(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Placement).NotTo(BeNil())
	})
})

var _ = Describe("Builder", func() {
	It("panics when Build is called without a required collaborator", func() {
		Expect(func() { apflow.NewBuilder().Build() }).To(Panic())
	})
})

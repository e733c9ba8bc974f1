package placement_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/placement"
)

func scenarioANetlist() (*apnetlist.Netlist, apnetlist.BlockID, apnetlist.BlockID, apnetlist.BlockID) {
	b := apnetlist.NewBuilder()
	a := b.CreateBlock("A", 0)
	bb := b.CreateBlock("B", 0)
	c := b.CreateBlock("C", 0)
	b.SetBlockFixedLoc(c, apnetlist.FixedLoc{X: 12, Y: 42, Layer: 2, SubTile: 1})
	return b.Build(), a, bb, c
}

var _ = Describe("PartialPlacement", func() {
	It("seeds moveable blocks at the sentinel and fixed blocks at their constraint", func() {
		nl, a, bb, c := scenarioANetlist()
		p := placement.New(nl)

		Expect(p.X[a]).To(Equal(-1.0))
		Expect(p.Y[bb]).To(Equal(-1.0))
		Expect(p.X[c]).To(Equal(12.0))
		Expect(p.Y[c]).To(Equal(42.0))
		Expect(p.Layer[c]).To(Equal(2.0))
		Expect(p.SubTile[c]).To(Equal(int32(1)))
	})

	It("passes verify for scenario A (identity placement, no nets)", func() {
		nl, a, bb, _ := scenarioANetlist()
		p := placement.New(nl)
		p.X[a], p.Y[a] = 1, 1
		p.X[bb], p.Y[bb] = 2, 2
		Expect(p.Verify(nl, 100, 100, 4, false)).To(BeTrue())
	})

	It("rejects a fixed block placed off its constrained axis", func() {
		nl, a, bb, c := scenarioANetlist()
		p := placement.New(nl)
		p.X[a], p.Y[a] = 1, 1
		p.X[bb], p.Y[bb] = 2, 2
		p.X[c] = 13
		Expect(p.Verify(nl, 100, 100, 4, false)).To(BeFalse())
	})

	It("applies the 0.5,0.5 offset only when verifying a flat-placement hint", func() {
		nl, a, bb, c := scenarioANetlist()
		p := placement.New(nl)
		p.X[a], p.Y[a] = 1, 1
		p.X[bb], p.Y[bb] = 2, 2
		p.X[c] = 12.5
		p.Y[c] = 42.5

		Expect(p.Verify(nl, 100, 100, 4, false)).To(BeFalse())
		Expect(p.Verify(nl, 100, 100, 4, true)).To(BeTrue())
	})

	It("floors coordinates to find the containing tile", func() {
		nl, a, _, _ := scenarioANetlist()
		p := placement.New(nl)
		p.X[a] = 3.7
		p.Y[a] = 1.2
		p.Layer[a] = 0

		loc := p.GetContainingTileLoc(a)
		Expect(loc).To(Equal(placement.TileLoc{X: 3, Y: 1, Layer: 0}))
	})

	It("computes zero HPWL for a netlist with no nets", func() {
		nl, _, _, _ := scenarioANetlist()
		p := placement.New(nl)
		Expect(p.HPWL(nl)).To(Equal(0.0))
	})
})

package solver_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/placement"
	"github.com/sarchlab/vprap/internal/solver"
)

func twoPinNetNetlist() *apnetlist.Netlist {
	b := apnetlist.NewBuilder()
	a := b.CreateBlock("A", 0)
	c := b.CreateBlock("B", 1)
	pa := b.CreatePort(a, "out", 1, apnetlist.DirOut)
	pb := b.CreatePort(c, "in", 1, apnetlist.DirIn)
	net := b.CreateNet("n0")
	b.CreatePin(pa, 0, net, apnetlist.RoleDriver, false)
	b.CreatePin(pb, 0, net, apnetlist.RoleSink, false)
	return b.Build()
}

var _ = Describe("QPHybrid solver", func() {
	It("converges two blocks on a single 2-pin net to identical coordinates (Scenario B)", func() {
		nl := twoPinNetNetlist()
		p := placement.New(nl)
		p.X[0], p.Y[0] = 0, 0
		p.X[1], p.Y[1] = 5, 5

		s := solver.New(solver.QPHybrid, nl, p)
		Expect(s.Solve(0, p)).To(Succeed())

		Expect(p.X[0]).To(BeNumerically("~", p.X[1], 1e-6))
		Expect(p.Y[0]).To(BeNumerically("~", p.Y[1], 1e-6))
		Expect(p.HPWL(nl)).To(BeNumerically("~", 0, 1e-6))
	})

	It("pulls a moveable block toward a connected fixed block on iteration 0 (Scenario C)", func() {
		b := apnetlist.NewBuilder()
		mv := b.CreateBlock("mv", 0)
		fx := b.CreateBlock("fx", 1)
		b.SetBlockFixedLoc(fx, apnetlist.FixedLoc{X: 10, Y: 10, Layer: 0, SubTile: 0})
		pmv := b.CreatePort(mv, "out", 1, apnetlist.DirOut)
		pfx := b.CreatePort(fx, "in", 1, apnetlist.DirIn)
		net := b.CreateNet("n0")
		b.CreatePin(pmv, 0, net, apnetlist.RoleDriver, false)
		b.CreatePin(pfx, 0, net, apnetlist.RoleSink, false)
		nl := b.Build()

		p := placement.New(nl)
		s := solver.New(solver.QPHybrid, nl, p)
		Expect(s.Solve(0, p)).To(Succeed())

		Expect(p.X[mv]).To(BeNumerically("~", 10, 1e-6))
		Expect(p.Y[mv]).To(BeNumerically("~", 10, 1e-6))
	})

	It("solves a net above STAR_THRESHOLD pins to one shared x coordinate (Scenario D)", func() {
		b := apnetlist.NewBuilder()
		net := b.CreateNet("n0")
		for i := 0; i < 5; i++ {
			blk := b.CreateBlock(string(rune('A'+i)), apnetlist.MoleculeHandle(i))
			port := b.CreatePort(blk, "p", 1, apnetlist.DirOut)
			b.CreatePin(port, 0, net, apnetlist.RoleDriver, false)
		}
		nl := b.Build()
		Expect(len(nl.NetPins(net))).To(Equal(5))

		p := placement.New(nl)
		// Constructing the solver must not panic and the unanchored solve must
		// succeed. The system's shape (the extra star row) is internal to the
		// package and is not checked here.
		s := solver.New(solver.QPHybrid, nl, p)
		Expect(s.Solve(0, p)).To(Succeed())

		x0 := p.X[0]
		for i := 1; i < 5; i++ {
			Expect(p.X[i]).To(BeNumerically("~", x0, 1e-6))
		}
	})

	It("short-circuits to a no-op on an empty netlist", func() {
		b := apnetlist.NewBuilder()
		nl := b.Build()
		p := placement.New(nl)
		s := solver.New(solver.QPHybrid, nl, p)
		Expect(s.Solve(0, p)).To(Succeed())
	})
})

var _ = Describe("FullQuadratic solver", func() {
	It("solves a 5-pin net to one shared x coordinate", func() {
		b := apnetlist.NewBuilder()
		net := b.CreateNet("n0")
		for i := 0; i < 5; i++ {
			blk := b.CreateBlock(string(rune('A'+i)), apnetlist.MoleculeHandle(i))
			port := b.CreatePort(blk, "p", 1, apnetlist.DirOut)
			b.CreatePin(port, 0, net, apnetlist.RoleDriver, false)
		}
		nl := b.Build()

		p := placement.New(nl)
		s := solver.New(solver.FullQuadratic, nl, p)
		Expect(s.Solve(0, p)).To(Succeed())

		x0 := p.X[0]
		for i := 1; i < 5; i++ {
			Expect(p.X[i]).To(BeNumerically("~", x0, 1e-6))
		}
	})
})

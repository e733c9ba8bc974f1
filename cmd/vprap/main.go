// Command vprap is a thin wrapping CLI around the analytical-placement
// core (internal/apflow): it wires flag-parsed target-density overrides
// and a mass-report output path to one driver run, the way the teacher's
// samples/*/main.go wires a device builder to one driver.Run() call. The
// atom-netlist/prepacker producers that build a real internal/apnetlist
// graph from a design are out of scope (spec.md §1's Non-goals) and are
// not implemented here; this entry point demonstrates the wiring with a
// small self-contained placeholder circuit so the module is runnable end
// to end.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/vprap/internal/apconfig"
	"github.com/sarchlab/vprap/internal/apflow"
	"github.com/sarchlab/vprap/internal/aplog"
	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/mass"
)

func main() {
	targetDensityArg := flag.String("target-density", "auto", "tile_type:factor,... target density overrides, or \"auto\"")
	reportPath := flag.String("mass-report", "ap_mass.rpt", "path to write the human-readable mass report")
	flag.Parse()

	overrides, err := apconfig.ParseTargetDensities([]string{*targetDensityArg})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	a, g, nl, calc := placeholderCircuit()

	reportFile, err := os.Create(*reportPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	atexit.Register(func() {
		reportFile.Close()
		fmt.Printf("wrote %s\n", *reportPath)
	})
	calc.WriteReport(reportFile, a, nl, a.Models)

	cfg := apflow.NewBuilder().
		WithNetlist(nl).
		WithGrid(g).
		WithArchitecture(a).
		WithCalculator(calc).
		WithDensityOverrides(overrides).
		Build()

	result, err := apflow.Run(cfg)
	if err != nil {
		aplog.Fatal("", err)
		atexit.Exit(1)
	}

	fmt.Printf("placed %d blocks in %d iterations (converged=%v), run=%s\n",
		nl.NumBlocks(), result.Iterations, result.Converged, result.RunID)
	atexit.Exit(0)
}

// placeholderCircuit builds the smallest possible architecture, device
// grid and netlist so this entry point can run a full driver pass without
// a real front end wired in: one logical block type, one physical tile
// type, a 4x4 single-layer grid, and two moveable blocks joined by one
// net.
func placeholderCircuit() (*arch.StaticArchitecture, *arch.StaticGrid, *apnetlist.Netlist, *mass.Calculator) {
	a := &arch.StaticArchitecture{
		Models: []string{"lut"},
		Logical: []arch.LogicalBlockType{
			{Name: "clb", Root: arch.PbType{Name: "lut", IsPrimitive: true, Model: 0, NumPb: 1}},
		},
		Physical: []arch.PhysicalTileType{
			{
				Name: "clb", Width: 1, Height: 1,
				SubTiles: []arch.SubTile{{Name: "clb_site", EquivalentSites: []int{0}, Capacity: 1}},
			},
		},
	}
	g := arch.NewStaticGrid(4, 4, 1, func(layer, x, y int) int { return 0 })

	b := apnetlist.NewBuilder()
	blk0 := b.CreateBlock("blk0", 0)
	blk1 := b.CreateBlock("blk1", 1)
	net := b.CreateNet("n0")
	port0 := b.CreatePort(blk0, "out", 1, apnetlist.DirOut)
	port1 := b.CreatePort(blk1, "in", 1, apnetlist.DirIn)
	b.CreatePin(port0, 0, net, apnetlist.RoleDriver, false)
	b.CreatePin(port1, 0, net, apnetlist.RoleSink, false)
	nl := b.Build()

	oneLUT := func(apnetlist.MoleculeHandle) []arch.ModelIndex { return []arch.ModelIndex{0} }
	calc := mass.New(nl, a, oneLUT, nil)

	return a, g, nl, calc
}

package mass

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/primitivevec"
)

// WriteReport renders the human-readable mass report (default filename
// ap_mass.rpt, per spec.md §6): the pb/mode tree per logical block type,
// the sub-tile tree per physical tile, the per-type capacity vectors, and
// per-model netlist-utilisation statistics. The exact textual format is
// advisory, not part of the correctness contract; this module draws the
// trees with the conventional box-drawing glyphs and the tabular sections
// with go-pretty, rather than hand-rolling column alignment.
func (c *Calculator) WriteReport(w io.Writer, a arch.Architecture, netlist *apnetlist.Netlist, modelNames []string) {
	fmt.Fprintln(w, "Analytical Placement Mass Report")
	fmt.Fprintln(w, "================================")
	fmt.Fprintln(w)

	writeLogicalBlockTrees(w, a)
	writeSubTileTrees(w, a)
	writeCapacityTable(w, "Logical Block Type Capacities", a.LogicalBlockTypes(), c.logicalBlockCapacity, logicalBlockTypeName, modelNames)
	writeCapacityTable(w, "Physical Tile Type Capacities", a.PhysicalTileTypes(), c.physicalTileCapacity, physicalTileTypeName, modelNames)
	writeUtilizationTable(w, netlist, c.blockMass, modelNames)
}

func logicalBlockTypeName(lt arch.LogicalBlockType) string { return lt.Name }
func physicalTileTypeName(pt arch.PhysicalTileType) string { return pt.Name }

func writeLogicalBlockTrees(w io.Writer, a arch.Architecture) {
	fmt.Fprintln(w, "Logical Block Type pb/mode Trees")
	fmt.Fprintln(w, "--------------------------------")
	for _, lt := range a.LogicalBlockTypes() {
		fmt.Fprintf(w, "%s\n", lt.Name)
		if lt.Empty {
			fmt.Fprintln(w, "└── (empty)")
			continue
		}
		writePbTypeTree(w, lt.Root, "")
	}
	fmt.Fprintln(w)
}

func writePbTypeTree(w io.Writer, pb arch.PbType, prefix string) {
	if pb.IsPrimitive {
		fmt.Fprintf(w, "%s└── %s (primitive, model #%d)\n", prefix, pb.Name, pb.Model)
		return
	}
	for i, mode := range pb.Modes {
		last := i == len(pb.Modes)-1
		connector, childPrefix := "├──", prefix+"│   "
		if last {
			connector, childPrefix = "└──", prefix+"    "
		}
		fmt.Fprintf(w, "%s%s mode: %s\n", prefix, connector, mode.Name)
		for _, child := range mode.Children {
			writePbTypeTree(w, child, childPrefix)
		}
	}
}

func writeSubTileTrees(w io.Writer, a arch.Architecture) {
	fmt.Fprintln(w, "Physical Tile Type Sub-Tile Trees")
	fmt.Fprintln(w, "---------------------------------")
	for _, pt := range a.PhysicalTileTypes() {
		fmt.Fprintf(w, "%s (%dx%d)\n", pt.Name, pt.Width, pt.Height)
		for i, sub := range pt.SubTiles {
			connector := "├──"
			if i == len(pt.SubTiles)-1 {
				connector = "└──"
			}
			fmt.Fprintf(w, "%s %s (x%d)\n", connector, sub.Name, sub.Capacity)
		}
	}
	fmt.Fprintln(w)
}

func writeCapacityTable[T any](w io.Writer, title string, types []T, caps []primitivevec.Vector, name func(T) string, modelNames []string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, "------------------------------")
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := table.Row{"name"}
	for _, m := range modelNames {
		header = append(header, m)
	}
	t.AppendHeader(header)

	for i, ty := range types {
		row := table.Row{name(ty)}
		for d := range modelNames {
			row = append(row, fmt.Sprintf("%.2f", caps[i].Get(d)))
		}
		t.AppendRow(row)
	}
	t.Render()
	fmt.Fprintln(w)
}

func writeUtilizationTable(w io.Writer, netlist *apnetlist.Netlist, blockMass []primitivevec.Vector, modelNames []string) {
	fmt.Fprintln(w, "Per-Model Netlist Utilization")
	fmt.Fprintln(w, "------------------------------")

	totals := make([]float64, len(modelNames))
	for _, m := range blockMass {
		for d := range modelNames {
			totals[d] += m.Get(d)
		}
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"model", "total mass"})
	for d, name := range modelNames {
		t.AppendRow(table.Row{name, fmt.Sprintf("%.2f", totals[d])})
	}
	t.Render()
	fmt.Fprintln(w)

	fmt.Fprintf(w, "%d AP blocks total\n", netlist.NumBlocks())
}

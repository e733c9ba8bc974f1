// Package legalizer implements the partial legaliser (C7): a multi-commodity
// flow-based spreader that moves blocks out of overfilled density bins into
// underfilled neighbours, the smallest distance it can manage each pass.
package legalizer

import (
	"math"
	"sort"

	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/density"
	"github.com/sarchlab/vprap/internal/mass"
	"github.com/sarchlab/vprap/internal/placement"
	"github.com/sarchlab/vprap/internal/primitivevec"
)

// maxIterations caps the flow-based spreader so it terminates even if the
// device has no room to ever fully legalize the placement.
const maxIterations = 100

// maxBinNeighborDist bounds the BFS that builds each bin's neighbour set, in
// Manhattan distance (bins).
const maxBinNeighborDist = 4

// computeMaxMovement is the per-iteration cost cap psi, growing quadratically
// so early iterations only allow short moves and later ones allow long ones.
func computeMaxMovement(iter int) float64 {
	f := float64(iter + 1)
	return 100 * f * f
}

// FlowBasedLegalizer spreads an overfilled placement by flowing blocks along
// precomputed bin-neighbour paths, one block per path per pass.
type FlowBasedLegalizer struct {
	netlist   *apnetlist.Netlist
	density   *density.Manager
	calc      *mass.Calculator
	neighbors [][]density.BinID
}

// New builds a FlowBasedLegalizer: the bin-neighbour graph is computed once,
// up front, since it depends only on the (fixed) device grid and capacities.
func New(netlist *apnetlist.Netlist, densityMgr *density.Manager, calc *mass.Calculator, numModels int) *FlowBasedLegalizer {
	l := &FlowBasedLegalizer{netlist: netlist, density: densityMgr, calc: calc}
	l.neighbors = make([][]density.BinID, densityMgr.NumBins())
	for i := 0; i < densityMgr.NumBins(); i++ {
		l.neighbors[i] = l.computeNeighborsOfBin(density.BinID(i), numModels)
	}
	return l
}

// computeNeighborsOfBin performs the BFS described in spec.md §4.7: for each
// of the four cardinal sectors relative to the source bin's center, find the
// closest bin (by hop count) that has nonzero capacity in each primitive
// dimension, capped at maxBinNeighborDist hops.
func (l *FlowBasedLegalizer) computeNeighborsOfBin(src density.BinID, numModels int) []density.BinID {
	numBins := l.density.NumBins()
	visited := make([]bool, numBins)
	dist := make([]int, numBins)
	visited[src] = true

	upFound := make([]bool, numModels)
	downFound := make([]bool, numModels)
	leftFound := make([]bool, numModels)
	rightFound := make([]bool, numModels)

	neighbors := make(map[density.BinID]struct{})
	addIfNew := func(target density.BinID, found []bool) bool {
		all := true
		for i := 0; i < numModels; i++ {
			if found[i] {
				continue
			}
			if l.density.BinCapacity(target).Get(i) > 0 {
				found[i] = true
				neighbors[target] = struct{}{}
			} else {
				all = false
			}
		}
		return all
	}

	srcX, srcY := l.density.CenterOf(src)
	queue := []density.BinID{src}

	allUp, allDown, allLeft, allRight := false, false, false, false
	for len(queue) > 0 && !(allUp && allDown && allLeft && allRight) {
		bin := queue[0]
		queue = queue[1:]

		if dist[bin] >= maxBinNeighborDist {
			continue
		}

		for _, neighbor := range l.density.DirectNeighbors(bin) {
			if visited[neighbor] {
				continue
			}
			nx, ny := l.density.CenterOf(neighbor)
			dx, dy := nx-srcX, ny-srcY

			if !allUp && dy >= math.Abs(dx) {
				allUp = addIfNew(neighbor, upFound)
			}
			if !allDown && dy <= -math.Abs(dx) {
				allDown = addIfNew(neighbor, downFound)
			}
			if !allRight && dx >= math.Abs(dy) {
				allRight = addIfNew(neighbor, rightFound)
			}
			if !allLeft && dx <= -math.Abs(dy) {
				allLeft = addIfNew(neighbor, leftFound)
			}

			visited[neighbor] = true
			dist[neighbor] = dist[bin] + 1
			queue = append(queue, neighbor)
		}
	}

	out := make([]density.BinID, 0, len(neighbors))
	for n := range neighbors {
		out = append(out, n)
	}
	return out
}

// Legalize runs the flow-based spreader to convergence or maxIterations,
// starting from whatever placement p currently holds: import it into bins,
// repeatedly flow blocks from overfilled bins toward underfilled neighbours,
// then export the spread placement back into p.
func (l *FlowBasedLegalizer) Legalize(p *placement.PartialPlacement) {
	l.density.ImportPlacement(l.netlist, p, l.calc)

	for iter := 0; iter < maxIterations; iter++ {
		overfilled := l.density.OverfilledBins()
		if len(overfilled) == 0 {
			break
		}

		psi := computeMaxMovement(iter)
		sort.Slice(overfilled, func(i, j int) bool {
			return l.density.BinOverfill(overfilled[i]).ManhattanNorm() < l.density.BinOverfill(overfilled[j]).ManhattanNorm()
		})

		for _, src := range overfilled {
			for _, path := range l.getPaths(src, p, psi) {
				if !l.density.IsOverfilled(src) {
					break
				}
				l.flowBlocksAlongPath(path, p, psi)
			}
		}
	}

	l.density.ExportPlacement(l.netlist, p)
}

// getPaths performs the BFS described in spec.md §4.7: explore the
// bin-neighbour graph from src, terminating a path at the first bin whose
// underfill (projected onto src's overfill direction) is nonzero, and
// continuing through a bin otherwise. Every edge must cost no more than psi
// to traverse (the cheapest compatible block in the edge's source bin).
// Paths are returned sorted by ascending tail cost.
func (l *FlowBasedLegalizer) getPaths(src density.BinID, p *placement.PartialPlacement, psi float64) [][]density.BinID {
	numBins := l.density.NumBins()
	visited := make([]bool, numBins)
	visited[src] = true
	cost := make([]float64, numBins)

	type queueEntry struct {
		path []density.BinID
	}
	queue := []queueEntry{{path: []density.BinID{src}}}

	var paths [][]density.BinID
	demand := primitivevec.New()
	srcSupply := l.density.BinOverfill(src)

	for len(queue) > 0 && primitivevec.LessAnyDimension(demand, srcSupply) {
		entry := queue[0]
		queue = queue[1:]
		tail := entry.path[len(entry.path)-1]

		for _, neighbor := range l.neighbors[tail] {
			if visited[neighbor] {
				continue
			}
			edgeCost, ok := l.computeCost(tail, neighbor, psi, p)
			if !ok {
				continue
			}

			pathCopy := append(append([]density.BinID(nil), entry.path...), neighbor)
			cost[neighbor] = cost[tail] + edgeCost
			visited[neighbor] = true

			neighborDemand := primitivevec.Project(l.density.BinUnderfill(neighbor), srcSupply)
			if neighborDemand.IsNonZero() {
				paths = append(paths, pathCopy)
				demand.PlusEquals(neighborDemand)
			} else {
				queue = append(queue, queueEntry{path: pathCopy})
			}
		}
	}

	sort.Slice(paths, func(i, j int) bool {
		return cost[paths[i][len(paths[i])-1]] < cost[paths[j][len(paths[j])-1]]
	})
	return paths
}

// minCostBlockInBin finds the cheapest moveable, target-compatible block in
// src, where cost is the squared displacement from its current position to
// where it would land if moved into target. Returns ok=false if no
// compatible block exists.
func (l *FlowBasedLegalizer) minCostBlockInBin(src, target density.BinID, p *placement.PartialPlacement) (apnetlist.BlockID, float64, bool) {
	best := apnetlist.InvalidBlockID
	bestCost := math.Inf(1)

	for _, blk := range l.density.BinBlocks(src) {
		if l.netlist.BlockMobility(blk) == apnetlist.Fixed {
			continue
		}
		blockMass := l.calc.BlockMass(blk)
		targetCapacity := primitivevec.Project(l.density.BinCapacity(target), blockMass)
		if primitivevec.LessAnyDimension(targetCapacity, blockMass) {
			continue
		}

		region := l.density.BinRegion(target)
		newX := clampInto(region.X0, region.X1, p.X[blk])
		newY := clampInto(region.Y0, region.Y1, p.Y[blk])
		dx, dy := newX-p.X[blk], newY-p.Y[blk]
		c := dx*dx + dy*dy
		if c < bestCost {
			bestCost = c
			best = blk
		}
	}
	if best == apnetlist.InvalidBlockID {
		return best, 0, false
	}
	return best, bestCost, true
}

func clampInto(lo, hi, v float64) float64 {
	const margin = 1e-4
	if v < lo+margin {
		return lo + margin
	}
	if v > hi-margin {
		return hi - margin
	}
	return v
}

// computeCost returns the cost of moving the cheapest compatible block from
// src to target, or ok=false if src is empty, no block is compatible, or the
// cheapest move costs more than psi. The cost is weighted by the L1 norm of
// src's utilization projected onto the moved block's mass, biasing moves
// toward block types the source bin holds many of.
func (l *FlowBasedLegalizer) computeCost(src, target density.BinID, psi float64, p *placement.PartialPlacement) (float64, bool) {
	if len(l.density.BinBlocks(src)) == 0 {
		return 0, false
	}
	blk, rawCost, ok := l.minCostBlockInBin(src, target, p)
	if !ok || rawCost > psi {
		return 0, false
	}
	weightVec := primitivevec.Project(l.density.BinUtilization(src), l.calc.BlockMass(blk))
	weight := weightVec.ManhattanNorm()
	return weight * rawCost, true
}

// flowBlocksAlongPath moves one block along the conga line described by
// path: walking tail-to-head, each step re-verifies its cost (an earlier
// step may have made a later one infeasible, in which case the remainder of
// the path is abandoned with no rollback needed) before moving the cheapest
// compatible block from the step's source bin into its sink.
func (l *FlowBasedLegalizer) flowBlocksAlongPath(path []density.BinID, p *placement.PartialPlacement, psi float64) {
	if len(path) < 2 {
		return
	}
	for j := len(path) - 1; j > 0; j-- {
		src, sink := path[j-1], path[j]
		if _, ok := l.computeCost(src, sink, psi, p); !ok {
			return
		}
		blk, _, ok := l.minCostBlockInBin(src, sink, p)
		if !ok {
			return
		}
		l.density.RemoveBlock(src, blk, l.calc.BlockMass(blk))
		l.density.InsertBlock(sink, blk, l.calc.BlockMass(blk))
	}
}

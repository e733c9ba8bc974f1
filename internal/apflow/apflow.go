// Package apflow implements the global placer driver (C8): the outer loop
// alternating the analytical solver and the partial legaliser to
// convergence, per spec.md §4.8.
package apflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sarchlab/vprap/internal/aplog"
	"github.com/sarchlab/vprap/internal/apnetlist"
	"github.com/sarchlab/vprap/internal/arch"
	"github.com/sarchlab/vprap/internal/density"
	"github.com/sarchlab/vprap/internal/legalizer"
	"github.com/sarchlab/vprap/internal/mass"
	"github.com/sarchlab/vprap/internal/placement"
	"github.com/sarchlab/vprap/internal/solver"
)

// maxIterations caps the driver loop, matching the legaliser's own cap
// (spec.md §4.8 and §4.7 share the constant, but are independent loops).
const maxIterations = 100

// convergenceRatio is the (ub-lb)/ub threshold below which the driver
// declares convergence and stops early.
const convergenceRatio = 0.05

// Config bundles every collaborator and option one driver run needs.
// Assembled with Builder's fluent With*(...) chain, the way
// config.DeviceBuilder assembles a device.
type Config struct {
	Netlist               *apnetlist.Netlist
	Grid                  arch.Grid
	Architecture          arch.Architecture
	Calculator            *mass.Calculator
	SolverKind            solver.SolverKind
	DensityOverrides      []density.TargetDensityOverride
	FromFlatPlacementHint bool
}

// Builder assembles a Config with a fluent With*(...) chain, mirroring the
// teacher's config.DeviceBuilder/core.Builder idiom.
type Builder struct {
	cfg Config
}

// NewBuilder starts a new, empty Config build.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) WithNetlist(nl *apnetlist.Netlist) *Builder { b.cfg.Netlist = nl; return b }
func (b *Builder) WithGrid(g arch.Grid) *Builder              { b.cfg.Grid = g; return b }

func (b *Builder) WithArchitecture(a arch.Architecture) *Builder {
	b.cfg.Architecture = a
	return b
}

func (b *Builder) WithCalculator(c *mass.Calculator) *Builder { b.cfg.Calculator = c; return b }
func (b *Builder) WithSolverKind(k solver.SolverKind) *Builder {
	b.cfg.SolverKind = k
	return b
}

func (b *Builder) WithDensityOverrides(o []density.TargetDensityOverride) *Builder {
	b.cfg.DensityOverrides = o
	return b
}

func (b *Builder) WithFlatPlacementHint(fromHint bool) *Builder {
	b.cfg.FromFlatPlacementHint = fromHint
	return b
}

// Build finalizes the Config. Panics on a missing required collaborator,
// matching the teacher's done-once-construction-misuse panics
// (core/builder.go: panic("Need at least 4 directions")) rather than
// returning an error for a programmer mistake.
func (b *Builder) Build() Config {
	switch {
	case b.cfg.Netlist == nil:
		panic("apflow: Builder.Build called without WithNetlist")
	case b.cfg.Grid == nil:
		panic("apflow: Builder.Build called without WithGrid")
	case b.cfg.Architecture == nil:
		panic("apflow: Builder.Build called without WithArchitecture")
	case b.cfg.Calculator == nil:
		panic("apflow: Builder.Build called without WithCalculator")
	}
	return b.cfg
}

// Result is the outcome of one completed driver run.
type Result struct {
	Placement  *placement.PartialPlacement
	RunID      string
	Iterations int
	Converged  bool
}

// Run executes the global placer driver loop: construct the density
// manager and solver, then alternate solve/legalize strictly sequentially
// until the lower/upper-bound HPWL gap falls under convergenceRatio or
// maxIterations is reached. Returns an *APError on any Fatal-disposition
// condition from spec.md §7.
func Run(cfg Config) (*Result, error) {
	runID := xid.New().String()

	if err := validateArchitectureDimensions(cfg.Netlist, cfg.Calculator, cfg.Architecture.NumModels()); err != nil {
		return nil, newAPError(MalformedArchitecture, err)
	}

	densityMgr, err := density.NewManager(cfg.Grid, cfg.Architecture, cfg.Calculator, cfg.Netlist, cfg.DensityOverrides)
	if err != nil {
		return nil, newAPError(classifyDensityConstructionError(err), err)
	}

	p := placement.New(cfg.Netlist)
	s := solver.New(cfg.SolverKind, cfg.Netlist, p)
	l := legalizer.New(cfg.Netlist, densityMgr, cfg.Calculator, cfg.Architecture.NumModels())

	converged := false
	iter := 0
	for ; iter < maxIterations; iter++ {
		iterStart := time.Now()

		solverStart := time.Now()
		if err := s.Solve(iter, p); err != nil {
			return nil, newAPError(SolverNumericFailure, err)
		}
		solverTime := time.Since(solverStart)
		lb := p.HPWL(cfg.Netlist)

		legalizeStart := time.Now()
		l.Legalize(p)
		legalizeTime := time.Since(legalizeStart)
		ub := p.HPWL(cfg.Netlist)

		if remaining := densityMgr.OverfilledBins(); len(remaining) > 0 {
			aplog.Warn(runID, "legaliser loop cap reached with bins still overfilled",
				"iteration", iter, "overfilled_bins", len(remaining))
		}

		aplog.Iteration(runID, iter, lb, ub, solverTime, legalizeTime, time.Since(iterStart))

		if ub != 0 && (ub-lb)/ub < convergenceRatio {
			converged = true
			iter++
			break
		}
	}

	if !p.Verify(cfg.Netlist, cfg.Grid.Width(), cfg.Grid.Height(), cfg.Grid.NumLayers(), cfg.FromFlatPlacementHint) {
		return nil, newAPError(PlacementVerificationFailed, errors.New("final placement failed verify()"))
	}

	return &Result{Placement: p, RunID: runID, Iterations: iter, Converged: converged}, nil
}

// validateArchitectureDimensions checks that every dimension any block's
// mass vector carries an entry for is one the architecture actually
// declares a model for (spec.md §7's "no dimension for a model
// encountered in the netlist"). The mass calculator itself silently drops
// unresolved atoms for source parity (internal/mass's blockMassOf), so this
// boundary check is the only place this condition can still be caught.
func validateArchitectureDimensions(netlist *apnetlist.Netlist, calc *mass.Calculator, numModels int) error {
	for _, b := range netlist.Blocks() {
		for _, d := range calc.BlockMass(b).Dims() {
			if d < 0 || d >= numModels {
				return fmt.Errorf("block %q references model dimension %d outside the architecture's %d declared models",
					netlist.BlockName(b), d, numModels)
			}
		}
	}
	return nil
}

// classifyDensityConstructionError maps a density.NewManager error back to
// its §7 ErrorKind via the sentinel errors density exports.
func classifyDensityConstructionError(err error) ErrorKind {
	switch {
	case errors.Is(err, density.ErrInvalidTargetDensityFactor):
		return InvalidTargetDensityFactor
	case errors.Is(err, density.ErrUnknownTargetDensityTile):
		return UnknownTargetDensityTile
	default:
		return UnknownTargetDensityTile
	}
}

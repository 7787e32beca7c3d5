package driver

import (
	"context"

	"github.com/moves-rwth/kipro2/pkg/kindgen"
	"github.com/moves-rwth/kipro2/pkg/snf"
	"github.com/moves-rwth/kipro2/pkg/solver"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// KIndDriver orchestrates the incremental k-induction procedure of
// spec.md #4.7, mirroring BMCDriver but over kindgen's pointwise-minimum
// and continuation formulae.
type KIndDriver struct {
	Gen *kindgen.Generator
	Res *snf.Result
	Sv  *solver.Solver

	State State
}

// NewKIndDriver builds a driver around an already-initialized
// (1-induction) generator.
func NewKIndDriver(res *snf.Result, gen *kindgen.Generator, sv *solver.Solver) *KIndDriver {
	return &KIndDriver{Gen: gen, Res: res, Sv: sv, State: StateInit}
}

// Setup asserts non-negativity, then loop-terminated/monus/rmonus
// (borrowed from the wrapped BMC generator) plus K_1's own
// pointwise-minimum definition, then the transient continuation and
// loop-execute formulae (spec.md #4.7, "Setup").
//
// PointwiseMin must be asserted here, permanently: it is K_1's only
// defining formula (K_1(v̄) = min(P_1(v̄), a_I(v̄)) wherever a guard pair
// fires). advance's SubstitutedLoopExecute rewrites the wrapped BMC
// generator's P_cur head to K_cur before the first Advance, so without
// this K_1 would be left an unconstrained free symbol the moment it is
// first referenced.
func (d *KIndDriver) Setup() {
	for _, v := range d.Res.Vars {
		d.Sv.Assert(term.Ge(term.Var(v, term.SortInt), term.Int(0)))
	}
	d.Sv.Push()
	d.Sv.AssertAll(d.Gen.Bmc.LoopTerminated)
	d.Sv.AssertAll(d.Gen.Bmc.MonusFormulae)
	d.Sv.AssertAll(d.Gen.Bmc.RMonusFormulae)
	d.Sv.AssertAll(d.Gen.PointwiseMin)
	d.Sv.Push()
	d.Sv.AssertAll(d.Gen.Continuation)
	d.Sv.AssertAll(d.Gen.Bmc.LoopExecute)
	d.State = StateChecking
}

// Run drives the incremental induction loop: on UNSAT, I is k-inductive;
// otherwise advance to (k+1)-induction and retry, up to maxIterations.
func (d *KIndDriver) Run(ctx context.Context, maxIterations int) (Outcome, error) {
	for iter := 0; iter < maxIterations; iter++ {
		select {
		case <-ctx.Done():
			d.State = StateCancelled
			return OutcomeCancelled, ctx.Err()
		default:
		}
		inductive, err := d.checkInductive(ctx)
		if err != nil {
			return OutcomeUndecided, err
		}
		if inductive {
			return OutcomeInductive, nil
		}
		d.State = StateAdvancing
		d.advance()
		d.State = StateChecking
	}
	inductive, err := d.checkInductive(ctx)
	if err != nil {
		return OutcomeUndecided, err
	}
	if inductive {
		return OutcomeInductive, nil
	}
	d.State = StateExhausted
	return OutcomeExhausted, nil
}

func (d *KIndDriver) checkInductive(ctx context.Context) (bool, error) {
	query := d.Gen.InductiveQuery()
	sat, err := d.Sv.IsSat(ctx, query)
	if err != nil {
		return false, err
	}
	if !sat {
		d.State = StateInductive
	}
	return !sat, nil
}

// advance pops the transient continuation/loop-execute block, asserts the
// Pᵢ→Kᵢ-substituted loop-execute formulae plus the fresh
// loop-terminated/monus/pointwise-minimum formulae, pushes, and asserts
// the new continuation and loop-execute formulae (spec.md #4.7,
// "Advance").
func (d *KIndDriver) advance() {
	d.Sv.Pop()
	substituted := d.Gen.SubstitutedLoopExecute()
	d.Gen.Advance()
	d.Sv.AssertAll(substituted)
	d.Sv.AssertAll(d.Gen.Bmc.LoopTerminated)
	d.Sv.AssertAll(d.Gen.Bmc.MonusFormulae)
	d.Sv.AssertAll(d.Gen.Bmc.RMonusFormulae)
	d.Sv.AssertAll(d.Gen.PointwiseMin)
	d.Sv.Push()
	d.Sv.AssertAll(d.Gen.Continuation)
	d.Sv.AssertAll(d.Gen.Bmc.LoopExecute)
}

// Depth returns the induction depth reached so far.
func (d *KIndDriver) Depth() int { return d.Gen.Depth() }

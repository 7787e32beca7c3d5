package driver

import (
	"context"

	"github.com/moves-rwth/kipro2/pkg/bmcgen"
	"github.com/moves-rwth/kipro2/pkg/snf"
	"github.com/moves-rwth/kipro2/pkg/solver"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// BMCDriver orchestrates the incremental bounded model checking procedure
// of spec.md #4.6 over a shared solver instance and BMC formula
// generator.
type BMCDriver struct {
	Gen   *bmcgen.Generator
	Res   *snf.Result
	IDNF  []snf.LoopTerminatedEntry // I restricted to finite summands
	Sv    *solver.Solver
	State State
}

// NewBMCDriver builds a driver around an already-initialized (depth-0)
// generator. iDNF is the candidate bound's DNF restricted to finite
// summands (spec.md #4.3, "Refutation query").
func NewBMCDriver(res *snf.Result, gen *bmcgen.Generator, iDNF []snf.LoopTerminatedEntry, sv *solver.Solver) *BMCDriver {
	return &BMCDriver{Gen: gen, Res: res, IDNF: iDNF, Sv: sv, State: StateInit}
}

// Setup asserts the non-negativity, loop-terminated, and monus/rmonus
// formulae (permanent), then the transient zero-step-not-terminated block
// (spec.md #4.6, "Setup").
func (d *BMCDriver) Setup() {
	for _, v := range d.Res.Vars {
		d.Sv.Assert(term.Ge(term.Var(v, term.SortInt), term.Int(0)))
	}
	d.Sv.Push()
	d.Sv.AssertAll(d.Gen.LoopTerminated)
	d.Sv.AssertAll(d.Gen.MonusFormulae)
	d.Sv.AssertAll(d.Gen.RMonusFormulae)
	d.Sv.Push()
	d.Sv.AssertAll(d.Gen.ZeroStepNotTerminated)
	d.State = StateChecking
}

// Run drives the incremental loop (spec.md #4.6, "Iteration"/"Advance"/
// "Termination"): on each check iteration it issues the refutation query;
// on SAT it reports refuted, otherwise it advances the generator one
// unrolling and pushes the new formulae. After maxIterations unproductive
// checks it reports exhausted. unrollingsBetweenSatChecks > 1 defers the
// (expensive) refutation query to every n-th advance.
func (d *BMCDriver) Run(ctx context.Context, maxIterations, unrollingsBetweenSatChecks int) (Outcome, error) {
	if unrollingsBetweenSatChecks < 1 {
		unrollingsBetweenSatChecks = 1
	}
	for iter := 0; iter < maxIterations; iter++ {
		select {
		case <-ctx.Done():
			d.State = StateCancelled
			return OutcomeCancelled, ctx.Err()
		default:
		}
		if iter%unrollingsBetweenSatChecks == 0 {
			refuted, err := d.checkRefute(ctx)
			if err != nil {
				return OutcomeUndecided, err
			}
			if refuted {
				return OutcomeRefuted, nil
			}
		}
		d.State = StateAdvancing
		d.advance()
		d.State = StateChecking
	}
	refuted, err := d.checkRefute(ctx)
	if err != nil {
		return OutcomeUndecided, err
	}
	if refuted {
		return OutcomeRefuted, nil
	}
	d.State = StateExhausted
	return OutcomeExhausted, nil
}

func (d *BMCDriver) checkRefute(ctx context.Context) (bool, error) {
	query := d.Gen.RefutationQuery(d.IDNF)
	sat, err := d.Sv.IsSat(ctx, query)
	if err != nil {
		return false, err
	}
	if sat {
		d.State = StateRefuted
	}
	return sat, nil
}

// advance pops the transient zero-step-not-terminated block, asserts the
// new loop-execute/loop-terminated/monus/rmonus formulae, pushes, and
// re-asserts a fresh zero-step-not-terminated block for the next check
// (spec.md #4.6, "Advance").
func (d *BMCDriver) advance() {
	d.Sv.Pop()
	d.Gen.Advance()
	d.Sv.AssertAll(d.Gen.LoopExecute)
	d.Sv.AssertAll(d.Gen.LoopTerminated)
	d.Sv.AssertAll(d.Gen.MonusFormulae)
	d.Sv.AssertAll(d.Gen.RMonusFormulae)
	d.Sv.Push()
	d.Sv.AssertAll(d.Gen.ZeroStepNotTerminated)
}

// Depth returns the unrolling depth reached so far.
func (d *BMCDriver) Depth() int { return d.Gen.Depth() }

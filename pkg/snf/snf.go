// Package snf builds the summation-normal-form tuples of a program body
// into the two pairwise-exclusive DNFs the formula generators consume
// (spec.md #4.2, "SNF / DNF builder"): the characteristic functional lifts
// the one-big-loop transformer's SNF to loop_execute_dnf (guards where the
// loop body fires) and loop_terminated_dnf (guards where the loop is done,
// evaluated against the postexpectation).
//
// Grounded on `original_source/kipro2/characteristic_functional.py`'s
// `_get_pysmt_dnf_loop_execute` and `_get_pysmt_loop_terminated_dnf`: both
// enumerate the 2^m combinations of a term list's guards, pruning any
// prefix whose partial conjunction is already unsatisfiable (spec.md #9,
// "Exponential guard enumeration") rather than materializing the full
// DNF before checking it.
package snf

import (
	"context"

	"github.com/pkg/errors"

	"github.com/moves-rwth/kipro2/pkg/bridge"
	"github.com/moves-rwth/kipro2/pkg/pgcl"
	"github.com/moves-rwth/kipro2/pkg/solver"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// ErrNotLinear flags an expression the bridge could not classify as
// linear arithmetic; per spec.md #4.2 this degrades solver logic
// selection rather than rejecting the input outright, so callers may
// choose to ignore it and keep going with the unrestricted solver.
var ErrNotLinear = errors.New("snf: non-linear expression detected")

// ExecuteTuple is one (prob, subst, tick) triple surviving the guard under
// which the loop body executes (spec.md #3, "Loop-execute DNF entry").
type ExecuteTuple struct {
	Prob  *term.Term
	Subst map[string]*term.Term
	Tick  *term.Term
}

// LoopExecuteEntry is one partition class of the reachable state space
// where the loop guard holds.
type LoopExecuteEntry struct {
	Guard  *term.Term
	Tuples []ExecuteTuple
}

// LoopTerminatedEntry is one partition class where the loop is done; Arith
// is the postexpectation's value on that class.
type LoopTerminatedEntry struct {
	Guard *term.Term
	Arith *term.Term
}

// Result bundles both DNFs plus the ordered variable tuple every Pᵢ/Kᵢ
// application is indexed by (spec.md #3, invariant 3).
type Result struct {
	Vars           []string
	LoopExecute    []LoopExecuteEntry
	LoopTerminated []LoopTerminatedEntry
	// Subst is the deduplicated list Σ of every substitution that appears
	// in LoopExecute (spec.md #3, "Loop-execute DNF entry" — "every subst
	// that appears anywhere is also indexed into a deduplicated list Σ").
	Subst []map[string]*term.Term
	// Done is ¬B, the lowered loop-termination guard.
	Done *term.Term
}

// Build computes the characteristic functional's two DNFs for prog against
// postexpectation post. acc collects monus/rmonus pairs encountered while
// lowering; sv prunes unsatisfiable guard combinations and unsatisfiable
// individual tuple guards (spec.md #4.2, step 3).
func Build(ctx context.Context, prog *pgcl.Program, post *pgcl.Expr, acc *term.Accumulator, sv *solver.Solver) (*Result, error) {
	vars := prog.VarNames()
	nonneg := nonNegative(vars)

	transformer := pgcl.Transform(prog)

	type lowered struct {
		guard *term.Term
		prob  *term.Term
		subst map[string]*term.Term
		tick  *term.Term
	}
	loopGuard, guardErr := bridge.LowerBoolExpr(prog.Loop.Guard, bridge.Options{})
	if guardErr != nil {
		return nil, errors.Wrap(guardErr, "snf: lowering loop guard")
	}
	var survivors []lowered
	for _, tup := range transformer.Body {
		g, err := bridge.LowerBoolExpr(tup.Guard, bridge.Options{})
		if err != nil {
			return nil, errors.Wrap(err, "snf: lowering loop-execute guard")
		}
		g = term.And(loopGuard, g)
		ok, err := checkSat(ctx, sv, term.And(g, nonneg))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		p, err := bridge.LowerExpr(tup.Prob, bridge.Options{ToReal: true})
		if err != nil {
			return nil, errors.Wrap(err, "snf: lowering probability")
		}
		sub, err := bridge.LowerSubst(tup.Subst, bridge.Options{TreatMinusAsMonus: true, Acc: acc})
		if err != nil {
			return nil, errors.Wrap(err, "snf: lowering substitution")
		}
		tk, err := bridge.LowerExpr(tup.Tick, bridge.Options{ToReal: true})
		if err != nil {
			return nil, errors.Wrap(err, "snf: lowering tick")
		}
		survivors = append(survivors, lowered{guard: g, prob: p, subst: sub, tick: tk})
	}

	guards := make([]*term.Term, len(survivors))
	for i, s := range survivors {
		guards[i] = s.guard
	}

	var execute []LoopExecuteEntry
	substSeen := make(map[string]map[string]*term.Term)
	err := enumerate(ctx, sv, guards, nonneg, func(gamma *term.Term, included []bool) error {
		var tuples []ExecuteTuple
		for i, inc := range included {
			if !inc {
				continue
			}
			s := survivors[i]
			if isZero(s.prob) {
				continue
			}
			tuples = append(tuples, ExecuteTuple{Prob: s.prob, Subst: s.subst, Tick: s.tick})
			substSeen[substKey(s.subst)] = s.subst
		}
		if len(tuples) == 0 {
			return nil
		}
		execute = append(execute, LoopExecuteEntry{Guard: gamma, Tuples: tuples})
		return nil
	})
	if err != nil {
		return nil, err
	}

	done, err := bridge.LowerBoolExpr(transformer.Done, bridge.Options{})
	if err != nil {
		return nil, errors.Wrap(err, "snf: lowering done guard")
	}

	postTerms, err := expectationSNF(post, acc)
	if err != nil {
		return nil, err
	}
	postGuards := make([]*term.Term, len(postTerms))
	for i, t := range postTerms {
		postGuards[i] = t.guard
	}

	terminated, err := dnfFromTerms(ctx, sv, postTerms, postGuards, term.And(done, nonneg), done)
	if err != nil {
		return nil, err
	}

	substList := make([]map[string]*term.Term, 0, len(substSeen))
	for _, s := range substSeen {
		substList = append(substList, s)
	}

	return &Result{
		Vars:           vars,
		LoopExecute:    execute,
		LoopTerminated: terminated,
		Subst:          substList,
		Done:           done,
	}, nil
}

// ExpectationDNF decomposes an arbitrary expectation expression (the
// candidate upper bound I, for instance) into a DNF over the *whole*
// non-negative state space, with no ¬B gating — unlike the
// postexpectation's loop-terminated DNF computed inside Build, I must be
// defined (and partition the space) for every reachable state, since both
// the BMC refutation query and the k-induction continuation formulae
// reference it outside of termination states too (spec.md #4.3, #4.4).
func ExpectationDNF(ctx context.Context, vars []string, e *pgcl.Expr, acc *term.Accumulator, sv *solver.Solver) ([]LoopTerminatedEntry, error) {
	terms, err := expectationSNF(e, acc)
	if err != nil {
		return nil, err
	}
	guards := make([]*term.Term, len(terms))
	for i, t := range terms {
		guards[i] = t.guard
	}
	nonneg := nonNegative(vars)
	return dnfFromTerms(ctx, sv, terms, guards, nonneg, nil)
}

// dnfFromTerms runs the shared streamed enumeration over a term list's
// guards, summing the included arith values into one entry per surviving
// branch. When extraGuard is non-nil it is conjoined onto the emitted
// guard (but not onto the base formula the enumeration already includes
// it in) — used to report the loop-terminated DNF's guards including ¬B
// without re-asserting it redundantly inside the recursion.
func dnfFromTerms(ctx context.Context, sv *solver.Solver, terms []postTerm, guards []*term.Term, base *term.Term, extraGuard *term.Term) ([]LoopTerminatedEntry, error) {
	var out []LoopTerminatedEntry
	err := enumerate(ctx, sv, guards, base, func(gamma *term.Term, included []bool) error {
		reportGuard := gamma
		if extraGuard != nil {
			reportGuard = term.And(gamma, extraGuard)
		}
		var arith *term.Term
		for i, inc := range included {
			if !inc {
				continue
			}
			if arith == nil {
				arith = terms[i].arith
			} else {
				arith = term.Add(arith, terms[i].arith)
			}
		}
		if arith == nil {
			arith = term.Real(0)
		}
		out = append(out, LoopTerminatedEntry{Guard: reportGuard, Arith: arith})
		return nil
	})
	return out, err
}

// enumerate performs the streamed 2^m guard enumeration of spec.md #4.2
// step 4/5: it extends a running conjunction one guard at a time and
// abandons a branch the instant its partial conjunction (together with
// base, e.g. the non-negativity constraints or the ¬B done guard) becomes
// unsatisfiable, instead of building all 2^m sequences up front.
func enumerate(ctx context.Context, sv *solver.Solver, guards []*term.Term, base *term.Term, emit func(gamma *term.Term, included []bool) error) error {
	included := make([]bool, len(guards))
	var rec func(i int, acc *term.Term) error
	rec = func(i int, acc *term.Term) error {
		if i == len(guards) {
			return emit(acc, append([]bool(nil), included...))
		}
		for _, choice := range [2]bool{true, false} {
			var lit *term.Term
			if choice {
				lit = guards[i]
			} else {
				lit = term.Not(guards[i])
			}
			next := term.And(acc, lit)
			ok, err := checkSat(ctx, sv, next)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			included[i] = choice
			if err := rec(i+1, next); err != nil {
				return err
			}
		}
		included[i] = false
		return nil
	}
	return rec(0, base)
}

func checkSat(ctx context.Context, sv *solver.Solver, f *term.Term) (bool, error) {
	return sv.IsSat(ctx, f)
}

func nonNegative(vars []string) *term.Term {
	if len(vars) == 0 {
		return term.Bool(true)
	}
	cs := make([]*term.Term, len(vars))
	for i, v := range vars {
		cs[i] = term.Ge(term.Var(v, term.SortInt), term.Int(0))
	}
	return term.And(cs...)
}

func isZero(t *term.Term) bool {
	if v, ok := t.BoolValue(); ok {
		return !v
	}
	return t.String() == term.Real(0).String() || t.String() == term.Int(0).String()
}

func substKey(sub map[string]*term.Term) string {
	key := ""
	for _, v := range sortedKeys(sub) {
		key += v + "=" + sub[v].String() + ";"
	}
	return key
}

func sortedKeys(m map[string]*term.Term) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

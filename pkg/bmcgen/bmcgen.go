// Package bmcgen implements the incremental, monotone BMC formula
// generator of spec.md #4.3: a growing family of uninterpreted function
// symbols P₁, P₂, … encoding Φⁱ⁻¹(0) at unrolling depth i-1, rebuilt from
// the accumulated loop-execute/loop-terminated/monus formulae by
// substitution rather than recomputed from scratch at every depth.
//
// Grounded on
// `original_source/kipro2/incremental_bmc/formula_generator.py`.
package bmcgen

import (
	"fmt"

	"github.com/moves-rwth/kipro2/pkg/snf"
	"github.com/moves-rwth/kipro2/pkg/subst"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// Mode selects which quantitative transformer the loop-execute formulae
// encode (spec.md #4.3: "wp mode" vs "ert mode").
type Mode int

const (
	ModeWp Mode = iota
	ModeErt
)

// Generator holds the EUF family and the five current formula sets
// (loop-terminated, zero-step-not-terminated, loop-execute, monus, rmonus)
// of spec.md #4.3 ("State").
type Generator struct {
	res  *snf.Result
	acc  *term.Accumulator
	mode Mode

	// Eufs is eufs = [P_1, P_2, ...]; grows by one Func symbol per advance.
	Eufs []*term.Term

	// pendingExecute is the "next loop-execute formula set", empty until
	// the first call to Advance.
	pendingExecute *term.Set

	LoopTerminated        *term.Set
	ZeroStepNotTerminated *term.Set
	LoopExecute           *term.Set
	MonusFormulae         *term.Set
	RMonusFormulae        *term.Set
}

// PName returns the name of the i-th (1-indexed) EUF symbol, P_i.
func PName(i int) string { return fmt.Sprintf("P_%d", i) }

func pFunc(i int, vars []string) *term.Term {
	return term.Func(term.FuncSymbol{Name: PName(i), Domain: intDomain(len(vars)), Range: term.SortReal})
}

func intDomain(n int) []term.Sort {
	d := make([]term.Sort, n)
	for i := range d {
		d[i] = term.SortInt
	}
	return d
}

// varTuple returns the outer argument tuple (v_1, ..., v_n) every Pᵢ
// application is indexed by (spec.md #3, invariant 3).
func varTuple(vars []string) []*term.Term {
	out := make([]*term.Term, len(vars))
	for i, v := range vars {
		out[i] = term.Var(v, term.SortInt)
	}
	return out
}

// New builds the depth-0 encoding of Φ(0): creates P_1, P_2 and asserts
// the loop-terminated, zero-step-not-terminated, loop-execute, and
// monus/rmonus formula sets described in spec.md #4.3's "Initialization".
func New(res *snf.Result, acc *term.Accumulator, mode Mode) *Generator {
	p1 := pFunc(1, res.Vars)
	p2 := pFunc(2, res.Vars)
	g := &Generator{
		res:  res,
		acc:  acc,
		mode: mode,
		Eufs: []*term.Term{p1, p2},
	}

	outer := varTuple(res.Vars)

	terminated := term.NewSet()
	for _, e := range res.LoopTerminated {
		terminated.Add(term.Implies(e.Guard, term.Eq(term.App(p1, outer...), e.Arith)))
	}
	g.LoopTerminated = terminated

	zeroStep := term.NewSet()
	zeroStep.Add(term.Implies(term.Not(res.Done), term.Eq(term.App(p1, outer...), term.Real(0))))
	g.ZeroStepNotTerminated = zeroStep

	g.LoopExecute = g.buildExecuteFormulae(p1, p2)

	g.MonusFormulae = monusSet(acc)
	g.RMonusFormulae = rmonusSet(acc)

	return g
}

// buildExecuteFormulae asserts, for every loop-execute DNF entry (g, [(p,
// σ, t)]), g → P(v̄) = Σⱼ pⱼ·P'(σⱼ(v̄)) (wp mode) or Σⱼ pⱼ·(tⱼ +
// P'(σⱼ(v̄))) (ert mode).
func (g *Generator) buildExecuteFormulae(p, pNext *term.Term) *term.Set {
	out := term.NewSet()
	for _, e := range g.res.LoopExecute {
		var summands []*term.Term
		for _, tup := range e.Tuples {
			args := substitutedArgs(g.res.Vars, tup.Subst)
			value := term.App(pNext, args...)
			if g.mode == ModeErt {
				value = term.Add(tup.Tick, value)
			}
			summands = append(summands, term.Mul(tup.Prob, value))
		}
		outer := varTuple(g.res.Vars)
		out.Add(term.Implies(e.Guard, term.Eq(term.App(p, outer...), term.Add(summands...))))
	}
	return out
}

// substitutedArgs builds σ(v̄): the program's variable tuple with every
// entry replaced by its image under the body's substitution.
func substitutedArgs(vars []string, sub map[string]*term.Term) []*term.Term {
	out := make([]*term.Term, len(vars))
	for i, v := range vars {
		if repl, ok := sub[v]; ok {
			out[i] = repl
		} else {
			out[i] = term.Var(v, term.SortInt)
		}
	}
	return out
}

func monusSet(acc *term.Accumulator) *term.Set {
	out := term.NewSet()
	for _, p := range acc.MonusPairs() {
		out.Add(p.DefiningFormula(term.MonusSymbol, term.Int(0)))
	}
	return out
}

func rmonusSet(acc *term.Accumulator) *term.Set {
	out := term.NewSet()
	for _, p := range acc.RMonusPairs() {
		out.Add(p.DefiningFormula(term.RMonusSymbol, term.Real(0)))
	}
	return out
}

// Depth returns the current unrolling depth k (number of advances so far).
func (g *Generator) Depth() int { return len(g.Eufs) - 2 }

// RefutationQuery builds the BMC refutation query of spec.md #4.3:
// ∃v̄≥0: ⋁(guardₖ(v̄) ∧ P_1(v̄) > arithₖ(v̄)) over iDNF, restricted to the
// finite summands (infinite summands are dropped by the caller before
// this is invoked, since nothing exceeds ∞).
func (g *Generator) RefutationQuery(iDNF []snf.LoopTerminatedEntry) *term.Term {
	p1 := g.Eufs[0]
	outer := varTuple(g.res.Vars)
	lhs := term.App(p1, outer...)
	var disjuncts []*term.Term
	for _, e := range iDNF {
		if e.Arith.IsInfinity() {
			continue
		}
		disjuncts = append(disjuncts, term.And(e.Guard, term.Gt(lhs, e.Arith)))
	}
	return term.Or(disjuncts...)
}

// Advance moves the generator from encoding Φᵏ to Φᵏ⁺¹ (spec.md #4.3,
// "Advancing depth"). It returns nothing: it replaces the LoopExecute,
// LoopTerminated, ZeroStepNotTerminated, MonusFormulae and RMonusFormulae
// fields with the new depth's sets, which the incremental driver then
// asserts.
func (g *Generator) Advance() {
	if g.pendingExecute != nil {
		g.LoopExecute = g.pendingExecute
	}

	pOld := g.Eufs[len(g.Eufs)-2]
	pNew := g.Eufs[len(g.Eufs)-1]
	shift := subst.Substitution{Funcs: subst.FuncSubst{pOld.FuncName(): pNew.FuncName()}}

	terminated := term.NewSet()
	zeroStep := term.NewSet()
	monusF := term.NewSet()
	rmonusF := term.NewSet()
	for _, sigma := range g.res.Subst {
		sub := subst.Substitution{Vars: toVarSubst(sigma), Funcs: shift.Funcs}
		terminated.Union(subst.ApplyAll(g.LoopTerminated, sub))
		zeroStep.Union(subst.ApplyAll(g.ZeroStepNotTerminated, sub))
		monusF.Union(subst.ApplyAll(g.MonusFormulae, sub))
		rmonusF.Union(subst.ApplyAll(g.RMonusFormulae, sub))
	}
	if len(g.res.Subst) == 0 {
		terminated = subst.ApplyAll(g.LoopTerminated, subst.Substitution{Funcs: shift.Funcs})
		zeroStep = subst.ApplyAll(g.ZeroStepNotTerminated, subst.Substitution{Funcs: shift.Funcs})
		monusF = subst.ApplyAll(g.MonusFormulae, subst.Substitution{Funcs: shift.Funcs})
		rmonusF = subst.ApplyAll(g.RMonusFormulae, subst.Substitution{Funcs: shift.Funcs})
	}
	g.LoopTerminated = terminated
	g.ZeroStepNotTerminated = zeroStep
	g.MonusFormulae = monusF
	g.RMonusFormulae = rmonusF

	pNewNew := pFunc(len(g.Eufs)+1, g.res.Vars)
	g.Eufs = append(g.Eufs, pNewNew)

	pendingShift := subst.Substitution{Funcs: subst.FuncSubst{pNew.FuncName(): pNewNew.FuncName()}}
	shiftedExecute := subst.ApplyAll(g.LoopExecute, pendingShift)

	next := term.NewSet()
	composed := subst.Substitution{Funcs: subst.FuncSubst{pOld.FuncName(): pNew.FuncName()}}
	if len(g.res.Subst) == 0 {
		next = subst.ApplyAll(shiftedExecute, composed)
	}
	for _, sigma := range g.res.Subst {
		full := subst.Substitution{Vars: toVarSubst(sigma), Funcs: composed.Funcs}
		next.Union(subst.ApplyAll(shiftedExecute, full))
	}
	g.pendingExecute = next
}

func toVarSubst(sigma map[string]*term.Term) subst.VarSubst {
	out := make(subst.VarSubst, len(sigma))
	for k, v := range sigma {
		out[k] = v
	}
	return out
}

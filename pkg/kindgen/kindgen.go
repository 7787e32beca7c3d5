// Package kindgen implements the incremental k-induction formula
// generator of spec.md #4.4, layered on pkg/bmcgen: a parallel EUF family
// K₁, K₂, … encoding the pointwise minimum of Pᵢ and the candidate bound
// I, plus continuation formulae that re-encode I itself on P₂ so the
// 1-induction step has somewhere to "land".
//
// Grounded on
// `original_source/kipro2/k_induction/formula_generator.py`.
package kindgen

import (
	"fmt"

	"github.com/moves-rwth/kipro2/pkg/bmcgen"
	"github.com/moves-rwth/kipro2/pkg/snf"
	"github.com/moves-rwth/kipro2/pkg/subst"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// Generator wraps a bmcgen.Generator, using its Pᵢ family as the
// "primitive" values being pointwise-minimized against the candidate
// bound I.
type Generator struct {
	Bmc  *bmcgen.Generator
	res  *snf.Result
	iDNF []snf.LoopTerminatedEntry

	// Keufs is keufs = [K_1, K_2, ...].
	Keufs []*term.Term

	PointwiseMin *term.Set
	Continuation *term.Set
}

// KName returns the name of the i-th (1-indexed) EUF symbol, K_i.
func KName(i int) string { return fmt.Sprintf("K_%d", i) }

func kFunc(i int, vars []string) *term.Term {
	return term.Func(term.FuncSymbol{Name: KName(i), Domain: intDomain(len(vars)), Range: term.SortReal})
}

func intDomain(n int) []term.Sort {
	d := make([]term.Sort, n)
	for i := range d {
		d[i] = term.SortInt
	}
	return d
}

func varTuple(vars []string) []*term.Term {
	out := make([]*term.Term, len(vars))
	for i, v := range vars {
		out[i] = term.Var(v, term.SortInt)
	}
	return out
}

// New builds the 1-induction encoding of spec.md #4.4: K_1 plus the
// pointwise-minimum and continuation formula sets. iDNF is the candidate
// bound I's *total* DNF (including infinite summands — spec.md #4.4's
// query "requires the total I-DNF, not the finite subset used for BMC").
func New(res *snf.Result, bmc *bmcgen.Generator, iDNF []snf.LoopTerminatedEntry) *Generator {
	k1 := kFunc(1, res.Vars)
	g := &Generator{Bmc: bmc, res: res, iDNF: iDNF, Keufs: []*term.Term{k1}}
	g.PointwiseMin = g.buildPointwiseMin(k1, bmc.Eufs[0])
	g.Continuation = g.buildContinuation(bmc.Eufs[1])
	return g
}

// buildPointwiseMin asserts, for every (g_P, term(P,v̄)) drawn from the
// loop-execute and loop-terminated DNFs and every (g_I, a_I) in iDNF:
//
//	(g_P ∧ g_I ∧ term(P,v̄) ≤ a_I) → K(v̄) = term(P,v̄)
//	(g_P ∧ g_I ∧ term(P,v̄) > a_I) → K(v̄) = a_I
//
// When a_I is the infinity literal the minimum is always the (finite)
// term(P,v̄) side, so only the first formula is needed.
func (g *Generator) buildPointwiseMin(k, p *term.Term) *term.Set {
	out := term.NewSet()
	outer := varTuple(g.res.Vars)
	lhs := term.App(k, outer...)

	emit := func(gP, termP *term.Term) {
		for _, iE := range g.iDNF {
			cond := term.And(gP, iE.Guard)
			if iE.Arith.IsInfinity() {
				out.Add(term.Implies(cond, term.Eq(lhs, termP)))
				continue
			}
			out.Add(term.Implies(term.And(cond, term.Le(termP, iE.Arith)), term.Eq(lhs, termP)))
			out.Add(term.Implies(term.And(cond, term.Gt(termP, iE.Arith)), term.Eq(lhs, iE.Arith)))
		}
	}
	for _, e := range g.res.LoopExecute {
		emit(e.Guard, term.App(p, outer...))
	}
	for _, e := range g.res.LoopTerminated {
		emit(e.Guard, e.Arith)
	}
	return out
}

// buildContinuation asserts g_I → P2(v̄) = a_I for every entry of iDNF,
// then unions in every σ ∈ Σ-substituted copy so the continuation also
// constrains P2 at the substituted argument tuples the loop-execute
// formulae actually apply it to.
func (g *Generator) buildContinuation(p2 *term.Term) *term.Set {
	base := term.NewSet()
	outer := varTuple(g.res.Vars)
	for _, iE := range g.iDNF {
		base.Add(term.Implies(iE.Guard, term.Eq(term.App(p2, outer...), iE.Arith)))
	}
	out := term.NewSet()
	out.Union(base)
	for _, sigma := range g.res.Subst {
		out.Union(subst.ApplyAll(base, subst.Substitution{Vars: toVarSubst(sigma)}))
	}
	return out
}

// Depth returns the current induction depth k.
func (g *Generator) Depth() int { return len(g.Keufs) }

// InductiveQuery builds the k-inductive query of spec.md #4.4:
// ∃v̄≥0: ⋁(g_I(v̄) ∧ P_1(v̄) > a_I(v̄)) over the I-DNF, skipping entries
// whose a_I is ∞ (nothing exceeds ∞). UNSAT means I is k-inductive.
//
// This queries the wrapped BMC generator's primitive P_1, not K_1: K_1 is
// pinned to min(P_1, a_I) by buildPointwiseMin, so P_1 > a_I is the
// condition that actually depends on what the loop body computes, while
// K_1 > a_I would be unsatisfiable by construction regardless of whether
// the bound holds.
func (g *Generator) InductiveQuery() *term.Term {
	p1 := g.Bmc.Eufs[0]
	outer := varTuple(g.res.Vars)
	lhs := term.App(p1, outer...)
	var disjuncts []*term.Term
	for _, e := range g.iDNF {
		if e.Arith.IsInfinity() {
			continue
		}
		disjuncts = append(disjuncts, term.And(e.Guard, term.Gt(lhs, e.Arith)))
	}
	return term.Or(disjuncts...)
}

// SubstitutedLoopExecute returns the BMC generator's current loop-execute
// formulae with the primitive EUF P_cur (Eufs[-2]) rewritten to the
// matching K_cur (Keufs[-1]) — the "Pᵢ → Kᵢ variant" the k-induction
// driver asserts on each advance (spec.md #4.7), expressing the body's
// execution step in terms of the pointwise-minimum value instead of the
// raw BMC value before the next layer is unrolled.
func (g *Generator) SubstitutedLoopExecute() *term.Set {
	pCur := g.Bmc.Eufs[len(g.Bmc.Eufs)-2]
	kCur := g.Keufs[len(g.Keufs)-1]
	return subst.ApplyAll(g.Bmc.LoopExecute, subst.Substitution{Funcs: subst.FuncSubst{pCur.FuncName(): kCur.FuncName()}})
}

// Advance moves the generator from k-induction to (k+1)-induction
// (spec.md #4.4, "Advancing to (k+1)-induction"): creates K_new,
// substitutes {P_{i-1}→P_i, K_{i-1}→K_i} into the pointwise-minimum
// formulae for every σ ∈ Σ, shifts the continuation formulae by
// {P_{i-1}→P_i} composed with each σ, then triggers a BMC advance to pull
// in the next layer of loop-execute/monus formulae.
func (g *Generator) Advance() {
	pOld := g.Bmc.Eufs[len(g.Bmc.Eufs)-2]
	pNew := g.Bmc.Eufs[len(g.Bmc.Eufs)-1]
	kOld := g.Keufs[len(g.Keufs)-1]
	kNew := kFunc(len(g.Keufs)+1, g.res.Vars)

	minFuncs := subst.FuncSubst{pOld.FuncName(): pNew.FuncName(), kOld.FuncName(): kNew.FuncName()}
	pointwise := term.NewSet()
	if len(g.res.Subst) == 0 {
		pointwise = subst.ApplyAll(g.PointwiseMin, subst.Substitution{Funcs: minFuncs})
	}
	for _, sigma := range g.res.Subst {
		pointwise.Union(subst.ApplyAll(g.PointwiseMin, subst.Substitution{Vars: toVarSubst(sigma), Funcs: minFuncs}))
	}
	g.PointwiseMin = pointwise
	g.Keufs = append(g.Keufs, kNew)

	contFuncs := subst.FuncSubst{pOld.FuncName(): pNew.FuncName()}
	cont := term.NewSet()
	if len(g.res.Subst) == 0 {
		cont = subst.ApplyAll(g.Continuation, subst.Substitution{Funcs: contFuncs})
	}
	for _, sigma := range g.res.Subst {
		cont.Union(subst.ApplyAll(g.Continuation, subst.Substitution{Vars: toVarSubst(sigma), Funcs: contFuncs}))
	}
	g.Continuation = cont

	g.Bmc.Advance()
}

func toVarSubst(sigma map[string]*term.Term) subst.VarSubst {
	out := make(subst.VarSubst, len(sigma))
	for k, v := range sigma {
		out[k] = v
	}
	return out
}

package snf

import (
	"github.com/moves-rwth/kipro2/pkg/bridge"
	"github.com/moves-rwth/kipro2/pkg/pgcl"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// postTerm is one (guard, arith) pair of a postexpectation's own SNF
// (spec.md #4.2 step 5, "normalize f, get its own SNF [(hⱼ, aⱼ)]"): every
// summand of a linear combination Σⱼ[gⱼ]·aⱼ decomposes into the Iverson
// guard gⱼ (true when the summand carries no bracket) and the remaining
// arithmetic factors aⱼ.
type postTerm struct {
	guard *term.Term
	arith *term.Term
}

// expectationSNF decomposes a postexpectation expression into its summand
// list, walking the pgcl Expr/MulExpr AST directly rather than going
// through the external simplifier this system has no Go port of.
func expectationSNF(e *pgcl.Expr, acc *term.Accumulator) ([]postTerm, error) {
	var out []postTerm
	t, err := summand(e.Left, false, acc)
	if err != nil {
		return nil, err
	}
	out = append(out, t)
	for _, op := range e.Rest {
		t, err := summand(op.Right, op.Op == "-", acc)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// summand extracts the Iverson-bracket guard(s) (if any) from a single
// product term and lowers the remaining factors as its arithmetic value,
// applying the top-level additive sign after lowering.
func summand(m *pgcl.MulExpr, negative bool, acc *term.Accumulator) (postTerm, error) {
	var guards []*pgcl.BoolExpr
	var factors []*pgcl.UnaryExpr

	consider := func(u *pgcl.UnaryExpr) {
		if !u.Negate && u.Atom.Iverson != nil {
			guards = append(guards, u.Atom.Iverson)
			return
		}
		factors = append(factors, u)
	}
	consider(m.Left)
	for _, op := range m.Rest {
		consider(op.Right)
	}

	opts := bridge.Options{TreatMinusAsMonus: true, ToReal: true, Acc: acc}

	var guardTerm *term.Term
	for _, g := range guards {
		gt, err := bridge.LowerBoolExpr(g, bridge.Options{})
		if err != nil {
			return postTerm{}, err
		}
		if guardTerm == nil {
			guardTerm = gt
		} else {
			guardTerm = term.And(guardTerm, gt)
		}
	}
	if guardTerm == nil {
		guardTerm = term.Bool(true)
	}

	arithTerm, err := arithOfFactors(factors, opts)
	if err != nil {
		return postTerm{}, err
	}
	if negative {
		arithTerm = term.Sub(term.Real(0), arithTerm)
	}
	return postTerm{guard: guardTerm, arith: arithTerm}, nil
}

// arithOfFactors lowers and multiplies the non-Iverson factors of a
// product term, defaulting to 1 when a summand is a bare Iverson bracket.
func arithOfFactors(factors []*pgcl.UnaryExpr, opts bridge.Options) (*term.Term, error) {
	if len(factors) == 0 {
		return term.Real(1), nil
	}
	var acc *term.Term
	for _, f := range factors {
		val, err := lowerUnary(f, opts)
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = val
		} else {
			acc = term.Mul(acc, val)
		}
	}
	return acc, nil
}

// lowerUnary lowers a single UnaryExpr factor by wrapping it in a
// single-term Expr/MulExpr so it can go through bridge.LowerExpr, which
// only operates at the full-expression level.
func lowerUnary(u *pgcl.UnaryExpr, opts bridge.Options) (*term.Term, error) {
	wrapped := &pgcl.Expr{Left: &pgcl.MulExpr{Left: u}}
	return bridge.LowerExpr(wrapped, opts)
}

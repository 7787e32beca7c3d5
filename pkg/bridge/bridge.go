// Package bridge implements the expression bridge of spec.md #4.1: it
// lowers pgcl's grammar-shaped Expr/BoolExpr trees into the typed term
// algebra of pkg/term, enforcing the monus rewrite rule, the
// infinity-only-as-a-summand rule, and literal-only tick arguments.
// Grounded on `original_source/kipro2/utils/utils.py`'s
// `probably_expr_to_pysmt`, translated from an untyped pysmt formula
// manager to pkg/term's sorted term constructors.
package bridge

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/moves-rwth/kipro2/pkg/pgcl"
	"github.com/moves-rwth/kipro2/pkg/term"
)

// ErrComposedInfinity is returned when the infinity literal occurs as an
// operand of +, -, *, or / rather than as a whole top-level summand
// (spec.md #4.1).
var ErrComposedInfinity = errors.New("bridge: infinity must not occur in a composed arithmetic expression")

// ErrNonLiteralTick is returned for tick(e) where e is not a numeric
// literal (spec.md #4.1, "TickExpr(e): e must be a numeric literal").
var ErrNonLiteralTick = errors.New("bridge: tick(...) accepts a numeric literal argument only")

// Options controls how arithmetic is lowered.
type Options struct {
	// TreatMinusAsMonus rewrites every "-" as the Monus/RMonus EUF instead
	// of raw subtraction, recording the (a, b) pair in Acc.
	TreatMinusAsMonus bool
	// ToReal casts every leaf (variables, integer literals) to Sort Real,
	// and routes "-" through RMonus rather than Monus when
	// TreatMinusAsMonus is set.
	ToReal bool
	// Acc collects encountered monus/rmonus pairs. Required when
	// TreatMinusAsMonus is set.
	Acc *term.Accumulator
}

func (o Options) monusSymbol() *term.Term {
	if o.ToReal {
		return term.RMonusSymbol
	}
	return term.MonusSymbol
}

func (o Options) recordPair(a, b *term.Term) {
	pair := term.MonusPair{A: a, B: b}
	if o.ToReal {
		o.Acc.RecordRMonus(pair)
	} else {
		o.Acc.RecordMonus(pair)
	}
}

// LowerExpr lowers an arithmetic pgcl expression to a term.
func LowerExpr(e *pgcl.Expr, opts Options) (*term.Term, error) {
	acc, err := lowerMulExpr(e.Left, opts)
	if err != nil {
		return nil, err
	}
	for _, op := range e.Rest {
		rhs, err := lowerMulExpr(op.Right, opts)
		if err != nil {
			return nil, err
		}
		if acc.IsInfinity() || rhs.IsInfinity() {
			return nil, ErrComposedInfinity
		}
		switch op.Op {
		case "+":
			acc = term.Add(acc, rhs)
		case "-":
			acc, err = lowerMinus(acc, rhs, opts)
			if err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}

func lowerMulExpr(m *pgcl.MulExpr, opts Options) (*term.Term, error) {
	acc, err := lowerUnary(m.Left, opts)
	if err != nil {
		return nil, err
	}
	for _, op := range m.Rest {
		rhs, err := lowerUnary(op.Right, opts)
		if err != nil {
			return nil, err
		}
		if acc.IsInfinity() || rhs.IsInfinity() {
			return nil, ErrComposedInfinity
		}
		switch op.Op {
		case "*":
			acc = term.Mul(acc, rhs)
		case "/":
			if len(rhs.Args()) != 0 || rhs.IsVar() {
				return nil, errors.New("bridge: division is only supported by a constant")
			}
			acc = term.Div(acc, rhs)
		}
	}
	return acc, nil
}

func lowerUnary(u *pgcl.UnaryExpr, opts Options) (*term.Term, error) {
	val, err := lowerAtom(u.Atom, opts)
	if err != nil {
		return nil, err
	}
	if !u.Negate {
		return val, nil
	}
	if val.IsInfinity() {
		return nil, ErrComposedInfinity
	}
	return lowerMinus(zeroOf(opts), val, opts)
}

func zeroOf(opts Options) *term.Term {
	if opts.ToReal {
		return term.Real(0)
	}
	return term.Int(0)
}

func lowerMinus(a, b *term.Term, opts Options) (*term.Term, error) {
	if !opts.TreatMinusAsMonus {
		return term.Sub(a, b), nil
	}
	opts.recordPair(a, b)
	return term.App(opts.monusSymbol(), a, b), nil
}

func lowerAtom(a *pgcl.Atom, opts Options) (*term.Term, error) {
	switch {
	case a.Infinity:
		return term.Infinity(), nil
	case a.Number != nil:
		return lowerNumber(*a.Number, opts), nil
	case a.Iverson != nil:
		cond, err := LowerBoolExpr(a.Iverson, opts)
		if err != nil {
			return nil, err
		}
		if opts.ToReal {
			return term.Ite(cond, term.Real(1), term.Real(0)), nil
		}
		return term.Ite(cond, term.Int(1), term.Int(0)), nil
	case a.Ident != nil:
		if opts.ToReal {
			return term.ToReal(term.Var(*a.Ident, term.SortInt)), nil
		}
		return term.Var(*a.Ident, term.SortInt), nil
	case a.Sub != nil:
		return LowerExpr(a.Sub, opts)
	default:
		return nil, errors.New("bridge: empty arithmetic atom")
	}
}

func lowerNumber(text string, opts Options) *term.Term {
	if strings.Contains(text, ".") {
		v, _ := strconv.ParseFloat(text, 64)
		return term.Real(v)
	}
	v, _ := strconv.ParseInt(text, 10, 64)
	if opts.ToReal {
		return term.Real(float64(v))
	}
	return term.Int(v)
}

// LowerBoolExpr lowers a Boolean pgcl expression to a Bool-sorted term.
// Arithmetic comparisons inside it are lowered under opts: over integers
// unless opts.ToReal is set (as for an Iverson bracket inside a
// real-valued expectation).
func LowerBoolExpr(b *pgcl.BoolExpr, opts Options) (*term.Term, error) {
	acc, err := lowerAndExpr(b.Left, opts)
	if err != nil {
		return nil, err
	}
	for _, rest := range b.Rest {
		rhs, err := lowerAndExpr(rest, opts)
		if err != nil {
			return nil, err
		}
		acc = term.Or(acc, rhs)
	}
	return acc, nil
}

func lowerAndExpr(a *pgcl.AndExpr, opts Options) (*term.Term, error) {
	acc, err := lowerNotExpr(a.Left, opts)
	if err != nil {
		return nil, err
	}
	for _, rest := range a.Rest {
		rhs, err := lowerNotExpr(rest, opts)
		if err != nil {
			return nil, err
		}
		acc = term.And(acc, rhs)
	}
	return acc, nil
}

func lowerNotExpr(n *pgcl.NotExpr, opts Options) (*term.Term, error) {
	val, err := lowerBoolAtom(n.Atom, opts)
	if err != nil {
		return nil, err
	}
	if n.Negate {
		return term.Not(val), nil
	}
	return val, nil
}

func lowerBoolAtom(a *pgcl.BoolAtom, opts Options) (*term.Term, error) {
	switch {
	case a.True:
		return term.Bool(true), nil
	case a.False:
		return term.Bool(false), nil
	case a.Paren != nil:
		return LowerBoolExpr(a.Paren, opts)
	case a.Compare != nil:
		return lowerComparison(a.Compare, opts)
	default:
		return nil, errors.New("bridge: empty Boolean atom")
	}
}

func lowerComparison(c *pgcl.Comparison, opts Options) (*term.Term, error) {
	// Comparisons always operate over the arithmetic sort in effect for the
	// surrounding context (Int for guards, Real when the bridge is
	// evaluating an arithmetic-valued expectation) so infinity handling
	// stays consistent across the whole expression tree.
	l, err := LowerExpr(c.Left, opts)
	if err != nil {
		return nil, err
	}
	r, err := LowerExpr(c.Right, opts)
	if err != nil {
		return nil, err
	}
	switch c.Op {
	case "=":
		return term.Eq(l, r), nil
	case "<=":
		return term.Le(l, r), nil
	case ">=":
		return term.Ge(l, r), nil
	case "<":
		return term.Lt(l, r), nil
	case ">":
		return term.Gt(l, r), nil
	default:
		return nil, errors.Errorf("bridge: unknown comparison operator %q", c.Op)
	}
}

// LowerTickLiteral validates and lowers a tick(...) argument, rejecting
// anything but a numeric literal (spec.md #4.1).
func LowerTickLiteral(e *pgcl.Expr) (*term.Term, error) {
	if len(e.Rest) != 0 || len(e.Left.Rest) != 0 || e.Left.Left.Negate || e.Left.Left.Atom.Number == nil {
		return nil, ErrNonLiteralTick
	}
	v, err := strconv.ParseFloat(*e.Left.Left.Atom.Number, 64)
	if err != nil {
		return nil, ErrNonLiteralTick
	}
	return term.Real(v), nil
}

// LowerSubst lowers every right-hand side of a pgcl variable substitution
// into terms, producing a map keyed by variable name (callers convert it
// to a subst.VarSubst where they need one).
func LowerSubst(sub map[string]*pgcl.Expr, opts Options) (map[string]*term.Term, error) {
	out := make(map[string]*term.Term, len(sub))
	for v, e := range sub {
		t, err := LowerExpr(e, opts)
		if err != nil {
			return nil, err
		}
		out[v] = t
	}
	return out, nil
}

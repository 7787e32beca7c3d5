// Package solver implements the push/pop-shaped Solver abstraction of
// spec.md #4.6/#4.7 (incremental assertion stack, is_sat, get_model) and a
// bounded reference decision procedure for it.
//
// The pack carries no Go binding to a real SMT solver, and the one
// SAT-adjacent dependency found in the retrieval pack
// (`irifrance/gini`, a single vendored file under other_examples/, not a
// full pack repo) solves boolean CNF only — it has no notion of
// uninterpreted functions or linear arithmetic and cannot discharge this
// system's QF_UFLIRA queries. This package instead generalizes the
// teacher's finite-domain constraint machinery (`domain.go`,
// `propagation.go`, `labeling.go`, `search.go`, `fd.go`, `fd_arith.go`):
// bound every free variable and uninterpreted-function application to a
// configurable finite domain, tighten bounds from direct comparisons
// against literals, and search exhaustively within that box. Each
// application is an atom keyed by its syntactic form, so two applications
// whose arguments are equal in value but written differently are not
// forced to agree (there is no congruence closure). It is a stand-in for
// the system's architecture, not a complete QF_UFLIRA decision procedure — swapping in
// a real SMT solver behind this interface would make the surrounding
// drivers exact.
package solver

import (
	"context"
	"sort"

	"github.com/moves-rwth/kipro2/pkg/term"
)

// Result is the outcome of a satisfiability check.
type Result int

const (
	// Unsat means no assignment within the configured bounds satisfies
	// the assertion stack.
	Unsat Result = iota
	// Sat means a satisfying assignment was found; Model() is valid.
	Sat
	// Unknown means the search was cancelled (context) before resolving.
	Unknown
)

func (r Result) String() string {
	switch r {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	default:
		return "unknown"
	}
}

// Model maps atom keys (variable names, or the canonical String() of an
// uninterpreted-function application) to their satisfying real value.
type Model map[string]float64

// Config bounds the reference decision procedure's search box.
type Config struct {
	// Ceiling is the inclusive upper bound of every atom's domain.
	Ceiling int64
	// RealDenominator subdivides [0, Ceiling] into steps of 1/RealDenominator
	// for Real-sorted atoms (function applications, mostly).
	RealDenominator int64
}

// DefaultConfig is a small search box (integers 0..6, reals in steps of
// 1/2), used by the CLI; tests that need finer real values pass their own
// Config. It is a reference-backend limitation, not a core-algorithm one
// (see DESIGN.md).
var DefaultConfig = Config{Ceiling: 6, RealDenominator: 2}

// Solver is an incremental push/pop assertion stack over pkg/term
// formulae, grounded on the teacher's Model/SolverState split
// (`pkg/minikanren/solver.go`): Push/Pop manage a stack of assertion
// frames; CheckSat re-derives satisfiability of their conjunction.
type Solver struct {
	cfg    Config
	frames [][]*term.Term
	model  Model
}

// New builds an empty solver with one base frame.
func New(cfg Config) *Solver {
	return &Solver{cfg: cfg, frames: [][]*term.Term{{}}}
}

// Push opens a new assertion frame.
func (s *Solver) Push() { s.frames = append(s.frames, nil) }

// Pop discards the most recent assertion frame.
func (s *Solver) Pop() {
	if len(s.frames) > 1 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// Assert adds f to the current frame.
func (s *Solver) Assert(f *term.Term) {
	top := len(s.frames) - 1
	s.frames[top] = append(s.frames[top], f)
}

// AssertAll adds every formula in fs to the current frame.
func (s *Solver) AssertAll(fs *term.Set) {
	for _, f := range fs.Slice() {
		s.Assert(f)
	}
}

// Assertions returns every currently-asserted formula across all frames.
func (s *Solver) Assertions() []*term.Term {
	var all []*term.Term
	for _, frame := range s.frames {
		all = append(all, frame...)
	}
	return all
}

// CheckSat searches the bounded box for a satisfying assignment of every
// currently asserted formula.
func (s *Solver) CheckSat(ctx context.Context) (Result, error) {
	conj := s.Assertions()
	atoms := collectAtoms(conj)
	bounds := tightenBounds(conj, atoms, s.cfg)

	env := make(Model, len(atoms))
	ok, cancelled := searchDFS(ctx, conj, atoms, bounds, env, s.cfg)
	if cancelled {
		return Unknown, ctx.Err()
	}
	if !ok {
		return Unsat, nil
	}
	s.model = env
	return Sat, nil
}

// Model returns the last satisfying assignment found by CheckSat.
func (s *Solver) Model() Model { return s.model }

// IsSat is a convenience wrapper matching the source's `solver.is_sat`.
func (s *Solver) IsSat(ctx context.Context, f *term.Term) (bool, error) {
	s.Push()
	defer s.Pop()
	s.Assert(f)
	r, err := s.CheckSat(ctx)
	return r == Sat, err
}

type atom struct {
	key  string
	sort term.Sort
}

func collectAtoms(conj []*term.Term) []atom {
	seen := make(map[string]atom)
	var walk func(t *term.Term)
	walk = func(t *term.Term) {
		if t == nil || t.IsInfinity() {
			return
		}
		switch {
		case t.IsApp():
			key := t.String()
			if _, ok := seen[key]; !ok {
				seen[key] = atom{key: key, sort: t.Sort()}
			}
			for _, a := range t.Args() {
				walk(a)
			}
		case t.IsVar():
			if _, ok := seen[t.Name()]; !ok {
				seen[t.Name()] = atom{key: t.Name(), sort: t.Sort()}
			}
		default:
			for _, a := range t.Args() {
				walk(a)
			}
		}
	}
	for _, f := range conj {
		walk(f)
	}
	out := make([]atom, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

type bound struct{ lo, hi int64 }

// tightenBounds scans top-level comparisons of the shape `var OP literal`
// to shrink each atom's search range below the configured ceiling. This is
// a cheap, non-exhaustive analogue of the teacher's constraint-propagation
// pass (domain.go/propagation.go) — it only prunes what is visible as a
// direct literal bound, leaving the DFS to resolve everything else.
func tightenBounds(conj []*term.Term, atoms []atom, cfg Config) map[string]bound {
	bounds := make(map[string]bound, len(atoms))
	for _, a := range atoms {
		bounds[a.key] = bound{lo: 0, hi: cfg.Ceiling}
	}
	for _, f := range conj {
		applyLiteralBound(f, bounds)
	}
	return bounds
}

func applyLiteralBound(t *term.Term, bounds map[string]bound) {
	if t == nil {
		return
	}
	args := t.Args()
	for _, a := range args {
		applyLiteralBound(a, bounds)
	}
	if len(args) != 2 {
		return
	}
	l, r := args[0], args[1]
	varKey, lit, litOnRight, isCmp := literalComparison(t, l, r)
	if !isCmp {
		return
	}
	b, ok := bounds[varKey]
	if !ok {
		return
	}
	switch kindOf(t) {
	case "le":
		if litOnRight {
			b.hi = min64(b.hi, int64(lit))
		} else {
			b.lo = max64(b.lo, int64(lit))
		}
	case "ge":
		if litOnRight {
			b.lo = max64(b.lo, int64(lit))
		} else {
			b.hi = min64(b.hi, int64(lit))
		}
	case "lt":
		if litOnRight {
			b.hi = min64(b.hi, int64(lit)-1)
		} else {
			b.lo = max64(b.lo, int64(lit)+1)
		}
	case "gt":
		if litOnRight {
			b.lo = max64(b.lo, int64(lit)+1)
		} else {
			b.hi = min64(b.hi, int64(lit)-1)
		}
	case "eq":
		b.lo, b.hi = int64(lit), int64(lit)
	}
	bounds[varKey] = b
}

// kindOf classifies a binary comparison term using the exported shape
// predicates, since pkg/term intentionally keeps its internal kind tag
// private.
func kindOf(t *term.Term) string {
	switch {
	case t.IsEq():
		return "eq"
	case t.IsLe():
		return "le"
	case t.IsGe():
		return "ge"
	case t.IsLt():
		return "lt"
	case t.IsGt():
		return "gt"
	default:
		return ""
	}
}

func literalComparison(t, l, r *term.Term) (varKey string, lit float64, litOnRight bool, ok bool) {
	if !t.IsEq() && kindOf(t) == "" {
		return "", 0, false, false
	}
	if l.IsVar() && isLiteral(r) {
		return l.Name(), literalValue(r), true, true
	}
	if r.IsVar() && isLiteral(l) {
		return r.Name(), literalValue(l), false, true
	}
	return "", 0, false, false
}

func isLiteral(t *term.Term) bool {
	return len(t.Args()) == 0 && !t.IsVar() && !t.IsInfinity()
}

func literalValue(t *term.Term) float64 {
	return evalNum(t, nil)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

package solver

import (
	"context"

	"github.com/moves-rwth/kipro2/pkg/term"
)

// searchDFS enumerates assignments to atoms within bounds, depth-first,
// looking for one that satisfies every formula in conj. It mirrors the
// teacher's labeling.go/search.go shape (try a value, recurse, backtrack)
// generalized from finite-domain CSP labeling to this package's mixed
// Int/Real/Bool atom universe.
//
// Bool-sorted atoms are tried as {0, 1}; Int-sorted atoms step by 1 across
// [lo, hi]; Real-sorted atoms (almost always uninterpreted-function
// applications) step by 1/cfg.RealDenominator across the same range.
// ctx is checked between branches so a caller can bound search time.
func searchDFS(ctx context.Context, conj []*term.Term, atoms []atom, bounds map[string]bound, env Model, cfg Config) (ok bool, cancelled bool) {
	return dfs(ctx, conj, atoms, 0, bounds, env, cfg)
}

func dfs(ctx context.Context, conj []*term.Term, atoms []atom, i int, bounds map[string]bound, env Model, cfg Config) (bool, bool) {
	if err := ctx.Err(); err != nil {
		return false, true
	}
	if i == len(atoms) {
		return satisfies(conj, env), false
	}
	a := atoms[i]
	for _, v := range domainValues(a, bounds[a.key], cfg) {
		env[a.key] = v
		if ok, cancelled := dfs(ctx, conj, atoms, i+1, bounds, env, cfg); cancelled {
			return false, true
		} else if ok {
			return true, false
		}
	}
	delete(env, a.key)
	return false, false
}

func domainValues(a atom, b bound, cfg Config) []float64 {
	switch a.sort {
	case term.SortBool:
		return []float64{0, 1}
	case term.SortReal:
		return realSteps(b, cfg.RealDenominator)
	default:
		return intSteps(b)
	}
}

func intSteps(b bound) []float64 {
	if b.hi < b.lo {
		return nil
	}
	out := make([]float64, 0, b.hi-b.lo+1)
	for v := b.lo; v <= b.hi; v++ {
		out = append(out, float64(v))
	}
	return out
}

func realSteps(b bound, denom int64) []float64 {
	if denom <= 0 {
		denom = 1
	}
	if b.hi < b.lo {
		return nil
	}
	steps := (b.hi - b.lo) * denom
	out := make([]float64, 0, steps+1)
	for s := int64(0); s <= steps; s++ {
		out = append(out, float64(b.lo)+float64(s)/float64(denom))
	}
	return out
}

func satisfies(conj []*term.Term, env Model) bool {
	for _, f := range conj {
		if !evalBool(f, env) {
			return false
		}
	}
	return true
}

package subst

import "github.com/moves-rwth/kipro2/pkg/term"

// Simplify performs local, idempotent constant folding and identity
// elimination (spec.md #4.5) — e.g. collapsing `2 = 2` guards produced by
// substitution composition, or `Implies(true, x)` down to `x`. It is a
// pure function: it never touches solver state and never mutates its
// input.
func Simplify(t *term.Term) *term.Term {
	args := t.Args()
	if len(args) == 0 {
		return t
	}
	newArgs := make([]*term.Term, len(args))
	for i, a := range args {
		newArgs[i] = Simplify(a)
	}
	return foldTop(t.Rebuild(newArgs))
}

// SimplifyAll simplifies every member of a formula set.
func SimplifyAll(fs *term.Set) *term.Set {
	out := term.NewSet()
	for _, f := range fs.Slice() {
		out.Add(Simplify(f))
	}
	return out
}

func foldTop(t *term.Term) *term.Term {
	args := t.Args()
	switch {
	case t.IsNot():
		if b, ok := args[0].BoolValue(); ok {
			return term.Bool(!b)
		}
	case t.IsImplies():
		if b, ok := args[0].BoolValue(); ok {
			if !b {
				return term.Bool(true)
			}
			return args[1]
		}
		if b, ok := args[1].BoolValue(); ok && b {
			return term.Bool(true)
		}
	case t.IsAnd():
		return foldAnd(args)
	case t.IsOr():
		return foldOr(args)
	case t.IsEq():
		if args[0].String() == args[1].String() {
			return term.Bool(true)
		}
	}
	return t
}

func foldAnd(args []*term.Term) *term.Term {
	kept := make([]*term.Term, 0, len(args))
	for _, a := range args {
		if b, ok := a.BoolValue(); ok {
			if !b {
				return term.Bool(false)
			}
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		return term.Bool(true)
	}
	return term.And(kept...)
}

func foldOr(args []*term.Term) *term.Term {
	kept := make([]*term.Term, 0, len(args))
	for _, a := range args {
		if b, ok := a.BoolValue(); ok {
			if b {
				return term.Bool(true)
			}
			continue
		}
		kept = append(kept, a)
	}
	if len(kept) == 0 {
		return term.Bool(false)
	}
	return term.Or(kept...)
}

// Package subst implements the EUF-aware substituter and simplifier of
// spec.md #4.5.
//
// Generic term substitution (as gokando's pkg/minikanren Substitution.Walk
// performs it for logic variables) only ever rewrites leaves. The BMC and
// k-induction formula generators additionally need to rewrite the *head
// symbol* of a function application — e.g. replacing every occurrence of
// P_i(...) with P_{i+1}(...) as the unrolling depth advances. Per spec.md
// #9 ("EUF-aware substitution"), that is the single most subtle algorithmic
// requirement in this system, so it gets its own explicit dispatch on
// function-application nodes rather than falling out of a generic walk.
package subst

import "github.com/moves-rwth/kipro2/pkg/term"

// VarSubst maps program-variable names to replacement terms.
type VarSubst map[string]*term.Term

// FuncSubst maps old uninterpreted-function-symbol names to new ones
// (e.g. "P_1" -> "P_2"). Arity and sorts are preserved from the original
// application; only the head symbol name changes.
type FuncSubst map[string]string

// Substitution bundles a variable substitution and a function-symbol
// substitution, applied together in one bottom-up rewrite.
type Substitution struct {
	Vars  VarSubst
	Funcs FuncSubst
}

// Compose merges s and next into one substitution, with `next` taking
// precedence on shared keys; s's right-hand sides are not rewritten under
// next. In this codebase substitutions are always applied as single
// atomic bottom-up passes (see Apply) — mirroring the source's `sub_copy[old_euf] = new_euf`
// pattern of mutating a copy of the variable map before reusing it.
func (s Substitution) Compose(next Substitution) Substitution {
	vars := make(VarSubst, len(s.Vars)+len(next.Vars))
	for k, v := range s.Vars {
		vars[k] = v
	}
	for k, v := range next.Vars {
		vars[k] = v
	}
	funcs := make(FuncSubst, len(s.Funcs)+len(next.Funcs))
	for k, v := range s.Funcs {
		funcs[k] = v
	}
	for k, v := range next.Funcs {
		funcs[k] = v
	}
	return Substitution{Vars: vars, Funcs: funcs}
}

// Apply performs the bottom-up rewrite described in spec.md #4.5: any
// exact-match variable substitution is applied at leaves, and any function
// application whose head symbol is a substitution key is rebuilt with the
// new head (same arity/domain/range, new name).
func Apply(t *term.Term, s Substitution) *term.Term {
	if t == nil {
		return nil
	}
	if t.IsVar() {
		if repl, ok := s.Vars[t.Name()]; ok {
			return repl
		}
		return t
	}
	args := t.Args()
	if t.IsApp() {
		newArgs := make([]*term.Term, len(args))
		for i, a := range args {
			newArgs[i] = Apply(a, s)
		}
		newName := t.FuncName()
		if repl, ok := s.Funcs[newName]; ok {
			newName = repl
		}
		fn := term.Func(term.FuncSymbol{Name: newName, Domain: t.AppDomain(), Range: t.Sort()})
		return term.App(fn, newArgs...)
	}
	if len(args) == 0 {
		return t
	}
	newArgs := make([]*term.Term, len(args))
	changed := false
	for i, a := range args {
		newArgs[i] = Apply(a, s)
		if newArgs[i] != a {
			changed = true
		}
	}
	if !changed {
		return t
	}
	return t.Rebuild(newArgs)
}

// ApplyAll rewrites every formula in fs under s, returning a fresh set.
func ApplyAll(fs *term.Set, s Substitution) *term.Set {
	out := term.NewSet()
	for _, f := range fs.Slice() {
		out.Add(Apply(f, s))
	}
	return out
}

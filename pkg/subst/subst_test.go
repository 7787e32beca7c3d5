package subst

import (
	"testing"

	"github.com/moves-rwth/kipro2/pkg/term"
)

func TestApplyRewritesVarLeaf(t *testing.T) {
	x := term.Var("x", term.SortInt)
	e := term.Add(x, term.Int(1))
	out := Apply(e, Substitution{Vars: VarSubst{"x": term.Int(5)}})
	want := term.Add(term.Int(5), term.Int(1))
	if !out.Equal(want) {
		t.Fatalf("Apply() = %q, want %q", out.String(), want.String())
	}
}

func TestApplyLeavesUnmappedVarsAlone(t *testing.T) {
	y := term.Var("y", term.SortInt)
	out := Apply(y, Substitution{Vars: VarSubst{"x": term.Int(5)}})
	if !out.Equal(y) {
		t.Fatalf("Apply() should leave y unchanged, got %q", out.String())
	}
}

// TestApplyRewritesFunctionHead is the "EUF-aware substitution" requirement
// of spec.md #9/#4.5: generic substitution only ever touches leaves, but
// P_i(...) must become P_{i+1}(...) at the *head* symbol while arguments
// are rewritten independently.
func TestApplyRewritesFunctionHead(t *testing.T) {
	p1 := term.Func(term.FuncSymbol{Name: "P_1", Domain: []term.Sort{term.SortInt}, Range: term.SortReal})
	x := term.Var("x", term.SortInt)
	app := term.App(p1, x)

	out := Apply(app, Substitution{
		Vars:  VarSubst{"x": term.Int(7)},
		Funcs: FuncSubst{"P_1": "P_2"},
	})

	if !out.IsApp() {
		t.Fatalf("result should still be a function application")
	}
	if out.FuncName() != "P_2" {
		t.Fatalf("FuncName() = %q, want P_2", out.FuncName())
	}
	if len(out.Args()) != 1 || !out.Args()[0].Equal(term.Int(7)) {
		t.Fatalf("argument should have been rewritten to 7, got %v", out.Args())
	}
}

func TestApplyPreservesUnmatchedFuncHead(t *testing.T) {
	p1 := term.Func(term.FuncSymbol{Name: "P_1", Domain: []term.Sort{term.SortInt}, Range: term.SortReal})
	app := term.App(p1, term.Int(1))
	out := Apply(app, Substitution{Funcs: FuncSubst{"P_2": "P_3"}})
	if out.FuncName() != "P_1" {
		t.Fatalf("head symbol should be untouched when not a substitution key, got %q", out.FuncName())
	}
}

func TestComposePrefersNext(t *testing.T) {
	a := Substitution{Vars: VarSubst{"x": term.Int(1)}, Funcs: FuncSubst{"P_1": "P_2"}}
	b := Substitution{Vars: VarSubst{"x": term.Int(2), "y": term.Int(3)}}
	composed := a.Compose(b)
	if !composed.Vars["x"].Equal(term.Int(2)) {
		t.Fatalf("Compose() should let next's binding for x win")
	}
	if !composed.Vars["y"].Equal(term.Int(3)) {
		t.Fatalf("Compose() should include next's extra bindings")
	}
	if composed.Funcs["P_1"] != "P_2" {
		t.Fatalf("Compose() should keep s's func bindings when next doesn't override them")
	}
}

func TestApplyAllRewritesEverySetMember(t *testing.T) {
	x := term.Var("x", term.SortInt)
	fs := term.NewSet(term.Eq(x, term.Int(0)), term.Gt(x, term.Int(1)))
	out := ApplyAll(fs, Substitution{Vars: VarSubst{"x": term.Int(9)}})
	for _, f := range out.Slice() {
		for _, a := range f.Args() {
			if a.IsVar() && a.Name() == "x" {
				t.Fatalf("ApplyAll() left an unrewritten reference to x in %q", f.String())
			}
		}
	}
}

func TestSimplifyFoldsAndOr(t *testing.T) {
	x := term.Var("x", term.SortInt)
	g := term.Gt(x, term.Int(0))
	folded := Simplify(term.And(term.Bool(true), g))
	if !folded.Equal(g) {
		t.Fatalf("Simplify(And(true, g)) = %q, want %q", folded.String(), g.String())
	}
	foldedFalse := Simplify(term.And(term.Bool(false), g))
	if !foldedFalse.Equal(term.Bool(false)) {
		t.Fatalf("Simplify(And(false, g)) should be false, got %q", foldedFalse.String())
	}
	foldedOr := Simplify(term.Or(term.Bool(true), g))
	if !foldedOr.Equal(term.Bool(true)) {
		t.Fatalf("Simplify(Or(true, g)) should be true, got %q", foldedOr.String())
	}
}

func TestSimplifyIsIdempotent(t *testing.T) {
	x := term.Var("x", term.SortInt)
	f := term.Implies(term.Bool(false), term.Gt(x, term.Int(0)))
	once := Simplify(f)
	twice := Simplify(once)
	if !once.Equal(twice) {
		t.Fatalf("Simplify() should be idempotent: %q vs %q", once.String(), twice.String())
	}
}

func TestSimplifyEqReflexive(t *testing.T) {
	x := term.Var("x", term.SortInt)
	out := Simplify(term.Eq(x, x))
	if !out.Equal(term.Bool(true)) {
		t.Fatalf("Simplify(x = x) should fold to true, got %q", out.String())
	}
}

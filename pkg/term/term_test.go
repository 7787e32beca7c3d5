package term

import "testing"

func TestStringIsCanonical(t *testing.T) {
	a := And(Ge(Var("x", SortInt), Int(0)), Lt(Var("y", SortInt), Int(3)))
	b := And(Ge(Var("x", SortInt), Int(0)), Lt(Var("y", SortInt), Int(3)))
	if a.String() != b.String() {
		t.Fatalf("structurally equal terms rendered differently: %q vs %q", a.String(), b.String())
	}
	if !a.Equal(b) {
		t.Fatalf("Equal() should hold for structurally identical terms")
	}
}

func TestStringDistinguishesShape(t *testing.T) {
	a := And(Bool(true), Bool(false))
	b := Or(Bool(true), Bool(false))
	if a.Equal(b) {
		t.Fatalf("And(...) and Or(...) must not render the same")
	}
}

func TestNAryIdentities(t *testing.T) {
	if Add().String() != Int(0).String() {
		t.Fatalf("Add() should be the additive identity")
	}
	if Mul().String() != Int(1).String() {
		t.Fatalf("Mul() should be the multiplicative identity")
	}
	if And().String() != Bool(true).String() {
		t.Fatalf("And() should be true")
	}
	if Or().String() != Bool(false).String() {
		t.Fatalf("Or() should be false")
	}
	x := Var("x", SortInt)
	if Add(x).String() != x.String() {
		t.Fatalf("Add(x) should collapse to x")
	}
}

func TestAppRequiresFuncSymbolArity(t *testing.T) {
	fn := Func(FuncSymbol{Name: "P_1", Domain: []Sort{SortInt, SortInt}, Range: SortReal})
	defer func() {
		if recover() == nil {
			t.Fatalf("App with wrong arity should panic")
		}
	}()
	App(fn, Int(1))
}

func TestAppRoundTrip(t *testing.T) {
	fn := Func(FuncSymbol{Name: "P_1", Domain: []Sort{SortInt}, Range: SortReal})
	app := App(fn, Var("x", SortInt))
	if !app.IsApp() {
		t.Fatalf("App(...) should report IsApp() == true")
	}
	if app.FuncName() != "P_1" {
		t.Fatalf("FuncName() = %q, want P_1", app.FuncName())
	}
	if len(app.Args()) != 1 || app.Args()[0].Name() != "x" {
		t.Fatalf("Args() did not round-trip")
	}
	if app.Sort() != SortReal {
		t.Fatalf("App sort should be the function's range sort")
	}
}

func TestRebuildPreservesShape(t *testing.T) {
	orig := Add(Var("x", SortInt), Int(1))
	rebuilt := orig.Rebuild([]*Term{Var("y", SortInt), Int(2)})
	want := Add(Var("y", SortInt), Int(2))
	if !rebuilt.Equal(want) {
		t.Fatalf("Rebuild() = %q, want %q", rebuilt.String(), want.String())
	}
}

func TestSetDedup(t *testing.T) {
	s := NewSet()
	s.Add(Eq(Var("x", SortInt), Int(1)))
	s.Add(Eq(Var("x", SortInt), Int(1)))
	s.Add(Eq(Var("x", SortInt), Int(2)))
	if s.Len() != 2 {
		t.Fatalf("Set.Len() = %d, want 2 after adding one duplicate", s.Len())
	}
}

func TestSetSliceIsSortedAndStable(t *testing.T) {
	s := NewSet(Int(3).toEq(), Int(1).toEq(), Int(2).toEq())
	first := s.Slice()
	second := s.Slice()
	if len(first) != len(second) {
		t.Fatalf("Slice() length not stable")
	}
	for i := range first {
		if first[i].String() != second[i].String() {
			t.Fatalf("Slice() order not stable across calls")
		}
	}
}

// toEq is a tiny test-local helper turning a constant into a distinct,
// orderable formula so TestSetSliceIsSortedAndStable has three non-equal
// elements to dedup/sort.
func (t *Term) toEq() *Term { return Eq(t, t) }

func TestInfinityOnlyAsLeaf(t *testing.T) {
	inf := Infinity()
	if !inf.IsInfinity() {
		t.Fatalf("Infinity() should report IsInfinity() == true")
	}
	if Int(1).IsInfinity() {
		t.Fatalf("an ordinary Int constant must not report IsInfinity()")
	}
}

func TestMonusDefiningFormulaShape(t *testing.T) {
	p := MonusPair{A: Var("a", SortInt), B: Var("b", SortInt)}
	f := p.DefiningFormula(MonusSymbol, Int(0))
	if !f.IsIte() {
		t.Fatalf("DefiningFormula() should be an ite(...)")
	}
}

func TestAccumulatorDedupsByContent(t *testing.T) {
	acc := NewAccumulator()
	acc.RecordMonus(MonusPair{A: Var("a", SortInt), B: Var("b", SortInt)})
	acc.RecordMonus(MonusPair{A: Var("a", SortInt), B: Var("b", SortInt)})
	acc.RecordMonus(MonusPair{A: Var("a", SortInt), B: Var("c", SortInt)})
	if got := len(acc.MonusPairs()); got != 2 {
		t.Fatalf("MonusPairs() len = %d, want 2", got)
	}
	if got := len(acc.RMonusPairs()); got != 0 {
		t.Fatalf("RMonusPairs() should stay empty when only RecordMonus was called")
	}
}

package bridge

import (
	"testing"

	"github.com/moves-rwth/kipro2/pkg/pgcl"
	"github.com/moves-rwth/kipro2/pkg/term"
)

func mustParseExpr(t *testing.T, src string) *pgcl.Expr {
	t.Helper()
	e, err := pgcl.ParseExpr(src)
	if err != nil {
		t.Fatalf("ParseExpr(%q) failed: %v", src, err)
	}
	return e
}

func mustParseBool(t *testing.T, src string) *pgcl.BoolExpr {
	t.Helper()
	e, err := pgcl.ParseProgram("while (" + src + ") { skip }")
	if err != nil {
		t.Fatalf("parsing guard %q failed: %v", src, err)
	}
	return e.Loop.Guard
}

func TestLowerPlainArithmetic(t *testing.T) {
	e := mustParseExpr(t, "c + 1")
	got, err := LowerExpr(e, Options{})
	if err != nil {
		t.Fatalf("LowerExpr() error: %v", err)
	}
	want := term.Add(term.Var("c", term.SortInt), term.Int(1))
	if !got.Equal(want) {
		t.Fatalf("LowerExpr(%q) = %q, want %q", e, got.String(), want.String())
	}
}

// TestMinusAsMonus is spec.md #4.1's core rewrite rule: with
// TreatMinusAsMonus set, "a - b" becomes an App of the Monus EUF and the
// pair is recorded in the accumulator, rather than raw subtraction.
func TestMinusAsMonus(t *testing.T) {
	e := mustParseExpr(t, "c - 1")
	acc := term.NewAccumulator()
	got, err := LowerExpr(e, Options{TreatMinusAsMonus: true, Acc: acc})
	if err != nil {
		t.Fatalf("LowerExpr() error: %v", err)
	}
	if !got.IsApp() || got.FuncName() != "Monus" {
		t.Fatalf("LowerExpr(%q) = %q, want a Monus(...) application", e, got.String())
	}
	if len(acc.MonusPairs()) != 1 {
		t.Fatalf("expected exactly one recorded monus pair, got %d", len(acc.MonusPairs()))
	}
}

func TestMinusWithoutMonusFlagStaysRawSub(t *testing.T) {
	e := mustParseExpr(t, "c - 1")
	got, err := LowerExpr(e, Options{})
	if err != nil {
		t.Fatalf("LowerExpr() error: %v", err)
	}
	if got.IsApp() {
		t.Fatalf("LowerExpr() without TreatMinusAsMonus must not introduce Monus, got %q", got.String())
	}
	if !got.IsSubOp() {
		t.Fatalf("LowerExpr() without TreatMinusAsMonus should be raw subtraction, got %q", got.String())
	}
}

// TestInfinityAsWholeSummand is the permitted case: infinity appearing as
// a standalone top-level atom must lower cleanly to the Infinity symbol.
func TestInfinityAsWholeSummand(t *testing.T) {
	e := mustParseExpr(t, `\infty`)
	got, err := LowerExpr(e, Options{})
	if err != nil {
		t.Fatalf("LowerExpr() error: %v", err)
	}
	if !got.IsInfinity() {
		t.Fatalf("LowerExpr(infinity literal) should yield the Infinity symbol")
	}
}

// TestInfinityInComposedArithmeticRejected is spec.md #4.1: infinity may
// never be an operand of +, -, or *.
func TestInfinityInComposedArithmeticRejected(t *testing.T) {
	cases := []string{`\infty + 1`, `1 + \infty`, `\infty * 2`, `\infty - 1`}
	for _, src := range cases {
		e := mustParseExpr(t, src)
		if _, err := LowerExpr(e, Options{}); err != ErrComposedInfinity {
			t.Fatalf("LowerExpr(%q) error = %v, want ErrComposedInfinity", src, err)
		}
	}
}

func TestLowerTickLiteralAcceptsNumber(t *testing.T) {
	e := mustParseExpr(t, "3")
	got, err := LowerTickLiteral(e)
	if err != nil {
		t.Fatalf("LowerTickLiteral() error: %v", err)
	}
	if got.String() != term.Real(3).String() {
		t.Fatalf("LowerTickLiteral(3) = %q, want 3", got.String())
	}
}

// TestLowerTickLiteralRejectsNonLiteral is spec.md #4.1: "TickExpr(e): e
// must be a numeric literal (non-literal ticks are rejected)".
func TestLowerTickLiteralRejectsNonLiteral(t *testing.T) {
	e := mustParseExpr(t, "c + 1")
	if _, err := LowerTickLiteral(e); err != ErrNonLiteralTick {
		t.Fatalf("LowerTickLiteral(c + 1) error = %v, want ErrNonLiteralTick", err)
	}
}

func TestLowerBoolExprComparison(t *testing.T) {
	b := mustParseBool(t, "f = 1")
	got, err := LowerBoolExpr(b, Options{})
	if err != nil {
		t.Fatalf("LowerBoolExpr() error: %v", err)
	}
	want := term.Eq(term.Var("f", term.SortInt), term.Int(1))
	if !got.Equal(want) {
		t.Fatalf("LowerBoolExpr(f = 1) = %q, want %q", got.String(), want.String())
	}
}

func TestIversonBracketDropsBracket(t *testing.T) {
	e := mustParseExpr(t, "[f = 1]")
	got, err := LowerExpr(e, Options{})
	if err != nil {
		t.Fatalf("LowerExpr() error: %v", err)
	}
	if !got.IsIte() {
		t.Fatalf("Iverson bracket should lower to an ite(cond, 1, 0), got %q", got.String())
	}
}

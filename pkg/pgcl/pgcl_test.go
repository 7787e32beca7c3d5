package pgcl

import (
	"os"
	"testing"
)

const geometricProgram = `
nat c;
nat f;
while (f = 1) { {f := 0} [1/2] {c := c + 1} }
`

func TestParseProgramDecls(t *testing.T) {
	prog, err := ParseProgram(geometricProgram)
	if err != nil {
		t.Fatalf("ParseProgram() error: %v", err)
	}
	got := prog.VarNames()
	want := []string{"c", "f"}
	if len(got) != len(want) {
		t.Fatalf("VarNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("VarNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseProgramRejectsSecondLoop(t *testing.T) {
	src := `
nat x;
while (x = 1) { skip }
while (x = 1) { skip }
`
	if _, err := ParseProgram(src); err == nil {
		t.Fatalf("ParseProgram() should reject a second top-level loop (spec.md #9, multi-loop is InputReject)")
	}
}

func TestParseProgramRejectsGarbage(t *testing.T) {
	if _, err := ParseProgram("this is not a program"); err == nil {
		t.Fatalf("ParseProgram() should reject syntactically invalid input")
	}
}

func TestParseExprStandalone(t *testing.T) {
	if _, err := ParseExpr("c + 1"); err != nil {
		t.Fatalf("ParseExpr() error: %v", err)
	}
	if _, err := ParseExpr(`[f = 1]*(c+1) + [not(f = 1)]*c`); err != nil {
		t.Fatalf("ParseExpr() error on Iverson-bracket expectation: %v", err)
	}
}

// TestTransformGeometricProgram exercises the one-big-loop wp/ert
// transformer (spec.md #4.2's "external collaborator" stand-in): the
// probabilistic choice should yield exactly two SNF tuples, one per
// branch, both gated by the implicit true guard (no surrounding `if`).
func TestTransformGeometricProgram(t *testing.T) {
	prog, err := ParseProgram(geometricProgram)
	if err != nil {
		t.Fatalf("ParseProgram() error: %v", err)
	}
	xform := Transform(prog)
	if len(xform.Body) != 2 {
		t.Fatalf("Transform().Body has %d tuples, want 2 (one per probabilistic branch)", len(xform.Body))
	}
	for _, tup := range xform.Body {
		if _, ok := tup.Subst["c"]; !ok {
			t.Fatalf("every SNF tuple must define a substitution for every program variable (spec.md #3 invariant 2), missing c")
		}
		if _, ok := tup.Subst["f"]; !ok {
			t.Fatalf("every SNF tuple must define a substitution for every program variable (spec.md #3 invariant 2), missing f")
		}
	}
}

// TestParseAndTransformFixtures exercises the `# 8` scenario 4-6 fixtures
// (the bounded retransmission protocol and the uniform-generator rejection
// sampler, both carried in from original_source/tests/programs.py) through
// the parser and the one-big-loop transformer. DESIGN.md records why these
// two programs are not driven end to end through a verification verdict:
// their 5-7 variables and non-power-of-2 probabilities (0.9, 1/2-chained
// rejection) make a hand-derived expected witness impractical against the
// bounded reference solver, so coverage here stops at "parses, and the
// transformer produces a well-formed, total SNF" rather than a verdict.
func TestParseAndTransformFixtures(t *testing.T) {
	for _, tc := range []struct {
		file string
		vars []string
	}{
		{"testdata/brp.pgcl", []string{"toSend", "sent", "maxFailed", "failed", "totalFailed"}},
		{"testdata/unif_gen.pgcl", []string{"elow", "ehigh", "n", "v", "c", "running", "i"}},
	} {
		t.Run(tc.file, func(t *testing.T) {
			src, err := os.ReadFile(tc.file)
			if err != nil {
				t.Fatalf("ReadFile(%s): %v", tc.file, err)
			}
			prog, err := ParseProgram(string(src))
			if err != nil {
				t.Fatalf("ParseProgram(%s) error: %v", tc.file, err)
			}
			got := prog.VarNames()
			if len(got) != len(tc.vars) {
				t.Fatalf("VarNames() = %v, want %v", got, tc.vars)
			}
			for i := range tc.vars {
				if got[i] != tc.vars[i] {
					t.Fatalf("VarNames()[%d] = %q, want %q", i, got[i], tc.vars[i])
				}
			}

			xform := Transform(prog)
			if len(xform.Body) == 0 {
				t.Fatalf("Transform(%s) produced no SNF tuples", tc.file)
			}
			for _, tup := range xform.Body {
				if len(tup.Subst) != len(tc.vars) {
					t.Fatalf("%s: SNF tuple substitution covers %d vars, want total over all %d (spec.md #3 invariant 2)", tc.file, len(tup.Subst), len(tc.vars))
				}
				for _, v := range tc.vars {
					if _, ok := tup.Subst[v]; !ok {
						t.Fatalf("%s: SNF tuple substitution missing variable %q", tc.file, v)
					}
				}
			}
		})
	}
}

func TestTransformSkipIsIdentity(t *testing.T) {
	prog, err := ParseProgram("nat x;\nwhile (x = 1) { skip }")
	if err != nil {
		t.Fatalf("ParseProgram() error: %v", err)
	}
	xform := Transform(prog)
	if len(xform.Body) != 1 {
		t.Fatalf("a single skip statement should yield exactly one identity SNF tuple, got %d", len(xform.Body))
	}
	tup := xform.Body[0]
	if tup.Subst["x"] == nil {
		t.Fatalf("skip's substitution must still be total over program variables")
	}
}

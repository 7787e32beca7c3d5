package snf

import (
	"context"
	"testing"

	"github.com/moves-rwth/kipro2/pkg/pgcl"
	"github.com/moves-rwth/kipro2/pkg/solver"
	"github.com/moves-rwth/kipro2/pkg/term"
)

const geometricProgram = `
nat c;
nat f;
while (f = 1) { {f := 0} [1/2] {c := c + 1} }
`

func buildResult(t *testing.T, programSrc, postSrc string) *Result {
	t.Helper()
	prog, err := pgcl.ParseProgram(programSrc)
	if err != nil {
		t.Fatalf("ParseProgram() error: %v", err)
	}
	post, err := pgcl.ParseExpr(postSrc)
	if err != nil {
		t.Fatalf("ParseExpr() error: %v", err)
	}
	acc := term.NewAccumulator()
	sv := solver.New(solver.DefaultConfig)
	res, err := Build(context.Background(), prog, post, acc, sv)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return res
}

// TestLoopExecuteDNFMutualExclusion is spec.md #8 invariant 2: distinct
// loop-execute guards must be pairwise unsatisfiable when conjoined.
func TestLoopExecuteDNFMutualExclusion(t *testing.T) {
	res := buildResult(t, geometricProgram, "c")
	sv := solver.New(solver.DefaultConfig)
	for i := range res.LoopExecute {
		for j := range res.LoopExecute {
			if i == j {
				continue
			}
			conj := term.And(res.LoopExecute[i].Guard, res.LoopExecute[j].Guard)
			sat, err := sv.IsSat(context.Background(), conj)
			if err != nil {
				t.Fatalf("IsSat() error: %v", err)
			}
			if sat {
				t.Fatalf("loop-execute guards %d and %d are not mutually exclusive", i, j)
			}
		}
	}
}

// TestLoopTerminatedDNFMutualExclusion is the same invariant for the
// loop-terminated DNF.
func TestLoopTerminatedDNFMutualExclusion(t *testing.T) {
	res := buildResult(t, geometricProgram, "c")
	sv := solver.New(solver.DefaultConfig)
	for i := range res.LoopTerminated {
		for j := range res.LoopTerminated {
			if i == j {
				continue
			}
			conj := term.And(res.LoopTerminated[i].Guard, res.LoopTerminated[j].Guard)
			sat, err := sv.IsSat(context.Background(), conj)
			if err != nil {
				t.Fatalf("IsSat() error: %v", err)
			}
			if sat {
				t.Fatalf("loop-terminated guards %d and %d are not mutually exclusive", i, j)
			}
		}
	}
}

// TestLoopTerminatedNonEmpty checks the geometric program's done branch
// (f != 1) is represented at all — without it, f != 1 states would have
// no defined postexpectation value.
func TestLoopTerminatedNonEmpty(t *testing.T) {
	res := buildResult(t, geometricProgram, "c")
	if len(res.LoopTerminated) == 0 {
		t.Fatalf("expected at least one loop-terminated DNF entry")
	}
}

// TestSubstIsTotal is spec.md #3 invariant 2: every substitution indexed
// into Σ must be a total function over every program variable.
func TestSubstIsTotal(t *testing.T) {
	res := buildResult(t, geometricProgram, "c")
	if len(res.Subst) == 0 {
		t.Fatalf("expected at least one recorded substitution")
	}
	for _, sigma := range res.Subst {
		for _, v := range res.Vars {
			if _, ok := sigma[v]; !ok {
				t.Fatalf("substitution %v missing entry for variable %q", sigma, v)
			}
		}
	}
}

func TestExpectationDNFCoversInfiniteSummand(t *testing.T) {
	prog, err := pgcl.ParseProgram(`
nat toSend;
nat totalFailed;
while (toSend <= 4) { totalFailed := totalFailed + 1 }
`)
	if err != nil {
		t.Fatalf("ParseProgram() error: %v", err)
	}
	pre, err := pgcl.ParseExpr(`[toSend <= 4]*(totalFailed+1) + [not(toSend <= 4)]*\infty`)
	if err != nil {
		t.Fatalf("ParseExpr() error: %v", err)
	}
	acc := term.NewAccumulator()
	sv := solver.New(solver.DefaultConfig)
	entries, err := ExpectationDNF(context.Background(), prog.VarNames(), pre, acc, sv)
	if err != nil {
		t.Fatalf("ExpectationDNF() error: %v", err)
	}
	var sawInfinite bool
	for _, e := range entries {
		if e.Arith.IsInfinity() {
			sawInfinite = true
		}
	}
	if !sawInfinite {
		t.Fatalf("expected at least one entry with the infinity summand preserved")
	}
}

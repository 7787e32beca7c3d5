package pgcl

// SnfTuple is one term of the summation normal form of a loop body's
// weakest-preexpectation/expected-runtime transformer (spec.md #3, "SNF
// tuple"): with probability Prob, conditional on Guard, the body performs
// the assignments of Subst and accrues Tick runtime cost.
type SnfTuple struct {
	Guard *BoolExpr
	Prob  *Expr
	Subst map[string]*Expr
	Tick  *Expr
}

// LoopTransformer is the one-big-loop wp/ert transformer of spec.md #4.2
// ("delegate to the external wp-transformer to obtain the one-big-loop
// transformer"): the body's SNF tuples plus the loop-done guard ¬B.
type LoopTransformer struct {
	Body []SnfTuple
	Done *BoolExpr
}

// Transform computes the one-big-loop transformer for prog, a single
// top-level loop with a loop-free body (the only program shape the grammar
// accepts).
func Transform(prog *Program) *LoopTransformer {
	vars := prog.VarNames()
	return &LoopTransformer{
		Body: wpBlock(prog.Loop.Body, vars),
		Done: notBool(prog.Loop.Guard),
	}
}

func identityTuple(vars []string) SnfTuple {
	return SnfTuple{Guard: trueBool(), Prob: oneExpr(), Subst: identitySubst(vars), Tick: zeroExpr()}
}

func wpBlock(b *Block, vars []string) []SnfTuple {
	acc := []SnfTuple{identityTuple(vars)}
	for _, stmt := range b.Stmts {
		acc = seqCompose(acc, wpStmt(stmt, vars))
	}
	return acc
}

func wpStmt(s *Stmt, vars []string) []SnfTuple {
	switch {
	case s.Skip != nil:
		return []SnfTuple{identityTuple(vars)}
	case s.Tick != nil:
		t := identityTuple(vars)
		t.Tick = s.Tick.Expr
		return []SnfTuple{t}
	case s.Assign != nil:
		t := identityTuple(vars)
		sub := make(map[string]*Expr, len(vars))
		for k, v := range t.Subst {
			sub[k] = v
		}
		sub[s.Assign.Var] = s.Assign.Expr
		t.Subst = sub
		return []SnfTuple{t}
	case s.If != nil:
		return wpIf(s.If, vars)
	case s.PChoice != nil:
		return wpPChoice(s.PChoice, vars)
	default:
		return []SnfTuple{identityTuple(vars)}
	}
}

func wpIf(s *IfStmt, vars []string) []SnfTuple {
	var out []SnfTuple
	for _, t := range wpBlock(s.Then, vars) {
		out = append(out, SnfTuple{Guard: andBool(s.Guard, t.Guard), Prob: t.Prob, Subst: t.Subst, Tick: t.Tick})
	}
	negGuard := notBool(s.Guard)
	for _, t := range wpBlock(s.Else, vars) {
		out = append(out, SnfTuple{Guard: andBool(negGuard, t.Guard), Prob: t.Prob, Subst: t.Subst, Tick: t.Tick})
	}
	return out
}

func wpPChoice(s *PChoiceStmt, vars []string) []SnfTuple {
	var out []SnfTuple
	complement := subExpr(oneExpr(), s.Prob)
	for _, t := range wpBlock(s.Left, vars) {
		out = append(out, SnfTuple{Guard: t.Guard, Prob: mulExpr(s.Prob, t.Prob), Subst: t.Subst, Tick: t.Tick})
	}
	for _, t := range wpBlock(s.Right, vars) {
		out = append(out, SnfTuple{Guard: t.Guard, Prob: mulExpr(complement, t.Prob), Subst: t.Subst, Tick: t.Tick})
	}
	return out
}

// seqCompose composes two SNF-tuple lists for sequential statement
// execution: the first statement's effect is applied, then the second's,
// with the second's guard/probability/tick rewritten under the first's
// substitution since they were computed relative to the intermediate
// state (spec.md #9, composing "exactly the algebraic step Φ(Ψ) =
// body-substitute(Ψ)").
func seqCompose(first, second []SnfTuple) []SnfTuple {
	out := make([]SnfTuple, 0, len(first)*len(second))
	for _, a := range first {
		for _, b := range second {
			out = append(out, SnfTuple{
				Guard: andBool(a.Guard, substBoolVars(b.Guard, a.Subst)),
				Prob:  mulExpr(a.Prob, substExprVars(b.Prob, a.Subst)),
				Subst: composeSubst(a.Subst, b.Subst),
				Tick:  addExpr(a.Tick, substExprVars(b.Tick, a.Subst)),
			})
		}
	}
	return out
}

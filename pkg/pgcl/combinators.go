package pgcl

// This file builds and rewrites Expr/BoolExpr trees programmatically. The
// grammar structs of grammar.go double as the AST (the same shape the
// teacher's kanso grammar uses for its own IR), so the transformer in
// transform.go needs smart constructors and a variable substitution walk
// over those same struct shapes rather than a separate intermediate
// representation.

func trueBool() *BoolExpr  { return &BoolExpr{Left: &AndExpr{Left: &NotExpr{Atom: &BoolAtom{True: true}}}} }
func falseBool() *BoolExpr { return &BoolExpr{Left: &AndExpr{Left: &NotExpr{Atom: &BoolAtom{False: true}}}} }

func andBool(a, b *BoolExpr) *BoolExpr {
	if isTrueBool(a) {
		return b
	}
	if isTrueBool(b) {
		return a
	}
	return &BoolExpr{Left: &AndExpr{
		Left: &NotExpr{Atom: &BoolAtom{Paren: a}},
		Rest: []*NotExpr{{Atom: &BoolAtom{Paren: b}}},
	}}
}

func notBool(a *BoolExpr) *BoolExpr {
	return &BoolExpr{Left: &AndExpr{Left: &NotExpr{Negate: true, Atom: &BoolAtom{Paren: a}}}}
}

func isTrueBool(b *BoolExpr) bool {
	return len(b.Rest) == 0 && len(b.Left.Rest) == 0 && !b.Left.Left.Negate &&
		b.Left.Left.Atom.True
}

func identVar(name string) *Expr {
	s := name
	return &Expr{Left: &MulExpr{Left: &UnaryExpr{Atom: &Atom{Ident: &s}}}}
}

func intExpr(n int64) *Expr {
	return numberExpr(formatInt(n))
}

func numberExpr(text string) *Expr {
	t := text
	return &Expr{Left: &MulExpr{Left: &UnaryExpr{Atom: &Atom{Number: &t}}}}
}

func formatInt(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	if neg {
		digits = append([]byte{'-'}, digits...)
	}
	return string(digits)
}

func parenExpr(e *Expr) *Expr {
	return &Expr{Left: &MulExpr{Left: &UnaryExpr{Atom: &Atom{Sub: e}}}}
}

func addExpr(a, b *Expr) *Expr {
	if isZeroExpr(a) {
		return b
	}
	if isZeroExpr(b) {
		return a
	}
	result := &Expr{Left: a.Left, Rest: append(append([]*AddOp{}, a.Rest...), &AddOp{Op: "+", Right: &MulExpr{Left: &UnaryExpr{Atom: &Atom{Sub: b}}}})}
	return result
}

func subExpr(a, b *Expr) *Expr {
	if isZeroExpr(b) {
		return a
	}
	return &Expr{Left: a.Left, Rest: append(append([]*AddOp{}, a.Rest...), &AddOp{Op: "-", Right: &MulExpr{Left: &UnaryExpr{Atom: &Atom{Sub: b}}}})}
}

func mulExpr(a, b *Expr) *Expr {
	if isOneExpr(a) {
		return b
	}
	if isOneExpr(b) {
		return a
	}
	return &Expr{Left: &MulExpr{
		Left: &UnaryExpr{Atom: &Atom{Sub: a}},
		Rest: []*MulOp{{Op: "*", Right: &UnaryExpr{Atom: &Atom{Sub: b}}}},
	}}
}

func isZeroExpr(e *Expr) bool {
	return len(e.Rest) == 0 && len(e.Left.Rest) == 0 && !e.Left.Left.Negate &&
		e.Left.Left.Atom.Number != nil && *e.Left.Left.Atom.Number == "0"
}

func isOneExpr(e *Expr) bool {
	return len(e.Rest) == 0 && len(e.Left.Rest) == 0 && !e.Left.Left.Negate &&
		e.Left.Left.Atom.Number != nil && *e.Left.Left.Atom.Number == "1"
}

func zeroExpr() *Expr { return numberExpr("0") }
func oneExpr() *Expr  { return numberExpr("1") }

// substExprVars rewrites every free variable reference in e according to
// sub, leaving unmapped variables and all other node shapes unchanged.
func substExprVars(e *Expr, sub map[string]*Expr) *Expr {
	if e == nil {
		return nil
	}
	return &Expr{Left: substMulExpr(e.Left, sub), Rest: substAddOps(e.Rest, sub)}
}

func substAddOps(ops []*AddOp, sub map[string]*Expr) []*AddOp {
	if ops == nil {
		return nil
	}
	out := make([]*AddOp, len(ops))
	for i, op := range ops {
		out[i] = &AddOp{Op: op.Op, Right: substMulExpr(op.Right, sub)}
	}
	return out
}

func substMulExpr(m *MulExpr, sub map[string]*Expr) *MulExpr {
	return &MulExpr{Left: substUnaryExpr(m.Left, sub), Rest: substMulOps(m.Rest, sub)}
}

func substMulOps(ops []*MulOp, sub map[string]*Expr) []*MulOp {
	if ops == nil {
		return nil
	}
	out := make([]*MulOp, len(ops))
	for i, op := range ops {
		out[i] = &MulOp{Op: op.Op, Right: substUnaryExpr(op.Right, sub)}
	}
	return out
}

func substUnaryExpr(u *UnaryExpr, sub map[string]*Expr) *UnaryExpr {
	return &UnaryExpr{Negate: u.Negate, Atom: substAtom(u.Atom, sub)}
}

func substAtom(a *Atom, sub map[string]*Expr) *Atom {
	switch {
	case a.Infinity:
		return a
	case a.Number != nil:
		return a
	case a.Iverson != nil:
		return &Atom{Iverson: substBoolVars(a.Iverson, sub)}
	case a.Ident != nil:
		if repl, ok := sub[*a.Ident]; ok {
			// Inline the replacement expression as a parenthesized
			// sub-expression so precedence is preserved.
			return &Atom{Sub: repl}
		}
		return a
	case a.Sub != nil:
		return &Atom{Sub: substExprVars(a.Sub, sub)}
	default:
		return a
	}
}

// substBoolVars rewrites every free variable reference occurring inside
// comparisons of b according to sub.
func substBoolVars(b *BoolExpr, sub map[string]*Expr) *BoolExpr {
	if b == nil {
		return nil
	}
	return &BoolExpr{Left: substAndExpr(b.Left, sub), Rest: substAndExprs(b.Rest, sub)}
}

func substAndExprs(as []*AndExpr, sub map[string]*Expr) []*AndExpr {
	if as == nil {
		return nil
	}
	out := make([]*AndExpr, len(as))
	for i, a := range as {
		out[i] = substAndExpr(a, sub)
	}
	return out
}

func substAndExpr(a *AndExpr, sub map[string]*Expr) *AndExpr {
	return &AndExpr{Left: substNotExpr(a.Left, sub), Rest: substNotExprs(a.Rest, sub)}
}

func substNotExprs(ns []*NotExpr, sub map[string]*Expr) []*NotExpr {
	if ns == nil {
		return nil
	}
	out := make([]*NotExpr, len(ns))
	for i, n := range ns {
		out[i] = substNotExpr(n, sub)
	}
	return out
}

func substNotExpr(n *NotExpr, sub map[string]*Expr) *NotExpr {
	return &NotExpr{Negate: n.Negate, Atom: substBoolAtom(n.Atom, sub)}
}

func substBoolAtom(a *BoolAtom, sub map[string]*Expr) *BoolAtom {
	switch {
	case a.True, a.False:
		return a
	case a.Paren != nil:
		return &BoolAtom{Paren: substBoolVars(a.Paren, sub)}
	case a.Compare != nil:
		return &BoolAtom{Compare: &Comparison{
			Left:  substExprVars(a.Compare.Left, sub),
			Op:    a.Compare.Op,
			Right: substExprVars(a.Compare.Right, sub),
		}}
	default:
		return a
	}
}

// composeSubst returns the substitution equivalent to applying first then
// second: for every variable, second's replacement expression is itself
// rewritten under first, since second's right-hand sides are expressed in
// terms of the state after first has already run.
func composeSubst(first, second map[string]*Expr) map[string]*Expr {
	out := make(map[string]*Expr, len(first))
	for v, e := range first {
		out[v] = e
	}
	for v, e := range second {
		out[v] = substExprVars(e, first)
	}
	return out
}

func identitySubst(vars []string) map[string]*Expr {
	out := make(map[string]*Expr, len(vars))
	for _, v := range vars {
		out[v] = identVar(v)
	}
	return out
}

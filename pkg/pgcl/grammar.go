package pgcl

// Program is a declaration list followed by exactly one top-level loop
// with a loop-free body (spec.md #9, "general_wp_transformer branch" is
// rejected rather than parsed — this grammar has no production for a
// second loop or for statements outside the loop).
type Program struct {
	Decls []*VarDecl `@@*`
	Loop  *WhileStmt `@@`
}

// VarDecl declares one nat-typed program variable. The grammar has no
// production for any other declared type, so a bool or float declaration
// is a parse error.
type VarDecl struct {
	Name string `"nat" @Ident ";"`
}

// WhileStmt is the program's single loop.
type WhileStmt struct {
	Guard *BoolExpr `"while" "(" @@ ")"`
	Body  *Block    `"{" @@ "}"`
}

// Block is a `;`-separated statement sequence.
type Block struct {
	Stmts []*Stmt `@@ { ";" @@ }`
}

// Stmt is one loop-free statement. Alternatives are distinguished by their
// leading token (keyword, `{`, or identifier), so a single token of
// lookahead suffices.
type Stmt struct {
	Skip    *SkipStmt    `  @@`
	Tick    *TickStmt    `| @@`
	If      *IfStmt      `| @@`
	PChoice *PChoiceStmt `| @@`
	Assign  *AssignStmt  `| @@`
}

// SkipStmt is the no-op statement.
type SkipStmt struct {
	Present bool `@"skip"`
}

// TickStmt accrues runtime cost in ert mode. The grammar accepts any
// arithmetic expression as the argument, and the parse/transform/snf path
// does not check that it is a literal: pkg/snf lowers the composed tick
// with bridge.LowerExpr, and bridge.LowerTickLiteral (which rejects
// non-literals) is not called on that path.
type TickStmt struct {
	Expr *Expr `"tick" "(" @@ ")"`
}

// AssignStmt updates one variable.
type AssignStmt struct {
	Var  string `@Ident ":="`
	Expr *Expr  `@@`
}

// IfStmt is a deterministic two-armed conditional. Both arms are required
// (the source always parenthesizes both branches of if/pif).
type IfStmt struct {
	Guard *BoolExpr `"if" "(" @@ ")"`
	Then  *Block    `"{" @@ "}"`
	Else  *Block    `"{" @@ "}"`
}

// PChoiceStmt is probabilistic choice `{left}[p]{right}`, taking the left
// branch with probability p and the right branch with probability 1-p.
type PChoiceStmt struct {
	Left  *Block `"{" @@ "}"`
	Prob  *Expr  `"[" @@ "]"`
	Right *Block `"{" @@ "}"`
}

// BoolExpr is the top of the Boolean-expression grammar (disjunction).
type BoolExpr struct {
	Left *AndExpr  `@@`
	Rest []*AndExpr `{ "|" @@ }`
}

// AndExpr is a conjunction of NotExprs.
type AndExpr struct {
	Left *NotExpr `@@`
	Rest []*NotExpr `{ "&" @@ }`
}

// NotExpr is an optionally-negated Boolean atom.
type NotExpr struct {
	Negate bool      `[ @"not" ]`
	Atom   *BoolAtom `@@`
}

// BoolAtom is a Boolean literal, a parenthesized Boolean expression, or an
// arithmetic comparison.
type BoolAtom struct {
	True    bool        `(  @"True"`
	False   bool        ` | @"False"`
	Paren   *BoolExpr   ` | "(" @@ ")"`
	Compare *Comparison ` | @@ )`
}

// Comparison relates two arithmetic expressions.
type Comparison struct {
	Left  *Expr  `@@`
	Op    string `@CmpOp`
	Right *Expr  `@@`
}

// Expr is the top of the arithmetic-expression grammar (sum of products).
type Expr struct {
	Left *MulExpr  `@@`
	Rest []*AddOp  `{ @@ }`
}

// AddOp is one `+`/`-` continuation of a sum.
type AddOp struct {
	Op    string   `@("+" | "-")`
	Right *MulExpr `@@`
}

// MulExpr is a product/quotient of unary expressions.
type MulExpr struct {
	Left *UnaryExpr `@@`
	Rest []*MulOp   `{ @@ }`
}

// MulOp is one `*`/`/` continuation of a product.
type MulOp struct {
	Op    string     `@("*" | "/")`
	Right *UnaryExpr `@@`
}

// UnaryExpr is an optionally sign-negated atom.
type UnaryExpr struct {
	Negate bool  `[ @"-" ]`
	Atom   *Atom `@@`
}

// Atom is a leaf of the arithmetic grammar: the infinity literal, a numeric
// literal, an Iverson bracket lifting a Boolean expression to {0,1}, a
// variable reference, or a parenthesized sub-expression.
type Atom struct {
	Infinity bool      `(  @Infty`
	Number   *string   ` | @Number`
	Iverson  *BoolExpr ` | "[" @@ "]"`
	Ident    *string   ` | @Ident`
	Sub      *Expr     ` | "(" @@ ")" )`
}

package pgcl

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// pgclLexer tokenizes the probabilistic guarded-command surface syntax
// (spec.md #6, "pGCL expression surface"): declarations, assignment,
// probabilistic choice, conditionals, tick costs, and Boolean/arithmetic
// expressions with Iverson brackets and the `\infty` literal. Built the way
// the teacher builds its stateful lexer (a flat rule list matched in
// declaration order, longest operators first).
var pgclLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `#[^\n]*`, nil},
		{"Infty", `\\infty`, nil},
		{"Number", `[0-9]+(\.[0-9]+)?`, nil},
		{"Ident", `[a-zA-Z_][a-zA-Z0-9_]*`, nil},
		{"Assign", `:=`, nil},
		{"CmpOp", `<=|>=|=|<|>`, nil},
		{"Punct", `[-+*/(){}\[\];,&|]`, nil},
		{"Whitespace", `[ \t\r\n]+`, nil},
	},
})

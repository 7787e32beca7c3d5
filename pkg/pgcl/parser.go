// Package pgcl implements the probabilistic guarded-command language
// surface syntax and its one-big-loop weakest-preexpectation/expected-
// runtime transformer (spec.md #4.2, "delegate to the external
// wp-transformer"). The pack carries no Go port of the `probably` library,
// so the parser and transformer are both implemented here, grounded on
// `original_source/kipro2/characteristic_functional.py` and
// `original_source/kipro2/utils/probably.py` for the transformer's
// algebra and on the teacher's participle-based grammar/lexer style
// (`kanso-lang-kanso/grammar`) for the concrete syntax.
package pgcl

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/pkg/errors"
)

var (
	programParser = participle.MustBuild[Program](
		participle.Lexer(pgclLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
	exprParser = participle.MustBuild[Expr](
		participle.Lexer(pgclLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(2),
	)
)

// ParseProgram parses a full pGCL program (declarations + one top-level
// loop). Syntax errors are wrapped so callers can classify them as
// InputReject (spec.md #7).
func ParseProgram(src string) (*Program, error) {
	prog, err := programParser.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(err, "pgcl: parse error")
	}
	return prog, nil
}

// ParseExpr parses a standalone expectation or upper-bound expression, as
// accepted for the CLI's `--post`/`--pre` arguments.
func ParseExpr(src string) (*Expr, error) {
	expr, err := exprParser.ParseString("", src)
	if err != nil {
		return nil, errors.Wrap(err, "pgcl: parse error")
	}
	return expr, nil
}

// VarNames returns the program's declared variables in declaration order.
func (p *Program) VarNames() []string {
	names := make([]string, len(p.Decls))
	for i, d := range p.Decls {
		names[i] = d.Name
	}
	return names
}

// String renders a placeholder naming the number of declared variables,
// for diagnostics; it does not print the guard or the body.
func (p *Program) String() string {
	return fmt.Sprintf("while(%d vars) { ... }", len(p.Decls))
}

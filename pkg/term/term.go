// Package term implements the typed SMT term representation the kipro2
// core builds and rewrites: Booleans, non-negative integers, reals
// (including the unconstrained "infinity" symbol), and uninterpreted
// function applications.
//
// Terms are content-addressed: two structurally identical terms produce
// the same canonical string key, so formula collections can be plain
// string-keyed sets without relying on pointer identity or a global
// hash-consing table (see DESIGN.md, "Dynamic hashable SMT terms").
package term

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Sort is the theory sort of a term: Bool, Int, or Real.
type Sort int

const (
	SortBool Sort = iota
	SortInt
	SortReal
)

func (s Sort) String() string {
	switch s {
	case SortBool:
		return "Bool"
	case SortInt:
		return "Int"
	case SortReal:
		return "Real"
	default:
		return "?"
	}
}

type kind int

const (
	kBoolConst kind = iota
	kIntConst
	kRealConst
	kInfinity
	kVar
	kApp
	kNot
	kAnd
	kOr
	kImplies
	kEq
	kLt
	kLe
	kGt
	kGe
	kIte
	kAdd
	kMul
	kSub
	kDiv
	kToReal
)

// Term is a node in the SMT formula/expression DAG. Values are immutable;
// constructors allocate a fresh node, and structurally identical terms are
// identified by their canonical String() key.
type Term struct {
	kind kind
	sort Sort

	boolVal  bool
	intVal   int64
	realVal  float64
	name     string // Var/FuncSymbol name
	domain   []Sort // argument sorts, for Var used as a function symbol
	args     []*Term
	funcName string // head symbol name for App
	appDom   []Sort // argument sorts of the applied function, for App
}

// FuncSymbol names an uninterpreted function of the given domain/range
// sorts. The zero-ary case (domain == nil) is an ordinary variable.
type FuncSymbol struct {
	Name   string
	Domain []Sort
	Range  Sort
}

// Bool builds a Boolean constant.
func Bool(v bool) *Term { return &Term{kind: kBoolConst, sort: SortBool, boolVal: v} }

// Int builds an integer constant.
func Int(v int64) *Term { return &Term{kind: kIntConst, sort: SortInt, intVal: v} }

// Real builds a real constant.
func Real(v float64) *Term { return &Term{kind: kRealConst, sort: SortReal, realVal: v} }

// Infinity returns the dedicated, unconstrained real-valued "infinity"
// symbol (spec.md #3). It may only ever appear as a whole summand — callers
// composing arithmetic must reject it first (see pkg/bridge).
func Infinity() *Term { return &Term{kind: kInfinity, sort: SortReal, name: "infinity"} }

// IsInfinity reports whether t is the infinity symbol.
func (t *Term) IsInfinity() bool { return t.kind == kInfinity }

// Var builds a zero-ary program variable of sort s. Function symbols
// (P_i/K_i/Monus/RMonus) are built with Func.
func Var(name string, s Sort) *Term {
	return &Term{kind: kVar, sort: s, name: name}
}

// Func builds an uninterpreted function symbol term. It is not itself a
// well-sorted term (it has no Sort independent of application) but is used
// as the head of App.
func Func(fs FuncSymbol) *Term {
	return &Term{kind: kVar, sort: fs.Range, name: fs.Name, domain: fs.Domain}
}

// App applies a function symbol (built with Func) to arguments.
func App(fn *Term, args ...*Term) *Term {
	if fn.kind != kVar || fn.domain == nil {
		panic("term.App: fn must be a Func-typed symbol")
	}
	if len(args) != len(fn.domain) {
		panic(fmt.Sprintf("term.App: %s expects %d args, got %d", fn.name, len(fn.domain), len(args)))
	}
	return &Term{kind: kApp, sort: fn.sort, funcName: fn.name, appDom: fn.domain, args: args}
}

// AppDomain returns the argument sorts of an App's head symbol.
func (t *Term) AppDomain() []Sort { return t.appDom }

func bin(k kind, s Sort, l, r *Term) *Term {
	return &Term{kind: k, sort: s, args: []*Term{l, r}}
}

// Not negates a Boolean term.
func Not(x *Term) *Term { return &Term{kind: kNot, sort: SortBool, args: []*Term{x}} }

// And conjoins zero or more Boolean terms (And() == true).
func And(xs ...*Term) *Term {
	if len(xs) == 0 {
		return Bool(true)
	}
	if len(xs) == 1 {
		return xs[0]
	}
	return &Term{kind: kAnd, sort: SortBool, args: xs}
}

// Or disjoins zero or more Boolean terms (Or() == false).
func Or(xs ...*Term) *Term {
	if len(xs) == 0 {
		return Bool(false)
	}
	if len(xs) == 1 {
		return xs[0]
	}
	return &Term{kind: kOr, sort: SortBool, args: xs}
}

// Implies builds l -> r.
func Implies(l, r *Term) *Term { return bin(kImplies, SortBool, l, r) }

// Eq builds l = r.
func Eq(l, r *Term) *Term { return bin(kEq, SortBool, l, r) }

// Lt, Le, Gt, Ge build arithmetic comparisons.
func Lt(l, r *Term) *Term { return bin(kLt, SortBool, l, r) }
func Le(l, r *Term) *Term { return bin(kLe, SortBool, l, r) }
func Gt(l, r *Term) *Term { return bin(kGt, SortBool, l, r) }
func Ge(l, r *Term) *Term { return bin(kGe, SortBool, l, r) }

// Ite builds if c then t else e.
func Ite(c, t, e *Term) *Term {
	return &Term{kind: kIte, sort: t.sort, args: []*Term{c, t, e}}
}

// Add sums zero or more arithmetic terms of the same sort (Add() == Int(0)).
func Add(xs ...*Term) *Term {
	if len(xs) == 0 {
		return Int(0)
	}
	if len(xs) == 1 {
		return xs[0]
	}
	return &Term{kind: kAdd, sort: xs[0].sort, args: xs}
}

// Mul multiplies zero or more arithmetic terms (Mul() == Int(1)).
func Mul(xs ...*Term) *Term {
	if len(xs) == 0 {
		return Int(1)
	}
	if len(xs) == 1 {
		return xs[0]
	}
	return &Term{kind: kMul, sort: xs[0].sort, args: xs}
}

// Sub builds raw (non-truncated) subtraction l - r. Callers that must treat
// "-" as monus (spec.md #4.1) go through pkg/bridge instead, which rewrites
// to an App of the Monus/RMonus uninterpreted function.
func Sub(l, r *Term) *Term { return bin(kSub, l.sort, l, r) }

// Div builds division; spec.md restricts this to constant divisors,
// enforced by pkg/bridge rather than here.
func Div(l, r *Term) *Term { return bin(kDiv, SortReal, l, r) }

// ToReal casts an Int term to Real.
func ToReal(x *Term) *Term {
	if x.sort == SortReal {
		return x
	}
	return &Term{kind: kToReal, sort: SortReal, args: []*Term{x}}
}

// Sort returns the term's theory sort.
func (t *Term) Sort() Sort { return t.sort }

// IsVar reports whether t is a plain (zero-arity) variable symbol.
func (t *Term) IsVar() bool { return t.kind == kVar && t.domain == nil }

// Name returns the symbol name of a Var/Func term.
func (t *Term) Name() string { return t.name }

// Args returns the operands of a compound term (nil for leaves).
func (t *Term) Args() []*Term { return t.args }

// FuncName returns the head symbol name of an App term.
func (t *Term) FuncName() string { return t.funcName }

// IsApp reports whether t is a function application.
func (t *Term) IsApp() bool { return t.kind == kApp }

// IsNot, IsAnd, IsOr, IsImplies and IsEq report a term's top-level shape, so
// callers outside this package (pkg/subst's simplifier) can dispatch on node
// kind without needing access to the unexported kind tag.
func (t *Term) IsNot() bool     { return t.kind == kNot }
func (t *Term) IsAnd() bool     { return t.kind == kAnd }
func (t *Term) IsOr() bool      { return t.kind == kOr }
func (t *Term) IsImplies() bool { return t.kind == kImplies }
func (t *Term) IsEq() bool      { return t.kind == kEq }

// IsLt, IsLe, IsGt, IsGe, IsIte, IsAdd, IsMul, IsSub, IsDiv and IsToReal
// report the remaining top-level node shapes, for the same reason as the
// predicates above: pkg/solver's bounded evaluator needs to dispatch on
// node kind without reaching into the unexported tag.
func (t *Term) IsLt() bool     { return t.kind == kLt }
func (t *Term) IsLe() bool     { return t.kind == kLe }
func (t *Term) IsGt() bool     { return t.kind == kGt }
func (t *Term) IsGe() bool     { return t.kind == kGe }
func (t *Term) IsIte() bool    { return t.kind == kIte }
func (t *Term) IsAddOp() bool  { return t.kind == kAdd }
func (t *Term) IsMulOp() bool  { return t.kind == kMul }
func (t *Term) IsSubOp() bool  { return t.kind == kSub }
func (t *Term) IsDivOp() bool  { return t.kind == kDiv }
func (t *Term) IsToReal() bool { return t.kind == kToReal }

// BoolValue returns the constant's value and true if t is a Boolean constant.
func (t *Term) BoolValue() (bool, bool) {
	if t.kind == kBoolConst {
		return t.boolVal, true
	}
	return false, false
}

// String renders t in a fully parenthesized prefix form. This rendering is
// the term's canonical content-address: two structurally equal terms
// always render identically, so formula sets can be implemented as
// map[string]*Term keyed by String() (see pkg/bmcgen, pkg/kindgen).
func (t *Term) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

// Equal reports structural equality via canonical string rendering.
func (t *Term) Equal(other *Term) bool { return t.String() == other.String() }

func (t *Term) write(b *strings.Builder) {
	switch t.kind {
	case kBoolConst:
		b.WriteString(strconv.FormatBool(t.boolVal))
	case kIntConst:
		b.WriteString(strconv.FormatInt(t.intVal, 10))
	case kRealConst:
		b.WriteString(strconv.FormatFloat(t.realVal, 'g', -1, 64))
	case kInfinity:
		b.WriteString("infinity")
	case kVar:
		b.WriteString(t.name)
	case kApp:
		b.WriteString(t.funcName)
		b.WriteByte('(')
		for i, a := range t.args {
			if i > 0 {
				b.WriteByte(',')
			}
			a.write(b)
		}
		b.WriteByte(')')
	case kNot:
		b.WriteString("not(")
		t.args[0].write(b)
		b.WriteByte(')')
	case kAnd:
		writeNary(b, "and", t.args)
	case kOr:
		writeNary(b, "or", t.args)
	case kImplies:
		writeBin(b, "=>", t.args)
	case kEq:
		writeBin(b, "=", t.args)
	case kLt:
		writeBin(b, "<", t.args)
	case kLe:
		writeBin(b, "<=", t.args)
	case kGt:
		writeBin(b, ">", t.args)
	case kGe:
		writeBin(b, ">=", t.args)
	case kIte:
		b.WriteString("ite(")
		t.args[0].write(b)
		b.WriteByte(',')
		t.args[1].write(b)
		b.WriteByte(',')
		t.args[2].write(b)
		b.WriteByte(')')
	case kAdd:
		writeNary(b, "+", t.args)
	case kMul:
		writeNary(b, "*", t.args)
	case kSub:
		writeBin(b, "-", t.args)
	case kDiv:
		writeBin(b, "/", t.args)
	case kToReal:
		b.WriteString("toreal(")
		t.args[0].write(b)
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}

func writeNary(b *strings.Builder, op string, args []*Term) {
	b.WriteByte('(')
	for i, a := range args {
		if i > 0 {
			b.WriteString(" " + op + " ")
		}
		a.write(b)
	}
	b.WriteByte(')')
}

func writeBin(b *strings.Builder, op string, args []*Term) {
	b.WriteByte('(')
	args[0].write(b)
	b.WriteString(" " + op + " ")
	args[1].write(b)
	b.WriteByte(')')
}

// Rebuild reconstructs a compound term of the same kind with new operands,
// used by pkg/subst to rewrite non-leaf, non-application nodes bottom-up
// without the caller needing to know the node's internal shape.
func (t *Term) Rebuild(args []*Term) *Term {
	switch t.kind {
	case kNot:
		return Not(args[0])
	case kAnd:
		return And(args...)
	case kOr:
		return Or(args...)
	case kImplies:
		return Implies(args[0], args[1])
	case kEq:
		return Eq(args[0], args[1])
	case kLt:
		return Lt(args[0], args[1])
	case kLe:
		return Le(args[0], args[1])
	case kGt:
		return Gt(args[0], args[1])
	case kGe:
		return Ge(args[0], args[1])
	case kIte:
		return Ite(args[0], args[1], args[2])
	case kAdd:
		return Add(args...)
	case kMul:
		return Mul(args...)
	case kSub:
		return Sub(args[0], args[1])
	case kDiv:
		return Div(args[0], args[1])
	case kToReal:
		return ToReal(args[0])
	default:
		return t
	}
}

// Set is a content-addressed, deduplicated collection of formulae — the
// Go analogue of the Python source's `set()` of pysmt formulae, keyed by
// Term.String() instead of relying on pysmt's hashable-formula objects.
type Set struct {
	byKey map[string]*Term
}

// NewSet builds an empty formula set, optionally pre-populated.
func NewSet(xs ...*Term) *Set {
	s := &Set{byKey: make(map[string]*Term, len(xs))}
	for _, x := range xs {
		s.Add(x)
	}
	return s
}

// Add inserts x, deduplicating by canonical string form.
func (s *Set) Add(x *Term) { s.byKey[x.String()] = x }

// Union adds every element of other into s.
func (s *Set) Union(other *Set) {
	for k, v := range other.byKey {
		s.byKey[k] = v
	}
}

// Slice returns the set's elements in a deterministic (sorted-by-key) order,
// so formula assertion order is stable across runs.
func (s *Set) Slice() []*Term {
	keys := make([]string, 0, len(s.byKey))
	for k := range s.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*Term, len(keys))
	for i, k := range keys {
		out[i] = s.byKey[k]
	}
	return out
}

// Len returns the number of distinct formulae in the set.
func (s *Set) Len() int { return len(s.byKey) }

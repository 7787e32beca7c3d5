package solver

import (
	"math"

	"github.com/moves-rwth/kipro2/pkg/term"
)

// evalNum evaluates an arithmetic (Int/Real) term under env, which maps
// atom keys (variable names or App canonical strings) to their assigned
// value. Constant leaves need no env and tolerate a nil map.
func evalNum(t *term.Term, env Model) float64 {
	if t.IsInfinity() {
		return math.Inf(1)
	}
	if t.IsVar() {
		return env[t.Name()]
	}
	if t.IsApp() {
		return env[t.String()]
	}
	if b, ok := t.BoolValue(); ok {
		if b {
			return 1
		}
		return 0
	}
	args := t.Args()
	if len(args) == 0 {
		return leafNumber(t)
	}
	return evalCompound(t, args, env)
}

// leafNumber parses the numeric value out of a constant leaf's canonical
// string form, since pkg/term does not expose raw Int/Real accessors.
func leafNumber(t *term.Term) float64 {
	s := t.String()
	var v float64
	var neg bool
	i := 0
	if len(s) > 0 && s[0] == '-' {
		neg = true
		i = 1
	}
	intPart := 0.0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		intPart = intPart*10 + float64(s[i]-'0')
	}
	v = intPart
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0.0
		scale := 1.0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			frac = frac*10 + float64(s[i]-'0')
			scale *= 10
		}
		v += frac / scale
	}
	if neg {
		v = -v
	}
	return v
}

func evalCompound(t *term.Term, args []*term.Term, env Model) float64 {
	switch {
	case t.IsEq(), t.IsLe(), t.IsGe(), t.IsLt(), t.IsGt(),
		t.IsNot(), t.IsAnd(), t.IsOr(), t.IsImplies():
		if evalBool(t, env) {
			return 1
		}
		return 0
	case t.IsIte():
		if evalBool(args[0], env) {
			return evalNum(args[1], env)
		}
		return evalNum(args[2], env)
	case t.IsToReal():
		return evalNum(args[0], env)
	case t.IsAddOp(), t.IsMulOp(), t.IsSubOp(), t.IsDivOp():
		return evalNary(t, args, env)
	default:
		// Uninterpreted-function application: look it up by its canonical
		// key, same as an App leaf (evalNum handles the common case, but a
		// nested App can reach here through Rebuild'd subterms).
		return env[t.String()]
	}
}

func evalNary(t *term.Term, args []*term.Term, env Model) float64 {
	vals := make([]float64, len(args))
	for i, a := range args {
		vals[i] = evalNum(a, env)
	}
	switch {
	case t.IsAddOp():
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		return sum
	case t.IsMulOp():
		prod := 1.0
		for _, v := range vals {
			prod *= v
		}
		return prod
	case t.IsSubOp():
		return vals[0] - vals[1]
	case t.IsDivOp():
		if vals[1] == 0 {
			return math.Inf(1)
		}
		return vals[0] / vals[1]
	default:
		return 0
	}
}

// evalBool evaluates a Boolean term under env.
func evalBool(t *term.Term, env Model) bool {
	if b, ok := t.BoolValue(); ok {
		return b
	}
	args := t.Args()
	switch {
	case t.IsNot():
		return !evalBool(args[0], env)
	case t.IsAnd():
		for _, a := range args {
			if !evalBool(a, env) {
				return false
			}
		}
		return true
	case t.IsOr():
		for _, a := range args {
			if evalBool(a, env) {
				return true
			}
		}
		return false
	case t.IsImplies():
		return !evalBool(args[0], env) || evalBool(args[1], env)
	case t.IsEq():
		return evalNum(args[0], env) == evalNum(args[1], env)
	case t.IsIte():
		if evalBool(args[0], env) {
			return evalBool(args[1], env)
		}
		return evalBool(args[2], env)
	}
	switch kindOf(t) {
	case "le":
		return evalNum(args[0], env) <= evalNum(args[1], env)
	case "ge":
		return evalNum(args[0], env) >= evalNum(args[1], env)
	case "lt":
		return evalNum(args[0], env) < evalNum(args[1], env)
	case "gt":
		return evalNum(args[0], env) > evalNum(args[1], env)
	}
	if t.IsApp() {
		return env[t.String()] != 0
	}
	if t.IsVar() {
		return env[t.Name()] != 0
	}
	return false
}

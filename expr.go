// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// ExprKind tags the shape of an Expr node. Kconfig expressions are small and
// fixed-shape enough that a tagged struct (mirroring MenuNode's own tagged
// item) reads more plainly than an interface hierarchy with one
// implementation per operator.
type ExprKind int

const (
	ExprConst ExprKind = iota
	ExprSymbol
	ExprChoice
	ExprLiteral
	ExprNot
	ExprAnd
	ExprOr
	ExprCmp
)

// CmpOp is a comparison operator usable inside a Kconfig expression.
type CmpOp int

const (
	CmpEqual CmpOp = iota
	CmpNotEqual
	CmpLess
	CmpLessEqual
	CmpGreater
	CmpGreaterEqual
)

func (op CmpOp) String() string {
	switch op {
	case CmpEqual:
		return "="
	case CmpNotEqual:
		return "!="
	case CmpLess:
		return "<"
	case CmpLessEqual:
		return "<="
	case CmpGreater:
		return ">"
	case CmpGreaterEqual:
		return ">="
	default:
		return "?"
	}
}

// Expr is a node in a Kconfig dependency expression tree. Sub-expressions
// are plain tree children; equality is by structure, not by identity, so
// no interning is implemented.
type Expr struct {
	Kind   ExprKind
	Const  Tristate // valid when Kind == ExprConst
	Sym    *Symbol  // valid when Kind == ExprSymbol
	Choice *Choice  // valid when Kind == ExprChoice
	Lit    string    // valid when Kind == ExprLiteral: a quoted string or bare numeral
	Op     CmpOp    // valid when Kind == ExprCmp
	X, Y   *Expr    // operands: X for Not/Cmp-lhs, Y for And/Or-rhs/Cmp-rhs
}

// NewConst builds a constant y/m/n expression.
func NewConst(t Tristate) *Expr { return &Expr{Kind: ExprConst, Const: t} }

// NewSymbolExpr builds a leaf expression referencing a Symbol.
func NewSymbolExpr(s *Symbol) *Expr { return &Expr{Kind: ExprSymbol, Sym: s} }

// NewChoiceExpr builds a leaf expression referencing a Choice.
func NewChoiceExpr(c *Choice) *Expr { return &Expr{Kind: ExprChoice, Choice: c} }

// NewLiteral builds a literal constant operand: a quoted string or a bare
// numeral appearing in a default value or comparison. A comparison's
// operands don't have to be declared Symbols, and nothing ever selects or
// imply-targets a literal, so representing it without allocating a
// placeholder Symbol in the instance's symbol table keeps the table
// limited to names that were actually declared or referenced as symbols.
func NewLiteral(text string) *Expr { return &Expr{Kind: ExprLiteral, Lit: text} }

// Not builds NOT e. A nil operand is treated as the constant y (Not(nil) is
// never built by the parser, but callers composing expressions
// programmatically should avoid nil operands).
func Not(e *Expr) *Expr {
	if e == nil {
		return NewConst(No)
	}
	return &Expr{Kind: ExprNot, X: e}
}

// And builds a AND b, short-circuiting through nil operands (a nil operand
// stands for "no condition", i.e. the constant y) so that callers can chain
// And(nil, cond) the way the menu finalizer repeatedly does while
// propagating if-stacks down the tree.
func And(a, b *Expr) *Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return &Expr{Kind: ExprAnd, X: a, Y: b}
	}
}

// Or builds a OR b, returning the other operand when one is nil and nil only
// when both are. OR is used to accumulate rev_dep/weak_rev_dep, where
// "nothing selects this yet" stays nil until the first contribution rather
// than collapsing to the constant y; a nil operand therefore acts as n here,
// not as the y that Expr.Value reads a nil expression as.
func Or(a, b *Expr) *Expr {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		return &Expr{Kind: ExprOr, X: a, Y: b}
	}
}

// Cmp builds a comparison expression lhs OP rhs.
func Cmp(op CmpOp, lhs, rhs *Expr) *Expr {
	return &Expr{Kind: ExprCmp, Op: op, X: lhs, Y: rhs}
}

// Value evaluates the expression under the current tristate value of its
// referenced Symbols/Choices.
func (e *Expr) Value() Tristate {
	if e == nil {
		return Yes
	}

	switch e.Kind {
	case ExprConst:
		return e.Const

	case ExprSymbol:
		return symbolLeafValue(e.Sym)

	case ExprChoice:
		return e.Choice.TriValue()

	case ExprLiteral:
		if e.Lit != "" {
			return Yes
		}
		return No

	case ExprNot:
		return TristateNot(e.X.Value())

	case ExprAnd:
		return TristateAnd(e.X.Value(), e.Y.Value())

	case ExprOr:
		return TristateOr(e.X.Value(), e.Y.Value())

	case ExprCmp:
		return evalCmp(e.Op, e.X, e.Y)

	default:
		return No
	}
}

// symbolLeafValue implements the special case where a non-bool/tristate
// Symbol used as a leaf evaluates to y iff its string value is non-empty.
func symbolLeafValue(s *Symbol) Tristate {
	if s == nil {
		return No
	}
	switch s.Type() {
	case TypeBool, TypeTristate, TypeUnknown:
		return s.TriValue()
	default:
		if s.StrValue() != "" {
			return Yes
		}
		return No
	}
}

func evalCmp(op CmpOp, lhs, rhs *Expr) Tristate {
	holds := compareExprs(op, lhs, rhs)
	if holds {
		return Yes
	}
	return No
}

// compareExprs implements the comparison rules: numeric base-10 for two
// INT operands, numeric base-16 for two HEX operands (accepting an
// optional "0x" prefix), else lexicographic string comparison.
func compareExprs(op CmpOp, lhs, rhs *Expr) bool {
	lt, lv := exprCompareOperand(lhs)
	rt, rv := exprCompareOperand(rhs)

	if lt == TypeInt && rt == TypeInt {
		li, lerr := strconv.ParseInt(lv, 10, 64)
		ri, rerr := strconv.ParseInt(rv, 10, 64)
		if lerr == nil && rerr == nil {
			return compareOrdered(op, li, ri)
		}
	}

	if lt == TypeHex && rt == TypeHex {
		li, lerr := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(lv), "0x"), 16, 64)
		ri, rerr := strconv.ParseInt(strings.TrimPrefix(strings.ToLower(rv), "0x"), 16, 64)
		if lerr == nil && rerr == nil {
			return compareOrdered(op, li, ri)
		}
	}

	return compareOrdered(op, lv, rv)
}

func compareOrdered[T int64 | string](op CmpOp, a, b T) bool {
	switch op {
	case CmpEqual:
		return a == b
	case CmpNotEqual:
		return a != b
	case CmpLess:
		return a < b
	case CmpLessEqual:
		return a <= b
	case CmpGreater:
		return a > b
	case CmpGreaterEqual:
		return a >= b
	default:
		return false
	}
}

// exprCompareOperand extracts the SymbolType (for numeric-base selection)
// and string form of a comparison operand. Non-symbol operands (constants)
// compare as strings.
func exprCompareOperand(e *Expr) (SymbolType, string) {
	if e == nil {
		return TypeUnknown, ""
	}
	switch e.Kind {
	case ExprSymbol:
		return e.Sym.Type(), e.Sym.StrValue()
	case ExprConst:
		return TypeUnknown, e.Const.String()
	case ExprLiteral:
		return literalType(e.Lit), e.Lit
	default:
		return TypeUnknown, ExprString(e)
	}
}

// literalType infers how a bare literal operand should be compared: as an
// INT if it's a (possibly negative) run of digits, as a HEX if it carries a
// "0x"/"0X" prefix, else as an opaque string.
func literalType(lit string) SymbolType {
	if lit == "" {
		return TypeUnknown
	}
	s := lit
	if strings.HasPrefix(strings.ToLower(s), "0x") {
		return TypeHex
	}
	start := 0
	if s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return TypeUnknown
	}
	for i := start; i < len(s); i++ {
		if !isDigit(s[i]) {
			return TypeUnknown
		}
	}
	return TypeInt
}

// DependsOn reports whether sym is referenced anywhere in e (a Choice leaf
// counts as referencing each of its members). The position of the
// reference is not examined: sym under a NOT or inside one arm of an OR
// still counts. Used by the menu finalizer's implicit-submenu pass.
func (e *Expr) DependsOn(sym *Symbol) bool {
	if e == nil || sym == nil {
		return false
	}
	seen := map[*Symbol]bool{}
	e.collectSymbols(seen)
	return seen[sym]
}

// collectSymbols walks e and records every Symbol referenced by a leaf,
// generalizing the teacher's expr.collectDeps(map[string]bool) (referenced
// from kconfig/kconfig.go's KConfigMenu.DependsOn) to operate over Symbol
// pointers instead of name strings.
func (e *Expr) collectSymbols(set map[*Symbol]bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ExprSymbol:
		if e.Sym != nil {
			set[e.Sym] = true
		}
	case ExprChoice:
		if e.Choice != nil {
			for _, s := range e.Choice.Syms() {
				set[s] = true
			}
		}
	case ExprLiteral:
		// literals reference nothing
	case ExprNot:
		e.X.collectSymbols(set)
	case ExprAnd, ExprOr:
		e.X.collectSymbols(set)
		e.Y.collectSymbols(set)
	case ExprCmp:
		e.X.collectSymbols(set)
		e.Y.collectSymbols(set)
	}
}

// ExprValue is the free-function form of Expr.Value.
func ExprValue(e *Expr) Tristate { return e.Value() }

// ExprString is the free-function form of Expr.String.
func ExprString(e *Expr) string { return e.String() }

// precedence levels, low to high: OR < AND < (NOT, comparison, leaf).
func (k ExprKind) precedence() int {
	switch k {
	case ExprOr:
		return 1
	case ExprAnd:
		return 2
	case ExprNot, ExprCmp:
		return 3
	default:
		return 4
	}
}

// String renders e with C-style precedence, emitting
// parentheses only where needed to preserve meaning.
func (e *Expr) String() string {
	return e.stringAtPrec(0)
}

func (e *Expr) stringAtPrec(minPrec int) string {
	if e == nil {
		return "y"
	}

	var s string
	switch e.Kind {
	case ExprConst:
		s = e.Const.String()

	case ExprSymbol:
		s = e.Sym.Name()

	case ExprChoice:
		s = "<choice>"

	case ExprLiteral:
		s = quoteIfNeeded(e.Lit)

	case ExprNot:
		s = "!" + e.X.stringAtPrec(e.Kind.precedence())

	case ExprAnd:
		s = e.X.stringAtPrec(e.Kind.precedence()) + " && " + e.Y.stringAtPrec(e.Kind.precedence()+1)

	case ExprOr:
		s = e.X.stringAtPrec(e.Kind.precedence()) + " || " + e.Y.stringAtPrec(e.Kind.precedence()+1)

	case ExprCmp:
		s = fmt.Sprintf("%s %s %s", e.X.stringAtPrec(e.Kind.precedence()), e.Op, e.Y.stringAtPrec(e.Kind.precedence()))

	default:
		s = "?"
	}

	if e.Kind.precedence() < minPrec {
		return "(" + s + ")"
	}
	return s
}

// quoteIfNeeded renders a literal the way it would need to appear if
// re-parsed as Kconfig input: quoted unless it's a bare numeral.
func quoteIfNeeded(lit string) string {
	if literalType(lit) != TypeUnknown {
		return lit
	}
	return strconv.Quote(lit)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

// SymbolType is the declared type of a Symbol.
type SymbolType int

const (
	TypeUnknown SymbolType = iota
	TypeBool
	TypeTristate
	TypeString
	TypeInt
	TypeHex
)

func (t SymbolType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeTristate:
		return "tristate"
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeHex:
		return "hex"
	default:
		return "unknown"
	}
}

// Prompt is the prompt(text, cond) property from
type Prompt struct {
	Text string
	Cond *Expr
}

// Default is the default(value_expr, cond) property.
type Default struct {
	Value *Expr
	Cond  *Expr
}

// Select is shared shape for both select(target, cond) and
// imply(target, cond) properties.
type Select struct {
	Target *Symbol
	Cond   *Expr
}

// Range is the range(lo, hi, cond) property, used by INT/HEX symbols.
type Range struct {
	Lo, Hi *Expr
	Cond   *Expr
}

// Symbol is a named configuration entity with a type and a value.
// Symbols are interned by name within a *Kconfig instance and referenced
// by pointer from Expressions and MenuNodes — there is exactly one
// *Symbol per name per instance.
type Symbol struct {
	kconfig *Kconfig

	name string
	typ  SymbolType

	prompts  []Prompt
	defaults []Default
	selects  []Select
	implies  []Select
	ranges   []Range

	envVar          string // option env="NAME"
	isDefconfigList bool   // option defconfig_list
	isModulesSym    bool   // option modules
	isAllnoconfigY  bool   // option allnoconfig_y

	directDep  *Expr
	revDep     *Expr
	weakRevDep *Expr

	nodes  []*MenuNode
	choice *Choice // non-nil if this Symbol is a Choice member

	// user-assigned state
	userValSet bool
	userVal    Tristate // meaningful for BOOL/TRISTATE
	userStr    string   // meaningful for STRING/INT/HEX

	// lazily computed, cache invalidated via the dependency index in eval.go
	dirty     bool
	cachedTri Tristate
	cachedStr string

	// sync_deps bookkeeping (component G)
	lastSyncedDefine string

	rdeps []*Symbol // inverted dependency index, built once at finalization
}

func newSymbol(k *Kconfig, name string) *Symbol {
	return &Symbol{
		kconfig: k,
		name:    name,
		dirty:   true,
	}
}

// Name returns the Symbol's name, without the CONFIG_ prefix.
func (s *Symbol) Name() string { return s.name }

// Type returns the Symbol's declared type.
func (s *Symbol) Type() SymbolType { return s.typ }

// IsConst reports whether this is one of the three synthetic y/m/n
// constants, which installConstants creates before parsing starts.
func (s *Symbol) IsConst() bool {
	return s.kconfig != nil && (s == s.kconfig.symY || s == s.kconfig.symM || s == s.kconfig.symN)
}

// Prompts returns the prompt property attached to each of s's MenuNodes, in
// node order (a Symbol re-declared across files may carry more than one).
func (s *Symbol) Prompts() []Prompt { return s.prompts }

// Defaults returns the Symbol's default properties in declaration order.
func (s *Symbol) Defaults() []Default { return s.defaults }

// Selects returns the select(target, cond) properties declared on s.
func (s *Symbol) Selects() []Select { return s.selects }

// Implies returns the imply(target, cond) properties declared on s.
func (s *Symbol) Implies() []Select { return s.implies }

// Ranges returns the range(lo, hi, cond) properties declared on s.
func (s *Symbol) Ranges() []Range { return s.ranges }

// DirectDep returns the OR of all enclosing if/depends-on conditions.
func (s *Symbol) DirectDep() *Expr { return s.directDep }

// RevDep returns the OR of every select condition that targets s.
func (s *Symbol) RevDep() *Expr { return s.revDep }

// WeakRevDep returns the OR of every imply condition that targets s.
func (s *Symbol) WeakRevDep() *Expr { return s.weakRevDep }

// Nodes returns every MenuNode that defines s (a Symbol may be declared
// more than once across included files).
func (s *Symbol) Nodes() []*MenuNode { return s.nodes }

// Choice returns the owning Choice, or nil if s is not a choice member.
func (s *Symbol) Choice() *Choice { return s.choice }

// EnvVar returns the environment variable name bound via option env="NAME",
// or "" if none.
func (s *Symbol) EnvVar() string { return s.envVar }

// invalidate marks s dirty without cascading; the set/unset value paths use
// invalidateCascade in eval.go instead.
func (s *Symbol) invalidate() {
	s.dirty = true
}

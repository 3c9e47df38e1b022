// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

// ChoiceDefault is a choice's default(symbol, cond) property — unlike a
// plain Symbol default, a choice default names a member Symbol directly
// rather than a value expression.
type ChoiceDefault struct {
	Sym  *Symbol
	Cond *Expr
}

// Choice is a tristate-typed grouping of Symbols sharing an exclusive
// selection discipline
type Choice struct {
	kconfig *Kconfig

	typ      SymbolType // TypeBool or TypeTristate
	prompts  []Prompt
	defaults []ChoiceDefault

	syms       []*Symbol
	isOptional bool

	directDep *Expr
	nodes     []*MenuNode

	userModeSet bool
	userMode    Tristate
	userSel     *Symbol // the member the user explicitly selected

	dirty      bool
	cachedMode Tristate
	cachedSel  *Symbol

	rdeps []*Symbol
}

func newChoice(k *Kconfig) *Choice {
	return &Choice{kconfig: k, dirty: true}
}

// Syms returns the Choice's member Symbols in declaration order.
func (c *Choice) Syms() []*Symbol { return c.syms }

// Type returns the Choice's declared type, TypeBool or TypeTristate.
func (c *Choice) Type() SymbolType { return c.typ }

// Prompts returns the choice's prompt properties across its MenuNode(s).
func (c *Choice) Prompts() []Prompt { return c.prompts }

// IsOptional reports whether the choice may be set to n (an "optional"
// choice).
func (c *Choice) IsOptional() bool { return c.isOptional }

// Defaults returns the choice's default(symbol, cond) properties.
func (c *Choice) Defaults() []ChoiceDefault { return c.defaults }

// DirectDep returns the OR of all enclosing if/depends-on conditions.
func (c *Choice) DirectDep() *Expr { return c.directDep }

// Nodes returns every MenuNode that defines this choice (normally one).
func (c *Choice) Nodes() []*MenuNode { return c.nodes }

// UserSelection returns the member Symbol the user explicitly selected, or
// nil if the user hasn't made a selection.
func (c *Choice) UserSelection() *Symbol { return c.userSel }

func (c *Choice) invalidate() {
	c.dirty = true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"strconv"
	"strings"
)

// buildDependencyIndex inverts every Symbol's/Choice's expressions into a
// per-Symbol rdeps list: the set of Symbols that must be marked dirty when
// that Symbol's value changes. Built once, right after finalize's other
// passes, and never touched again once construction finishes.
func buildDependencyIndex(k *Kconfig) {
	for _, s := range k.syms {
		refs := map[*Symbol]bool{}
		s.directDep.collectSymbols(refs)
		s.revDep.collectSymbols(refs)
		s.weakRevDep.collectSymbols(refs)
		for _, d := range s.defaults {
			d.Value.collectSymbols(refs)
			d.Cond.collectSymbols(refs)
		}
		for _, sel := range s.selects {
			sel.Cond.collectSymbols(refs)
		}
		for _, imp := range s.implies {
			imp.Cond.collectSymbols(refs)
		}
		for _, r := range s.ranges {
			r.Lo.collectSymbols(refs)
			r.Hi.collectSymbols(refs)
			r.Cond.collectSymbols(refs)
		}
		for _, p := range s.prompts {
			p.Cond.collectSymbols(refs)
		}
		for u := range refs {
			if u != s {
				u.rdeps = appendUniqueSymbol(u.rdeps, s)
			}
		}
	}

	// A Choice is invalidated through its members, so every Symbol its
	// prompt/default conditions reference gets the members as rdeps.
	for _, c := range k.choices {
		refs := map[*Symbol]bool{}
		for _, p := range c.prompts {
			p.Cond.collectSymbols(refs)
		}
		for _, d := range c.defaults {
			d.Cond.collectSymbols(refs)
		}
		for _, m := range c.syms {
			c.rdeps = appendUniqueSymbol(c.rdeps, m)
			for u := range refs {
				if u != m {
					u.rdeps = appendUniqueSymbol(u.rdeps, m)
				}
			}
		}
	}
}

func appendUniqueSymbol(list []*Symbol, s *Symbol) []*Symbol {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func containsTri(set []Tristate, v Tristate) bool {
	for _, t := range set {
		if t == v {
			return true
		}
	}
	return false
}

// revDepValue evaluates a rev_dep/weak_rev_dep accumulator, where nil means
// "nothing selects/implies this" and so must read as n — unlike a plain
// dependency expression, where Expr.Value's nil-is-y convention is what we
// want (an absent `if`/`depends on` condition is unconditionally true).
func revDepValue(e *Expr) Tristate {
	if e == nil {
		return No
	}
	return e.Value()
}

// ---- Symbol value engine -------------------------------------------------

// TriValue returns the Symbol's current tristate value, lazily recomputing
// it if the Symbol (or something it depends on) has been invalidated since
// the last read.
func (s *Symbol) TriValue() Tristate {
	s.recompute()
	if s.typ != TypeBool && s.typ != TypeTristate && s.typ != TypeUnknown {
		if s.cachedStr != "" {
			return Yes
		}
		return No
	}
	return s.cachedTri
}

// StrValue returns the Symbol's current value in string form: the tristate
// name for BOOL/TRISTATE, else the STRING/INT/HEX value (range-clamped for
// INT/HEX).
func (s *Symbol) StrValue() string {
	s.recompute()
	switch s.typ {
	case TypeBool, TypeTristate:
		return s.cachedTri.String()
	default:
		return s.cachedStr
	}
}

func (s *Symbol) recompute() {
	if !s.dirty {
		return
	}
	s.dirty = false

	switch s.typ {
	case TypeBool, TypeTristate, TypeUnknown:
		if s.choice != nil {
			s.cachedTri = s.choiceMemberValue()
		} else {
			s.cachedTri = s.computeValue()
		}
	case TypeString:
		s.cachedStr = s.computeStringValue()
	case TypeInt, TypeHex:
		s.cachedStr = s.clampToRange(s.computeNumericValue())
	}
}

// computeValue implements the bool/tristate value rules for a
// non-choice-member Symbol: visibility-clamped user value or first
// satisfied default, raised by rev_dep, conditionally raised further by
// weak_rev_dep, then type-capped.
func (s *Symbol) computeValue() Tristate {
	vis := s.Visibility()
	assign := s.assignableSet(vis)

	var base Tristate
	if s.userValSet && containsTri(assign, s.userVal) {
		base = TristateAnd(s.userVal, vis)
	} else {
		base = s.defaultValue()
	}

	value := TristateOr(base, revDepValue(s.revDep))

	weak := revDepValue(s.weakRevDep)
	if weak != No {
		directOK := s.directDep.Value() != No
		hardUserNo := s.userValSet && s.userVal == No
		if directOK && !hardUserNo {
			value = TristateOr(value, weak)
		}
	}

	if s.typ == TypeBool {
		value = clampBool(value)
	}
	return value
}

// choiceMemberValue computes a choice member's value once the enclosing
// Choice's mode is known: forced to the selection at mode y, free to be
// n/m (never y) at mode m, forced to n at mode n. Mode m is computed
// directly from the member's own user value/default/rev_dep rather than
// through computeValue's Visibility()-gated path: a choice member commonly
// carries no prompt of its own (it's shown by virtue of the choice being
// visible), so gating on its own visibility would wrongly force it to n.
func (s *Symbol) choiceMemberValue() Tristate {
	switch s.choice.TriValue() {
	case No:
		return No
	case Yes:
		if s.choice.Selection() == s {
			return Yes
		}
		return No
	case Mod:
		base := s.defaultValue()
		if s.userValSet && (s.userVal == Mod || s.userVal == No) {
			base = s.userVal
		}
		value := TristateOr(TristateAnd(base, Mod), revDepValue(s.revDep))
		if value == Yes {
			value = Mod
		}
		return value
	default:
		return No
	}
}

func (s *Symbol) defaultValue() Tristate {
	for _, d := range s.defaults {
		c := d.Cond.Value()
		if c != No {
			return TristateAnd(d.Value.Value(), c)
		}
	}
	return No
}

// computeStringValue implements the shared value rule for STRING/INT/HEX
// Symbols: user value if set, else the first default whose condition
// holds, else "".
func (s *Symbol) computeStringValue() string {
	if s.userValSet {
		return s.userStr
	}
	for _, d := range s.defaults {
		if d.Cond.Value() != No {
			return d.Value.literalOrSymbolString()
		}
	}
	return ""
}

func (s *Symbol) computeNumericValue() string {
	return s.computeStringValue()
}

// clampToRange enforces the first range property whose condition holds,
// warning and substituting the nearer bound when val falls outside it.
func (s *Symbol) clampToRange(val string) string {
	for _, r := range s.ranges {
		if r.Cond.Value() == No {
			continue
		}
		lo, loStr, loOK := parseNumeric(s.typ, r.Lo)
		hi, hiStr, hiOK := parseNumeric(s.typ, r.Hi)
		v, _, vOK := parseNumericString(s.typ, val)

		if !vOK {
			if loOK {
				return loStr
			}
			return val
		}
		if loOK && v < lo {
			s.kconfig.addWarning(Warning{Msg: "value " + val + " for " + s.name + " is below range, clamped to " + loStr})
			return loStr
		}
		if hiOK && v > hi {
			s.kconfig.addWarning(Warning{Msg: "value " + val + " for " + s.name + " is above range, clamped to " + hiStr})
			return hiStr
		}
		return val
	}
	return val
}

func parseNumeric(t SymbolType, e *Expr) (int64, string, bool) {
	return parseNumericString(t, e.literalOrSymbolString())
}

func parseNumericString(t SymbolType, s string) (int64, string, bool) {
	if s == "" {
		return 0, s, false
	}
	base := 10
	digits := s
	if t == TypeHex {
		base = 16
		digits = strings.TrimPrefix(strings.ToLower(s), "0x")
	}
	n, err := strconv.ParseInt(digits, base, 64)
	return n, s, err == nil
}

// literalOrSymbolString extracts the string form of a default/range
// operand: a literal's raw text, a referenced Symbol's own string value,
// or (for anything else) the expression's rendered form.
func (e *Expr) literalOrSymbolString() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprLiteral:
		return e.Lit
	case ExprSymbol:
		return e.Sym.StrValue()
	default:
		return e.String()
	}
}

// Visibility returns the OR of every prompt condition across the Symbol's
// MenuNodes, or n if the Symbol has no prompt at all (never shown, hence
// never directly visible).
func (s *Symbol) Visibility() Tristate {
	if len(s.prompts) == 0 {
		return No
	}
	var v *Expr
	for _, p := range s.prompts {
		v = Or(v, p.Cond)
	}
	return v.Value()
}

// Assignable returns the subset of {n, m, y} a caller could set on s given
// its current visibility and rev_dep state.
func (s *Symbol) Assignable() []Tristate {
	if s.typ != TypeBool && s.typ != TypeTristate && s.typ != TypeUnknown {
		return nil
	}
	return s.assignableSet(s.Visibility())
}

func (s *Symbol) assignableSet(vis Tristate) []Tristate {
	if s.choice != nil {
		return s.choiceMemberAssignable()
	}

	if revDepValue(s.revDep) == Yes {
		return []Tristate{Yes}
	}
	if vis == No {
		return []Tristate{No}
	}
	if s.typ == TypeBool {
		return []Tristate{No, Yes}
	}
	if vis == Mod {
		return []Tristate{No, Mod}
	}
	return []Tristate{No, Mod, Yes}
}

func (s *Symbol) choiceMemberAssignable() []Tristate {
	switch s.choice.TriValue() {
	case No:
		return []Tristate{No}
	case Yes:
		return []Tristate{No, Yes}
	case Mod:
		return []Tristate{No, Mod}
	default:
		return []Tristate{No}
	}
}

// SetValue assigns v as s's user value, clamping a bool assignment of m up
// to y (with a warning), and failing (with a warning, not a panic) if v is
// outside Assignable(). Returns whether the assignment took effect.
func (s *Symbol) SetValue(v Tristate) bool {
	if s.typ != TypeBool && s.typ != TypeTristate && s.typ != TypeUnknown {
		s.kconfig.addWarning(Warning{Msg: "cannot assign a tristate value to non-tristate symbol " + s.name})
		return false
	}
	if s.typ == TypeBool && v == Mod {
		s.kconfig.addWarning(Warning{Msg: "symbol " + s.name + ": assignment of m to a bool clamped to y"})
		v = Yes
	}

	assign := s.assignableSet(s.Visibility())
	if !containsTri(assign, v) {
		s.kconfig.addWarning(Warning{Msg: "value " + v.String() + " is not assignable to symbol " + s.name})
		return false
	}

	if s.choice != nil && v == Yes {
		return s.choice.SelectSymbol(s)
	}

	s.userValSet = true
	s.userVal = v
	s.invalidateCascade()
	return true
}

// SetStrValue assigns a STRING/INT/HEX user value directly (no tristate
// assignability check applies).
func (s *Symbol) SetStrValue(v string) {
	s.userValSet = true
	s.userStr = v
	s.invalidateCascade()
}

// UnsetValue clears s's user value, reverting it to its computed default.
func (s *Symbol) UnsetValue() {
	s.userValSet = false
	s.userStr = ""
	s.invalidateCascade()
}

// invalidateCascade marks s dirty and BFS-propagates the invalidation
// through s.rdeps (and the owning Choice, and its other members, when s is
// a choice member), per the invalidation cascade.
func (s *Symbol) invalidateCascade() {
	seen := map[*Symbol]bool{s: true}
	queue := []*Symbol{s}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		cur.dirty = true

		if cur.choice != nil {
			cur.choice.dirty = true
			for _, m := range cur.choice.syms {
				if !seen[m] {
					seen[m] = true
					queue = append(queue, m)
				}
			}
		}
		for _, d := range cur.rdeps {
			if !seen[d] {
				seen[d] = true
				queue = append(queue, d)
			}
		}
	}
}

// ---- Choice value engine --------------------------------------------------

// TriValue returns the Choice's current mode.
func (c *Choice) TriValue() Tristate {
	c.recompute()
	return c.cachedMode
}

// Selection returns the member Symbol selected when the Choice's mode is
// y, or nil otherwise.
func (c *Choice) Selection() *Symbol {
	c.recompute()
	return c.cachedSel
}

func (c *Choice) recompute() {
	if !c.dirty {
		return
	}
	c.dirty = false

	vis := c.visibility()
	var mode Tristate
	if c.userModeSet {
		assign := c.assignableSet(vis)
		if containsTri(assign, c.userMode) {
			mode = TristateAnd(c.userMode, vis)
		} else {
			mode = c.defaultMode(vis)
		}
	} else {
		mode = c.defaultMode(vis)
	}
	if c.typ == TypeBool {
		mode = clampBool(mode)
	}

	c.cachedMode = mode
	c.cachedSel = c.computeSelection(mode)
}

func (c *Choice) defaultMode(vis Tristate) Tristate {
	if vis == No {
		return No
	}
	for _, d := range c.defaults {
		if d.Cond.Value() != No {
			return vis
		}
	}
	if !c.isOptional {
		return vis
	}
	return No
}

func (c *Choice) computeSelection(mode Tristate) *Symbol {
	if mode != Yes {
		return nil
	}
	if c.userSel != nil && symbolIn(c.syms, c.userSel) {
		return c.userSel
	}
	for _, d := range c.defaults {
		if d.Cond.Value() != No {
			return d.Sym
		}
	}
	for _, s := range c.syms {
		if s.Visibility() != No {
			return s
		}
	}
	if len(c.syms) > 0 {
		return c.syms[0]
	}
	return nil
}

func symbolIn(list []*Symbol, s *Symbol) bool {
	for _, m := range list {
		if m == s {
			return true
		}
	}
	return false
}

func (c *Choice) visibility() Tristate {
	if len(c.prompts) == 0 {
		return No
	}
	var v *Expr
	for _, p := range c.prompts {
		v = Or(v, p.Cond)
	}
	return v.Value()
}

// Assignable returns the modes a caller could set on the Choice given its
// current visibility.
func (c *Choice) Assignable() []Tristate {
	return c.assignableSet(c.visibility())
}

// assignableSet implements the choice-mode assignable rule. A TRISTATE
// choice always admits n (the whole group can be switched off, independent
// of "optional") and additionally admits m whenever the instance's MODULES
// symbol is enabled or the choice's own visibility is already m — mirroring
// how a tristate choice in the C tool can be built "as modules" regardless
// of whether its own prompt condition happens to evaluate to m. A BOOL
// choice only admits n when explicitly `optional`.
func (c *Choice) assignableSet(vis Tristate) []Tristate {
	if vis == No {
		return []Tristate{No}
	}
	if c.typ == TypeTristate {
		out := []Tristate{No}
		if vis == Mod || c.modulesEnabled() {
			out = append(out, Mod)
		}
		if vis == Yes {
			out = append(out, Yes)
		}
		return out
	}
	if c.isOptional {
		return []Tristate{No, Yes}
	}
	return []Tristate{Yes}
}

func (c *Choice) modulesEnabled() bool {
	return c.kconfig != nil && c.kconfig.modulesSym != nil && c.kconfig.modulesSym.TriValue() == Yes
}

// SetValue assigns the Choice's mode directly (n/m/y), failing with a
// warning if the mode isn't in Assignable().
func (c *Choice) SetValue(v Tristate) bool {
	assign := c.Assignable()
	if !containsTri(assign, v) {
		c.kconfig.addWarning(Warning{Msg: "mode " + v.String() + " is not assignable to this choice"})
		return false
	}
	c.userModeSet = true
	c.userMode = v
	c.invalidateCascade()
	return true
}

// SelectSymbol sets the Choice's mode to y with sym as the explicit user
// selection; sym must be one of the Choice's members.
func (c *Choice) SelectSymbol(sym *Symbol) bool {
	if !symbolIn(c.syms, sym) {
		c.kconfig.addWarning(Warning{Msg: "symbol " + sym.name + " is not a member of this choice"})
		return false
	}
	c.userSel = sym
	c.userModeSet = true
	c.userMode = Yes
	c.invalidateCascade()
	return true
}

func (c *Choice) invalidateCascade() {
	c.dirty = true
	for _, m := range c.syms {
		m.invalidateCascade()
	}
}

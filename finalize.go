// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import "github.com/pkg/errors"

// finalize runs the post-order pass that turns the parser's raw menu tree
// into the shape the value engine evaluates against: effective
// dependencies propagated down the tree, implicit submenus built, reverse
// dependencies accumulated onto their targets, and Choice members linked
// back to their Choice. The synthetic y/m/n constants are installed
// earlier, before parsing even starts (installConstants below), since
// default values and conditions reference them as ordinary identifiers
// from the very first line of input.
//
// The teacher's KConfigFile.walk (kconfig/kconfig.go) only ever does the
// first of these passes; the rest is new.
func finalize(k *Kconfig) {
	if k.topNode != nil {
		propagateDeps(k.topNode, nil)
		buildImplicitSubmenus(k.topNode)
	}

	accumulateRevDeps(k)
	linkChoiceMembers(k)
}

// installConstants creates the three synthetic y/m/n symbols. The m
// constant evaluates to m whether or not any Symbol declares `option
// modules`; a `default m` or a user assignment of m is not turned into n
// when there is no modules Symbol.
func installConstants(k *Kconfig) {
	k.symY = constSymbol(k, "y", Yes)
	k.symN = constSymbol(k, "n", No)
	k.symM = constSymbol(k, "m", Mod)
}

func constSymbol(k *Kconfig, name string, v Tristate) *Symbol {
	s := newSymbol(k, name)
	s.typ = TypeTristate
	s.userValSet = true
	s.userVal = v
	s.dirty = false
	s.cachedTri = v
	k.syms[name] = s
	return s
}

// errConstantMissing is the sentinel wrapped by checkInvariants when one of
// the three synthetic constants isn't installed by the time finalize runs.
var errConstantMissing = errors.New("constant symbol was not installed")

// checkInvariants raises an InternalError for a condition that can only be
// caused by a bug in installConstants/finalize/buildDependencyIndex
// themselves, never by the shape of a malformed Kconfig file (those are
// reported as Warning or SyntaxError instead). NewKconfigFromData calls this
// once, right after buildDependencyIndex, as the last step before handing
// the instance back to the caller.
func checkInvariants(k *Kconfig) error {
	for _, c := range []struct {
		sym  *Symbol
		name string
	}{
		{k.symY, "y"},
		{k.symM, "m"},
		{k.symN, "n"},
	} {
		if c.sym == nil {
			return newInternalError(errConstantMissing, c.name)
		}
	}
	return nil
}

// propagateDeps computes effective_dep = parent.effective_dep AND
// node.dep for every MenuNode in the tree and propagates it onto every
// property's condition (step 1).
func propagateDeps(node *MenuNode, parentDep *Expr) {
	effective := And(parentDep, node.dep)
	node.dep = effective

	if node.prompt != nil {
		node.prompt.Cond = And(node.prompt.Cond, effective)
	}

	switch node.kind {
	case ItemSymbol:
		propagateSymbolDeps(node.sym, effective)
	case ItemChoice:
		propagateChoiceDeps(node.ch, effective)
	}

	for c := node.list; c != nil; c = c.next {
		propagateDeps(c, effective)
	}
}

func propagateSymbolDeps(sym *Symbol, effective *Expr) {
	sym.directDep = Or(sym.directDep, effective)

	for i := range sym.defaults {
		sym.defaults[i].Cond = And(sym.defaults[i].Cond, effective)
	}
	for i := range sym.selects {
		sym.selects[i].Cond = And(sym.selects[i].Cond, effective)
	}
	for i := range sym.implies {
		sym.implies[i].Cond = And(sym.implies[i].Cond, effective)
	}
	for i := range sym.ranges {
		sym.ranges[i].Cond = And(sym.ranges[i].Cond, effective)
	}
	for i := range sym.prompts {
		sym.prompts[i].Cond = And(sym.prompts[i].Cond, effective)
	}
}

func propagateChoiceDeps(ch *Choice, effective *Expr) {
	ch.directDep = Or(ch.directDep, effective)
	for i := range ch.prompts {
		ch.prompts[i].Cond = And(ch.prompts[i].Cond, effective)
	}
}

// buildImplicitSubmenus implements step 2: a sibling M' that depends on
// M's Symbol (directly or through the accumulated if-stack captured in
// M'.Dep()) is re-parented as a child of M, for as long a run as the
// relation holds; the first sibling that doesn't qualify, and everything
// after it, stays at the outer level. Recurses into the resulting tree so
// nested runs are built too.
func buildImplicitSubmenus(node *MenuNode) {
	children := node.children()
	out := make([]*MenuNode, 0, len(children))

	for i := 0; i < len(children); i++ {
		m := children[i]
		out = append(out, m)

		if m.kind != ItemSymbol || m.sym == nil {
			continue
		}

		j := i + 1
		for j < len(children) && childDependsOn(children[j], m.sym) {
			m.appendChild(children[j])
			j++
		}
		i = j - 1
	}

	node.setChildren(out)

	for c := node.list; c != nil; c = c.next {
		buildImplicitSubmenus(c)
	}
}

func childDependsOn(m *MenuNode, sym *Symbol) bool {
	return m.dep.DependsOn(sym)
}

// accumulateRevDeps implements step 3: OR (S AND cond) into the target's
// rev_dep for every select, and into weak_rev_dep for every imply. Targets
// that aren't bool/tristate are warned about and skipped (spec §7's
// "non-bool/tristate target of select/imply" warning).
func accumulateRevDeps(k *Kconfig) {
	for _, sym := range k.definedSyms {
		for _, sel := range sym.selects {
			accumulateOne(k, sym, sel, false)
		}
		for _, imp := range sym.implies {
			accumulateOne(k, sym, imp, true)
		}
	}
}

func accumulateOne(k *Kconfig, sym *Symbol, sel Select, weak bool) {
	target := sel.Target
	if target == nil {
		return
	}
	if target.typ != TypeBool && target.typ != TypeTristate && target.typ != TypeUnknown {
		k.addWarning(Warning{Msg: "select/imply target " + target.name + " is not bool/tristate"})
		return
	}

	contribution := And(NewSymbolExpr(sym), sel.Cond)
	if weak {
		target.weakRevDep = Or(target.weakRevDep, contribution)
	} else {
		target.revDep = Or(target.revDep, contribution)
	}
}

// linkChoiceMembers implements step 4: for every Choice, walk its
// MenuNode's child subtree and record every Symbol found as a member,
// setting symbol.choice back-pointers.
func linkChoiceMembers(k *Kconfig) {
	for _, ch := range k.choices {
		for _, node := range ch.nodes {
			collectChoiceMembers(node, ch)
		}
	}
}

func collectChoiceMembers(node *MenuNode, ch *Choice) {
	for c := node.list; c != nil; c = c.next {
		if c.kind == ItemSymbol && c.sym != nil {
			c.sym.choice = ch
			ch.syms = append(ch.syms, c.sym)
		}
		collectChoiceMembers(c, ch)
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"
)

// String renders sym as a standalone Kconfig "config" block: its type
// keyword and first prompt, then its defaults, selects, implies and ranges
// (each kind in declaration order), its depends-on, its options, and the
// help text of the first of its MenuNodes that has one. Round-trips cleanly back
// through the parser for any Symbol whose dependencies were written
// through `depends on` rather than solely inherited from an enclosing
// if/menu — a choice member's effective dependency also carries its
// choice's own accumulated condition, which this printer does not split
// back out into a separate `depends on` line (it is folded into the
// Symbol's DirectDep() like any other Symbol).
func (s *Symbol) String() string {
	var b strings.Builder

	kw := "config"
	if len(s.nodes) > 0 && s.nodes[0].isMenuConfig {
		kw = "menuconfig"
	}
	fmt.Fprintf(&b, "%s %s\n", kw, s.name)

	if s.typ != TypeUnknown {
		fmt.Fprintf(&b, "\t%s", s.typ.String())
		if p := firstPrompt(s.prompts); p != nil {
			fmt.Fprintf(&b, " %q", p.Text)
		}
		b.WriteByte('\n')
	} else if p := firstPrompt(s.prompts); p != nil {
		fmt.Fprintf(&b, "\tprompt %q\n", p.Text)
	}

	for _, d := range s.defaults {
		fmt.Fprintf(&b, "\tdefault %s%s\n", d.Value.String(), condSuffix(d.Cond))
	}
	for _, sel := range s.selects {
		fmt.Fprintf(&b, "\tselect %s%s\n", sel.Target.Name(), condSuffix(sel.Cond))
	}
	for _, imp := range s.implies {
		fmt.Fprintf(&b, "\timply %s%s\n", imp.Target.Name(), condSuffix(imp.Cond))
	}
	for _, r := range s.ranges {
		fmt.Fprintf(&b, "\trange %s %s%s\n", r.Lo.String(), r.Hi.String(), condSuffix(r.Cond))
	}
	if s.directDep != nil {
		fmt.Fprintf(&b, "\tdepends on %s\n", s.directDep.String())
	}
	if s.envVar != "" {
		fmt.Fprintf(&b, "\toption env=%q\n", s.envVar)
	}
	if s.isDefconfigList {
		b.WriteString("\toption defconfig_list\n")
	}
	if s.isModulesSym {
		b.WriteString("\toption modules\n")
	}
	if s.isAllnoconfigY {
		b.WriteString("\toption allnoconfig_y\n")
	}
	help := ""
	for _, n := range s.nodes {
		if n.help != "" {
			help = n.help
			break
		}
	}
	if help != "" {
		b.WriteString("\thelp\n")
		for _, line := range strings.Split(strings.TrimRight(help, "\n"), "\n") {
			b.WriteString("\t  ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

func firstPrompt(prompts []Prompt) *Prompt {
	if len(prompts) == 0 {
		return nil
	}
	return &prompts[0]
}

func condSuffix(cond *Expr) string {
	if cond == nil {
		return ""
	}
	return " if " + cond.String()
}

// String renders ch the same way as Symbol.String, for the "choice"
// statement and its member list.
func (c *Choice) String() string {
	var b strings.Builder

	b.WriteString("choice\n")
	fmt.Fprintf(&b, "\t%s\n", c.typ.String())
	if p := firstPrompt(c.prompts); p != nil {
		fmt.Fprintf(&b, "\tprompt %q\n", p.Text)
	}
	if c.isOptional {
		b.WriteString("\toptional\n")
	}
	for _, d := range c.defaults {
		fmt.Fprintf(&b, "\tdefault %s%s\n", d.Sym.Name(), condSuffix(d.Cond))
	}
	if c.directDep != nil {
		fmt.Fprintf(&b, "\tdepends on %s\n", c.directDep.String())
	}
	for _, sym := range c.syms {
		for _, line := range strings.Split(strings.TrimRight(sym.String(), "\n"), "\n") {
			b.WriteString("\t")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	b.WriteString("endchoice\n")

	return b.String()
}

// PrintTree dumps k's menu tree to w as an indented diagnostic tree (node
// kind, name, current value), using the same tree-rendering library the
// teacher reaches for to display dependency/build graphs.
func PrintTree(k *Kconfig, w io.Writer) error {
	tree := treeprint.New()
	if k.mainmenuText != "" {
		tree.SetValue(k.mainmenuText)
	} else {
		tree.SetValue("(mainmenu)")
	}
	if k.topNode != nil {
		addTreeChildren(tree, k.topNode)
	}
	_, err := fmt.Fprintln(w, tree.String())
	return err
}

func addTreeChildren(branch treeprint.Tree, node *MenuNode) {
	for c := node.list; c != nil; c = c.next {
		label := nodeLabel(c)
		child := branch.AddBranch(label)
		addTreeChildren(child, c)
	}
}

func nodeLabel(node *MenuNode) string {
	switch node.kind {
	case ItemSymbol:
		if node.sym == nil {
			return "config ?"
		}
		v := node.sym.TriValue().String()
		if node.sym.typ != TypeBool && node.sym.typ != TypeTristate && node.sym.typ != TypeUnknown {
			v = node.sym.StrValue()
		}
		return fmt.Sprintf("config %s = %s", node.sym.Name(), v)
	case ItemChoice:
		sel := "(none)"
		if node.ch != nil {
			if s := node.ch.Selection(); s != nil {
				sel = s.Name()
			}
		}
		return fmt.Sprintf("choice (%s)", sel)
	case ItemMenu:
		return "menu " + strconv.Quote(node.menuPrompt)
	case ItemComment:
		return "comment " + strconv.Quote(node.MenuText())
	default:
		return "?"
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// LoadConfig reads a .config-format file at path and applies it, the same
// as LoadConfigData. replace mirrors the teacher's OverrideBy/Resolve
// distinction: when true every defined Symbol is unset first, so the file
// fully replaces the current assignment; when false the file is merged
// over whatever user values are already set.
func (k *Kconfig) LoadConfig(path string, replace bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return k.LoadConfigData(data, replace)
}

// LoadConfigData parses .config-format text (CONFIG_NAME=value and
// "# CONFIG_NAME is not set" lines) and assigns the named Symbols,
// generalizing the teacher's DotConfigFile.ParseConfigData (config.go) from
// a flat KConfigValues bag into direct Symbol assignment. Unknown
// CONFIG_ lines are warned about and otherwise ignored, matching the
// teacher's own tolerant parse.
func (k *Kconfig) LoadConfigData(data []byte, replace bool) error {
	if replace {
		for _, sym := range k.definedSyms {
			sym.UnsetValue()
		}
	}

	reY, reN := k.configLineRegexps()

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		k.applyConfigLine(sc.Text(), reY, reN)
	}
	return nil
}

// configLineRegexps builds the CONFIG_<name>=<value> and
// "# CONFIG_<name> is not set" matchers for the instance's prefix, grounded
// on the teacher's reConfigY/reConfigN (kconfig/config.go), generalized to
// respect WithPrefix instead of a hardcoded "CONFIG_".
func (k *Kconfig) configLineRegexps() (y, n *regexp.Regexp) {
	p := regexp.QuoteMeta(k.prefix)
	y = regexp.MustCompile(`^` + p + `([A-Za-z0-9_]+)=(.*)$`)
	n = regexp.MustCompile(`^# ` + p + `([A-Za-z0-9_]+) is not set$`)
	return y, n
}

func (k *Kconfig) applyConfigLine(line string, reY, reN *regexp.Regexp) {
	line = strings.TrimRight(line, "\r")
	if m := reN.FindStringSubmatch(line); m != nil {
		sym, ok := k.Symbol(m[1])
		if !ok {
			k.addWarning(Warning{Msg: "unknown symbol " + m[1] + " in config line: " + line})
			return
		}
		if sym.typ == TypeBool || sym.typ == TypeTristate || sym.typ == TypeUnknown {
			sym.SetValue(No)
		} else {
			sym.UnsetValue()
		}
		return
	}

	m := reY.FindStringSubmatch(line)
	if m == nil {
		return
	}
	sym, ok := k.Symbol(m[1])
	if !ok {
		k.addWarning(Warning{Msg: "unknown symbol " + m[1] + " in config line: " + line})
		return
	}
	k.applyConfigValue(sym, m[2])
}

func (k *Kconfig) applyConfigValue(sym *Symbol, raw string) {
	switch sym.typ {
	case TypeBool, TypeTristate:
		t, ok := ParseTristate(raw)
		if !ok {
			k.addWarning(Warning{Msg: "invalid value " + raw + " for " + sym.name})
			return
		}
		sym.SetValue(t)
	case TypeString:
		sym.SetStrValue(unquoteConfigString(raw))
	default: // TypeInt, TypeHex, TypeUnknown
		sym.SetStrValue(raw)
	}
}

// unquoteConfigString strips the surrounding quotes from a .config string
// value and resolves \\ and \" escapes, the inverse of escapeConfigString.
func unquoteConfigString(raw string) string {
	if len(raw) < 2 || raw[0] != '"' || raw[len(raw)-1] != '"' {
		return raw
	}
	inner := raw[1 : len(raw)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

func escapeConfigString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// WriteConfig writes a full .config to path: every Symbol whose visibility
// is non-n, every selected choice member, and every Symbol promoted by a
// select are emitted with their value, an n value as "# NAME is not set";
// Symbols outside those groups are omitted. Menus with at least one emitted descendant get a
// comment-block header, mirroring the layout the teacher's Serialize
// produces for a flat value bag, extended to the tree.
func (k *Kconfig) WriteConfig(path string) error {
	var buf bytes.Buffer
	k.writeConfigHeader(&buf)
	if k.topNode != nil {
		k.writeConfigBody(&buf, k.topNode, false)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

// WriteMinConfig writes a minimal ("defconfig") .config to path: only
// Symbols whose current value differs from the value they would take on
// with no user assignment at all are emitted.
func (k *Kconfig) WriteMinConfig(path string) error {
	var buf bytes.Buffer
	k.writeConfigHeader(&buf)
	if k.topNode != nil {
		k.writeConfigBody(&buf, k.topNode, true)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (k *Kconfig) writeConfigHeader(buf *bytes.Buffer) {
	fmt.Fprintln(buf, "#")
	fmt.Fprintln(buf, "# Automatically generated file; DO NOT EDIT.")
	if k.mainmenuText != "" {
		fmt.Fprintf(buf, "# %s Configuration\n", k.mainmenuText)
	}
	fmt.Fprintln(buf, "#")
}

// writeConfigBody walks node's children in tree order, wrapping every
// ItemMenu that has at least one emitted descendant in a "#\n# text\n#\n"
// header, and reports whether anything was emitted so an ancestor menu
// knows whether to wrap itself.
func (k *Kconfig) writeConfigBody(buf *bytes.Buffer, node *MenuNode, minimal bool) bool {
	any := false

	for c := node.list; c != nil; c = c.next {
		switch c.kind {
		case ItemMenu:
			var sub bytes.Buffer
			if k.writeConfigBody(&sub, c, minimal) {
				fmt.Fprintf(buf, "\n#\n# %s\n#\n", c.menuPrompt)
				buf.Write(sub.Bytes())
				any = true
			}
			continue

		case ItemComment:
			if c.dep.Value() != No {
				fmt.Fprintf(buf, "\n#\n# %s\n#\n", c.MenuText())
				any = true
			}

		case ItemSymbol:
			emit := shouldEmitFull(c.sym)
			if minimal {
				emit = k.shouldEmitMinimal(c.sym)
			}
			if emit {
				fmt.Fprintln(buf, formatConfigLine(k.prefix, c.sym))
				any = true
			}
		}

		if k.writeConfigBody(buf, c, minimal) {
			any = true
		}
	}

	return any
}

// shouldEmitFull implements the full-.config emission rule: visible, or a
// selected member of a visible choice, or promoted to non-n by rev_dep even
// while invisible (a select can force a hidden Symbol on).
func shouldEmitFull(sym *Symbol) bool {
	if sym.typ != TypeBool && sym.typ != TypeTristate && sym.typ != TypeUnknown {
		return sym.Visibility() != No || sym.StrValue() != ""
	}
	if sym.Visibility() != No {
		return true
	}
	if sym.choice != nil && sym.choice.TriValue() != No && sym.choice.Selection() == sym {
		return true
	}
	return revDepValue(sym.revDep) != No
}

// shouldEmitMinimal reports whether sym's current value differs from the
// value it would compute to with no user assignment at all, the defconfig
// criterion. Temporarily clearing and restoring the user value is the most
// direct way to ask "what would this be by default" without duplicating
// the entire default-resolution chain a second time.
func (k *Kconfig) shouldEmitMinimal(sym *Symbol) bool {
	switch sym.typ {
	case TypeBool, TypeTristate, TypeUnknown:
		cur := sym.TriValue()
		def, _ := k.valueWithoutUser(sym)
		return cur != def
	default:
		cur := sym.StrValue()
		_, def := k.valueWithoutUser(sym)
		return cur != def
	}
}

func (k *Kconfig) valueWithoutUser(sym *Symbol) (Tristate, string) {
	set, val, str := sym.userValSet, sym.userVal, sym.userStr
	sym.userValSet = false
	sym.invalidateCascade()

	tri := sym.TriValue()
	s := sym.StrValue()

	sym.userValSet = set
	sym.userVal = val
	sym.userStr = str
	sym.invalidateCascade()

	return tri, s
}

func formatConfigLine(prefix string, sym *Symbol) string {
	name := prefix + sym.name
	switch sym.typ {
	case TypeBool, TypeTristate, TypeUnknown:
		switch sym.TriValue() {
		case Yes:
			return name + "=y"
		case Mod:
			return name + "=m"
		default:
			return "# " + name + " is not set"
		}
	case TypeString:
		return name + `="` + escapeConfigString(sym.StrValue()) + `"`
	default: // TypeInt, TypeHex
		return name + "=" + sym.StrValue()
	}
}

// WriteAutoconf writes the C-header form of every defined Symbol's value to
// path: #define PREFIXNAME 1 for y, PREFIXNAME_MODULE 1 for m, quoted string
// for STRING, raw digits/hex for INT/HEX. n is simply absent, matching the
// kernel tool's autoconf.h.
func (k *Kconfig) WriteAutoconf(path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "/*")
	fmt.Fprintln(&buf, " * Automatically generated C config: don't edit")
	fmt.Fprintln(&buf, " */")
	for _, sym := range k.definedSyms {
		if line := autoconfDefineLine(k.prefix, sym); line != "" {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func autoconfDefineLine(prefix string, sym *Symbol) string {
	name := prefix + sym.name
	switch sym.typ {
	case TypeBool, TypeTristate, TypeUnknown:
		switch sym.TriValue() {
		case Yes:
			return fmt.Sprintf("#define %s 1", name)
		case Mod:
			return fmt.Sprintf("#define %s_MODULE 1", name)
		default:
			return ""
		}
	case TypeString:
		return fmt.Sprintf("#define %s \"%s\"", name, escapeConfigString(sym.StrValue()))
	case TypeInt, TypeHex:
		v := sym.StrValue()
		if v == "" {
			return ""
		}
		return fmt.Sprintf("#define %s %s", name, v)
	default:
		return ""
	}
}

// SyncDeps implements the incremental-build protocol: for every defined
// Symbol whose #define form changed since the last call, it (re)writes
// dir/NAME.h with that line and records the new form on the Symbol so the
// next call can skip it if nothing changed. Unlike the kernel tool's
// include/config/ nesting (one path segment per underscore in the Symbol
// name), this flattens every header into a single directory — sufficient
// for driving an incremental build's dependency graph without replicating
// the kernel source tree's own directory layout byte for byte.
func (k *Kconfig) SyncDeps(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var touched []string
	for _, sym := range k.definedSyms {
		define := autoconfDefineLine(k.prefix, sym)
		if define == sym.lastSyncedDefine {
			continue
		}
		path := filepath.Join(dir, sym.name+".h")
		content := define
		if content != "" {
			content += "\n"
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return touched, err
		}
		sym.lastSyncedDefine = define
		touched = append(touched, path)
	}
	return touched, nil
}

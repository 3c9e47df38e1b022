// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const implySrc = `
config A
	bool "a"
	default y
config B
	bool
	default y
	imply C if A
config C
	bool "c"
config D
	bool "d"
	default n
config E
	bool
	default y
	imply F if A
config F
	bool "f"
	depends on D
`

// imply promotes its target to y when the source holds and the target's own
// direct dependency is met.
func TestImplyPromotesTarget(t *testing.T) {
	k := parseString(t, implySrc)
	c := mustSymbol(t, k, "C")
	assert.Equal(t, Yes, c.TriValue())
}

// A hard user n on the imply target blocks the promotion.
func TestImplyDoesNotOverrideHardUserNo(t *testing.T) {
	k := parseString(t, implySrc)
	c := mustSymbol(t, k, "C")
	require.True(t, c.SetValue(No))
	assert.Equal(t, No, c.TriValue())
}

// imply does not bypass the target's own unmet direct dependency, unlike
// select.
func TestImplyGatedByDirectDep(t *testing.T) {
	k := parseString(t, implySrc)
	f := mustSymbol(t, k, "F")
	assert.Equal(t, No, f.TriValue())
}

// select does bypass the target's own dependency state.
func TestSelectIgnoresDirectDep(t *testing.T) {
	k := parseString(t, "config DEP\n\tbool \"dep\"\n\tdefault n\nconfig SRC\n\tbool\n\tdefault y\n\tselect TGT\nconfig TGT\n\tbool \"tgt\"\n\tdepends on DEP\n")
	tgt := mustSymbol(t, k, "TGT")
	assert.Equal(t, Yes, tgt.TriValue())
}

// Changing a Symbol referenced by another Symbol's imply condition
// invalidates the cascade and changes the dependent's value on next read.
func TestInvalidateCascadeThroughWeakRevDep(t *testing.T) {
	k := parseString(t, implySrc)
	a := mustSymbol(t, k, "A")
	c := mustSymbol(t, k, "C")
	require.Equal(t, Yes, c.TriValue())

	require.True(t, a.SetValue(No))
	assert.Equal(t, No, c.TriValue())
}

// An un-selected, un-implied Symbol's rev_dep/weak_rev_dep fields stay nil
// and must read as n, not the Expr.Value() nil-is-y default.
func TestRevDepNilReadsAsNo(t *testing.T) {
	k := parseString(t, "config LONE\n\tbool \"lone\"\n")
	lone := mustSymbol(t, k, "LONE")
	assert.Nil(t, lone.RevDep())
	assert.Nil(t, lone.WeakRevDep())
	assert.Equal(t, No, lone.TriValue())
}

// A tristate Choice admits m whenever its MODULES symbol is enabled, even
// though its own prompt evaluates to an unconditional y.
func TestChoiceAssignableWidensWithModules(t *testing.T) {
	k := parseString(t, "config MODULES\n\tbool\n\toption modules\n\tdefault y\nchoice\n\ttristate \"c\"\n\tconfig X\n\t\ttristate\n\tconfig Y\n\t\ttristate\nendchoice\n")
	ch := k.Choices()[0]
	assert.ElementsMatch(t, []Tristate{No, Mod, Yes}, ch.Assignable())
}

// Without a MODULES symbol at all, the same choice only admits n and y.
func TestChoiceAssignableWithoutModules(t *testing.T) {
	k := parseString(t, "choice\n\ttristate \"c\"\n\tconfig X\n\t\ttristate\n\tconfig Y\n\t\ttristate\nendchoice\n")
	ch := k.Choices()[0]
	assert.ElementsMatch(t, []Tristate{No, Yes}, ch.Assignable())
}

// A bool choice only admits n when declared optional.
func TestBoolChoiceRequiresOptionalForNo(t *testing.T) {
	k := parseString(t, "choice\n\tbool \"c\"\n\toptional\n\tconfig X\n\t\tbool\n\tconfig Y\n\t\tbool\nendchoice\n")
	ch := k.Choices()[0]
	assert.ElementsMatch(t, []Tristate{No, Yes}, ch.Assignable())

	k2 := parseString(t, "choice\n\tbool \"c\"\n\tconfig X\n\t\tbool\n\tconfig Y\n\t\tbool\nendchoice\n")
	ch2 := k2.Choices()[0]
	assert.Equal(t, []Tristate{Yes}, ch2.Assignable())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, src string) *Kconfig {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	k, err := NewKconfig(context.Background(), path, WithWarn(false))
	require.NoError(t, err)
	return k
}

func mustSymbol(t *testing.T, k *Kconfig, name string) *Symbol {
	t.Helper()
	s, ok := k.Symbol(name)
	require.True(t, ok, "symbol %s not found", name)
	return s
}

// Scenario 1: minimal bool.
func TestScenarioMinimalBool(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\n")
	foo := mustSymbol(t, k, "FOO")
	assert.Equal(t, Yes, foo.TriValue())

	path := filepath.Join(t.TempDir(), ".config")
	require.NoError(t, k.WriteConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "CONFIG_FOO=y\n")
}

// Scenario 2: select forces a value above visibility.
func TestScenarioSelectForcesValue(t *testing.T) {
	k := parseString(t, "config A\n\tbool \"a\"\nconfig B\n\tbool\n\tselect A if B\n\tdefault y\n")
	a := mustSymbol(t, k, "A")

	assert.Equal(t, Yes, a.TriValue())
	assert.Equal(t, []Tristate{Yes}, a.Assignable())
}

// Scenario 3: tristate choice.
func TestScenarioTristateChoice(t *testing.T) {
	k := parseString(t, "config MODULES\n\tbool\n\toption modules\n\tdefault y\nchoice\n\ttristate \"c\"\n\tconfig X\n\t\ttristate\n\tconfig Y\n\t\ttristate\nendchoice\n")
	require.Len(t, k.Choices(), 1)
	ch := k.Choices()[0]

	assert.ElementsMatch(t, []Tristate{No, Mod, Yes}, ch.Assignable())

	ok := ch.SetValue(Mod)
	require.True(t, ok)

	x := mustSymbol(t, k, "X")
	y := mustSymbol(t, k, "Y")
	ok = x.SetValue(Mod)
	require.True(t, ok)

	assert.Equal(t, Mod, x.TriValue())
	assert.Equal(t, No, y.TriValue())
}

// Scenario 4: comparison against an INT default.
func TestScenarioComparison(t *testing.T) {
	k := parseString(t, "config N\n\tint\n\tdefault 5\nconfig M\n\tbool\n\tdefault y if N > 3\n")
	m := mustSymbol(t, k, "M")
	assert.Equal(t, Yes, m.TriValue())
}

// Scenario 5: incremental sync_deps touches only changed Symbol headers.
func TestScenarioSyncDeps(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\nconfig BAR\n\tbool \"bar\"\n\tdefault y\n")
	foo := mustSymbol(t, k, "FOO")
	bar := mustSymbol(t, k, "BAR")

	dir := t.TempDir()
	touched, err := k.SyncDeps(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{filepath.Join(dir, "FOO.h"), filepath.Join(dir, "BAR.h")}, touched)

	barInfoBefore, err := os.Stat(filepath.Join(dir, "BAR.h"))
	require.NoError(t, err)

	require.True(t, foo.SetValue(No))
	touched, err = k.SyncDeps(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "FOO.h")}, touched)

	barInfoAfter, err := os.Stat(filepath.Join(dir, "BAR.h"))
	require.NoError(t, err)
	assert.Equal(t, barInfoBefore.ModTime(), barInfoAfter.ModTime())
}

// Scenario 6: implicit submenu.
func TestScenarioImplicitSubmenu(t *testing.T) {
	k := parseString(t, "config A\n\tbool\nconfig B\n\tbool\n\tdepends on A\nconfig C\n\tbool\n")

	top := k.TopNode()
	require.NotNil(t, top)

	var aNode *MenuNode
	for c := top.List(); c != nil; c = c.Next() {
		if c.Item() == ItemSymbol && c.Symbol().Name() == "A" {
			aNode = c
		}
	}
	require.NotNil(t, aNode)

	require.NotNil(t, aNode.List())
	assert.Equal(t, "B", aNode.List().Symbol().Name())
	assert.Nil(t, aNode.List().Next())

	assert.Equal(t, "C", aNode.Next().Symbol().Name())
}

func TestEmptyKconfigFile(t *testing.T) {
	k := parseString(t, "")
	assert.Empty(t, k.DefinedSymbols())

	y, ok := k.Symbol("y")
	require.True(t, ok)
	assert.Equal(t, Yes, y.TriValue())
}

func TestMissingSourceIsSyntaxError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Kconfig")
	require.NoError(t, os.WriteFile(path, []byte("source \"does-not-exist\"\n"), 0644))

	_, err := NewKconfig(context.Background(), path, WithWarn(false))
	require.Error(t, err)
	var syn *SyntaxError
	assert.ErrorAs(t, err, &syn)
}

func TestMissingGsourceIsSilent(t *testing.T) {
	k := parseString(t, "gsource \"no-such-*.uk\"\nconfig FOO\n\tbool\n")
	assert.Len(t, k.DefinedSymbols(), 1)
}

func TestBoolAssignedModClampsToYes(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n")
	foo := mustSymbol(t, k, "FOO")

	ok := foo.SetValue(Mod)
	require.True(t, ok)
	assert.Equal(t, Yes, foo.TriValue())
}

func TestIntDefaultOutsideRangeClamps(t *testing.T) {
	k := parseString(t, "config FOO\n\tint\n\tdefault -5\n\trange 0 10\n")
	foo := mustSymbol(t, k, "FOO")
	assert.Equal(t, "0", foo.StrValue())
}

func TestIntDefaultAboveRangeClampsToHigh(t *testing.T) {
	k := parseString(t, "config FOO\n\tint\n\tdefault 100\n\trange 0 10\n")
	foo := mustSymbol(t, k, "FOO")
	assert.Equal(t, "10", foo.StrValue())
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A Symbol's printed form, re-parsed standalone, yields a Symbol with the
// same type, default and dependency semantics.
func TestSymbolStringRoundTrip(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\n")
	foo := mustSymbol(t, k, "FOO")

	printed := foo.String()
	assert.Contains(t, printed, "config FOO")
	assert.Contains(t, printed, "bool \"foo\"")
	assert.Contains(t, printed, "default y")

	k2 := parseString(t, printed)
	foo2 := mustSymbol(t, k2, "FOO")
	assert.Equal(t, foo.Type(), foo2.Type())
	assert.Equal(t, foo.TriValue(), foo2.TriValue())
}

func TestSymbolStringRoundTripWithRange(t *testing.T) {
	k := parseString(t, "config N\n\tint \"n\"\n\tdefault 5\n\trange 0 10\n")
	n := mustSymbol(t, k, "N")

	printed := n.String()
	assert.Contains(t, printed, "int \"n\"")
	assert.Contains(t, printed, "range 0 10")

	k2 := parseString(t, printed)
	n2 := mustSymbol(t, k2, "N")
	assert.Equal(t, TypeInt, n2.Type())
	assert.Equal(t, "5", n2.StrValue())
}

func TestChoiceStringRoundTripParses(t *testing.T) {
	k := parseString(t, "choice\n\ttristate \"c\"\n\tconfig X\n\t\ttristate\n\tconfig Y\n\t\ttristate\nendchoice\n")
	require.Len(t, k.Choices(), 1)
	ch := k.Choices()[0]

	printed := ch.String()
	assert.True(t, strings.HasPrefix(printed, "choice\n"))
	assert.Contains(t, printed, "config X")
	assert.Contains(t, printed, "config Y")
	assert.True(t, strings.HasSuffix(strings.TrimRight(printed, "\n"), "endchoice"))

	k2 := parseString(t, printed)
	require.Len(t, k2.Choices(), 1)
	assert.Len(t, k2.Choices()[0].Syms(), 2)
}

func TestPrintTreeShowsSymbolValues(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\nconfig BAR\n\tbool \"bar\"\n")

	var buf bytes.Buffer
	require.NoError(t, PrintTree(k, &buf))

	out := buf.String()
	assert.Contains(t, out, "config FOO = y")
	assert.Contains(t, out, "config BAR = n")
}

func TestPrintTreeShowsChoiceSelection(t *testing.T) {
	k := parseString(t, "choice\n\tbool \"c\"\n\tconfig X\n\t\tbool\n\tconfig Y\n\t\tbool\nendchoice\n")
	ch := k.Choices()[0]
	x := mustSymbol(t, k, "X")
	require.True(t, x.SetValue(Yes))

	var buf bytes.Buffer
	require.NoError(t, PrintTree(k, &buf))
	assert.Contains(t, buf.String(), "choice (X)")
	assert.NotNil(t, ch.Selection())
}

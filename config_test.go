// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configRoundTripSrc = `
config FOO
	bool "foo"
	default y
config BAR
	tristate "bar"
	depends on FOO
config NAME
	string "name"
	default "hello world"
config COUNT
	int "count"
	default 5
	range 0 10
`

// write_config(write_config(load_config(X))) is stable.
func TestWriteConfigRoundTrip(t *testing.T) {
	k := parseString(t, configRoundTripSrc)

	path := filepath.Join(t.TempDir(), ".config")
	require.NoError(t, k.WriteConfig(path))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	k2 := parseString(t, configRoundTripSrc)
	require.NoError(t, k2.LoadConfig(path, true))
	require.NoError(t, k2.WriteConfig(path))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestLoadConfigAppliesValues(t *testing.T) {
	k := parseString(t, configRoundTripSrc)

	data := "CONFIG_FOO=y\n" +
		"CONFIG_BAR=m\n" +
		`CONFIG_NAME="hi there"` + "\n" +
		"CONFIG_COUNT=7\n"
	require.NoError(t, k.LoadConfigData([]byte(data), false))

	assert.Equal(t, Yes, mustSymbol(t, k, "FOO").TriValue())
	assert.Equal(t, Mod, mustSymbol(t, k, "BAR").TriValue())
	assert.Equal(t, "hi there", mustSymbol(t, k, "NAME").StrValue())
	assert.Equal(t, "7", mustSymbol(t, k, "COUNT").StrValue())
}

func TestLoadConfigNotSetLine(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\n")
	require.NoError(t, k.LoadConfigData([]byte("# CONFIG_FOO is not set\n"), false))
	assert.Equal(t, No, mustSymbol(t, k, "FOO").TriValue())
}

func TestLoadConfigReplaceUnsetsFirst(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n")
	foo := mustSymbol(t, k, "FOO")
	require.True(t, foo.SetValue(Yes))

	require.NoError(t, k.LoadConfigData([]byte(""), true))
	assert.False(t, foo.userValSet)
}

func TestWriteMinConfigOmitsDefaultValue(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\n")
	foo := mustSymbol(t, k, "FOO")

	path := filepath.Join(t.TempDir(), "defconfig")
	require.NoError(t, k.WriteMinConfig(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "FOO")

	require.True(t, foo.SetValue(No))
	require.NoError(t, k.WriteMinConfig(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# CONFIG_FOO is not set")
}

func TestWriteAutoconfHeaderValues(t *testing.T) {
	k := parseString(t, "config FOO\n\tbool \"foo\"\n\tdefault y\nconfig NAME\n\tstring\n\tdefault \"abc\"\n")

	path := filepath.Join(t.TempDir(), "autoconf.h")
	require.NoError(t, k.WriteAutoconf(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, "#define CONFIG_FOO 1")
	assert.Contains(t, s, `#define CONFIG_NAME "abc"`)
}

func TestUnquoteAndEscapeConfigStringRoundTrip(t *testing.T) {
	tests := []string{
		`simple`,
		`with "quotes" inside`,
		`with\backslash`,
	}
	for _, s := range tests {
		escaped := escapeConfigString(s)
		got := unquoteConfigString(`"` + escaped + `"`)
		assert.Equal(t, s, got)
	}
}

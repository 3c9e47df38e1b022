// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTristateAnd(t *testing.T) {
	tests := []struct {
		name string
		a, b Tristate
		want Tristate
	}{
		{"y and y", Yes, Yes, Yes},
		{"y and m", Yes, Mod, Mod},
		{"y and n", Yes, No, No},
		{"m and m", Mod, Mod, Mod},
		{"m and n", Mod, No, No},
		{"n and n", No, No, No},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TristateAnd(tt.a, tt.b))
			assert.Equal(t, tt.want, TristateAnd(tt.b, tt.a))
		})
	}
}

func TestTristateOr(t *testing.T) {
	tests := []struct {
		name string
		a, b Tristate
		want Tristate
	}{
		{"y or n", Yes, No, Yes},
		{"m or n", Mod, No, Mod},
		{"m or y", Mod, Yes, Yes},
		{"n or n", No, No, No},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TristateOr(tt.a, tt.b))
			assert.Equal(t, tt.want, TristateOr(tt.b, tt.a))
		})
	}
}

func TestTristateNot(t *testing.T) {
	assert.Equal(t, No, TristateNot(Yes))
	assert.Equal(t, Yes, TristateNot(No))
	assert.Equal(t, Mod, TristateNot(Mod))
}

func TestClampBool(t *testing.T) {
	assert.Equal(t, Yes, clampBool(Mod))
	assert.Equal(t, Yes, clampBool(Yes))
	assert.Equal(t, No, clampBool(No))
}

func TestParseTristate(t *testing.T) {
	tests := []struct {
		in     string
		want   Tristate
		wantOk bool
	}{
		{"y", Yes, true},
		{"m", Mod, true},
		{"n", No, true},
		{"yes", No, false},
		{"", No, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseTristate(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestTristateString(t *testing.T) {
	assert.Equal(t, "y", Yes.String())
	assert.Equal(t, "m", Mod.String())
	assert.Equal(t, "n", No.String())
}

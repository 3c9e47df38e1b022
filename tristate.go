// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

// Tristate is the three-valued logic used by bool/tristate symbols and the
// expressions built over them. The ordering n < m < y matters: AND is min,
// OR is max.
type Tristate int

const (
	No Tristate = iota
	Mod
	Yes
)

// String renders a Tristate the way it appears in a .config file or a
// Kconfig default/select statement.
func (t Tristate) String() string {
	switch t {
	case No:
		return "n"
	case Mod:
		return "m"
	case Yes:
		return "y"
	default:
		return "n"
	}
}

// ParseTristate parses the textual form ("n", "m", "y") of a Tristate. The
// second return value is false if s isn't one of the three valid forms.
func ParseTristate(s string) (Tristate, bool) {
	switch s {
	case "n":
		return No, true
	case "m":
		return Mod, true
	case "y":
		return Yes, true
	default:
		return No, false
	}
}

// TristateAnd implements AND as min.
func TristateAnd(a, b Tristate) Tristate {
	if a < b {
		return a
	}
	return b
}

// TristateOr implements OR as max.
func TristateOr(a, b Tristate) Tristate {
	if a > b {
		return a
	}
	return b
}

// TristateNot implements NOT as 2-x restricted to {n,y}; NOT m is m.
func TristateNot(a Tristate) Tristate {
	if a == Mod {
		return Mod
	}
	return Yes - a
}

// clampBool clamps a Tristate to {n,y}, promoting m to y, as required
// for BOOL-typed symbols.
func clampBool(t Tristate) Tristate {
	if t == Mod {
		return Yes
	}
	return t
}

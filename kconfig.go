// SPDX-License-Identifier: Apache-2.0
// Copyright 2020 syzkaller project authors. All rights reserved.
// Copyright 2022 Unikraft GmbH. All rights reserved.

// Package kconfig implements parsing of the Linux kernel Kconfig language
// and .config/defconfig/autoconf.h artifacts, a semantic model of Symbols,
// Choices and MenuNodes, and a lazy three-valued evaluation engine over
// dependency expressions. For the language reference, see
// https://www.kernel.org/doc/html/latest/kbuild/kconfig-language.html, plus
// the rsource/gsource extensions documented alongside this package.
package kconfig

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"kconfig.sh/internal/klog"
)

const defaultPrefix = "CONFIG_"

// Kconfig is the root context of a parsed Kconfig tree: the interned symbol
// table, the defined-Symbol list in parse order, the root MenuNode, the
// modules Symbol (if any), the warning list, and the CONFIG_ prefix and
// environment overlay used by .config I/O.
//
// A *Kconfig is not safe for concurrent mutation, but distinct instances
// are fully independent and may be used in parallel from separate
// goroutines.
type Kconfig struct {
	srctree string
	prefix  string
	env     Environment

	syms        map[string]*Symbol
	definedSyms []*Symbol
	choices     []*Choice

	topNode      *MenuNode
	mainmenuText string

	symY, symM, symN *Symbol
	modulesSym       *Symbol

	ctx        context.Context
	warn       bool
	warnWriter io.Writer
	useLogger  bool

	warnings []string
}

// Option configures a Kconfig instance at construction time, the
// idiomatic-Go replacement for the distilled spec's keyword-argument
// constructor Kconfig(path, warn=true, warn_to_stderr=true).
type Option func(*Kconfig)

// WithWarn enables or disables printing/logging of warnings as they're
// raised. Warnings are appended to Warnings() either way.
func WithWarn(enabled bool) Option {
	return func(k *Kconfig) { k.warn = enabled }
}

// WithWarnWriter sets the writer warnings are printed to as they're raised
// (in addition to always being appended to Warnings()). Pass nil to disable
// printing while still collecting warnings.
func WithWarnWriter(w io.Writer) Option {
	return func(k *Kconfig) {
		if w == nil {
			w = io.Discard
		}
		k.warnWriter = w
	}
}

// WithSrctree sets the root directory that plain `source` paths resolve
// against. Defaults to the directory containing the root Kconfig file.
func WithSrctree(dir string) Option {
	return func(k *Kconfig) { k.srctree = dir }
}

// WithPrefix overrides the .config value prefix, "CONFIG_" by default.
func WithPrefix(prefix string) Option {
	return func(k *Kconfig) { k.prefix = prefix }
}

// WithEnv overlays additional NAME=value bindings onto the OS environment
// used for $NAME/$(NAME) expansion.
func WithEnv(kvs ...*KeyValue) Option {
	return func(k *Kconfig) {
		for _, kv := range kvs {
			k.env.Set(kv.Key, kv.Value)
		}
	}
}

// WithLogger installs a logrus logger used for warning output instead of
// the plain writer set by WithWarnWriter, by threading it onto the
// instance's context via internal/klog.WithLogger — the teacher's own
// context-threaded logging convention (log/context.go), rather than holding
// the *logrus.Logger directly.
func WithLogger(logger *logrus.Logger) Option {
	return func(k *Kconfig) {
		k.ctx = klog.WithLogger(k.ctx, logger)
		k.useLogger = true
	}
}

// NewKconfig parses the Kconfig file at path (following source/rsource/
// gsource includes) and finalizes the resulting menu tree. ctx carries the
// logger installed by WithLogger, if any; pass context.Background() when
// there's no broader context to thread through.
func NewKconfig(ctx context.Context, path string, opts ...Option) (*Kconfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewKconfigFromData(ctx, data, path, opts...)
}

// NewKconfigFromData parses Kconfig source already in memory, as if it had
// been read from the given path (used to resolve relative source/rsource
// paths and for diagnostics).
func NewKconfigFromData(ctx context.Context, data []byte, path string, opts ...Option) (*Kconfig, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	k := &Kconfig{
		ctx:     ctx,
		srctree: filepath.Dir(path),
		prefix:  defaultPrefix,
		env:     NewEnvironment(),
		syms:    map[string]*Symbol{},
		warn:    true,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.warnWriter == nil && !k.useLogger {
		k.warnWriter = colorableStderr()
	}

	// The y/n/m constants must exist before parsing starts: default
	// values and conditions reference them as ordinary identifiers, and
	// internSymbol would otherwise hand out throwaway placeholders that
	// the finalizer's constant pass could not retroactively fix up.
	installConstants(k)

	p := newParser(k, data, filepath.Dir(path), path)
	root, err := p.parseRootFile()
	if err != nil {
		return nil, err
	}
	k.topNode = root
	if p.mainmenuText != "" {
		k.mainmenuText = p.mainmenuText
	}

	finalize(k)
	buildDependencyIndex(k)

	if err := checkInvariants(k); err != nil {
		return nil, err
	}

	return k, nil
}

// Symbol looks up a Symbol by name (without the CONFIG_ prefix). The
// second return value is false if no Symbol with that name was ever
// declared or referenced.
func (k *Kconfig) Symbol(name string) (*Symbol, bool) {
	s, ok := k.syms[name]
	return s, ok
}

// internSymbol returns the Symbol named name, creating an UNKNOWN
// placeholder Symbol if this is the first reference — undefined Symbols
// materialize as untyped placeholders rather than aborting the parse.
func (k *Kconfig) internSymbol(name string) *Symbol {
	if s, ok := k.syms[name]; ok {
		return s
	}
	s := newSymbol(k, name)
	k.syms[name] = s
	return s
}

// Choices returns every Choice block declared in the tree.
func (k *Kconfig) Choices() []*Choice { return k.choices }

// TopNode returns the root MenuNode (the mainmenu entry).
func (k *Kconfig) TopNode() *MenuNode { return k.topNode }

// DefinedSymbols returns every Symbol that was actually declared (as
// opposed to merely referenced) by a config/menuconfig statement, in parse
// order.
func (k *Kconfig) DefinedSymbols() []*Symbol { return k.definedSyms }

// MainMenuText returns the text from the `mainmenu` statement, or "" if
// none was present.
func (k *Kconfig) MainMenuText() string { return k.mainmenuText }

// Warnings returns every warning raised so far, in the order raised.
func (k *Kconfig) Warnings() []string { return k.warnings }

// Prefix returns the .config value prefix in effect for this instance
// (default "CONFIG_").
func (k *Kconfig) Prefix() string { return k.prefix }

// ModulesSymbol returns the Symbol designated `option modules`, or nil if
// none was declared. Its value only affects which modes a tristate Choice
// admits; the m constant and tristate Symbols can take the value m whether
// or not a modules Symbol exists.
func (k *Kconfig) ModulesSymbol() *Symbol { return k.modulesSym }

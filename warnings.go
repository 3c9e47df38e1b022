// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"kconfig.sh/internal/klog"
)

// SyntaxError is a fatal lexer/parser rejection: unterminated string,
// unknown keyword, mismatched endif/endmenu/endchoice, or an unreadable
// sourced file. (A conflicting re-declaration of a Symbol's type is only a
// Warning; the first type is kept.) It aborts the current parse,
// and is grounded on the teacher's parser.failf formatting
// ("file:line:col: msg"), promoted to a proper error type in the style of
// the teacher's cmdfactory.FlagError (Error()/Unwrap() pair).
type SyntaxError struct {
	File string
	Line int
	Col  int
	Msg  string
	Text string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s\n%s", e.File, e.Line, e.Col, e.Msg, e.Text)
}

// InternalError wraps a violated invariant or other implementation bug.
// Like SyntaxError it is fatal, but unlike SyntaxError it never originates
// from the shape of the input.
type InternalError struct {
	cause error
}

func (e *InternalError) Error() string { return "internal error: " + e.cause.Error() }
func (e *InternalError) Unwrap() error { return e.cause }

// newInternalError wraps cause with context, the same way the teacher's
// kconfig/preprocessor.go wraps shell-exec failures with errors.Wrap.
func newInternalError(cause error, msg string) *InternalError {
	return &InternalError{cause: errors.Wrap(cause, msg)}
}

// Warning is a non-fatal condition collected onto Kconfig.Warnings()
// rather than aborting the parse/evaluation: non-bool/tristate select/imply
// targets, out-of-range int/hex values, unassignable or invalid values,
// unknown CONFIG_ lines, type redefinitions and misplaced properties.
// References to undefined symbols, comparison type mismatches and cyclic
// choice defaults are not reported.
type Warning struct {
	File string // may be empty for warnings raised outside parsing
	Line int
	Msg  string
}

func (w Warning) String() string {
	if w.File == "" {
		return w.Msg
	}
	return fmt.Sprintf("%s:%d: %s", w.File, w.Line, w.Msg)
}

// addWarning records a warning on the instance and, if warning emission is
// enabled, either routes it through the context-threaded logrus logger
// installed by WithLogger (internal/klog, grounded on the teacher's
// log/context.go), or writes it to the configured warning writer, wrapped
// to the writer's terminal width and colorized if the destination looks
// like a terminal — the same decision the teacher's pkg/iostreams color
// scheme makes via EnvColorDisabled/EnvColorForced, here driven directly by
// mattn/go-isatty rather than NO_COLOR/CLICOLOR env vars.
func (k *Kconfig) addWarning(w Warning) {
	k.warnings = append(k.warnings, w.String())
	if !k.warn {
		return
	}

	if k.useLogger {
		klog.FromContext(k.ctx).Warn(w.String())
		return
	}
	if k.warnWriter == nil {
		return
	}
	fmt.Fprintln(k.warnWriter, colorizeWarning(k.warnWriter, wrapWarningText(k.warnWriter, w.String())))
}

func colorizeWarning(w io.Writer, msg string) string {
	if !writerIsTerminal(w) {
		return "warning: " + msg
	}
	const (
		yellow = "\033[33m"
		reset  = "\033[0m"
	)
	return yellow + "warning: " + msg + reset
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// colorableStderr wraps os.Stderr the way the teacher's pkg/iostreams does
// for its own color scheme, so ANSI escapes render correctly on Windows
// terminals too.
func colorableStderr() io.Writer {
	return colorable.NewColorableStderr()
}

// wrapWarningText wraps msg to the terminal width reported for w (falling
// back to 80 columns when the width can't be determined).
func wrapWarningText(w io.Writer, msg string) string {
	width := 80
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(int(f.Fd())); err == nil && cols > 0 {
			width = cols
		}
	}
	return wrapText(msg, width)
}

func wrapText(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	var out []byte
	lineLen := 0
	lastSpace := -1
	for i := 0; i < len(s); i++ {
		out = append(out, s[i])
		lineLen++
		if s[i] == ' ' {
			lastSpace = len(out) - 1
		}
		if lineLen >= width && lastSpace >= 0 {
			out[lastSpace] = '\n'
			lineLen = len(out) - lastSpace - 1
			lastSpace = -1
		}
	}
	return string(out)
}

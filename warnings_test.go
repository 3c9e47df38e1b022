// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"kconfig.sh/internal/klog"
)

// WithLogger routes addWarning through internal/klog instead of the plain
// warnWriter.
func TestAddWarningRoutesThroughLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.Out = &buf
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})

	k := parseString(t, "config FOO\n\tbool\n")
	k.warn = true
	k.ctx = klog.WithLogger(k.ctx, logger)
	k.useLogger = true

	k.addWarning(Warning{Msg: "undefined symbol BAR referenced"})

	assert.Contains(t, buf.String(), "undefined symbol BAR referenced")
}

// Without WithLogger, addWarning falls back to the width-wrapped, colorized
// warnWriter path, exercising wrapWarningText.
func TestAddWarningUsesWrappedWriterWithoutLogger(t *testing.T) {
	var buf bytes.Buffer
	k := parseString(t, "config FOO\n\tbool\n")
	k.warn = true
	k.useLogger = false
	k.warnWriter = &buf

	k.addWarning(Warning{Msg: "undefined symbol BAZ referenced"})

	assert.Contains(t, buf.String(), "undefined symbol BAZ referenced")
}

func TestInternalErrorWrapsCause(t *testing.T) {
	err := newInternalError(errConstantMissing, "y")
	assert.Contains(t, err.Error(), "internal error:")
	assert.Contains(t, err.Error(), "y")
	assert.ErrorIs(t, err, errConstantMissing)
}

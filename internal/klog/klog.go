// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

// Package klog threads a *logrus.Logger through a context.Context, in the
// exact shape of the teacher's log/context.go (kraftkit.sh/log), renamed so
// a standalone library doesn't collide with the teacher's module-global
// logging package.
package klog

import (
	"context"

	"github.com/sirupsen/logrus"
)

var (
	// G is an alias for FromContext.
	G = FromContext

	// L is the default logger used when no context logger is installed.
	L = logrus.StandardLogger()
)

type contextKey struct{}

// WithLogger returns a new context carrying logger, retrievable later via
// FromContext/G.
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger installed in ctx, or the inert default
// logger if none was installed.
func FromContext(ctx context.Context) *logrus.Logger {
	l, ok := ctx.Value(contextKey{}).(*logrus.Logger)
	if !ok || l == nil {
		return L
	}
	return l
}

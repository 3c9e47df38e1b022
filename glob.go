// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

package kconfig

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// expandGlobSource resolves a gsource "pattern" relative to baseDir,
// returning matching file paths in sorted order. A pattern with zero
// matches is not an error — gsource is "include-if-exists".
func expandGlobSource(baseDir, pattern string) ([]string, error) {
	full := pattern
	if !filepath.IsAbs(full) {
		full = filepath.Join(baseDir, pattern)
	}

	g, err := glob.Compile(full, filepath.Separator)
	if err != nil {
		return nil, errors.Wrapf(err, "bad gsource pattern %q", pattern)
	}

	var matches []string
	err = filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		if g.Match(path) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	sort.Strings(matches)
	return matches, nil
}

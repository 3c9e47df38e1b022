// SPDX-License-Identifier: Apache-2.0
// Copyright 2022 Unikraft GmbH. All rights reserved.

// Command kconfig is a thin, non-interactive front end over the kconfig
// package: parse a Kconfig tree, optionally load a .config over it, and
// write out whichever artifacts were asked for. It exists to exercise the
// library end to end, not as a replacement for menuconfig/xconfig.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"kconfig.sh"
)

type rootFlags struct {
	kconfigPath string
	dotConfig   string
	writeConfig string
	writeMin    string
	writeHeader string
	syncDepsDir string
	printTree   bool
	prefix      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f rootFlags

	cmd := &cobra.Command{
		Use:   "kconfig <Kconfig-file>",
		Short: "Parse a Kconfig tree and emit .config/defconfig/autoconf.h artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.kconfigPath = args[0]
			return runRoot(cmd, &f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.dotConfig, "config", "", "load this .config over the parsed tree before writing artifacts")
	flags.StringVar(&f.writeConfig, "write-config", "", "write a full .config to this path")
	flags.StringVar(&f.writeMin, "write-min-config", "", "write a minimal (defconfig) .config to this path")
	flags.StringVar(&f.writeHeader, "write-autoconf", "", "write an autoconf.h-style C header to this path")
	flags.StringVar(&f.syncDepsDir, "sync-deps", "", "touch per-symbol headers under this directory for changed values")
	flags.StringVar(&f.prefix, "prefix", "CONFIG_", "value prefix used by .config/autoconf output")
	flags.BoolVar(&f.printTree, "print-tree", false, "dump the parsed menu tree to stdout")

	return cmd
}

func runRoot(cmd *cobra.Command, f *rootFlags) error {
	k, err := kconfig.NewKconfig(cmd.Context(), f.kconfigPath, kconfig.WithPrefix(f.prefix))
	if err != nil {
		return err
	}

	if f.dotConfig != "" {
		if err := k.LoadConfig(f.dotConfig, true); err != nil {
			return err
		}
	}

	if f.printTree {
		if err := kconfig.PrintTree(k, cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	if f.writeConfig != "" {
		if err := k.WriteConfig(f.writeConfig); err != nil {
			return err
		}
	}
	if f.writeMin != "" {
		if err := k.WriteMinConfig(f.writeMin); err != nil {
			return err
		}
	}
	if f.writeHeader != "" {
		if err := k.WriteAutoconf(f.writeHeader); err != nil {
			return err
		}
	}
	if f.syncDepsDir != "" {
		touched, err := k.SyncDeps(f.syncDepsDir)
		if err != nil {
			return err
		}
		for _, path := range touched {
			fmt.Fprintln(cmd.OutOrStdout(), path)
		}
	}

	for _, w := range k.Warnings() {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}

	return nil
}

// Copyright © 2019-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Pcs is a multicall binary of the 10GBASE-R PCS tools: the pcsd
// monitoring daemon, the pcsdiag line exerciser, and the redis state
// watcher. Run "pcs COMMAND", or link the binary to a command name.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/platinasystems/pcs/cmd"
	"github.com/platinasystems/pcs/cmd/pcsd"
	"github.com/platinasystems/pcs/cmd/pcsdiag"
	"github.com/platinasystems/pcs/cmd/watch"
	"github.com/platinasystems/pcs/lang"
)

const usageText = `
	pcs COMMAND [ ARGS ]...
	pcs COMMAND -[-]HELPER [ ARGS ]...
	pcs HELPER [ COMMAND ] [ ARGS ]...

	HELPER := { apropos | help | man | usage }`

type maner interface {
	Man() lang.Alt
}

var byName = map[string]cmd.Cmd{}

func plot(cmds ...cmd.Cmd) {
	for _, v := range cmds {
		byName[v.String()] = v
	}
}

func names() []string {
	keys := make([]string, 0, len(byName))
	for k := range byName {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func main() {
	plot(
		&pcsd.Command{},
		pcsdiag.Command{},
		watch.Command{},
	)
	args := os.Args
	if len(args) > 0 {
		if base := filepath.Base(args[0]); byName[base] != nil {
			args = append([]string{base}, args[1:]...)
		} else {
			args = args[1:]
		}
	}
	if err := run(args...); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n",
			filepath.Base(os.Args[0]), err)
		os.Exit(1)
	}
}

func run(args ...string) error {
	cmd.Swap(args)
	if len(args) == 0 {
		return usage()
	}
	name, args := args[0], args[1:]
	switch name {
	case "apropos":
		return apropos(args...)
	case "help":
		return help(args...)
	case "man":
		return man(args...)
	case "usage":
		return usage(args...)
	}
	v, found := byName[name]
	if !found {
		return fmt.Errorf("%s: command not found", name)
	}
	if closer, found := v.(io.Closer); found &&
		cmd.WhatKind(v).IsDaemon() {
		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGTERM, syscall.SIGINT)
		go func() {
			<-sigch
			closer.Close()
		}()
	}
	return v.Main(args...)
}

func usageOf(v cmd.Cmd) string {
	return fmt.Sprint("usage:\t", strings.TrimSpace(v.Usage()))
}

func apropos(args ...string) error {
	pad := func(n int) {
		if n < 0 {
			fmt.Print("\n\t\t")
		} else {
			fmt.Print("                "[:n])
		}
	}
	if len(args) == 0 {
		args = names()
	}
	for i, name := range args {
		if v, found := byName[name]; found {
			fmt.Print(name)
			pad(16 - len(name))
			fmt.Println(v.Apropos())
		} else if i == 0 {
			return fmt.Errorf("%s: not found", name)
		}
	}
	return nil
}

func help(args ...string) error {
	if len(args) > 0 {
		v, found := byName[args[0]]
		if !found {
			return fmt.Errorf("%s: not found", args[0])
		}
		fmt.Println(usageOf(v))
		return nil
	}
	if err := usage(); err != nil {
		return err
	}
	fmt.Println()
	return apropos()
}

func usage(args ...string) error {
	if len(args) > 0 {
		v, found := byName[args[0]]
		if !found {
			return fmt.Errorf("%s: not found", args[0])
		}
		fmt.Println(usageOf(v))
		return nil
	}
	fmt.Print("usage:\t", strings.TrimSpace(usageText), "\n")
	return nil
}

func man(args ...string) error {
	var cmds []cmd.Cmd
	for i, arg := range args {
		v := byName[arg]
		if v == nil {
			if i == 0 {
				return fmt.Errorf("%s: not found", arg)
			}
			break
		}
		cmds = append(cmds, v)
	}
	if len(cmds) == 0 {
		return fmt.Errorf("COMMAND: missing")
	}
	for i, v := range cmds {
		if i > 0 {
			fmt.Println()
		}
		fmt.Print("NAME\n\t", v, " - ", v.Apropos(),
			"\n\nSYNOPSIS\n\t", strings.TrimSpace(v.Usage()),
			"\n")
		if method, found := v.(maner); found {
			man := method.Man().String()
			if !strings.HasPrefix(man, "\n") {
				fmt.Println()
			}
			fmt.Print(man)
			if !strings.HasSuffix(man, "\n") {
				fmt.Println()
			}
		}
	}
	return nil
}

package main

import (
	"os"
	"path/filepath"

	"gopkg.in/urfave/cli.v1"

	"github.com/kristofer/cmel/internal/bytefmt"
	"github.com/kristofer/cmel/internal/natives"
	"github.com/kristofer/cmel/internal/vm"
)

// registerNatives wires the native registry into a freshly-built VM.
// newConfiguredVM calls it for every subcommand, including build and
// disasm, which never execute user code.
func registerNatives(v *vm.VM) {
	natives.Register(v)
}

// runCommand implements `cmel run <file>` (spec.md §6): .cmelc caches
// load straight through bytefmt.Decode, anything else is treated as
// source and goes through vm.Interpret (which in turn calls the
// compiler via the hook package compiler installed at init time).
func runCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("run: no file specified", 1)
	}
	path := c.Args().First()

	v, err := newConfiguredVM(c)
	if err != nil {
		return err
	}

	if filepath.Ext(path) == ".cmelc" {
		f, err := os.Open(path)
		if err != nil {
			return wrapHostError("opening bytecode cache", err)
		}
		defer f.Close()

		fn, err := bytefmt.Decode(v, f)
		if err != nil {
			return wrapHostError("decoding bytecode cache", err)
		}
		res := v.InterpretFunction(fn)
		exitForResult(res)
		return nil
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return wrapHostError("reading source file", err)
	}
	res := v.Interpret(string(source))
	exitForResult(res)
	return nil
}

// buildCommand implements `cmel build <file.cmel> [out.cmelc]`: compile
// only (never execute), cache the result with bytefmt.Encode. This is
// what lets `cmel run out.cmelc` skip the compiler entirely on later
// runs -- the fast-path cmd/smog's `compile`/`.sg` pair demonstrates.
func buildCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("build: no file specified", 1)
	}
	inPath := c.Args().Get(0)
	outPath := c.Args().Get(1)
	if outPath == "" {
		ext := filepath.Ext(inPath)
		outPath = inPath[:len(inPath)-len(ext)] + ".cmelc"
	}

	v, err := newConfiguredVM(c)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(inPath)
	if err != nil {
		return wrapHostError("reading source file", err)
	}

	fn, ok := compileSource(v, string(source))
	if !ok {
		os.Exit(65)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return wrapHostError("creating output file", err)
	}
	defer out.Close()

	if err := bytefmt.Encode(fn, out); err != nil {
		return wrapHostError("encoding bytecode cache", err)
	}
	return nil
}

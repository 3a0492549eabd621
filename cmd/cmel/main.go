// Command cmel is the CLI driver for the cmel bytecode VM: it wires
// together the lexer/compiler/vm/natives packages and exposes them as
// run/repl/disasm/build subcommands (the version is shown by the
// --version flag urfave/cli adds), following the same
// command-table shape as the teacher's cmd/smog but built on
// gopkg.in/urfave/cli.v1 (the flag/subcommand library the example pack
// itself depends on) instead of a hand-rolled os.Args switch.
package main

import (
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/kristofer/cmel/internal/config"
	"github.com/kristofer/cmel/internal/vm"
)

const version = "0.1.0"

var (
	debugGCFlag = cli.BoolFlag{
		Name:  "debug-gc",
		Usage: "trace each garbage collection cycle to stderr",
	}
	heapMBFlag = cli.Float64Flag{
		Name:  "heap-mb",
		Usage: "initial heap size, in MiB, before the first collection",
		Value: 1,
	}
	framesMaxFlag = cli.IntFlag{
		Name:  "frames-max",
		Usage: "advisory call-frame depth limit (informational; the enforced limit is compiled in)",
		Value: vm.FramesMax,
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a cmel.toml file of VM tunables",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "cmel"
	app.Usage = "run and inspect .cmel programs"
	app.Version = version
	app.Flags = []cli.Flag{debugGCFlag, heapMBFlag, framesMaxFlag, configFlag}

	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "compile and execute a .cmel source file or .cmelc cache",
			ArgsUsage: "<file>",
			Action:    runCommand,
		},
		{
			Name:   "repl",
			Usage:  "start an interactive read-eval-print loop",
			Action: replCommand,
		},
		{
			Name:      "disasm",
			Usage:     "compile a .cmel file and print its chunk disassembly",
			ArgsUsage: "<file.cmel>",
			Action:    disasmCommand,
		},
		{
			Name:      "build",
			Usage:     "compile a .cmel file to a .cmelc bytecode cache",
			ArgsUsage: "<file.cmel> [out.cmelc]",
			Action:    buildCommand,
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() == 0 {
			return replCommand(c)
		}
		return runCommand(c)
	}

	if err := app.Run(os.Args); err != nil {
		reportHostError(err)
		os.Exit(1)
	}
}

// newConfiguredVM builds a VM with natives registered and cfg applied,
// the common setup every subcommand below needs.
func newConfiguredVM(c *cli.Context) (*vm.VM, error) {
	cfg := config.Default()
	if path := c.GlobalString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if c.GlobalIsSet("heap-mb") {
		cfg.InitialHeapMB = c.GlobalFloat64("heap-mb")
	}
	if c.GlobalIsSet("debug-gc") {
		cfg.DebugGC = c.GlobalBool("debug-gc")
	}

	v := vm.New()
	config.Apply(cfg, v)
	registerNatives(v)
	return v, nil
}

func exitForResult(res vm.InterpretResult) {
	switch res {
	case vm.InterpretCompileError:
		os.Exit(65)
	case vm.InterpretRuntimeError:
		os.Exit(70)
	}
}

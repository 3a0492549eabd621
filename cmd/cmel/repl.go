package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"github.com/kristofer/cmel/internal/vm"
)

const historyFile = ".cmel_history"

// replCommand starts an interactive session: one persistent VM, so
// globals and imports declared in one line stay visible to the next,
// exactly as the teacher's runREPL keeps one VM+compiler pair alive
// across inputs. Line editing and history come from peterh/liner
// (ProbeChain uses the same library for its JS console).
func replCommand(c *cli.Context) error {
	v, err := newConfiguredVM(c)
	if err != nil {
		return err
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("cmel %s\n", version)
	fmt.Println("Type an expression or statement; Ctrl-D to exit.")

	for {
		input, err := line.Prompt("cmel> ")
		if err == liner.ErrPromptAborted || err != nil {
			break
		}
		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(input)

		source := trimmed
		if !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}") {
			source = trimmed + ";"
		}

		res := v.Interpret(source)
		if res == vm.InterpretRuntimeError {
			// The VM already printed a diagnostic to stderr; the REPL
			// keeps going rather than exiting like `cmel run` would.
			continue
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
	return nil
}

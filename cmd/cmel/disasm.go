package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/object"
)

// disasmCommand implements `cmel disasm <file.cmel>`: compile without
// executing and print every function's chunk as a flat instruction
// listing, the same offset/opcode/operand shape the teacher's
// pkg/vm.Debugger.listInstructions prints for .sg files, generalized
// to the new opcode set and extended to walk nested functions (every
// OP_CLOSURE constant) recursively since this VM has no separate
// class/method constant kinds -- methods and blocks are just Function
// constants.
func disasmCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.NewExitError("disasm: no file specified", 1)
	}
	path := c.Args().First()

	v, err := newConfiguredVM(c)
	if err != nil {
		return err
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return wrapHostError("reading source file", err)
	}

	fn, ok := compileSource(v, string(source))
	if !ok {
		os.Exit(65)
	}

	disassembleFunction(fn, map[*chunk.Chunk]bool{})
	return nil
}

func disassembleFunction(fn *object.Function, seen map[*chunk.Chunk]bool) {
	if seen[fn.Chunk] {
		return
	}
	seen[fn.Chunk] = true

	fmt.Printf("== %s ==\n", fn.DisplayName())
	c := fn.Chunk
	var nested []*object.Function

	for offset := 0; offset < len(c.Code); {
		offset = disassembleInstruction(c, offset, &nested)
	}
	fmt.Println()

	for _, child := range nested {
		disassembleFunction(child, seen)
	}
}

// disassembleInstruction prints one instruction and returns the offset
// of the next one. Operand widths follow each opcode's encoding in
// package chunk/package compiler exactly.
func disassembleInstruction(c *chunk.Chunk, offset int, nested *[]*object.Function) int {
	fmt.Printf("%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Print("   | ")
	} else {
		fmt.Printf("%4d ", c.Lines[offset])
	}

	op := chunk.OpCode(c.Code[offset])
	switch op {
	case chunk.OpConstant:
		return constantInstruction(op, c, offset, nested)
	case chunk.OpConstantLong:
		return constantLongInstruction(op, c, offset, nested)
	case chunk.OpGetLocal, chunk.OpSetLocal, chunk.OpGetUpvalue, chunk.OpSetUpvalue,
		chunk.OpCall, chunk.OpBuildList:
		return byteInstruction(op, c, offset)
	case chunk.OpGetGlobal, chunk.OpDefineGlobal, chunk.OpSetGlobal,
		chunk.OpGetProperty, chunk.OpSetProperty, chunk.OpGetSuper,
		chunk.OpClass, chunk.OpMethod, chunk.OpImport, chunk.OpExport:
		return constantInstruction(op, c, offset, nested)
	case chunk.OpImportFrom:
		return doubleConstantInstruction(op, c, offset)
	case chunk.OpInvoke, chunk.OpSuperInvoke:
		return invokeInstruction(op, c, offset)
	case chunk.OpJump, chunk.OpJumpIfFalse:
		return jumpInstruction(op, c, offset, 1)
	case chunk.OpLoop:
		return jumpInstruction(op, c, offset, -1)
	case chunk.OpBuildMap:
		return byteInstruction(op, c, offset)
	case chunk.OpClosure:
		return closureInstruction(c, offset, nested)
	default:
		fmt.Println(op.String())
		return offset + 1
	}
}

func constantInstruction(op chunk.OpCode, c *chunk.Chunk, offset int, nested *[]*object.Function) int {
	idx := c.Code[offset+1]
	v := c.Constants[idx]
	fmt.Printf("%-16s %4d '%s'\n", op.String(), idx, v.GoString())
	if fn, ok := v.AsObj().(*object.Function); ok {
		*nested = append(*nested, fn)
	}
	return offset + 2
}

func constantLongInstruction(op chunk.OpCode, c *chunk.Chunk, offset int, nested *[]*object.Function) int {
	idx := int(c.Code[offset+1]) | int(c.Code[offset+2])<<8 | int(c.Code[offset+3])<<16
	v := c.Constants[idx]
	fmt.Printf("%-16s %4d '%s'\n", op.String(), idx, v.GoString())
	if fn, ok := v.AsObj().(*object.Function); ok {
		*nested = append(*nested, fn)
	}
	return offset + 4
}

func doubleConstantInstruction(op chunk.OpCode, c *chunk.Chunk, offset int) int {
	a, b := c.Code[offset+1], c.Code[offset+2]
	fmt.Printf("%-16s %4d %4d\n", op.String(), a, b)
	return offset + 3
}

func byteInstruction(op chunk.OpCode, c *chunk.Chunk, offset int) int {
	slot := c.Code[offset+1]
	fmt.Printf("%-16s %4d\n", op.String(), slot)
	return offset + 2
}

func invokeInstruction(op chunk.OpCode, c *chunk.Chunk, offset int) int {
	nameIdx := c.Code[offset+1]
	argCount := c.Code[offset+2]
	name := c.Constants[nameIdx]
	fmt.Printf("%-16s (%d args) %4d '%s'\n", op.String(), argCount, nameIdx, name.GoString())
	return offset + 3
}

func jumpInstruction(op chunk.OpCode, c *chunk.Chunk, offset int, sign int) int {
	jump := int(c.Code[offset+1])<<8 | int(c.Code[offset+2])
	target := offset + 3 + sign*jump
	fmt.Printf("%-16s %4d -> %d\n", op.String(), offset, target)
	return offset + 3
}

func closureInstruction(c *chunk.Chunk, offset int, nested *[]*object.Function) int {
	idx := c.Code[offset+1]
	v := c.Constants[idx]
	fmt.Printf("%-16s %4d '%s'\n", chunk.OpClosure.String(), idx, v.GoString())
	fn, _ := v.AsObj().(*object.Function)
	if fn != nil {
		*nested = append(*nested, fn)
	}
	next := offset + 2
	if fn != nil {
		for i := 0; i < fn.UpvalueCount; i++ {
			isLocal := c.Code[next]
			index := c.Code[next+1]
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Printf("%04d      |                     %s %d\n", next, kind, index)
			next += 2
		}
	}
	return next
}

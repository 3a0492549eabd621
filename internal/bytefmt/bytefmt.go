// Package bytefmt serializes a compiled *object.Function tree to and
// from the .cmelc bytecode cache format, so `cmel build` can produce a
// file `cmel run` loads directly instead of re-lexing and re-parsing
// source every time (spec.md's domain-stack wiring for cmd/cmel).
//
// The layout generalizes the teacher's .sg format (package
// pkg/bytecode in this repo's history) to cmel's opcode set and
// constant kinds: a magic/version header, then the top-level function
// (arity, upvalue count, name, upvalue descriptors), then its code,
// line and constants sections. Functions nest: a Function
// constant recursively encodes its own chunk, which is how closures
// defined inside other functions (every nested fn literal, every
// method) end up in the cache.
package bytefmt

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/kristofer/cmel/internal/chunk"
	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

const (
	// magic is the file signature for .cmelc files: "CMEL".
	magic   uint32 = 0x434D454C
	version uint32 = 1
)

const (
	constNil byte = iota
	constBool
	constNumber
	constString
	constFunction
)

// Encode writes fn (normally the top-level script function produced by
// package compiler) to w in the .cmelc format.
func Encode(fn *object.Function, w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, magic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, version); err != nil {
		return err
	}
	return writeFunction(w, fn)
}

// Decode reads a .cmelc file produced by Encode and reconstructs the
// function tree, interning every string constant and registering every
// allocated object with v's garbage collector via v's New* methods --
// exactly as the compiler would have, had it compiled the source
// fresh.
func Decode(v *vm.VM, r io.Reader) (*object.Function, error) {
	var gotMagic uint32
	if err := binary.Read(r, binary.LittleEndian, &gotMagic); err != nil {
		return nil, fmt.Errorf("bytefmt: reading header: %w", err)
	}
	if gotMagic != magic {
		return nil, fmt.Errorf("bytefmt: not a .cmelc file (bad magic 0x%08X)", gotMagic)
	}
	var gotVersion uint32
	if err := binary.Read(r, binary.LittleEndian, &gotVersion); err != nil {
		return nil, fmt.Errorf("bytefmt: reading header: %w", err)
	}
	if gotVersion != version {
		return nil, fmt.Errorf("bytefmt: unsupported format version %d (expected %d)", gotVersion, version)
	}
	return readFunction(v, r)
}

func writeFunction(w io.Writer, fn *object.Function) error {
	if err := binary.Write(w, binary.LittleEndian, int32(fn.Arity)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(fn.UpvalueCount)); err != nil {
		return err
	}
	if err := writeOptionalString(w, fn.Name); err != nil {
		return err
	}
	if err := writeUpvalueDescs(w, fn.Upvalues); err != nil {
		return err
	}
	return writeChunk(w, fn.Chunk)
}

func readFunction(v *vm.VM, r io.Reader) (*object.Function, error) {
	var arity, upvalueCount int32
	if err := binary.Read(r, binary.LittleEndian, &arity); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &upvalueCount); err != nil {
		return nil, err
	}
	name, err := readOptionalString(v, r)
	if err != nil {
		return nil, err
	}
	upvalues, err := readUpvalueDescs(r)
	if err != nil {
		return nil, err
	}
	c, err := readChunk(v, r)
	if err != nil {
		return nil, err
	}

	fn := v.NewFunction()
	fn.Arity = int(arity)
	fn.UpvalueCount = int(upvalueCount)
	fn.Name = name
	fn.Upvalues = upvalues
	fn.Chunk = c
	return fn, nil
}

func writeUpvalueDescs(w io.Writer, descs []object.UpvalueDesc) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(descs))); err != nil {
		return err
	}
	for _, d := range descs {
		var isLocal byte
		if d.IsLocal {
			isLocal = 1
		}
		if err := binary.Write(w, binary.LittleEndian, isLocal); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, d.Index); err != nil {
			return err
		}
	}
	return nil
}

func readUpvalueDescs(r io.Reader) ([]object.UpvalueDesc, error) {
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, err
	}
	descs := make([]object.UpvalueDesc, count)
	for i := range descs {
		var isLocal, index byte
		if err := binary.Read(r, binary.LittleEndian, &isLocal); err != nil {
			return nil, err
		}
		if err := binary.Read(r, binary.LittleEndian, &index); err != nil {
			return nil, err
		}
		descs[i] = object.UpvalueDesc{IsLocal: isLocal != 0, Index: index}
	}
	return descs, nil
}

func writeChunk(w io.Writer, c *chunk.Chunk) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.Code))); err != nil {
		return err
	}
	if _, err := w.Write(c.Code); err != nil {
		return err
	}
	for _, line := range c.Lines {
		if err := binary.Write(w, binary.LittleEndian, int32(line)); err != nil {
			return err
		}
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(c.Constants))); err != nil {
		return err
	}
	for i, cst := range c.Constants {
		if err := writeConstant(w, cst); err != nil {
			return fmt.Errorf("constant %d: %w", i, err)
		}
	}
	return nil
}

func readChunk(v *vm.VM, r io.Reader) (*chunk.Chunk, error) {
	var codeLen uint32
	if err := binary.Read(r, binary.LittleEndian, &codeLen); err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(r, code); err != nil {
		return nil, err
	}
	lines := make([]int, codeLen)
	for i := range lines {
		var line int32
		if err := binary.Read(r, binary.LittleEndian, &line); err != nil {
			return nil, err
		}
		lines[i] = int(line)
	}
	var constCount uint32
	if err := binary.Read(r, binary.LittleEndian, &constCount); err != nil {
		return nil, err
	}
	constants := make([]value.Value, constCount)
	for i := range constants {
		cst, err := readConstant(v, r)
		if err != nil {
			return nil, fmt.Errorf("constant %d: %w", i, err)
		}
		constants[i] = cst
	}
	return &chunk.Chunk{Code: code, Lines: lines, Constants: constants}, nil
}

func writeConstant(w io.Writer, v value.Value) error {
	switch v.Kind() {
	case value.Nil:
		return binary.Write(w, binary.LittleEndian, constNil)
	case value.Bool:
		if err := binary.Write(w, binary.LittleEndian, constBool); err != nil {
			return err
		}
		var b byte
		if v.AsBool() {
			b = 1
		}
		return binary.Write(w, binary.LittleEndian, b)
	case value.Number:
		if err := binary.Write(w, binary.LittleEndian, constNumber); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, v.AsNumber())
	case value.Obj:
		switch o := v.AsObj().(type) {
		case *object.String:
			if err := binary.Write(w, binary.LittleEndian, constString); err != nil {
				return err
			}
			return writeString(w, o.Chars)
		case *object.Function:
			if err := binary.Write(w, binary.LittleEndian, constFunction); err != nil {
				return err
			}
			return writeFunction(w, o)
		default:
			return fmt.Errorf("constant of type %s cannot be cached", v.TypeName())
		}
	default:
		return fmt.Errorf("constant of type %s cannot be cached", v.TypeName())
	}
}

func readConstant(v *vm.VM, r io.Reader) (value.Value, error) {
	var tag byte
	if err := binary.Read(r, binary.LittleEndian, &tag); err != nil {
		return value.NilValue, err
	}
	switch tag {
	case constNil:
		return value.NilValue, nil
	case constBool:
		var b byte
		if err := binary.Read(r, binary.LittleEndian, &b); err != nil {
			return value.NilValue, err
		}
		return value.Bool_(b != 0), nil
	case constNumber:
		var n float64
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return value.NilValue, err
		}
		return value.Num(n), nil
	case constString:
		s, err := readString(r)
		if err != nil {
			return value.NilValue, err
		}
		return value.FromObj(v.Intern(s)), nil
	case constFunction:
		fn, err := readFunction(v, r)
		if err != nil {
			return value.NilValue, err
		}
		return value.FromObj(fn), nil
	default:
		return value.NilValue, fmt.Errorf("unknown constant tag 0x%02X", tag)
	}
}

func writeOptionalString(w io.Writer, s *object.String) error {
	if s == nil {
		return binary.Write(w, binary.LittleEndian, uint32(0xFFFFFFFF))
	}
	return writeString(w, s.Chars)
}

func readOptionalString(v *vm.VM, r io.Reader) (*object.String, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return nil, err
	}
	if length == 0xFFFFFFFF {
		return nil, nil
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return v.Intern(string(buf)), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
		return "", err
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

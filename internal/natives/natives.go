// Package natives registers the host functions and primitive-class
// methods spec.md §4.10 requires: clock/input/readFile/number at
// global scope, and the String/Number/List/Map method tables. Every
// registration closes over the *vm.VM it was built for, since
// object.NativeFn itself carries no VM reference (spec.md keeps the
// function signature free of that so natives stay plain data).
package natives

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kristofer/cmel/internal/object"
	"github.com/kristofer/cmel/internal/value"
	"github.com/kristofer/cmel/internal/vm"
)

var startTime = time.Now()

// Register installs every native listed in spec.md §4.10 into v: the
// global functions, and the method tables of v's four primitive
// classes (String/Number/List/Map).
func Register(v *vm.VM) {
	registerGlobals(v)
	registerTestIntrinsics(v)
	registerStringMethods(v)
	registerNumberMethods(v)
	registerListMethods(v)
	registerMapMethods(v)
}

func registerGlobals(v *vm.VM) {
	v.DefineNative("clock", 0, func(argCount int, args []value.Value) value.Value {
		return value.Num(time.Since(startTime).Seconds())
	})

	reader := bufio.NewReader(v.Stdin)
	v.DefineNative("input", 0, func(argCount int, args []value.Value) value.Value {
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return value.FromObj(v.Intern(""))
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) > 255 {
			line = line[:255]
		}
		return value.FromObj(v.Intern(line))
	})

	v.DefineNative("readFile", 1, func(argCount int, args []value.Value) value.Value {
		path, ok := asString(args[0])
		if !ok {
			return v.NativeError("readFile() expects a string path.")
		}
		data, err := readFile(path.Chars)
		if err != nil {
			return v.NativeError("Could not read file '%s': %v", path.Chars, err)
		}
		return value.FromObj(v.Intern(data))
	})

	v.DefineNative("number", 1, func(argCount int, args []value.Value) value.Value {
		n, ok := coerceNumber(args[0])
		if !ok {
			return v.NativeError("Cannot convert %s to a number.", args[0].TypeName())
		}
		return value.Num(n)
	})
}

// coerceNumber implements the lenient number() conversion spec.md
// §4.10 calls for: numbers pass through, booleans become 0/1, and
// strings parse with strtod-like leading-prefix leniency (trailing
// garbage after a valid numeric prefix is ignored, matching C's
// strtod rather than Go's stricter ParseFloat).
func coerceNumber(v value.Value) (float64, bool) {
	switch v.Kind() {
	case value.Number:
		return v.AsNumber(), true
	case value.Bool:
		if v.AsBool() {
			return 1, true
		}
		return 0, true
	case value.Obj:
		if s, ok := asString(v); ok {
			return strtod(s.Chars)
		}
	}
	return 0, false
}

// strtod parses the longest valid numeric prefix of s, mirroring the
// C library function spec.md names explicitly. Leading whitespace is
// skipped; trailing non-numeric text is simply ignored rather than
// rejected.
func strtod(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	end := 0
	seenDigit := false
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
			end++
		case c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E':
			end++
		default:
			goto done
		}
	}
done:
	if !seenDigit {
		return 0, false
	}
	for end > 0 {
		if n, err := strconv.ParseFloat(s[:end], 64); err == nil {
			return n, true
		}
		end--
	}
	return 0, false
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	return string(data), err
}

func asString(v value.Value) (*object.String, bool) {
	if !v.IsObj() {
		return nil, false
	}
	s, ok := v.AsObj().(*object.String)
	return s, ok
}

func asList(v value.Value) (*object.List, bool) {
	if !v.IsObj() {
		return nil, false
	}
	l, ok := v.AsObj().(*object.List)
	return l, ok
}

func asMap(v value.Value) (*object.Map, bool) {
	if !v.IsObj() {
		return nil, false
	}
	m, ok := v.AsObj().(*object.Map)
	return m, ok
}

func registerTestIntrinsics(v *vm.VM) {
	v.DefineNative("__enterTestMode", 0, func(argCount int, args []value.Value) value.Value {
		v.EnterTestMode()
		return value.NilValue
	})
	v.DefineNative("__exitTestMode", 0, func(argCount int, args []value.Value) value.Value {
		v.ExitTestMode()
		return value.NilValue
	})
	v.DefineNative("__setCurrentTest", 1, func(argCount int, args []value.Value) value.Value {
		name, ok := asString(args[0])
		if !ok {
			return v.NativeError("__setCurrentTest() expects a string name.")
		}
		v.SetCurrentTestName(name.Chars)
		return value.NilValue
	})
	v.DefineNative("__clearCurrentTest", 0, func(argCount int, args []value.Value) value.Value {
		v.ClearCurrentTestName()
		return value.NilValue
	})
	v.DefineNative("__testFailures", 0, func(argCount int, args []value.Value) value.Value {
		return v.TestFailures()
	})
}


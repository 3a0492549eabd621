package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubObj struct{ name string }

func (s *stubObj) ObjTypeName() string { return s.name }

func TestIsFalsey(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", NilValue, true},
		{"false", Bool_(false), true},
		{"true", Bool_(true), false},
		{"zero", Num(0), false},
		{"empty string object", FromObj(&stubObj{"string"}), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.IsFalsey())
		})
	}
}

func TestEqualRequiresMatchingKind(t *testing.T) {
	assert.False(t, Equal(Num(1), Bool_(true)))
	assert.True(t, Equal(Num(1), Num(1)))
	assert.True(t, Equal(NilValue, NilValue))
	assert.False(t, Equal(ErrorValue, ErrorValue), "error values never compare equal, even to themselves")
}

func TestEqualObjIsReferenceEquality(t *testing.T) {
	a := &stubObj{"string"}
	b := &stubObj{"string"}
	assert.True(t, Equal(FromObj(a), FromObj(a)))
	assert.False(t, Equal(FromObj(a), FromObj(b)), "distinct objects with the same contents are not equal without interning")
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "nil", NilValue.TypeName())
	assert.Equal(t, "bool", Bool_(true).TypeName())
	assert.Equal(t, "number", Num(1).TypeName())
	assert.Equal(t, "function", FromObj(&stubObj{"function"}).TypeName())
}

func TestFormatNumberIntegers(t *testing.T) {
	assert.Equal(t, "0", FormatNumber(0))
	assert.Equal(t, "3", FormatNumber(3))
	assert.Equal(t, "-3", FormatNumber(-3))
	assert.Equal(t, "1000000000000", FormatNumber(1e12))
}

func TestFormatNumberNegativeZeroIsNotInteger(t *testing.T) {
	// -0.0 fails the integer fast path on purpose so it prints as a
	// signed fixed-point zero rather than bare "0".
	got := FormatNumber(math.Copysign(0, -1))
	assert.NotEqual(t, "0", got)
}

func TestFormatNumberFractional(t *testing.T) {
	assert.Equal(t, "0.5", FormatNumber(0.5))
	assert.Equal(t, "3.14159", FormatNumber(3.14159))
	assert.Equal(t, "0.0001", FormatNumber(0.0001))
}

func TestFormatNumberSpecials(t *testing.T) {
	assert.Equal(t, "nan", FormatNumber(math.NaN()))
	assert.Equal(t, "inf", FormatNumber(math.Inf(1)))
	assert.Equal(t, "-inf", FormatNumber(math.Inf(-1)))
}

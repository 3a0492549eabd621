package natives

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/cmel/internal/value"
)

func TestStrtodLeadingPrefixLeniency(t *testing.T) {
	cases := []struct {
		in     string
		want   float64
		wantOk bool
	}{
		{"42", 42, true},
		{"  3.5", 3.5, true},
		{"3.5abc", 3.5, true},
		{"-12", -12, true},
		{"abc", 0, false},
		{"", 0, false},
		{"1e3", 1000, true},
	}
	for _, c := range cases {
		got, ok := strtod(c.in)
		assert.Equal(t, c.wantOk, ok, "input %q", c.in)
		if c.wantOk {
			assert.Equal(t, c.want, got, "input %q", c.in)
		}
	}
}

func TestCoerceNumberPassesNumbersThrough(t *testing.T) {
	n, ok := coerceNumber(value.Num(3.5))
	assert.True(t, ok)
	assert.Equal(t, 3.5, n)
}

func TestCoerceNumberConvertsBools(t *testing.T) {
	n, ok := coerceNumber(value.Bool_(true))
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)

	n, ok = coerceNumber(value.Bool_(false))
	assert.True(t, ok)
	assert.Equal(t, 0.0, n)
}

func TestCoerceNumberRejectsNil(t *testing.T) {
	_, ok := coerceNumber(value.NilValue)
	assert.False(t, ok)
}

package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kristofer/cmel/internal/value"
)

func TestWriteOpRecordsLine(t *testing.T) {
	c := New()
	c.WriteOp(OpAdd, 7)
	assert.Equal(t, []byte{byte(OpAdd)}, c.Code)
	assert.Equal(t, []int{7}, c.Lines)
}

func TestWriteConstantUsesShortFormBelow256(t *testing.T) {
	c := New()
	c.WriteConstant(value.Num(1), 1)
	assert.Equal(t, OpConstant, OpCode(c.Code[0]))
	assert.Equal(t, byte(0), c.Code[1])
}

func TestWriteConstantUsesLongFormAt256(t *testing.T) {
	c := New()
	for i := 0; i < 256; i++ {
		c.AddConstant(value.Num(float64(i)))
	}
	c.WriteConstant(value.Num(999), 1)

	assert.Equal(t, OpConstantLong, OpCode(c.Code[0]))
	idx := int(c.Code[1]) | int(c.Code[2])<<8 | int(c.Code[3])<<16
	assert.Equal(t, 256, idx)
	assert.Equal(t, float64(999), c.Constants[idx].AsNumber())
}

func TestAddConstantReturnsSequentialIndices(t *testing.T) {
	c := New()
	i0 := c.AddConstant(value.Num(1))
	i1 := c.AddConstant(value.Num(2))
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
}

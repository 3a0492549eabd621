package object

import "github.com/kristofer/cmel/internal/value"

// BoundMethod is the result of reading a user-defined method off an
// Instance: the receiver and the Closure to invoke with it installed
// in call slot 0.
type BoundMethod struct {
	Header
	Receiver value.Value
	Method   *Closure
}

func NewBoundMethod(receiver value.Value, method *Closure) *BoundMethod {
	return &BoundMethod{Header: NewHeader(TypeBoundMethod), Receiver: receiver, Method: method}
}

// BoundNative is the result of reading a primitive method (on a
// string, number, list, or map value) -- the same idea as BoundMethod
// but for natives instead of user closures.
type BoundNative struct {
	Header
	Receiver value.Value
	Method   *Native
}

func NewBoundNative(receiver value.Value, method *Native) *BoundNative {
	return &BoundNative{Header: NewHeader(TypeBoundNative), Receiver: receiver, Method: method}
}

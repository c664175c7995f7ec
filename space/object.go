package space

import (
	"unsafe"

	"github.com/annlab/nonmetric/core"
)

// NoLabel is the label of objects without an explicit class label.
const NoLabel int32 = -1

// Object is a dataset element: a unique identifier, an optional integer
// label and an opaque payload. Payload interpretation is the owning Space's
// business; everything else shuffles Objects by reference.
//
// The payload is immutable after construction.
type Object struct {
	id      uint32
	label   int32
	payload []byte
}

// NewObject creates an Object owning a copy of payload.
func NewObject(id uint32, label int32, payload []byte) *Object {
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return &Object{id: id, label: label, payload: buf}
}

// ID returns the object identifier, unique within a dataset.
func (o *Object) ID() uint32 { return o.id }

// Label returns the object's class label, or NoLabel.
func (o *Object) Label() int32 { return o.label }

// Payload returns the raw payload bytes. Callers must not mutate it.
func (o *Object) Payload() []byte { return o.payload }

// Components returns a typed read-only view over o's payload bytes without
// copying. Callers must treat the returned slice as immutable.
func Components[T core.Scalar](o *Object) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	n := len(o.payload) / size
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(o.payload))), n)
}

// newObjectFromComponents allocates a payload of len(vec) components and
// copies vec into it.
func newObjectFromComponents[T core.Scalar](id uint32, label int32, vec []T) *Object {
	var zero T
	size := int(unsafe.Sizeof(zero))
	o := &Object{id: id, label: label, payload: make([]byte, len(vec)*size)}
	copy(Components[T](o), vec)
	return o
}

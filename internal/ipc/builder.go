package ipc

import (
	"bytes"
	"encoding/binary"

	"github.com/lunixbochs/struc"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// Flags change how a response is laid out
type Flags uint8

const (
	FlagsNone Flags = 0
	// AlwaysMoveHandles keeps a move slot even for nil objects, which the
	// light transport expects at a fixed position.
	AlwaysMoveHandles Flags = 1 << 0
)

// ResponseBuilder writes a response into the request it answers. The
// envelope is written on construction with a success result.
type ResponseBuilder struct {
	req   *kernel.HLERequestContext
	flags Flags
	buf   bytes.Buffer
}

// NewResponseBuilder starts a response for req
func NewResponseBuilder(req *kernel.HLERequestContext, flags Flags) *ResponseBuilder {
	rb := &ResponseBuilder{req: req, flags: flags}
	header := Header{Magic: Magic, Version: Version}
	// Fixed-size header into a bytes.Buffer never fails.
	_ = struc.PackWithOrder(&rb.buf, &header, binary.LittleEndian)
	rb.sync()
	return rb
}

// Push sets the result code of the response
func (rb *ResponseBuilder) Push(code result.Code) {
	binary.LittleEndian.PutUint32(rb.buf.Bytes()[ResultOffset:], code.Raw())
	rb.sync()
}

// PushRaw appends a fixed-layout struct
func (rb *ResponseBuilder) PushRaw(v interface{}) error {
	if err := struc.PackWithOrder(&rb.buf, v, binary.LittleEndian); err != nil {
		return err
	}
	rb.sync()
	return nil
}

// PushUint32 appends a u32
func (rb *ResponseBuilder) PushUint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	rb.buf.Write(b[:])
	rb.sync()
}

// PushUint16 appends a u16
func (rb *ResponseBuilder) PushUint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	rb.buf.Write(b[:])
	rb.sync()
}

// PushMoveObjects hands the caller's references to the receiver. Nil objects
// are dropped unless AlwaysMoveHandles is set.
func (rb *ResponseBuilder) PushMoveObjects(objs ...kernel.Object) {
	for _, obj := range objs {
		if isNil(obj) {
			if rb.flags&AlwaysMoveHandles == 0 {
				continue
			}
			obj = nil
		}
		rb.req.MoveObjects = append(rb.req.MoveObjects, obj)
	}
}

// PushCopyObjects gives the receiver a new reference to each object
func (rb *ResponseBuilder) PushCopyObjects(objs ...kernel.Object) {
	for _, obj := range objs {
		if isNil(obj) || !obj.Open() {
			continue
		}
		rb.req.CopyObjects = append(rb.req.CopyObjects, obj)
	}
}

func (rb *ResponseBuilder) sync() {
	rb.req.Response = rb.buf.Bytes()
}

// isNil catches typed nil pointers wrapped in the Object interface.
func isNil(obj kernel.Object) bool {
	switch o := obj.(type) {
	case nil:
		return true
	case *kernel.ClientSession:
		return o == nil
	case *kernel.ServerSession:
		return o == nil
	case *kernel.ServerPort:
		return o == nil
	case *kernel.ClientPort:
		return o == nil
	case *kernel.Port:
		return o == nil
	case *kernel.Event:
		return o == nil
	}
	return false
}

// RequestBuilder assembles a request payload on the client side
type RequestBuilder struct {
	buf bytes.Buffer
}

// NewRequestBuilder creates an empty payload
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

// PushRaw appends a fixed-layout struct
func (b *RequestBuilder) PushRaw(v interface{}) error {
	return struc.PackWithOrder(&b.buf, v, binary.LittleEndian)
}

// PushUint32 appends a u32
func (b *RequestBuilder) PushUint32(v uint32) *RequestBuilder {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], v)
	b.buf.Write(raw[:])
	return b
}

// PushServiceName appends an encoded 8-byte service name
func (b *RequestBuilder) PushServiceName(name string) *RequestBuilder {
	encoded := EncodeServiceName(name)
	b.buf.Write(encoded[:])
	return b
}

// Bytes returns the payload
func (b *RequestBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lunixbochs/struc"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
)

// RequestParser reads a request payload front to back
type RequestParser struct {
	req *kernel.HLERequestContext
	r   *bytes.Reader
}

// NewRequestParser creates a parser over req.Data
func NewRequestParser(req *kernel.HLERequestContext) *RequestParser {
	return &RequestParser{
		req: req,
		r:   bytes.NewReader(req.Data),
	}
}

// Request returns the request being parsed
func (rp *RequestParser) Request() *kernel.HLERequestContext {
	return rp.req
}

// PopRaw decodes the next fixed-layout struct into v
func (rp *RequestParser) PopRaw(v interface{}) error {
	if err := struc.UnpackWithOrder(rp.r, v, binary.LittleEndian); err != nil {
		return fmt.Errorf("pop %T at offset %d: %w", v, rp.Offset(), ErrMalformedRequest)
	}
	return nil
}

// PopUint32 decodes the next u32
func (rp *RequestParser) PopUint32() (uint32, error) {
	var v struct{ Value uint32 }
	if err := rp.PopRaw(&v); err != nil {
		return 0, err
	}
	return v.Value, nil
}

// PopUint64 decodes the next u64
func (rp *RequestParser) PopUint64() (uint64, error) {
	var v struct{ Value uint64 }
	if err := rp.PopRaw(&v); err != nil {
		return 0, err
	}
	return v.Value, nil
}

// Skip discards n bytes
func (rp *RequestParser) Skip(n int) error {
	if n > rp.r.Len() {
		return fmt.Errorf("skip %d of %d bytes: %w", n, rp.r.Len(), ErrMalformedRequest)
	}
	_, err := rp.r.Seek(int64(n), io.SeekCurrent)
	return err
}

// Offset returns how many payload bytes have been consumed
func (rp *RequestParser) Offset() int {
	return int(rp.r.Size()) - rp.r.Len()
}

// Remaining returns the number of unread payload bytes
func (rp *RequestParser) Remaining() int {
	return rp.r.Len()
}

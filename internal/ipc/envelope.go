package ipc

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/lunixbochs/struc"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

const (
	// Magic is "SFCO" read as a little-endian u32
	Magic uint32 = 0x4F434653
	// Version of the envelope layout
	Version uint32 = 1
	// HeaderSize is the envelope length in bytes
	HeaderSize = 16
	// ResultOffset is where the result code sits in every response
	ResultOffset = 8
)

var (
	ErrMalformedRequest = result.New(result.ModuleHIPC, 1)
	ErrMalformedReply   = result.New(result.ModuleHIPC, 2)
)

// Header is the response envelope
type Header struct {
	Magic   uint32
	Version uint32
	Result  uint32
	Token   uint32
}

// ParseHeader decodes the envelope at the start of a response
func ParseHeader(response []byte) (Header, error) {
	var h Header
	if len(response) < HeaderSize {
		return h, fmt.Errorf("response of %d bytes: %w", len(response), ErrMalformedReply)
	}
	if err := struc.UnpackWithOrder(bytes.NewReader(response[:HeaderSize]), &h, binary.LittleEndian); err != nil {
		return h, fmt.Errorf("unpack header: %w", ErrMalformedReply)
	}
	if h.Magic != Magic {
		return h, fmt.Errorf("bad magic 0x%08X: %w", h.Magic, ErrMalformedReply)
	}
	return h, nil
}

// ResultOf reads the result code out of a completed request. A request that
// was never answered, or was answered with garbage, reads as Unknown.
func ResultOf(req *kernel.HLERequestContext) result.Code {
	if len(req.Response) < ResultOffset+4 {
		return result.Unknown
	}
	if binary.LittleEndian.Uint32(req.Response) != Magic {
		return result.Unknown
	}
	return result.Code(binary.LittleEndian.Uint32(req.Response[ResultOffset:]))
}

// Payload returns the response bytes following the envelope
func Payload(req *kernel.HLERequestContext) []byte {
	if len(req.Response) < HeaderSize {
		return nil
	}
	return req.Response[HeaderSize:]
}

package ipc

import (
	"strings"
)

// ServiceNameSize is the width of a service name on the wire
const ServiceNameSize = 8

type serviceName struct {
	Raw []byte `struc:"[8]byte"`
}

// PopServiceName reads an 8-byte service name field
func PopServiceName(rp *RequestParser) (string, error) {
	var name serviceName
	if err := rp.PopRaw(&name); err != nil {
		return "", err
	}
	return DecodeServiceName(name.Raw), nil
}

// DecodeServiceName keeps every byte in the printable ASCII range and drops
// the rest, wherever it appears. NUL padding and stray control bytes alike
// are filtered out; the name does not stop at the first NUL.
func DecodeServiceName(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		if c >= ' ' && c <= '~' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// EncodeServiceName NUL-pads name into a wire field. Longer names are cut at
// ServiceNameSize bytes.
func EncodeServiceName(name string) [ServiceNameSize]byte {
	var out [ServiceNameSize]byte
	copy(out[:], name)
	return out
}

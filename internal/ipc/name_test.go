package ipc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
)

func TestDecodeServiceName(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want string
	}{
		{"sm", []byte{'s', 'm', ':', 0, 0, 0, 0, 0}, "sm:"},
		{"full width", []byte("fsp-srv\x00"), "fsp-srv"},
		{"eight chars", []byte("abcdefgh"), "abcdefgh"},
		{"control byte filtered", []byte{'a', 1, 'b', 0, 0, 0, 0, 0}, "ab"},
		{"bytes after nul kept", []byte{'a', 0, 'b', 0, 0, 0, 0, 0}, "ab"},
		{"high bytes filtered", []byte{0x80, 'x', 0xff, '~', 0x7f, 0, 0, 0}, "x~"},
		{"empty", make([]byte, 8), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeServiceName(tt.raw))
		})
	}
}

func TestServiceNameRoundTrip(t *testing.T) {
	for _, name := range []string{"sm:", "test:svc", "a"} {
		encoded := EncodeServiceName(name)
		assert.Equal(t, name, DecodeServiceName(encoded[:]))
	}

	encoded := EncodeServiceName("waytoolongname")
	assert.Equal(t, "waytoolo", DecodeServiceName(encoded[:]))
}

func TestPopServiceName(t *testing.T) {
	data := NewRequestBuilder().PushServiceName("sm:").PushUint32(7).Bytes()
	req := kernel.NewRequest(context.Background(), nil, kernel.CommandTypeRequest, 1, data)

	rp := NewRequestParser(req)
	name, err := PopServiceName(rp)
	require.NoError(t, err)
	assert.Equal(t, "sm:", name)
	assert.Equal(t, ServiceNameSize, rp.Offset())

	v, err := rp.PopUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(7), v)
	assert.Zero(t, rp.Remaining())
}

func TestPopServiceNameShort(t *testing.T) {
	req := kernel.NewRequest(context.Background(), nil, kernel.CommandTypeRequest, 1, []byte("sm:"))
	_, err := PopServiceName(NewRequestParser(req))
	assert.ErrorIs(t, err, ErrMalformedRequest)
}

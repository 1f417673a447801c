package ipc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/hlekernel/internal/kernel"
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

type registerParams struct {
	Name        []byte `struc:"[8]byte"`
	IsLight     uint32
	MaxSessions uint32
}

func newRequest(data []byte) *kernel.HLERequestContext {
	return kernel.NewRequest(context.Background(), nil, kernel.CommandTypeRequest, 0, data)
}

func TestResponseEnvelope(t *testing.T) {
	req := newRequest(nil)
	assert.Equal(t, result.Unknown, ResultOf(req), "unanswered request")

	rb := NewResponseBuilder(req, FlagsNone)
	assert.Equal(t, result.Success, ResultOf(req))
	require.Len(t, req.Response, HeaderSize)

	errCode := result.New(result.ModuleSM, 6)
	rb.Push(errCode)
	assert.Equal(t, errCode, ResultOf(req))

	h, err := ParseHeader(req.Response)
	require.NoError(t, err)
	assert.Equal(t, Magic, h.Magic)
	assert.Equal(t, Version, h.Version)
	assert.Equal(t, errCode.Raw(), h.Result)
	assert.Equal(t, []byte("SFCO"), req.Response[:4])
}

func TestResponsePayload(t *testing.T) {
	req := newRequest(nil)
	rb := NewResponseBuilder(req, FlagsNone)
	rb.PushUint16(0x8000)
	rb.PushUint32(42)

	assert.Equal(t, []byte{0x00, 0x80, 42, 0, 0, 0}, Payload(req))
}

func TestParseHeaderRejectsGarbage(t *testing.T) {
	_, err := ParseHeader([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrMalformedReply)

	_, err = ParseHeader(make([]byte, HeaderSize))
	assert.ErrorIs(t, err, ErrMalformedReply)
	assert.Equal(t, result.Unknown, ResultOf(&kernel.HLERequestContext{Response: make([]byte, HeaderSize)}))
}

func TestPopRawStruct(t *testing.T) {
	name := EncodeServiceName("test:svc")
	b := NewRequestBuilder()
	require.NoError(t, b.PushRaw(&registerParams{Name: name[:], IsLight: 1, MaxSessions: 4}))
	assert.Len(t, b.Bytes(), 16)

	var got registerParams
	require.NoError(t, NewRequestParser(newRequest(b.Bytes())).PopRaw(&got))
	assert.Equal(t, "test:svc", DecodeServiceName(got.Name))
	assert.Equal(t, uint32(1), got.IsLight)
	assert.Equal(t, uint32(4), got.MaxSessions)
}

func TestParserSkip(t *testing.T) {
	rp := NewRequestParser(newRequest([]byte{1, 2, 3, 4, 5, 0, 0, 0}))
	require.NoError(t, rp.Skip(4))
	v, err := rp.PopUint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(5), v)
	assert.ErrorIs(t, rp.Skip(1), ErrMalformedRequest)
}

func TestPushMoveObjects(t *testing.T) {
	k := kernel.New()
	ev := kernel.NewEvent(k, "moved")
	defer ev.Close()

	req := newRequest(nil)
	rb := NewResponseBuilder(req, FlagsNone)
	var none *kernel.ClientSession
	rb.PushMoveObjects(none)
	assert.Empty(t, req.MoveObjects)

	rb.PushMoveObjects(ev)
	require.Len(t, req.MoveObjects, 1)
	assert.Equal(t, int32(1), ev.RefCount(), "move transfers, never opens")

	light := newRequest(nil)
	NewResponseBuilder(light, AlwaysMoveHandles).PushMoveObjects(none)
	require.Len(t, light.MoveObjects, 1)
	assert.Nil(t, light.MoveObjects[0])
}

func TestPushCopyObjects(t *testing.T) {
	k := kernel.New()
	ev := kernel.NewEvent(k, "copied")

	req := newRequest(nil)
	NewResponseBuilder(req, FlagsNone).PushCopyObjects(ev)
	require.Len(t, req.CopyObjects, 1)
	assert.Equal(t, int32(2), ev.RefCount())

	req.CloseObjects()
	ev.Close()
	assert.True(t, ev.IsDestroyed())
}

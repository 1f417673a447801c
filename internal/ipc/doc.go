// Package ipc holds the wire helpers HLE services use to read requests and
// write responses.
//
// Payload layouts are owned by each service; this package only provides the
// cursor types and the response envelope every reply starts with.
//
// Components:
//   - RequestParser: sequential little-endian decode of request payloads
//   - ResponseBuilder: envelope plus raw payload, moved and copied objects
//   - RequestBuilder: the client side counterpart used by tools and tests
//   - service names: 8-byte fixed fields, filtered to printable ASCII
//
// Response envelope (16 bytes, little-endian):
//
//	0  magic   "SFCO"
//	4  version
//	8  result  <- ResultOffset
//	12 token
//
// Example Usage:
//
//	rp := ipc.NewRequestParser(req)
//	name, err := ipc.PopServiceName(rp)
//
//	rb := ipc.NewResponseBuilder(req, ipc.FlagsNone)
//	rb.Push(result.FromError(err))
//	rb.PushMoveObjects(session)
package ipc

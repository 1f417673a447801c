// Package result defines the wire result codes returned by kernel objects and
// HLE services.
//
// A Code packs an error module and a description into a single uint32, the
// same value that travels in the result field of every IPC response. Code
// implements error so failures can be wrapped with fmt.Errorf("%w") on the Go
// side and recovered with errors.Is / FromError at the wire boundary.
//
// Layout:
//   - bits 0-8: module
//   - bits 9-21: description
//
// Example Usage:
//
//	var ErrInvalidName = result.New(result.ModuleSM, 6)
//
//	if err := manager.RegisterService(name, 4, false); err != nil {
//		rb.Push(result.FromError(err))
//	}
package result

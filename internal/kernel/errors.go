package kernel

import (
	"errors"

	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// Kernel result codes. Each is a result.Code, so it crosses to the emulated
// side unchanged and matches with errors.Is on the host.
var (
	// ErrPortCapacityReached: the port already has its maximum sessions open.
	ErrPortCapacityReached = result.New(result.ModuleKernel, 7)
	// ErrTimedOut: a wait or request deadline passed.
	ErrTimedOut = result.New(result.ModuleKernel, 117)
	// ErrCancelled: the waiting context was cancelled.
	ErrCancelled = result.New(result.ModuleKernel, 118)
	// ErrNotFound: no object by that name or ID.
	ErrNotFound = result.New(result.ModuleKernel, 121)
	// ErrSessionClosed: the other end of the session is gone.
	ErrSessionClosed = result.New(result.ModuleKernel, 123)
	// ErrInvalidState: the object cannot take the call in its current state.
	ErrInvalidState = result.New(result.ModuleKernel, 125)
	// ErrPortClosed: the server port was destroyed.
	ErrPortClosed = result.New(result.ModuleKernel, 131)
	// ErrResourceLimitReached: the process has no session units left.
	ErrResourceLimitReached = result.New(result.ModuleKernel, 132)
)

// IsResourceExhausted reports whether err is either the process-wide session
// limit or a port's session cap.
func IsResourceExhausted(err error) bool {
	return errors.Is(err, ErrResourceLimitReached) || errors.Is(err, ErrPortCapacityReached)
}

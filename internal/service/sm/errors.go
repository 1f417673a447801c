package sm

import (
	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// Service manager result codes, reported in module 21.
var (
	// ErrNotInitialized: a command other than Initialize arrived first.
	ErrNotInitialized = result.New(result.ModuleSM, 2)
	// ErrAlreadyRegistered: the name is taken.
	ErrAlreadyRegistered = result.New(result.ModuleSM, 4)
	// ErrInvalidName: the name is empty, too long or not printable ASCII.
	ErrInvalidName = result.New(result.ModuleSM, 6)
	// ErrServiceNotRegistered: nothing is registered under the name.
	ErrServiceNotRegistered = result.New(result.ModuleSM, 7)
)

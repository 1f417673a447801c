package result

import (
	"errors"
	"fmt"
)

// Module identifies the subsystem that produced a result.
type Module uint32

const (
	ModuleCommon Module = 0
	ModuleKernel Module = 1
	ModuleHIPC   Module = 11
	ModuleSM     Module = 21
)

// String returns the module name used in logs
func (m Module) String() string {
	switch m {
	case ModuleCommon:
		return "common"
	case ModuleKernel:
		return "kernel"
	case ModuleHIPC:
		return "hipc"
	case ModuleSM:
		return "sm"
	default:
		return fmt.Sprintf("module(%d)", uint32(m))
	}
}

const (
	moduleBits      = 9
	descriptionBits = 13
	moduleMask      = 1<<moduleBits - 1
	descriptionMask = 1<<descriptionBits - 1
)

// Code is a raw result value. Zero means success.
type Code uint32

const (
	// Success is the result of every operation that did not fail.
	Success Code = 0
	// Unknown is returned for unimplemented commands and untyped host errors.
	Unknown Code = 0xFFFFFFFF
)

// New builds a result code from a module and description.
func New(module Module, description uint32) Code {
	return Code(uint32(module)&moduleMask | (description&descriptionMask)<<moduleBits)
}

// Module returns the module field.
func (c Code) Module() Module {
	return Module(uint32(c) & moduleMask)
}

// Description returns the description field.
func (c Code) Description() uint32 {
	return (uint32(c) >> moduleBits) & descriptionMask
}

// Raw returns the wire value.
func (c Code) Raw() uint32 {
	return uint32(c)
}

// IsSuccess reports whether the code is Success.
func (c Code) IsSuccess() bool {
	return c == Success
}

// IsError reports whether the code is a failure.
func (c Code) IsError() bool {
	return c != Success
}

// String formats the code as 2XXX-YYYY.
func (c Code) String() string {
	if c == Unknown {
		return "unknown"
	}
	return fmt.Sprintf("%04d-%04d", 2000+uint32(c.Module()), c.Description())
}

// Error implements error.
func (c Code) Error() string {
	if c == Success {
		return "success"
	}
	return fmt.Sprintf("%s: result %s (0x%08X)", c.Module(), c.String(), uint32(c))
}

// FromError converts an error chain into the code that goes on the wire.
// Errors carrying no Code map to Unknown.
func FromError(err error) Code {
	if err == nil {
		return Success
	}
	var code Code
	if errors.As(err, &code) {
		return code
	}
	return Unknown
}

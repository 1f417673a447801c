package logging

import (
	"go.uber.org/zap"

	"github.com/GriffinCanCode/hlekernel/internal/shared/result"
)

// Field constructors for the keys every kernel subsystem logs under.

// Service names the service a log line concerns.
func Service(name string) zap.Field { return zap.String("service", name) }

// Session identifies a session pair by object ID.
func Session(id uint64) zap.Field { return zap.Uint64("session", id) }

// Port identifies a port by object ID.
func Port(id uint64) zap.Field { return zap.Uint64("port", id) }

// Process names the emulated process on whose behalf work happens.
func Process(name string) zap.Field { return zap.String("process", name) }

// Result renders a result code as module-description.
func Result(code result.Code) zap.Field { return zap.Stringer("result", code) }

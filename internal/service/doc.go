// Package service implements the host side of HLE services.
//
// A Framework is a kernel.SessionRequestHandler driven by a method table.
// Sessions opened against a port whose handler is a Framework never wake an
// emulated server thread: each request is decoded, dispatched by command ID
// and answered on the caller's goroutine.
//
// Components:
//   - Framework: command tables for the request and TIPC protocols
//   - Controller: the control channel every HLE session answers
//   - FunctionInfo: one table entry; a nil handler marks the command as
//     unimplemented
//
// Unimplemented commands are logged and answered with result.Unknown.
//
// Example Usage:
//
//	f := service.NewFramework("test:svc", 4, service.WithLogger(logger))
//	f.RegisterHandlers([]service.FunctionInfo{
//		{ID: 0, Name: "Ping", Handler: ping},
//		{ID: 1, Name: "Unfinished"},
//	})
//	if err := f.InstallAsService(manager); err != nil {
//		return err
//	}
package service

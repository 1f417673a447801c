// Command hlekernel runs the HLE kernel IPC core.
//
// Commands:
//   - serve: run the kernel with the boot manifest and the debug API
//   - probe: open one session to a service and report the result
//   - version: print build information
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags override environment variables
//
// Usage:
//
//	hlekernel serve --manifest boot.yaml
//	hlekernel serve --dev --log-level debug
//	hlekernel probe --manifest boot.yaml test:svc
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main

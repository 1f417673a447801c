// Package sm implements the service manager and its "sm:" control port.
//
// ServiceManager is the registry of named service ports. The "sm:" port is
// the one endpoint every emulated process can reach before it knows any other
// service; through it a process registers services, looks them up and opens
// sessions to them.
//
// Components:
//   - ServiceManager: name -> Port registry behind a single mutex
//   - SM: the HLE interface served on "sm:" (Initialize, GetService,
//     RegisterService, UnregisterService)
//
// Session establishment (GetService) charges the calling process one
// Sessions unit and respects the target port's session cap; the registry
// lock is never held while a session is being created.
//
// Example Usage:
//
//	manager := sm.NewServiceManager(k, logger)
//	smPort, err := manager.InterfaceFactory()
//
//	port, err := manager.RegisterService("test:svc", 1, false)
//	client, err := k.ConnectToNamedPort(process, "sm:")
package sm

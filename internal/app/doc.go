// Package app assembles a running HLE kernel and manages the emulated
// processes that talk to it.
//
// Key Components:
//   - Manager: owns the kernel, the service manager and the "sm:" interface
//   - Boot: installs the stub services listed in a boot manifest
//   - Process lifecycle: Spawn connects a process to "sm:", Close releases
//     every session it opened
//
// Example Usage:
//
//	manager, err := app.NewManager(app.Options{Logger: logger, SessionLimit: 32})
//	if err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	if err := manager.Boot(manifest); err != nil {
//	    return err
//	}
//	go manager.Run(ctx)
//
//	proc, _ := manager.Spawn(ctx, "game")
//	session, err := manager.GetService(ctx, proc.ID(), "test:svc")
package app

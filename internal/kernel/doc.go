// Package kernel implements the kernel objects behind HLE service IPC.
//
// The package reproduces the parts of the microkernel object model that
// session establishment needs and nothing more:
//   - AutoObject: reference counted lifetime, destroy on last Close
//   - SyncObject / WaitSynchronization: wait-any over signalable objects with
//     broadcast wake-ups and predicate re-checks
//   - ResourceLimit / ScopedResourceReservation: reserve, commit, release
//   - Port, ServerPort, ClientPort: named rendezvous points with a FIFO of
//     pending sessions and an optional HLE handler
//   - Session, ServerSession, ClientSession: paired IPC endpoints
//
// Lifetimes:
//
//	Port         <- held by its owner (registry), every live Session, every handle
//	Session      <- held by its ServerSession and its ClientSession
//	ServerSession <- held by the port queue, then by whoever accepted it
//	ClientSession <- held by the connecting process
//
// Dropping the last reference of either session endpoint marks the session
// closed for the peer; the Session (and its resource reservation) goes away
// once both endpoints are gone.
//
// Example Usage:
//
//	k := kernel.New(kernel.WithLogger(logger))
//	port := kernel.NewPort(k, "test:svc", 1, false)
//	client, err := port.ClientPort().CreateSession(process)
//	server := port.ServerPort().AcceptSession()
package kernel

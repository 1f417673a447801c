// Package http exposes a read-only debug API over the running kernel.
//
// Routes:
//   - GET /              liveness banner
//   - GET /health        named ports, service count and live object census
//   - GET /services      every registered service with session counters
//   - GET /services/:name one service, 404 when unregistered
//   - GET /ports         kernel named ports
//   - GET /processes     emulated processes and their session usage
//   - GET /processes/:id one process, 400 on a malformed id and 404 when gone
//   - GET /metrics       Prometheus exposition
//   - GET /metrics/json  counters snapshot
//
// Nothing here mutates kernel state; registration happens over "sm:".
package http

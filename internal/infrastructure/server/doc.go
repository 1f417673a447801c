// Package server runs the debug HTTP server and ties its lifetime to a
// context so it can share an errgroup with the kernel loop.
package server

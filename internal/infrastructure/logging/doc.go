// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Kernel and service packages take a plain *zap.Logger so they can be used
// without this wrapper; Component derives the per-subsystem loggers they get
// handed at boot ("kernel", "sm", "hle.<service>"). Service, Session, Port,
// Process and Result build the fields those packages share, so one session
// can be followed across kernel, framework and sm log lines.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	k := kernel.New(kernel.WithLogger(logger.Component("kernel")))
//	logger.Info("kernel booted", zap.Int("named_ports", 1))
package logging

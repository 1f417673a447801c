/*
Package monitoring provides Prometheus metrics for the HLE kernel.

# Overview

Metrics cover the three places where IPC state changes: the service registry
(ports registered), session pairing (sessions active, connect failures by
reason) and HLE dispatch (requests by service, command and result). Wait
durations on synchronization objects are recorded as a histogram.

Every recording method is safe to call on a nil *Metrics, so kernel objects
can be built without a collector.

# Usage

	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	k := kernel.New(kernel.WithMetrics(metrics))

	// Add middleware to the debug router
	router.Use(monitoring.Middleware(metrics))

	// Time a dispatch
	timer := monitoring.NewTimer(metrics, "sm:", "GetService")
	// ... handle request ...
	timer.Stop("2001-0132")

# Metrics Endpoint

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
*/
package monitoring

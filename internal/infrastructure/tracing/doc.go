/*
Package tracing wraps OpenTelemetry for the HLE kernel.

# Overview

Spans are opened around HLE dispatch (one per handled command), around
GetService session establishment, and around debug API requests. The tracer
resolves from the global OpenTelemetry provider, so nothing is exported until
the binary installs one; with the default no-op provider spans cost almost
nothing.

# Usage

	tracer := tracing.New("sm", logger)

	ctx, span := tracer.StartSpan(ctx, "sm.GetService",
		attribute.String("service", name),
	)
	defer tracer.Finish(span, err)

	// Debug API
	router.Use(tracing.HTTPMiddleware(tracer))

# Trace Format

The debug API echoes the active trace on every response:
- X-Trace-ID: trace identifier
- X-Span-ID: identifier of the request span
*/
package tracing

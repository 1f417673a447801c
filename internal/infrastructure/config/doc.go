// Package config provides 12-factor configuration management for the HLE kernel.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Kernel: session limit of created processes, client wait timeout
//   - Debug: debug HTTP server address and toggle
//   - Logging: Log level and output format
//   - RateLimit: Per-IP rate limiting of the debug API
//   - Boot: path to the boot manifest
//
// The boot manifest lists HLE services registered at startup. It is YAML
// (.yaml, .yml) or TOML (.toml):
//
//	session_limit: 32
//	services:
//	  - name: "test:svc"
//	    max_sessions: 1
//	  - name: "light"
//	    max_sessions: 4
//	    light: true
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	manifest, err := config.LoadManifest(cfg.Boot.Manifest)
//
// Environment Variables:
//   - KERNEL_SESSION_LIMIT, KERNEL_WAIT_TIMEOUT
//   - DEBUG_ADDR, DEBUG_ENABLED
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - BOOT_MANIFEST
package config

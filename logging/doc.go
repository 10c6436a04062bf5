// Package logging provides a minimal logging interface and adapters for schoolmesh.
//
// The Logger interface defines the logging methods (Debug, Info, Warn, Error)
// that the runner, router, assembler and capabilities use for observability.
// This package includes:
//
//   - Logger interface for dependency injection
//   - ZerologAdapter and New for the zerolog backend used by the CLI
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger, _ := logging.New(logging.Config{Level: logging.LogLevelInfo, Format: "json"})
//	r := runner.New(router, func(o *runner.Options) { o.Logger = logger })
package logging

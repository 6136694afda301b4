// Package logger provides structured logging for sleepy using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Loggers pick up the
// active OpenTelemetry span from a context so request logs line up with
// traces.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//
// # Usage
//
//	log := logger.NewDefault("sleepy").WithComponent("client")
//	log.Debug("request sent", logger.Fields("operation", "_find", "db", "test"))
package logger

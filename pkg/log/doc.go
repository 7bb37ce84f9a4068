// Package log provides the logging abstraction used across the sink.
//
// It defines a Logger interface that any structured logging library can
// implement. A zerolog adapter and a no-op logger (for tests and library
// embedding) are provided.
//
// # Usage
//
//	logger := log.NewZerologAdapter()
//	logger.Info("sent batch", log.Int("records", n))
//
// Implement the Logger interface to plug in different logging
// infrastructure.
package log

// Package ports defines the interfaces (ports) that connect the sink core
// to infrastructure adapters.
//
// Ports are the boundaries between the batching/retry engine and the outside
// world. They define what the sink needs from external systems without
// specifying how those needs are fulfilled.
//
// # Port Interfaces
//
//   - [RecordSubmitter]: Submits a batch of records to the destination stream
//   - [StreamChecker]: Verifies the destination stream is writable
//   - [FailureTracker]: Receives best-effort failure notifications
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// The sink core (internal/sink) depends only on these interfaces.
// Infrastructure adapters (internal/kinesis, internal/tracker,
// internal/metrics) provide the concrete implementations.
package ports

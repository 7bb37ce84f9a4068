// Package domain contains the core domain entities and value objects for the
// stream sink.
//
// This package represents the innermost layer of the architecture. It has no
// dependencies on infrastructure concerns (AWS SDK, logging, metrics) and
// contains only the data shapes the sink's business rules operate on.
//
// # Entities
//
//   - [Record]: A single event payload with its partition key
//   - [Batch]: An ordered aggregate of records sealed for sending
//   - [SendOutcome]: The per-record result of a submit call
package domain

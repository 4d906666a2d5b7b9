// Package source provides event stream producers: a JSONL file tail and a
// synthetic event generator. Sources emit raw JSONL records; schema
// validation happens at the pipeline boundary.
package source

import "context"

// EmitFunc receives one raw JSONL-encoded event record. Returning an error
// stops the source; a blocking implementation is how backpressure reaches
// the producer.
type EmitFunc func(line []byte) error

// Source is an event producer feeding the pipeline.
type Source interface {
	Name() string
	// Run emits records until ctx is cancelled, emit returns an error, or
	// the source is exhausted.
	Run(ctx context.Context, emit EmitFunc) error
}

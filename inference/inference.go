// Package inference defines the agent-processing collaborator consumed by
// agent nodes: given a batch of mapped input records, return one result per
// input, in order, within the batch timeout.
package inference

import (
	"context"
	"time"
)

// Request is one batch submitted to an agent.
type Request struct {
	// AgentID identifies the configured agent to run.
	AgentID int64
	// Batch holds the mapped inputs, one per source record.
	Batch []map[string]any
	// Timeout bounds the whole batch call.
	Timeout time.Duration
}

// Result is the agent's output for one input record.
type Result map[string]any

// Processor processes batches of records through an AI agent. It must
// return exactly one result per input, in input order, or fail the whole
// batch.
type Processor interface {
	ProcessBatch(ctx context.Context, req *Request) ([]Result, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, req *Request) ([]Result, error)

// ProcessBatch implements Processor.
func (f ProcessorFunc) ProcessBatch(ctx context.Context, req *Request) ([]Result, error) {
	return f(ctx, req)
}

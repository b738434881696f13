// Package node defines the node contract shared by every workflow node
// type: the validate/execute lifecycle, uniform execution state tracking,
// and the registry/factory that instantiates concrete handlers.
package node

import (
	"context"
	"reflect"
	"time"

	"github.com/shivakharbanda/agent-builder/workflow"
)

// Status is the execution state of a node run.
type Status string

const (
	// StatusPending means the run has not started yet.
	StatusPending Status = "pending"
	// StatusRunning means execute is in flight.
	StatusRunning Status = "running"
	// StatusCompleted means execute finished successfully. Terminal.
	StatusCompleted Status = "completed"
	// StatusFailed means validation or execute failed. Terminal.
	StatusFailed Status = "failed"
)

// Handler is the contract every node type implements.
//
// Validate checks the node configuration: required keys, type and range
// constraints, and existence of external references such as credentials.
// It must be side-effect free and idempotent, and must return a ConfigError
// for any violation.
//
// Execute performs the type-specific work. Failures during execution are
// RuntimeErrors.
type Handler interface {
	Validate(ctx context.Context) error
	Execute(ctx context.Context, input any) (any, error)
}

// Context identifies one node within one workflow execution. NodeID is the
// durable id assigned when the workflow was saved, not the visual id from
// the configuration document.
type Context struct {
	NodeID      int64
	NodeType    workflow.NodeType
	WorkflowID  int64
	ExecutionID string
	Position    int
	Config      Config
}

// ExecutionRecord tracks the state of a single node run. It is created when
// the run starts, finalized exactly once on success or failure, and never
// mutated afterward.
type ExecutionRecord struct {
	NodeID        int64      `json:"node_id"`
	NodeType      string     `json:"node_type"`
	Position      int        `json:"position"`
	Status        Status     `json:"status"`
	StartedAt     *time.Time `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	ExecutionTime float64    `json:"execution_time"`
	ErrorMessage  string     `json:"error_message,omitempty"`
	InputSize     int        `json:"input_size"`
	OutputSize    int        `json:"output_size"`
}

// Runner wraps a Handler with the run lifecycle: validate, pre-execute,
// execute, post-execute, with uniform state tracking and error propagation.
type Runner struct {
	nctx    Context
	handler Handler
	record  ExecutionRecord
}

// NewRunner creates a Runner for the given node context and handler.
func NewRunner(nctx Context, handler Handler) *Runner {
	return &Runner{
		nctx:    nctx,
		handler: handler,
		record: ExecutionRecord{
			NodeID:     nctx.NodeID,
			NodeType:   string(nctx.NodeType),
			Position:   nctx.Position,
			Status:     StatusPending,
			InputSize:  -1,
			OutputSize: -1,
		},
	}
}

// Run orchestrates one node execution. Configuration is validated first; a
// validation failure marks the run failed without calling Execute. Execute
// errors finalize the record before propagating: the run never swallows a
// failure silently.
func (r *Runner) Run(ctx context.Context, input any) (any, error) {
	if err := r.handler.Validate(ctx); err != nil {
		r.fail(err)
		return nil, err
	}

	now := time.Now()
	r.record.Status = StatusRunning
	r.record.StartedAt = &now
	r.record.InputSize = sizeOf(input)

	output, err := r.handler.Execute(ctx, input)
	if err != nil {
		r.fail(err)
		return nil, err
	}

	done := time.Now()
	r.record.Status = StatusCompleted
	r.record.CompletedAt = &done
	r.record.ExecutionTime = done.Sub(now).Seconds()
	r.record.OutputSize = sizeOf(output)
	return output, nil
}

func (r *Runner) fail(err error) {
	done := time.Now()
	r.record.Status = StatusFailed
	r.record.ErrorMessage = err.Error()
	r.record.CompletedAt = &done
	if r.record.StartedAt != nil {
		r.record.ExecutionTime = done.Sub(*r.record.StartedAt).Seconds()
	}
}

// Metadata returns a snapshot of the execution record.
func (r *Runner) Metadata() ExecutionRecord {
	return r.record
}

// sizeOf reports a best-effort element count for lists, maps and strings,
// or -1 when the value has no meaningful length.
func sizeOf(v any) int {
	if v == nil {
		return -1
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String, reflect.Array:
		return rv.Len()
	default:
		return -1
	}
}

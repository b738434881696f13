// Package engine resolves and executes workflow nodes. Given a target node,
// it discovers the upstream producers from the workflow's edge list,
// executes them recursively (optionally fanning out independent branches)
// and feeds their combined output to the target.
package engine

import (
	"github.com/shivakharbanda/agent-builder/node"
	"github.com/shivakharbanda/agent-builder/workflow"
)

// PersistedNode is a workflow node as persisted at save time: a stable
// durable id plus the node's type, order and configuration. Durable ids are
// distinct from the visual ids inside the configuration document.
type PersistedNode struct {
	ID       int64             `json:"id"`
	Type     workflow.NodeType `json:"type"`
	Position int               `json:"position"`
	Config   map[string]any    `json:"config"`
}

// ExecutionResult is the outcome of one node run.
type ExecutionResult struct {
	Status   node.Status          `json:"status"`
	NodeID   int64                `json:"node_id"`
	NodeType workflow.NodeType    `json:"node_type"`
	Results  any                  `json:"results"`
	Metadata node.ExecutionRecord `json:"metadata"`
}

// History receives every finished node run. Persistence of execution
// history is an external concern; the engine only reports.
type History interface {
	Record(result *ExecutionResult)
}

// Engine executes nodes of one workflow.
type Engine struct {
	doc     *workflow.Document
	nodes   []PersistedNode
	factory *node.Factory

	workflowID  int64
	parallelism int
	history     History

	byDurable       map[int64]*PersistedNode
	visualToDurable map[string]int64
	durableToVisual map[int64]string
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkflowID sets the workflow id reported in node contexts.
func WithWorkflowID(id int64) Option {
	return func(e *Engine) { e.workflowID = id }
}

// WithParallelism enables bounded concurrent resolution of independent
// upstream producers. Values below 2 keep execution sequential.
func WithParallelism(n int) Option {
	return func(e *Engine) { e.parallelism = n }
}

// WithHistory sets the execution history sink.
func WithHistory(h History) Option {
	return func(e *Engine) { e.history = h }
}

// New creates an Engine for one workflow document and its persisted nodes.
// The document is validated and the visual/durable id correlation is built
// up front, so correlation failures surface before any execution.
func New(doc *workflow.Document, nodes []PersistedNode, factory *node.Factory, opts ...Option) (*Engine, error) {
	if err := doc.Validate(); err != nil {
		return nil, node.WrapConfigError(err, "invalid workflow document")
	}

	e := &Engine{
		doc:     doc,
		nodes:   nodes,
		factory: factory,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.byDurable = make(map[int64]*PersistedNode, len(nodes))
	for i := range nodes {
		e.byDurable[nodes[i].ID] = &nodes[i]
	}

	mapping, err := Correlate(doc, nodes)
	if err != nil {
		return nil, err
	}
	e.visualToDurable = mapping
	e.durableToVisual = make(map[int64]string, len(mapping))
	for visual, durable := range mapping {
		e.durableToVisual[durable] = visual
	}
	return e, nil
}

// singleProducerOriented reports whether the node type consumes a flat
// record list from a single producer. Database nodes are sources and never
// receive input.
func singleProducerOriented(t workflow.NodeType) bool {
	switch t {
	case workflow.NodeTypeAgent,
		workflow.NodeTypeFilter,
		workflow.NodeTypeScript,
		workflow.NodeTypeConditional,
		workflow.NodeTypeOutput:
		return true
	default:
		return false
	}
}

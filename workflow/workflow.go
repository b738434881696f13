// Package workflow defines the workflow configuration document consumed by
// the execution engine: typed nodes wired together by a directed edge list.
package workflow

import (
	"fmt"
)

// NodeType identifies the kind of work a node performs.
type NodeType string

const (
	// NodeTypeDatabase reads records from a database (source).
	NodeTypeDatabase NodeType = "database"
	// NodeTypeAgent processes records with an AI agent (processor).
	NodeTypeAgent NodeType = "agent"
	// NodeTypeFilter filters records by conditions (processor).
	NodeTypeFilter NodeType = "filter"
	// NodeTypeScript transforms records with a user script (processor).
	NodeTypeScript NodeType = "script"
	// NodeTypeConditional routes execution down a true or false path.
	NodeTypeConditional NodeType = "conditional"
	// NodeTypeOutput writes records to a destination (sink).
	NodeTypeOutput NodeType = "output"
)

// builtinTypes is the set of node kinds a document may declare.
var builtinTypes = map[NodeType]bool{
	NodeTypeDatabase:    true,
	NodeTypeAgent:       true,
	NodeTypeFilter:      true,
	NodeTypeScript:      true,
	NodeTypeConditional: true,
	NodeTypeOutput:      true,
}

// Position is the visual position of a node on the canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// NodeSpec is one node declaration inside a workflow document. The ID is
// the author-facing visual id (e.g. "node_1"), distinct from the durable id
// assigned when the workflow is persisted.
type NodeSpec struct {
	ID       string         `json:"id" yaml:"id"`
	Type     NodeType       `json:"type" yaml:"type"`
	Position Position       `json:"position" yaml:"position"`
	Config   map[string]any `json:"config" yaml:"config"`
}

// EdgeSpec is a directed dependency from one node's output to another
// node's input, expressed in visual ids.
type EdgeSpec struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Document is a complete workflow configuration document.
type Document struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Nodes       []NodeSpec     `json:"nodes" yaml:"nodes"`
	Edges       []EdgeSpec     `json:"edges" yaml:"edges"`
	Properties  map[string]any `json:"properties" yaml:"properties"`
}

// Validate checks the structural invariants of the document: node ids are
// unique and non-empty, node types are known, and every edge references
// declared nodes. Documents violating these are rejected at load time.
func (d *Document) Validate() error {
	if len(d.Nodes) == 0 {
		return fmt.Errorf("workflow %q has no nodes", d.Name)
	}
	ids := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if n.ID == "" {
			return fmt.Errorf("workflow %q declares a node with an empty id", d.Name)
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
		if !builtinTypes[n.Type] {
			return fmt.Errorf("node %q has unknown type %q", n.ID, n.Type)
		}
	}
	for _, e := range d.Edges {
		if !ids[e.Source] {
			return fmt.Errorf("edge %q references unknown source node %q", e.ID, e.Source)
		}
		if !ids[e.Target] {
			return fmt.Errorf("edge %q references unknown target node %q", e.ID, e.Target)
		}
	}
	return nil
}

// Node returns the node spec with the given visual id.
func (d *Document) Node(id string) (*NodeSpec, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// Producers returns the visual ids of the nodes feeding the given node, in
// edge declaration order.
func (d *Document) Producers(id string) []string {
	var out []string
	for _, e := range d.Edges {
		if e.Target == id {
			out = append(out, e.Source)
		}
	}
	return out
}

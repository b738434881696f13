package engine

import (
	"github.com/shivakharbanda/agent-builder/node"
	"github.com/shivakharbanda/agent-builder/workflow"
)

// configKeyNodeDBID is the configuration key carrying the persisted durable
// id inside a visual node's config. Documents saved with this key skip the
// correlation heuristics entirely.
const configKeyNodeDBID = "node_db_id"

// keyConfigFields maps node types to the configuration field that
// distinguishes two nodes of the same type, used by the heuristic fallback.
var keyConfigFields = map[workflow.NodeType]string{
	workflow.NodeTypeDatabase: "credential_id",
	workflow.NodeTypeAgent:    "agent_id",
}

// Correlate builds the visual-id to durable-id mapping between a workflow
// document and its persisted nodes.
//
// Preferred: a node_db_id entry persisted inside the visual node's config
// is an exact correlation. Fallback heuristics, in order: match by type and
// key configuration field (credential_id for database nodes, agent_id for
// agent nodes), then positionally among remaining nodes of the same type.
// Every document node must end up correlated to a distinct persisted node.
func Correlate(doc *workflow.Document, nodes []PersistedNode) (map[string]int64, error) {
	mapping := make(map[string]int64, len(doc.Nodes))
	used := make(map[int64]bool, len(nodes))

	byID := make(map[int64]*PersistedNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	var unmatched []*workflow.NodeSpec

	// Pass 1: exact correlation through persisted node_db_id.
	for i := range doc.Nodes {
		spec := &doc.Nodes[i]
		durable, ok, err := node.Config(spec.Config).Int64(configKeyNodeDBID)
		if err != nil || !ok {
			unmatched = append(unmatched, spec)
			continue
		}
		persisted, exists := byID[durable]
		if !exists {
			return nil, node.NewConfigError("node %q references persisted node %d which does not exist",
				spec.ID, durable)
		}
		if persisted.Type != spec.Type {
			return nil, node.NewConfigError("node %q has type %q but persisted node %d has type %q",
				spec.ID, spec.Type, durable, persisted.Type)
		}
		if used[durable] {
			return nil, node.NewConfigError("persisted node %d is referenced by more than one document node", durable)
		}
		mapping[spec.ID] = durable
		used[durable] = true
	}

	// Pass 2: heuristic match by type plus key configuration field.
	var positional []*workflow.NodeSpec
	for _, spec := range unmatched {
		keyField, keyed := keyConfigFields[spec.Type]
		if !keyed {
			positional = append(positional, spec)
			continue
		}
		specKey, ok, err := node.Config(spec.Config).Int64(keyField)
		if err != nil || !ok {
			positional = append(positional, spec)
			continue
		}
		durable, found := findByKey(nodes, used, spec.Type, keyField, specKey)
		if !found {
			positional = append(positional, spec)
			continue
		}
		mapping[spec.ID] = durable
		used[durable] = true
	}

	// Pass 3: positional match among remaining nodes of the same type.
	for _, spec := range positional {
		durable, found := findByPosition(nodes, used, spec.Type)
		if !found {
			return nil, node.NewConfigError(
				"cannot correlate document node %q (type %q) to a persisted node", spec.ID, spec.Type)
		}
		mapping[spec.ID] = durable
		used[durable] = true
	}

	return mapping, nil
}

// findByKey returns the first unused persisted node of the given type whose
// key configuration field matches.
func findByKey(nodes []PersistedNode, used map[int64]bool, t workflow.NodeType, keyField string, key int64) (int64, bool) {
	for i := range nodes {
		pn := &nodes[i]
		if used[pn.ID] || pn.Type != t {
			continue
		}
		pnKey, ok, err := node.Config(pn.Config).Int64(keyField)
		if err != nil || !ok {
			continue
		}
		if pnKey == key {
			return pn.ID, true
		}
	}
	return 0, false
}

// findByPosition returns the unused persisted node of the given type with
// the lowest position.
func findByPosition(nodes []PersistedNode, used map[int64]bool, t workflow.NodeType) (int64, bool) {
	best := int64(0)
	bestPos := 0
	found := false
	for i := range nodes {
		pn := &nodes[i]
		if used[pn.ID] || pn.Type != t {
			continue
		}
		if !found || pn.Position < bestPos {
			best = pn.ID
			bestPos = pn.Position
			found = true
		}
	}
	return best, found
}

// VisualID returns the document id correlated to a durable node id.
func (e *Engine) VisualID(durable int64) (string, error) {
	visual, ok := e.durableToVisual[durable]
	if !ok {
		return "", node.NewConfigError("node %d is not part of workflow %q", durable, e.doc.Name)
	}
	return visual, nil
}

// DurableID returns the persisted node id correlated to a document node id.
func (e *Engine) DurableID(visual string) (int64, error) {
	durable, ok := e.visualToDurable[visual]
	if !ok {
		return 0, node.NewConfigError("document node %q has no correlated persisted node", visual)
	}
	return durable, nil
}

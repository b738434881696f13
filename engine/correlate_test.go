package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivakharbanda/agent-builder/node"
	"github.com/shivakharbanda/agent-builder/workflow"
)

func TestCorrelateByNodeDBID(t *testing.T) {
	doc := &workflow.Document{
		Name: "wf",
		Nodes: []workflow.NodeSpec{
			{ID: "node_1", Type: workflow.NodeTypeDatabase, Config: map[string]any{"node_db_id": float64(11)}},
			{ID: "node_2", Type: workflow.NodeTypeOutput, Config: map[string]any{"node_db_id": float64(12)}},
		},
	}
	nodes := []PersistedNode{
		{ID: 11, Type: workflow.NodeTypeDatabase},
		{ID: 12, Type: workflow.NodeTypeOutput},
	}

	mapping, err := Correlate(doc, nodes)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"node_1": 11, "node_2": 12}, mapping)
}

func TestCorrelateNodeDBIDFailures(t *testing.T) {
	tests := []struct {
		name    string
		doc     *workflow.Document
		nodes   []PersistedNode
		wantErr string
	}{
		{
			name: "dangling reference",
			doc: &workflow.Document{Nodes: []workflow.NodeSpec{
				{ID: "node_1", Type: workflow.NodeTypeDatabase, Config: map[string]any{"node_db_id": float64(99)}},
			}},
			nodes:   []PersistedNode{{ID: 11, Type: workflow.NodeTypeDatabase}},
			wantErr: "persisted node 99 which does not exist",
		},
		{
			name: "type mismatch",
			doc: &workflow.Document{Nodes: []workflow.NodeSpec{
				{ID: "node_1", Type: workflow.NodeTypeFilter, Config: map[string]any{"node_db_id": float64(11)}},
			}},
			nodes:   []PersistedNode{{ID: 11, Type: workflow.NodeTypeDatabase}},
			wantErr: `has type "filter" but persisted node 11 has type "database"`,
		},
		{
			name: "duplicate reference",
			doc: &workflow.Document{Nodes: []workflow.NodeSpec{
				{ID: "node_1", Type: workflow.NodeTypeDatabase, Config: map[string]any{"node_db_id": float64(11)}},
				{ID: "node_2", Type: workflow.NodeTypeDatabase, Config: map[string]any{"node_db_id": float64(11)}},
			}},
			nodes:   []PersistedNode{{ID: 11, Type: workflow.NodeTypeDatabase}},
			wantErr: "referenced by more than one document node",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Correlate(tt.doc, tt.nodes)
			require.Error(t, err)
			assert.True(t, node.IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCorrelateByKeyField(t *testing.T) {
	// Two database nodes distinguished by credential_id, declared in the
	// opposite order from the persisted list.
	doc := &workflow.Document{
		Name: "wf",
		Nodes: []workflow.NodeSpec{
			{ID: "node_a", Type: workflow.NodeTypeDatabase, Config: map[string]any{"credential_id": float64(2)}},
			{ID: "node_b", Type: workflow.NodeTypeDatabase, Config: map[string]any{"credential_id": float64(1)}},
		},
	}
	nodes := []PersistedNode{
		{ID: 21, Type: workflow.NodeTypeDatabase, Config: map[string]any{"credential_id": 1}},
		{ID: 22, Type: workflow.NodeTypeDatabase, Config: map[string]any{"credential_id": 2}},
	}

	mapping, err := Correlate(doc, nodes)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"node_a": 22, "node_b": 21}, mapping)
}

func TestCorrelatePositional(t *testing.T) {
	doc := &workflow.Document{
		Name: "wf",
		Nodes: []workflow.NodeSpec{
			{ID: "node_1", Type: workflow.NodeTypeFilter},
			{ID: "node_2", Type: workflow.NodeTypeFilter},
		},
	}
	// Positional matching assigns by ascending persisted position, not by
	// list order.
	nodes := []PersistedNode{
		{ID: 31, Type: workflow.NodeTypeFilter, Position: 1},
		{ID: 30, Type: workflow.NodeTypeFilter, Position: 0},
	}

	mapping, err := Correlate(doc, nodes)
	require.NoError(t, err)
	assert.Equal(t, int64(30), mapping["node_1"])
	assert.Equal(t, int64(31), mapping["node_2"])
}

func TestCorrelateUnmatchable(t *testing.T) {
	doc := &workflow.Document{
		Nodes: []workflow.NodeSpec{
			{ID: "node_1", Type: workflow.NodeTypeScript},
		},
	}
	_, err := Correlate(doc, []PersistedNode{{ID: 41, Type: workflow.NodeTypeOutput}})
	require.Error(t, err)
	assert.True(t, node.IsConfigError(err))
	assert.Contains(t, err.Error(), `cannot correlate document node "node_1"`)
}

func TestCorrelateMixedPasses(t *testing.T) {
	doc := &workflow.Document{
		Nodes: []workflow.NodeSpec{
			{ID: "exact", Type: workflow.NodeTypeOutput, Config: map[string]any{"node_db_id": float64(52)}},
			{ID: "keyed", Type: workflow.NodeTypeAgent, Config: map[string]any{"agent_id": float64(7)}},
			{ID: "positional", Type: workflow.NodeTypeOutput},
		},
	}
	nodes := []PersistedNode{
		{ID: 51, Type: workflow.NodeTypeOutput, Position: 2},
		{ID: 52, Type: workflow.NodeTypeOutput, Position: 3},
		{ID: 53, Type: workflow.NodeTypeAgent, Config: map[string]any{"agent_id": 7}},
	}

	mapping, err := Correlate(doc, nodes)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"exact": 52, "keyed": 53, "positional": 51}, mapping)
}

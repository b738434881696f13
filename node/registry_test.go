package node

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivakharbanda/agent-builder/workflow"
)

func TestRegistryBuiltins(t *testing.T) {
	types := NewRegistry().Types()
	assert.Equal(t, []string{"agent", "conditional", "database", "filter", "output", "script"}, types)
}

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	err := r.Register("webhook", func(nctx Context, env *Env) (Handler, error) {
		return &stubHandler{}, nil
	})
	require.NoError(t, err)
	assert.Contains(t, r.Types(), "webhook")

	err = r.Register("webhook", func(nctx Context, env *Env) (Handler, error) {
		return &stubHandler{}, nil
	})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "already registered")

	err = r.Register("broken", nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestFactoryUnknownType(t *testing.T) {
	factory := NewFactory(NewRegistry(), testEnv())

	_, err := factory.New(testContext("teleport", Config{}))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), `unknown node type "teleport"`)
	assert.Contains(t, err.Error(), "agent, conditional, database, filter, output, script")
}

func TestFactoryNewRunner(t *testing.T) {
	factory := NewFactory(NewRegistry(), testEnv())

	runner, err := factory.NewRunner(testContext(workflow.NodeTypeFilter, Config{
		"operator":   "AND",
		"conditions": []any{map[string]any{"field": "status", "operator": "==", "value": "active"}},
	}))
	require.NoError(t, err)

	out, err := runner.Run(context.Background(), []map[string]any{
		{"status": "active"},
		{"status": "inactive"},
	})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

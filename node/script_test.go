package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivakharbanda/agent-builder/scriptexec"
	"github.com/shivakharbanda/agent-builder/workflow"
)

func scriptNode(cfg Config, runner scriptexec.Runner) Handler {
	env := testEnv()
	env.Scripts = runner
	h, _ := newScriptHandler(testContext(workflow.NodeTypeScript, cfg), env)
	return h
}

func TestScriptValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid python",
			cfg:  Config{"language": "python", "script": "return data"},
		},
		{
			name: "valid javascript",
			cfg:  Config{"language": "javascript", "script": "return data;"},
		},
		{
			name:    "missing language",
			cfg:     Config{"script": "return data"},
			wantErr: "language is required",
		},
		{
			name:    "unsupported language",
			cfg:     Config{"language": "ruby", "script": "data"},
			wantErr: `invalid language "ruby"`,
		},
		{
			name:    "missing script",
			cfg:     Config{"language": "python"},
			wantErr: "script is required",
		},
		{
			name:    "timeout out of range",
			cfg:     Config{"language": "python", "script": "return data", "timeout": float64(301)},
			wantErr: "timeout must be between 5 and 300",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := scriptNode(tt.cfg, nil).Validate(context.Background())
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScriptExecute(t *testing.T) {
	var got scriptexec.Input
	runner := scriptRunnerFunc(func(_ context.Context, input scriptexec.Input) (any, error) {
		got = input
		return []map[string]any{{"doubled": 2}}, nil
	})

	h := scriptNode(Config{
		"language": "python",
		"script":   "return [dict(r, doubled=r['n']*2) for r in data]",
		"timeout":  float64(10),
	}, runner)

	input := []map[string]any{{"n": 1}}
	out, err := h.Execute(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{{"doubled": 2}}, out)

	assert.Equal(t, scriptexec.LanguagePython, got.Language)
	assert.Equal(t, 10*time.Second, got.Timeout)
	assert.Equal(t, "exec-test", got.ExecutionID)
	assert.Equal(t, input, got.Data)
}

func TestScriptExecuteDefaultTimeout(t *testing.T) {
	var got scriptexec.Input
	runner := scriptRunnerFunc(func(_ context.Context, input scriptexec.Input) (any, error) {
		got = input
		return nil, nil
	})

	h := scriptNode(Config{"language": "javascript", "script": "return data;"}, runner)
	_, err := h.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, got.Timeout)
}

func TestScriptExecuteFailure(t *testing.T) {
	runner := scriptRunnerFunc(func(context.Context, scriptexec.Input) (any, error) {
		return nil, errors.New("exit status 1")
	})

	h := scriptNode(Config{"language": "python", "script": "raise"}, runner)
	_, err := h.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsRuntimeError(err))
	assert.Contains(t, err.Error(), "script execution failed")
}

func TestScriptExecuteNoRunner(t *testing.T) {
	h := scriptNode(Config{"language": "python", "script": "return data"}, nil)
	_, err := h.Execute(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

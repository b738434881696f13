package node

import (
	"context"

	"github.com/shivakharbanda/agent-builder/credential"
	"github.com/shivakharbanda/agent-builder/dbexec"
	"github.com/shivakharbanda/agent-builder/scriptexec"
	"github.com/shivakharbanda/agent-builder/workflow"
)

func rdbmsCredential(id int64) *credential.Credential {
	return &credential.Credential{
		ID:       id,
		Name:     "analytics-db",
		TypeName: "mockdb",
		Category: credential.CategoryRDBMS,
		IsActive: true,
		ConnectionDetails: map[string]string{
			"host":     "db.internal",
			"password": "s3cret",
		},
	}
}

func llmCredential(id int64) *credential.Credential {
	return &credential.Credential{
		ID:       id,
		Name:     "openai-prod",
		TypeName: "openai",
		Category: credential.CategoryLLM,
		IsActive: true,
		ConnectionDetails: map[string]string{
			"api_key": "sk-test",
		},
	}
}

func testEnv(creds ...*credential.Credential) *Env {
	return &Env{
		Credentials: credential.NewStaticResolver(creds...),
		DB:          dbexec.New(),
	}
}

func testContext(nodeType workflow.NodeType, cfg Config) Context {
	return Context{
		NodeID:      1,
		NodeType:    nodeType,
		WorkflowID:  7,
		ExecutionID: "exec-test",
		Position:    0,
		Config:      cfg,
	}
}

// scriptRunnerFunc adapts a function to scriptexec.Runner for tests.
type scriptRunnerFunc func(ctx context.Context, input scriptexec.Input) (any, error)

func (f scriptRunnerFunc) RunScript(ctx context.Context, input scriptexec.Input) (any, error) {
	return f(ctx, input)
}

package node

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivakharbanda/agent-builder/credential"
	"github.com/shivakharbanda/agent-builder/output"
	"github.com/shivakharbanda/agent-builder/workflow"
)

func outputNode(cfg Config, creds ...*credential.Credential) (*Env, Handler) {
	env := testEnv(creds...)
	h, _ := newOutputHandler(testContext(workflow.NodeTypeOutput, cfg), env)
	return env, h
}

func TestOutputValidate(t *testing.T) {
	cred := rdbmsCredential(3)

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "missing output type",
			cfg:     Config{},
			wantErr: "output_type is required",
		},
		{
			name:    "unknown output type",
			cfg:     Config{"output_type": "queue"},
			wantErr: `invalid output_type "queue"`,
		},
		{
			name: "database valid",
			cfg:  Config{"output_type": "database", "credential_id": float64(3), "table_name": "results"},
		},
		{
			name:    "database missing credential",
			cfg:     Config{"output_type": "database", "table_name": "results"},
			wantErr: "credential_id is required for database output",
		},
		{
			name:    "database missing table",
			cfg:     Config{"output_type": "database", "credential_id": float64(3)},
			wantErr: "table_name is required for database output",
		},
		{
			name: "file valid",
			cfg:  Config{"output_type": "file", "file_path": "/tmp/out.csv", "file_format": "csv"},
		},
		{
			name:    "file missing format",
			cfg:     Config{"output_type": "file", "file_path": "/tmp/out.csv"},
			wantErr: "file_format is required for file output",
		},
		{
			name: "api valid",
			cfg:  Config{"output_type": "api", "url": "https://example.com/sink"},
		},
		{
			name:    "api missing url",
			cfg:     Config{"output_type": "api"},
			wantErr: "url is required for api output",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := outputNode(tt.cfg, cred)
			err := h.Validate(context.Background())
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

func TestOutputExecuteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	_, h := outputNode(Config{
		"output_type": "file",
		"file_path":   path,
		"file_format": "json",
	})

	out, err := h.Execute(context.Background(), []map[string]any{{"id": 1}, {"id": 2}})
	require.NoError(t, err)

	summary := out.(*output.Summary)
	assert.Equal(t, "success", summary.Status)
	assert.Equal(t, "file", summary.OutputType)
	assert.Equal(t, 2, summary.RowsWritten)
	assert.Equal(t, path, summary.Destination)
	assert.FileExists(t, path)
}

func TestOutputExecuteAPI(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	env, h := outputNode(Config{
		"output_type": "api",
		"url":         srv.URL,
		"headers":     map[string]any{"Authorization": "Bearer tok"},
	})
	env.HTTPClient = srv.Client()

	out, err := h.Execute(context.Background(), []map[string]any{{"id": 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, out.(*output.Summary).RowsWritten)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestOutputExecuteDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO results \(id, name\) VALUES \(\?, \?\)`).
		WithArgs(1, "ada").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	env, h := outputNode(Config{
		"output_type":   "database",
		"credential_id": float64(3),
		"table_name":    "results",
	}, rdbmsCredential(3))
	env.DB.RegisterDriver("mockdb", func(context.Context, map[string]string) (*sql.DB, error) {
		return db, nil
	})

	out, err := h.Execute(context.Background(), []map[string]any{{"id": 1, "name": "ada"}})
	require.NoError(t, err)

	summary := out.(*output.Summary)
	assert.Equal(t, 1, summary.RowsWritten)
	assert.Equal(t, "results", summary.Destination)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package node

import (
	"context"

	"github.com/shivakharbanda/agent-builder/credential"
	"github.com/shivakharbanda/agent-builder/output"
)

// outputHandler writes the input records to a configured destination.
// Output nodes are terminal: the summary they return is never fed to
// another node.
type outputHandler struct {
	nctx Context
	env  *Env
}

func newOutputHandler(nctx Context, env *Env) (Handler, error) {
	return &outputHandler{nctx: nctx, env: env}, nil
}

// Validate checks the output type and its type-specific required fields.
func (h *outputHandler) Validate(ctx context.Context) error {
	cfg := h.nctx.Config
	outputType := cfg.String("output_type")
	if outputType == "" {
		return NewConfigError("output_type is required")
	}

	switch outputType {
	case "database":
		credID, ok, err := cfg.Int64("credential_id")
		if err != nil {
			return WrapConfigError(err, "invalid credential_id")
		}
		if !ok || credID == 0 {
			return NewConfigError("credential_id is required for database output")
		}
		if cfg.String("table_name") == "" {
			return NewConfigError("table_name is required for database output")
		}
		if _, err := resolveCredential(ctx, h.env.Credentials, credID, credential.CategoryRDBMS); err != nil {
			return err
		}
	case "file":
		if cfg.String("file_path") == "" {
			return NewConfigError("file_path is required for file output")
		}
		if cfg.String("file_format") == "" {
			return NewConfigError("file_format is required for file output")
		}
	case "api":
		if cfg.String("url") == "" {
			return NewConfigError("url is required for api output")
		}
	default:
		return NewConfigError("invalid output_type %q, must be one of: database, file, api", outputType)
	}
	return nil
}

// Execute writes all input records to the destination and returns the
// write summary.
func (h *outputHandler) Execute(ctx context.Context, input any) (any, error) {
	records, err := recordList(input)
	if err != nil {
		return nil, NewRuntimeError("output node expects a list of records: %v", err)
	}

	writer, err := h.writer(ctx)
	if err != nil {
		return nil, err
	}
	summary, err := writer.Write(ctx, records)
	if err != nil {
		return nil, WrapRuntimeError(err, "output write failed on node %d", h.nctx.NodeID)
	}
	return summary, nil
}

func (h *outputHandler) writer(ctx context.Context) (output.Writer, error) {
	cfg := h.nctx.Config
	switch cfg.String("output_type") {
	case "database":
		credID, _, _ := cfg.Int64("credential_id")
		cred, err := resolveCredential(ctx, h.env.Credentials, credID, credential.CategoryRDBMS)
		if err != nil {
			return nil, err
		}
		return &output.DatabaseWriter{
			Executor: h.env.DB,
			DBType:   cred.TypeName,
			Details:  cred.ConnectionDetails,
			Table:    cfg.String("table_name"),
		}, nil
	case "file":
		return &output.FileWriter{
			Path:   cfg.String("file_path"),
			Format: cfg.String("file_format"),
		}, nil
	case "api":
		return &output.APIWriter{
			URL:     cfg.String("url"),
			Method:  cfg.String("method"),
			Headers: cfg.StringMap("headers"),
			Client:  h.env.HTTPClient,
		}, nil
	default:
		return nil, NewConfigError("invalid output_type %q", cfg.String("output_type"))
	}
}

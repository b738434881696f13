package node

import (
	"context"
	"errors"

	"github.com/shivakharbanda/agent-builder/credential"
	"github.com/shivakharbanda/agent-builder/dbexec"
	"github.com/shivakharbanda/agent-builder/log"
)

const queryPreviewLen = 120

// databaseHandler executes a SQL query against a credentialed database and
// produces the result rows. Database nodes are sources: input is ignored.
type databaseHandler struct {
	nctx Context
	env  *Env
}

func newDatabaseHandler(nctx Context, env *Env) (Handler, error) {
	return &databaseHandler{nctx: nctx, env: env}, nil
}

// Validate checks that the credential resolves to an active RDBMS
// credential and that the query is non-empty after trimming.
func (h *databaseHandler) Validate(ctx context.Context) error {
	credID, ok, err := h.nctx.Config.Int64("credential_id")
	if err != nil {
		return WrapConfigError(err, "invalid credential_id")
	}
	if !ok || credID == 0 {
		return NewConfigError("credential_id is required")
	}
	if _, err := resolveCredential(ctx, h.env.Credentials, credID, credential.CategoryRDBMS); err != nil {
		return err
	}
	if h.nctx.Config.String("query") == "" {
		return NewConfigError("query is required")
	}
	return nil
}

// Execute resolves the credential, substitutes placeholders and runs the
// query through the database executor.
func (h *databaseHandler) Execute(ctx context.Context, _ any) (any, error) {
	credID, _, _ := h.nctx.Config.Int64("credential_id")
	cred, err := resolveCredential(ctx, h.env.Credentials, credID, credential.CategoryRDBMS)
	if err != nil {
		return nil, err
	}

	query := h.nctx.Config.String("query")
	placeholders := h.nctx.Config.Map("placeholders")

	if missing := dbexec.MissingPlaceholders(query, placeholders); len(missing) > 0 {
		return nil, NewConfigError("query has unresolved placeholders: %v", missing)
	}

	log.Debugf("node %d executing query against credential %q", h.nctx.NodeID, cred.Name)
	result, err := h.env.DB.ExecuteQuery(ctx, cred.TypeName, cred.ConnectionDetails, query, placeholders)
	if err != nil {
		var unsupported *dbexec.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			return nil, WrapConfigError(err, "credential %q has unsupported database type", cred.Name)
		}
		// The wrapped message carries the credential name and a query
		// preview, never connection details.
		return nil, WrapRuntimeError(err, "query failed on credential %q (query: %s)",
			cred.Name, preview(query))
	}
	return result.Rows, nil
}

// resolveCredential fetches a credential and checks that it is usable and
// of the required category.
func resolveCredential(ctx context.Context, resolver credential.Resolver, id int64, category string) (*credential.Credential, error) {
	if resolver == nil {
		return nil, NewConfigError("no credential resolver configured")
	}
	cred, err := resolver.Resolve(ctx, id)
	if err != nil {
		if errors.Is(err, credential.ErrNotFound) {
			return nil, NewConfigError("credential with ID %d not found", id)
		}
		return nil, WrapRuntimeError(err, "failed to resolve credential %d", id)
	}
	if !cred.Usable() {
		return nil, NewConfigError("credential %q (ID %d) is inactive", cred.Name, id)
	}
	if cred.Category != category {
		return nil, NewConfigError("credential %q must be category %q, got %q",
			cred.Name, category, cred.Category)
	}
	return cred, nil
}

func preview(query string) string {
	if len(query) <= queryPreviewLen {
		return query
	}
	return query[:queryPreviewLen] + "..."
}

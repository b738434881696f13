// Package credential defines the credential collaborator consumed by the
// workflow engine. The engine resolves credentials by id and validates their
// category; it never owns credential storage.
package credential

import (
	"context"
	"errors"
	"strings"
)

// Credential categories recognized by the engine.
const (
	CategoryRDBMS = "RDBMS"
	CategoryLLM   = "LLM"
)

// ErrNotFound is returned by a Resolver when no credential matches the
// requested id.
var ErrNotFound = errors.New("credential not found")

// Credential is a categorized connection secret referenced by id from node
// configuration.
type Credential struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	TypeName  string `json:"type_name"`
	Category  string `json:"category"`
	IsActive  bool   `json:"is_active"`
	IsDeleted bool   `json:"is_deleted"`

	// ConnectionDetails holds the connection parameters for the credential
	// type, e.g. host, port, user, password, database for an RDBMS
	// credential or api_key and base_url for an LLM credential. Secure
	// values must never be logged; use Redact before emitting them.
	ConnectionDetails map[string]string `json:"connection_details"`
}

// Resolver resolves credential ids to credentials. Implementations are
// expected to return ErrNotFound (possibly wrapped) for unknown ids.
type Resolver interface {
	Resolve(ctx context.Context, id int64) (*Credential, error)
}

// Usable reports whether the credential can be used for execution.
func (c *Credential) Usable() bool {
	return c != nil && c.IsActive && !c.IsDeleted
}

// secureKeywords flags connection detail keys whose values are secrets.
var secureKeywords = []string{"password", "secret", "token", "api_key", "apikey", "key"}

// Redact returns a copy of the connection details with secure values
// masked. Safe to log.
func Redact(details map[string]string) map[string]string {
	out := make(map[string]string, len(details))
	for k, v := range details {
		if isSecureKey(k) {
			out[k] = "***"
			continue
		}
		out[k] = v
	}
	return out
}

func isSecureKey(key string) bool {
	lower := strings.ToLower(key)
	for _, kw := range secureKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

package credential

import (
	"context"
	"fmt"
)

// StaticResolver is an in-memory Resolver over a fixed credential set.
// Useful for tests and for embedding the engine without a credential
// service.
type StaticResolver struct {
	creds map[int64]*Credential
}

// NewStaticResolver creates a StaticResolver holding the given credentials.
func NewStaticResolver(creds ...*Credential) *StaticResolver {
	r := &StaticResolver{creds: make(map[int64]*Credential, len(creds))}
	for _, c := range creds {
		r.creds[c.ID] = c
	}
	return r
}

// Resolve implements Resolver.
func (r *StaticResolver) Resolve(_ context.Context, id int64) (*Credential, error) {
	c, ok := r.creds[id]
	if !ok {
		return nil, fmt.Errorf("credential %d: %w", id, ErrNotFound)
	}
	return c, nil
}

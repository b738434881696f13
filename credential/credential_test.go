package credential

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedactMasksSecureKeys(t *testing.T) {
	details := map[string]string{
		"host":       "db.internal",
		"port":       "5432",
		"user":       "svc",
		"password":   "hunter2",
		"api_key":    "sk-123",
		"auth_token": "t-456",
	}
	redacted := Redact(details)

	assert.Equal(t, "db.internal", redacted["host"])
	assert.Equal(t, "5432", redacted["port"])
	assert.Equal(t, "***", redacted["password"])
	assert.Equal(t, "***", redacted["api_key"])
	assert.Equal(t, "***", redacted["auth_token"])

	// The input map is left untouched.
	assert.Equal(t, "hunter2", details["password"])
}

func TestUsable(t *testing.T) {
	assert.False(t, (*Credential)(nil).Usable())
	assert.False(t, (&Credential{IsActive: false}).Usable())
	assert.False(t, (&Credential{IsActive: true, IsDeleted: true}).Usable())
	assert.True(t, (&Credential{IsActive: true}).Usable())
}

func TestStaticResolver(t *testing.T) {
	resolver := NewStaticResolver(&Credential{ID: 1, Name: "warehouse", Category: CategoryRDBMS, IsActive: true})

	cred, err := resolver.Resolve(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "warehouse", cred.Name)

	_, err = resolver.Resolve(context.Background(), 99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

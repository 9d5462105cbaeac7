package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser("  Alice@Example.COM ", "Alice", "Uwase")
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice Uwase", u.FullName())
	assert.Equal(t, RoleCustomer, u.Role)
	assert.True(t, u.IsActive)

	_, err = NewUser("not-an-email", "A", "B")
	assert.Error(t, err)
}

func TestAddress_BelongsTo(t *testing.T) {
	owner := uuid.New()
	a := &Address{UserID: owner}

	assert.True(t, a.BelongsTo(owner))
	assert.False(t, a.BelongsTo(uuid.New()))
}

package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleValid(t *testing.T) {
	t.Parallel()

	assert.True(t, RoleFree.Valid())
	assert.True(t, RolePremium.Valid())
	assert.False(t, Role("ROLE_PREMIUM").Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestNormalizeRole(t *testing.T) {
	t.Parallel()

	assert.Equal(t, RoleFree, normalizeRole("ROLE_FREE"))
	assert.Equal(t, RolePremium, normalizeRole("ROLE_PREMIUM"))
	assert.Equal(t, RoleFree, normalizeRole("free"))
	assert.Equal(t, RolePremium, normalizeRole("premium"))
	assert.Equal(t, Role("other"), normalizeRole("other"))
}

func TestIsPremium(t *testing.T) {
	t.Parallel()

	assert.False(t, (&Account{Role: RoleFree}).IsPremium())
	assert.True(t, (&Account{Role: RolePremium}).IsPremium())
	// Rows imported from the old system may not be normalized yet.
	assert.True(t, (&Account{Role: Role("ROLE_PREMIUM")}).IsPremium())
	assert.False(t, (&Account{Role: Role("ROLE_FREE")}).IsPremium())
}

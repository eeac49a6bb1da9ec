package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	t.Run("hash verifies against the original password", func(t *testing.T) {
		hash, err := HashPassword("admin123", bcrypt.MinCost)
		require.NoError(t, err)
		assert.NotEqual(t, "admin123", hash)
		assert.NoError(t, CheckPassword("admin123", hash))
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		hash, err := HashPassword("admin123", bcrypt.MinCost)
		require.NoError(t, err)
		assert.ErrorIs(t, CheckPassword("admin124", hash), ErrInvalidPassword)
	})

	t.Run("short passwords are rejected", func(t *testing.T) {
		_, err := HashPassword("12345", bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("passwords over bcrypt limit are rejected", func(t *testing.T) {
		_, err := HashPassword(strings.Repeat("a", 73), bcrypt.MinCost)
		assert.ErrorIs(t, err, ErrPasswordTooLong)
	})
}

func TestGenerateSessionSecret(t *testing.T) {
	a, err := GenerateSessionSecret()
	require.NoError(t, err)
	b, err := GenerateSessionSecret()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}

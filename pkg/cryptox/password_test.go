package cryptox_test

import (
	"testing"

	"github.com/inkwell/inkwell/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	t.Parallel()

	hash, err := cryptox.HashPassword("pw123456")
	require.NoError(t, err)
	require.NotEqual(t, "pw123456", hash)

	t.Run("correct password verifies", func(t *testing.T) {
		require.True(t, cryptox.VerifyPassword("pw123456", hash))
	})

	t.Run("single character mutation fails", func(t *testing.T) {
		require.False(t, cryptox.VerifyPassword("pw123457", hash))
	})

	t.Run("malformed hash is a mismatch not a panic", func(t *testing.T) {
		require.False(t, cryptox.VerifyPassword("pw123456", "not-a-hash"))
	})

	t.Run("same password hashes differently", func(t *testing.T) {
		other, err := cryptox.HashPassword("pw123456")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})
}

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	a, err := cryptox.GenerateCode(cryptox.CodeSize128)
	require.NoError(t, err)
	require.Len(t, a, 22)

	b, err := cryptox.GenerateCode(cryptox.CodeSize128)
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	_, err = cryptox.GenerateCode(0)
	require.Error(t, err)
}

package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCryptoRandomBytes(t *testing.T) {
	t.Run("Generate correct length", func(t *testing.T) {
		bytes, err := CryptoRandomBytes(20)
		require.NoError(t, err)
		assert.Len(t, bytes, 20)
	})

	t.Run("Generate unique values", func(t *testing.T) {
		bytes1, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		bytes2, err := CryptoRandomBytes(20)
		require.NoError(t, err)

		assert.NotEqual(t, bytes1, bytes2, "Random bytes should not be identical")
	})
}

func TestRandomURLToken(t *testing.T) {
	t.Run("Encodes without padding", func(t *testing.T) {
		tok, err := RandomURLToken(32)
		require.NoError(t, err)
		assert.Len(t, tok, 43) // 32 bytes, base64url without padding
		assert.NotContains(t, tok, "=")
		assert.NotContains(t, tok, "+")
		assert.NotContains(t, tok, "/")
	})

	t.Run("Generate unique values", func(t *testing.T) {
		a, err := RandomURLToken(16)
		require.NoError(t, err)
		b, err := RandomURLToken(16)
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})
}

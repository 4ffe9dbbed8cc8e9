package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgon2HashService(t *testing.T) {
	svc := NewArgon2HashService()

	t.Run("hash and verify roundtrip", func(t *testing.T) {
		hash, err := svc.Hash("s3cret")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(hash, "$argon2id$"))

		ok, err := svc.Verify("s3cret", hash)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("wrong password fails verification", func(t *testing.T) {
		hash, err := svc.Hash("s3cret")
		require.NoError(t, err)

		ok, err := svc.Verify("not-it", hash)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("same password yields different hashes", func(t *testing.T) {
		h1, err := svc.Hash("s3cret")
		require.NoError(t, err)
		h2, err := svc.Hash("s3cret")
		require.NoError(t, err)
		assert.NotEqual(t, h1, h2)
	})

	t.Run("malformed hash returns error", func(t *testing.T) {
		_, err := svc.Verify("s3cret", "not-a-hash")
		require.Error(t, err)
	})
}

package entrypoint

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/cliffauth/internal/config"
)

func TestSigningSecret(t *testing.T) {
	t.Run("hex secret is decoded", func(t *testing.T) {
		secret, err := signingSecret(config.Auth{JWTSecret: "deadbeef"})
		require.NoError(t, err)
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, secret)
	})

	t.Run("non-hex secret is used as raw bytes", func(t *testing.T) {
		secret, err := signingSecret(config.Auth{JWTSecret: "correct horse battery staple"})
		require.NoError(t, err)
		assert.Equal(t, []byte("correct horse battery staple"), secret)
	})

	t.Run("empty secret is generated", func(t *testing.T) {
		first, err := signingSecret(config.Auth{})
		require.NoError(t, err)
		second, err := signingSecret(config.Auth{})
		require.NoError(t, err)

		assert.Len(t, first, 32)
		assert.NotEqual(t, hex.EncodeToString(first), hex.EncodeToString(second))
	})
}

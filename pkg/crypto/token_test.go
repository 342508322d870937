package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeviceToken(t *testing.T) {
	plaintext, hash, err := GenerateDeviceToken()
	require.NoError(t, err)
	require.NotEmpty(t, plaintext)
	require.NotEmpty(t, hash)

	assert.NotEqual(t, plaintext, hash)
	assert.True(t, VerifyDeviceToken(plaintext, hash))
	assert.False(t, VerifyDeviceToken("wrong-token", hash))
}

func TestGenerateDeviceToken_Unique(t *testing.T) {
	first, _, err := GenerateDeviceToken()
	require.NoError(t, err)
	second, _, err := GenerateDeviceToken()
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestHashDeviceToken_Deterministic(t *testing.T) {
	assert.Equal(t, HashDeviceToken("abc"), HashDeviceToken("abc"))
	assert.NotEqual(t, HashDeviceToken("abc"), HashDeviceToken("abd"))
}

func TestHashSecret_RoundTrip(t *testing.T) {
	hash, err := HashSecret("1234")
	require.NoError(t, err)

	assert.True(t, CheckSecret("1234", hash))
	assert.False(t, CheckSecret("4321", hash))
}

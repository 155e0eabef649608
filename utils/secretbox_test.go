package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	box, err := NewSecretBox("master-key")
	require.NoError(t, err)

	sealed, err := box.Encrypt([]byte(`{"type":"service_account"}`))
	require.NoError(t, err)
	assert.NotContains(t, sealed, "service_account")

	plain, err := box.Decrypt(sealed)
	require.NoError(t, err)
	assert.Equal(t, `{"type":"service_account"}`, string(plain))
}

func TestSecretBoxWrongKey(t *testing.T) {
	a, _ := NewSecretBox("key-a")
	b, _ := NewSecretBox("key-b")
	sealed, err := a.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = b.Decrypt(sealed)
	assert.ErrorIs(t, err, ErrSecretCorrupted)

	_, err = a.Decrypt("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrSecretCorrupted)
}

func TestSecretBoxRequiresKey(t *testing.T) {
	_, err := NewSecretBox("")
	assert.ErrorIs(t, err, ErrSecretKeyMissing)
}

package cachestore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCipherEncryptDecryptRoundTrip(t *testing.T) {
	c, err := NewCipher("0123456789abcdef")
	require.NoError(t, err)

	encoded := c.Encrypt([]byte("secret payload"), true)
	decoded, err := c.Decrypt(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, "secret payload", string(decoded))

	hexEncoded := c.Encrypt([]byte("other payload"), false)
	decoded, err = c.Decrypt(hexEncoded, false)
	require.NoError(t, err)
	assert.Equal(t, "other payload", string(decoded))
}

func TestCipherAcceptsArbitraryLengthKey(t *testing.T) {
	c, err := NewCipher("a passphrase of no particular byte length")
	require.NoError(t, err)

	encoded := c.Encrypt([]byte("secret payload"), true)
	decoded, err := c.Decrypt(encoded, true)
	require.NoError(t, err)
	assert.Equal(t, "secret payload", string(decoded))
}

func TestCipherRejectsEmptyKey(t *testing.T) {
	_, err := NewCipher("")
	assert.Error(t, err)
}

func TestCipherDecryptRejectsTruncatedCiphertext(t *testing.T) {
	c, err := NewCipher("0123456789abcdef")
	require.NoError(t, err)

	_, err = c.Decrypt("00", false)
	assert.Error(t, err)
}

func TestDeriveCacheFileNameIsStablePerName(t *testing.T) {
	first, err := DeriveCacheFileName("/tmp/cache", "myproject")
	require.NoError(t, err)
	second, err := DeriveCacheFileName("/tmp/cache", "myproject")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := DeriveCacheFileName("/tmp/cache", "otherproject")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
	assert.Equal(t, "/tmp/cache", filepath.Dir(first))
}

func TestSaveAndLoadRoundTripPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.cache")

	require.NoError(t, Save(path, []byte(`{"resources":[]}`), ""))
	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, `{"resources":[]}`, string(loaded))
}

func TestSaveAndLoadRoundTripEncrypted(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.cache")
	key := "0123456789abcdef"

	require.NoError(t, Save(path, []byte(`{"resources":[]}`), key))
	loaded, err := Load(path, key)
	require.NoError(t, err)
	assert.Equal(t, `{"resources":[]}`, string(loaded))

	// wrong key fails to decrypt.
	_, err = Load(path, "fedcba9876543210")
	assert.Error(t, err)
}

func TestMarshalProducesJSON(t *testing.T) {
	out, err := Marshal(map[string]any{"name": "widget"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"widget"}`, string(out))
}

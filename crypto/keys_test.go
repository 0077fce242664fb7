package crypto

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	raw := [20]byte{0x01, 0x02, 0x03}
	addr := NewAddress(CatPrefix, raw[:])

	encoded := addr.String()
	require.True(t, strings.HasPrefix(encoded, "cat1"))

	decoded, err := DecodeAddress(encoded)
	require.NoError(t, err)
	require.Equal(t, raw, decoded.Array())
	require.Equal(t, CatPrefix, decoded.Prefix())
}

func TestDecodeAddressRejectsGarbage(t *testing.T) {
	_, err := DecodeAddress("not-bech32")
	require.Error(t, err)
}

func TestKeyAddressDerivation(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	addr := key.PubKey().Address()
	require.Len(t, addr.Bytes(), 20)
	require.Equal(t, CatPrefix, addr.Prefix())

	// Deterministic: the same key always derives the same address.
	require.Equal(t, addr.String(), key.PubKey().Address().String())
}

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "wallet.keystore")
	require.NoError(t, SaveToKeystore(path, key, "passphrase"))

	loaded, err := LoadFromKeystore(path, "passphrase")
	require.NoError(t, err)
	require.Equal(t, key.PubKey().Address().String(), loaded.PubKey().Address().String())

	_, err = LoadFromKeystore(path, "wrong")
	require.Error(t, err)
}

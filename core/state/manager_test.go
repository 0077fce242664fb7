package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"volatilitycats/storage"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(storage.NewMemDB())
}

func TestKVRoundTrip(t *testing.T) {
	m := newTestManager(t)

	type record struct {
		Name  string
		Count uint64
	}
	require.NoError(t, m.KVPut([]byte("sample"), &record{Name: "a", Count: 7}))

	var got record
	ok, err := m.KVGet([]byte("sample"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record{Name: "a", Count: 7}, got)

	ok, err = m.KVGet([]byte("missing"), &got)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestKVAppendAndList(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.KVAppend([]byte("list"), []byte{0x01}))
	require.NoError(t, m.KVAppend([]byte("list"), []byte{0x02}))

	var entries [][]byte
	require.NoError(t, m.KVGetList([]byte("list"), &entries))
	require.Equal(t, [][]byte{{0x01}, {0x02}}, entries)
}

func TestTokenRegistration(t *testing.T) {
	m := newTestManager(t)

	require.NoError(t, m.RegisterToken("churr", "Churr", 18))
	require.True(t, m.TokenExists("CHURR"))

	meta, err := m.Token("CHURR")
	require.NoError(t, err)
	require.Equal(t, "CHURR", meta.Symbol)
	require.Equal(t, uint8(18), meta.Decimals)

	require.Error(t, m.RegisterToken("CHURR", "Churr", 18), "double registration must fail")
}

func TestMintTokenRequiresAuthority(t *testing.T) {
	m := newTestManager(t)
	authority := []byte{0xAA}
	recipient := []byte{0xBB}

	require.NoError(t, m.RegisterToken("CHURR", "Churr", 18))

	// No authority registered yet: every mint is refused.
	err := m.MintTokenAs(authority, "CHURR", recipient, big.NewInt(5))
	require.Error(t, err)

	require.NoError(t, m.SetTokenMintAuthority("CHURR", authority))
	require.NoError(t, m.MintTokenAs(authority, "CHURR", recipient, big.NewInt(5)))
	require.Error(t, m.MintTokenAs([]byte{0xCC}, "CHURR", recipient, big.NewInt(5)))

	balance, err := m.Balance(recipient, "CHURR")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), balance)

	supply, err := m.TotalSupply("CHURR")
	require.NoError(t, err)
	require.Equal(t, big.NewInt(5), supply)
}

func TestRoles(t *testing.T) {
	m := newTestManager(t)
	addr := []byte{0x01, 0x02}

	require.False(t, m.HasRole("ROLE_GAME_ADMIN", addr))
	require.NoError(t, m.SetRole("ROLE_GAME_ADMIN", addr))
	require.True(t, m.HasRole("ROLE_GAME_ADMIN", addr))

	// Idempotent.
	require.NoError(t, m.SetRole("ROLE_GAME_ADMIN", addr))
	require.True(t, m.HasRole("ROLE_GAME_ADMIN", addr))
	require.False(t, m.HasRole("ROLE_GAME_ADMIN", []byte{0x03}))
}

func TestPauseFlags(t *testing.T) {
	m := newTestManager(t)

	require.False(t, m.IsPaused("cats"))
	require.NoError(t, m.SetPaused("cats", true))
	require.True(t, m.IsPaused("cats"))
	require.False(t, m.IsPaused("registry"))
	require.NoError(t, m.SetPaused("cats", false))
	require.False(t, m.IsPaused("cats"))
}

package state

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"volatilitycats/native/cats"
)

func sampleCat(tokenID uint64) *cats.Cat {
	bitmap := uint256.NewInt(1<<0 | 1<<5)
	return &cats.Cat{
		TokenID: tokenID,
		Owner:   [20]byte{0x11},
		Imprint: cats.OracleImprint{
			Clan:           cats.ClanETH,
			Temperament:    2,
			FortuneTier:    1,
			RarityTier:     0,
			BirthTrendBps:  -4321,
			BirthVolBucket: 2,
			EpochID:        472222,
			Entropy:        [32]byte{0xDE, 0xAD},
		},
		Game: cats.GameState{
			Power:              70,
			Season:             1,
			RulesVersion:       1,
			LastMissionDaily:   1_700_000_100,
			LastMissionWeekly:  1_700_000_200,
			LastMissionMonthly: 0,
			Rewarded:           true,
		},
		Teleport: cats.TeleportState{
			IsAlive:        true,
			CurrentChainID: 5,
			VisitedChains:  bitmap,
			TeleportCount:  3,
			LastTeleport:   1_700_000_300,
		},
	}
}

func TestCatRoundTrip(t *testing.T) {
	m := newTestManager(t)
	original := sampleCat(7)

	require.NoError(t, m.CatPut(original))

	loaded, ok, err := m.CatGet(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, original.Owner, loaded.Owner)
	require.Equal(t, original.Imprint, loaded.Imprint)
	require.Equal(t, original.Game, loaded.Game)
	require.Equal(t, original.Teleport.CurrentChainID, loaded.Teleport.CurrentChainID)
	require.Equal(t, original.Teleport.TeleportCount, loaded.Teleport.TeleportCount)
	require.Equal(t, original.Teleport.LastTeleport, loaded.Teleport.LastTeleport)
	require.True(t, loaded.Teleport.HasVisited(0))
	require.True(t, loaded.Teleport.HasVisited(5))
	require.False(t, loaded.Teleport.HasVisited(1))

	_, ok, err = m.CatGet(404)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNegativeTrendSurvivesStorage(t *testing.T) {
	m := newTestManager(t)
	cat := sampleCat(1)
	cat.Imprint.BirthTrendBps = -10000

	require.NoError(t, m.CatPut(cat))
	loaded, ok, err := m.CatGet(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(-10000), loaded.Imprint.BirthTrendBps)
}

func TestNextCatIDMonotonic(t *testing.T) {
	m := newTestManager(t)

	for want := uint64(0); want < 5; want++ {
		id, err := m.NextCatID()
		require.NoError(t, err)
		require.Equal(t, want, id)
	}
	count, err := m.CatCount()
	require.NoError(t, err)
	require.Equal(t, uint64(5), count)
}

func TestOwnerIndex(t *testing.T) {
	m := newTestManager(t)
	owner := [20]byte{0x22}

	require.NoError(t, m.CatOwnerIndexAdd(owner, 3))
	require.NoError(t, m.CatOwnerIndexAdd(owner, 1))
	require.NoError(t, m.CatOwnerIndexAdd(owner, 3)) // duplicate ignored

	ids, err := m.CatsByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 3}, ids)

	require.NoError(t, m.CatOwnerIndexRemove(owner, 1))
	ids, err = m.CatsByOwner(owner)
	require.NoError(t, err)
	require.Equal(t, []uint64{3}, ids)

	empty, err := m.CatsByOwner([20]byte{0x33})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestJackpotRoundTrip(t *testing.T) {
	m := newTestManager(t)

	pot, err := m.JackpotGet()
	require.NoError(t, err)
	require.Nil(t, pot, "unwritten pool reads as nil")

	require.NoError(t, m.JackpotPut(&cats.Jackpot{
		Epoch:   2,
		Balance: big.NewInt(12345),
		Claimed: true,
		Winner:  [20]byte{0x44},
	}))

	pot, err = m.JackpotGet()
	require.NoError(t, err)
	require.Equal(t, uint64(2), pot.Epoch)
	require.Equal(t, big.NewInt(12345), pot.Balance)
	require.True(t, pot.Claimed)
	require.Equal(t, [20]byte{0x44}, pot.Winner)

	require.Error(t, m.JackpotPut(&cats.Jackpot{Balance: big.NewInt(-1)}))
}

func TestClanFeedRoundTrip(t *testing.T) {
	m := newTestManager(t)

	_, ok, err := m.ClanFeedGet(cats.ClanBTC)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.ClanFeedPut(&cats.ClanFeed{
		Clan:    cats.ClanBTC,
		Feed:    [20]byte{0x55},
		Enabled: true,
	}))

	feed, ok, err := m.ClanFeedGet(cats.ClanBTC)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, [20]byte{0x55}, feed.Feed)
	require.True(t, feed.Enabled)
}

func TestModuleMintToken(t *testing.T) {
	m := newTestManager(t)
	recipient := [20]byte{0x66}

	require.NoError(t, m.RegisterToken(cats.TokenSymbol, "Churr", 18))
	require.NoError(t, m.SetTokenMintAuthority(cats.TokenSymbol, cats.ModuleAddress[:]))

	require.NoError(t, m.MintToken(cats.TokenSymbol, recipient, big.NewInt(10)))

	balance, err := m.Balance(recipient[:], cats.TokenSymbol)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(10), balance)
}

package cats_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"volatilitycats/core/events"
	"volatilitycats/native/cats"
)

func TestMintAssignsSequentialIDs(t *testing.T) {
	e := defaultEnv(t)

	first := e.mint(t, alice, cats.ClanBTC)
	second := e.mint(t, alice, cats.ClanETH)
	third := e.mint(t, bob, cats.ClanPEPE)

	require.Equal(t, uint64(0), first.TokenID)
	require.Equal(t, uint64(1), second.TokenID)
	require.Equal(t, uint64(2), third.TokenID)

	ids, err := e.engine.CatsByOwner(alice)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1}, ids)
}

func TestMintRejectsInvalidClan(t *testing.T) {
	e := defaultEnv(t)
	_, err := e.engine.MintRandomCat(alice, cats.Clan(99))
	require.ErrorIs(t, err, cats.ErrInvalidClan)
}

func TestMintImprintWithinRanges(t *testing.T) {
	e := defaultEnv(t)

	for i := 0; i < 16; i++ {
		cat := e.mint(t, alice, cats.ClanSOL)
		imp := cat.Imprint

		require.Equal(t, cats.ClanSOL, imp.Clan)
		require.Less(t, imp.Temperament, uint8(3))
		require.Less(t, imp.FortuneTier, uint8(3))
		require.Less(t, imp.RarityTier, uint8(3))
		require.Less(t, imp.BirthVolBucket, uint8(3))
		require.GreaterOrEqual(t, imp.BirthTrendBps, int32(-10000))
		require.LessOrEqual(t, imp.BirthTrendBps, int32(10000))
		require.NotEqual(t, [32]byte{}, imp.Entropy)

		e.advance(7)
	}
}

func TestMintEpochIDFollowsWindow(t *testing.T) {
	params := cats.DefaultParams()
	e := newEnv(t, params)

	first := e.mint(t, alice, cats.ClanBTC)
	require.Equal(t, uint64(e.now)/uint64(params.EpochWindowSeconds), first.Imprint.EpochID)

	e.advance(params.EpochWindowSeconds)
	second := e.mint(t, alice, cats.ClanBTC)
	require.Equal(t, first.Imprint.EpochID+1, second.Imprint.EpochID)
}

func TestMintStartsAliveOnHomeChain(t *testing.T) {
	e := defaultEnv(t)
	cat := e.mint(t, alice, cats.ClanDOGE)

	require.True(t, cat.Teleport.IsAlive)
	require.Equal(t, uint32(0), cat.Teleport.CurrentChainID)
	require.True(t, cat.Teleport.HasVisited(0))
	require.Equal(t, uint32(1), cat.Teleport.VisitedCount())
	require.Equal(t, uint64(0), cat.Teleport.TeleportCount)
	require.Equal(t, uint64(0), cat.Game.Power)
	require.False(t, cat.Game.Rewarded)
}

func TestMintFeeAccruesToJackpot(t *testing.T) {
	params := cats.DefaultParams()
	e := newEnv(t, params)

	e.mint(t, alice, cats.ClanBTC)

	balance, err := e.engine.JackpotBalance()
	require.NoError(t, err)
	require.Equal(t, params.Jackpot.MintFee, balance)

	e.mint(t, bob, cats.ClanETH)
	balance, err = e.engine.JackpotBalance()
	require.NoError(t, err)
	expected := cats.DefaultParams().Jackpot.MintFee
	expected.Add(expected, cats.DefaultParams().Jackpot.MintFee)
	require.Equal(t, expected, balance)
}

func TestMintEmitsEvent(t *testing.T) {
	e := defaultEnv(t)
	cat := e.mint(t, alice, cats.ClanLINK)

	minted, ok := e.emitter.last().(events.CatMinted)
	if !ok {
		t.Fatalf("expected CatMinted, got %T", e.emitter.last())
	}
	require.Equal(t, cat.TokenID, minted.TokenID)
	require.Equal(t, alice, minted.Owner)
	require.Equal(t, uint8(cats.ClanLINK), minted.Clan)
	require.Equal(t, cat.Imprint.Entropy, minted.Entropy)
}

func TestDeriveImprintDeterministic(t *testing.T) {
	seed := [32]byte{0x01, 0x02}
	first := cats.DeriveImprint(cats.ClanBTC, alice, 7, 1_700_000_000, seed, 3600)
	second := cats.DeriveImprint(cats.ClanBTC, alice, 7, 1_700_000_000, seed, 3600)
	require.Equal(t, first, second)

	// Any input change must perturb the entropy.
	other := cats.DeriveImprint(cats.ClanBTC, alice, 8, 1_700_000_000, seed, 3600)
	require.NotEqual(t, first.Entropy, other.Entropy)
}

func TestDeriveImprintZeroInputs(t *testing.T) {
	imp := cats.DeriveImprint(cats.ClanBTC, [20]byte{}, 0, 0, [32]byte{}, 3600)
	require.NotEqual(t, [32]byte{}, imp.Entropy)
	require.Equal(t, uint64(0), imp.EpochID)
}

func TestMintPersistsAcrossReload(t *testing.T) {
	e := defaultEnv(t)
	minted := e.mint(t, alice, cats.ClanPEPE)

	loaded, err := e.engine.GetCat(minted.TokenID)
	require.NoError(t, err)
	require.Equal(t, minted.Imprint, loaded.Imprint)
	require.Equal(t, minted.Owner, loaded.Owner)
	require.Equal(t, minted.Teleport.VisitedCount(), loaded.Teleport.VisitedCount())
}

package registry

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"volatilitycats/core/events"
	"volatilitycats/core/state"
	"volatilitycats/storage"
)

type captureEmitter struct {
	events []events.Event
}

func (c *captureEmitter) Emit(evt events.Event) {
	c.events = append(c.events, evt)
}

var (
	adminAddr  = [20]byte{0xA1}
	strayAddr  = [20]byte{0xB2}
	sampleFeed = [20]byte{0xFE, 0xED}
)

func newTestRegistry(t *testing.T) (*Registry, *captureEmitter) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	require.NoError(t, manager.SetRole(RoleRegistryAdmin, adminAddr[:]))
	emitter := &captureEmitter{}
	reg := NewRegistry()
	reg.SetState(manager)
	reg.SetEmitter(emitter)
	return reg, emitter
}

func sampleConfig() AssetConfig {
	return AssetConfig{
		Feed:           sampleFeed,
		Decimals:       8,
		Tier:           TierMid,
		MaxExposureBps: 2500,
	}
}

func TestAddAssetRoundTrip(t *testing.T) {
	reg, emitter := newTestRegistry(t)
	id := DeriveAssetID("BTC")

	require.NoError(t, reg.AddAsset(adminAddr, id, sampleConfig()))

	got, err := reg.GetAsset(id)
	require.NoError(t, err)
	require.Equal(t, sampleFeed, got.Feed)
	require.Equal(t, uint8(8), got.Decimals)
	require.Equal(t, TierMid, got.Tier)
	require.True(t, got.Enabled, "new assets start enabled")

	require.Len(t, emitter.events, 1)
	added, ok := emitter.events[0].(events.AssetAdded)
	if !ok {
		t.Fatalf("expected AssetAdded, got %T", emitter.events[0])
	}
	require.Equal(t, [32]byte(id), added.AssetID)
}

func TestAddAssetDuplicateFails(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := DeriveAssetID("ETH")

	require.NoError(t, reg.AddAsset(adminAddr, id, sampleConfig()))
	err := reg.AddAsset(adminAddr, id, sampleConfig())
	require.ErrorIs(t, err, ErrAssetExists)
}

func TestMutationsRequireAdmin(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := DeriveAssetID("SOL")

	require.ErrorIs(t, reg.AddAsset(strayAddr, id, sampleConfig()), ErrUnauthorized)
	require.ErrorIs(t, reg.UpdateAsset(strayAddr, id, sampleConfig()), ErrUnauthorized)
	require.ErrorIs(t, reg.SetAssetEnabled(strayAddr, id, false), ErrUnauthorized)
}

func TestUpdateAssetRotatesFeed(t *testing.T) {
	reg, emitter := newTestRegistry(t)
	id := DeriveAssetID("LINK")
	require.NoError(t, reg.AddAsset(adminAddr, id, sampleConfig()))

	next := sampleConfig()
	next.Feed = [20]byte{0xCA, 0xFE}
	next.Tier = TierHigh
	require.NoError(t, reg.UpdateAsset(adminAddr, id, next))

	got, err := reg.GetAsset(id)
	require.NoError(t, err)
	require.Equal(t, next.Feed, got.Feed)
	require.Equal(t, TierHigh, got.Tier)
	require.True(t, got.Enabled, "update must not flip the enabled flag")

	updated, ok := emitter.events[len(emitter.events)-1].(events.AssetUpdated)
	if !ok {
		t.Fatalf("expected AssetUpdated, got %T", emitter.events[len(emitter.events)-1])
	}
	require.Equal(t, sampleFeed, updated.OldFeed)
	require.Equal(t, next.Feed, updated.NewFeed)
}

func TestUpdateAssetMissingFails(t *testing.T) {
	reg, _ := newTestRegistry(t)
	err := reg.UpdateAsset(adminAddr, DeriveAssetID("DOGE"), sampleConfig())
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func TestSetAssetEnabled(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := DeriveAssetID("PEPE")
	require.NoError(t, reg.AddAsset(adminAddr, id, sampleConfig()))

	require.NoError(t, reg.SetAssetEnabled(adminAddr, id, false))
	got, err := reg.GetAsset(id)
	require.NoError(t, err)
	require.False(t, got.Enabled)

	require.ErrorIs(t, reg.SetAssetEnabled(adminAddr, DeriveAssetID("missing"), true), ErrAssetNotFound)
}

func TestGetAssetMissingFails(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, err := reg.GetAsset(DeriveAssetID("nope"))
	require.ErrorIs(t, err, ErrAssetNotFound)
}

func TestAllAssetIDsStableOrder(t *testing.T) {
	reg, _ := newTestRegistry(t)
	first := DeriveAssetID("BTC")
	second := DeriveAssetID("ETH")

	require.NoError(t, reg.AddAsset(adminAddr, first, sampleConfig()))
	require.NoError(t, reg.AddAsset(adminAddr, second, sampleConfig()))

	ids, err := reg.AllAssetIDs()
	require.NoError(t, err)
	require.Equal(t, []AssetID{first, second}, ids)
}

func TestValidateConfigRejectsGarbage(t *testing.T) {
	reg, _ := newTestRegistry(t)
	id := DeriveAssetID("BAD")

	cfg := sampleConfig()
	cfg.Tier = VolatilityTier(9)
	require.ErrorIs(t, reg.AddAsset(adminAddr, id, cfg), ErrInvalidAsset)

	cfg = sampleConfig()
	cfg.MaxExposureBps = 10_001
	require.ErrorIs(t, reg.AddAsset(adminAddr, id, cfg), ErrInvalidAsset)

	cfg = sampleConfig()
	cfg.Feed = [20]byte{}
	require.ErrorIs(t, reg.AddAsset(adminAddr, id, cfg), ErrInvalidAsset)
}

func TestClassifyVolatility(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	ref := big.NewInt(100_000)

	cases := []struct {
		name   string
		answer int64
		want   VolatilityTier
	}{
		{"flat", 100_000, TierLow},
		{"small move", 104_000, TierLow},
		{"medium move", 115_000, TierMid},
		{"large move", 140_000, TierHigh},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			feed := StaticFeed{Answer: big.NewInt(tc.answer), Decimals: 8, UpdatedAt: now.Unix()}
			tier, err := ClassifyVolatility(feed, ref, time.Hour, now)
			require.NoError(t, err)
			require.Equal(t, tc.want, tier)
		})
	}
}

func TestClassifyVolatilityStale(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	feed := StaticFeed{Answer: big.NewInt(1), Decimals: 8, UpdatedAt: now.Add(-2 * time.Hour).Unix()}
	_, err := ClassifyVolatility(feed, big.NewInt(1), time.Hour, now)
	require.ErrorIs(t, err, ErrStaleFeed)
}

func TestClassifyVolatilityFeedError(t *testing.T) {
	broken := StaticFeed{Err: errors.New("boom")}
	_, err := ClassifyVolatility(broken, big.NewInt(1), time.Hour, time.Now())
	if err == nil {
		t.Fatal("expected feed error to propagate")
	}
}

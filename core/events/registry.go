package events

import (
	"encoding/hex"

	"volatilitycats/core/types"
)

const (
	TypeAssetAdded   = "registry.asset_added"
	TypeAssetUpdated = "registry.asset_updated"
	TypeAssetEnabled = "registry.asset_enabled"
)

type AssetAdded struct {
	AssetID  [32]byte
	Feed     [20]byte
	Decimals uint8
	Tier     uint8
}

func (AssetAdded) EventType() string { return TypeAssetAdded }

func (e AssetAdded) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetAdded,
		Attributes: map[string]string{
			"assetId":  hex.EncodeToString(e.AssetID[:]),
			"feed":     hex.EncodeToString(e.Feed[:]),
			"decimals": uintToString(uint64(e.Decimals)),
			"tier":     uintToString(uint64(e.Tier)),
		},
	}
}

// AssetUpdated carries both the previous and the replacement feed so indexers
// can track feed rotations without replaying history.
type AssetUpdated struct {
	AssetID [32]byte
	OldFeed [20]byte
	NewFeed [20]byte
	Tier    uint8
}

func (AssetUpdated) EventType() string { return TypeAssetUpdated }

func (e AssetUpdated) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetUpdated,
		Attributes: map[string]string{
			"assetId": hex.EncodeToString(e.AssetID[:]),
			"oldFeed": hex.EncodeToString(e.OldFeed[:]),
			"newFeed": hex.EncodeToString(e.NewFeed[:]),
			"tier":    uintToString(uint64(e.Tier)),
		},
	}
}

type AssetEnabled struct {
	AssetID [32]byte
	Enabled bool
}

func (AssetEnabled) EventType() string { return TypeAssetEnabled }

func (e AssetEnabled) Event() *types.Event {
	return &types.Event{
		Type: TypeAssetEnabled,
		Attributes: map[string]string{
			"assetId": hex.EncodeToString(e.AssetID[:]),
			"enabled": strconvBool(e.Enabled),
		},
	}
}

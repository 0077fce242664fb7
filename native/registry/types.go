package registry

import (
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// RoleRegistryAdmin gates every mutating registry operation.
const RoleRegistryAdmin = "ROLE_REGISTRY_ADMIN"

// AssetID uniquely identifies a price-tracked asset. It is the keccak256 of
// the asset's human-readable symbol, so ids stay stable across deployments.
type AssetID [32]byte

// DeriveAssetID maps a symbol to its registry identifier.
func DeriveAssetID(symbol string) AssetID {
	var id AssetID
	copy(id[:], ethcrypto.Keccak256([]byte(symbol)))
	return id
}

// VolatilityTier buckets an asset by how wildly its price moves.
type VolatilityTier uint8

const (
	TierLow VolatilityTier = iota
	TierMid
	TierHigh

	tierCount = 3
)

func (t VolatilityTier) Valid() bool { return uint8(t) < tierCount }

func (t VolatilityTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMid:
		return "mid"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// AssetConfig is the registry record for one asset. Records are never
// deleted, only disabled.
type AssetConfig struct {
	Feed           [20]byte
	Decimals       uint8
	Tier           VolatilityTier
	MaxExposureBps uint32
	Enabled        bool
}

// Clone returns a copy safe to hand to callers.
func (c *AssetConfig) Clone() *AssetConfig {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

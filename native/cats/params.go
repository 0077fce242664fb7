package cats

import (
	"fmt"
	"math/big"
)

// Role names checked against the state role table for admin operations.
const (
	RoleGameAdmin = "ROLE_GAME_ADMIN"
)

// TokenSymbol is the fungible reward token minted on claim.
const TokenSymbol = "CHURR"

// MissionParams holds the per-type cooldown and the fixed power gain.
type MissionParams struct {
	CooldownSeconds int64
	PowerGain       uint64
}

// TeleportParams gates cross-chain travel.
type TeleportParams struct {
	CooldownSeconds int64
	// TargetChains is the number of distinct non-home chains required to
	// complete a Grand Tour.
	TargetChains uint32
	PowerCost    uint64
	// MaxChainID is the highest chain id representable in the visited
	// bitmap. Teleports above it are rejected rather than wrapped.
	MaxChainID uint32
}

// JackpotParams configures the pooled-fee contributions. GrandTourBonus is an
// extra payout minted on top of the accrued pool when the tour completes.
type JackpotParams struct {
	MintFee        *big.Int
	GrandTourBonus *big.Int
	TeleportFee    *big.Int
}

// Params carries every tunable of the engine. Values are fixed at
// construction; there is no live reconfiguration path.
type Params struct {
	Season             uint32
	RulesVersion       uint32
	EpochWindowSeconds int64
	Missions           [missionTypeCount]MissionParams
	PowerThreshold     uint64
	RewardAmount       *big.Int
	Teleport           TeleportParams
	Jackpot            JackpotParams
}

// DefaultParams mirrors the testnet deployment: 12h/7d/30d mission tiers,
// reward threshold 50, hourly epoch window, five-chain Grand Tour.
func DefaultParams() Params {
	return Params{
		Season:             1,
		RulesVersion:       1,
		EpochWindowSeconds: 3600,
		Missions: [missionTypeCount]MissionParams{
			MissionDaily:   {CooldownSeconds: 12 * 60 * 60, PowerGain: 10},
			MissionWeekly:  {CooldownSeconds: 7 * 24 * 60 * 60, PowerGain: 25},
			MissionMonthly: {CooldownSeconds: 30 * 24 * 60 * 60, PowerGain: 60},
		},
		PowerThreshold: 50,
		RewardAmount:   new(big.Int).Mul(big.NewInt(10), big.NewInt(1e18)),
		Teleport: TeleportParams{
			CooldownSeconds: 60 * 60,
			TargetChains:    5,
			PowerCost:       20,
			MaxChainID:      255,
		},
		Jackpot: JackpotParams{
			MintFee:        new(big.Int).Mul(big.NewInt(1), big.NewInt(1e16)),
			GrandTourBonus: big.NewInt(0),
			TeleportFee:    new(big.Int).Mul(big.NewInt(5), big.NewInt(1e15)),
		},
	}
}

// Validate rejects parameter sets that would break engine invariants.
func (p Params) Validate() error {
	if p.EpochWindowSeconds <= 0 {
		return fmt.Errorf("cats: epoch window must be positive")
	}
	for i, m := range p.Missions {
		if m.CooldownSeconds <= 0 {
			return fmt.Errorf("cats: mission %d cooldown must be positive", i)
		}
		if m.PowerGain == 0 {
			return fmt.Errorf("cats: mission %d power gain must be positive", i)
		}
	}
	if p.RewardAmount == nil || p.RewardAmount.Sign() <= 0 {
		return fmt.Errorf("cats: reward amount must be positive")
	}
	if p.Teleport.CooldownSeconds <= 0 {
		return fmt.Errorf("cats: teleport cooldown must be positive")
	}
	if p.Teleport.TargetChains == 0 {
		return fmt.Errorf("cats: target chains must be positive")
	}
	if p.Teleport.TargetChains > p.Teleport.MaxChainID {
		return fmt.Errorf("cats: target chains exceed bitmap ceiling")
	}
	if p.Teleport.MaxChainID > 255 {
		return fmt.Errorf("cats: max chain id exceeds 256-bit bitmap")
	}
	if p.Jackpot.MintFee == nil || p.Jackpot.MintFee.Sign() < 0 {
		return fmt.Errorf("cats: mint fee must be non-negative")
	}
	if p.Jackpot.GrandTourBonus == nil || p.Jackpot.GrandTourBonus.Sign() < 0 {
		return fmt.Errorf("cats: grand tour bonus must be non-negative")
	}
	if p.Jackpot.TeleportFee == nil || p.Jackpot.TeleportFee.Sign() < 0 {
		return fmt.Errorf("cats: teleport fee must be non-negative")
	}
	return nil
}

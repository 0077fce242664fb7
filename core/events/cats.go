package events

import (
	"encoding/hex"
	"math/big"

	"volatilitycats/core/types"
	"volatilitycats/crypto"
)

const (
	TypeCatMinted        = "cats.minted"
	TypeCatTransferred   = "cats.transferred"
	TypeMissionCompleted = "cats.mission_completed"
	TypeRewardClaimed    = "cats.reward_claimed"
	TypeTeleportDone     = "cats.teleport_completed"
	TypeJackpotAwarded   = "cats.jackpot_awarded"
	TypeClanFeedSet      = "cats.clan_feed_set"
)

// CatMinted is emitted once per token, at creation.
type CatMinted struct {
	TokenID uint64
	Owner   [20]byte
	Clan    uint8
	EpochID uint64
	Entropy [32]byte
}

func (CatMinted) EventType() string { return TypeCatMinted }

func (e CatMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeCatMinted,
		Attributes: map[string]string{
			"tokenId": uintToString(e.TokenID),
			"owner":   crypto.NewAddress(crypto.CatPrefix, e.Owner[:]).String(),
			"clan":    uintToString(uint64(e.Clan)),
			"epochId": uintToString(e.EpochID),
			"entropy": hex.EncodeToString(e.Entropy[:]),
		},
	}
}

type CatTransferred struct {
	TokenID uint64
	From    [20]byte
	To      [20]byte
}

func (CatTransferred) EventType() string { return TypeCatTransferred }

func (e CatTransferred) Event() *types.Event {
	return &types.Event{
		Type: TypeCatTransferred,
		Attributes: map[string]string{
			"tokenId": uintToString(e.TokenID),
			"from":    crypto.NewAddress(crypto.CatPrefix, e.From[:]).String(),
			"to":      crypto.NewAddress(crypto.CatPrefix, e.To[:]).String(),
		},
	}
}

type MissionCompleted struct {
	TokenID     uint64
	MissionType uint8
	NewPower    uint64
}

func (MissionCompleted) EventType() string { return TypeMissionCompleted }

func (e MissionCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeMissionCompleted,
		Attributes: map[string]string{
			"tokenId":     uintToString(e.TokenID),
			"missionType": uintToString(uint64(e.MissionType)),
			"newPower":    uintToString(e.NewPower),
		},
	}
}

type RewardClaimed struct {
	TokenID uint64
	Owner   [20]byte
	Amount  *big.Int
}

func (RewardClaimed) EventType() string { return TypeRewardClaimed }

func (e RewardClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeRewardClaimed,
		Attributes: map[string]string{
			"tokenId": uintToString(e.TokenID),
			"owner":   crypto.NewAddress(crypto.CatPrefix, e.Owner[:]).String(),
			"amount":  formatAmount(e.Amount),
		},
	}
}

type TeleportCompleted struct {
	TokenID       uint64
	FromChain     uint32
	ToChain       uint32
	TeleportCount uint64
	PowerAfter    uint64
	FeePaid       *big.Int
}

func (TeleportCompleted) EventType() string { return TypeTeleportDone }

func (e TeleportCompleted) Event() *types.Event {
	return &types.Event{
		Type: TypeTeleportDone,
		Attributes: map[string]string{
			"tokenId":       uintToString(e.TokenID),
			"fromChain":     uintToString(uint64(e.FromChain)),
			"toChain":       uintToString(uint64(e.ToChain)),
			"teleportCount": uintToString(e.TeleportCount),
			"powerAfter":    uintToString(e.PowerAfter),
			"feePaid":       formatAmount(e.FeePaid),
		},
	}
}

type JackpotAwarded struct {
	TokenID uint64
	Winner  [20]byte
	Amount  *big.Int
	Epoch   uint64
}

func (JackpotAwarded) EventType() string { return TypeJackpotAwarded }

func (e JackpotAwarded) Event() *types.Event {
	return &types.Event{
		Type: TypeJackpotAwarded,
		Attributes: map[string]string{
			"tokenId": uintToString(e.TokenID),
			"winner":  crypto.NewAddress(crypto.CatPrefix, e.Winner[:]).String(),
			"amount":  formatAmount(e.Amount),
			"epoch":   uintToString(e.Epoch),
		},
	}
}

type ClanFeedSet struct {
	Clan    uint8
	Feed    [20]byte
	Enabled bool
}

func (ClanFeedSet) EventType() string { return TypeClanFeedSet }

func (e ClanFeedSet) Event() *types.Event {
	return &types.Event{
		Type: TypeClanFeedSet,
		Attributes: map[string]string{
			"clan":    uintToString(uint64(e.Clan)),
			"feed":    hex.EncodeToString(e.Feed[:]),
			"enabled": strconvBool(e.Enabled),
		},
	}
}

func strconvBool(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
